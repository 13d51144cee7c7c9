package policy

import (
	"context"
	"errors"
	"strings"

	"github.com/jonwraymond/authcore/auth"
)

// ErrRuleNotFound indicates a tool has no entry in the permission table.
// Callers treat unknown tools as denied.
var ErrRuleNotFound = errors.New("policy: no rule for tool")

// DecisionRecorder receives the outcome of each permission decision.
type DecisionRecorder interface {
	RecordDecision(ctx context.Context, action, resource string, allowed bool)
}

// Engine is the stateless policy decision engine.
//
// Contract:
// - Concurrency: safe for concurrent use; all tables are immutable.
// - Errors: HasPermission and RequiresHumanApproval never fail; deny is the
//   default for anything unrecognized.
type Engine struct {
	config      Config
	destructive map[string]bool
	exempt      map[string]bool
	metrics     DecisionRecorder
}

// NewEngine creates a policy engine over the given tables. A zero-value
// Config denies everything.
func NewEngine(config Config, metrics DecisionRecorder) *Engine {
	destructive := make(map[string]bool, len(config.DestructiveTools))
	for _, tool := range config.DestructiveTools {
		destructive[tool] = true
	}
	exempt := make(map[string]bool, len(config.ExemptRoles))
	for _, role := range config.ExemptRoles {
		exempt[role] = true
	}

	return &Engine{
		config:      config,
		destructive: destructive,
		exempt:      exempt,
		metrics:     metrics,
	}
}

// ToolPermissions returns the permission rule for a tool, with any condition
// predicates attached. Unknown tools return ErrRuleNotFound.
func (e *Engine) ToolPermissions(toolName string) (Rule, error) {
	rule, ok := e.config.Tools[toolName]
	if !ok {
		return Rule{}, ErrRuleNotFound
	}
	rule.Conditions = e.config.Conditions[rule.Action+":"+rule.Resource]
	return rule, nil
}

// HasPermission decides whether the caller may perform action on resource.
//
// Decision order: an explicit "action:resource" grant on the context wins
// first, but is still gated by any condition predicates for that pair; then
// each role's implied permission set is tested in order; anything else is
// denied.
func (e *Engine) HasPermission(ctx context.Context, ac *auth.AuthorizationContext, action, resource string, conditionInputs map[string]bool) bool {
	allowed := e.decide(ac, action, resource, conditionInputs)
	if e.metrics != nil {
		e.metrics.RecordDecision(ctx, action, resource, allowed)
	}
	return allowed
}

func (e *Engine) decide(ac *auth.AuthorizationContext, action, resource string, conditionInputs map[string]bool) bool {
	if ac == nil || action == "" || resource == "" {
		return false
	}

	// 1. Explicit grant, still condition-gated.
	if ac.HasExplicitPermission(action + ":" + resource) {
		return e.conditionsMet(action, resource, conditionInputs)
	}

	// 2. Role-implied permissions.
	for _, role := range ac.Roles() {
		for _, perm := range e.config.RolePermissions[role] {
			if matchPattern(perm.Action, action) && matchPattern(perm.Resource, resource) {
				if e.conditionsMet(action, resource, conditionInputs) {
					return true
				}
			}
		}
	}

	// 3. Deny by default.
	return false
}

// conditionsMet checks the condition predicates declared for the
// action/resource pair against the supplied inputs, AND-ing across all
// declared keys. Pairs with no declared conditions always pass.
func (e *Engine) conditionsMet(action, resource string, inputs map[string]bool) bool {
	required := e.config.Conditions[action+":"+resource]
	for key, want := range required {
		if inputs[key] != want {
			return false
		}
	}
	return true
}

// RequiresHumanApproval reports whether invoking the tool needs a separate
// human-approval gate. It is independent of HasPermission: a caller may be
// permitted to invoke a tool yet still require approval before execution.
func (e *Engine) RequiresHumanApproval(toolName string, ac *auth.AuthorizationContext) bool {
	if !e.destructive[toolName] {
		return false
	}
	if ac != nil {
		for _, role := range ac.Roles() {
			if e.exempt[role] {
				return false
			}
		}
	}
	return true
}

// matchPattern matches a table pattern against a value. "*" matches
// anything; a trailing "*" matches by prefix.
func matchPattern(pattern, value string) bool {
	if pattern == "*" {
		return true
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(value, strings.TrimSuffix(pattern, "*"))
	}
	return pattern == value
}
