package policy

// Rule maps a tool to the permission it needs.
type Rule struct {
	// Action is the verb, e.g. "execute", "read", "write", "delete".
	Action string

	// Resource is the target, e.g. "sql", "tables", "auth_users".
	Resource string

	// Conditions are the predicates that must additionally hold, if any.
	// Populated from the engine's condition table on lookup.
	Conditions Conditions
}

// Permission is a role-implied grant. Action and Resource support the "*"
// wildcard and trailing-"*" prefix patterns.
type Permission struct {
	Action   string
	Resource string
}

// Conditions is a predicate set that must additionally hold for a grant,
// with AND semantics across keys.
type Conditions map[string]bool

// Config holds the policy tables. All tables are treated as immutable after
// the engine is constructed.
type Config struct {
	// Tools maps tool names to the permission they require.
	Tools map[string]Rule

	// RolePermissions maps role names to their implied permission sets.
	RolePermissions map[string][]Permission

	// Conditions maps "action:resource" keys to required predicate values.
	Conditions map[string]Conditions

	// DestructiveTools lists tools that require a human-approval gate.
	DestructiveTools []string

	// ExemptRoles lists roles whose holders skip the approval gate.
	ExemptRoles []string
}

// DefaultConfig returns the fixed policy tables for the privileged-operation
// broker: the tool table, role-implied permissions, the read-only condition
// on SQL execution, and the destructive-tool approval set.
func DefaultConfig() Config {
	return Config{
		Tools: map[string]Rule{
			"execute_sql":      {Action: "execute", Resource: "sql"},
			"query_table":      {Action: "read", Resource: "tables"},
			"list_tables":      {Action: "read", Resource: "tables"},
			"insert_data":      {Action: "write", Resource: "tables"},
			"delete_auth_user": {Action: "delete", Resource: "auth_users"},
			"list_auth_users":  {Action: "read", Resource: "auth_users"},
			"apply_migration":  {Action: "write", Resource: "migrations"},
			"get_logs":         {Action: "read", Resource: "logs"},
		},
		RolePermissions: map[string][]Permission{
			"anon": {
				{Action: "read", Resource: "public_data"},
			},
			"authenticated": {
				{Action: "read", Resource: "public_data"},
				{Action: "read", Resource: "tables"},
			},
			"operator": {
				{Action: "read", Resource: "*"},
				{Action: "execute", Resource: "sql"},
				{Action: "write", Resource: "tables"},
			},
			"service_role": {
				{Action: "read", Resource: "*"},
				{Action: "write", Resource: "*"},
				{Action: "execute", Resource: "sql"},
				{Action: "delete", Resource: "auth_users"},
			},
			"admin": {
				{Action: "*", Resource: "*"},
			},
		},
		Conditions: map[string]Conditions{
			"execute:sql": {"readOnly": true},
		},
		DestructiveTools: []string{"execute_sql", "delete_auth_user", "apply_migration"},
		ExemptRoles:      []string{"admin"},
	}
}
