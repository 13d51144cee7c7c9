// Package policy decides whether a caller may perform an action on a
// resource.
//
// The Engine is a stateless decision function over immutable tables: a
// tool-to-permission table, per-role implied permission sets, condition
// predicates keyed by "action:resource", and a destructive-tool approval
// table. Decisions never raise; any ambiguous or unrecognized input resolves
// to deny.
package policy
