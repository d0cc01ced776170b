package domain

// Built-in resource types.
const (
	ResourceSecret = "secret"
	ResourceUser   = "user"
	ResourceRole   = "role"
	ResourcePolicy = "policy"
	ResourceAudit  = "audit"
)

// Built-in actions. Policies may name any action; these are the ones the
// service checks.
const (
	ActionRead   = "read"
	ActionWrite  = "write"
	ActionDelete = "delete"
	ActionRotate = "rotate"
	ActionReveal = "reveal"
)

// Permission is a (resource type, action) pair.
type Permission struct {
	ResourceType string
	Action       string
}

// BuiltinPermissions lists every pair the service checks. The bootstrap
// administrator role receives an allow policy for each.
var BuiltinPermissions = []Permission{
	{ResourceSecret, ActionRead},
	{ResourceSecret, ActionWrite},
	{ResourceSecret, ActionRotate},
	{ResourceSecret, ActionReveal},
	{ResourceSecret, ActionDelete},
	{ResourceUser, ActionRead},
	{ResourceUser, ActionWrite},
	{ResourceUser, ActionDelete},
	{ResourceRole, ActionRead},
	{ResourceRole, ActionWrite},
	{ResourceRole, ActionDelete},
	{ResourcePolicy, ActionRead},
	{ResourcePolicy, ActionWrite},
	{ResourcePolicy, ActionDelete},
	{ResourceAudit, ActionRead},
}
