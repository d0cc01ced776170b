// Package domain defines roles, policies and the RBAC evaluation rule.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Effect is the outcome a matching policy contributes.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// Valid reports whether e is allow or deny.
func (e Effect) Valid() bool {
	return e == EffectAllow || e == EffectDeny
}

// Policy is a single access rule. ResourceType and Action are free-form and
// matched by exact, case-sensitive equality.
type Policy struct {
	ID           uuid.UUID
	Name         string
	Description  string
	ResourceType string
	Action       string
	Effect       Effect
	CreatedAt    time.Time
}

// Matches reports whether the policy applies to (resourceType, action).
func (p *Policy) Matches(resourceType, action string) bool {
	return p.ResourceType == resourceType && p.Action == action
}

// Evaluate applies deny-overrides-allow over policies: any matching deny wins,
// otherwise any matching allow grants, otherwise access is denied.
func Evaluate(policies []*Policy, resourceType, action string) bool {
	allowed := false
	for _, p := range policies {
		if !p.Matches(resourceType, action) {
			continue
		}
		if p.Effect == EffectDeny {
			return false
		}
		if p.Effect == EffectAllow {
			allowed = true
		}
	}
	return allowed
}
