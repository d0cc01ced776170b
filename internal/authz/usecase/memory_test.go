package usecase

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	authzDomain "github.com/allisson/vault/internal/authz/domain"
)

// memoryStore is an in-memory role/policy store shared by memoryRoleRepository
// and memoryPolicyRepository.
type memoryStore struct {
	mu           sync.RWMutex
	roles        map[uuid.UUID]*authzDomain.Role
	policies     map[uuid.UUID]*authzDomain.Policy
	userRoles    map[uuid.UUID]map[uuid.UUID]bool
	rolePolicies map[uuid.UUID]map[uuid.UUID]bool
	listErr      error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		roles:        map[uuid.UUID]*authzDomain.Role{},
		policies:     map[uuid.UUID]*authzDomain.Policy{},
		userRoles:    map[uuid.UUID]map[uuid.UUID]bool{},
		rolePolicies: map[uuid.UUID]map[uuid.UUID]bool{},
	}
}

type memoryRoleRepository struct{ s *memoryStore }

type memoryPolicyRepository struct{ s *memoryStore }

func (r *memoryRoleRepository) Create(_ context.Context, role *authzDomain.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.roles {
		if existing.Name == role.Name {
			return authzDomain.ErrRoleAlreadyExists
		}
	}
	r.s.roles[role.ID] = role
	return nil
}

func (r *memoryRoleRepository) Get(_ context.Context, roleID uuid.UUID) (*authzDomain.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	role, ok := r.s.roles[roleID]
	if !ok {
		return nil, authzDomain.ErrRoleNotFound
	}
	return role, nil
}

func (r *memoryRoleRepository) GetByName(_ context.Context, name string) (*authzDomain.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, role := range r.s.roles {
		if role.Name == name {
			return role, nil
		}
	}
	return nil, authzDomain.ErrRoleNotFound
}

func (r *memoryRoleRepository) List(_ context.Context, offset, limit int) ([]*authzDomain.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	roles := make([]*authzDomain.Role, 0, len(r.s.roles))
	for _, role := range r.s.roles {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Name < roles[j].Name })
	return page(roles, offset, limit), nil
}

func (r *memoryRoleRepository) Delete(_ context.Context, roleID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.roles[roleID]; !ok {
		return authzDomain.ErrRoleNotFound
	}
	delete(r.s.roles, roleID)
	delete(r.s.rolePolicies, roleID)
	for _, roles := range r.s.userRoles {
		delete(roles, roleID)
	}
	return nil
}

func (r *memoryRoleRepository) AssignToUser(_ context.Context, userID, roleID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.userRoles[userID] == nil {
		r.s.userRoles[userID] = map[uuid.UUID]bool{}
	}
	r.s.userRoles[userID][roleID] = true
	return nil
}

func (r *memoryRoleRepository) UnassignFromUser(_ context.Context, userID, roleID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.userRoles[userID][roleID] {
		return authzDomain.ErrAssignmentTargetNotFound
	}
	delete(r.s.userRoles[userID], roleID)
	return nil
}

func (r *memoryRoleRepository) ListByUserID(_ context.Context, userID uuid.UUID) ([]*authzDomain.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	roles := make([]*authzDomain.Role, 0)
	for roleID := range r.s.userRoles[userID] {
		roles = append(roles, r.s.roles[roleID])
	}
	return roles, nil
}

func (p *memoryPolicyRepository) Create(_ context.Context, policy *authzDomain.Policy) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	for _, existing := range p.s.policies {
		if existing.Name == policy.Name {
			return authzDomain.ErrPolicyAlreadyExists
		}
	}
	p.s.policies[policy.ID] = policy
	return nil
}

func (p *memoryPolicyRepository) Get(_ context.Context, policyID uuid.UUID) (*authzDomain.Policy, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	policy, ok := p.s.policies[policyID]
	if !ok {
		return nil, authzDomain.ErrPolicyNotFound
	}
	return policy, nil
}

func (p *memoryPolicyRepository) List(_ context.Context, offset, limit int) ([]*authzDomain.Policy, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	policies := make([]*authzDomain.Policy, 0, len(p.s.policies))
	for _, policy := range p.s.policies {
		policies = append(policies, policy)
	}
	sort.Slice(policies, func(i, j int) bool { return policies[i].Name < policies[j].Name })
	return page(policies, offset, limit), nil
}

func (p *memoryPolicyRepository) Delete(_ context.Context, policyID uuid.UUID) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	if _, ok := p.s.policies[policyID]; !ok {
		return authzDomain.ErrPolicyNotFound
	}
	delete(p.s.policies, policyID)
	for _, policies := range p.s.rolePolicies {
		delete(policies, policyID)
	}
	return nil
}

func (p *memoryPolicyRepository) AttachToRole(_ context.Context, roleID, policyID uuid.UUID) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	if p.s.rolePolicies[roleID] == nil {
		p.s.rolePolicies[roleID] = map[uuid.UUID]bool{}
	}
	p.s.rolePolicies[roleID][policyID] = true
	return nil
}

func (p *memoryPolicyRepository) DetachFromRole(_ context.Context, roleID, policyID uuid.UUID) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	if !p.s.rolePolicies[roleID][policyID] {
		return authzDomain.ErrAssignmentTargetNotFound
	}
	delete(p.s.rolePolicies[roleID], policyID)
	return nil
}

func (p *memoryPolicyRepository) ListByRoleID(_ context.Context, roleID uuid.UUID) ([]*authzDomain.Policy, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	policies := make([]*authzDomain.Policy, 0)
	for policyID := range p.s.rolePolicies[roleID] {
		policies = append(policies, p.s.policies[policyID])
	}
	return policies, nil
}

func (p *memoryPolicyRepository) ListByUserID(_ context.Context, userID uuid.UUID) ([]*authzDomain.Policy, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	if p.s.listErr != nil {
		return nil, p.s.listErr
	}
	seen := map[uuid.UUID]bool{}
	policies := make([]*authzDomain.Policy, 0)
	for roleID := range p.s.userRoles[userID] {
		for policyID := range p.s.rolePolicies[roleID] {
			if !seen[policyID] {
				seen[policyID] = true
				policies = append(policies, p.s.policies[policyID])
			}
		}
	}
	return policies, nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// grant creates a role holding the given policies and assigns it to userID.
func (s *memoryStore) grant(userID uuid.UUID, roleName string, policies ...*authzDomain.Policy) *authzDomain.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	role := &authzDomain.Role{ID: uuid.New(), Name: roleName}
	s.roles[role.ID] = role
	s.rolePolicies[role.ID] = map[uuid.UUID]bool{}
	for _, policy := range policies {
		if policy.ID == uuid.Nil {
			policy.ID = uuid.New()
		}
		if policy.Name == "" {
			policy.Name = roleName + ":" + policy.ResourceType + ":" + policy.Action + ":" + string(policy.Effect)
		}
		s.policies[policy.ID] = policy
		s.rolePolicies[role.ID][policy.ID] = true
	}
	if s.userRoles[userID] == nil {
		s.userRoles[userID] = map[uuid.UUID]bool{}
	}
	s.userRoles[userID][role.ID] = true
	return role
}

func allow(resourceType, action string) *authzDomain.Policy {
	return &authzDomain.Policy{ResourceType: resourceType, Action: action, Effect: authzDomain.EffectAllow}
}

func deny(resourceType, action string) *authzDomain.Policy {
	return &authzDomain.Policy{ResourceType: resourceType, Action: action, Effect: authzDomain.EffectDeny}
}
