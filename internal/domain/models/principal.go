package models

// Principal is the provider-agnostic verified identity derived once per
// request from a validated token. Immutable for the request's lifetime.
type Principal struct {
	UserID      string
	DisplayName string
	Email       string
	TenantID    string
	Roles       []string
	Groups      []string
}

// HasRole reports whether the principal carries the given provider role.
func (p *Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// InGroup reports whether the principal belongs to the given provider group.
func (p *Principal) InGroup(group string) bool {
	for _, g := range p.Groups {
		if g == group {
			return true
		}
	}
	return false
}
