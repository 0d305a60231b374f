package session

import (
	"sort"

	"ticketing-front/internal/model"
)

const (
	RoleAdmin = "ROLE_ADMIN"
	RoleAgent = "ROLE_AGENT"
	RoleUser  = "ROLE_USER"
)

// Roles is a normalized set of role names.
type Roles map[string]struct{}

func NewRoles(names ...string) Roles {
	roles := make(Roles, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		roles[name] = struct{}{}
	}
	return roles
}

func (r Roles) Has(name string) bool {
	_, ok := r[name]
	return ok
}

func (r Roles) HasAny(names ...string) bool {
	for _, name := range names {
		if r.Has(name) {
			return true
		}
	}
	return false
}

// IsAdmin matches both the prefixed and the bare spelling, literally.
func (r Roles) IsAdmin() bool {
	return r.HasAny(RoleAdmin, "ADMIN")
}

func (r Roles) IsAgent() bool {
	return r.HasAny(RoleAgent, "AGENT")
}

// Sorted returns the role names in a stable order for display.
func (r Roles) Sorted() []string {
	out := make([]string, 0, len(r))
	for name := range r {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Identity is what the view gates sections on.
type Identity struct {
	IsAuth  bool
	IsAdmin bool
	IsAgent bool
	Roles   Roles
}

// CanScan reports access to the entry gate.
func (i Identity) CanScan() bool {
	return i.IsAdmin || i.IsAgent
}

// Derive computes the identity from the current token and profile. A nil
// profile with a token is a valid state: signed in, roles unknown.
func Derive(token string, profile *model.Profile) Identity {
	id := Identity{IsAuth: token != "", Roles: Roles{}}
	if profile == nil {
		return id
	}

	id.Roles = NewRoles(profile.Roles...)
	id.IsAdmin = id.Roles.IsAdmin()
	id.IsAgent = id.Roles.IsAgent()
	return id
}
