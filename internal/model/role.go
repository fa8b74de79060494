package model

import "slices"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type Roles []Role

// Has reports whether every role in want is present.
func (r Roles) Has(want ...Role) bool {
	for _, w := range want {
		if !slices.Contains(r, w) {
			return false
		}
	}
	return true
}

func (r Roles) Strings() []string {
	out := make([]string, len(r))
	for i, role := range r {
		out[i] = string(role)
	}
	return out
}

func RolesFromStrings(in []string) Roles {
	out := make(Roles, len(in))
	for i, s := range in {
		out[i] = Role(s)
	}
	return out
}
