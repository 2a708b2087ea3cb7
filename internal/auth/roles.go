package auth

import "strings"

type Role string

const (
	RoleViewer   Role = "viewer"
	RoleEditor   Role = "editor"
	RoleDeployer Role = "deployer"
	RoleAdmin    Role = "admin"
)

// rank orders roles; a role is granted everything a lower rank may do.
var rank = map[Role]int{
	RoleViewer:   0,
	RoleEditor:   1,
	RoleDeployer: 2,
	RoleAdmin:    3,
}

func Roles() []Role {
	return []Role{RoleViewer, RoleEditor, RoleDeployer, RoleAdmin}
}

func (r Role) Valid() bool {
	_, ok := rank[r]
	return ok
}

// Allows reports whether r satisfies the required role.
func (r Role) Allows(required Role) bool {
	have, ok := rank[r]
	if !ok {
		return false
	}
	return have >= rank[required]
}

func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}
