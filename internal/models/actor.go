package models

// Actor is the authenticated identity every operation runs as. Both Roles
// and Provinces are always populated at the boundary, even when the upstream
// identity record carries a single role/province pair.
type Actor struct {
	ID        uint
	Username  string
	FullName  string
	Roles     []Role
	Provinces []string
}

func (a Actor) HasRole(r Role) bool {
	for _, have := range a.Roles {
		if have == r {
			return true
		}
	}
	return false
}

func (a Actor) HasProvince(p string) bool {
	for _, have := range a.Provinces {
		if have == p {
			return true
		}
	}
	return false
}

// HasApproverRole reports whether the actor can decide at any level of the
// approval chain.
func (a Actor) HasApproverRole() bool {
	return a.HasRole(RoleProvincialDirector) || a.HasRole(RoleSecretaryGeneral) || a.HasRole(RoleBoard)
}
