package domain

// Principal is the resolved caller passed explicitly into every workflow call.
type Principal struct {
	UID          string
	Name         string
	Role         Role
	Jurisdiction Jurisdiction
	Verified     bool
}

// SystemPrincipal acts for automated jobs.
func SystemPrincipal() Principal {
	return Principal{UID: "system", Name: "system", Role: RoleSystem, Verified: true}
}

// CanAccess reports whether the principal's scope includes target.
func (p Principal) CanAccess(target Jurisdiction) bool {
	return p.Jurisdiction.Covers(p.Role.Scope(), target)
}
