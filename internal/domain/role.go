package domain

import "strings"

// Role enumerates portal roles.
type Role string

const (
	RoleVillager        Role = "villager"
	RoleVillageIncharge Role = "village_incharge"
	RolePDO             Role = "pdo"
	RoleTDO             Role = "tdo"
	RoleDDO             Role = "ddo"
	RoleAdmin           Role = "admin"
	// RoleSystem is used for automated actions such as close-out sweeps.
	RoleSystem Role = "system"
)

var authorityRoles = map[Role]struct{}{
	RoleVillageIncharge: {},
	RolePDO:             {},
	RoleTDO:             {},
	RoleDDO:             {},
}

// IsAuthority reports whether the role belongs to the government chain.
func (r Role) IsAuthority() bool {
	_, ok := authorityRoles[r]
	return ok
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleVillager, RoleVillageIncharge, RolePDO, RoleTDO, RoleDDO, RoleAdmin, RoleSystem:
		return true
	}
	return false
}

// Scope returns the jurisdiction level the role operates at.
func (r Role) Scope() Level {
	switch r {
	case RoleVillager, RoleVillageIncharge, RolePDO:
		return LevelPanchayat
	case RoleTDO:
		return LevelTaluk
	case RoleDDO:
		return LevelDistrict
	default:
		return LevelGlobal
	}
}

// ParseRole accepts the route and profile spellings of a role.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "villager":
		return RoleVillager, true
	case "village_incharge", "vi", "village-incharge":
		return RoleVillageIncharge, true
	case "pdo":
		return RolePDO, true
	case "tdo":
		return RoleTDO, true
	case "ddo":
		return RoleDDO, true
	case "admin":
		return RoleAdmin, true
	}
	return "", false
}

// RouteSegment is the URL path segment used for the role's pages.
func (r Role) RouteSegment() string {
	if r == RoleVillageIncharge {
		return "vi"
	}
	return string(r)
}
