package principal

import "fmt"

type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"

	// legacyRoleUser is the bottom-tier value written by the older schema.
	legacyRoleUser Role = "user"
)

type Tier int

const (
	TierNone Tier = iota
	TierStandard
	TierManager
	TierSuper
)

var tiers = map[Role]Tier{
	RoleEmployee:   TierStandard,
	legacyRoleUser: TierStandard,
	RoleManager:    TierManager,
	RoleAdmin:      TierSuper,
}

func (r Role) Tier() Tier {
	return tiers[r]
}

func (r Role) Valid() bool {
	return r == RoleEmployee || r == RoleManager || r == RoleAdmin
}

// Normalize reports legacy rows under their canonical name.
func (r Role) Normalize() Role {
	if r == legacyRoleUser {
		return RoleEmployee
	}
	return r
}

// ParseRole accepts the canonical roles and normalizes the legacy "user" to employee.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if r == legacyRoleUser {
		return RoleEmployee, nil
	}
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

func (t Tier) String() string {
	switch t {
	case TierStandard:
		return "standard"
	case TierManager:
		return "manager"
	case TierSuper:
		return "super"
	default:
		return "none"
	}
}
