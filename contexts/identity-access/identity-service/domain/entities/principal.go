package entities

// Principal is the resolved identity of a caller. The zero value is the
// anonymous principal.
type Principal struct {
	ID       string
	Role     Role
	IsActive bool
}

// Anonymous is the principal used when no credential resolves to a user.
var Anonymous = Principal{}

func (p Principal) IsAnonymous() bool {
	return p.ID == ""
}

// FromUser builds the principal exposed to the HTTP layer from a loaded user.
func FromUser(user User) Principal {
	return Principal{
		ID:       user.ID,
		Role:     user.Role,
		IsActive: user.IsActive,
	}
}
