package schema

// Profile represents the authenticated user
type Profile struct {
	ID        int     `json:"id"`
	Username  string  `json:"username"`
	Phone     *string `json:"phone"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	Role      string  `json:"role"`
}

// IsAdmin returns true if profile has admin role
func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// ProfileUpdate represents a partial profile update, nil fields are not sent
type ProfileUpdate struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
}

// IsEmpty returns true if no field is set
func (u *ProfileUpdate) IsEmpty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Email == nil && u.Phone == nil
}
