package schema

type (
	// LoginRequest represents username/password login payload
	LoginRequest struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	// Registration represents account registration payload
	Registration struct {
		Username  string `json:"username"`
		Password  string `json:"password"`
		Password2 string `json:"password2"`
		Email     string `json:"email,omitempty"`
		FirstName string `json:"first_name,omitempty"`
		LastName  string `json:"last_name,omitempty"`
		Phone     string `json:"phone,omitempty"`
	}

	// AuthResponse is returned by login and register endpoints
	AuthResponse struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
		Role    string `json:"role"`
		Detail  string `json:"detail,omitempty"`
	}

	// RefreshRequest is sent to the token refresh endpoint
	RefreshRequest struct {
		Refresh string `json:"refresh"`
	}

	// RefreshResponse carries a new access token and, with rotation enabled, a new refresh token
	RefreshResponse struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh,omitempty"`
	}
)

// Roles
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
	RoleUser  = "user"
)

// Validate checks registration fields the server would otherwise reject
func (r *Registration) Validate() error {
	if r.Username == "" {
		return NewFieldError("username", "username is required")
	}
	if r.Password == "" {
		return NewFieldError("password", "password is required")
	}
	if r.Password != r.Password2 {
		return NewFieldError("password2", "passwords do not match")
	}
	return nil
}
