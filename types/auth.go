package types

// LoginRequest is proxied to the SSO service; no credentials are verified
// locally.
type LoginRequest struct {
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// GetServiceTokenRequest asks the SSO service for a redirect token that
// lands an external user on this service.
type GetServiceTokenRequest struct {
	InternalIdentifier string `json:"internal_identifier" validate:"required"`
	RedirectURL        string `json:"redirect_url" validate:"required"`
	UserType           string `json:"user_type" validate:"required"`
}

// SSOUser is the identity payload returned by the SSO service.
type SSOUser struct {
	UUID        string   `json:"uuid"`
	Username    string   `json:"username"`
	PhoneNumber string   `json:"phone_number"`
	Name        *string  `json:"name"`
	Email       *string  `json:"email"`
	Permissions []string `json:"permissions"`
}

// LoginUserResponse mirrors the SSO login response.
type LoginUserResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Access  string  `json:"access"`
	Refresh string  `json:"refresh"`
	User    SSOUser `json:"user"`
}
