package authclient

import "encoding/json"

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the body of a successful login. User is kept raw so
// fields the portal does not model survive into the credential store.
type LoginResponse struct {
	Access  string          `json:"access"`
	Refresh string          `json:"refresh"`
	User    json.RawMessage `json:"user"`
}

// User is the profile returned by GET /api/auth/me.
type User struct {
	ID       json.RawMessage `json:"id,omitempty"`
	Name     string          `json:"name,omitempty"`
	Username string          `json:"username"`
	Role     string          `json:"role"`
	Status   string          `json:"status,omitempty"`
}

// RefreshResponse is the body of a successful refresh.
type RefreshResponse struct {
	Access string `json:"access"`
}

// MessageResponse is the plain {"message": ...} body several endpoints use.
type MessageResponse struct {
	Message string `json:"message"`
}
