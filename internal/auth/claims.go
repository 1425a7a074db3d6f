package auth

import "github.com/golang-jwt/jwt/v5"

// Role is the coarse authorization level carried in access tokens.
// The dialer is single-tenant; there is no workspace dimension.
type Role string

const (
	RoleAgent    Role = "agent"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

// Claims are the only supported JWT claims shape for this service.
type Claims struct {
	jwt.RegisteredClaims

	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}
