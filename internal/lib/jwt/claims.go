package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

// Роли, которые записываются в токен.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Claims данные сессии, хранящиеся в JWT.
type Claims struct {
	UserID               int64  `json:"uid"`
	Username             string `json:"username"`
	Role                 string `json:"role"`
	jwt.RegisteredClaims        // ExpiresAt, IssuedAt, ID
}
