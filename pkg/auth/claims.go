package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	Actor string
	Admin bool
	JTI   string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	Actor string `json:"actor"`
	Admin bool   `json:"admin"`
	jwt.RegisteredClaims
}
