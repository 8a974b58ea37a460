package types

import "github.com/golang-jwt/jwt/v5"

// Claims is the access-token payload. UserID is the only custom claim; the
// rating pipeline and the middleware both resolve the user through it.
type Claims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}
