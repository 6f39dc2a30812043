package models

import "github.com/golang-jwt/jwt/v5"

// SessionClaims are the JWT claims issued for a dashboard session. The Canvas
// API token travels inside the claims and is re-attached to the request
// context on every call; providers never read it from shared state.
type SessionClaims struct {
	UserID      int64  `json:"uid"`
	UserName    string `json:"name"`
	CanvasToken string `json:"cvt"`
	jwt.RegisteredClaims
}
