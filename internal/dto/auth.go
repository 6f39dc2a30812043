package dto

import "time"

// SessionRequest exchanges a Canvas API token for a dashboard session.
type SessionRequest struct {
	CanvasToken string `json:"canvasToken" binding:"required,min=16"`
}

// SessionResponse carries the signed session token.
type SessionResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	UserID      int64     `json:"userId"`
	UserName    string    `json:"userName"`
}
