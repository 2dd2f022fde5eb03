package models

import "time"

// Session is a logged-in user's token-scoped state, held in the session
// repository (Redis with in-memory fallback).
type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
