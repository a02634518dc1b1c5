package model

import "time"

// Plan is a learner's subscription tier.
type Plan string

const (
	PlanFree    Plan = "FREE"
	PlanPremium Plan = "PREMIUM"
)

// Learner is a registered student account.
type Learner struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Plan         Plan      `json:"plan"`
	CreatedAt    time.Time `json:"created_at"`
}

// RegisterRequest is the payload for learner sign-up.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// LoginRequest is the payload for learner/admin sign-in.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
