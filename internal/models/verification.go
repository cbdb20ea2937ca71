package models

import "time"

// EmailVerification одноразовый код подтверждения адреса.
type EmailVerification struct {
	ID        int64
	Email     string
	Code      string
	ExpiresAt time.Time
	Used      bool
}

// VerificationMessage задание воркеру на отправку кода.
type VerificationMessage struct {
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
}
