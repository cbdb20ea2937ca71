package models

import "time"

// Статусы учётной записи администратора.
const (
	AdminStatusActive   = "active"
	AdminStatusDisabled = "disabled"
)

// AdminUser учётная запись администратора. Пароль хранится в bcrypt.
type AdminUser struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	Status       string     `json:"status"`
	LastLoginAt  *time.Time `json:"lastLoginAt"`
}
