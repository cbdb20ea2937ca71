// Package models содержит доменные структуры магазина ресурсов: пользователей,
// администраторов, каталог, заказы и служебные записи.
package models

import "time"

// DefaultVipDailyLimit дневной лимит скачиваний VIP-пользователя,
// если у пользователя не задан собственный положительный лимит.
const DefaultVipDailyLimit = 20

// User зарегистрированный пользователь сайта.
type User struct {
	ID                 int64
	Username           string
	Email              string
	PasswordHash       string // "<соль hex>:<scrypt hex>"
	EmailVerified      bool
	AvatarURL          *string
	IsVip              bool
	VipExpireAt        *time.Time // nil означает бессрочный VIP
	VipPlanID          *int64
	VipPlanName        *string
	DailyDownloadCount int
	VipDailyLimit      *int
	CreatedAt          time.Time
}

// EffectiveVip сообщает, действует ли VIP на момент now с учётом срока.
func (u *User) EffectiveVip(now time.Time) bool {
	if u == nil || !u.IsVip {
		return false
	}
	return u.VipExpireAt == nil || u.VipExpireAt.After(now)
}

// EffectiveVipDailyLimit личный лимит пользователя или DefaultVipDailyLimit.
func (u *User) EffectiveVipDailyLimit() int {
	if u == nil || u.VipDailyLimit == nil || *u.VipDailyLimit <= 0 {
		return DefaultVipDailyLimit
	}
	return *u.VipDailyLimit
}

// UserProfile публичное представление пользователя.
type UserProfile struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	AvatarURL   *string    `json:"avatarUrl"`
	IsVip       bool       `json:"isVip"`
	VipExpireAt *time.Time `json:"vipExpireAt"`
	VipPlanID   *int64     `json:"vipPlanId"`
	VipPlanName *string    `json:"vipPlanName"`
}

// Profile собирает UserProfile. Поле IsVip отражает действующий VIP.
func (u *User) Profile(now time.Time) UserProfile {
	return UserProfile{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		AvatarURL:   u.AvatarURL,
		IsVip:       u.EffectiveVip(now),
		VipExpireAt: u.VipExpireAt,
		VipPlanID:   u.VipPlanID,
		VipPlanName: u.VipPlanName,
	}
}

// UserSummary строка списка пользователей в админке.
type UserSummary struct {
	ID            int64      `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	EmailVerified bool       `json:"emailVerified"`
	IsVip         bool       `json:"isVip"`
	VipExpireAt   *time.Time `json:"vipExpireAt"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// UserUpdate изменяемые администратором поля пользователя. nil означает
// «не менять».
type UserUpdate struct {
	Username      *string
	Email         *string
	EmailVerified *bool
	PasswordHash  *string
}

// VipPlan тарифный план VIP.
type VipPlan struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	Price              float64 `json:"price"`
	DurationDays       int     `json:"durationDays"`
	DailyDownloadLimit *int    `json:"dailyDownloadLimit"`
}

// QuotaInfo сведения о дневной квоте скачиваний.
type QuotaInfo struct {
	DailyUsed   int  `json:"dailyUsed"`
	DailyLimit  int  `json:"dailyLimit"`
	IsUnlimited bool `json:"isUnlimited"`
	CanDownload bool `json:"canDownload"`
}
