// Package access принимает решение о праве пользователя скачать ресурс.
//
// Решение вычисляется чистой функцией Check по записи ресурса, необязательному
// пользователю и текущему моменту. Правила проверяются по порядку, первое
// сработавшее определяет ответ. Счётчик дневных скачиваний здесь только
// читается.
package access

import (
	"time"

	"github.com/magabrotheeeer/resource-store/internal/lib/ids"
	"github.com/magabrotheeeer/resource-store/internal/models"
)

// Причины отказа.
const (
	ReasonLoginRequired      = "please log in"
	ReasonVipOnly            = "this resource is VIP only"
	ReasonPaymentRequired    = "this resource requires payment"
	ReasonDailyLimit         = "daily download limit reached"
	ReasonResourceDailyLimit = "daily download limit for this resource reached"

	MessageDownloadStarted = "download started"
)

// freeDailyDownloads дневной лимит для пользователя без VIP.
const freeDailyDownloads = 1

// resourceLimitSlack множитель лимита ресурса для VIP.
const resourceLimitSlack = 2

// Restrictions решение о скачивании. Не сохраняется.
type Restrictions struct {
	CanDownload        bool     `json:"canDownload"`
	Reason             string   `json:"reason,omitempty"`
	RequiresPayment    bool     `json:"requiresPayment"`
	RequiresVip        bool     `json:"requiresVip"`
	Price              *float64 `json:"price,omitempty"`
	RemainingDownloads *int     `json:"remainingDownloads,omitempty"`
	MaxDownloads       *int     `json:"maxDownloads,omitempty"`
}

// DownloadResult результат имитации скачивания.
type DownloadResult struct {
	Success            bool   `json:"success"`
	Message            string `json:"message"`
	TransactionID      string `json:"transactionId,omitempty"`
	RemainingDownloads *int   `json:"remainingDownloads,omitempty"`
}

// Check вычисляет право user скачать res в момент now. user == nil
// означает анонимного посетителя. Аргументы не изменяются.
func Check(res *models.Resource, user *models.User, now time.Time) Restrictions {
	if user == nil {
		return Restrictions{Reason: ReasonLoginRequired}
	}

	vip := user.EffectiveVip(now)

	if res.IsVipOnly && !vip {
		return Restrictions{Reason: ReasonVipOnly, RequiresVip: true}
	}

	if res.Price > 0 && !vip {
		price := res.Price
		return Restrictions{Reason: ReasonPaymentRequired, RequiresPayment: true, Price: &price}
	}

	if vip {
		limit := user.EffectiveVipDailyLimit()
		if user.DailyDownloadCount >= limit {
			return exhausted(ReasonDailyLimit, limit)
		}
		if res.VipDailyLimit != nil && *res.VipDailyLimit > 0 &&
			user.DailyDownloadCount >= *res.VipDailyLimit*resourceLimitSlack {
			return exhausted(ReasonResourceDailyLimit, *res.VipDailyLimit)
		}
		return allowed(max(0, limit-user.DailyDownloadCount), limit)
	}

	return allowed(freeDailyDownloads, freeDailyDownloads)
}

// ProcessDownload повторно проверяет доступ и при разрешении выдаёт
// идентификатор транзакции и оценку остатка после скачивания.
// Передачи файла и записи счётчика не происходит.
func ProcessDownload(res *models.Resource, user *models.User, now time.Time) DownloadResult {
	r := Check(res, user, now)
	if !r.CanDownload {
		return DownloadResult{
			Message:            r.Reason,
			RemainingDownloads: r.RemainingDownloads,
		}
	}

	remaining := 0
	if r.RemainingDownloads != nil {
		remaining = max(0, *r.RemainingDownloads-1)
	}
	return DownloadResult{
		Success:            true,
		Message:            MessageDownloadStarted,
		TransactionID:      ids.WithPrefix("DL"),
		RemainingDownloads: &remaining,
	}
}

// Quota сводка дневной квоты пользователя.
func Quota(user *models.User, now time.Time) models.QuotaInfo {
	if user == nil {
		return models.QuotaInfo{}
	}
	limit := freeDailyDownloads
	if user.EffectiveVip(now) {
		limit = user.EffectiveVipDailyLimit()
	}
	return models.QuotaInfo{
		DailyUsed:   user.DailyDownloadCount,
		DailyLimit:  limit,
		IsUnlimited: false,
		CanDownload: user.DailyDownloadCount < limit,
	}
}

func exhausted(reason string, limit int) Restrictions {
	zero := 0
	return Restrictions{Reason: reason, RemainingDownloads: &zero, MaxDownloads: &limit}
}

func allowed(remaining, limit int) Restrictions {
	return Restrictions{CanDownload: true, RemainingDownloads: &remaining, MaxDownloads: &limit}
}
