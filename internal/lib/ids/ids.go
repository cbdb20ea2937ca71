// Package ids генерирует сортируемые по времени идентификаторы (ULID)
// для номеров заказов и транзакций скачивания.
package ids

import (
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// New возвращает новый ULID в каноническом строковом виде.
func New() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// WithPrefix возвращает ULID с заданным префиксом, например "ORD" или "DL".
func WithPrefix(prefix string) string {
	return prefix + New()
}
