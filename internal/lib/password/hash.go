// Package password реализует хеширование и проверку паролей.
//
// Пароли пользователей сайта хранятся в формате "<соль hex>:<scrypt hex>"
// (N=16384, r=8, p=1, ключ 64 байта), пароли администраторов в bcrypt.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/scrypt"
)

const (
	scryptN      = 16384
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 64
	saltLen      = 16
)

var (
	// ErrMismatch пароль не соответствует хешу.
	ErrMismatch = errors.New("password mismatch")
	// ErrMalformedHash сохранённый хеш имеет неверный формат.
	ErrMalformedHash = errors.New("malformed password hash")
	// ErrEmptyPassword передан пустой пароль.
	ErrEmptyPassword = errors.New("password is empty")
)

// GetHash принимает пароль пользователя и возвращает строку "соль:хеш".
func GetHash(password string) (string, error) {
	const op = "password.GetHash"
	if password == "" {
		return "", fmt.Errorf("%s: %w", op, ErrEmptyPassword)
	}
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(key), nil
}

// CompareHash сравнивает сохранённый хеш "соль:хеш" с введённым паролем.
//
// Сравнение выполняется за постоянное время. Возвращает nil при совпадении.
func CompareHash(stored, externalPassword string) error {
	const op = "password.CompareHash"
	saltHex, hashHex, ok := strings.Cut(stored, ":")
	if !ok || saltHex == "" || hashHex == "" {
		return fmt.Errorf("%s: %w", op, ErrMalformedHash)
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return fmt.Errorf("%s: %w", op, ErrMalformedHash)
	}
	want, err := hex.DecodeString(hashHex)
	if err != nil {
		return fmt.Errorf("%s: %w", op, ErrMalformedHash)
	}
	got, err := scrypt.Key([]byte(externalPassword), salt, scryptN, scryptR, scryptP, len(want))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return fmt.Errorf("%s: %w", op, ErrMismatch)
	}
	return nil
}

// GetAdminHash возвращает bcrypt-хеш пароля администратора.
func GetAdminHash(password string) (string, error) {
	const op = "password.GetAdminHash"
	if password == "" {
		return "", fmt.Errorf("%s: %w", op, ErrEmptyPassword)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashed), nil
}

// CompareAdminHash сравнивает bcrypt-хеш с введённым паролем.
func CompareAdminHash(originalHash, externalPassword string) error {
	const op = "password.CompareAdminHash"
	if err := bcrypt.CompareHashAndPassword([]byte(originalHash), []byte(externalPassword)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("%s: %w", op, ErrMismatch)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
