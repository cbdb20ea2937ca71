package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/resource-store/internal/models"
)

// CreateVerification сохраняет код подтверждения адреса.
func (s *Storage) CreateVerification(ctx context.Context, v models.EmailVerification) (int64, error) {
	const op = "storage.CreateVerification"
	if err := ctxDone(ctx, op); err != nil {
		return 0, err
	}

	var id int64
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO email_verifications (email, code, expires_at) VALUES ($1, $2, $3) RETURNING id`,
		v.Email, v.Code, v.ExpiresAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// FindVerification возвращает последний неиспользованный код для адреса.
func (s *Storage) FindVerification(ctx context.Context, email, code string) (*models.EmailVerification, error) {
	const op = "storage.FindVerification"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	var v models.EmailVerification
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, email, code, expires_at, used
		 FROM email_verifications
		 WHERE email = $1 AND code = $2 AND used = FALSE
		 ORDER BY id DESC
		 LIMIT 1`, email, code).Scan(&v.ID, &v.Email, &v.Code, &v.ExpiresAt, &v.Used)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}
	return &v, nil
}
