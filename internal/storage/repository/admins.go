package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/resource-store/internal/models"
)

func scanAdmin(row rowScanner) (*models.AdminUser, error) {
	var a models.AdminUser
	var lastLogin sql.NullTime
	if err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Role, &a.Status, &lastLogin); err != nil {
		return nil, err
	}
	a.LastLoginAt = ptrTime(lastLogin)
	return &a, nil
}

// GetAdminByUsername возвращает администратора по имени.
func (s *Storage) GetAdminByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	const op = "storage.GetAdminByUsername"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	a, err := scanAdmin(s.DB.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role, status, last_login_at FROM admin_users WHERE username = $1`, username))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}
	return a, nil
}

// GetAdminByID возвращает администратора по идентификатору.
func (s *Storage) GetAdminByID(ctx context.Context, id int64) (*models.AdminUser, error) {
	const op = "storage.GetAdminByID"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	a, err := scanAdmin(s.DB.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role, status, last_login_at FROM admin_users WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}
	return a, nil
}

// CountAdmins возвращает число учётных записей администраторов.
func (s *Storage) CountAdmins(ctx context.Context) (int, error) {
	const op = "storage.CountAdmins"
	if err := ctxDone(ctx, op); err != nil {
		return 0, err
	}

	var n int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM admin_users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// CreateAdmin создаёт администратора и возвращает его идентификатор.
func (s *Storage) CreateAdmin(ctx context.Context, admin models.AdminUser) (int64, error) {
	const op = "storage.CreateAdmin"
	if err := ctxDone(ctx, op); err != nil {
		return 0, err
	}

	var id int64
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO admin_users (username, password_hash, role, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		admin.Username, admin.PasswordHash, admin.Role, admin.Status).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, mapErr(err))
	}
	return id, nil
}

// UpdateAdminAccount меняет имя и/или хеш пароля администратора.
func (s *Storage) UpdateAdminAccount(ctx context.Context, id int64, username, passwordHash *string) (*models.AdminUser, error) {
	const op = "storage.UpdateAdminAccount"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	a, err := scanAdmin(s.DB.QueryRowContext(ctx,
		`UPDATE admin_users SET
		     username = COALESCE($2, username),
		     password_hash = COALESCE($3, password_hash)
		 WHERE id = $1
		 RETURNING id, username, password_hash, role, status, last_login_at`,
		id, nullString(username), nullString(passwordHash)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}
	return a, nil
}

// TouchAdminLogin записывает время последнего входа.
func (s *Storage) TouchAdminLogin(ctx context.Context, id int64) error {
	const op = "storage.TouchAdminLogin"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}

	if _, err := s.DB.ExecContext(ctx, `UPDATE admin_users SET last_login_at = NOW() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
