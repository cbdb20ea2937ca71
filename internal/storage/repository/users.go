package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/resource-store/internal/models"
)

const userColumns = `u.id, u.username, u.email, u.password_hash, u.email_verified, u.avatar_url,
	u.is_vip, u.vip_expire_at, u.vip_plan_id, p.name, u.daily_download_count, u.vip_daily_limit, u.created_at`

const userFrom = ` FROM users u LEFT JOIN vip_plans p ON p.id = u.vip_plan_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u          models.User
		avatar     sql.NullString
		expireAt   sql.NullTime
		planID     sql.NullInt64
		planName   sql.NullString
		dailyLimit sql.NullInt32
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.EmailVerified, &avatar,
		&u.IsVip, &expireAt, &planID, &planName, &u.DailyDownloadCount, &dailyLimit, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.AvatarURL = ptrString(avatar)
	u.VipExpireAt = ptrTime(expireAt)
	u.VipPlanID = ptrInt64(planID)
	u.VipPlanName = ptrString(planName)
	u.VipDailyLimit = ptrInt(dailyLimit)
	return &u, nil
}

// GetUserByUsername возвращает пользователя по имени.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	u, err := scanUser(s.DB.QueryRowContext(ctx, `SELECT `+userColumns+userFrom+` WHERE u.username = $1`, username))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}
	return u, nil
}

// GetUserByID возвращает пользователя по идентификатору.
func (s *Storage) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	const op = "storage.GetUserByID"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	u, err := scanUser(s.DB.QueryRowContext(ctx, `SELECT `+userColumns+userFrom+` WHERE u.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}
	return u, nil
}

// GetUserByLogin возвращает пользователя по имени или адресу почты.
func (s *Storage) GetUserByLogin(ctx context.Context, identifier string) (*models.User, error) {
	const op = "storage.GetUserByLogin"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	u, err := scanUser(s.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+userFrom+` WHERE u.username = $1 OR u.email = $1 LIMIT 1`, identifier))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}
	return u, nil
}

// CheckUserTaken сообщает, заняты ли имя и адрес. Пустые значения не проверяются
// и возвращаются как nil.
func (s *Storage) CheckUserTaken(ctx context.Context, username, email string) (usernameTaken, emailTaken *bool, err error) {
	const op = "storage.CheckUserTaken"
	if err := ctxDone(ctx, op); err != nil {
		return nil, nil, err
	}

	exists := func(query, arg string) (*bool, error) {
		if arg == "" {
			return nil, nil
		}
		var taken bool
		if err := s.DB.QueryRowContext(ctx, query, arg).Scan(&taken); err != nil {
			return nil, err
		}
		return &taken, nil
	}
	if usernameTaken, err = exists(`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	if emailTaken, err = exists(`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	return usernameTaken, emailTaken, nil
}

// RegisterUser в одной транзакции создаёт пользователя с подтверждённым адресом
// и гасит использованный код подтверждения.
func (s *Storage) RegisterUser(ctx context.Context, user models.User, verificationID int64) (int64, error) {
	const op = "storage.RegisterUser"
	if err := ctxDone(ctx, op); err != nil {
		return 0, err
	}

	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE email_verifications SET used = TRUE WHERE id = $1 AND used = FALSE`, verificationID)
		if err != nil {
			return err
		}
		if err := affected(res); err != nil {
			return err
		}
		return tx.QueryRowContext(ctx,
			`INSERT INTO users (username, email, password_hash, email_verified)
			 VALUES ($1, $2, $3, TRUE)
			 RETURNING id`,
			user.Username, user.Email, user.PasswordHash).Scan(&id)
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, mapErr(err))
	}
	return id, nil
}

// UpdateAvatar сохраняет адрес аватара пользователя.
func (s *Storage) UpdateAvatar(ctx context.Context, userID int64, avatarURL string) error {
	const op = "storage.UpdateAvatar"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE users SET avatar_url = $1 WHERE id = $2`, avatarURL, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListUsers возвращает страницу пользователей для админки. q фильтрует
// по подстроке имени или адреса.
func (s *Storage) ListUsers(ctx context.Context, q string, page, size int) ([]models.UserSummary, int, error) {
	const op = "storage.ListUsers"
	if err := ctxDone(ctx, op); err != nil {
		return nil, 0, err
	}

	pattern := "%" + strings.TrimSpace(q) + "%"
	var total int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE username ILIKE $1 OR email ILIKE $1`, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, username, email, email_verified, is_vip, vip_expire_at, created_at
		 FROM users
		 WHERE username ILIKE $1 OR email ILIKE $1
		 ORDER BY id DESC
		 LIMIT $2 OFFSET $3`, pattern, size, offset(page, size))
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.UserSummary, 0, size)
	for rows.Next() {
		var u models.UserSummary
		var expireAt sql.NullTime
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.EmailVerified, &u.IsVip, &expireAt, &u.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		u.VipExpireAt = ptrTime(expireAt)
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return result, total, nil
}

// UpdateUser применяет к пользователю непустые поля upd.
func (s *Storage) UpdateUser(ctx context.Context, id int64, upd models.UserUpdate) (*models.UserSummary, error) {
	const op = "storage.UpdateUser"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	var u models.UserSummary
	var expireAt sql.NullTime
	err := s.DB.QueryRowContext(ctx,
		`UPDATE users SET
		     username = COALESCE($2, username),
		     email = COALESCE($3, email),
		     email_verified = COALESCE($4, email_verified),
		     password_hash = COALESCE($5, password_hash)
		 WHERE id = $1
		 RETURNING id, username, email, email_verified, is_vip, vip_expire_at, created_at`,
		id, nullString(upd.Username), nullString(upd.Email), nullBool(upd.EmailVerified), nullString(upd.PasswordHash),
	).Scan(&u.ID, &u.Username, &u.Email, &u.EmailVerified, &u.IsVip, &expireAt, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}
	u.VipExpireAt = ptrTime(expireAt)
	return &u, nil
}

// DeleteUser удаляет пользователя.
func (s *Storage) DeleteUser(ctx context.Context, id int64) error {
	const op = "storage.DeleteUser"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func nullBool(p *bool) sql.NullBool {
	if p == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *p, Valid: true}
}
