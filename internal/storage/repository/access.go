package repository

import (
	"context"
	"fmt"
)

// HasResourceAccess сообщает, выдан ли пользователю доступ к ресурсу.
func (s *Storage) HasResourceAccess(ctx context.Context, userID, resourceID int64) (bool, error) {
	const op = "storage.HasResourceAccess"
	if err := ctxDone(ctx, op); err != nil {
		return false, err
	}

	var ok bool
	err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_resource_access WHERE user_id = $1 AND resource_id = $2)`,
		userID, resourceID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return ok, nil
}
