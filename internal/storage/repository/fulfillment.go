package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/resource-store/internal/models"
)

// FulfillOrder выдаёт купленное по оплаченному заказу: доступ к ресурсу для
// типа course или продление VIP для типа vip. Выполняется в транзакции и
// ровно один раз для заказа: оплаченный заказ помечается fulfilled_at при
// любом исходе, кроме ошибки. Неоплаченный заказ не меняется.
func (s *Storage) FulfillOrder(ctx context.Context, outTradeNo string) (models.FulfillmentResult, error) {
	const op = "storage.FulfillOrder"
	if err := ctxDone(ctx, op); err != nil {
		return "", err
	}

	var result models.FulfillmentResult
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var (
			userID, productID sql.NullInt64
			orderType, status string
			amount            float64
			done              sql.NullTime
		)
		err := tx.QueryRowContext(ctx,
			`SELECT user_id, product_id, order_type, status, amount, fulfilled_at
			 FROM orders WHERE out_trade_no = $1 FOR UPDATE`, outTradeNo).
			Scan(&userID, &productID, &orderType, &status, &amount, &done)
		if err != nil {
			return err
		}
		if done.Valid {
			result = models.FulfillmentAlreadyDone
			return nil
		}
		if status != models.OrderStatusSuccess {
			result = models.FulfillmentNotPaid
			return nil
		}

		result, err = grant(ctx, tx, userID, productID, orderType, amount)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE orders SET fulfilled_at = NOW() WHERE out_trade_no = $1`, outTradeNo)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, mapErr(err))
	}
	return result, nil
}

func grant(ctx context.Context, tx *sql.Tx, userID, productID sql.NullInt64, orderType string, amount float64) (models.FulfillmentResult, error) {
	if !userID.Valid || !productID.Valid {
		return models.FulfillmentSkipped, nil
	}

	var price float64
	switch orderType {
	case models.OrderTypeCourse:
		err := tx.QueryRowContext(ctx, `SELECT price FROM resources WHERE id = $1`, productID.Int64).Scan(&price)
		if errors.Is(err, sql.ErrNoRows) {
			return models.FulfillmentSkipped, nil
		}
		if err != nil {
			return "", err
		}
		if amount < price {
			return models.FulfillmentUnderpaid, nil
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO user_resource_access (user_id, resource_id) VALUES ($1, $2)
			 ON CONFLICT (user_id, resource_id) DO NOTHING`, userID.Int64, productID.Int64)
		if err != nil {
			return "", err
		}
	case models.OrderTypeVip:
		err := tx.QueryRowContext(ctx, `SELECT price FROM vip_plans WHERE id = $1`, productID.Int64).Scan(&price)
		if errors.Is(err, sql.ErrNoRows) {
			return models.FulfillmentSkipped, nil
		}
		if err != nil {
			return "", err
		}
		if amount < price {
			return models.FulfillmentUnderpaid, nil
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE users u SET
			     is_vip = TRUE,
			     vip_plan_id = p.id,
			     vip_daily_limit = COALESCE(p.daily_download_limit, u.vip_daily_limit),
			     vip_expire_at = GREATEST(COALESCE(u.vip_expire_at, NOW()), NOW())
			                     + make_interval(days => p.duration_days)
			 FROM vip_plans p
			 WHERE u.id = $1 AND p.id = $2`, userID.Int64, productID.Int64)
		if err != nil {
			return "", err
		}
	default:
		return models.FulfillmentSkipped, nil
	}
	return models.FulfillmentGranted, nil
}

// ListVipPlans возвращает все тарифы VIP по возрастанию цены.
func (s *Storage) ListVipPlans(ctx context.Context) ([]models.VipPlan, error) {
	const op = "storage.ListVipPlans"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, name, price, duration_days, daily_download_limit FROM vip_plans ORDER BY price ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.VipPlan, 0)
	for rows.Next() {
		var p models.VipPlan
		var limit sql.NullInt32
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.DurationDays, &limit); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		p.DailyDownloadLimit = ptrInt(limit)
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
