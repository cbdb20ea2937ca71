package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/resource-store/internal/models"
)

const orderColumns = `id, out_trade_no, trade_no, user_id, order_type, product_id, product_name,
	amount, status, pay_channel, notify_raw, paid_at, fulfilled_at, created_at`

func scanOrder(row rowScanner) (*models.Order, error) {
	var (
		o                   models.Order
		tradeNo             sql.NullString
		userID, productID   sql.NullInt64
		notifyRaw           []byte
		paidAt, fulfilledAt sql.NullTime
	)
	if err := row.Scan(&o.ID, &o.OutTradeNo, &tradeNo, &userID, &o.OrderType, &productID, &o.ProductName,
		&o.Amount, &o.Status, &o.PayChannel, &notifyRaw, &paidAt, &fulfilledAt, &o.CreatedAt); err != nil {
		return nil, err
	}
	o.TradeNo = ptrString(tradeNo)
	o.UserID = ptrInt64(userID)
	o.ProductID = ptrInt64(productID)
	o.NotifyRaw = notifyRaw
	o.PaidAt = ptrTime(paidAt)
	o.FulfilledAt = ptrTime(fulfilledAt)
	return &o, nil
}

// CreateOrder сохраняет новый заказ и возвращает его идентификатор.
func (s *Storage) CreateOrder(ctx context.Context, o models.Order) (int64, error) {
	const op = "storage.CreateOrder"
	if err := ctxDone(ctx, op); err != nil {
		return 0, err
	}

	var id int64
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO orders (out_trade_no, user_id, order_type, product_id, product_name, amount, status, pay_channel)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		o.OutTradeNo, nullInt64(o.UserID), o.OrderType, nullInt64(o.ProductID), o.ProductName,
		o.Amount, o.Status, o.PayChannel).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, mapErr(err))
	}
	return id, nil
}

// ApplyOrderStatus применяет статус от платёжной системы. Заказ в статусе
// success своего статуса не меняет, paid_at выставляется один раз при переходе
// в success. Возвращает обновлённый заказ и признак того, что переход в success
// произошёл именно этим вызовом.
func (s *Storage) ApplyOrderStatus(ctx context.Context, upd models.OrderStatusUpdate) (*models.Order, bool, error) {
	const op = "storage.ApplyOrderStatus"
	if err := ctxDone(ctx, op); err != nil {
		return nil, false, err
	}

	var (
		order       *models.Order
		becamePaid  bool
		previous    string
		notifyRaw   any
		tradeNumber sql.NullString
	)
	if len(upd.NotifyRaw) > 0 {
		notifyRaw = string(upd.NotifyRaw)
	}
	if upd.TradeNo != "" {
		tradeNumber = sql.NullString{String: upd.TradeNo, Valid: true}
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx,
			`SELECT status FROM orders WHERE out_trade_no = $1 FOR UPDATE`, upd.OutTradeNo).Scan(&previous); err != nil {
			return err
		}
		row := tx.QueryRowContext(ctx,
			`UPDATE orders SET
			     status = CASE WHEN status = 'success' THEN status ELSE $2 END,
			     trade_no = COALESCE($3, trade_no),
			     notify_raw = COALESCE($4::jsonb, notify_raw),
			     paid_at = CASE WHEN $2 = 'success' AND paid_at IS NULL THEN NOW() ELSE paid_at END
			 WHERE out_trade_no = $1
			 RETURNING `+orderColumns,
			upd.OutTradeNo, upd.Status, tradeNumber, notifyRaw)
		var err error
		order, err = scanOrder(row)
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, mapErr(err))
	}
	becamePaid = previous != models.OrderStatusSuccess && order.Status == models.OrderStatusSuccess
	return order, becamePaid, nil
}

// ListOrdersByUser возвращает заказы пользователя, новые первыми.
func (s *Storage) ListOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	const op = "storage.ListOrdersByUser"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		o.NotifyRaw = nil
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListOrders возвращает страницу заказов для админки.
func (s *Storage) ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, int, error) {
	const op = "storage.ListOrders"
	if err := ctxDone(ctx, op); err != nil {
		return nil, 0, err
	}

	status := sql.NullString{String: f.Status, Valid: f.Status != ""}
	userID := nullInt64(f.UserID)

	var total int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders
		 WHERE ($1::text IS NULL OR status = $1) AND ($2::bigint IS NULL OR user_id = $2)`,
		status, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE ($1::text IS NULL OR status = $1) AND ($2::bigint IS NULL OR user_id = $2)
		 ORDER BY created_at DESC, id DESC
		 LIMIT $3 OFFSET $4`,
		status, userID, f.Size, offset(f.Page, f.Size))
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.Order, 0, f.Size)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return result, total, nil
}

// GetOrder возвращает заказ по идентификатору.
func (s *Storage) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	const op = "storage.GetOrder"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	o, err := scanOrder(s.DB.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}
	return o, nil
}

// UpdateOrderAdmin применяет правку заказа администратором.
func (s *Storage) UpdateOrderAdmin(ctx context.Context, id int64, upd models.OrderAdminUpdate) (*models.Order, error) {
	const op = "storage.UpdateOrderAdmin"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	o, err := scanOrder(s.DB.QueryRowContext(ctx,
		`UPDATE orders SET
		     status = COALESCE($2, status),
		     trade_no = COALESCE($3, trade_no),
		     product_name = COALESCE($4, product_name),
		     paid_at = CASE WHEN $5 THEN NULL ELSE paid_at END
		 WHERE id = $1
		 RETURNING `+orderColumns,
		id, nullString(upd.Status), nullString(upd.TradeNo), nullString(upd.ProductName), upd.ClearPaidAt))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}
	return o, nil
}
