package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	domain "github.com/harshbajani/GujaratStore-sub003/internal/entity"
	"github.com/harshbajani/GujaratStore-sub003/internal/usecase"
)

// MySQLOrderRepo persists orders with the embedded items/payment/refund/
// shipping structures as JSON columns. Status transitions are guarded with
// conditional updates so two concurrent writers cannot both win.
type MySQLOrderRepo struct{ db *sql.DB }

func NewMySQLOrderRepo(db *sql.DB) *MySQLOrderRepo { return &MySQLOrderRepo{db: db} }

const orderColumns = `id, order_number, user_id, address_id, status, payment_status, payment_option,
amount_cents, currency, items_json, payment_json, refund_json, shipping_json, created_at, updated_at`

func (r *MySQLOrderRepo) scanOrder(row *sql.Row) (*domain.Order, error) {
	var (
		o            domain.Order
		itemsJSON    []byte
		paymentJSON  sql.NullString
		refundJSON   sql.NullString
		shippingJSON sql.NullString
	)
	err := row.Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.AddressID, &o.Status, &o.PaymentStatus,
		&o.PaymentOption, &o.AmountCents, &o.Currency, &itemsJSON, &paymentJSON, &refundJSON,
		&shippingJSON, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, usecase.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(itemsJSON) > 0 {
		if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
			return nil, fmt.Errorf("decode items: %w", err)
		}
	}
	if paymentJSON.Valid && paymentJSON.String != "" {
		o.Payment = &domain.PaymentInfo{}
		if err := json.Unmarshal([]byte(paymentJSON.String), o.Payment); err != nil {
			return nil, fmt.Errorf("decode payment info: %w", err)
		}
	}
	if refundJSON.Valid && refundJSON.String != "" {
		o.Refund = &domain.RefundInfo{}
		if err := json.Unmarshal([]byte(refundJSON.String), o.Refund); err != nil {
			return nil, fmt.Errorf("decode refund info: %w", err)
		}
	}
	if shippingJSON.Valid && shippingJSON.String != "" {
		o.Shipping = &domain.ShippingInfo{}
		if err := json.Unmarshal([]byte(shippingJSON.String), o.Shipping); err != nil {
			return nil, fmt.Errorf("decode shipping info: %w", err)
		}
	}
	return &o, nil
}

func (r *MySQLOrderRepo) GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_number = ?`, orderNumber)
	return r.scanOrder(row)
}

func (r *MySQLOrderRepo) GetByCarrierOrderID(ctx context.Context, carrierOrderID string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE JSON_UNQUOTE(JSON_EXTRACT(shipping_json, '$.carrierOrderId')) = ?`, carrierOrderID)
	return r.scanOrder(row)
}

func (r *MySQLOrderRepo) GetByShipmentID(ctx context.Context, shipmentID string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE JSON_UNQUOTE(JSON_EXTRACT(shipping_json, '$.shipmentId')) = ?`, shipmentID)
	return r.scanOrder(row)
}

func (r *MySQLOrderRepo) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE JSON_UNQUOTE(JSON_EXTRACT(payment_json, '$.gatewayOrderId')) = ?`, gatewayOrderID)
	return r.scanOrder(row)
}

// UpdateStatusIf is the compare-and-set transition guard: the write only
// lands when the currently-persisted status is one of from.
func (r *MySQLOrderRepo) UpdateStatusIf(ctx context.Context, orderNumber string, from []domain.Status, to domain.Status) (bool, error) {
	if len(from) == 0 {
		return false, nil
	}
	placeholders := strings.TrimRight(strings.Repeat("?,", len(from)), ",")
	args := make([]any, 0, len(from)+2)
	args = append(args, string(to), orderNumber)
	for _, f := range from {
		args = append(args, string(f))
	}

	res, err := r.db.ExecContext(ctx, `
        UPDATE orders
        SET status = ?, updated_at = NOW()
        WHERE order_number = ? AND status IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	// rows == 0 -> nothing matched (either not found or status mismatch)
	return rows > 0, nil
}

func (r *MySQLOrderRepo) SetPaymentVerified(ctx context.Context, orderNumber string, info domain.PaymentInfo) error {
	b, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return r.exec(ctx, `
        UPDATE orders
        SET payment_json = ?, payment_status = ?, updated_at = NOW()
        WHERE order_number = ?`,
		b, string(domain.PaymentPaid), orderNumber)
}

func (r *MySQLOrderRepo) SetPaymentStatus(ctx context.Context, orderNumber string, status domain.PaymentStatus) error {
	return r.exec(ctx, `
        UPDATE orders SET payment_status = ?, updated_at = NOW()
        WHERE order_number = ?`,
		string(status), orderNumber)
}

func (r *MySQLOrderRepo) SetRefundInfo(ctx context.Context, orderNumber string, info *domain.RefundInfo) error {
	b, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return r.exec(ctx, `
        UPDATE orders SET refund_json = ?, updated_at = NOW()
        WHERE order_number = ?`,
		b, orderNumber)
}

// SetShippingInfo only succeeds when no shipping block exists yet: the
// shipment-creation flow is the single first writer.
func (r *MySQLOrderRepo) SetShippingInfo(ctx context.Context, orderNumber string, info *domain.ShippingInfo) error {
	b, err := json.Marshal(info)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
        UPDATE orders SET shipping_json = ?, updated_at = NOW()
        WHERE order_number = ? AND shipping_json IS NULL`,
		b, orderNumber)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("order %s: shipping already recorded or order missing", orderNumber)
	}
	return nil
}

// UpdateShipping replaces the shipping block; the webhook-reconciliation
// path is the sole writer of carrier-derived truth, last writer wins.
func (r *MySQLOrderRepo) UpdateShipping(ctx context.Context, orderNumber string, info *domain.ShippingInfo) error {
	b, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return r.exec(ctx, `
        UPDATE orders SET shipping_json = ?, updated_at = NOW()
        WHERE order_number = ?`,
		b, orderNumber)
}

// exec treats 0 rows as not-found. Connections must carry
// CLIENT_FOUND_ROWS (see WithFoundRows) so a value-identical update still
// counts its matched row.
func (r *MySQLOrderRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return usecase.ErrOrderNotFound
	}
	return nil
}

var _ usecase.OrderRepo = (*MySQLOrderRepo)(nil)
