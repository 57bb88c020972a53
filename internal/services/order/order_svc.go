package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storebidgo/internal/services/cart"
	"storebidgo/internal/services/coupon"
)

const (
	StatusPendingPayment = "PENDING_PAYMENT"
	StatusSlipUploaded   = "SLIP_UPLOADED"
	StatusPaid           = "PAID"
	StatusShipped        = "SHIPPED"
	StatusCompleted      = "COMPLETED"
	StatusCanceled       = "CANCELED"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrIllegalTransition  = errors.New("illegal order status transition")
	ErrProductUnavailable = errors.New("product is not available")
)

// transitions maps each state to the states it may move to.
var transitions = map[string][]string{
	StatusPendingPayment: {StatusSlipUploaded, StatusCanceled},
	StatusSlipUploaded:   {StatusSlipUploaded, StatusPaid, StatusCanceled},
	StatusPaid:           {StatusShipped, StatusCanceled},
	StatusShipped:        {StatusCompleted, StatusCanceled},
}

func canTransition(from, to string) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type OrderItemDTO struct {
	ProductID string  `json:"product_id"`
	NameEN    string  `json:"name_en"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

type OrderDTO struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user_id"`
	Status     string         `json:"status" example:"PENDING_PAYMENT"`
	Subtotal   float64        `json:"subtotal"`
	Discount   float64        `json:"discount"`
	Total      float64        `json:"total"`
	CouponCode string         `json:"coupon_code,omitempty"`
	SlipURL    string         `json:"slip_url,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	Items      []OrderItemDTO `json:"items,omitempty"`
}

type IOrderService interface {
	Checkout(ctx context.Context, userID, couponCode string) (*OrderDTO, error)
	Get(ctx context.Context, orderID string) (*OrderDTO, error)
	ListByUser(ctx context.Context, userID string) ([]OrderDTO, error)
	ListAll(ctx context.Context, status string) ([]OrderDTO, error)
	AttachSlip(ctx context.Context, orderID, slipURL string) (*OrderDTO, error)
	ConfirmPayment(ctx context.Context, orderID string) (*OrderDTO, error)
	Ship(ctx context.Context, orderID string) (*OrderDTO, error)
	Complete(ctx context.Context, orderID string) (*OrderDTO, error)
	CancelOrder(ctx context.Context, orderID string) (*OrderDTO, error)
}

type orderService struct {
	db      *sql.DB
	cartSvc cart.ICartService
	coupons coupon.ICouponService
}

func NewOrderService(db *sql.DB, cartSvc cart.ICartService, coupons coupon.ICouponService) IOrderService {
	return &orderService{db: db, cartSvc: cartSvc, coupons: coupons}
}

// Checkout turns the caller's cart into an order in one transaction:
// re-price every line from the catalog, decrement stock, apply the optional
// coupon, write the order, then clear the cart.
func (svc *orderService) Checkout(ctx context.Context, userID, couponCode string) (*OrderDTO, error) {
	items, err := svc.cartSvc.Items(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	dto := &OrderDTO{
		ID:     uuid.NewString(),
		UserID: userID,
		Status: StatusPendingPayment,
		Items:  make([]OrderItemDTO, 0, len(items)),
	}

	// Lock product rows in a fixed order so concurrent checkouts sharing
	// products cannot deadlock.
	productIDs := make([]string, 0, len(items))
	for productID := range items {
		productIDs = append(productIDs, productID)
	}
	sort.Strings(productIDs)

	for _, productID := range productIDs {
		qty := items[productID]
		var (
			price  float64
			stock  int
			nameEN string
			active bool
		)
		err = tx.QueryRowContext(ctx,
			`SELECT price, stock, name_en, active FROM products WHERE id = $1 FOR UPDATE`,
			productID).Scan(&price, &stock, &nameEN, &active)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("%w: %s", ErrProductUnavailable, productID)
			}
			return nil, err
		}
		if !active {
			return nil, fmt.Errorf("%w: %s", ErrProductUnavailable, productID)
		}
		if stock < qty {
			return nil, fmt.Errorf("%w: %s", ErrInsufficientStock, productID)
		}

		if _, err = tx.ExecContext(ctx,
			`UPDATE products SET stock = stock - $2 WHERE id = $1`,
			productID, qty); err != nil {
			return nil, err
		}

		dto.Items = append(dto.Items, OrderItemDTO{
			ProductID: productID,
			NameEN:    nameEN,
			UnitPrice: price,
			Quantity:  qty,
		})
		dto.Subtotal += price * float64(qty)
	}

	if couponCode != "" {
		discount, err := svc.coupons.Redeem(ctx, couponCode, dto.Subtotal)
		if err != nil {
			return nil, err
		}
		dto.Discount = discount
		dto.CouponCode = couponCode
	}
	dto.Total = dto.Subtotal - dto.Discount

	err = tx.QueryRowContext(ctx,
		`INSERT INTO orders (id, user_id, status, subtotal, discount, total, coupon_code)
		      VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at, updated_at`,
		dto.ID, userID, dto.Status, dto.Subtotal, dto.Discount, dto.Total, dto.CouponCode).
		Scan(&dto.CreatedAt, &dto.UpdatedAt)
	if err != nil {
		return nil, err
	}
	for _, it := range dto.Items {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO order_items (id, order_id, product_id, name_en, unit_price, quantity)
			      VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.NewString(), dto.ID, it.ProductID, it.NameEN, it.UnitPrice, it.Quantity); err != nil {
			return nil, err
		}
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	if err := svc.cartSvc.Clear(ctx, userID); err != nil {
		zap.L().Warn("cart_clear_after_checkout", zap.String("user_id", userID), zap.Error(err))
	}
	return dto, nil
}

const orderCols = `id, user_id, status, subtotal, discount, total, coupon_code, slip_url, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*OrderDTO, error) {
	o := &OrderDTO{}
	err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.Subtotal, &o.Discount,
		&o.Total, &o.CouponCode, &o.SlipURL, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (svc *orderService) Get(ctx context.Context, orderID string) (*OrderDTO, error) {
	o, err := scanOrder(svc.db.QueryRowContext(ctx,
		`SELECT `+orderCols+` FROM orders WHERE id = $1`, orderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	rows, err := svc.db.QueryContext(ctx,
		`SELECT product_id, name_en, unit_price, quantity FROM order_items WHERE order_id = $1`,
		orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it OrderItemDTO
		if err := rows.Scan(&it.ProductID, &it.NameEN, &it.UnitPrice, &it.Quantity); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, it)
	}
	return o, rows.Err()
}

func (svc *orderService) list(ctx context.Context, where string, args ...any) ([]OrderDTO, error) {
	rows, err := svc.db.QueryContext(ctx,
		`SELECT `+orderCols+` FROM orders`+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]OrderDTO, 0, 16)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *o)
	}
	return list, rows.Err()
}

func (svc *orderService) ListByUser(ctx context.Context, userID string) ([]OrderDTO, error) {
	return svc.list(ctx, ` WHERE user_id = $1`, userID)
}

func (svc *orderService) ListAll(ctx context.Context, status string) ([]OrderDTO, error) {
	if status == "" {
		return svc.list(ctx, ``)
	}
	return svc.list(ctx, ` WHERE status = $1`, status)
}

// setStatus moves an order to the target state under a row lock, rejecting
// transitions the state machine does not allow. extra runs inside the same
// transaction after the status update.
func (svc *orderService) setStatus(ctx context.Context, orderID, to string,
	extra func(tx *sql.Tx) error, set string, args ...any) (*OrderDTO, error) {

	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var from string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&from)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if !canTransition(from, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}

	q := `UPDATE orders SET status = $2, updated_at = now()` + set + ` WHERE id = $1`
	if _, err = tx.ExecContext(ctx, q, append([]any{orderID, to}, args...)...); err != nil {
		return nil, err
	}
	if extra != nil {
		if err = extra(tx); err != nil {
			return nil, err
		}
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return svc.Get(ctx, orderID)
}

func (svc *orderService) AttachSlip(ctx context.Context, orderID, slipURL string) (*OrderDTO, error) {
	return svc.setStatus(ctx, orderID, StatusSlipUploaded, nil, `, slip_url = $3`, slipURL)
}

func (svc *orderService) ConfirmPayment(ctx context.Context, orderID string) (*OrderDTO, error) {
	return svc.setStatus(ctx, orderID, StatusPaid, nil, ``)
}

func (svc *orderService) Ship(ctx context.Context, orderID string) (*OrderDTO, error) {
	return svc.setStatus(ctx, orderID, StatusShipped, nil, ``)
}

func (svc *orderService) Complete(ctx context.Context, orderID string) (*OrderDTO, error) {
	return svc.setStatus(ctx, orderID, StatusCompleted, nil, ``)
}

func (svc *orderService) CancelOrder(ctx context.Context, orderID string) (*OrderDTO, error) {
	// Stock was reserved at checkout; cancellation hands it back.
	restock := func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE products p
			    SET stock = p.stock + oi.quantity
			   FROM order_items oi
			  WHERE oi.order_id = $1 AND oi.product_id = p.id`, orderID)
		return err
	}
	return svc.setStatus(ctx, orderID, StatusCanceled, restock, ``)
}
