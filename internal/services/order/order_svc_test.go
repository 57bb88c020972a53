package order

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storebidgo/internal/services/cart"
	"storebidgo/internal/services/coupon"
)

type fakeCart struct {
	items   map[string]int
	cleared bool
}

func (f *fakeCart) Get(ctx context.Context, userID string) (*cart.CartDTO, error) { return nil, nil }
func (f *fakeCart) Items(ctx context.Context, userID string) (map[string]int, error) {
	return f.items, nil
}
func (f *fakeCart) SetItem(ctx context.Context, userID, productID string, quantity int) error {
	return nil
}
func (f *fakeCart) Clear(ctx context.Context, userID string) error {
	f.cleared = true
	return nil
}

type fakeCoupons struct {
	discount float64
	err      error
	gotCode  string
	gotTotal float64
}

func (f *fakeCoupons) List(ctx context.Context) ([]coupon.CouponDTO, error) { return nil, nil }
func (f *fakeCoupons) Create(ctx context.Context, code string, percentOff, minTotal float64, expiresAt *time.Time) (*coupon.CouponDTO, error) {
	return nil, nil
}
func (f *fakeCoupons) Delete(ctx context.Context, id string) error { return nil }
func (f *fakeCoupons) Redeem(ctx context.Context, code string, total float64) (float64, error) {
	f.gotCode, f.gotTotal = code, total
	return f.discount, f.err
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{StatusPendingPayment, StatusSlipUploaded, true},
		{StatusPendingPayment, StatusPaid, false},
		{StatusSlipUploaded, StatusSlipUploaded, true}, // re-upload
		{StatusSlipUploaded, StatusPaid, true},
		{StatusPaid, StatusShipped, true},
		{StatusPaid, StatusCompleted, false},
		{StatusShipped, StatusCompleted, true},
		{StatusPendingPayment, StatusCanceled, true},
		{StatusPaid, StatusCanceled, true},
		{StatusCompleted, StatusCanceled, false},
		{StatusCanceled, StatusPendingPayment, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, canTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestCheckout(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cartSvc := &fakeCart{items: map[string]int{"p1": 2}}
	coupons := &fakeCoupons{discount: 50}
	svc := NewOrderService(db, cartSvc, coupons)

	now := time.Date(2025, 7, 27, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT price, stock, name_en, active FROM products WHERE id = $1 FOR UPDATE`)).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"price", "stock", "name_en", "active"}).
			AddRow(250.0, 10, "Ceramic mug", true))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE products SET stock = stock - $2 WHERE id = $1`)).
		WithArgs("p1", 2).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO orders`).
		WithArgs(sqlmock.AnyArg(), "u1", StatusPendingPayment, 500.0, 50.0, 450.0, "SAVE").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec(`INSERT INTO order_items`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "p1", "Ceramic mug", 250.0, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	o, err := svc.Checkout(context.Background(), "u1", "SAVE")
	require.NoError(t, err)
	assert.Equal(t, 500.0, o.Subtotal)
	assert.Equal(t, 50.0, o.Discount)
	assert.Equal(t, 450.0, o.Total)
	assert.Equal(t, StatusPendingPayment, o.Status)
	assert.Equal(t, "SAVE", coupons.gotCode)
	assert.Equal(t, 500.0, coupons.gotTotal)
	assert.True(t, cartSvc.cleared)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckout_LocksProductsInOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cartSvc := &fakeCart{items: map[string]int{"p2": 1, "p1": 2}}
	svc := NewOrderService(db, cartSvc, &fakeCoupons{})

	now := time.Date(2025, 7, 27, 12, 0, 0, 0, time.UTC)
	lockQ := regexp.QuoteMeta(`SELECT price, stock, name_en, active FROM products WHERE id = $1 FOR UPDATE`)
	stockQ := regexp.QuoteMeta(`UPDATE products SET stock = stock - $2 WHERE id = $1`)

	// Row locks must be taken in sorted id order regardless of map order.
	mock.ExpectBegin()
	mock.ExpectQuery(lockQ).WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"price", "stock", "name_en", "active"}).
			AddRow(250.0, 10, "Ceramic mug", true))
	mock.ExpectExec(stockQ).WithArgs("p1", 2).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(lockQ).WithArgs("p2").
		WillReturnRows(sqlmock.NewRows([]string{"price", "stock", "name_en", "active"}).
			AddRow(120.0, 4, "Tea towel", true))
	mock.ExpectExec(stockQ).WithArgs("p2", 1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO orders`).
		WithArgs(sqlmock.AnyArg(), "u1", StatusPendingPayment, 620.0, 0.0, 620.0, "").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec(`INSERT INTO order_items`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "p1", "Ceramic mug", 250.0, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO order_items`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "p2", "Tea towel", 120.0, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	o, err := svc.Checkout(context.Background(), "u1", "")
	require.NoError(t, err)
	assert.Equal(t, 620.0, o.Subtotal)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckout_EmptyCart(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := NewOrderService(db, &fakeCart{items: map[string]int{}}, &fakeCoupons{})
	_, err = svc.Checkout(context.Background(), "u1", "")
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckout_InsufficientStock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cartSvc := &fakeCart{items: map[string]int{"p1": 5}}
	svc := NewOrderService(db, cartSvc, &fakeCoupons{})

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT price, stock, name_en, active FROM products`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"price", "stock", "name_en", "active"}).
			AddRow(250.0, 3, "Ceramic mug", true))
	mock.ExpectRollback()

	_, err = svc.Checkout(context.Background(), "u1", "")
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.False(t, cartSvc.cleared)
}

func TestCheckout_InactiveProduct(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := NewOrderService(db, &fakeCart{items: map[string]int{"p1": 1}}, &fakeCoupons{})

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT price, stock, name_en, active FROM products`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"price", "stock", "name_en", "active"}).
			AddRow(250.0, 10, "Ceramic mug", false))
	mock.ExpectRollback()

	_, err = svc.Checkout(context.Background(), "u1", "")
	assert.ErrorIs(t, err, ErrProductUnavailable)
}

func orderRows(now time.Time, status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "status", "subtotal", "discount",
		"total", "coupon_code", "slip_url", "created_at", "updated_at"}).
		AddRow("o1", "u1", status, 500.0, 0.0, 500.0, "", "", now, now)
}

func expectGet(mock sqlmock.Sqlmock, now time.Time, status string) {
	mock.ExpectQuery(`FROM orders WHERE id = \$1`).WithArgs("o1").
		WillReturnRows(orderRows(now, status))
	mock.ExpectQuery(`FROM order_items WHERE order_id = \$1`).WithArgs("o1").
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "name_en", "unit_price", "quantity"}).
			AddRow("p1", "Ceramic mug", 250.0, 2))
}

func TestConfirmPayment(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := NewOrderService(db, &fakeCart{}, &fakeCoupons{})
	now := time.Date(2025, 7, 27, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM orders WHERE id = $1 FOR UPDATE`)).
		WithArgs("o1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(StatusSlipUploaded))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`)).
		WithArgs("o1", StatusPaid).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectGet(mock, now, StatusPaid)

	o, err := svc.ConfirmPayment(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, o.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmPayment_WithoutSlipRejected(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := NewOrderService(db, &fakeCart{}, &fakeCoupons{})

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT status FROM orders`).WithArgs("o1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(StatusPendingPayment))
	mock.ExpectRollback()

	_, err = svc.ConfirmPayment(context.Background(), "o1")
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestAttachSlip_SetsURL(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := NewOrderService(db, &fakeCart{}, &fakeCoupons{})
	now := time.Date(2025, 7, 27, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT status FROM orders`).WithArgs("o1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(StatusPendingPayment))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE orders SET status = $2, updated_at = now(), slip_url = $3 WHERE id = $1`)).
		WithArgs("o1", StatusSlipUploaded, "https://cdn.example.com/slip.jpg").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectGet(mock, now, StatusSlipUploaded)

	_, err = svc.AttachSlip(context.Background(), "o1", "https://cdn.example.com/slip.jpg")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelOrder_Restocks(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := NewOrderService(db, &fakeCart{}, &fakeCoupons{})
	now := time.Date(2025, 7, 27, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT status FROM orders`).WithArgs("o1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(StatusPaid))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`)).
		WithArgs("o1", StatusCanceled).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`SET stock = p\.stock \+ oi\.quantity`).
		WithArgs("o1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectGet(mock, now, StatusCanceled)

	o, err := svc.CancelOrder(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, StatusCanceled, o.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelOrder_TerminalRejected(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := NewOrderService(db, &fakeCart{}, &fakeCoupons{})

	for _, status := range []string{StatusCompleted, StatusCanceled} {
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT status FROM orders`).WithArgs("o1").
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(status))
		mock.ExpectRollback()

		_, err = svc.CancelOrder(context.Background(), "o1")
		assert.ErrorIs(t, err, ErrIllegalTransition, status)
	}
}
