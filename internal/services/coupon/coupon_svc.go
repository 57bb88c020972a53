package coupon

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
)

var (
	ErrCouponNotFound = errors.New("coupon not found")
	ErrCouponInactive = errors.New("coupon is inactive")
	ErrCouponExpired  = errors.New("coupon has expired")
	ErrBelowMinimum   = errors.New("order total below coupon minimum")
	ErrInvalidPercent = errors.New("percent_off must be in (0, 100]")
)

type CouponDTO struct {
	ID         string     `json:"id"`
	Code       string     `json:"code"`
	PercentOff float64    `json:"percent_off"`
	MinTotal   float64    `json:"min_total"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	Active     bool       `json:"active"`
}

type ICouponService interface {
	List(ctx context.Context) ([]CouponDTO, error)
	Create(ctx context.Context, code string, percentOff, minTotal float64, expiresAt *time.Time) (*CouponDTO, error)
	Delete(ctx context.Context, id string) error
	// Redeem validates the code against the given order total and returns the
	// discount amount (rounded to satang).
	Redeem(ctx context.Context, code string, total float64) (float64, error)
}

type couponService struct {
	db  *sql.DB
	now func() time.Time
}

func NewCouponService(db *sql.DB) ICouponService {
	return &couponService{db: db, now: time.Now}
}

func (svc *couponService) List(ctx context.Context) ([]CouponDTO, error) {
	rows, err := svc.db.QueryContext(ctx,
		`SELECT id, code, percent_off, min_total, expires_at, active
		   FROM coupons ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]CouponDTO, 0, 8)
	for rows.Next() {
		var c CouponDTO
		var exp sql.NullTime
		if err := rows.Scan(&c.ID, &c.Code, &c.PercentOff, &c.MinTotal, &exp, &c.Active); err != nil {
			return nil, err
		}
		if exp.Valid {
			c.ExpiresAt = &exp.Time
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func (svc *couponService) Create(ctx context.Context, code string, percentOff, minTotal float64, expiresAt *time.Time) (*CouponDTO, error) {
	if percentOff <= 0 || percentOff > 100 {
		return nil, ErrInvalidPercent
	}
	c := &CouponDTO{
		ID:         uuid.NewString(),
		Code:       code,
		PercentOff: percentOff,
		MinTotal:   minTotal,
		ExpiresAt:  expiresAt,
		Active:     true,
	}
	var exp any
	if expiresAt != nil {
		exp = expiresAt.UTC()
	}
	_, err := svc.db.ExecContext(ctx,
		`INSERT INTO coupons (id, code, percent_off, min_total, expires_at, active)
		      VALUES ($1, $2, $3, $4, $5, TRUE)`,
		c.ID, c.Code, c.PercentOff, c.MinTotal, exp)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (svc *couponService) Delete(ctx context.Context, id string) error {
	res, err := svc.db.ExecContext(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCouponNotFound
	}
	return nil
}

func (svc *couponService) Redeem(ctx context.Context, code string, total float64) (float64, error) {
	var (
		percentOff, minTotal float64
		exp                  sql.NullTime
		active               bool
	)
	err := svc.db.QueryRowContext(ctx,
		`SELECT percent_off, min_total, expires_at, active FROM coupons WHERE code = $1`,
		code).Scan(&percentOff, &minTotal, &exp, &active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrCouponNotFound
		}
		return 0, err
	}

	if !active {
		return 0, ErrCouponInactive
	}
	if exp.Valid && svc.now().After(exp.Time) {
		return 0, ErrCouponExpired
	}
	if total < minTotal {
		return 0, ErrBelowMinimum
	}

	discount := total * percentOff / 100
	return math.Round(discount*100) / 100, nil
}
