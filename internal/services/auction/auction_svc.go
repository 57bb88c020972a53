package auction

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	StatusScheduled = "SCHEDULED"
	StatusLive      = "LIVE"
	StatusEnded     = "ENDED"
	StatusCanceled  = "CANCELED"
)

type BidDTO struct {
	ID          string    `json:"id"`
	AuctionID   string    `json:"auction_id"`
	BidderID    string    `json:"bidder_id"`
	BidderName  string    `json:"bidder_name,omitempty"`
	BidderEmail string    `json:"bidder_email,omitempty"`
	Amount      float64   `json:"amount"`
	CreatedAt   time.Time `json:"created_at"`
}

type AuctionDTO struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"product_id"`
	SellerID      string    `json:"seller_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	StartPrice    float64   `json:"start_price"`
	CurrentPrice  float64   `json:"current_price"`
	BidIncrement  float64   `json:"bid_increment"`
	StartsAt      time.Time `json:"starts_at" example:"2025-07-27T16:05:05Z"`
	EndsAt        time.Time `json:"ends_at"   example:"2025-07-27T16:05:05Z"`
	Status        string    `json:"status"    example:"LIVE"`
	WinnerBidID   string    `json:"winner_bid_id,omitempty"`
	ProductNameTH string    `json:"product_name_th,omitempty"`
	ProductNameEN string    `json:"product_name_en,omitempty"`
	ProductImage  string    `json:"product_image,omitempty"`
	TopBid        *BidDTO   `json:"top_bid,omitempty"`
}

type AuctionDetailDTO struct {
	AuctionDTO
	SellerName  string   `json:"seller_name,omitempty"`
	SellerEmail string   `json:"seller_email,omitempty"`
	Bids        []BidDTO `json:"bids"`
}

type CreateAuctionInput struct {
	ProductID    string
	SellerID     string
	Title        string
	Description  string
	StartPrice   float64
	BidIncrement float64 // 0 means "use the service default"
	StartsAt     time.Time
	EndsAt       time.Time
}

// AuctionPatch is a partial admin update; nil fields are left untouched.
type AuctionPatch struct {
	Title        *string
	Description  *string
	BidIncrement *float64
	StartsAt     *time.Time
	EndsAt       *time.Time
	Status       *string
}

var (
	ErrInvalidStartPrice = errors.New("start price must be positive")
	ErrInvalidIncrement  = errors.New("bid increment must be positive")
	ErrInvalidWindow     = errors.New("ends_at must be after starts_at")
	ErrInvalidStatus     = errors.New("invalid auction status")
)

type IAuctionService interface {
	Create(ctx context.Context, in CreateAuctionInput) (*AuctionDetailDTO, error)
	PlaceBid(ctx context.Context, auctionID, bidderID string, amount float64, expectedPrice *float64) (*BidDTO, error)
	Close(ctx context.Context, auctionID string) (*AuctionDetailDTO, error)
	Cancel(ctx context.Context, auctionID string) (*AuctionDetailDTO, error)
	AdminUpdate(ctx context.Context, auctionID string, patch AuctionPatch) (*AuctionDetailDTO, error)
	Delete(ctx context.Context, auctionID string) error
	List(ctx context.Context, status, query string) ([]AuctionDTO, error)
	GetByID(ctx context.Context, auctionID string) (*AuctionDetailDTO, error)
}

type auctionService struct {
	db               *sql.DB
	rdc              *redis.Client
	defaultIncrement float64
	now              func() time.Time
}

func NewAuctionService(db *sql.DB, rdc *redis.Client, defaultIncrement float64) IAuctionService {
	return &auctionService{
		db:               db,
		rdc:              rdc,
		defaultIncrement: defaultIncrement,
		now:              time.Now,
	}
}

func validStatus(st string) bool {
	switch st {
	case StatusScheduled, StatusLive, StatusEnded, StatusCanceled:
		return true
	}
	return false
}

// isOpen reports whether bids may be accepted. LIVE is trusted as an explicit
// admin decision; SCHEDULED auctions open themselves inside their window since
// no clock-driven process flips the stored status.
func isOpen(status string, startsAt, endsAt, now time.Time) bool {
	switch status {
	case StatusLive:
		return true
	case StatusScheduled:
		return !now.Before(startsAt) && now.Before(endsAt)
	}
	return false
}

func (svc *auctionService) Create(ctx context.Context, in CreateAuctionInput) (*AuctionDetailDTO, error) {
	if in.StartPrice <= 0 {
		return nil, ErrInvalidStartPrice
	}
	increment := in.BidIncrement
	if increment == 0 {
		increment = svc.defaultIncrement
	}
	if increment <= 0 {
		return nil, ErrInvalidIncrement
	}
	if !in.EndsAt.After(in.StartsAt) {
		return nil, ErrInvalidWindow
	}

	var exists bool
	err := svc.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, in.ProductID).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrProductNotFound
	}

	id := uuid.NewString()
	_, err = svc.db.ExecContext(ctx,
		`INSERT INTO auctions (id, product_id, seller_id, title, description,
		                       start_price, current_price, bid_increment,
		                       starts_at, ends_at, status)
		      VALUES ($1, $2, $3, $4, $5, $6, $6, $7, $8, $9, 'SCHEDULED')`,
		id, in.ProductID, in.SellerID, in.Title, in.Description,
		in.StartPrice, increment, in.StartsAt.UTC(), in.EndsAt.UTC())
	if err != nil {
		return nil, err
	}
	return svc.GetByID(ctx, id)
}

func (svc *auctionService) PlaceBid(ctx context.Context, auctionID, bidderID string, amount float64, expectedPrice *float64) (*BidDTO, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return nil, ErrInvalidAmount
	}

	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Lock the auction row so concurrent bids on the same auction serialize
	// and each one is validated against the true latest top bid.
	var (
		status           string
		currentPrice     float64
		increment        float64
		startsAt, endsAt time.Time
	)
	err = tx.QueryRowContext(ctx,
		`SELECT status, current_price, bid_increment, starts_at, ends_at
		   FROM auctions WHERE id = $1 FOR UPDATE`, auctionID).
		Scan(&status, &currentPrice, &increment, &startsAt, &endsAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAuctionNotFound
		}
		return nil, err
	}

	if !isOpen(status, startsAt, endsAt, svc.now()) {
		return nil, ErrAuctionNotOpen
	}
	if expectedPrice != nil && *expectedPrice != currentPrice {
		return nil, ErrPriceChanged
	}

	var topBid *float64
	var top float64
	err = tx.QueryRowContext(ctx,
		`SELECT amount FROM bids WHERE auction_id = $1 ORDER BY amount DESC LIMIT 1`,
		auctionID).Scan(&top)
	switch {
	case err == nil:
		topBid = &top
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, err
	}

	if err := ValidateBid(amount, topBid, currentPrice, increment); err != nil {
		return nil, err
	}

	bid := &BidDTO{
		ID:        uuid.NewString(),
		AuctionID: auctionID,
		BidderID:  bidderID,
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO bids (id, auction_id, bidder_id, amount)
		      VALUES ($1, $2, $3, $4) RETURNING amount, created_at`,
		bid.ID, auctionID, bidderID, amount).Scan(&bid.Amount, &bid.CreatedAt)
	if err != nil {
		return nil, err
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE auctions SET current_price = $2 WHERE id = $1`,
		auctionID, amount); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	// Bidder display fields are presentation only; a failed lookup must not
	// fail an already committed bid.
	if err := svc.db.QueryRowContext(ctx,
		`SELECT display_name, email FROM users WHERE id = $1`, bidderID).
		Scan(&bid.BidderName, &bid.BidderEmail); err != nil && !errors.Is(err, sql.ErrNoRows) {
		zap.L().Warn("bidder_lookup", zap.String("bidder_id", bidderID), zap.Error(err))
	}

	svc.publish(ctx, auctionID, "bid", map[string]any{
		"bid_id":    bid.ID,
		"bidder_id": bidderID,
		"amount":    amount,
	})
	return bid, nil
}

func (svc *auctionService) Close(ctx context.Context, auctionID string) (*AuctionDetailDTO, error) {
	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM auctions WHERE id = $1 FOR UPDATE`, auctionID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAuctionNotFound
		}
		return nil, err
	}
	if status == StatusCanceled {
		return nil, ErrAuctionCanceled
	}

	var winnerID sql.NullString
	var topAmount sql.NullFloat64
	err = tx.QueryRowContext(ctx,
		`SELECT id, amount FROM bids WHERE auction_id = $1 ORDER BY amount DESC LIMIT 1`,
		auctionID).Scan(&winnerID, &topAmount)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	// With no bids the current price stays at the start price.
	_, err = tx.ExecContext(ctx,
		`UPDATE auctions
		    SET status = 'ENDED',
		        current_price = COALESCE($2, current_price),
		        winner_bid_id = $3
		  WHERE id = $1`,
		auctionID, topAmount, winnerID)
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	svc.publish(ctx, auctionID, "closed", map[string]any{
		"winner_bid_id": winnerID.String,
	})
	return svc.GetByID(ctx, auctionID)
}

func (svc *auctionService) Cancel(ctx context.Context, auctionID string) (*AuctionDetailDTO, error) {
	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM auctions WHERE id = $1 FOR UPDATE`, auctionID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAuctionNotFound
		}
		return nil, err
	}
	// An ended auction has a decided winner; cancellation must not undo it.
	if status == StatusEnded {
		return nil, ErrAuctionEnded
	}
	if status == StatusCanceled {
		return svc.GetByID(ctx, auctionID)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE auctions SET status = 'CANCELED', winner_bid_id = NULL WHERE id = $1`,
		auctionID)
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	svc.publish(ctx, auctionID, "canceled", nil)
	return svc.GetByID(ctx, auctionID)
}

func (svc *auctionService) AdminUpdate(ctx context.Context, auctionID string, patch AuctionPatch) (*AuctionDetailDTO, error) {
	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var (
		title, description, status string
		increment                  float64
		startsAt, endsAt           time.Time
	)
	err = tx.QueryRowContext(ctx,
		`SELECT title, description, bid_increment, starts_at, ends_at, status
		   FROM auctions WHERE id = $1 FOR UPDATE`, auctionID).
		Scan(&title, &description, &increment, &startsAt, &endsAt, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAuctionNotFound
		}
		return nil, err
	}

	if patch.Title != nil {
		title = *patch.Title
	}
	if patch.Description != nil {
		description = *patch.Description
	}
	if patch.BidIncrement != nil {
		increment = *patch.BidIncrement
	}
	if patch.StartsAt != nil {
		startsAt = patch.StartsAt.UTC()
	}
	if patch.EndsAt != nil {
		endsAt = patch.EndsAt.UTC()
	}
	if patch.Status != nil {
		status = *patch.Status
	}

	if increment <= 0 {
		return nil, ErrInvalidIncrement
	}
	if !endsAt.After(startsAt) {
		return nil, ErrInvalidWindow
	}
	if !validStatus(status) {
		return nil, ErrInvalidStatus
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE auctions
		    SET title = $2, description = $3, bid_increment = $4,
		        starts_at = $5, ends_at = $6, status = $7
		  WHERE id = $1`,
		auctionID, title, description, increment, startsAt, endsAt, status)
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	svc.publish(ctx, auctionID, "updated", map[string]any{"status": status})
	return svc.GetByID(ctx, auctionID)
}

func (svc *auctionService) Delete(ctx context.Context, auctionID string) error {
	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Bids first: they reference the auction row.
	if _, err = tx.ExecContext(ctx,
		`DELETE FROM bids WHERE auction_id = $1`, auctionID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		`DELETE FROM auctions WHERE id = $1`, auctionID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAuctionNotFound
	}
	return tx.Commit()
}

const listQ = `SELECT a.id, a.product_id, a.seller_id, a.title, a.description,
       a.start_price, a.current_price, a.bid_increment,
       a.starts_at, a.ends_at, a.status, coalesce(a.winner_bid_id, ''),
       p.name_th, p.name_en, p.image_url,
       b.id, b.bidder_id, b.amount, b.created_at
  FROM auctions a
  JOIN products p ON p.id = a.product_id
  LEFT JOIN LATERAL (
       SELECT id, bidder_id, amount, created_at
         FROM bids WHERE auction_id = a.id
        ORDER BY amount DESC LIMIT 1
  ) b ON TRUE`

const listOrder = ` ORDER BY CASE a.status
       WHEN 'LIVE' THEN 0 WHEN 'SCHEDULED' THEN 1
       WHEN 'ENDED' THEN 2 ELSE 3 END, a.ends_at ASC`

func (svc *auctionService) List(ctx context.Context, status, query string) ([]AuctionDTO, error) {
	if status != "" && !validStatus(status) {
		return nil, ErrInvalidStatus
	}

	var (
		rows *sql.Rows
		err  error
	)
	switch {
	case status != "" && query != "":
		rows, err = svc.db.QueryContext(ctx,
			listQ+` WHERE a.status = $1 AND (a.title ILIKE '%' || $2 || '%' OR a.description ILIKE '%' || $2 || '%')`+listOrder,
			status, query)
	case status != "":
		rows, err = svc.db.QueryContext(ctx, listQ+` WHERE a.status = $1`+listOrder, status)
	case query != "":
		rows, err = svc.db.QueryContext(ctx,
			listQ+` WHERE a.title ILIKE '%' || $1 || '%' OR a.description ILIKE '%' || $1 || '%'`+listOrder,
			query)
	default:
		rows, err = svc.db.QueryContext(ctx, listQ+listOrder)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]AuctionDTO, 0, 16)
	for rows.Next() {
		var a AuctionDTO
		var bidID, bidderID sql.NullString
		var bidAmount sql.NullFloat64
		var bidAt sql.NullTime
		if err := rows.Scan(&a.ID, &a.ProductID, &a.SellerID, &a.Title, &a.Description,
			&a.StartPrice, &a.CurrentPrice, &a.BidIncrement,
			&a.StartsAt, &a.EndsAt, &a.Status, &a.WinnerBidID,
			&a.ProductNameTH, &a.ProductNameEN, &a.ProductImage,
			&bidID, &bidderID, &bidAmount, &bidAt); err != nil {
			return nil, err
		}
		if bidID.Valid {
			a.TopBid = &BidDTO{
				ID:        bidID.String,
				AuctionID: a.ID,
				BidderID:  bidderID.String,
				Amount:    bidAmount.Float64,
				CreatedAt: bidAt.Time,
			}
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

const getQ = `SELECT a.id, a.product_id, a.seller_id, a.title, a.description,
       a.start_price, a.current_price, a.bid_increment,
       a.starts_at, a.ends_at, a.status, coalesce(a.winner_bid_id, ''),
       p.name_th, p.name_en, p.image_url, u.display_name, u.email
  FROM auctions a
  JOIN products p ON p.id = a.product_id
  JOIN users u ON u.id = a.seller_id
 WHERE a.id = $1`

const bidsQ = `SELECT b.id, b.bidder_id, b.amount, b.created_at,
       u.display_name, u.email
  FROM bids b
  JOIN users u ON u.id = b.bidder_id
 WHERE b.auction_id = $1
 ORDER BY b.amount DESC`

func (svc *auctionService) GetByID(ctx context.Context, auctionID string) (*AuctionDetailDTO, error) {
	dto := &AuctionDetailDTO{}
	err := svc.db.QueryRowContext(ctx, getQ, auctionID).Scan(
		&dto.ID, &dto.ProductID, &dto.SellerID, &dto.Title, &dto.Description,
		&dto.StartPrice, &dto.CurrentPrice, &dto.BidIncrement,
		&dto.StartsAt, &dto.EndsAt, &dto.Status, &dto.WinnerBidID,
		&dto.ProductNameTH, &dto.ProductNameEN, &dto.ProductImage,
		&dto.SellerName, &dto.SellerEmail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAuctionNotFound
		}
		return nil, err
	}

	rows, err := svc.db.QueryContext(ctx, bidsQ, auctionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dto.Bids = make([]BidDTO, 0, 8)
	for rows.Next() {
		b := BidDTO{AuctionID: auctionID}
		if err := rows.Scan(&b.ID, &b.BidderID, &b.Amount, &b.CreatedAt,
			&b.BidderName, &b.BidderEmail); err != nil {
			return nil, err
		}
		dto.Bids = append(dto.Bids, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(dto.Bids) > 0 {
		dto.TopBid = &dto.Bids[0]
	}
	return dto, nil
}
