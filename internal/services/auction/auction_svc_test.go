package auction

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return ts
}

func newTestService(t *testing.T) (*auctionService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := NewAuctionService(db, nil, 10).(*auctionService)
	svc.now = func() time.Time { return mustParse(t, "2025-07-27T12:00:00Z") }
	return svc, mock
}

const (
	lockQ   = `SELECT status, current_price, bid_increment, starts_at, ends_at FROM auctions WHERE id = \$1 FOR UPDATE`
	topAmtQ = `SELECT amount FROM bids WHERE auction_id = \$1 ORDER BY amount DESC LIMIT 1`
	insBidQ = `INSERT INTO bids \(id, auction_id, bidder_id, amount\)`
	updPxQ  = `UPDATE auctions SET current_price = \$2 WHERE id = \$1`
	userQ   = `SELECT display_name, email FROM users WHERE id = \$1`
)

func lockRows(status string, price, inc float64, t *testing.T) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"status", "current_price", "bid_increment", "starts_at", "ends_at"}).
		AddRow(status, price, inc, mustParse(t, "2025-07-27T10:00:00Z"), mustParse(t, "2025-07-27T16:00:00Z"))
}

func TestPlaceBid_FirstBidMustClearStartPlusIncrement(t *testing.T) {
	svc, mock := newTestService(t)

	// A bid equal to the start price is rejected with the minimum reported.
	mock.ExpectBegin()
	mock.ExpectQuery(lockQ).WithArgs("a1").WillReturnRows(lockRows("LIVE", 500, 50, t))
	mock.ExpectQuery(topAmtQ).WithArgs("a1").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.PlaceBid(context.Background(), "a1", "u1", 500, nil)
	var tooLow *BidTooLowError
	require.ErrorAs(t, err, &tooLow)
	assert.Equal(t, 550.0, tooLow.MinRequired)

	// 550 clears the bar and becomes the current price.
	mock.ExpectBegin()
	mock.ExpectQuery(lockQ).WithArgs("a1").WillReturnRows(lockRows("LIVE", 500, 50, t))
	mock.ExpectQuery(topAmtQ).WithArgs("a1").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(insBidQ).
		WithArgs(sqlmock.AnyArg(), "a1", "u1", 550.0).
		WillReturnRows(sqlmock.NewRows([]string{"amount", "created_at"}).
			AddRow(550.0, mustParse(t, "2025-07-27T12:00:01Z")))
	mock.ExpectExec(updPxQ).WithArgs("a1", 550.0).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(userQ).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"display_name", "email"}).AddRow("Alice", "alice@example.com"))

	bid, err := svc.PlaceBid(context.Background(), "a1", "u1", 550, nil)
	require.NoError(t, err)
	assert.Equal(t, 550.0, bid.Amount)
	assert.Equal(t, "Alice", bid.BidderName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceBid_MustExceedTopBidByIncrement(t *testing.T) {
	svc, mock := newTestService(t)

	topRow := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"amount"}).AddRow(550.0)
	}

	mock.ExpectBegin()
	mock.ExpectQuery(lockQ).WithArgs("a1").WillReturnRows(lockRows("LIVE", 550, 50, t))
	mock.ExpectQuery(topAmtQ).WithArgs("a1").WillReturnRows(topRow())
	mock.ExpectRollback()

	_, err := svc.PlaceBid(context.Background(), "a1", "u2", 590, nil)
	var tooLow *BidTooLowError
	require.ErrorAs(t, err, &tooLow)
	assert.Equal(t, 600.0, tooLow.MinRequired)

	mock.ExpectBegin()
	mock.ExpectQuery(lockQ).WithArgs("a1").WillReturnRows(lockRows("LIVE", 550, 50, t))
	mock.ExpectQuery(topAmtQ).WithArgs("a1").WillReturnRows(topRow())
	mock.ExpectQuery(insBidQ).
		WithArgs(sqlmock.AnyArg(), "a1", "u2", 600.0).
		WillReturnRows(sqlmock.NewRows([]string{"amount", "created_at"}).
			AddRow(600.0, mustParse(t, "2025-07-27T12:00:02Z")))
	mock.ExpectExec(updPxQ).WithArgs("a1", 600.0).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(userQ).WithArgs("u2").WillReturnError(sql.ErrNoRows)

	bid, err := svc.PlaceBid(context.Background(), "a1", "u2", 600, nil)
	require.NoError(t, err)
	assert.Equal(t, 600.0, bid.Amount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceBid_RejectsClosedAuctions(t *testing.T) {
	svc, mock := newTestService(t)

	for _, status := range []string{StatusEnded, StatusCanceled} {
		mock.ExpectBegin()
		mock.ExpectQuery(lockQ).WithArgs("a1").WillReturnRows(lockRows(status, 500, 50, t))
		mock.ExpectRollback()

		_, err := svc.PlaceBid(context.Background(), "a1", "u1", 999, nil)
		assert.ErrorIs(t, err, ErrAuctionNotOpen, status)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceBid_RejectsOutsideScheduledWindow(t *testing.T) {
	svc, mock := newTestService(t)
	svc.now = func() time.Time { return mustParse(t, "2025-07-27T09:00:00Z") } // before starts_at

	mock.ExpectBegin()
	mock.ExpectQuery(lockQ).WithArgs("a1").WillReturnRows(lockRows(StatusScheduled, 500, 50, t))
	mock.ExpectRollback()

	_, err := svc.PlaceBid(context.Background(), "a1", "u1", 560, nil)
	assert.ErrorIs(t, err, ErrAuctionNotOpen)
}

func TestPlaceBid_ExpectedPriceMismatchConflicts(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockQ).WithArgs("a1").WillReturnRows(lockRows("LIVE", 600, 50, t))
	mock.ExpectRollback()

	stale := 500.0
	_, err := svc.PlaceBid(context.Background(), "a1", "u1", 700, &stale)
	assert.ErrorIs(t, err, ErrPriceChanged)
}

func TestPlaceBid_InvalidAmounts(t *testing.T) {
	svc, _ := newTestService(t)

	for _, amount := range []float64{0, -5} {
		_, err := svc.PlaceBid(context.Background(), "a1", "u1", amount, nil)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}
}

func TestPlaceBid_NotFound(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockQ).WithArgs("missing").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.PlaceBid(context.Background(), "missing", "u1", 560, nil)
	assert.ErrorIs(t, err, ErrAuctionNotFound)
}

const (
	closeLockQ = `SELECT status FROM auctions WHERE id = \$1 FOR UPDATE`
	topBidQ    = `SELECT id, amount FROM bids WHERE auction_id = \$1 ORDER BY amount DESC LIMIT 1`
	endQ       = `UPDATE auctions SET status = 'ENDED', current_price = COALESCE\(\$2, current_price\), winner_bid_id = \$3 WHERE id = \$1`
	detailQ    = `JOIN users u ON u.id = a.seller_id WHERE a.id = \$1`
	bidListQ   = `FROM bids b JOIN users u ON u.id = b.bidder_id WHERE b.auction_id = \$1 ORDER BY b.amount DESC`
)

func detailCols() []string {
	return []string{"id", "product_id", "seller_id", "title", "description",
		"start_price", "current_price", "bid_increment", "starts_at", "ends_at",
		"status", "winner_bid_id", "name_th", "name_en", "image_url", "display_name", "email"}
}

func expectDetail(mock sqlmock.Sqlmock, t *testing.T, status, winner string, price float64, bids *sqlmock.Rows) {
	mock.ExpectQuery(detailQ).WillReturnRows(sqlmock.NewRows(detailCols()).
		AddRow("a1", "p1", "s1", "Vintage camera", "",
			500.0, price, 50.0,
			mustParse(t, "2025-07-27T10:00:00Z"), mustParse(t, "2025-07-27T16:00:00Z"),
			status, winner, "กล้อง", "Camera", "", "Seller", "seller@example.com"))
	mock.ExpectQuery(bidListQ).WillReturnRows(bids)
}

func bidListCols() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "bidder_id", "amount", "created_at", "display_name", "email"})
}

func TestClose_WithBidsFreezesWinner(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(closeLockQ).WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("LIVE"))
	mock.ExpectQuery(topBidQ).WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "amount"}).AddRow("b9", 600.0))
	mock.ExpectExec(endQ).WithArgs("a1", 600.0, "b9").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	expectDetail(mock, t, StatusEnded, "b9", 600,
		bidListCols().AddRow("b9", "u2", 600.0, mustParse(t, "2025-07-27T12:00:02Z"), "Bob", "bob@example.com"))

	dto, err := svc.Close(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, StatusEnded, dto.Status)
	assert.Equal(t, "b9", dto.WinnerBidID)
	assert.Equal(t, 600.0, dto.CurrentPrice)
	require.NotNil(t, dto.TopBid)
	assert.Equal(t, "b9", dto.TopBid.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClose_WithoutBidsKeepsStartPrice(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(closeLockQ).WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("SCHEDULED"))
	mock.ExpectQuery(topBidQ).WithArgs("a1").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(endQ).WithArgs("a1", nil, nil).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	expectDetail(mock, t, StatusEnded, "", 500, bidListCols())

	dto, err := svc.Close(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, 500.0, dto.CurrentPrice)
	assert.Empty(t, dto.WinnerBidID)
	assert.Nil(t, dto.TopBid)
}

func TestClose_CanceledAuctionRejected(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(closeLockQ).WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("CANCELED"))
	mock.ExpectRollback()

	_, err := svc.Close(context.Background(), "a1")
	assert.ErrorIs(t, err, ErrAuctionCanceled)
}

func TestClose_SecondCloseKeepsWinner(t *testing.T) {
	svc, mock := newTestService(t)

	expectClose := func() {
		mock.ExpectBegin()
		mock.ExpectQuery(closeLockQ).WithArgs("a1").
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(StatusEnded))
		mock.ExpectQuery(topBidQ).WithArgs("a1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "amount"}).AddRow("b9", 600.0))
		mock.ExpectExec(endQ).WithArgs("a1", 600.0, "b9").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		expectDetail(mock, t, StatusEnded, "b9", 600,
			bidListCols().AddRow("b9", "u2", 600.0, mustParse(t, "2025-07-27T12:00:02Z"), "Bob", "bob@example.com"))
	}

	expectClose()
	first, err := svc.Close(context.Background(), "a1")
	require.NoError(t, err)

	expectClose()
	second, err := svc.Close(context.Background(), "a1")
	require.NoError(t, err)

	assert.Equal(t, first.CurrentPrice, second.CurrentPrice)
	assert.Equal(t, first.WinnerBidID, second.WinnerBidID)
	assert.Equal(t, first.Status, second.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancel_ClearsWinner(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(closeLockQ).WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("LIVE"))
	mock.ExpectExec(`UPDATE auctions SET status = 'CANCELED', winner_bid_id = NULL WHERE id = \$1`).
		WithArgs("a1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectDetail(mock, t, StatusCanceled, "", 500, bidListCols())

	dto, err := svc.Cancel(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, StatusCanceled, dto.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancel_EndedAuctionRejected(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(closeLockQ).WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(StatusEnded))
	mock.ExpectRollback()

	_, err := svc.Cancel(context.Background(), "a1")
	assert.ErrorIs(t, err, ErrAuctionEnded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancel_AlreadyCanceledIsNoOp(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(closeLockQ).WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(StatusCanceled))
	expectDetail(mock, t, StatusCanceled, "", 500, bidListCols())
	mock.ExpectRollback()

	dto, err := svc.Cancel(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, StatusCanceled, dto.Status)
}

func TestDelete_CascadesBids(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM bids WHERE auction_id = \$1`).WithArgs("a1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`DELETE FROM auctions WHERE id = \$1`).WithArgs("a1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.Delete(context.Background(), "a1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_NotFound(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM bids WHERE auction_id = \$1`).WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM auctions WHERE id = \$1`).WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	assert.ErrorIs(t, svc.Delete(context.Background(), "missing"), ErrAuctionNotFound)
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	base := CreateAuctionInput{
		ProductID:  "p1",
		SellerID:   "s1",
		Title:      "Vintage camera",
		StartPrice: 500,
		StartsAt:   mustParse(t, "2025-07-27T10:00:00Z"),
		EndsAt:     mustParse(t, "2025-07-27T16:00:00Z"),
	}

	in := base
	in.StartPrice = 0
	_, err := svc.Create(ctx, in)
	assert.ErrorIs(t, err, ErrInvalidStartPrice)

	in = base
	in.BidIncrement = -1
	_, err = svc.Create(ctx, in)
	assert.ErrorIs(t, err, ErrInvalidIncrement)

	in = base
	in.EndsAt = in.StartsAt
	_, err = svc.Create(ctx, in)
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestCreate_MissingProduct(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`)).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := svc.Create(context.Background(), CreateAuctionInput{
		ProductID:  "ghost",
		SellerID:   "s1",
		Title:      "x",
		StartPrice: 100,
		StartsAt:   mustParse(t, "2025-07-27T10:00:00Z"),
		EndsAt:     mustParse(t, "2025-07-27T16:00:00Z"),
	})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestAdminUpdate_WindowRevalidatedAfterMerge(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT title, description, bid_increment, starts_at, ends_at, status FROM auctions WHERE id = \$1 FOR UPDATE`).
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"title", "description", "bid_increment", "starts_at", "ends_at", "status"}).
			AddRow("Vintage camera", "", 50.0,
				mustParse(t, "2025-07-27T10:00:00Z"), mustParse(t, "2025-07-27T16:00:00Z"), "SCHEDULED"))
	mock.ExpectRollback()

	// Moving ends_at before the existing starts_at must fail.
	bad := mustParse(t, "2025-07-27T09:00:00Z")
	_, err := svc.AdminUpdate(context.Background(), "a1", AuctionPatch{EndsAt: &bad})
	assert.ErrorIs(t, err, ErrInvalidWindow)
}
