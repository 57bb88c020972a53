package sweeper

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"storebidgo/internal/services/auction"
)

// Run starts the opt-in clock-driven lifecycle sweep. Without it, auction
// status only changes through explicit close/cancel/admin actions.
func Run(ctx context.Context, db *sql.DB, svc auction.IAuctionService, interval time.Duration) {
	tk := time.NewTicker(interval)
	go func() {
		defer tk.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tk.C:
				sweepOnce(ctx, db, svc)
			}
		}
	}()
}

func sweepOnce(ctx context.Context, db *sql.DB, svc auction.IAuctionService) {
	// Open auctions whose window has started.
	_, err := db.ExecContext(ctx,
		`UPDATE auctions SET status = 'LIVE'
		  WHERE status = 'SCHEDULED' AND starts_at <= now() AND ends_at > now()`)
	if err != nil {
		zap.L().Error("sweep.open", zap.Error(err))
	}

	// End auctions past their window via the normal close path so winner
	// bookkeeping and event fan-out still happen.
	rows, err := db.QueryContext(ctx,
		`SELECT id FROM auctions
		  WHERE status IN ('SCHEDULED', 'LIVE') AND ends_at <= now()`)
	if err != nil {
		zap.L().Error("sweep.scan", zap.Error(err))
		return
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			zap.L().Error("sweep.scan", zap.Error(err))
			return
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		zap.L().Error("sweep.scan", zap.Error(err))
		return
	}

	for _, id := range ids {
		if _, err := svc.Close(ctx, id); err != nil {
			zap.L().Error("sweep.close", zap.String("auction_id", id), zap.Error(err))
		}
	}
}
