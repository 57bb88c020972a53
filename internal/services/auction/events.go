package auction

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

const eventChannelPrefix = "auc:"
const eventChannelSuffix = ":events"

// EventChannel returns the Redis Pub/Sub channel for one auction's events.
func EventChannel(auctionID string) string {
	return eventChannelPrefix + auctionID + eventChannelSuffix
}

// publish pushes a lifecycle/bid event onto the auction's channel. Events are
// fan-out only; a publish failure never fails the committed operation.
func (svc *auctionService) publish(ctx context.Context, auctionID, event string, fields map[string]any) {
	if svc.rdc == nil {
		return
	}

	payload := map[string]any{"event": event, "auction_id": auctionID}
	for k, v := range fields {
		payload[k] = v
	}
	data, err := json.Marshal(payload)
	if err != nil {
		zap.L().Warn("event_marshal", zap.Error(err))
		return
	}
	if err := svc.rdc.Publish(ctx, EventChannel(auctionID), data).Err(); err != nil {
		zap.L().Warn("event_publish", zap.String("auction_id", auctionID), zap.Error(err))
	}
}
