package auction

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrProductNotFound = errors.New("product not found")
	ErrAuctionNotOpen  = errors.New("auction is not open for bidding")
	ErrAuctionCanceled = errors.New("auction is canceled")
	ErrAuctionEnded    = errors.New("auction already ended")
	ErrPriceChanged    = errors.New("current price changed, refresh and retry")
	ErrInvalidAmount   = errors.New("invalid bid amount")
)

// BidTooLowError carries the computed minimum so callers can report it.
type BidTooLowError struct {
	MinRequired float64
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid too low: must be at least %.2f", e.MinRequired)
}

// MinRequired returns the lowest acceptable next bid: the current top bid
// plus the auction's increment, or currentPrice plus increment when the
// auction has no bids yet. Since currentPrice starts at the start price,
// the very first bid must reach startPrice + increment.
func MinRequired(topBid *float64, currentPrice, increment float64) float64 {
	if topBid != nil {
		return *topBid + increment
	}
	return currentPrice + increment
}

// ValidateBid decides whether amount may be accepted. Pure; no side effects.
func ValidateBid(amount float64, topBid *float64, currentPrice, increment float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return ErrInvalidAmount
	}
	if min := MinRequired(topBid, currentPrice, increment); amount < min {
		return &BidTooLowError{MinRequired: min}
	}
	return nil
}
