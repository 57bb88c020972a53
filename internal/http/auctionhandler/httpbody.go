package auctionhandler

import "time"

type CreateAuctionBody struct {
	ProductID    string    `json:"product_id"    binding:"required" example:"prod123"`
	Title        string    `json:"title"         binding:"required" example:"Vintage camera"`
	Description  string    `json:"description"   example:"Working condition"`
	StartPrice   float64   `json:"start_price"   binding:"required,gt=0" example:"500"`
	BidIncrement float64   `json:"bid_increment" binding:"omitempty,gt=0" example:"50"`
	StartsAt     time.Time `json:"starts_at"     binding:"required" example:"2025-07-27T16:05:05Z"`
	EndsAt       time.Time `json:"ends_at"       binding:"required" example:"2025-07-28T16:05:05Z"`
} // @name CreateAuctionRequest

type PlaceBidBody struct {
	Amount float64 `json:"amount" binding:"required,gt=0" example:"550"`
	// Optional optimistic check: reject with 409 when the current price moved.
	ExpectedPrice *float64 `json:"expected_price,omitempty" example:"500"`
} // @name PlaceBidRequest

type UpdateAuctionBody struct {
	Title        *string    `json:"title,omitempty"`
	Description  *string    `json:"description,omitempty"`
	BidIncrement *float64   `json:"bid_increment,omitempty"`
	StartsAt     *time.Time `json:"starts_at,omitempty"`
	EndsAt       *time.Time `json:"ends_at,omitempty"`
	Status       *string    `json:"status,omitempty" binding:"omitempty,oneof=SCHEDULED LIVE ENDED CANCELED"`
} // @name UpdateAuctionRequest

type ListAuctionsQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=SCHEDULED LIVE ENDED CANCELED"`
	Q      string `form:"q"`
} // @name ListAuctionsQuery
