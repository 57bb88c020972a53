package auctionhandler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storebidgo/internal/http/httpauth"
	"storebidgo/internal/http/httpbody"
	"storebidgo/internal/services/auction"
)

type Handler struct {
	svc auction.IAuctionService
}

func New(svc auction.IAuctionService) *Handler { return &Handler{svc: svc} }

func (h *Handler) Register(r gin.IRouter) {
	r.GET("/auctions", h.list)
	r.GET("/auctions/:id", h.info)
	r.POST("/auctions", httpauth.RequireUser(), h.create)
	r.POST("/auctions/:id/bid", httpauth.RequireUser(), h.bid)
	r.POST("/auctions/:id/close", httpauth.RequireAdmin(), h.close)
	r.POST("/auctions/:id/cancel", httpauth.RequireAdmin(), h.cancel)
	r.PATCH("/auctions/:id", httpauth.RequireAdmin(), h.update)
	r.DELETE("/auctions/:id", httpauth.RequireAdmin(), h.remove)
}

// writeErr maps service errors onto HTTP statuses.
func writeErr(c *gin.Context, err error) {
	var tooLow *auction.BidTooLowError
	switch {
	case errors.Is(err, auction.ErrAuctionNotFound),
		errors.Is(err, auction.ErrProductNotFound):
		c.JSON(http.StatusNotFound, httpbody.ErrorResponse{Error: err.Error()})
	case errors.As(err, &tooLow),
		errors.Is(err, auction.ErrInvalidAmount),
		errors.Is(err, auction.ErrInvalidStartPrice),
		errors.Is(err, auction.ErrInvalidIncrement),
		errors.Is(err, auction.ErrInvalidWindow),
		errors.Is(err, auction.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, httpbody.ErrorResponse{Error: err.Error()})
	case errors.Is(err, auction.ErrAuctionNotOpen),
		errors.Is(err, auction.ErrAuctionCanceled),
		errors.Is(err, auction.ErrAuctionEnded),
		errors.Is(err, auction.ErrPriceChanged):
		c.JSON(http.StatusConflict, httpbody.ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, httpbody.ErrorResponse{Error: err.Error()})
	}
}

// @Summary		List auctions
// @Description	Lists auctions, optionally filtered by status and free text.
// @Tags			Auctions
// @Param			status	query		string	false	"Status filter"	Enums(SCHEDULED,LIVE,ENDED,CANCELED)
// @Param			q		query		string	false	"Free-text match on title/description"
// @Success		200		{array}		auction.AuctionDTO
// @Failure		400		{object}	httpbody.ErrorResponse
// @Router			/auctions [get]
func (h *Handler) list(c *gin.Context) {
	var q ListAuctionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, httpbody.ErrorResponse{Error: err.Error()})
		return
	}
	out, err := h.svc.List(c.Request.Context(), q.Status, q.Q)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary		Get auction details
// @Description	Returns one auction with its full bid history.
// @Tags			Auctions
// @Param			id	path		string	true	"Auction ID"
// @Success		200	{object}	auction.AuctionDetailDTO
// @Failure		404	{object}	httpbody.ErrorResponse
// @Router			/auctions/{id} [get]
func (h *Handler) info(c *gin.Context) {
	dto, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

// @Summary		Create an auction
// @Description	Seller schedules a time-boxed auction for a product.
// @Tags			Auctions
// @Param			body	body		CreateAuctionBody	true	"Auction payload"
// @Success		201		{object}	auction.AuctionDetailDTO
// @Failure		400		{object}	httpbody.ErrorResponse
// @Router			/auctions [post]
func (h *Handler) create(c *gin.Context) {
	var body CreateAuctionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, httpbody.ErrorResponse{Error: err.Error()})
		return
	}
	dto, err := h.svc.Create(c.Request.Context(), auction.CreateAuctionInput{
		ProductID:    body.ProductID,
		SellerID:     httpauth.UserID(c),
		Title:        body.Title,
		Description:  body.Description,
		StartPrice:   body.StartPrice,
		BidIncrement: body.BidIncrement,
		StartsAt:     body.StartsAt,
		EndsAt:       body.EndsAt,
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto)
}

// @Summary		Place a bid
// @Description	Places a bid; rejected bids report the minimum required amount.
// @Tags			Auctions
// @Param			id		path		string			true	"Auction ID"
// @Param			body	body		PlaceBidBody	true	"Bid payload"
// @Success		201		{object}	auction.BidDTO
// @Failure		400		{object}	httpbody.ErrorResponse
// @Failure		409		{object}	httpbody.ErrorResponse
// @Router			/auctions/{id}/bid [post]
func (h *Handler) bid(c *gin.Context) {
	var body PlaceBidBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, httpbody.ErrorResponse{Error: err.Error()})
		return
	}
	bid, err := h.svc.PlaceBid(c.Request.Context(), c.Param("id"),
		httpauth.UserID(c), body.Amount, body.ExpectedPrice)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, bid)
}

// @Summary		Close an auction
// @Description	Ends the auction and freezes the winning bid.
// @Tags			Auctions
// @Param			id	path		string	true	"Auction ID"
// @Success		200	{object}	auction.AuctionDetailDTO
// @Failure		409	{object}	httpbody.ErrorResponse
// @Router			/auctions/{id}/close [post]
func (h *Handler) close(c *gin.Context) {
	dto, err := h.svc.Close(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

// @Summary		Cancel an auction
// @Tags			Auctions
// @Param			id	path		string	true	"Auction ID"
// @Success		200	{object}	auction.AuctionDetailDTO
// @Failure		404	{object}	httpbody.ErrorResponse
// @Router			/auctions/{id}/cancel [post]
func (h *Handler) cancel(c *gin.Context) {
	dto, err := h.svc.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

// @Summary		Update an auction
// @Description	Partial admin update of scheduling and display fields.
// @Tags			Auctions
// @Param			id		path		string				true	"Auction ID"
// @Param			body	body		UpdateAuctionBody	true	"Patch payload"
// @Success		200		{object}	auction.AuctionDetailDTO
// @Failure		400		{object}	httpbody.ErrorResponse
// @Router			/auctions/{id} [patch]
func (h *Handler) update(c *gin.Context) {
	var body UpdateAuctionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, httpbody.ErrorResponse{Error: err.Error()})
		return
	}
	dto, err := h.svc.AdminUpdate(c.Request.Context(), c.Param("id"), auction.AuctionPatch{
		Title:        body.Title,
		Description:  body.Description,
		BidIncrement: body.BidIncrement,
		StartsAt:     body.StartsAt,
		EndsAt:       body.EndsAt,
		Status:       body.Status,
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

// @Summary		Delete an auction
// @Description	Removes the auction and all of its bids.
// @Tags			Auctions
// @Param			id	path		string	true	"Auction ID"
// @Success		200	{object}	httpbody.StatusResponse
// @Failure		404	{object}	httpbody.ErrorResponse
// @Router			/auctions/{id} [delete]
func (h *Handler) remove(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, httpbody.StatusResponse{Status: "deleted"})
}
