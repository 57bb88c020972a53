package orderhandler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storebidgo/internal/http/httpauth"
	"storebidgo/internal/http/httpbody"
	"storebidgo/internal/services/coupon"
	"storebidgo/internal/services/order"
)

type CheckoutBody struct {
	CouponCode string `json:"coupon_code"`
} // @name CheckoutRequest

type AttachSlipBody struct {
	SlipURL string `json:"slip_url" binding:"required"`
} // @name AttachSlipRequest

type ListOrdersQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=PENDING_PAYMENT SLIP_UPLOADED PAID SHIPPED COMPLETED CANCELED"`
} // @name ListOrdersQuery

type Handler struct {
	svc order.IOrderService
}

func New(svc order.IOrderService) *Handler { return &Handler{svc: svc} }

func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/orders", httpauth.RequireUser())
	g.POST("/checkout", h.checkout)
	g.GET("", h.listMine)
	g.GET("/:id", h.info)
	g.POST("/:id/slip", h.attachSlip)
	g.POST("/:id/cancel", h.cancel)

	a := r.Group("/admin/orders", httpauth.RequireAdmin())
	a.GET("", h.listAll)
	a.POST("/:id/confirm", h.confirm)
	a.POST("/:id/ship", h.ship)
	a.POST("/:id/complete", h.complete)
}

func writeErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, order.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, httpbody.ErrorResponse{Error: err.Error()})
	case errors.Is(err, order.ErrIllegalTransition):
		c.JSON(http.StatusConflict, httpbody.ErrorResponse{Error: err.Error()})
	case errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrInsufficientStock),
		errors.Is(err, order.ErrProductUnavailable),
		errors.Is(err, coupon.ErrCouponNotFound),
		errors.Is(err, coupon.ErrCouponInactive),
		errors.Is(err, coupon.ErrCouponExpired),
		errors.Is(err, coupon.ErrBelowMinimum):
		c.JSON(http.StatusBadRequest, httpbody.ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, httpbody.ErrorResponse{Error: err.Error()})
	}
}

// getOwned loads the order and enforces that the caller owns it.
func (h *Handler) getOwned(c *gin.Context) (*order.OrderDTO, bool) {
	dto, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeErr(c, err)
		return nil, false
	}
	if dto.UserID != httpauth.UserID(c) && c.GetHeader(httpauth.HeaderUserRole) != httpauth.RoleAdmin {
		c.JSON(http.StatusForbidden, httpbody.ErrorResponse{Error: "not your order"})
		return nil, false
	}
	return dto, true
}

// @Summary		Checkout
// @Description	Creates an order from the caller's cart, optionally with a coupon.
// @Tags			Orders
// @Param			body	body		CheckoutBody	true	"Checkout payload"
// @Success		201		{object}	order.OrderDTO
// @Failure		400		{object}	httpbody.ErrorResponse
// @Router			/orders/checkout [post]
func (h *Handler) checkout(c *gin.Context) {
	var body CheckoutBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, httpbody.ErrorResponse{Error: err.Error()})
		return
	}
	dto, err := h.svc.Checkout(c.Request.Context(), httpauth.UserID(c), body.CouponCode)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto)
}

// @Summary		List own orders
// @Tags			Orders
// @Success		200	{array}	order.OrderDTO
// @Router			/orders [get]
func (h *Handler) listMine(c *gin.Context) {
	out, err := h.svc.ListByUser(c.Request.Context(), httpauth.UserID(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary		Get order
// @Tags			Orders
// @Param			id	path		string	true	"Order ID"
// @Success		200	{object}	order.OrderDTO
// @Failure		404	{object}	httpbody.ErrorResponse
// @Router			/orders/{id} [get]
func (h *Handler) info(c *gin.Context) {
	dto, ok := h.getOwned(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto)
}

// @Summary		Attach transfer slip
// @Description	Records the bank-transfer slip reference for manual review.
// @Tags			Orders
// @Param			id		path		string			true	"Order ID"
// @Param			body	body		AttachSlipBody	true	"Slip payload"
// @Success		200		{object}	order.OrderDTO
// @Failure		409		{object}	httpbody.ErrorResponse
// @Router			/orders/{id}/slip [post]
func (h *Handler) attachSlip(c *gin.Context) {
	if _, ok := h.getOwned(c); !ok {
		return
	}
	var body AttachSlipBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, httpbody.ErrorResponse{Error: err.Error()})
		return
	}
	dto, err := h.svc.AttachSlip(c.Request.Context(), c.Param("id"), body.SlipURL)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

// @Summary		Cancel order
// @Description	Cancels a non-terminal order and restores its stock.
// @Tags			Orders
// @Param			id	path		string	true	"Order ID"
// @Success		200	{object}	order.OrderDTO
// @Failure		409	{object}	httpbody.ErrorResponse
// @Router			/orders/{id}/cancel [post]
func (h *Handler) cancel(c *gin.Context) {
	if _, ok := h.getOwned(c); !ok {
		return
	}
	dto, err := h.svc.CancelOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

// @Summary		List all orders
// @Tags			Orders
// @Param			status	query		string	false	"Status filter"
// @Success		200		{array}		order.OrderDTO
// @Router			/admin/orders [get]
func (h *Handler) listAll(c *gin.Context) {
	var q ListOrdersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, httpbody.ErrorResponse{Error: err.Error()})
		return
	}
	out, err := h.svc.ListAll(c.Request.Context(), q.Status)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary		Confirm payment
// @Tags			Orders
// @Param			id	path		string	true	"Order ID"
// @Success		200	{object}	order.OrderDTO
// @Router			/admin/orders/{id}/confirm [post]
func (h *Handler) confirm(c *gin.Context) {
	dto, err := h.svc.ConfirmPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

// @Summary		Mark shipped
// @Tags			Orders
// @Param			id	path		string	true	"Order ID"
// @Success		200	{object}	order.OrderDTO
// @Router			/admin/orders/{id}/ship [post]
func (h *Handler) ship(c *gin.Context) {
	dto, err := h.svc.Ship(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

// @Summary		Mark completed
// @Tags			Orders
// @Param			id	path		string	true	"Order ID"
// @Success		200	{object}	order.OrderDTO
// @Router			/admin/orders/{id}/complete [post]
func (h *Handler) complete(c *gin.Context) {
	dto, err := h.svc.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}
