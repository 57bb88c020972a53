package couponhandler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storebidgo/internal/http/httpauth"
	"storebidgo/internal/http/httpbody"
	"storebidgo/internal/services/coupon"
)

type CouponBody struct {
	Code       string     `json:"code" binding:"required"`
	PercentOff float64    `json:"percent_off" binding:"required,gt=0,lte=100"`
	MinTotal   float64    `json:"min_total" binding:"gte=0"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
} // @name CouponRequest

type Handler struct {
	svc coupon.ICouponService
}

func New(svc coupon.ICouponService) *Handler { return &Handler{svc: svc} }

func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/coupons", httpauth.RequireAdmin())
	g.GET("", h.list)
	g.POST("", h.create)
	g.DELETE("/:id", h.remove)
}

func writeErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, coupon.ErrCouponNotFound):
		c.JSON(http.StatusNotFound, httpbody.ErrorResponse{Error: err.Error()})
	case errors.Is(err, coupon.ErrInvalidPercent):
		c.JSON(http.StatusBadRequest, httpbody.ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, httpbody.ErrorResponse{Error: err.Error()})
	}
}

// @Summary		List coupons
// @Tags			Coupons
// @Success		200	{array}	coupon.CouponDTO
// @Router			/coupons [get]
func (h *Handler) list(c *gin.Context) {
	out, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary		Create coupon
// @Tags			Coupons
// @Param			body	body		CouponBody	true	"Coupon payload"
// @Success		201		{object}	coupon.CouponDTO
// @Router			/coupons [post]
func (h *Handler) create(c *gin.Context) {
	var body CouponBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, httpbody.ErrorResponse{Error: err.Error()})
		return
	}
	dto, err := h.svc.Create(c.Request.Context(), body.Code, body.PercentOff, body.MinTotal, body.ExpiresAt)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto)
}

// @Summary		Delete coupon
// @Tags			Coupons
// @Param			id	path		string	true	"Coupon ID"
// @Success		200	{object}	httpbody.StatusResponse
// @Router			/coupons/{id} [delete]
func (h *Handler) remove(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, httpbody.StatusResponse{Status: "deleted"})
}
