package carthandler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storebidgo/internal/http/httpauth"
	"storebidgo/internal/http/httpbody"
	"storebidgo/internal/services/cart"
	"storebidgo/internal/services/catalog"
)

type SetItemBody struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"   binding:"gte=0"`
} // @name SetCartItemRequest

type Handler struct {
	svc cart.ICartService
}

func New(svc cart.ICartService) *Handler { return &Handler{svc: svc} }

func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/cart", httpauth.RequireUser())
	g.GET("", h.get)
	g.PUT("/items", h.setItem)
	g.DELETE("", h.clear)
}

func writeErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, catalog.ErrProductNotFound):
		c.JSON(http.StatusNotFound, httpbody.ErrorResponse{Error: err.Error()})
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrProductUnavailable):
		c.JSON(http.StatusBadRequest, httpbody.ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, httpbody.ErrorResponse{Error: err.Error()})
	}
}

// @Summary		Get cart
// @Description	Current cart lines priced from the live catalog.
// @Tags			Cart
// @Success		200	{object}	cart.CartDTO
// @Router			/cart [get]
func (h *Handler) get(c *gin.Context) {
	dto, err := h.svc.Get(c.Request.Context(), httpauth.UserID(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

// @Summary		Set cart item
// @Description	Sets a line quantity; zero removes the line.
// @Tags			Cart
// @Param			body	body		SetItemBody	true	"Line payload"
// @Success		200		{object}	httpbody.StatusResponse
// @Failure		400		{object}	httpbody.ErrorResponse
// @Router			/cart/items [put]
func (h *Handler) setItem(c *gin.Context) {
	var body SetItemBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, httpbody.ErrorResponse{Error: err.Error()})
		return
	}
	if err := h.svc.SetItem(c.Request.Context(), httpauth.UserID(c),
		body.ProductID, body.Quantity); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, httpbody.StatusResponse{Status: "ok"})
}

// @Summary		Clear cart
// @Tags			Cart
// @Success		200	{object}	httpbody.StatusResponse
// @Router			/cart [delete]
func (h *Handler) clear(c *gin.Context) {
	if err := h.svc.Clear(c.Request.Context(), httpauth.UserID(c)); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, httpbody.StatusResponse{Status: "cleared"})
}
