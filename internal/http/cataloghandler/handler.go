package cataloghandler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storebidgo/internal/http/httpauth"
	"storebidgo/internal/http/httpbody"
	"storebidgo/internal/services/catalog"
)

type ProductBody struct {
	SupplierID    string  `json:"supplier_id"`
	NameTH        string  `json:"name_th" binding:"required"`
	NameEN        string  `json:"name_en" binding:"required"`
	DescriptionTH string  `json:"description_th"`
	DescriptionEN string  `json:"description_en"`
	Price         float64 `json:"price" binding:"gte=0"`
	Stock         int     `json:"stock" binding:"gte=0"`
	ImageURL      string  `json:"image_url"`
	Active        bool    `json:"active"`
} // @name ProductRequest

type SupplierBody struct {
	Name    string `json:"name" binding:"required"`
	Contact string `json:"contact"`
} // @name SupplierRequest

type ListProductsQuery struct {
	Q      string `form:"q"`
	Limit  int    `form:"limit,default=20"  binding:"gte=0,lte=100"`
	Offset int    `form:"offset,default=0"  binding:"gte=0"`
} // @name ListProductsQuery

type Handler struct {
	svc catalog.ICatalogService
}

func New(svc catalog.ICatalogService) *Handler { return &Handler{svc: svc} }

func (h *Handler) Register(r gin.IRouter) {
	r.GET("/products", h.list)
	r.GET("/products/:id", h.info)
	r.POST("/products", httpauth.RequireAdmin(), h.create)
	r.PUT("/products/:id", httpauth.RequireAdmin(), h.update)
	r.DELETE("/products/:id", httpauth.RequireAdmin(), h.remove)

	r.GET("/suppliers", httpauth.RequireAdmin(), h.listSuppliers)
	r.POST("/suppliers", httpauth.RequireAdmin(), h.createSupplier)
	r.DELETE("/suppliers/:id", httpauth.RequireAdmin(), h.removeSupplier)
}

func writeErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, catalog.ErrSupplierNotFound):
		c.JSON(http.StatusNotFound, httpbody.ErrorResponse{Error: err.Error()})
	case errors.Is(err, catalog.ErrInvalidPrice):
		c.JSON(http.StatusBadRequest, httpbody.ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, httpbody.ErrorResponse{Error: err.Error()})
	}
}

// @Summary		List products
// @Description	Active catalog entries; free text matches Thai or English names.
// @Tags			Catalog
// @Param			q		query		string	false	"Free-text query"
// @Param			limit	query		int		false	"Max results"	default(20)
// @Param			offset	query		int		false	"Offset"		default(0)
// @Success		200		{array}		catalog.ProductDTO
// @Router			/products [get]
func (h *Handler) list(c *gin.Context) {
	var q ListProductsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, httpbody.ErrorResponse{Error: err.Error()})
		return
	}
	out, err := h.svc.ListProducts(c.Request.Context(), q.Q, q.Limit, q.Offset)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary		Get product
// @Tags			Catalog
// @Param			id	path		string	true	"Product ID"
// @Success		200	{object}	catalog.ProductDTO
// @Failure		404	{object}	httpbody.ErrorResponse
// @Router			/products/{id} [get]
func (h *Handler) info(c *gin.Context) {
	p, err := h.svc.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary		Create product
// @Tags			Catalog
// @Param			body	body		ProductBody	true	"Product payload"
// @Success		201		{object}	catalog.ProductDTO
// @Router			/products [post]
func (h *Handler) create(c *gin.Context) {
	var body ProductBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, httpbody.ErrorResponse{Error: err.Error()})
		return
	}
	p, err := h.svc.CreateProduct(c.Request.Context(), productInput(body))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// @Summary		Update product
// @Tags			Catalog
// @Param			id		path		string		true	"Product ID"
// @Param			body	body		ProductBody	true	"Product payload"
// @Success		200		{object}	catalog.ProductDTO
// @Router			/products/{id} [put]
func (h *Handler) update(c *gin.Context) {
	var body ProductBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, httpbody.ErrorResponse{Error: err.Error()})
		return
	}
	p, err := h.svc.UpdateProduct(c.Request.Context(), c.Param("id"), productInput(body))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary		Delete product
// @Tags			Catalog
// @Param			id	path		string	true	"Product ID"
// @Success		200	{object}	httpbody.StatusResponse
// @Router			/products/{id} [delete]
func (h *Handler) remove(c *gin.Context) {
	if err := h.svc.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, httpbody.StatusResponse{Status: "deleted"})
}

// @Summary		List suppliers
// @Tags			Catalog
// @Success		200	{array}	catalog.SupplierDTO
// @Router			/suppliers [get]
func (h *Handler) listSuppliers(c *gin.Context) {
	out, err := h.svc.ListSuppliers(c.Request.Context())
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary		Create supplier
// @Tags			Catalog
// @Param			body	body		SupplierBody	true	"Supplier payload"
// @Success		201		{object}	catalog.SupplierDTO
// @Router			/suppliers [post]
func (h *Handler) createSupplier(c *gin.Context) {
	var body SupplierBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, httpbody.ErrorResponse{Error: err.Error()})
		return
	}
	s, err := h.svc.CreateSupplier(c.Request.Context(), body.Name, body.Contact)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

// @Summary		Delete supplier
// @Tags			Catalog
// @Param			id	path		string	true	"Supplier ID"
// @Success		200	{object}	httpbody.StatusResponse
// @Router			/suppliers/{id} [delete]
func (h *Handler) removeSupplier(c *gin.Context) {
	if err := h.svc.DeleteSupplier(c.Request.Context(), c.Param("id")); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, httpbody.StatusResponse{Status: "deleted"})
}

func productInput(b ProductBody) catalog.ProductInput {
	return catalog.ProductInput{
		SupplierID:    b.SupplierID,
		NameTH:        b.NameTH,
		NameEN:        b.NameEN,
		DescriptionTH: b.DescriptionTH,
		DescriptionEN: b.DescriptionEN,
		Price:         b.Price,
		Stock:         b.Stock,
		ImageURL:      b.ImageURL,
		Active:        b.Active,
	}
}
