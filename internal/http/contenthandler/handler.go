package contenthandler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storebidgo/internal/http/httpauth"
	"storebidgo/internal/http/httpbody"
	"storebidgo/internal/services/content"
)

type BannerBody struct {
	ImageURL  string `json:"image_url" binding:"required"`
	LinkURL   string `json:"link_url"`
	CaptionTH string `json:"caption_th"`
	CaptionEN string `json:"caption_en"`
	SortOrder int    `json:"sort_order"`
	Active    bool   `json:"active"`
} // @name BannerRequest

type FaqBody struct {
	QuestionTH string `json:"question_th" binding:"required"`
	QuestionEN string `json:"question_en" binding:"required"`
	AnswerTH   string `json:"answer_th"`
	AnswerEN   string `json:"answer_en"`
	SortOrder  int    `json:"sort_order"`
} // @name FaqRequest

type Handler struct {
	svc content.IContentService
}

func New(svc content.IContentService) *Handler { return &Handler{svc: svc} }

func (h *Handler) Register(r gin.IRouter) {
	r.GET("/banners", h.listBanners)
	r.POST("/banners", httpauth.RequireAdmin(), h.createBanner)
	r.DELETE("/banners/:id", httpauth.RequireAdmin(), h.removeBanner)

	r.GET("/faqs", h.listFaqs)
	r.POST("/faqs", httpauth.RequireAdmin(), h.createFaq)
	r.DELETE("/faqs/:id", httpauth.RequireAdmin(), h.removeFaq)
}

func writeErr(c *gin.Context, err error) {
	if errors.Is(err, content.ErrNotFound) {
		c.JSON(http.StatusNotFound, httpbody.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, httpbody.ErrorResponse{Error: err.Error()})
}

// @Summary		List banners
// @Tags			Content
// @Success		200	{array}	content.BannerDTO
// @Router			/banners [get]
func (h *Handler) listBanners(c *gin.Context) {
	// Public listing only shows active banners; admins see everything.
	activeOnly := c.GetHeader(httpauth.HeaderUserRole) != httpauth.RoleAdmin
	out, err := h.svc.ListBanners(c.Request.Context(), activeOnly)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary		Create banner
// @Tags			Content
// @Param			body	body		BannerBody	true	"Banner payload"
// @Success		201		{object}	content.BannerDTO
// @Router			/banners [post]
func (h *Handler) createBanner(c *gin.Context) {
	var body BannerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, httpbody.ErrorResponse{Error: err.Error()})
		return
	}
	b, err := h.svc.CreateBanner(c.Request.Context(), content.BannerDTO{
		ImageURL:  body.ImageURL,
		LinkURL:   body.LinkURL,
		CaptionTH: body.CaptionTH,
		CaptionEN: body.CaptionEN,
		SortOrder: body.SortOrder,
		Active:    body.Active,
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// @Summary		Delete banner
// @Tags			Content
// @Param			id	path		string	true	"Banner ID"
// @Success		200	{object}	httpbody.StatusResponse
// @Router			/banners/{id} [delete]
func (h *Handler) removeBanner(c *gin.Context) {
	if err := h.svc.DeleteBanner(c.Request.Context(), c.Param("id")); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, httpbody.StatusResponse{Status: "deleted"})
}

// @Summary		List FAQs
// @Tags			Content
// @Success		200	{array}	content.FaqDTO
// @Router			/faqs [get]
func (h *Handler) listFaqs(c *gin.Context) {
	out, err := h.svc.ListFaqs(c.Request.Context())
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary		Create FAQ
// @Tags			Content
// @Param			body	body		FaqBody	true	"FAQ payload"
// @Success		201		{object}	content.FaqDTO
// @Router			/faqs [post]
func (h *Handler) createFaq(c *gin.Context) {
	var body FaqBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, httpbody.ErrorResponse{Error: err.Error()})
		return
	}
	f, err := h.svc.CreateFaq(c.Request.Context(), content.FaqDTO{
		QuestionTH: body.QuestionTH,
		QuestionEN: body.QuestionEN,
		AnswerTH:   body.AnswerTH,
		AnswerEN:   body.AnswerEN,
		SortOrder:  body.SortOrder,
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, f)
}

// @Summary		Delete FAQ
// @Tags			Content
// @Param			id	path		string	true	"FAQ ID"
// @Success		200	{object}	httpbody.StatusResponse
// @Router			/faqs/{id} [delete]
func (h *Handler) removeFaq(c *gin.Context) {
	if err := h.svc.DeleteFaq(c.Request.Context(), c.Param("id")); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, httpbody.StatusResponse{Status: "deleted"})
}
