// Sentiment HTTP handlers. Entries are private to their author.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/aura-backend/internal/http/middleware"
	"github.com/tbourn/aura-backend/internal/services"
)

// CreateSentiment godoc
// @ID          createSentiment
// @Summary     Record today's sentiment
// @Description One entry per user per calendar day.
// @Tags        Sentiments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      services.SentimentInput  true  "Sentiment"
// @Success     201   {object}  domain.SentimentEntry
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     409   {object}  handlers.ErrorResponse  "Already recorded today"
// @Router      /sentiments [post]
func (h *Handlers) CreateSentiment(c *gin.Context) {
	var in services.SentimentInput
	if !bindJSON(c, &in) {
		return
	}
	e, err := h.sentiments.Create(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusCreated, e)
}

// ListSentiments godoc
// @ID          listSentiments
// @Summary     The caller's sentiment history
// @Tags        Sentiments
// @Produce     json
// @Security    BearerAuth
// @Param       page       query  int  false  "Page (>=1)"          default(1)
// @Param       page_size  query  int  false  "Page size (1..100)"  default(10)
// @Success     200  {object}  handlers.ListResponse[domain.SentimentEntry]
// @Router      /sentiments [get]
func (h *Handlers) ListSentiments(c *gin.Context) {
	page, pageSize := clampPagination(c)
	items, total, err := h.sentiments.List(c.Request.Context(), middleware.UserID(c), page, pageSize)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, listResponse(c, items, page, pageSize, total))
}

// GetSentiment godoc
// @ID          getSentiment
// @Summary     Get one of the caller's entries
// @Tags        Sentiments
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      int  true  "Entry ID"
// @Success     200  {object}  domain.SentimentEntry
// @Failure     403  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /sentiments/{id} [get]
func (h *Handlers) GetSentiment(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	e, err := h.sentiments.Get(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, e)
}

// DeleteSentiment godoc
// @ID          deleteSentiment
// @Summary     Delete one of the caller's entries
// @Tags        Sentiments
// @Security    BearerAuth
// @Param       id   path  int  true  "Entry ID"
// @Success     204  {string}  string  "No Content"
// @Failure     403  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /sentiments/{id} [delete]
func (h *Handlers) DeleteSentiment(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.sentiments.Delete(c.Request.Context(), id, middleware.UserID(c)); err != nil {
		serviceError(c, err)
		return
	}
	noContent(c)
}
