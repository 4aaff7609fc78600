// Recognition HTTP handlers.
//
// Create endpoints are idempotent: a request repeating an Idempotency-Key
// already seen for the same caller and route replays the stored response
// with Idempotency-Replayed: true instead of creating anything.
package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/aura-backend/internal/domain"
	"github.com/tbourn/aura-backend/internal/http/middleware"
	"github.com/tbourn/aura-backend/internal/services"
)

// RecognitionResponse is a recognition with both parties' names.
type RecognitionResponse struct {
	*domain.Recognition
	GiverName    string `json:"giver_name"    example:"Ana"`
	ReceiverName string `json:"receiver_name" example:"Bob"`
}

func recognitionResponse(r *domain.Recognition) RecognitionResponse {
	return RecognitionResponse{Recognition: r, GiverName: r.Giver.Name, ReceiverName: r.Receiver.Name}
}

func recognitionPage(items []domain.Recognition) []RecognitionResponse {
	out := make([]RecognitionResponse, len(items))
	for i := range items {
		out[i] = recognitionResponse(&items[i])
	}
	return out
}

// BatchRequest is the object form of a batch body. A bare JSON array of
// items is accepted as well.
type BatchRequest struct {
	Items []services.RecognitionInput `json:"items"`
}

// CreateRecognition godoc
// @ID          createRecognition
// @Summary     Recognize a teammate
// @Description One per giver per calendar day, and one per giver and receiver per calendar month.
// @Tags        Recognitions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header    string                     false  "Optional idempotency key"
// @Param       body             body      services.RecognitionInput  true   "Recognition"
// @Success     201  {object}  handlers.RecognitionResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Receiver not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Daily or monthly limit"
// @Router      /recognitions [post]
func (h *Handlers) CreateRecognition(c *gin.Context) {
	if h.replay(c) {
		return
	}
	var in services.RecognitionInput
	if !bindJSON(c, &in) {
		return
	}
	rec, err := h.recognitions.Create(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		serviceError(c, err)
		return
	}
	h.created(c, http.StatusCreated, recognitionResponse(rec))
}

// CreateRecognitionBatch godoc
// @ID          createRecognitionBatch
// @Summary     Recognize several teammates
// @Description Items are processed in order and independently. Item failures are reported per item.
// @Tags        Recognitions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header    string                 false  "Optional idempotency key"
// @Param       body             body      handlers.BatchRequest  true   "Items"
// @Success     200  {object}  services.BatchResult
// @Failure     400  {object}  handlers.ErrorResponse  "Empty or oversized batch"
// @Router      /recognitions/batch [post]
func (h *Handlers) CreateRecognitionBatch(c *gin.Context) {
	if h.replay(c) {
		return
	}
	items, valid := bindBatch(c)
	if !valid {
		return
	}
	res, err := h.recognitions.CreateBatch(c.Request.Context(), middleware.UserID(c), items)
	if err != nil {
		serviceError(c, err)
		return
	}
	h.created(c, http.StatusOK, res)
}

// bindBatch decodes either {"items":[...]} or [...].
func bindBatch(c *gin.Context) ([]services.RecognitionInput, bool) {
	raw, err := c.GetRawData()
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return nil, false
	}
	raw = bytes.TrimSpace(raw)

	var items []services.RecognitionInput
	if len(raw) > 0 && raw[0] == '[' {
		err = json.Unmarshal(raw, &items)
	} else {
		var req BatchRequest
		err = json.Unmarshal(raw, &req)
		items = req.Items
	}
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return nil, false
	}
	return items, true
}

// GetRecognition godoc
// @ID          getRecognition
// @Summary     Get a recognition
// @Tags        Recognitions
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      int  true  "Recognition ID"
// @Success     200  {object}  handlers.RecognitionResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /recognitions/{id} [get]
func (h *Handlers) GetRecognition(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	rec, err := h.recognitions.Get(c.Request.Context(), id)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, recognitionResponse(rec))
}

// DeleteRecognition godoc
// @ID          deleteRecognition
// @Summary     Delete a recognition
// @Description Only the giver may delete a recognition.
// @Tags        Recognitions
// @Security    BearerAuth
// @Param       id   path  int  true  "Recognition ID"
// @Success     204  {string}  string  "No Content"
// @Failure     403  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /recognitions/{id} [delete]
func (h *Handlers) DeleteRecognition(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.recognitions.Delete(c.Request.Context(), id, middleware.UserID(c)); err != nil {
		serviceError(c, err)
		return
	}
	noContent(c)
}

// ListSentRecognitions godoc
// @ID          listSentRecognitions
// @Summary     Recognitions given by the caller
// @Tags        Recognitions
// @Produce     json
// @Security    BearerAuth
// @Param       page       query  int  false  "Page (>=1)"          default(1)
// @Param       page_size  query  int  false  "Page size (1..100)"  default(10)
// @Success     200  {object}  handlers.ListResponse[handlers.RecognitionResponse]
// @Router      /recognitions/sent [get]
func (h *Handlers) ListSentRecognitions(c *gin.Context) {
	page, pageSize := clampPagination(c)
	items, total, err := h.recognitions.ListSent(c.Request.Context(), middleware.UserID(c), page, pageSize)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, listResponse(c, recognitionPage(items), page, pageSize, total))
}

// ListReceivedRecognitions godoc
// @ID          listReceivedRecognitions
// @Summary     Recognitions received by the caller
// @Tags        Recognitions
// @Produce     json
// @Security    BearerAuth
// @Param       page       query  int  false  "Page (>=1)"          default(1)
// @Param       page_size  query  int  false  "Page size (1..100)"  default(10)
// @Success     200  {object}  handlers.ListResponse[handlers.RecognitionResponse]
// @Router      /recognitions/received [get]
func (h *Handlers) ListReceivedRecognitions(c *gin.Context) {
	page, pageSize := clampPagination(c)
	items, total, err := h.recognitions.ListReceived(c.Request.Context(), middleware.UserID(c), page, pageSize)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, listResponse(c, recognitionPage(items), page, pageSize, total))
}
