package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/posting-service/internal/application"
	"github.com/wms-platform/posting-service/pkg/logging"
	"github.com/wms-platform/posting-service/pkg/middleware"
)

// PostingHandler handles HTTP requests for document posting
type PostingHandler struct {
	service *application.PostingService
	logger  *logging.Logger
}

// NewPostingHandler creates a new PostingHandler
func NewPostingHandler(service *application.PostingService, logger *logging.Logger) *PostingHandler {
	return &PostingHandler{
		service: service,
		logger:  logger,
	}
}

// postingRequest is the optional body of the post and reverse endpoints.
// UserID falls back to the X-User-ID header.
type postingRequest struct {
	UserID    string `json:"userId" binding:"omitempty,max=128,safe_string"`
	Narrative string `json:"narrative" binding:"omitempty,max=500,safe_string"`
}

func (r postingRequest) userID(c *gin.Context) string {
	if r.UserID != "" {
		return r.UserID
	}
	return middleware.GetUserID(c)
}

// RegisterRoutes mounts the posting endpoints under group
func (h *PostingHandler) RegisterRoutes(group *gin.RouterGroup) {
	documents := group.Group("/documents")
	{
		documents.POST("/:documentId/post", h.PostDocument)
		documents.POST("/:documentId/reverse", h.ReverseDocument)
		documents.GET("/:documentId/journals", h.ListDocumentJournals)
	}

	journals := group.Group("/journals")
	{
		journals.GET("/:journalId", h.GetJournal)
	}
}

// PostDocument handles POST /api/v1/documents/:documentId/post
func (h *PostingHandler) PostDocument(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req postingRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	result, err := h.service.PostDocument(c.Request.Context(), application.PostDocumentCommand{
		DocumentID: c.Param("documentId"),
		UserID:     req.userID(c),
		Narrative:  req.Narrative,
	})
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// ReverseDocument handles POST /api/v1/documents/:documentId/reverse
func (h *PostingHandler) ReverseDocument(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req postingRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	result, err := h.service.ReverseDocument(c.Request.Context(), application.ReverseDocumentCommand{
		DocumentID: c.Param("documentId"),
		UserID:     req.userID(c),
		Narrative:  req.Narrative,
	})
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// GetJournal handles GET /api/v1/journals/:journalId
func (h *PostingHandler) GetJournal(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	result, err := h.service.GetJournal(c.Request.Context(), c.Param("journalId"))
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// ListDocumentJournals handles GET /api/v1/documents/:documentId/journals
func (h *PostingHandler) ListDocumentJournals(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	result, err := h.service.ListDocumentJournals(c.Request.Context(), c.Param("documentId"))
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result, "total": len(result)})
}
