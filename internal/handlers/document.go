package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	apierrors "github.com/opsdesk/opsdesk-api/internal/errors"
	"github.com/opsdesk/opsdesk-api/internal/middleware"
	"github.com/opsdesk/opsdesk-api/internal/repository"
	"github.com/opsdesk/opsdesk-api/internal/services"
	"github.com/opsdesk/opsdesk-api/internal/utils"
)

// DocumentHandler coordinates document HTTP handlers.
type DocumentHandler struct {
	documentService *services.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(documentService *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
	}
}

// optionalID parses an optional uint64 form value.
func optionalID(c *gin.Context, field string) (*uint64, bool) {
	raw := c.PostForm(field)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, false
	}
	return &id, true
}

// UploadDocument stores an uploaded file and its metadata.
func (h *DocumentHandler) UploadDocument(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		apierrors.BadRequest(c, "Missing file")
		return
	}
	defer file.Close()

	name := c.PostForm("name")
	if name == "" {
		name = header.Filename
	}
	contactID, ok := optionalID(c, "contact_id")
	if !ok {
		apierrors.BadRequest(c, "Invalid contact ID")
		return
	}
	itemID, ok := optionalID(c, "item_id")
	if !ok {
		apierrors.BadRequest(c, "Invalid item ID")
		return
	}

	profile, _ := middleware.GetProfile(c)
	doc, err := h.documentService.Upload(c.Request.Context(), services.UploadInput{
		BusinessID:  profile.BusinessID,
		Name:        name,
		Body:        file,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		ContactID:   contactID,
		ItemID:      itemID,
		UploadedBy:  profile.UserID,
	})
	if err != nil {
		respondDocumentError(c, err)
		return
	}

	c.JSON(http.StatusCreated, doc)
}

// UploadVersion stores a new version of an existing document.
func (h *DocumentHandler) UploadVersion(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid document ID")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		apierrors.BadRequest(c, "Missing file")
		return
	}
	defer file.Close()

	profile, _ := middleware.GetProfile(c)
	doc, err := h.documentService.UploadVersion(c.Request.Context(), profile.BusinessID, id, services.UploadInput{
		Name:        c.PostForm("name"),
		Body:        file,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		UploadedBy:  profile.UserID,
	})
	if err != nil {
		respondDocumentError(c, err)
		return
	}

	c.JSON(http.StatusCreated, doc)
}

// GetDocument returns a document's metadata.
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid document ID")
		return
	}

	profile, _ := middleware.GetProfile(c)
	doc, err := h.documentService.Get(c.Request.Context(), profile.BusinessID, id, profile.UserID)
	if err != nil {
		respondDocumentError(c, err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

// ListDocuments lists documents with filtering and pagination.
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	profile, _ := middleware.GetProfile(c)
	params := utils.GetPaginationParams(c)

	filter := repository.DocumentFilter{
		BusinessID: profile.BusinessID,
		LatestOnly: c.Query("all_versions") != "true",
		Search:     c.Query("search"),
		Page:       params.Page,
		PageSize:   params.Limit,
	}
	if raw := c.Query("contact_id"); raw != "" {
		contactID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid contact ID")
			return
		}
		filter.ContactID = &contactID
	}
	if raw := c.Query("item_id"); raw != "" {
		itemID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid item ID")
			return
		}
		filter.ItemID = &itemID
	}

	docs, total, err := h.documentService.List(c.Request.Context(), filter)
	if err != nil {
		apierrors.InternalError(c, "Failed to list documents")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"documents":   docs,
		"page":        params.Page,
		"page_size":   params.Limit,
		"total_count": total,
	})
}

// DownloadDocument streams the document blob.
func (h *DocumentHandler) DownloadDocument(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid document ID")
		return
	}

	profile, _ := middleware.GetProfile(c)
	doc, body, err := h.documentService.Download(c.Request.Context(), profile.BusinessID, id, profile.UserID)
	if err != nil {
		respondDocumentError(c, err)
		return
	}
	defer body.Close()

	c.Header("Content-Disposition", "attachment; filename="+strconv.Quote(doc.Name))
	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Status(http.StatusOK)
	c.Header("Content-Type", contentType)
	if _, err := io.Copy(c.Writer, body); err != nil {
		// Headers are gone; nothing to do but drop the connection.
		return
	}
}

// ShareDocument returns a short-lived signed download URL.
func (h *DocumentHandler) ShareDocument(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid document ID")
		return
	}

	profile, _ := middleware.GetProfile(c)
	url, err := h.documentService.SignedURL(c.Request.Context(), profile.BusinessID, id, profile.UserID)
	if err != nil {
		respondDocumentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// RenameDocument renames a document.
func (h *DocumentHandler) RenameDocument(c *gin.Context) {
	type RenameRequest struct {
		Name string `json:"name" binding:"required"`
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid document ID")
		return
	}

	var req RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	profile, _ := middleware.GetProfile(c)
	doc, err := h.documentService.Rename(c.Request.Context(), profile.BusinessID, id, profile.UserID, req.Name)
	if err != nil {
		respondDocumentError(c, err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

// ListVersions returns the document's version chain.
func (h *DocumentHandler) ListVersions(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid document ID")
		return
	}

	profile, _ := middleware.GetProfile(c)
	versions, err := h.documentService.ListVersions(c.Request.Context(), profile.BusinessID, id)
	if err != nil {
		respondDocumentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"versions": versions})
}

// ListDocumentActivity lists a document's activity log.
func (h *DocumentHandler) ListDocumentActivity(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid document ID")
		return
	}

	profile, _ := middleware.GetProfile(c)
	activity, err := h.documentService.ListActivity(c.Request.Context(), profile.BusinessID, id)
	if err != nil {
		respondDocumentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"activity": activity})
}

// DeleteDocument deletes a document and its blob.
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid document ID")
		return
	}

	profile, _ := middleware.GetProfile(c)
	if err := h.documentService.Delete(c.Request.Context(), profile.BusinessID, id); err != nil {
		respondDocumentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Document deleted"})
}

func respondDocumentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrDocumentNameEmpty),
		errors.Is(err, services.ErrDocumentEmptyBody):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		apierrors.NotFound(c, "Document not found")
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
