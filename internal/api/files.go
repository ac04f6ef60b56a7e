// internal/api/files.go
package api

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"msme-lender-platform/internal/archives"
	"msme-lender-platform/internal/common/errors"
	"msme-lender-platform/internal/common/logger"
	"msme-lender-platform/internal/uploads"

	"github.com/gin-gonic/gin"
)

// UploadService stores and serves uploaded documents.
type UploadService interface {
	Store(ctx context.Context, field string, fh *multipart.FileHeader) (*uploads.File, error)
	StoreAll(ctx context.Context, field string, files []*multipart.FileHeader) ([]uploads.File, error)
	Open(ctx context.Context, name string) (io.ReadCloser, *uploads.ObjectInfo, error)
}

// ArchiveService builds and serves application archives.
type ArchiveService interface {
	Create(ctx context.Context, ids []string) (*archives.Archive, error)
	List(ctx context.Context) ([]uploads.ObjectInfo, error)
	Open(ctx context.Context, name string) (io.ReadCloser, *uploads.ObjectInfo, error)
}

type UploadHandler struct {
	service UploadService
	logger  logger.Logger
}

func NewUploadHandler(service UploadService, log logger.Logger) *UploadHandler {
	return &UploadHandler{service: service, logger: log}
}

func (h *UploadHandler) register(g *gin.RouterGroup) {
	g.POST("", h.Upload)
	g.POST("/multiple", h.UploadMultiple)
	g.GET("/:filename", h.Download)
}

// Upload stores the single file sent as "file".
func (h *UploadHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		respondError(c, h.logger, errors.NewInvalidRequestError("No file uploaded"))
		return
	}
	f, err := h.service.Store(c.Request.Context(), "file", fh)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// UploadMultiple stores every file sent as "files".
func (h *UploadHandler) UploadMultiple(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, h.logger, errors.NewInvalidRequestError("No files uploaded"))
		return
	}
	files, err := h.service.StoreAll(c.Request.Context(), "files", form.File["files"])
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, files)
}

func (h *UploadHandler) Download(c *gin.Context) {
	rc, info, err := h.service.Open(c.Request.Context(), c.Param("filename"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	defer rc.Close()
	sendFile(c, info, rc)
}

type ArchiveHandler struct {
	service ArchiveService
	logger  logger.Logger
}

func NewArchiveHandler(service ArchiveService, log logger.Logger) *ArchiveHandler {
	return &ArchiveHandler{service: service, logger: log}
}

func (h *ArchiveHandler) register(g *gin.RouterGroup) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/download/:filename", h.Download)
}

type createArchiveRequest struct {
	ApplicationIDs []string `json:"applicationIds"`
}

func (h *ArchiveHandler) List(c *gin.Context) {
	objs, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, objs)
}

// Create streams a zip of the requested applications.
func (h *ArchiveHandler) Create(c *gin.Context) {
	var req createArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, errors.NewInvalidRequestError("Invalid application IDs"))
		return
	}
	archive, err := h.service.Create(c.Request.Context(), req.ApplicationIDs)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", archive.Filename))
	c.Data(http.StatusOK, "application/zip", archive.Data)
}

func (h *ArchiveHandler) Download(c *gin.Context) {
	rc, info, err := h.service.Open(c.Request.Context(), c.Param("filename"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	defer rc.Close()
	sendFile(c, info, rc)
}

func sendFile(c *gin.Context, info *uploads.ObjectInfo, r io.Reader) {
	contentType := info.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(info.Name))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, info.Size, contentType, r, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", info.Name),
	})
}
