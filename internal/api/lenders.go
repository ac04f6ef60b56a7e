// internal/api/lenders.go
package api

import (
	"context"
	"fmt"

	"msme-lender-platform/internal/common/logger"
	"msme-lender-platform/internal/lenders"
	"msme-lender-platform/internal/models"

	"github.com/gin-gonic/gin"
)

// LenderService is what the lender routes call.
type LenderService interface {
	List(ctx context.Context) ([]models.LenderConfig, error)
	Info(ctx context.Context, id string) (*models.LenderInfo, error)
	Create(ctx context.Context, body []byte) (*models.LenderConfig, error)
	Update(ctx context.Context, id string, body []byte) (*models.LenderConfig, error)
	Delete(ctx context.Context, id string) error
	Deletable(ctx context.Context, id string) (*models.DeletableCheck, error)
	Reset(ctx context.Context) (*lenders.ResetResult, error)
}

type LenderHandler struct {
	service LenderService
	logger  logger.Logger
}

func NewLenderHandler(service LenderService, log logger.Logger) *LenderHandler {
	return &LenderHandler{service: service, logger: log}
}

func (h *LenderHandler) register(g *gin.RouterGroup) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.POST("/reset", h.Reset)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.GET("/:id/deletable", h.Deletable)
}

func (h *LenderHandler) List(c *gin.Context) {
	all, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, all)
}

// Get returns the lender with its protection flags.
func (h *LenderHandler) Get(c *gin.Context) {
	info, err := h.service.Info(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, info)
}

func (h *LenderHandler) Create(c *gin.Context) {
	body, ok := readBody(c, h.logger)
	if !ok {
		return
	}
	lender, err := h.service.Create(c.Request.Context(), body)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondCreated(c, lender)
}

func (h *LenderHandler) Update(c *gin.Context) {
	body, ok := readBody(c, h.logger)
	if !ok {
		return
	}
	lender, err := h.service.Update(c.Request.Context(), c.Param("id"), body)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, lender)
}

func (h *LenderHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondMessage(c, nil, "Lender deleted successfully")
}

func (h *LenderHandler) Deletable(c *gin.Context) {
	check, err := h.service.Deletable(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, check)
}

func (h *LenderHandler) Reset(c *gin.Context) {
	res, err := h.service.Reset(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondMessage(c, res.Lenders, fmt.Sprintf(
		"Successfully reset to default configuration. Restored %d default lenders and preserved %d user-added lenders.",
		res.RestoredDefaults, res.PreservedUsers,
	))
}
