// internal/api/applications.go
package api

import (
	"context"

	"msme-lender-platform/internal/applications"
	"msme-lender-platform/internal/common/errors"
	"msme-lender-platform/internal/common/logger"
	"msme-lender-platform/internal/models"

	"github.com/gin-gonic/gin"
)

// ApplicationService is what the application routes call.
type ApplicationService interface {
	List(ctx context.Context) ([]models.Application, error)
	Get(ctx context.Context, id string) (*models.Application, error)
	Create(ctx context.Context, body []byte) (*models.Application, error)
	Update(ctx context.Context, id string, body []byte) (*models.Application, error)
	Delete(ctx context.Context, id string) error
	CalculateAssignment(ctx context.Context, body []byte) ([]models.Offer, error)
	CalculateAssignmentFor(ctx context.Context, id string) ([]models.Offer, error)
	RiskScore(ctx context.Context, body []byte) (*applications.RiskAssessment, error)
	RiskScoreFor(ctx context.Context, id string) (*applications.RiskAssessment, error)
	Search(ctx context.Context, query string, status models.Status) ([]models.Application, error)
}

type ApplicationHandler struct {
	service ApplicationService
	logger  logger.Logger
}

func NewApplicationHandler(service ApplicationService, log logger.Logger) *ApplicationHandler {
	return &ApplicationHandler{service: service, logger: log}
}

func (h *ApplicationHandler) register(g *gin.RouterGroup) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/search", h.Search)
	g.POST("/calculate-assignment", h.CalculateAssignment)
	g.POST("/risk-score", h.RiskScore)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/calculate-assignment", h.CalculateAssignmentFor)
	g.GET("/:id/risk-score", h.RiskScoreFor)
}

func (h *ApplicationHandler) List(c *gin.Context) {
	apps, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, apps)
}

func (h *ApplicationHandler) Get(c *gin.Context) {
	app, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, app)
}

func (h *ApplicationHandler) Create(c *gin.Context) {
	body, ok := readBody(c, h.logger)
	if !ok {
		return
	}
	app, err := h.service.Create(c.Request.Context(), body)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondCreated(c, app)
}

func (h *ApplicationHandler) Update(c *gin.Context) {
	body, ok := readBody(c, h.logger)
	if !ok {
		return
	}
	app, err := h.service.Update(c.Request.Context(), c.Param("id"), body)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, app)
}

func (h *ApplicationHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondMessage(c, nil, "Application deleted successfully")
}

func (h *ApplicationHandler) CalculateAssignment(c *gin.Context) {
	body, ok := readBody(c, h.logger)
	if !ok {
		return
	}
	offers, err := h.service.CalculateAssignment(c.Request.Context(), body)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, offers)
}

func (h *ApplicationHandler) CalculateAssignmentFor(c *gin.Context) {
	offers, err := h.service.CalculateAssignmentFor(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, offers)
}

func (h *ApplicationHandler) RiskScore(c *gin.Context) {
	body, ok := readBody(c, h.logger)
	if !ok {
		return
	}
	risk, err := h.service.RiskScore(c.Request.Context(), body)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, risk)
}

func (h *ApplicationHandler) RiskScoreFor(c *gin.Context) {
	risk, err := h.service.RiskScoreFor(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, risk)
}

func (h *ApplicationHandler) Search(c *gin.Context) {
	apps, err := h.service.Search(c.Request.Context(), c.Query("q"), models.Status(c.Query("status")))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, apps)
}

// readBody reads the raw request body. An oversized body is a client error.
func readBody(c *gin.Context, log logger.Logger) ([]byte, bool) {
	body, err := c.GetRawData()
	if err != nil {
		respondError(c, log, errors.NewInvalidRequestError("request body could not be read: "+err.Error()))
		return nil, false
	}
	return body, true
}
