// internal/workers/lending/calculate-lender-assignment/handler.go
package calculatelenderassignment

import (
	"context"
	"encoding/json"
	"time"

	"msme-lender-platform/internal/common/camunda"
	"msme-lender-platform/internal/common/errors"
	"msme-lender-platform/internal/common/logger"
	"msme-lender-platform/internal/common/metrics"
	"msme-lender-platform/internal/common/validation"
	"msme-lender-platform/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "calculate-lender-assignment"
)

// Service is the part of the application service this worker needs.
type Service interface {
	CalculateAssignment(ctx context.Context, body []byte) ([]models.Offer, error)
	CalculateAssignmentFor(ctx context.Context, id string) ([]models.Offer, error)
}

type Handler struct {
	config       *Config
	service      Service
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, service Service, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		service:      service,
		errorHandler: errors.NewErrorHandler(l),
		logger:       l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	timeout := h.config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	input, err := ParseInput(job.Variables)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.completeJob(ctx, client, job, output)
}

// ParseInput validates the job variables against the input schema.
func ParseInput(variables string) (*Input, error) {
	res, err := validation.ValidateJSON(validation.SchemaCalculateLenderAssignment, []byte(variables))
	if err != nil {
		return nil, errors.NewInvalidRequestError(err.Error())
	}
	if !res.Valid {
		return nil, errors.NewInvalidRequestError(res.Summary())
	}
	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, errors.NewInvalidRequestError(err.Error())
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	var (
		offers []models.Offer
		err    error
	)
	if input.ApplicationID != "" {
		offers, err = h.service.CalculateAssignmentFor(ctx, input.ApplicationID)
	} else {
		offers, err = h.service.CalculateAssignment(ctx, input.Application)
	}
	if err != nil {
		return nil, err
	}

	out := &Output{
		ApplicationID: input.ApplicationID,
		Offers:        offers,
		OfferCount:    len(offers),
	}
	if len(offers) > 0 {
		top := offers[0]
		out.TopOffer = &top
	}

	h.logger.Info("lender assignment calculated", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"offerCount":    out.OfferCount,
	})
	return out, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	err = camunda.SendWithRetry(ctx, h.config.Retry, "complete job", func(ctx context.Context) error {
		_, err := cmd.Send(ctx)
		return err
	})
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
