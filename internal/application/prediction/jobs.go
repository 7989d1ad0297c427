package prediction

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/MolProp-Intelligence/internal/infrastructure/monitoring/logging"
	prom "github.com/turtacn/MolProp-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MolProp-Intelligence/pkg/errors"
	"github.com/turtacn/MolProp-Intelligence/pkg/types/common"
	ptypes "github.com/turtacn/MolProp-Intelligence/pkg/types/prediction"
)

// ResultPublisher sends a JSON-encoded value to topic under key.
type ResultPublisher interface {
	PublishJSON(ctx context.Context, topic, key string, v interface{}) error
}

// JobProcessor turns batch jobs into published results.
type JobProcessor struct {
	svc          Service
	publisher    ResultPublisher
	resultsTopic string
	metrics      *prom.AppMetrics
	logger       logging.Logger
}

// NewJobProcessor wires a processor. metrics and logger may be nil.
func NewJobProcessor(svc Service, pub ResultPublisher, resultsTopic string, metrics *prom.AppMetrics, logger logging.Logger) *JobProcessor {
	if metrics == nil {
		metrics = prom.NewNopAppMetrics()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &JobProcessor{svc: svc, publisher: pub, resultsTopic: resultsTopic, metrics: metrics, logger: logger}
}

// DecodeJob parses a job payload. A missing job ID is generated.
func DecodeJob(payload []byte) (*ptypes.PredictionJob, error) {
	var job ptypes.PredictionJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "decode prediction job")
	}
	if strings.TrimSpace(job.JobID) == "" {
		job.JobID = uuid.NewString()
	}
	return &job, nil
}

// Handle processes one job payload. Malformed payloads and oversized
// batches are answered with an error result rather than returned, so they
// are not retried. Only a failure to publish is returned.
func (p *JobProcessor) Handle(ctx context.Context, payload []byte) error {
	start := time.Now()
	result := ptypes.PredictionJobResult{Results: []ptypes.PredictionResponse{}}

	job, err := DecodeJob(payload)
	if err != nil {
		result.JobID = uuid.NewString()
		result.Error = err.Error()
		return p.publish(ctx, result, "invalid", start)
	}
	result.JobID = job.JobID

	items, err := p.svc.PredictBatch(ctx, job.SMILES)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		result.Error = ErrorMessage(err)
		return p.publish(ctx, result, "rejected", start)
	}
	result.Results = ToBatchResponse(items).Results
	return p.publish(ctx, result, "success", start)
}

func (p *JobProcessor) publish(ctx context.Context, result ptypes.PredictionJobResult, outcome string, start time.Time) error {
	result.CompletedAt = common.NewTimestamp()
	if err := p.publisher.PublishJSON(ctx, p.resultsTopic, result.JobID, result); err != nil {
		p.metrics.JobsProcessedTotal.WithLabelValues("publish_failed").Inc()
		return err
	}
	p.metrics.JobsProcessedTotal.WithLabelValues(outcome).Inc()
	p.logger.Info("prediction job completed",
		logging.String("job_id", result.JobID),
		logging.String("outcome", outcome),
		logging.Int("items", len(result.Results)),
		logging.Duration("elapsed", time.Since(start)))
	return nil
}

//Personal.AI order the ending
