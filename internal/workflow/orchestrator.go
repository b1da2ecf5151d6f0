package workflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/darkruden/mock-interview-ai/internal/utils"
	"github.com/darkruden/mock-interview-ai/internal/workers"
)

// ErrExecutionAlreadyExists signals a duplicate start for an execution
// name that is already claimed. Callers treat it as success.
var ErrExecutionAlreadyExists = errors.New("execution already exists")

// Worker runs one execution's pipeline.
type Worker interface {
	Process(ctx context.Context, in workers.ProcessInput) (*workers.ProcessResult, error)
}

// FailureRecorder marks a session terminally failed once retries are
// exhausted. Satisfied by services.SessionService.
type FailureRecorder interface {
	Fail(ctx context.Context, sessionID, errorMessage string) error
}

// Orchestrator is the workflow engine: it deduplicates execution starts
// by name, fans executions out to a pool of consumers, and applies the
// bounded retry policy for retryable worker failures. Retry exhaustion is
// the only point in the system that converts a transient failure into a
// terminal ERROR record.
type Orchestrator struct {
	Broker   Broker
	Worker   Worker
	Recorder FailureRecorder
	Logger   *logrus.Logger

	NumWorkers     int
	MaxAttempts    int
	Backoff        time.Duration
	ClaimTTL       time.Duration
	ConsumerPrefix string
}

// StartExecution claims the name and enqueues the first attempt. Starting
// a name already in flight returns ErrExecutionAlreadyExists and has no
// other effect.
func (o *Orchestrator) StartExecution(ctx context.Context, name string, in workers.ProcessInput) error {
	claimed, err := o.Broker.ClaimExecution(ctx, name, o.claimTTL())
	if err != nil {
		return fmt.Errorf("claim execution %s: %w", name, err)
	}
	if !claimed {
		return ErrExecutionAlreadyExists
	}
	return o.Broker.Enqueue(ctx, Execution{Name: name, Attempt: 1, Input: in})
}

// Start launches the consumer pool and returns; consumers run until ctx
// is canceled.
func (o *Orchestrator) Start(ctx context.Context) error {
	if o.Broker == nil || o.Worker == nil {
		return errors.New("Orchestrator missing dependency: Broker and Worker must be set")
	}
	if o.NumWorkers <= 0 {
		o.NumWorkers = 5
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.Backoff <= 0 {
		o.Backoff = 5 * time.Second
	}
	if o.ConsumerPrefix == "" {
		o.ConsumerPrefix = "c"
	}
	if o.Logger == nil {
		o.Logger = logrus.New()
	}

	for i := 0; i < o.NumWorkers; i++ {
		consumer := o.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go o.Broker.Consume(ctx, consumer, o.handle)
	}
	return nil
}

func (o *Orchestrator) handle(ctx context.Context, ex Execution) {
	log := o.Logger.WithFields(logrus.Fields{
		"execution":  ex.Name,
		"session_id": ex.Input.SessionID,
		"attempt":    ex.Attempt,
	})

	res, err := o.Worker.Process(ctx, ex.Input)
	if err == nil {
		log.WithField("status", res.Status).Info("execution finished")
		return
	}

	if !utils.Retryable(err) {
		// Contract violation: retrying the same payload cannot succeed.
		log.WithError(err).Error("execution failed with non-retryable error, dropping")
		return
	}

	if ex.Attempt >= o.maxAttempts() {
		log.WithError(err).Error("execution failed, retries exhausted")
		if o.Recorder != nil && ex.Input.SessionID != "" {
			msg := fmt.Sprintf("processing failed after %d attempts: %v", ex.Attempt, err)
			if rerr := o.Recorder.Fail(ctx, ex.Input.SessionID, msg); rerr != nil {
				log.WithError(rerr).Error("failed to record terminal error state")
			}
		}
		return
	}

	log.WithError(err).Warn("execution failed, scheduling retry")
	select {
	case <-ctx.Done():
		return
	case <-time.After(o.Backoff * time.Duration(ex.Attempt)):
	}

	ex.Attempt++
	if qerr := o.Broker.Enqueue(ctx, ex); qerr != nil {
		log.WithError(qerr).Error("failed to re-enqueue execution")
	}
}

func (o *Orchestrator) maxAttempts() int {
	if o.MaxAttempts <= 0 {
		return 3
	}
	return o.MaxAttempts
}

func (o *Orchestrator) claimTTL() time.Duration {
	if o.ClaimTTL <= 0 {
		return 24 * time.Hour
	}
	return o.ClaimTTL
}
