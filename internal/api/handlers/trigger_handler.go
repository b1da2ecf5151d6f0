package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/darkruden/mock-interview-ai/internal/utils"
	"github.com/darkruden/mock-interview-ai/internal/workers"
	"github.com/darkruden/mock-interview-ai/internal/workflow"
)

// ExecutionStarter is the orchestrator surface the trigger needs.
type ExecutionStarter interface {
	StartExecution(ctx context.Context, name string, in workers.ProcessInput) error
}

// TriggerHandler converts object-store "object created" notifications into
// workflow executions — exactly one per session, however many times the
// storage layer redelivers the event.
type TriggerHandler struct {
	starter ExecutionStarter
	logger  *logrus.Logger
}

func NewTriggerHandler(starter ExecutionStarter, logger *logrus.Logger) *TriggerHandler {
	return &TriggerHandler{starter: starter, logger: logger}
}

type StorageEvent struct {
	Records []StorageRecord `json:"records"`
}

type StorageRecord struct {
	Bucket struct {
		Name string `json:"name"`
	} `json:"bucket"`
	Object struct {
		Key string `json:"key"`
	} `json:"object"`
}

type TriggerSummary struct {
	Started    int `json:"started"`
	Duplicates int `json:"duplicates"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

// HandleStorageEvent processes the batch record by record. Malformed keys
// and duplicate deliveries are logged and skipped; a record whose
// execution cannot be started is counted as failed without blocking its
// siblings, and the batch reports non-2xx so the notification layer knows
// — but redelivery of the whole batch is safe, because started executions
// are deduplicated by name.
func (h *TriggerHandler) HandleStorageEvent(c *gin.Context) {
	var event StorageEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "TriggerHandler.HandleStorageEvent", "invalid event body", err))
		return
	}

	var sum TriggerSummary
	for _, record := range event.Records {
		key := record.Object.Key
		if decoded, err := url.QueryUnescape(key); err == nil {
			key = decoded
		}

		sessionID, ok := sessionIDFromKey(key)
		if !ok {
			h.logger.WithField("key", key).Info("ignoring object outside the upload key pattern")
			sum.Skipped++
			continue
		}

		in := workers.ProcessInput{
			SessionID: sessionID,
			Bucket:    record.Bucket.Name,
			Key:       key,
		}

		err := h.starter.StartExecution(c.Request.Context(), "analysis-"+sessionID, in)
		switch {
		case err == nil:
			h.logger.WithField("session_id", sessionID).Info("started execution")
			sum.Started++
		case errors.Is(err, workflow.ErrExecutionAlreadyExists):
			h.logger.WithField("session_id", sessionID).Info("execution already exists")
			sum.Duplicates++
		default:
			h.logger.WithError(err).WithField("session_id", sessionID).Error("failed to start execution")
			sum.Failed++
		}
	}

	status := http.StatusOK
	if sum.Failed > 0 {
		status = http.StatusInternalServerError
	}
	c.JSON(status, sum)
}

// sessionIDFromKey extracts the second path segment of an object key
// shaped uploads/{session_id}/{filename}. Keys with fewer than two
// segments carry no session and are skipped.
func sessionIDFromKey(key string) (string, bool) {
	parts := strings.Split(key, "/")
	if len(parts) < 2 || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
