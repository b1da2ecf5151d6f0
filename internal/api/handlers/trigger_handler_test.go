package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/darkruden/mock-interview-ai/internal/workers"
	"github.com/darkruden/mock-interview-ai/internal/workflow"
)

type starterMock struct {
	mu      sync.Mutex
	started []string
	inputs  []workers.ProcessInput
	errFor  map[string]error
}

func (s *starterMock) StartExecution(_ context.Context, name string, in workers.ProcessInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.errFor[name]; ok {
		return err
	}
	s.started = append(s.started, name)
	s.inputs = append(s.inputs, in)
	return nil
}

func newTriggerRouter(starter *starterMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)
	r := gin.New()
	r.POST("/events/storage", NewTriggerHandler(starter, log).HandleStorageEvent)
	return r
}

func postEvent(t *testing.T, r *gin.Engine, body string) (*httptest.ResponseRecorder, TriggerSummary) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/events/storage", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	var sum TriggerSummary
	if w.Code != http.StatusBadRequest {
		if err := json.Unmarshal(w.Body.Bytes(), &sum); err != nil {
			t.Fatalf("summary body %q: %v", w.Body.String(), err)
		}
	}
	return w, sum
}

func storageRecord(bucket, key string) string {
	return `{"bucket": {"name": "` + bucket + `"}, "object": {"key": "` + key + `"}}`
}

func TestHandleStorageEventStartsExecution(t *testing.T) {
	starter := &starterMock{}
	r := newTriggerRouter(starter)

	w, sum := postEvent(t, r, `{"records": [`+storageRecord("interview-audio", "uploads/abc-123/audio.mp3")+`]}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if sum.Started != 1 || sum.Duplicates != 0 || sum.Skipped != 0 || sum.Failed != 0 {
		t.Fatalf("summary = %+v", sum)
	}
	if len(starter.started) != 1 || starter.started[0] != "analysis-abc-123" {
		t.Fatalf("started = %v, want [analysis-abc-123]", starter.started)
	}
	want := workers.ProcessInput{SessionID: "abc-123", Bucket: "interview-audio", Key: "uploads/abc-123/audio.mp3"}
	if starter.inputs[0] != want {
		t.Fatalf("input = %+v, want %+v", starter.inputs[0], want)
	}
}

func TestHandleStorageEventDecodesKey(t *testing.T) {
	starter := &starterMock{}
	r := newTriggerRouter(starter)

	_, sum := postEvent(t, r, `{"records": [`+storageRecord("interview-audio", "uploads%2Fabc-123%2Faudio.mp3")+`]}`)

	if sum.Started != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if starter.inputs[0].Key != "uploads/abc-123/audio.mp3" {
		t.Fatalf("key = %q, want the decoded form", starter.inputs[0].Key)
	}
}

func TestHandleStorageEventDuplicateIsSuccess(t *testing.T) {
	starter := &starterMock{errFor: map[string]error{
		"analysis-abc-123": workflow.ErrExecutionAlreadyExists,
	}}
	r := newTriggerRouter(starter)

	w, sum := postEvent(t, r, `{"records": [`+storageRecord("interview-audio", "uploads/abc-123/audio.mp3")+`]}`)

	if w.Code != http.StatusOK {
		t.Fatalf("a duplicate delivery must report success, got %d", w.Code)
	}
	if sum.Duplicates != 1 || sum.Started != 0 || sum.Failed != 0 {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestHandleStorageEventSkipsMalformedKeys(t *testing.T) {
	starter := &starterMock{}
	r := newTriggerRouter(starter)

	body := `{"records": [` + strings.Join([]string{
		storageRecord("interview-audio", "audio.mp3"),
		storageRecord("interview-audio", "uploads//audio.mp3"),
		storageRecord("interview-audio", "uploads/abc-123/audio.mp3"),
	}, ",") + `]}`
	w, sum := postEvent(t, r, body)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if sum.Skipped != 2 || sum.Started != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if len(starter.started) != 1 || starter.started[0] != "analysis-abc-123" {
		t.Fatalf("started = %v", starter.started)
	}
}

func TestHandleStorageEventFailureDoesNotBlockSiblings(t *testing.T) {
	starter := &starterMock{errFor: map[string]error{
		"analysis-poison": errors.New("redis down"),
	}}
	r := newTriggerRouter(starter)

	body := `{"records": [` + strings.Join([]string{
		storageRecord("interview-audio", "uploads/poison/audio.mp3"),
		storageRecord("interview-audio", "uploads/abc-123/audio.mp3"),
	}, ",") + `]}`
	w, sum := postEvent(t, r, body)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("a batch with failures must report non-2xx, got %d", w.Code)
	}
	if sum.Failed != 1 || sum.Started != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if len(starter.started) != 1 || starter.started[0] != "analysis-abc-123" {
		t.Fatalf("the sibling record must still start, got %v", starter.started)
	}
}

func TestHandleStorageEventRejectsInvalidBody(t *testing.T) {
	starter := &starterMock{}
	r := newTriggerRouter(starter)

	w, _ := postEvent(t, r, `not json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if len(starter.started) != 0 {
		t.Fatal("no execution may start from an unparseable body")
	}
}

func TestSessionIDFromKey(t *testing.T) {
	cases := []struct {
		key string
		id  string
		ok  bool
	}{
		{"uploads/abc-123/audio.mp3", "abc-123", true},
		{"uploads/abc-123", "abc-123", true},
		{"uploads/", "", false},
		{"uploads//audio.mp3", "", false},
		{"audio.mp3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		id, ok := sessionIDFromKey(tc.key)
		if id != tc.id || ok != tc.ok {
			t.Errorf("sessionIDFromKey(%q) = (%q, %v), want (%q, %v)", tc.key, id, ok, tc.id, tc.ok)
		}
	}
}
