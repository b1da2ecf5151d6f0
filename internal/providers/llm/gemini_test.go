package llm

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"google.golang.org/genai"

	"github.com/darkruden/mock-interview-ai/internal/utils"
)

type fileServiceMock struct {
	uploadState genai.FileState
	uploadErr   error

	states   []genai.FileState
	getErr   error
	getCalls int

	deleted []string
}

func (m *fileServiceMock) Upload(_ context.Context, _ io.Reader, config *genai.UploadFileConfig) (*genai.File, error) {
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	return &genai.File{
		Name:     "files/test-audio",
		URI:      "https://files.example.com/test-audio",
		MIMEType: config.MIMEType,
		State:    m.uploadState,
	}, nil
}

func (m *fileServiceMock) Get(_ context.Context, name string, _ *genai.GetFileConfig) (*genai.File, error) {
	m.getCalls++
	if m.getErr != nil {
		return nil, m.getErr
	}
	state := m.states[len(m.states)-1]
	if m.getCalls <= len(m.states) {
		state = m.states[m.getCalls-1]
	}
	return &genai.File{Name: name, URI: "https://files.example.com/test-audio", State: state}, nil
}

func (m *fileServiceMock) Delete(_ context.Context, name string, _ *genai.DeleteFileConfig) (*genai.DeleteFileResponse, error) {
	m.deleted = append(m.deleted, name)
	return &genai.DeleteFileResponse{}, nil
}

func newTestGemini(files fileService) *Gemini {
	return &Gemini{
		files:        files,
		model:        "gemini-2.5-flash",
		pollInterval: time.Millisecond,
		maxPolls:     3,
	}
}

func TestUploadAndWaitReadyAfterPolling(t *testing.T) {
	files := &fileServiceMock{
		uploadState: genai.FileStateProcessing,
		states:      []genai.FileState{genai.FileStateProcessing, genai.FileStateActive},
	}
	g := newTestGemini(files)

	file, err := g.uploadAndWait(context.Background(), []byte("audio"), "audio/mp3")
	if err != nil {
		t.Fatalf("uploadAndWait: %v", err)
	}
	if file.State != genai.FileStateActive {
		t.Fatalf("returned file state = %v, want ACTIVE", file.State)
	}
	if files.getCalls != 2 {
		t.Errorf("polled %d times, want 2", files.getCalls)
	}
}

func TestUploadAndWaitImmediatelyActive(t *testing.T) {
	files := &fileServiceMock{uploadState: genai.FileStateActive}
	g := newTestGemini(files)

	if _, err := g.uploadAndWait(context.Background(), []byte("audio"), "audio/mp3"); err != nil {
		t.Fatalf("uploadAndWait: %v", err)
	}
	if files.getCalls != 0 {
		t.Errorf("polled %d times for an already-active file, want 0", files.getCalls)
	}
}

func TestUploadAndWaitBoundedExhaustion(t *testing.T) {
	files := &fileServiceMock{
		uploadState: genai.FileStateProcessing,
		states:      []genai.FileState{genai.FileStateProcessing},
	}
	g := newTestGemini(files)

	_, err := g.uploadAndWait(context.Background(), []byte("audio"), "audio/mp3")
	if !utils.IsCode(err, utils.CodeTimeout) {
		t.Fatalf("never-ready file: got %v, want TIMEOUT", err)
	}
	if files.getCalls != g.maxPolls {
		t.Errorf("polled %d times, want the hard cap of %d", files.getCalls, g.maxPolls)
	}
}

func TestUploadAndWaitFailedStateIsFatal(t *testing.T) {
	files := &fileServiceMock{uploadState: genai.FileStateFailed}
	g := newTestGemini(files)

	_, err := g.uploadAndWait(context.Background(), []byte("audio"), "audio/mp3")
	if !utils.IsCode(err, utils.CodeUnavailable) {
		t.Fatalf("failed file: got %v, want UNAVAILABLE", err)
	}
	if files.getCalls != 0 {
		t.Errorf("polled %d times after a FAILED state, want 0", files.getCalls)
	}
}

func TestUploadAndWaitFailedStateMidPoll(t *testing.T) {
	files := &fileServiceMock{
		uploadState: genai.FileStateProcessing,
		states:      []genai.FileState{genai.FileStateFailed},
	}
	g := newTestGemini(files)

	_, err := g.uploadAndWait(context.Background(), []byte("audio"), "audio/mp3")
	if !utils.IsCode(err, utils.CodeUnavailable) {
		t.Fatalf("failed file mid-poll: got %v, want UNAVAILABLE", err)
	}
	if files.getCalls != 1 {
		t.Errorf("polled %d times, want 1", files.getCalls)
	}
}

func TestUploadAndWaitContextCancellation(t *testing.T) {
	files := &fileServiceMock{
		uploadState: genai.FileStateProcessing,
		states:      []genai.FileState{genai.FileStateProcessing},
	}
	g := newTestGemini(files)
	g.pollInterval = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() {
		_, err := g.uploadAndWait(ctx, []byte("audio"), "audio/mp3")
		done <- err
	}()

	select {
	case err := <-done:
		if !utils.IsCode(err, utils.CodeTimeout) {
			t.Fatalf("canceled wait: got %v, want TIMEOUT", err)
		}
		if !errors.Is(err, context.Canceled) {
			t.Errorf("canceled wait must wrap the context error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("uploadAndWait must return promptly once the context is canceled")
	}
}

func TestUploadAndWaitUploadError(t *testing.T) {
	files := &fileServiceMock{uploadErr: errors.New("quota exceeded")}
	g := newTestGemini(files)

	_, err := g.uploadAndWait(context.Background(), []byte("audio"), "audio/mp3")
	if !utils.IsCode(err, utils.CodeUnavailable) {
		t.Fatalf("upload failure: got %v, want UNAVAILABLE", err)
	}
}

func TestUploadAndWaitPollError(t *testing.T) {
	files := &fileServiceMock{
		uploadState: genai.FileStateProcessing,
		getErr:      errors.New("connection reset"),
	}
	g := newTestGemini(files)

	_, err := g.uploadAndWait(context.Background(), []byte("audio"), "audio/mp3")
	if !utils.IsCode(err, utils.CodeUnavailable) {
		t.Fatalf("poll failure: got %v, want UNAVAILABLE", err)
	}
}
