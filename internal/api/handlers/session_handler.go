package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/darkruden/mock-interview-ai/internal/services"
	"github.com/darkruden/mock-interview-ai/internal/utils"
)

type SessionHandler struct {
	svc services.SessionService
}

func NewSessionHandler(svc services.SessionService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

type InitiateRequest struct {
	CandidateName  string `json:"candidate_name"`
	QuestionID     string `json:"question_id"`
	JobDescription string `json:"job_description"`
}

type InitiateResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	UploadURL string `json:"upload_url"`
}

// Initiate creates a PENDING_UPLOAD session and hands the client a signed
// PUT URL for direct upload to the audio bucket. An empty body is valid:
// every field has a default.
func (h *SessionHandler) Initiate(c *gin.Context) {
	var req InitiateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, utils.E(utils.CodeInvalidArgument, "SessionHandler.Initiate", "invalid request body", err))
			return
		}
	}

	out, err := h.svc.Initiate(c.Request.Context(), services.InitiateInput{
		CandidateName:  req.CandidateName,
		QuestionID:     req.QuestionID,
		JobDescription: req.JobDescription,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, InitiateResponse{
		Message:   "Session initiated",
		SessionID: out.SessionID,
		UploadURL: out.UploadURL,
	})
}

// Get returns the session record as stored: PROCESSING means poll again,
// COMPLETED carries ai_feedback, ERROR carries error_message.
func (h *SessionHandler) Get(c *gin.Context) {
	sess, err := h.svc.Get(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}
