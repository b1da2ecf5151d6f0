package handlers

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/darkruden/mock-interview-ai/internal/utils"
)

// TokenHandler hands the client a credential for opening a direct
// bidirectional streaming session with the AI provider.
type TokenHandler struct{}

func NewTokenHandler() *TokenHandler {
	return &TokenHandler{}
}

type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Get proxies the provider credential from the environment.
// TODO: exchange for a provider-issued ephemeral token instead of
// proxying the long-lived API key.
func (h *TokenHandler) Get(c *gin.Context) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		writeError(c, utils.E(utils.CodeInternal, "TokenHandler.Get", "provider credential is not configured", nil))
		return
	}

	c.JSON(http.StatusOK, TokenResponse{
		Token:     apiKey,
		ExpiresAt: time.Now().UTC().Add(30 * time.Minute),
	})
}
