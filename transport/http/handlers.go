package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/layer-3/mintpass/core"
	"github.com/layer-3/mintpass/service"
)

// ChallengeHandlers contains HTTP handlers for challenge endpoints
type ChallengeHandlers struct {
	challengeService *service.ChallengeService
	logger           *zap.Logger
}

// NewChallengeHandlers creates new challenge handlers
func NewChallengeHandlers(challengeService *service.ChallengeService, logger *zap.Logger) *ChallengeHandlers {
	return &ChallengeHandlers{
		challengeService: challengeService,
		logger:           logger,
	}
}

// Descriptor returns the challenge type, description and option inputs
func (h *ChallengeHandlers) Descriptor(c *gin.Context) {
	c.JSON(http.StatusOK, core.Descriptor())
}

// Verify evaluates a challenge request against a community's options
func (h *ChallengeHandlers) Verify(c *gin.Context) {
	var req struct {
		Options map[string]string     `json:"options"`
		Request core.ChallengeRequest `json:"request"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	cfg, err := core.ParseOptions(req.Options)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "fatal": true})
		return
	}

	verdict, err := h.challengeService.Verify(c.Request.Context(), cfg, req.Request)
	if err != nil {
		if errors.Is(err, core.ErrInvalidConfig) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "fatal": true})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to evaluate challenge"})
		return
	}

	c.JSON(http.StatusOK, verdict)
}

// VerifyReceipt checks a receipt issued with an accepted verdict
func (h *ChallengeHandlers) VerifyReceipt(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	receipt, err := h.challengeService.VerifyReceipt(req.Token)
	if err != nil {
		h.logger.Debug("receipt rejected", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid receipt"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":             true,
		"id":                receipt.ID,
		"authorAddress":     receipt.AuthorAddress,
		"subplebbitAddress": receipt.SubplebbitAddress,
		"chainTicker":       receipt.ChainTicker,
		"contractAddress":   receipt.ContractAddress,
		"tokenId":           receipt.TokenID,
		"path":              receipt.Path,
		"issuedAt":          receipt.IssuedAt.UTC().Format(time.RFC3339),
		"expiresAt":         receipt.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// Health reports that the process is serving
func (h *ChallengeHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
