package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/automation"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/utils"
)

// navigateTimeout bounds page loads started from a request
const navigateTimeout = 30 * time.Second

// CreateAutomationSession creates or reuses the page bound to :id,
// optionally setting its goal and pointing it at a url
func (h *Handlers) CreateAutomationSession(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Goal string `json:"goal"`
		URL  string `json:"url"`
	}
	if c.Request.ContentLength != 0 && !bind(c, &req) {
		return
	}
	goal, err := utils.SanitizeText(req.Goal)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.URL != "" {
		if err := validateURL(req.URL); err != nil {
			respondError(c, http.StatusBadRequest, err)
			return
		}
	}

	session, err := h.pool.CreateOrReuse(c.Request.Context(), id)
	if err != nil {
		respondAutomationError(c, err)
		return
	}
	if goal != "" {
		if err := h.pool.SetGoal(id, goal); err != nil {
			respondAutomationError(c, err)
			return
		}
	}
	if req.URL != "" {
		ctx, cancel := context.WithTimeout(c.Request.Context(), navigateTimeout)
		defer cancel()
		if err := session.Navigate(ctx, req.URL); err != nil {
			h.logger.Warn("Automation navigation failed",
				zap.String("session", id),
				zap.String("url", req.URL),
				zap.Error(err),
			)
			respondError(c, http.StatusBadGateway, err)
			return
		}
	}

	current, _ := h.pool.Goal(id)
	c.JSON(http.StatusOK, gin.H{
		"id":          session.ID,
		"goal":        current,
		"last_active": session.LastActive(),
	})
}

// EvaluateAutomation runs a script in an existing session's page. Scripts
// are code, so they are size-checked but not sanitized.
func (h *Handlers) EvaluateAutomation(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Script string `json:"script" binding:"required"`
	}
	if !bind(c, &req) {
		return
	}
	if len(req.Script) > utils.MaxScriptSize {
		respondError(c, http.StatusBadRequest, fmt.Errorf("script exceeds maximum size of %d bytes", utils.MaxScriptSize))
		return
	}

	session, found := h.pool.Lookup(id)
	if !found {
		respondError(c, http.StatusNotFound, automation.ErrSessionNotFound)
		return
	}
	result, err := session.Evaluate(c.Request.Context(), req.Script)
	if err != nil {
		if errors.Is(err, automation.ErrPageClosed) {
			respondError(c, http.StatusGone, err)
			return
		}
		respondError(c, http.StatusUnprocessableEntity, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CloseAutomationSession closes :id's page. Unknown ids are a no-op.
func (h *Handlers) CloseAutomationSession(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.pool.Close(id); err != nil {
		respondAutomationError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func respondAutomationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, automation.ErrPoolClosed):
		respondError(c, http.StatusServiceUnavailable, err)
	case errors.Is(err, automation.ErrSessionNotFound):
		respondError(c, http.StatusNotFound, err)
	default:
		respondError(c, http.StatusBadGateway, err)
	}
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("url must include a host")
	}
	return nil
}
