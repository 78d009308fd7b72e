package http

import (
	"errors"
	"net/http"
	"path"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/manager"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/utils"
)

var (
	errProcessNotFound = errors.New("process not found")
	errNoAssociation   = errors.New("no application can open this file")
	errEmptyGeometry   = errors.New("geometry update needs a position or a size")
)

// ListProcesses returns the rendered view of every process, topmost first
func (h *Handlers) ListProcesses(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"processes":   h.manager.Views(types.Viewport{}),
		"stack_order": h.manager.StackOrder(),
		"foreground":  h.manager.ForegroundID(),
		"ready":       h.manager.Ready(),
	})
}

// OpenProcess handles POST /processes
func (h *Handlers) OpenProcess(c *gin.Context) {
	var req struct {
		Type      string          `json:"type" binding:"required"`
		Arguments types.Arguments `json:"arguments"`
		Icon      string          `json:"icon"`
	}
	if !bind(c, &req) {
		return
	}
	if err := utils.ValidateID(req.Type, "type"); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	args, err := utils.SanitizeArguments(req.Arguments)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	icon, err := utils.SanitizeText(req.Icon)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	h.respondOpen(c, h.manager.Open(req.Type, args, icon))
}

// OpenFile handles POST /processes/open-file: the file's name and leading
// bytes pick the application, which is opened with the path as its url
func (h *Handlers) OpenFile(c *gin.Context) {
	var req struct {
		Path string `json:"path" binding:"required"`
		Head []byte `json:"head"` // base64 in JSON
	}
	if !bind(c, &req) {
		return
	}
	filePath, err := utils.SanitizeText(req.Path)
	if err == nil && filePath == "" {
		err = errEmpty("path")
	}
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	appType, ok := h.directory.Associate(path.Base(filePath), req.Head)
	if !ok {
		respondError(c, http.StatusUnprocessableEntity, errNoAssociation)
		return
	}
	h.logger.Debug("Opening file", zap.String("path", filePath), zap.String("type", appType))
	h.respondOpen(c, h.manager.Open(appType, types.Arguments{"url": filePath}, ""))
}

func (h *Handlers) respondOpen(c *gin.Context, result manager.OpenResult) {
	switch result.Status {
	case manager.StatusRejected:
		respondError(c, http.StatusNotFound, result.Err)
	case manager.StatusQueued:
		c.JSON(http.StatusAccepted, result)
	case manager.StatusOpened:
		c.JSON(http.StatusCreated, gin.H{
			"id":      result.ID,
			"status":  result.Status,
			"process": h.view(result.ID),
		})
	default:
		c.JSON(http.StatusOK, gin.H{
			"id":      result.ID,
			"status":  result.Status,
			"process": h.view(result.ID),
		})
	}
}

// CloseProcess handles DELETE /processes/:id. restore_internal=true keeps
// the persisted record so the process comes back on reload.
func (h *Handlers) CloseProcess(c *gin.Context) {
	id, ok := h.existing(c)
	if !ok {
		return
	}
	restoreInternal, _ := strconv.ParseBool(c.DefaultQuery("restore_internal", "false"))

	h.manager.Close(id, restoreInternal)
	c.Status(http.StatusNoContent)
}

// FocusProcess brings a process to the front
func (h *Handlers) FocusProcess(c *gin.Context) {
	h.lifecycle(c, h.manager.Focus)
}

// MinimizeProcess toggles the minimized flag
func (h *Handlers) MinimizeProcess(c *gin.Context) {
	h.lifecycle(c, h.manager.Minimize)
}

// MaximizeProcess toggles the maximized flag
func (h *Handlers) MaximizeProcess(c *gin.Context) {
	h.lifecycle(c, h.manager.Maximize)
}

func (h *Handlers) lifecycle(c *gin.Context, op func(id string)) {
	id, ok := h.existing(c)
	if !ok {
		return
	}
	op(id)
	c.JSON(http.StatusOK, gin.H{"process": h.view(id)})
}

// SetArguments merges launch arguments into a running process
func (h *Handlers) SetArguments(c *gin.Context) {
	id, ok := h.existing(c)
	if !ok {
		return
	}
	var req struct {
		Arguments types.Arguments `json:"arguments" binding:"required"`
	}
	if !bind(c, &req) {
		return
	}
	args, err := utils.SanitizeArguments(req.Arguments)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	for key, value := range args {
		h.manager.SetArgument(id, key, value)
	}
	p, _ := h.manager.Get(id)
	c.JSON(http.StatusOK, gin.H{"id": id, "arguments": p.Arguments})
}

// SetGeometry records a drag-stop or resize-stop
func (h *Handlers) SetGeometry(c *gin.Context) {
	id, ok := h.existing(c)
	if !ok {
		return
	}
	var req types.WindowState
	if !bind(c, &req) {
		return
	}
	if !h.manager.SetGeometry(id, req.Position, req.Size) {
		respondError(c, http.StatusBadRequest, errEmptyGeometry)
		return
	}
	c.JSON(http.StatusOK, gin.H{"process": h.view(id)})
}

// existing validates :id and answers 404 when no such process is open
func (h *Handlers) existing(c *gin.Context) (string, bool) {
	id, ok := pathID(c)
	if !ok {
		return "", false
	}
	if _, found := h.manager.Get(id); !found {
		respondError(c, http.StatusNotFound, errProcessNotFound)
		return "", false
	}
	return id, true
}

// view returns the rendered view of one process
func (h *Handlers) view(id string) *types.ProcessView {
	for _, v := range h.manager.Views(types.Viewport{}) {
		if v.ID == id {
			return &v
		}
	}
	return nil
}
