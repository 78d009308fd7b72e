package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/automation"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/directory"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/manager"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/session"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/utils"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	manager   *manager.Manager
	session   *session.Store
	directory *directory.Directory
	pool      *automation.Pool
	logger    *zap.Logger
	started   time.Time
}

// NewHandlers creates a new handler set
func NewHandlers(
	mgr *manager.Manager,
	store *session.Store,
	dir *directory.Directory,
	pool *automation.Pool,
	logger *zap.Logger,
) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		manager:   mgr,
		session:   store,
		directory: dir,
		pool:      pool,
		logger:    logger,
		started:   time.Now(),
	}
}

// Register mounts every route on r
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	// Session
	r.GET("/session", h.GetSession)
	r.PUT("/session/theme", h.SetTheme)
	r.PUT("/session/wallpaper", h.SetWallpaper)

	// Applications
	r.GET("/applications", h.ListApplications)

	// Processes
	r.GET("/processes", h.ListProcesses)
	r.POST("/processes", h.OpenProcess)
	r.POST("/processes/open-file", h.OpenFile)
	r.DELETE("/processes/:id", h.CloseProcess)
	r.POST("/processes/:id/focus", h.FocusProcess)
	r.POST("/processes/:id/minimize", h.MinimizeProcess)
	r.POST("/processes/:id/maximize", h.MaximizeProcess)
	r.PUT("/processes/:id/arguments", h.SetArguments)
	r.PUT("/processes/:id/geometry", h.SetGeometry)

	// Automation
	r.POST("/automation/sessions/:id", h.CreateAutomationSession)
	r.POST("/automation/sessions/:id/evaluate", h.EvaluateAutomation)
	r.DELETE("/automation/sessions/:id", h.CloseAutomationSession)
}

// Root handles the liveness probe
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "AgentOS Desktop Core",
	})
}

// Health handles the detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":              "healthy",
		"uptime_seconds":      int(time.Since(h.started).Seconds()),
		"session":             h.session.Status(),
		"processes":           len(h.manager.Processes()),
		"applications":        len(h.directory.List()),
		"automation_sessions": h.pool.Count(),
	})
}

// ListApplications lists every launchable application
func (h *Handlers) ListApplications(c *gin.Context) {
	apps := h.directory.List()
	c.JSON(http.StatusOK, gin.H{
		"applications": apps,
		"count":        len(apps),
	})
}

// GetSession reports the persisted desktop state, or "loading" until the
// snapshot has been hydrated
func (h *Handlers) GetSession(c *gin.Context) {
	status := h.session.Status()
	if status != types.SessionLoaded {
		c.JSON(http.StatusOK, gin.H{"status": status})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  status,
		"session": h.session.Snapshot(),
	})
}

// SetTheme handles PUT /session/theme
func (h *Handlers) SetTheme(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if !bind(c, &req) {
		return
	}
	name, err := utils.SanitizeText(req.Name)
	if err == nil && name == "" {
		err = errEmpty("name")
	}
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	h.session.SetTheme(name)
	c.JSON(http.StatusOK, gin.H{"theme": name})
}

// SetWallpaper handles PUT /session/wallpaper. An omitted fit keeps the
// current one.
func (h *Handlers) SetWallpaper(c *gin.Context) {
	var req struct {
		Image string             `json:"image"`
		Fit   types.WallpaperFit `json:"fit"`
	}
	if !bind(c, &req) {
		return
	}
	if req.Fit != "" && !req.Fit.Valid() {
		respondError(c, http.StatusBadRequest, errInvalid("fit", string(req.Fit)))
		return
	}
	image, err := utils.SanitizeText(req.Image)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	h.session.SetWallpaper(image, req.Fit)
	snapshot := h.session.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"image": snapshot.WallpaperImage,
		"fit":   snapshot.WallpaperFit,
	})
}

// bind decodes the JSON body into v, answering 400 on failure
func bind(c *gin.Context, v interface{}) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, utils.MaxBodySize)
	if err := c.ShouldBindJSON(v); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return false
	}
	return true
}

// pathID reads and validates the :id parameter, answering 400 when invalid
func pathID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if err := utils.ValidateID(id, "id"); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return "", false
	}
	return id, true
}

func respondError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

func errEmpty(field string) error {
	return fmt.Errorf("%s cannot be empty", field)
}

func errInvalid(field, value string) error {
	return fmt.Errorf("invalid %s %q", field, value)
}
