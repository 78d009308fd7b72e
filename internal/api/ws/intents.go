package ws

import (
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/manager"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/utils"
)

// Intent is a lifecycle request sent by the shell
type Intent struct {
	Type            string                 `json:"type"`
	ID              string                 `json:"id,omitempty"`
	AppType         string                 `json:"app_type,omitempty"`
	Arguments       map[string]interface{} `json:"arguments,omitempty"`
	Icon            string                 `json:"icon,omitempty"`
	RestoreInternal bool                   `json:"restore_internal,omitempty"`
	Position        *types.Position        `json:"position,omitempty"`
	Size            *types.Size            `json:"size,omitempty"`
	Viewport        *types.Viewport        `json:"viewport,omitempty"`
}

// dispatch applies one intent and returns the reply, if any. State changes
// reach the client through the snapshot that follows, so most replies are
// bare acknowledgements.
func (h *Handler) dispatch(intent Intent) interface{} {
	switch intent.Type {
	case "ping":
		return map[string]interface{}{"type": "pong"}

	case "snapshot":
		return h.snapshot(nil)

	case "open":
		if err := utils.ValidateID(intent.AppType, "app_type"); err != nil {
			return errorMessage(err.Error())
		}
		args, err := utils.SanitizeArguments(intent.Arguments)
		if err != nil {
			return errorMessage(err.Error())
		}
		icon, err := utils.SanitizeText(intent.Icon)
		if err != nil {
			return errorMessage(err.Error())
		}
		result := h.manager.Open(intent.AppType, args, icon)
		if result.Status == manager.StatusRejected {
			return errorMessage(result.Err.Error())
		}
		return map[string]interface{}{
			"type":   "ack",
			"intent": intent.Type,
			"id":     result.ID,
			"status": result.Status,
		}

	case "close", "focus", "minimize", "maximize", "geometry":
		if err := utils.ValidateID(intent.ID, "id"); err != nil {
			return errorMessage(err.Error())
		}
		if _, ok := h.manager.Get(intent.ID); !ok {
			return errorMessage("process not found")
		}
		switch intent.Type {
		case "close":
			h.manager.Close(intent.ID, intent.RestoreInternal)
		case "focus":
			h.manager.Focus(intent.ID)
		case "minimize":
			h.manager.Minimize(intent.ID)
		case "maximize":
			h.manager.Maximize(intent.ID)
		case "geometry":
			if !h.manager.SetGeometry(intent.ID, intent.Position, intent.Size) {
				return errorMessage("geometry update needs a position or a size")
			}
		}
		return ack(intent)

	case "viewport":
		if intent.Viewport == nil || intent.Viewport.Width <= 0 || intent.Viewport.Height <= 0 {
			return errorMessage("viewport needs a positive width and height")
		}
		h.manager.SetViewport(*intent.Viewport)
		// No manager event covers a resize, so answer with a fresh snapshot
		return h.snapshot(nil)

	default:
		return errorMessage("unknown message type")
	}
}

func ack(intent Intent) map[string]interface{} {
	return map[string]interface{}{
		"type":   "ack",
		"intent": intent.Type,
		"id":     intent.ID,
	}
}

func errorMessage(message string) map[string]interface{} {
	return map[string]interface{}{
		"type":    "error",
		"message": message,
	}
}
