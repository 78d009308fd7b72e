package directory

import (
	"fmt"
	"strings"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/utils"
)

// Builtins returns the applications every desktop ships with
func Builtins() []types.Application {
	return []types.Application{
		{
			Type:            "Browser",
			Title:           "Wild West Browser",
			Icon:            "🌐",
			DefaultSize:     types.Size{Width: 800, Height: 600},
			Component:       "Browser",
			BackgroundColor: "#fff",
			MimeTypes:       []string{"text/html", "application/xhtml+xml"},
		},
		{
			Type:            "Telegraph",
			Title:           "Telegraph",
			Icon:            "📠",
			DefaultSize:     types.Size{Width: 600, Height: 400},
			Component:       "Telegraph",
			BackgroundColor: "#000",
		},
		{
			Type:            "Docs",
			Title:           "Docs",
			Icon:            "💼",
			DefaultSize:     types.Size{Width: 650, Height: 450},
			Component:       "Docs",
			BackgroundColor: "#fff",
			MimeTypes:       []string{"text/plain", "text/markdown", "application/pdf"},
		},
		{
			Type:            "Ledger",
			Title:           "Ledger",
			Icon:            "📓",
			DefaultSize:     types.Size{Width: 544, Height: 480},
			Component:       "Ledger",
			BackgroundColor: "#1E1E1E",
			MimeTypes:       []string{"text/csv", "application/json"},
		},
		{
			Type:            "AIChat",
			Title:           "AI Chat",
			Icon:            "🤖",
			DefaultSize:     types.Size{Width: 400, Height: 500},
			Component:       "AIChat",
			BackgroundColor: "#1A1A1A",
		},
		{
			Type:            "Settings",
			Title:           "Settings",
			Icon:            "⚙️",
			DefaultSize:     types.Size{Width: 520, Height: 420},
			Singleton:       true,
			Component:       "Settings",
			BackgroundColor: "#2B2B2B",
		},
	}
}

func validate(app types.Application) error {
	if app.Type == "" {
		return fmt.Errorf("application type is required")
	}
	// Types double as process ids, so they must pass the same id check
	if err := utils.ValidateID(app.Type, "application type"); err != nil {
		return fmt.Errorf("application %q: %w", app.Type, err)
	}
	if strings.Contains(app.Type, "__") {
		return fmt.Errorf("application type %q must not contain the instance separator", app.Type)
	}
	if app.DefaultSize.Width < 0 || app.DefaultSize.Height < 0 {
		return fmt.Errorf("application %q has a negative default size", app.Type)
	}
	return nil
}
