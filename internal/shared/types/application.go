package types

// Application is a static directory entry describing an application type
type Application struct {
	Type            string   `json:"type" yaml:"type" toml:"type"`
	Title           string   `json:"title" yaml:"title" toml:"title"`
	Icon            string   `json:"icon" yaml:"icon" toml:"icon"`
	DefaultSize     Size     `json:"default_size" yaml:"default_size" toml:"default_size"`
	Singleton       bool     `json:"singleton,omitempty" yaml:"singleton" toml:"singleton"`
	Component       string   `json:"component,omitempty" yaml:"component" toml:"component"`
	BackgroundColor string   `json:"background_color,omitempty" yaml:"background_color" toml:"background_color"`
	MimeTypes       []string `json:"mime_types,omitempty" yaml:"mime_types" toml:"mime_types"`
}
