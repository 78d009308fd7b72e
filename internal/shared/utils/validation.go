package utils

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// Input limits
const (
	MaxBodySize     = 1 * 1024 * 1024 // 1MB - maximum request body
	MaxMessageSize  = 64 * 1024       // 64KB - single stream message
	MaxIDLength     = 128
	MaxValueLength  = 4096
	MaxArgumentKeys = 32
	MaxScriptSize   = 64 * 1024
)

// SafeIDPattern allows alphanumeric, dots, hyphens and underscores
var SafeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// strict strips every tag; values are treated as plain text downstream
var strict = bluemonday.StrictPolicy()

// ValidateID checks an identifier taken from a path, body or message
func ValidateID(id, fieldName string) error {
	if id == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	if len(id) > MaxIDLength {
		return fmt.Errorf("%s exceeds maximum length of %d", fieldName, MaxIDLength)
	}
	if !SafeIDPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}
	return nil
}

// SanitizeText removes markup and control characters from user text
func SanitizeText(s string) (string, error) {
	if !utf8.ValidString(s) {
		return "", fmt.Errorf("value must be valid UTF-8")
	}
	if len(s) > MaxValueLength {
		return "", fmt.Errorf("value exceeds maximum length of %d", MaxValueLength)
	}
	clean := html.UnescapeString(strict.Sanitize(s))
	clean = strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\t' {
			return -1
		}
		return r
	}, clean)
	return strings.TrimSpace(clean), nil
}

// SanitizeArguments cleans every string value in args, descending into
// nested maps and slices. Keys must be safe identifiers.
func SanitizeArguments(args map[string]interface{}) (map[string]interface{}, error) {
	if len(args) > MaxArgumentKeys {
		return nil, fmt.Errorf("too many arguments: %d (max %d)", len(args), MaxArgumentKeys)
	}
	out := make(map[string]interface{}, len(args))
	for key, value := range args {
		if err := ValidateID(key, "argument key"); err != nil {
			return nil, err
		}
		clean, err := sanitizeValue(value)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", key, err)
		}
		out[key] = clean
	}
	return out, nil
}

func sanitizeValue(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case string:
		return SanitizeText(v)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, nested := range v {
			clean, err := sanitizeValue(nested)
			if err != nil {
				return nil, err
			}
			out[key] = clean
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, nested := range v {
			clean, err := sanitizeValue(nested)
			if err != nil {
				return nil, err
			}
			out[i] = clean
		}
		return out, nil
	default:
		return value, nil
	}
}
