package battle

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// FieldConfig describes a battlefield layout loaded from JSON
type FieldConfig struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	RedColumns  int      `json:"red_columns"`
	Layout      []string `json:"layout,omitempty"` // one row per y, one char per x
	Teams       []string `json:"teams,omitempty"`  // optional per-tile override: R, B or .
	Mob         string   `json:"mob,omitempty"`
	Duration    float64  `json:"custom_duration,omitempty"` // seconds until the custom gauge fills
}

// DefaultFieldConfig returns the classic 6x3 field split down the middle
func DefaultFieldConfig() *FieldConfig {
	return &FieldConfig{
		Name:        "default",
		Description: "Classic 6x3 battlefield",
		Width:       DefaultFieldWidth,
		Height:      DefaultFieldHeight,
		RedColumns:  DefaultFieldWidth / 2,
		Duration:    10,
	}
}

// ValidateFieldConfig validates a field configuration
func ValidateFieldConfig(config *FieldConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Width < 1 || config.Width > MaxFieldWidth {
		return fmt.Errorf("config validation: width must be between 1 and %d, got %d", MaxFieldWidth, config.Width)
	}
	if config.Height < 1 || config.Height > MaxFieldHeight {
		return fmt.Errorf("config validation: height must be between 1 and %d, got %d", MaxFieldHeight, config.Height)
	}
	if config.RedColumns < 0 || config.RedColumns > config.Width {
		return fmt.Errorf("config validation: red_columns must be between 0 and width (%d), got %d", config.Width, config.RedColumns)
	}
	if config.Duration < 0 {
		return fmt.Errorf("config validation: custom_duration cannot be negative")
	}

	if len(config.Layout) > 0 {
		if len(config.Layout) != config.Height {
			return fmt.Errorf("config validation: layout must have %d rows to match height, got %d", config.Height, len(config.Layout))
		}
		for i, row := range config.Layout {
			if len([]rune(row)) != config.Width {
				return fmt.Errorf("config validation: row %d must have %d characters to match width, got %d", i+1, config.Width, len([]rune(row)))
			}
			for j, c := range row {
				if _, ok := TileStateFromChar(c); !ok {
					return fmt.Errorf("config validation: invalid character '%c' at row %d, col %d", c, i+1, j+1)
				}
			}
		}
	}

	if len(config.Teams) > 0 {
		if len(config.Teams) != config.Height {
			return fmt.Errorf("config validation: teams must have %d rows to match height, got %d", config.Height, len(config.Teams))
		}
		for i, row := range config.Teams {
			if len(row) != config.Width {
				return fmt.Errorf("config validation: teams row %d must have %d characters, got %d", i+1, config.Width, len(row))
			}
			for j, c := range row {
				switch c {
				case 'R', 'B', '.':
				default:
					return fmt.Errorf("config validation: invalid team '%c' at row %d, col %d", c, i+1, j+1)
				}
			}
		}
	}

	return nil
}

// LoadFieldConfig loads and validates a field configuration from a JSON file
func LoadFieldConfig(filename string) (*FieldConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var config FieldConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse field config '%s': %w", filename, err)
	}

	if err := ValidateFieldConfig(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// NewFieldFromConfig builds a field with the configured panels and team split.
// A nil config builds the default field.
func NewFieldFromConfig(config *FieldConfig) (*Field, error) {
	if config == nil {
		config = DefaultFieldConfig()
	}
	if err := ValidateFieldConfig(config); err != nil {
		return nil, err
	}

	field := NewField(config.Width, config.Height)
	field.SplitTeams(config.RedColumns)

	for y, row := range config.Layout {
		for x, c := range []rune(row) {
			state, _ := TileStateFromChar(c)
			field.GetAt(x+1, y+1).state = state
		}
	}

	for y, row := range config.Teams {
		for x, c := range row {
			switch c {
			case 'R':
				field.SetAt(x+1, y+1, TeamRed)
			case 'B':
				field.SetAt(x+1, y+1, TeamBlue)
			}
		}
	}

	return field, nil
}

// RenderLayout returns the field's panel states in layout notation
func RenderLayout(field *Field) []string {
	rows := make([]string, field.GetHeight())
	for y := 1; y <= field.GetHeight(); y++ {
		var b strings.Builder
		for x := 1; x <= field.GetWidth(); x++ {
			b.WriteRune(CharFromTileState(field.GetAt(x, y).GetState()))
		}
		rows[y-1] = b.String()
	}
	return rows
}
