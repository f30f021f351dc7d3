package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var testMobs = []string{"metalman", "starfish"}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp(t.TempDir(), "test_config_*.json")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	tmpfile.Close()
	return tmpfile.Name()
}

func hasError(result ValidationResult, substr string) bool {
	for _, err := range result.Errors {
		if strings.Contains(err, substr) {
			return true
		}
	}
	return false
}

func TestValidateBattleConfig_ValidConfig(t *testing.T) {
	validConfig := `{
		"name": "Test Config",
		"description": "Test configuration",
		"width": 6,
		"height": 3,
		"red_columns": 3,
		"layout": [
			"NLNNPN",
			"HNCNNN",
			"NPNNLN"
		],
		"teams": [
			"...R..",
			"...R..",
			"......"
		],
		"mob": "starfish",
		"custom_duration": 12
	}`

	file := writeTempFile(t, validConfig)
	result := validateBattleConfig(file, testMobs)
	if !result.Valid {
		t.Errorf("Expected valid config, but got errors: %v", result.Errors)
	}

	if result.File != filepath.Base(file) {
		t.Errorf("Expected file name %s, got %s", filepath.Base(file), result.File)
	}
	if !hasError(result, "✓ Mob: starfish") {
		t.Errorf("Expected mob info, got %v", result.Errors)
	}
	if !hasError(result, "all 11 red panels connected") {
		t.Errorf("Expected 11 connected red panels, got %v", result.Errors)
	}
}

func TestValidateBattleConfig_InvalidJSON(t *testing.T) {
	file := writeTempFile(t, `{"name": "test", invalid json}`)

	result := validateBattleConfig(file, testMobs)
	if result.Valid {
		t.Error("Expected invalid result for malformed JSON")
	}
	if !hasError(result, "Invalid JSON") {
		t.Errorf("Expected 'Invalid JSON' error, got %v", result.Errors)
	}
}

func TestValidateBattleConfig_MissingFile(t *testing.T) {
	result := validateBattleConfig("/non/existent/file.json", testMobs)
	if result.Valid {
		t.Error("Expected invalid result for missing file")
	}
	if !hasError(result, "Failed to read file") {
		t.Errorf("Expected 'Failed to read file' error, got %v", result.Errors)
	}
}

func TestValidateBattleConfig_Errors(t *testing.T) {
	tests := []struct {
		name   string
		config string
		want   string
	}{
		{
			name:   "missing name",
			config: `{"width": 6, "height": 3, "red_columns": 3}`,
			want:   "name is required",
		},
		{
			name:   "short row",
			config: `{"name": "x", "width": 6, "height": 1, "red_columns": 3, "layout": ["NNN"]}`,
			want:   "row 1 must have 6 characters",
		},
		{
			name:   "bad character",
			config: `{"name": "x", "width": 3, "height": 1, "red_columns": 1, "layout": ["NXN"]}`,
			want:   "invalid character 'X'",
		},
		{
			name:   "unknown mob",
			config: `{"name": "x", "width": 6, "height": 3, "red_columns": 3, "mob": "volcano"}`,
			want:   `Unknown mob "volcano"`,
		},
		{
			name: "cut off red panels",
			config: `{"name": "x", "width": 6, "height": 3, "red_columns": 3,
				"layout": ["NENNNN", "N.NNNN", "NENNNN"]}`,
			want: "Connectivity failure: 3/6 red panels cut off",
		},
		{
			name: "blue has nowhere to stand",
			config: `{"name": "x", "width": 6, "height": 3, "red_columns": 3,
				"layout": ["NNNEEE", "NNNEEE", "NNN..."]}`,
			want: "Team blue has no panel to stand on",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validateBattleConfig(writeTempFile(t, tt.config), testMobs)
			if result.Valid {
				t.Fatalf("Expected invalid config")
			}
			if !hasError(result, tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, result.Errors)
			}
		})
	}
}

func TestValidateBattleConfig_BrokenPanelsConnect(t *testing.T) {
	config := `{"name": "x", "width": 6, "height": 3, "red_columns": 3,
		"layout": ["NBNNNN", "NBNNNN", "NBNNNN"]}`

	result := validateBattleConfig(writeTempFile(t, config), testMobs)
	if !result.Valid {
		t.Errorf("Expected broken panels to keep the red area connected, got %v", result.Errors)
	}
}

func TestValidateMap(t *testing.T) {
	result := validateMap("../configs/maps/central.json")
	if !result.Valid {
		t.Fatalf("Expected central map to be valid, got %v", result.Errors)
	}
	if !hasError(result, "✓ Stairs: 1") {
		t.Errorf("Expected one stairs tile, got %v", result.Errors)
	}
	if !hasError(result, "2 layers") {
		t.Errorf("Expected two layers, got %v", result.Errors)
	}
}

func TestValidateMap_Errors(t *testing.T) {
	tests := []struct {
		name string
		def  string
		want string
	}{
		{
			name: "stairs on top layer",
			def: `{
				"name": "Roof", "cols": 2, "rows": 1, "tile_width": 64, "tile_height": 32,
				"tilesets": [{"name": "floor", "first_gid": 1, "tile_count": 1, "tile_width": 64, "tile_height": 32, "columns": 1,
					"tiles": [{"id": 0, "type": "Stairs"}]}],
				"layers": [{"name": "ground", "data": [1, 0]}]
			}`,
			want: "Stairs at (0,0) on the top layer",
		},
		{
			name: "unknown gid",
			def: `{
				"name": "Gap", "cols": 2, "rows": 1, "tile_width": 64, "tile_height": 32,
				"tilesets": [{"name": "floor", "first_gid": 1, "tile_count": 1, "tile_width": 64, "tile_height": 32, "columns": 1}],
				"layers": [{"name": "ground", "data": [1, 9]}]
			}`,
			want: "unknown gid 9",
		},
		{
			name: "invalid json",
			def:  `{"name": `,
			want: "Failed to load map",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validateMap(writeTempFile(t, tt.def))
			if result.Valid {
				t.Fatalf("Expected invalid map")
			}
			if !hasError(result, tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, result.Errors)
			}
		})
	}
}

func TestValidateConfigsDirectory(t *testing.T) {
	files, err := filepath.Glob("../configs/battles/*.json")
	if err != nil {
		t.Fatalf("Failed to glob configs: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("Expected battle configs in ../configs/battles")
	}

	for _, file := range files {
		result := validateBattleConfig(file, testMobs)
		if !result.Valid {
			t.Errorf("Expected %s to be valid, got %v", result.File, result.Errors)
		}
	}
}
