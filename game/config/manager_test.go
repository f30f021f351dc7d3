package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/wricardo/netbattle/game/battle"
)

const testMap = `{
  "name": "Test Square",
  "cols": 3,
  "rows": 3,
  "tile_width": 64,
  "tile_height": 32,
  "tilesets": [{"name": "floor", "first_gid": 1, "tile_count": 2}],
  "layers": [
    {"name": "ground", "data": [1,1,1, 1,2,1, 1,1,1]},
    {"name": "upper", "data": [0,0,0, 0,1,0, 0,0,0]}
  ]
}`

func createTestConfigDir(t *testing.T) string {
	dir, err := os.MkdirTemp("", "config-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	return dir
}

func createValidConfig() *battle.FieldConfig {
	return &battle.FieldConfig{
		Name:        "Test Config",
		Description: "Test configuration",
		Width:       6,
		Height:      3,
		RedColumns:  3,
		Layout: []string{
			"NNNNNN",
			"NCNNIN",
			"NNNNNN",
		},
		Mob: "starfish",
	}
}

func writeConfigFile(t *testing.T, dir, name string, config *battle.FieldConfig) {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal config: %v", err)
	}
	writeRaw(t, filepath.Join(dir, battlesDir), name+".json", data)
}

func writeRaw(t *testing.T, dir, filename string, data []byte) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
}

func TestNewManager(t *testing.T) {
	t.Run("valid directory", func(t *testing.T) {
		dir := createTestConfigDir(t)
		defer os.RemoveAll(dir)

		classic := createValidConfig()
		classic.Name = "Classic"
		writeConfigFile(t, dir, "classic", classic)

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if manager.GetDefault().Name != "Classic" {
			t.Errorf("Expected classic as default, got '%s'", manager.GetDefault().Name)
		}
	})

	t.Run("non-existent directory", func(t *testing.T) {
		_, err := NewManager("/non/existent/path")
		if err == nil {
			t.Error("Expected error for non-existent directory")
		}
	})

	t.Run("empty directory falls back to built-in field", func(t *testing.T) {
		dir := createTestConfigDir(t)
		defer os.RemoveAll(dir)

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("NewManager should succeed without config files, got error: %v", err)
		}

		def := manager.GetDefault()
		if def == nil {
			t.Fatal("Expected default config to be available")
		}
		if def.Width != battle.DefaultFieldWidth || def.Height != battle.DefaultFieldHeight {
			t.Errorf("Expected %dx%d default, got %dx%d", battle.DefaultFieldWidth, battle.DefaultFieldHeight, def.Width, def.Height)
		}
	})

	t.Run("first valid config when classic is missing", func(t *testing.T) {
		dir := createTestConfigDir(t)
		defer os.RemoveAll(dir)

		other := createValidConfig()
		other.Name = "Other"
		writeConfigFile(t, dir, "other", other)

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if manager.GetDefault().Name != "Other" {
			t.Errorf("Expected 'Other' as default, got '%s'", manager.GetDefault().Name)
		}
	})
}

func TestManager_LoadConfig(t *testing.T) {
	dir := createTestConfigDir(t)
	defer os.RemoveAll(dir)

	easy := createValidConfig()
	easy.Name = "Easy"
	easy.RedColumns = 4
	writeConfigFile(t, dir, "easy", easy)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	t.Run("load existing config", func(t *testing.T) {
		config, err := manager.LoadConfig("easy")
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}
		if config.Name != "Easy" {
			t.Errorf("Expected config name 'Easy', got '%s'", config.Name)
		}
		if config.RedColumns != 4 {
			t.Errorf("Expected 4 red columns, got %d", config.RedColumns)
		}
	})

	t.Run("load with .json extension", func(t *testing.T) {
		config, err := manager.LoadConfig("easy.json")
		if err != nil {
			t.Fatalf("Failed to load config with extension: %v", err)
		}
		if config.Name != "Easy" {
			t.Errorf("Expected config name 'Easy', got '%s'", config.Name)
		}
	})

	t.Run("load from cache", func(t *testing.T) {
		config1, _ := manager.LoadConfig("easy")
		config2, err := manager.LoadConfig("easy")
		if err != nil {
			t.Fatalf("Failed to load config from cache: %v", err)
		}
		if config1 != config2 {
			t.Error("Expected config to be loaded from cache")
		}
	})

	t.Run("load non-existent config", func(t *testing.T) {
		_, err := manager.LoadConfig("non-existent")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("Expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("load invalid config", func(t *testing.T) {
		invalid := createValidConfig()
		invalid.Layout = []string{"NNN"}
		writeConfigFile(t, dir, "invalid", invalid)

		_, err := manager.LoadConfig("invalid")
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("load malformed json", func(t *testing.T) {
		writeRaw(t, filepath.Join(dir, battlesDir), "broken.json", []byte("{not json"))

		_, err := manager.LoadConfig("broken")
		if err == nil || errors.Is(err, ErrConfigNotFound) {
			t.Errorf("Expected parse error, got %v", err)
		}
	})
}

func TestManager_ListConfigs(t *testing.T) {
	dir := createTestConfigDir(t)
	defer os.RemoveAll(dir)

	for _, name := range []string{"alpha", "beta"} {
		c := createValidConfig()
		c.Name = name
		writeConfigFile(t, dir, name, c)
	}
	writeRaw(t, filepath.Join(dir, battlesDir), "bad.json", []byte(`{"name": ""}`))
	writeRaw(t, filepath.Join(dir, battlesDir), "notes.txt", []byte("ignored"))

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	configs, err := manager.ListConfigs()
	if err != nil {
		t.Fatalf("Failed to list configs: %v", err)
	}
	if len(configs) != 2 {
		t.Fatalf("Expected 2 valid configs, got %d", len(configs))
	}
	for _, c := range configs {
		if c.ConfigID+".json" != c.Filename {
			t.Errorf("Expected filename %s.json, got %s", c.ConfigID, c.Filename)
		}
		if c.Width != 6 || c.Height != 3 || c.Mob != "starfish" {
			t.Errorf("Unexpected config info %+v", c)
		}
	}
}

func TestManager_SaveConfigAndDefault(t *testing.T) {
	dir := createTestConfigDir(t)
	defer os.RemoveAll(dir)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	config := createValidConfig()
	config.Name = "Saved"
	if err := manager.SaveConfig("saved", config); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, battlesDir, "saved.json")); err != nil {
		t.Errorf("Expected saved file on disk: %v", err)
	}

	if err := manager.SetDefault("saved"); err != nil {
		t.Fatalf("Failed to set default: %v", err)
	}
	if manager.GetDefault().Name != "Saved" {
		t.Errorf("Expected default 'Saved', got '%s'", manager.GetDefault().Name)
	}

	if err := manager.SetDefault("missing"); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("Expected ErrConfigNotFound, got %v", err)
	}

	bad := createValidConfig()
	bad.Width = 0
	if err := manager.SaveConfig("bad", bad); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestManager_RefreshCache(t *testing.T) {
	dir := createTestConfigDir(t)
	defer os.RemoveAll(dir)

	c := createValidConfig()
	c.Name = "Before"
	writeConfigFile(t, dir, "classic", c)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	c.Name = "After"
	writeConfigFile(t, dir, "classic", c)

	if got, _ := manager.LoadConfig("classic"); got.Name != "Before" {
		t.Errorf("Expected cached 'Before', got '%s'", got.Name)
	}

	if err := manager.RefreshCache(); err != nil {
		t.Fatalf("Failed to refresh cache: %v", err)
	}
	if got, _ := manager.LoadConfig("classic"); got.Name != "After" {
		t.Errorf("Expected reloaded 'After', got '%s'", got.Name)
	}
	if manager.GetDefault().Name != "After" {
		t.Errorf("Expected default reloaded, got '%s'", manager.GetDefault().Name)
	}
}

func TestManager_Maps(t *testing.T) {
	dir := createTestConfigDir(t)
	defer os.RemoveAll(dir)

	writeRaw(t, filepath.Join(dir, mapsDir), "square.json", []byte(testMap))
	writeRaw(t, filepath.Join(dir, mapsDir), "broken.json", []byte(`{"name": "x", "cols": 0}`))

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	m, err := manager.LoadMap("square")
	if err != nil {
		t.Fatalf("Failed to load map: %v", err)
	}
	if m.GetLayerCount() != 2 {
		t.Errorf("Expected 2 layers, got %d", m.GetLayerCount())
	}
	if again, _ := manager.LoadMap("square.json"); again != m {
		t.Error("Expected map to be cached")
	}

	if _, err := manager.LoadMap("nowhere"); !errors.Is(err, ErrMapNotFound) {
		t.Errorf("Expected ErrMapNotFound, got %v", err)
	}
	if _, err := manager.LoadMap("broken"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}

	maps, err := manager.ListMaps()
	if err != nil {
		t.Fatalf("Failed to list maps: %v", err)
	}
	if len(maps) != 1 || maps[0].MapID != "square" || maps[0].Name != "Test Square" {
		t.Errorf("Expected only the square map, got %+v", maps)
	}
	if maps[0].Cols != 3 || maps[0].TileWidth != 64 || maps[0].Layers != 2 {
		t.Errorf("Unexpected map info %+v", maps[0])
	}
}

func TestManager_ConcurrentLoads(t *testing.T) {
	dir := createTestConfigDir(t)
	defer os.RemoveAll(dir)

	writeConfigFile(t, dir, "classic", createValidConfig())
	writeRaw(t, filepath.Join(dir, mapsDir), "square.json", []byte(testMap))

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := manager.LoadConfig("classic"); err != nil {
				errs <- err
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := manager.LoadMap("square"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Concurrent load failed: %v", err)
	}
}
