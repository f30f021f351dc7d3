package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wricardo/netbattle/game/battle"
	"github.com/wricardo/netbattle/game/overworld"
	"github.com/wricardo/netbattle/game/service"
)

var (
	ErrConfigNotFound = errors.New("configuration not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrMapNotFound    = errors.New("map not found")
)

const (
	battlesDir = "battles"
	mapsDir    = "maps"
)

// Manager loads and caches battle configurations from <dir>/battles and
// overworld maps from <dir>/maps
type Manager struct {
	configDir     string
	defaultConfig *battle.FieldConfig
	configs       map[string]*battle.FieldConfig
	maps          map[string]*overworld.Map
	mu            sync.RWMutex
}

// NewManager creates a new configuration manager
func NewManager(configDir string) (*Manager, error) {
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*battle.FieldConfig),
		maps:      make(map[string]*overworld.Map),
	}

	if err := m.loadDefaultConfig(); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	return m, nil
}

// LoadConfig loads a battle configuration by name
func (m *Manager) LoadConfig(name string) (*battle.FieldConfig, error) {
	name = strings.TrimSuffix(name, ".json")

	m.mu.RLock()
	if config, exists := m.configs[name]; exists {
		m.mu.RUnlock()
		return config, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if config, exists := m.configs[name]; exists {
		return config, nil
	}

	data, err := os.ReadFile(m.battlePath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config battle.FieldConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := battle.ValidateFieldConfig(&config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	m.configs[name] = &config
	return &config, nil
}

// ListConfigs returns information about all valid battle configurations
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	names, err := m.listJSON(battlesDir)
	if err != nil {
		return nil, err
	}

	var configs []*service.ConfigInfo
	for _, name := range names {
		config, err := m.LoadConfig(name)
		if err != nil {
			continue
		}

		configs = append(configs, &service.ConfigInfo{
			Filename:    name + ".json",
			ConfigID:    name,
			Name:        config.Name,
			Description: config.Description,
			Width:       config.Width,
			Height:      config.Height,
			Mob:         config.Mob,
		})
	}

	return configs, nil
}

// GetDefault returns the default configuration
func (m *Manager) GetDefault() *battle.FieldConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// SetDefault sets the default configuration by name
func (m *Manager) SetDefault(name string) error {
	config, err := m.LoadConfig(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultConfig = config
	return nil
}

// RefreshCache drops every cached config and map and reloads the default
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.configs = make(map[string]*battle.FieldConfig)
	m.maps = make(map[string]*overworld.Map)
	m.mu.Unlock()

	return m.loadDefaultConfig()
}

// loadDefaultConfig prefers classic, then the first valid config, then the
// built-in 6x3 field
func (m *Manager) loadDefaultConfig() error {
	config, err := m.LoadConfig("classic")
	if err != nil {
		configs, listErr := m.ListConfigs()
		if listErr != nil || len(configs) == 0 {
			m.setDefault(battle.DefaultFieldConfig())
			return nil
		}

		config, err = m.LoadConfig(configs[0].ConfigID)
		if err != nil {
			m.setDefault(battle.DefaultFieldConfig())
			return nil
		}
	}

	m.setDefault(config)
	return nil
}

func (m *Manager) setDefault(config *battle.FieldConfig) {
	m.mu.Lock()
	m.defaultConfig = config
	m.mu.Unlock()
}

// SaveConfig validates and writes a battle configuration to disk
func (m *Manager) SaveConfig(name string, config *battle.FieldConfig) error {
	if err := battle.ValidateFieldConfig(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	name = strings.TrimSuffix(name, ".json")

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Join(m.configDir, battlesDir), 0755); err != nil {
		return fmt.Errorf("failed to create battles directory: %w", err)
	}
	if err := os.WriteFile(m.battlePath(name), data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	m.mu.Lock()
	m.configs[name] = config
	m.mu.Unlock()

	return nil
}

// LoadMap loads, validates and builds an overworld map by name. Built maps
// are cached and shared.
func (m *Manager) LoadMap(name string) (*overworld.Map, error) {
	name = strings.TrimSuffix(name, ".json")

	m.mu.RLock()
	if built, exists := m.maps[name]; exists {
		m.mu.RUnlock()
		return built, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if built, exists := m.maps[name]; exists {
		return built, nil
	}

	def, err := overworld.LoadDefinition(filepath.Join(m.configDir, mapsDir, name+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrMapNotFound
		}
		return nil, err
	}

	built, err := def.Build()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	m.maps[name] = built
	return built, nil
}

// ListMaps returns information about all valid maps
func (m *Manager) ListMaps() ([]*service.MapInfo, error) {
	names, err := m.listJSON(mapsDir)
	if err != nil {
		return nil, err
	}

	var maps []*service.MapInfo
	for _, name := range names {
		built, err := m.LoadMap(name)
		if err != nil {
			continue
		}
		maps = append(maps, MapInfo(name, built))
	}
	return maps, nil
}

// MapInfo describes a built map
func MapInfo(id string, built *overworld.Map) *service.MapInfo {
	size := built.GetTileSize()
	return &service.MapInfo{
		Filename:   id + ".json",
		MapID:      id,
		Name:       built.GetName(),
		Cols:       built.GetCols(),
		Rows:       built.GetRows(),
		TileWidth:  size.X,
		TileHeight: size.Y,
		Layers:     built.GetLayerCount(),
		Song:       built.GetMetadata().SongPath,
	}
}

// listJSON returns the base names of the JSON files in a subdirectory; a
// missing subdirectory lists nothing
func (m *Manager) listJSON(sub string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(m.configDir, sub))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}
	return names, nil
}

func (m *Manager) battlePath(name string) string {
	return filepath.Join(m.configDir, battlesDir, name+".json")
}
