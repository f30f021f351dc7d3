// Package config provides configuration management for netbattle.
//
// The config package handles:
//   - Loading battle field configurations from JSON files
//   - Building overworld maps from JSON map definitions
//   - Default configuration management and discovery
//   - Server settings read from the environment
//
// Directory Layout:
//
// Configurations live under a single directory:
//
//	configs/
//	  battles/   FieldConfig files (size, team split, panel layout, mob)
//	  maps/      overworld map definitions (tilesets, layers, objects)
//
// Battle layouts use one character per panel: 'N' normal, 'C' cracked,
// 'B' broken, 'E' empty, 'I' ice, 'G' grass, 'L' lava, 'P' poison, 'H' holy,
// '<' '>' '^' 'v' conveyors and '.' hidden.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	field, err := manager.LoadConfig("starfish")
//	central, err := manager.LoadMap("central")
//
// Loaded configurations and maps are cached; RefreshCache drops the cache.
// Server settings come from NETBATTLE_* environment variables through
// LoadServerConfig.
package config
