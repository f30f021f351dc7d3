// Command validate provides a small CLI that validates the battle and map
// JSON files in the ../configs directory. For battles/*.json it checks:
//   - JSON structure and the field rules enforced at load time
//   - Mob names against the registered mob factories
//   - Connectivity: every panel a team can ever stand on is reachable from
//     the rest of that team's area
//
// For maps/*.json it checks gids, tilesets and shapes, then builds the map.
package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/netbattle/game/battle"
	"github.com/wricardo/netbattle/game/mob"
	"github.com/wricardo/netbattle/game/overworld"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...interface{}) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validateBattleConfig loads and validates a single battle configuration.
// mobs lists the mob names a config may reference.
func validateBattleConfig(filePath string, mobs []string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var config battle.FieldConfig
	if err := json.Unmarshal(data, &config); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if err := battle.ValidateFieldConfig(&config); err != nil {
		result.fail("%s", strings.TrimPrefix(err.Error(), "config validation: "))
		return result
	}

	if config.Mob != "" {
		known := false
		for _, name := range mobs {
			if name == config.Mob {
				known = true
				break
			}
		}
		if !known {
			result.fail("Unknown mob %q (known: %s)", config.Mob, strings.Join(mobs, ", "))
		}
	}

	field, err := battle.NewFieldFromConfig(&config)
	if err != nil {
		result.fail("Failed to build field: %v", err)
		return result
	}

	for _, team := range []battle.Team{battle.TeamRed, battle.TeamBlue} {
		connectivity := validateConnectivity(field, team)
		if !connectivity.Valid {
			result.Valid = false
		}
		result.Errors = append(result.Errors, connectivity.Errors...)
	}

	if result.Valid {
		result.info("Name: %s", config.Name)
		result.info("Field: %dx%d", config.Width, config.Height)
		if config.Mob != "" {
			result.info("Mob: %s", config.Mob)
		}
		if config.Duration > 0 {
			result.info("Custom gauge: %.1fs", config.Duration)
		}
	}

	return result
}

// standable reports whether a panel can ever hold a character. Broken panels
// recover, empty and hidden ones never do.
func standable(t *battle.Tile) bool {
	state := t.GetState()
	return state != battle.TileEmpty && state != battle.TileHidden
}

// validateConnectivity ensures a team's standable panels form one region
// under 4-directional movement. A team with no standable panel is invalid.
func validateConnectivity(field *battle.Field, team battle.Team) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	panels := field.FindTiles(func(t *battle.Tile) bool {
		return t.GetTeam() == team && standable(t)
	})
	if len(panels) == 0 {
		result.fail("Team %s has no panel to stand on", team)
		return result
	}

	visited := make(map[*battle.Tile]bool)
	queue := []*battle.Tile{panels[0]}
	directions := [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true

		for _, dir := range directions {
			next := field.GetAt(current.GetX()+dir[0], current.GetY()+dir[1])
			if next != nil && !visited[next] && next.GetTeam() == team && standable(next) {
				queue = append(queue, next)
			}
		}
	}

	var unreachable []string
	for _, t := range panels {
		if !visited[t] {
			unreachable = append(unreachable, fmt.Sprintf("(%d,%d)", t.GetX(), t.GetY()))
		}
	}

	if len(unreachable) > 0 {
		result.fail("Connectivity failure: %d/%d %s panels cut off", len(unreachable), len(panels), team)
		for _, p := range unreachable {
			result.fail("Unreachable: %s panel at %s", team, p)
		}
	} else {
		result.info("Connectivity: all %d %s panels connected", len(panels), team)
	}

	return result
}

// validateMap loads, validates and builds a single overworld map definition
func validateMap(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	def, err := overworld.LoadDefinition(filePath)
	if err != nil {
		result.fail("Failed to load map: %v", err)
		return result
	}

	m, err := def.Build()
	if err != nil {
		result.fail("%v", err)
		return result
	}

	stairs := 0
	for i := 0; i < m.GetLayerCount(); i++ {
		layer := m.GetLayer(i)
		for row := 0; row < m.GetRows(); row++ {
			for col := 0; col < m.GetCols(); col++ {
				tile := layer.GetTile(col, row)
				if tile == nil || tile.IsEmpty() || !m.GetTileMeta(tile.GID).IsStairs() {
					continue
				}
				stairs++
				if i == m.GetLayerCount()-1 {
					result.fail("Stairs at (%d,%d) on the top layer lead nowhere", col, row)
				}
			}
		}
	}

	if result.Valid {
		result.info("Name: %s", m.GetName())
		result.info("Grid: %dx%d, %d layers", m.GetCols(), m.GetRows(), m.GetLayerCount())
		result.info("Stairs: %d", stairs)
	}

	return result
}

func report(result ValidationResult) bool {
	fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

	if result.Valid {
		fmt.Println("✅ VALID")
		for _, info := range result.Errors {
			fmt.Println("  " + info)
		}
		return true
	}

	fmt.Println("❌ INVALID")
	for _, err := range result.Errors {
		if !strings.HasPrefix(err, "✓") {
			fmt.Println("  ❌ " + err)
		}
	}
	return false
}

// main scans ../configs/battles and ../configs/maps for *.json files and
// validates each one, printing a concise report and exiting with non-zero
// status if any are invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	battles, err := filepath.Glob(filepath.Join(configDir, "battles", "*.json"))
	if err != nil {
		fmt.Printf("Error finding battle configs: %v\n", err)
		os.Exit(1)
	}
	maps, err := filepath.Glob(filepath.Join(configDir, "maps", "*.json"))
	if err != nil {
		fmt.Printf("Error finding maps: %v\n", err)
		os.Exit(1)
	}

	mobs := mob.NewRegistry(rand.New(rand.NewSource(1))).Names()

	allValid := true
	for _, file := range battles {
		if !report(validateBattleConfig(file, mobs)) {
			allValid = false
		}
	}
	for _, file := range maps {
		if !report(validateMap(file)) {
			allValid = false
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
		os.Exit(1)
	}
}
