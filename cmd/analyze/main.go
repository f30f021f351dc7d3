// Command analyze prints quick, human-readable heuristics about the battle
// configurations and overworld maps in the configs directory. For battles it
// summarizes panel ownership, hazards and mob spawns; for maps it counts
// stairs, blocked and concealed cells per layer. Problems that would make a
// battle or map unplayable are reported as warnings.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"sort"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/netbattle/game/battle"
	"github.com/wricardo/netbattle/game/config"
	"github.com/wricardo/netbattle/game/mob"
	"github.com/wricardo/netbattle/game/overworld"
)

// BattleReport summarizes one battle configuration
type BattleReport struct {
	ConfigID string
	Name     string
	Width    int
	Height   int
	Walkable map[battle.Team]int
	States   map[battle.TileState]int
	Mob      string
	Spawns   []mob.Spawn
	Warnings []string
}

// LayerReport summarizes one overworld layer
type LayerReport struct {
	Index        int
	Tiles        int
	Stairs       int
	Blocked      int
	Concealed    int
	Shadowed     int
	MaxElevation float64
}

// MapReport summarizes one overworld map
type MapReport struct {
	MapID    string
	Name     string
	Cols     int
	Rows     int
	Layers   []LayerReport
	Warnings []string
}

// hazards are panel states worth calling out
var hazards = []battle.TileState{
	battle.TileCracked, battle.TileBroken, battle.TileEmpty, battle.TileLava,
	battle.TilePoison, battle.TileIce, battle.TileHoly, battle.TileGrass, battle.TileHidden,
	battle.TileDirectionLeft, battle.TileDirectionRight, battle.TileDirectionUp, battle.TileDirectionDown,
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Summarize battle configurations and overworld maps",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "directory containing battles/ and maps/",
				Sources: cli.EnvVars("NETBATTLE_CONFIG_DIR"),
			},
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "exit non-zero when any warning is reported",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "battles",
				Usage:     "analyze battle configurations (all when no ids are given)",
				ArgsUsage: "[config-id...]",
				Action:    runBattles,
			},
			{
				Name:      "maps",
				Usage:     "analyze overworld maps (all when no ids are given)",
				ArgsUsage: "[map-id...]",
				Action:    runMaps,
			},
			{
				Name:  "all",
				Usage: "analyze every battle configuration and map",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					battleErr := runBattles(ctx, cmd)
					mapErr := runMaps(ctx, cmd)
					if battleErr != nil {
						return battleErr
					}
					return mapErr
				},
			},
		},
	}
}

func output(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func openConfigs(cmd *cli.Command) (*config.Manager, error) {
	configs, err := config.NewManager(cmd.String("config-dir"))
	if err != nil {
		return nil, cli.Exit(err.Error(), 2)
	}
	return configs, nil
}

func runBattles(ctx context.Context, cmd *cli.Command) error {
	configs, err := openConfigs(cmd)
	if err != nil {
		return err
	}

	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		infos, err := configs.ListConfigs()
		if err != nil {
			return err
		}
		for _, info := range infos {
			ids = append(ids, info.ConfigID)
		}
	}

	w := output(cmd)
	registry := mob.NewRegistry(rand.New(rand.NewSource(1)))
	warnings := 0
	for _, id := range ids {
		fmt.Fprintf(w, "\n=== Analyzing battle %s ===\n", id)
		report, err := analyzeBattle(configs, registry, id)
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			warnings++
			continue
		}
		printBattleReport(w, report)
		warnings += len(report.Warnings)
	}

	if warnings > 0 && cmd.Bool("strict") {
		return cli.Exit(fmt.Sprintf("%d warnings", warnings), 1)
	}
	return nil
}

func runMaps(ctx context.Context, cmd *cli.Command) error {
	configs, err := openConfigs(cmd)
	if err != nil {
		return err
	}

	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		infos, err := configs.ListMaps()
		if err != nil {
			return err
		}
		for _, info := range infos {
			ids = append(ids, info.MapID)
		}
	}

	w := output(cmd)
	warnings := 0
	for _, id := range ids {
		fmt.Fprintf(w, "\n=== Analyzing map %s ===\n", id)
		m, err := configs.LoadMap(id)
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			warnings++
			continue
		}
		report := analyzeMap(id, m)
		printMapReport(w, report)
		warnings += len(report.Warnings)
	}

	if warnings > 0 && cmd.Bool("strict") {
		return cli.Exit(fmt.Sprintf("%d warnings", warnings), 1)
	}
	return nil
}

// analyzeBattle builds the field and mob of a configuration the way a session
// would and inspects the result
func analyzeBattle(configs *config.Manager, registry *mob.Registry, id string) (*BattleReport, error) {
	cfg, err := configs.LoadConfig(id)
	if err != nil {
		return nil, err
	}
	field, err := battle.NewFieldFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	report := &BattleReport{
		ConfigID: id,
		Name:     cfg.Name,
		Width:    field.GetWidth(),
		Height:   field.GetHeight(),
		Walkable: make(map[battle.Team]int),
		States:   make(map[battle.TileState]int),
		Mob:      cfg.Mob,
	}

	// mobs may rewrite panels, so build before counting
	if cfg.Mob != "" {
		enemies, err := registry.Build(cfg.Mob, field)
		if err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("mob %s cannot be built: %v", cfg.Mob, err))
		} else {
			report.Spawns = enemies.GetSpawns()
			if len(report.Spawns) == 0 {
				report.Warnings = append(report.Warnings, fmt.Sprintf("mob %s spawns nothing", cfg.Mob))
			}
		}
	}

	for y := 1; y <= field.GetHeight(); y++ {
		for x := 1; x <= field.GetWidth(); x++ {
			tile := field.GetAt(x, y)
			report.States[tile.GetState()]++
			if tile.IsWalkable() {
				report.Walkable[tile.GetTeam()]++
			}
		}
	}

	if report.Walkable[battle.TeamRed] == 0 {
		report.Warnings = append(report.Warnings, "red team has no walkable panel")
	}

	for _, s := range report.Spawns {
		tile := field.GetAt(s.X, s.Y)
		switch {
		case tile == nil:
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s spawns outside the field at (%d,%d)", s.Character.GetName(), s.X, s.Y))
		case !tile.IsWalkable():
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s spawns on a %s panel at (%d,%d)", s.Character.GetName(), tile.GetState(), s.X, s.Y))
		case tile.GetTeam() != s.Character.GetTeam():
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s spawns on a %s panel at (%d,%d)", s.Character.GetName(), tile.GetTeam(), s.X, s.Y))
		}
	}

	return report, nil
}

// analyzeMap inspects every cell of every layer at its center
func analyzeMap(id string, m *overworld.Map) *MapReport {
	report := &MapReport{
		MapID: id,
		Name:  m.GetName(),
		Cols:  m.GetCols(),
		Rows:  m.GetRows(),
	}

	for i := 0; i < m.GetLayerCount(); i++ {
		layer := m.GetLayer(i)
		lr := LayerReport{Index: i}

		for row := 0; row < m.GetRows(); row++ {
			for col := 0; col < m.GetCols(); col++ {
				x, y := float64(col)+0.5, float64(row)+0.5
				cell := overworld.Point{X: col, Y: row}

				tile := layer.GetTile(col, row)
				if tile != nil && !tile.IsEmpty() {
					lr.Tiles++
					if m.GetTileMeta(tile.GID).IsStairs() {
						lr.Stairs++
					}
					if !m.CanMoveTo(x, y, 0, i) {
						lr.Blocked++
					}
				}
				if m.IsConcealed(cell, i) {
					lr.Concealed++
				}
				if m.HasShadow(cell, i) {
					lr.Shadowed++
				}
				if e := m.GetElevationAt(x, y, i); e > lr.MaxElevation {
					lr.MaxElevation = e
				}
			}
		}

		if lr.Tiles == 0 {
			report.Warnings = append(report.Warnings, fmt.Sprintf("layer %d is empty", i))
		}
		if lr.Stairs > 0 && i == m.GetLayerCount()-1 {
			report.Warnings = append(report.Warnings, fmt.Sprintf("layer %d has stairs but no layer above", i))
		}
		report.Layers = append(report.Layers, lr)
	}

	return report
}

func printBattleReport(w io.Writer, r *BattleReport) {
	fmt.Fprintf(w, "Name: %s\n", r.Name)
	fmt.Fprintf(w, "Field: %d x %d\n", r.Width, r.Height)
	fmt.Fprintf(w, "Walkable panels: red %d, blue %d, neutral %d\n",
		r.Walkable[battle.TeamRed], r.Walkable[battle.TeamBlue], r.Walkable[battle.TeamUnknown])

	var found []string
	for _, state := range hazards {
		if n := r.States[state]; n > 0 {
			found = append(found, fmt.Sprintf("%s=%d", state, n))
		}
	}
	sort.Strings(found)
	if len(found) > 0 {
		fmt.Fprintf(w, "Special panels: %v\n", found)
	}

	if r.Mob != "" {
		fmt.Fprintf(w, "Mob: %s (%d spawns)\n", r.Mob, len(r.Spawns))
		for _, s := range r.Spawns {
			fmt.Fprintf(w, "   %s at (%d, %d) hp %d\n", s.Character.GetName(), s.X, s.Y, s.Character.GetHealth())
		}
	}

	printWarnings(w, r.Warnings)
}

func printMapReport(w io.Writer, r *MapReport) {
	fmt.Fprintf(w, "Name: %s\n", r.Name)
	fmt.Fprintf(w, "Grid: %d x %d, %d layers\n", r.Cols, r.Rows, len(r.Layers))
	for _, l := range r.Layers {
		fmt.Fprintf(w, "Layer %d: %d tiles, %d stairs, %d blocked, %d concealed, %d shadowed, max elevation %.2f\n",
			l.Index, l.Tiles, l.Stairs, l.Blocked, l.Concealed, l.Shadowed, l.MaxElevation)
	}
	printWarnings(w, r.Warnings)
}

func printWarnings(w io.Writer, warnings []string) {
	if len(warnings) == 0 {
		fmt.Fprintf(w, "✅ No problems found\n")
		return
	}
	fmt.Fprintf(w, "⚠️  WARNING: %d problems\n", len(warnings))
	for _, warning := range warnings {
		fmt.Fprintf(w, "   %s\n", warning)
	}
}
