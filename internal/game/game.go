// Package game is the host: it owns the level, the player, the lighting
// coordinator and the running scripts, and drives them once per frame.
package game

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"chosenoffset.com/emberfall/internal/command"
	"chosenoffset.com/emberfall/internal/config"
	"chosenoffset.com/emberfall/internal/core/gamestate"
	"chosenoffset.com/emberfall/internal/inventory"
	"chosenoffset.com/emberfall/internal/logging"
	"chosenoffset.com/emberfall/internal/quill"
	"chosenoffset.com/emberfall/internal/render"
	"chosenoffset.com/emberfall/internal/render/lighting"
	"chosenoffset.com/emberfall/internal/world/maploader"
)

// ErrQuit is returned by Update after a script requested exit.
var ErrQuit = errors.New("quit requested")

// TPS is the number of updates per second the engine is asked to run.
const TPS = 60

// tick is the fixed update step.
const tick = time.Second / TPS

// playerLight is the registry name of the held light.
const playerLight = "player"

// Game holds all game state and logic.
type Game struct {
	ScreenWidth  int
	ScreenHeight int
	Level        *maploader.Level
	Player       Player
	Camera       Camera
	Renderer     render.Renderer
	InputMgr     render.InputManager

	Lighting *lighting.Coordinator
	Overlay  *lighting.Overlay

	GameState *gamestate.GameState
	Inventory *inventory.Inventory
	Items     *inventory.ItemLibrary
	Commands  *command.Registry
	Scripts   *Scheduler

	// FPS reports the measured frame rate, nil when unknown
	FPS func() float64

	// UI state
	Messages       []Message
	Paused         bool
	ShowLightDebug bool

	cfg    *config.Config
	log    *zap.Logger
	levels map[string]*maploader.Level // Loaded levels by name
	epoch  time.Time
	exit   *int // Exit code requested by a script

	mu        sync.Mutex
	published Snapshot
}

// New builds a game from the config: saved state, items, start level,
// lighting, commands and the autorun scripts.
func New(cfg *config.Config, r render.Renderer, input render.InputManager, log *zap.Logger) (*Game, error) {
	log = logging.OrNop(log)
	g := &Game{
		ScreenWidth:  cfg.Window.Width,
		ScreenHeight: cfg.Window.Height,
		Renderer:     r,
		InputMgr:     input,
		Player:       Player{Health: 100, MaxHealth: 100},
		cfg:          cfg,
		log:          log,
		levels:       make(map[string]*maploader.Level),
		epoch:        time.Now(),
	}
	// Saved state comes first so scripts and timers start on the saved clock.
	g.restore()

	if cfg.Data.Items != "" {
		lib, err := inventory.LoadItemLibrary(cfg.Data.Items)
		if err != nil {
			return nil, fmt.Errorf("failed to load items: %w", err)
		}
		g.Items = lib
		lib.ApplyToInventory(g.Inventory)
		log.Info("item library loaded", zap.Int("items", len(lib.Items)))
	}
	g.Inventory.OnLightChange = func() {
		g.syncPlayerLight()
		g.Lighting.MarkDirty()
	}

	g.Lighting = lighting.NewCoordinator(nil, lightingOptions(cfg.Lighting), log)
	g.Overlay = lighting.NewOverlay(g.Lighting)

	g.Commands = command.NewRegistry(log)
	command.RegisterGameCommands(g.Commands, g)

	g.Scripts = NewScheduler(quill.Options{
		StepsPerTick: cfg.Script.StepsPerTick,
		FileRoot:     cfg.Script.FileRoot,
		Commands:     g.Commands,
		Exit:         g.requestExit,
	}, cfg.Script.Dir, log)

	level, err := maploader.LoadLevel(cfg.Data.StartLevel)
	if err != nil {
		return nil, err
	}
	g.enterLevel(level)

	for _, path := range cfg.Script.Autorun {
		if err := g.Scripts.StartFile(path); err != nil {
			log.Warn("autorun script failed", zap.String("path", path), zap.Error(err))
		}
	}

	g.publish()
	return g, nil
}

func lightingOptions(cfg config.LightingConfig) lighting.Options {
	opts := lighting.DefaultOptions()
	opts.Divisions = cfg.Divisions
	opts.MaxLights = cfg.MaxLights
	opts.RegistryLimit = cfg.RegistryLimit
	opts.BufferTiles = cfg.BufferTiles
	opts.RefreshInterval = cfg.RefreshInterval
	opts.Ambient = cfg.Ambient
	return opts
}

// Now returns the game clock. It only advances while the game is unpaused.
func (g *Game) Now() time.Time {
	return g.epoch.Add(g.GameState.Elapsed())
}

// Update handles game logic updates.
func (g *Game) Update() error {
	if !g.Paused {
		g.GameState.Advance(tick)
		g.updateMessages(tick.Seconds())
		g.handleInput()
	}

	now := g.Now()
	g.Scripts.Tick(context.Background(), now, g.Externals())

	// Scripts may have moved the player or changed lights
	g.UpdateCamera()
	g.syncPlayerLight()
	g.Lighting.SetCamera(g.Camera.Vec(), g.ScreenWidth, g.ScreenHeight)
	g.Lighting.Update(now)
	g.publish()

	if g.exit != nil {
		g.log.Info("exit requested by script", zap.Int("code", *g.exit))
		return ErrQuit
	}
	return nil
}

func (g *Game) handleInput() {
	if g.InputMgr == nil {
		return
	}
	switch {
	case g.InputMgr.IsKeyJustPressed(render.KeyW), g.InputMgr.IsKeyJustPressed(render.KeyUp):
		g.Move(0, -1)
	case g.InputMgr.IsKeyJustPressed(render.KeyS), g.InputMgr.IsKeyJustPressed(render.KeyDown):
		g.Move(0, 1)
	case g.InputMgr.IsKeyJustPressed(render.KeyA), g.InputMgr.IsKeyJustPressed(render.KeyLeft):
		g.Move(-1, 0)
	case g.InputMgr.IsKeyJustPressed(render.KeyD), g.InputMgr.IsKeyJustPressed(render.KeyRight):
		g.Move(1, 0)
	}

	// Toggle player light with L key
	if g.InputMgr.IsKeyJustPressed(render.KeyL) {
		g.ToggleLantern()
	}
	if g.InputMgr.IsKeyJustPressed(render.KeyF3) {
		g.ShowLightDebug = !g.ShowLightDebug
	}
}

// Move steps the player one tile if the destination is walkable.
func (g *Game) Move(dx, dy int) bool {
	x, y := g.Player.GridX+dx, g.Player.GridY+dy
	if !g.IsTileWalkable(x, y) {
		return false
	}
	g.placePlayer(x, y)
	return true
}

// IsTileWalkable checks if a tile is walkable.
func (g *Game) IsTileWalkable(x, y int) bool {
	if g.Level == nil {
		return false
	}
	return g.Level.IsWalkable(x, y)
}

func (g *Game) placePlayer(x, y int) {
	g.Player.GridX, g.Player.GridY = x, y
	g.Player.Pos = g.Level.TileCenter(x, y)
}

// ToggleLantern unequips the held light, or equips the strongest light
// source in the inventory.
func (g *Game) ToggleLantern() {
	if _, lit := g.Inventory.EquippedLight(); lit {
		g.Inventory.Unequip()
		g.ShowMessage("Light source deactivated")
		return
	}
	if g.Inventory.IsEmpty() {
		g.ShowMessage("Your pack is empty")
		return
	}

	var sources []*inventory.Item
	for _, slot := range g.Inventory.GetAllItems() {
		if def := g.Inventory.GetItemDefinition(slot.ItemName); def.EmitsLight() {
			sources = append(sources, def)
		}
	}
	if len(sources) == 0 {
		g.ShowMessage("You have no light source")
		return
	}
	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Light.Importance > sources[j].Light.Importance
	})
	if err := g.Inventory.Equip(sources[0].Name); err != nil {
		g.log.Warn("failed to equip light", zap.Error(err))
		return
	}
	g.ShowMessage("Light source activated")
}

// syncPlayerLight mirrors the held light into the registry. The coordinator
// only dirties the grid when the light actually changed.
func (g *Game) syncPlayerLight() {
	profile, lit := g.Inventory.EquippedLight()
	if !lit || g.Level == nil {
		g.Lighting.RemoveLight(playerLight)
		return
	}
	col := lighting.DefaultLightColor
	if profile.Color != "" {
		parsed, err := maploader.ParseHexColor(profile.Color)
		if err != nil {
			g.log.Warn("bad light color", zap.String("item", g.Inventory.EquippedItem()), zap.Error(err))
		} else {
			col = parsed
		}
	}
	g.Lighting.SetLight(playerLight, lighting.NewRadialLight(g.Player.Pos, profile.Radius, col, profile.Importance))
}

// Layout returns the game's logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.ScreenWidth, g.ScreenHeight
}

// UpdateCamera updates the camera to follow the player.
func (g *Game) UpdateCamera() {
	if g.Level == nil {
		return
	}
	// Center camera on player
	g.Camera.X = g.Player.Pos.X() - float64(g.ScreenWidth)/2
	g.Camera.Y = g.Player.Pos.Y() - float64(g.ScreenHeight)/2

	// Clamp camera to map bounds; small maps are centered
	mapWidth := float64(g.Level.Width * g.Level.TileSize())
	mapHeight := float64(g.Level.Height * g.Level.TileSize())
	g.Camera.X = clampAxis(g.Camera.X, mapWidth, float64(g.ScreenWidth))
	g.Camera.Y = clampAxis(g.Camera.Y, mapHeight, float64(g.ScreenHeight))
}

func clampAxis(pos, mapSize, view float64) float64 {
	if mapSize <= view {
		return (mapSize - view) / 2
	}
	if pos < 0 {
		return 0
	}
	if pos > mapSize-view {
		return mapSize - view
	}
	return pos
}

func (g *Game) updateMessages(dt float64) {
	var active []Message
	for _, msg := range g.Messages {
		msg.TimeLeft -= dt
		if msg.TimeLeft > 0 {
			active = append(active, msg)
		}
	}
	g.Messages = active
}

// ShowMessage adds a new message to be displayed on screen.
func (g *Game) ShowMessage(text string) {
	g.Messages = append(g.Messages, Message{
		Text:     text,
		TimeLeft: 3.0,
		MaxTime:  3.0,
	})
	g.log.Info("message", zap.String("text", text))
}

func (g *Game) requestExit(code int) {
	g.exit = &code
}

// ExitCode returns the code a script exited with, if any.
func (g *Game) ExitCode() (int, bool) {
	if g.exit == nil {
		return 0, false
	}
	return *g.exit, true
}

// Close stops every script.
func (g *Game) Close() {
	g.Scripts.StopAll()
}
