package lighting

import (
	"image"
	"image/color"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"chosenoffset.com/emberfall/internal/logging"
)

// TileInfo is what the lighting engine needs to know about one map tile.
type TileInfo struct {
	Wall     bool
	Walkable bool
	Shade    color.NRGBA // Background color blended in by the darkness overlay
}

// Occludes reports whether the tile blocks light.
func (t TileInfo) Occludes() bool {
	return t.Wall && !t.Walkable
}

// TileProvider answers tile queries in tile coordinates.
// ok is false outside the map; such tiles are treated as blocked.
type TileProvider interface {
	TileAt(x, y int) (info TileInfo, ok bool)
}

// Options configures a Coordinator.
type Options struct {
	TileSize        int           // Tile edge in world pixels
	Divisions       int           // Luxels per tile axis
	MaxLights       int           // Lights propagated per rebuild
	RegistryLimit   int           // Registry warning threshold
	BufferTiles     int           // Tiles added around the viewport for edge blending
	RefreshInterval time.Duration // Safety rebuild period, 0 disables it
	Ambient         float64       // Minimum brightness used by the overlay
}

// DefaultOptions returns options for 32px tiles split in 2x2 luxels.
func DefaultOptions() Options {
	return Options{
		TileSize:        32,
		Divisions:       2,
		MaxLights:       32,
		RegistryLimit:   DefaultRegistryLimit,
		BufferTiles:     1,
		RefreshInterval: time.Second,
		Ambient:         0.15,
	}
}

type gridState int

const (
	stateUninitialized gridState = iota
	stateBuilt
	stateDirty
)

// Stats describes the last rebuild.
type Stats struct {
	Builds      int             `json:"builds"`
	LastBuild   time.Time       `json:"last_build"`
	LightsUsed  int             `json:"lights_used"`
	TileWindow  image.Rectangle `json:"tile_window"`
	LuxelWidth  int             `json:"luxel_width"`
	LuxelHeight int             `json:"luxel_height"`
}

// Coordinator owns the luxel grid and decides when it must be rebuilt.
// Everything runs on the caller's goroutine; it is not safe for concurrent use.
type Coordinator struct {
	opts     Options
	tiles    TileProvider
	registry *Registry
	grid     *LuxelGrid
	log      *zap.Logger

	camera     mgl64.Vec2
	viewW      int
	viewH      int
	tileWindow image.Rectangle // Tile coordinates, Max exclusive
	shades     []color.NRGBA   // One per tile of tileWindow

	state gridState
	stats Stats
}

// NewCoordinator creates a coordinator over the given tiles.
func NewCoordinator(tiles TileProvider, opts Options, log *zap.Logger) *Coordinator {
	if opts.Divisions <= 0 {
		opts.Divisions = 1
	}
	log = logging.OrNop(log)
	return &Coordinator{
		opts:     opts,
		tiles:    tiles,
		registry: NewRegistry(opts.RegistryLimit, log),
		grid:     NewLuxelGrid(0, 0),
		log:      log.Named("lighting"),
	}
}

// Registry exposes the light registry for read access.
func (c *Coordinator) Registry() *Registry {
	return c.registry
}

// Options returns the active options.
func (c *Coordinator) Options() Options {
	return c.opts
}

// SetTiles swaps the tile source (level change) and its tile size.
func (c *Coordinator) SetTiles(tiles TileProvider, tileSize int) {
	c.tiles = tiles
	c.opts.TileSize = tileSize
	c.tileWindow = c.computeWindow()
	c.MarkDirty()
}

// SetAmbient changes the minimum brightness. It only affects drawing.
func (c *Coordinator) SetAmbient(level float64) {
	c.opts.Ambient = math.Max(0, math.Min(1, level))
}

// Ambient returns the minimum brightness.
func (c *Coordinator) Ambient() float64 {
	return c.opts.Ambient
}

// SetLight registers or moves a light; the grid is dirtied only on real change.
func (c *Coordinator) SetLight(name string, light RadialLight) {
	if c.registry.SetLight(name, light) {
		c.MarkDirty()
	}
}

// RemoveLight removes a light.
func (c *Coordinator) RemoveLight(name string) {
	if c.registry.RemoveLight(name) {
		c.MarkDirty()
	}
}

// ClearLights removes every light.
func (c *Coordinator) ClearLights() {
	c.registry.Clear()
	c.MarkDirty()
}

// SetCamera records the viewport (camera is its top-left corner in world
// pixels). Crossing into a new tile-aligned window dirties the grid.
func (c *Coordinator) SetCamera(camera mgl64.Vec2, viewW, viewH int) {
	c.camera = camera
	c.viewW, c.viewH = viewW, viewH
	if w := c.computeWindow(); w != c.tileWindow {
		c.tileWindow = w
		c.MarkDirty()
	}
}

// MarkDirty forces a rebuild before the next draw. Inventory light events
// (equip, drop, pickup of light emitting items) call this.
func (c *Coordinator) MarkDirty() {
	if c.state == stateBuilt {
		c.state = stateDirty
	}
}

// Dirty reports whether a rebuild is pending.
func (c *Coordinator) Dirty() bool {
	return c.state != stateBuilt
}

// Update applies the refresh timer and rebuilds if needed.
// It returns true when the grid was rebuilt.
func (c *Coordinator) Update(now time.Time) bool {
	if c.state == stateBuilt && c.opts.RefreshInterval > 0 &&
		now.Sub(c.stats.LastBuild) >= c.opts.RefreshInterval {
		c.state = stateDirty
	}
	if c.state == stateBuilt {
		return false
	}
	c.Recompute(now)
	return true
}

// EnsureBuilt rebuilds only when the grid is not current. The refresh
// timer is left to Update.
func (c *Coordinator) EnsureBuilt(now time.Time) {
	if c.state != stateBuilt {
		c.Recompute(now)
	}
}

// Recompute rebuilds the occlusion mask and light levels synchronously.
func (c *Coordinator) Recompute(now time.Time) {
	div := c.opts.Divisions
	win := c.tileWindow
	c.grid.Resize(win.Dx()*div, win.Dy()*div)
	c.shades = c.shades[:0]

	used := 0
	if w, h := c.grid.Size(); w > 0 && h > 0 {
		c.buildOcclusion()
		used = c.seedAndPropagate()
	}

	c.state = stateBuilt
	c.stats.Builds++
	c.stats.LastBuild = now
	c.stats.LightsUsed = used
	c.stats.TileWindow = win
	c.stats.LuxelWidth, c.stats.LuxelHeight = c.grid.Size()
	c.log.Debug("luxel grid rebuilt",
		zap.Stringer("window", win),
		zap.Int("lights", used))
}

func (c *Coordinator) buildOcclusion() {
	div := c.opts.Divisions
	win := c.tileWindow
	for ty := win.Min.Y; ty < win.Max.Y; ty++ {
		for tx := win.Min.X; tx < win.Max.X; tx++ {
			var info TileInfo
			ok := false
			if c.tiles != nil {
				info, ok = c.tiles.TileAt(tx, ty)
			}
			c.shades = append(c.shades, info.Shade)
			if ok && !info.Occludes() {
				continue
			}
			lx, ly := (tx-win.Min.X)*div, (ty-win.Min.Y)*div
			c.grid.FillBlocked(image.Rect(lx, ly, lx+div, ly+div), true)
		}
	}
}

func (c *Coordinator) seedAndPropagate() int {
	div := c.opts.Divisions
	win := c.tileWindow
	ts := float64(c.opts.TileSize)
	lights := c.registry.GetRankedVisible(c.worldRect(win), c.opts.MaxLights)

	seeds := make([]image.Point, 0, div*div)
	used := 0
	for _, n := range lights {
		tx := int(math.Floor(n.Light.Position.X() / ts))
		ty := int(math.Floor(n.Light.Position.Y() / ts))
		if !image.Pt(tx, ty).In(win) {
			continue
		}
		seeds = seeds[:0]
		lx, ly := (tx-win.Min.X)*div, (ty-win.Min.Y)*div
		for dy := 0; dy < div; dy++ {
			for dx := 0; dx < div; dx++ {
				seeds = append(seeds, image.Pt(lx+dx, ly+dy))
			}
		}
		radius := float64(n.Light.Radius) / ts * float64(div)
		c.grid.Propagate(seeds, radius, n.Light.Color)
		used++
	}
	return used
}

// computeWindow returns the visible tile window plus the buffer.
func (c *Coordinator) computeWindow() image.Rectangle {
	ts := float64(c.opts.TileSize)
	if ts <= 0 || c.viewW <= 0 || c.viewH <= 0 {
		return image.Rectangle{}
	}
	b := c.opts.BufferTiles
	minX := int(math.Floor(c.camera.X()/ts)) - b
	minY := int(math.Floor(c.camera.Y()/ts)) - b
	maxX := int(math.Ceil((c.camera.X()+float64(c.viewW))/ts)) + b
	maxY := int(math.Ceil((c.camera.Y()+float64(c.viewH))/ts)) + b
	return image.Rect(minX, minY, maxX, maxY)
}

func (c *Coordinator) worldRect(tiles image.Rectangle) image.Rectangle {
	ts := c.opts.TileSize
	return image.Rect(tiles.Min.X*ts, tiles.Min.Y*ts, tiles.Max.X*ts, tiles.Max.Y*ts)
}

// Window returns the tile rectangle covered by the grid.
func (c *Coordinator) Window() image.Rectangle {
	return c.tileWindow
}

// LuxelSize returns the edge of one luxel in world pixels.
func (c *Coordinator) LuxelSize() float64 {
	return float64(c.opts.TileSize) / float64(c.opts.Divisions)
}

// LuxelAt returns the window-relative luxel (lx, ly).
func (c *Coordinator) LuxelAt(lx, ly int) (Luxel, bool) {
	return c.grid.At(lx, ly)
}

// GridSize returns the luxel grid dimensions.
func (c *Coordinator) GridSize() (width, height int) {
	return c.grid.Size()
}

// ShadeAt returns the background shade of the window-relative tile (tx, ty).
func (c *Coordinator) ShadeAt(tx, ty int) color.NRGBA {
	w := c.tileWindow.Dx()
	if tx < 0 || ty < 0 || tx >= w || ty >= c.tileWindow.Dy() || ty*w+tx >= len(c.shades) {
		return color.NRGBA{}
	}
	return c.shades[ty*w+tx]
}

// IntensityAtWorld returns the light level at a world pixel, 0 outside the window.
func (c *Coordinator) IntensityAtWorld(x, y float64) float64 {
	ls := c.LuxelSize()
	if ls <= 0 {
		return 0
	}
	div := c.opts.Divisions
	lx := int(math.Floor(x/ls)) - c.tileWindow.Min.X*div
	ly := int(math.Floor(y/ls)) - c.tileWindow.Min.Y*div
	return c.grid.Level(lx, ly)
}

// Stats returns information about the last rebuild.
func (c *Coordinator) Stats() Stats {
	return c.stats
}
