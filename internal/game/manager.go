package game

import (
	"image/color"

	"chosenoffset.com/emberfall/internal/render"
)

// Manager wraps the game with the pause screen and window resizing.
type Manager struct {
	ScreenWidth  int
	ScreenHeight int
	Game         *Game
	Renderer     render.Renderer
	InputMgr     render.InputManager
}

// NewManager creates a new game manager.
func NewManager(g *Game, width, height int) *Manager {
	return &Manager{
		ScreenWidth:  width,
		ScreenHeight: height,
		Game:         g,
		Renderer:     g.Renderer,
		InputMgr:     g.InputMgr,
	}
}

// Update updates the game state.
func (m *Manager) Update() error {
	if m.InputMgr != nil && m.InputMgr.IsKeyJustPressed(render.KeyEscape) {
		m.Game.Paused = !m.Game.Paused
	}
	return m.Game.Update()
}

// Draw draws the current state.
func (m *Manager) Draw(screen render.Image) {
	m.Game.Draw(screen)
	if m.Game.Paused {
		sw, sh := screen.Size()
		text := "Paused (press ESC to resume)"
		w, _ := m.Renderer.MeasureText(text, 1.5)
		m.Renderer.FillRect(screen, 0, 0, float32(sw), float32(sh), color.NRGBA{0, 0, 0, 140})
		m.Renderer.DrawText(screen, text, (sw-w)/2, sh/2, color.RGBA{255, 255, 255, 255}, 1.5)
	}
}

// Layout handles window resize.
func (m *Manager) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != m.ScreenWidth || outsideHeight != m.ScreenHeight {
		m.ScreenWidth = outsideWidth
		m.ScreenHeight = outsideHeight
		m.Game.ScreenWidth = outsideWidth
		m.Game.ScreenHeight = outsideHeight
		m.Game.UpdateCamera()
	}
	return outsideWidth, outsideHeight
}
