package flourish

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// RunConfig configures the window opened by Run.
type RunConfig struct {
	Title   string
	Width   int
	Height  int
	ShowFPS bool
	// Resizable lets the user resize the window. The primary camera's
	// viewport follows the window size.
	Resizable bool
}

// Run opens a window and drives scene with Ebitengine until the window is
// closed or the scene's update func returns an error. When the scene has no
// camera, one covering the window is created so the page can scroll.
func Run(scene *Scene, cfg RunConfig) error {
	if cfg.Width <= 0 {
		cfg.Width = 1280
	}
	if cfg.Height <= 0 {
		cfg.Height = 720
	}
	if cfg.Title == "" {
		cfg.Title = "flourish"
	}
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	if cfg.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	if len(scene.cameras) == 0 {
		scene.NewCamera(Rect{Width: float64(cfg.Width), Height: float64(cfg.Height)})
	}
	scene.SetScreenSize(float64(cfg.Width), float64(cfg.Height))
	if err := ebiten.RunGame(&game{scene: scene, cfg: cfg}); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}

// game adapts a Scene to ebiten.Game.
type game struct {
	scene *Scene
	cfg   RunConfig
}

func (g *game) Update() error {
	g.scene.Update()
	if g.scene.updateFunc != nil {
		return g.scene.updateFunc()
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	g.scene.Draw(screen)
	if g.cfg.ShowFPS {
		drawFPS(screen)
	}
}

// Layout tracks the window size. The primary camera keeps its scroll
// position and grows or shrinks its viewport to match.
func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	w, h := float64(outsideWidth), float64(outsideHeight)
	if w != g.scene.screenW || h != g.scene.screenH {
		g.scene.SetScreenSize(w, h)
		if cam := g.scene.primaryCamera(); cam != nil {
			top := cam.ScrollTop()
			cam.Viewport = Rect{Width: w, Height: h}
			cam.X = w / (2 * cam.Zoom)
			cam.SetScrollTop(top)
		}
	}
	return outsideWidth, outsideHeight
}

// fpsImage is the overlay drawn by ShowFPS, refreshed every half second.
var (
	fpsImage   *ebiten.Image
	fpsElapsed float64
)

// drawFPS prints the current FPS and TPS over a translucent strip in the
// top-left corner.
func drawFPS(screen *ebiten.Image) {
	if fpsImage == nil {
		// 100x32 is enough for "FPS: 60.0\nTPS: 60.0"
		fpsImage = ebiten.NewImage(100, 32)
		fpsElapsed = 0.5
	}
	fpsElapsed += 1 / float64(ebiten.TPS())
	if fpsElapsed >= 0.5 {
		fpsElapsed = 0
		fpsImage.Fill(color.RGBA{0, 0, 0, 128})
		ebitenutil.DebugPrint(fpsImage, fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS()))
	}
	screen.DrawImage(fpsImage, nil)
}
