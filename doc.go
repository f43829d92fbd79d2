// Package flourish is a scroll-driven motion layer for pages rendered with
// [Ebitengine].
//
// Flourish provides the scene graph, scroll camera, pointer input and the
// effects a modern landing page is made of: sections that animate in when
// they scroll into view, cards that tilt toward the pointer on springs,
// hover lifts, and idle float loops.
//
// # Quick start
//
// The simplest way to get started is [Run], which creates a window and game
// loop for you:
//
//	scene := flourish.NewScene()
//	page, err := layout.Build(scene)
//	// ...
//	flourish.Run(scene, flourish.RunConfig{
//		Title: "Landing", Width: 1280, Height: 720,
//	})
//
// For full control, implement [ebiten.Game] yourself and call
// [Scene.Update] and [Scene.Draw] directly:
//
//	type Game struct{ scene *flourish.Scene }
//
//	func (g *Game) Update() error         { g.scene.Update(); return nil }
//	func (g *Game) Draw(s *ebiten.Image)  { g.scene.Draw(s) }
//	func (g *Game) Layout(w, h int) (int, int) { return w, h }
//
// # Scene graph
//
// Every element is a [Node]. Nodes form a tree rooted at [Scene.Root].
// Children inherit their parent's transform and alpha. Create nodes with
// [NewContainer], [NewBox] and [NewCard].
//
// A node has two sets of fields. Layout fields (X, Y, Width, Height, scale,
// rotation) decide where it is for hit testing and for visibility triggers.
// Presentation fields (Alpha, OffsetY, RevealScale, TiltX, HoverY, ...) only
// change how it is drawn, so an element sliding in never moves its own
// trigger line.
//
// # Effects
//
// [Scene.UseInView] reports whether a node intersects the viewport, with a
// CSS-style margin, an optional visible fraction and a once latch.
// [Scene.UseReveal] builds on it to stagger a container's children from a
// hidden [Variant] to a visible one. [Scene.UseTilt] and [Scene.UseHover]
// attach spring-driven pointer effects, and [NewFloatLoop] bobs a node
// forever. Every effect is released by its Close or Detach method, or
// automatically when its node is disposed.
//
// # Layouts
//
// A [Layout] describes a whole page in YAML: sections, card grids and the
// effects on each. [LoadLayout] parses a file, [Layout.Build] mounts it, and
// [WatchLayout] reloads it when the file changes on disk.
//
// # Testing
//
// [Scene.UpdateDelta] advances the scene by a fixed step, and the Inject*
// methods feed synthetic pointer and scroll input, so effects can be tested
// without a window. [LoadTestScript] drives the same input from JSON and
// captures screenshots.
//
// [Ebitengine]: https://ebitengine.org
package flourish
