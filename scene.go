package flourish

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// EntityStore is the interface for optional ECS integration.
// When set on a Scene, interaction and visibility events are forwarded to the ECS.
type EntityStore interface {
	EmitEvent(event InteractionEvent)
}

// InteractionEvent carries interaction data for the ECS bridge. For
// EventReveal and EventHide, GlobalX and GlobalY hold the top-left corner of
// the node's layout box.
type InteractionEvent struct {
	Type      EventType
	EntityID  uint32
	GlobalX   float64
	GlobalY   float64
	LocalX    float64
	LocalY    float64
	Button    MouseButton
	Modifiers KeyModifiers
}

// Scene is the top-level object that owns the node tree, cameras, input state,
// and every effect attached to its nodes.
type Scene struct {
	root  *Node
	store EntityStore
	debug bool

	// ClearColor fills the screen before drawing when its alpha is non-zero.
	ClearColor Color
	// ScreenshotDir is where Screenshot writes PNG files.
	ScreenshotDir string
	// WheelScroll is how far one mouse wheel notch scrolls the primary camera.
	WheelScroll float64

	// Cameras
	cameras []*Camera

	// Screen size from Layout, used when there is no camera.
	screenW, screenH float64

	// Effects
	triggers []*InViewTrigger
	tilts    []*TiltTracker
	hovers   []*HoverEffect
	reveals  []*RevealGroup
	tweens   []Animator

	// Input state
	handlers      handlerRegistry
	pointer       pointerState
	hitBuf        []*Node
	pointerSource PointerSource
	synthetic     bool
	injectQueue   []syntheticPointerEvent

	// Render state
	verts       []ebiten.Vertex
	inds        []uint16
	poses       []pose
	cullBounds  Rect
	cullActive  bool
	lastUpdate  time.Duration
	frameQuads  int
	frameCulled int

	updateFunc      func() error
	testRunner      *TestRunner
	screenshotQueue []pageCapture
}

// NewScene creates a new scene with a pre-created root container.
func NewScene() *Scene {
	root := NewContainer("root")
	return &Scene{
		root:          root,
		ScreenshotDir: "screenshots",
		WheelScroll:   defaultWheelScroll,
		pointerSource: ebitenPointer{},
	}
}

// Root returns the scene's root container node.
func (s *Scene) Root() *Node {
	return s.root
}

// Update advances the scene by one tick at the current Ebitengine TPS.
func (s *Scene) Update() {
	s.UpdateDelta(1.0 / float64(ebiten.TPS()))
}

// UpdateDelta advances the scene by dt seconds: scripted test steps, input,
// camera scrolling, visibility triggers, tweens and springs, in that order.
// Tests drive the scene with fixed steps through this method.
func (s *Scene) UpdateDelta(dt float64) {
	var t0 time.Time
	if s.debug {
		t0 = time.Now()
	}

	s.pruneDisposed()

	// Refresh world transforms first so hit testing and observation see
	// positions set since the last frame.
	updateWorldTransform(s.root, identityTransform, 1.0, false)

	if s.testRunner != nil {
		s.testRunner.step(s)
	}
	s.processInput()

	for _, cam := range s.cameras {
		cam.update(float32(dt))
	}

	s.evaluateTriggers()

	for _, g := range append([]*RevealGroup(nil), s.reveals...) {
		g.Update(float32(dt))
	}
	s.updateTweens(float32(dt))
	for _, t := range s.tilts {
		t.Update(dt)
	}
	for _, h := range s.hovers {
		h.Update(dt)
	}

	if s.debug {
		s.lastUpdate = time.Since(t0)
	}
}

// AddTween hands an animation to the scene, which advances it every update
// and drops it when it finishes.
func (s *Scene) AddTween(a Animator) {
	s.tweens = append(s.tweens, a)
}

// TweenCount returns the number of running scene-owned animations.
func (s *Scene) TweenCount() int {
	return len(s.tweens)
}

func (s *Scene) updateTweens(dt float32) {
	running := append([]Animator(nil), s.tweens...)
	for _, a := range running {
		a.Update(dt)
	}
	kept := s.tweens[:0]
	for _, a := range s.tweens {
		if !a.Finished() {
			kept = append(kept, a)
		}
	}
	clear(s.tweens[len(kept):])
	s.tweens = kept
}

// pruneDisposed releases every effect whose node has been disposed.
func (s *Scene) pruneDisposed() {
	s.handlers.prune()
	for _, t := range append([]*TiltTracker(nil), s.tilts...) {
		if t.node != nil && t.node.disposed {
			t.Detach()
		}
	}
	for _, h := range append([]*HoverEffect(nil), s.hovers...) {
		if h.node != nil && h.node.disposed {
			h.Detach()
		}
	}
	for _, g := range append([]*RevealGroup(nil), s.reveals...) {
		if g.container.disposed {
			g.Close()
		}
	}
	for _, t := range append([]*InViewTrigger(nil), s.triggers...) {
		if t.node != nil && t.node.disposed {
			t.Close()
		}
	}
}

// primaryCamera returns the first camera, which drives scrolling, pointer
// conversion and visibility triggers.
func (s *Scene) primaryCamera() *Camera {
	if len(s.cameras) == 0 {
		return nil
	}
	return s.cameras[0]
}

// NewCamera creates a camera with the given viewport and adds it to the scene.
func (s *Scene) NewCamera(viewport Rect) *Camera {
	cam := newCamera(viewport)
	s.cameras = append(s.cameras, cam)
	return cam
}

// RemoveCamera removes a camera from the scene.
func (s *Scene) RemoveCamera(cam *Camera) {
	for i, c := range s.cameras {
		if c == cam {
			s.cameras = append(s.cameras[:i], s.cameras[i+1:]...)
			return
		}
	}
}

// Cameras returns the scene's camera list. The returned slice MUST NOT be mutated.
func (s *Scene) Cameras() []*Camera {
	return s.cameras
}

// SetEntityStore sets the optional ECS bridge.
func (s *Scene) SetEntityStore(store EntityStore) {
	s.store = store
}

// SetUpdateFunc sets a callback run by Run after every scene update. A
// non-nil error ends the game loop.
func (s *Scene) SetUpdateFunc(fn func() error) {
	s.updateFunc = fn
}

// SetDebugMode enables or disables debug mode. When enabled, disposed-node
// access panics, tree depth and child count warnings are printed, clamped
// configuration and fail-open triggers are reported, and per-frame timing
// stats are logged to stderr.
func (s *Scene) SetDebugMode(enabled bool) {
	s.debug = enabled
	globalDebug = enabled
}

// globalDebug mirrors the most recently set Scene debug flag so that node
// operations (which lack a Scene pointer) can check it cheaply. Only valid
// with a single Scene; multiple Scenes with differing debug modes will
// reflect whichever called SetDebugMode last.
var globalDebug bool
