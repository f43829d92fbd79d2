package flourish

// DefaultMaxTilt is the default rotation at the edge of a card, in degrees.
const DefaultMaxTilt = 12.0

// PointerSample is a pointer position relative to an element's box, with the
// center at (0, 0) and the edges at -0.5 and 0.5.
type PointerSample struct {
	X, Y float64
}

// NormalizePointer maps the world point (x, y) into bounds. Results are
// clamped to [-0.5, 0.5], so a pointer outside the box reads as the nearest
// edge. ok is false when bounds has no area.
func NormalizePointer(bounds Rect, x, y float64) (PointerSample, bool) {
	if bounds.Width <= 0 || bounds.Height <= 0 {
		return PointerSample{}, false
	}
	return PointerSample{
		X: clamp((x-bounds.X)/bounds.Width-0.5, -0.5, 0.5),
		Y: clamp((y-bounds.Y)/bounds.Height-0.5, -0.5, 0.5),
	}, true
}

// TiltConfig configures a TiltTracker.
type TiltConfig struct {
	// Spring smooths both axes. Zero selects DefaultTiltSpring.
	Spring SpringConfig
	// MaxAngle is the rotation in degrees when the pointer is at an edge.
	// Zero selects DefaultMaxTilt.
	MaxAngle float64
}

// TiltTracker turns pointer positions over a node into a spring-smoothed 3D
// tilt. Moving right rotates the card around its vertical axis toward the
// pointer; moving down rotates it around its horizontal axis.
type TiltTracker struct {
	scene *Scene
	node  *Node
	max   float64

	x, y    *DampedValue
	sample  PointerSample
	hovered bool

	handles  []CallbackHandle
	detached bool
}

// NewTiltTracker creates a tracker for node that is not attached to any
// scene. Feed it through the OnPointer* bindings and advance it with Update.
func NewTiltTracker(node *Node, cfg TiltConfig) *TiltTracker {
	if cfg.MaxAngle <= 0 {
		cfg.MaxAngle = DefaultMaxTilt
	}
	spring, clamped := cfg.Spring.normalized(DefaultTiltSpring)
	if clamped {
		debugf("tilt spring out of range, clamped to k=%.2f c=%.2f", spring.Stiffness, spring.Damping)
	}
	return &TiltTracker{
		node: node,
		max:  cfg.MaxAngle,
		x:    NewDampedValue(0, spring),
		y:    NewDampedValue(0, spring),
	}
}

// UseTilt creates a TiltTracker for node, registers its pointer bindings on
// the node and steps it every Scene.Update. Call Detach to release it.
//
// On a nil Scene the tracker is returned unbound: nothing feeds or steps it
// unless the caller does.
func (s *Scene) UseTilt(node *Node, cfg TiltConfig) *TiltTracker {
	t := NewTiltTracker(node, cfg)
	if s == nil {
		return t
	}
	t.scene = s
	if node != nil {
		node.Interactable = true
		t.handles = append(t.handles,
			s.AddPointerListener(node, EventPointerMove, t.OnPointerMove),
			s.AddPointerListener(node, EventPointerEnter, t.OnPointerEnter),
			s.AddPointerListener(node, EventPointerLeave, t.OnPointerLeave),
		)
	}
	s.tilts = append(s.tilts, t)
	return t
}

// OnPointerMove samples the pointer against the node's current bounds and
// retargets both springs. Samples are ignored while the node is nil or
// disposed.
func (t *TiltTracker) OnPointerMove(ctx PointerContext) {
	if t.detached {
		return
	}
	if !usable(t.node) {
		debugf("tilt sample ignored: no element")
		return
	}
	sample, ok := NormalizePointer(t.node.WorldBounds(), ctx.GlobalX, ctx.GlobalY)
	if !ok {
		return
	}
	t.sample = sample
	t.x.SetTarget(sample.X)
	t.y.SetTarget(sample.Y)
}

// OnPointerEnter marks the tracker hovered and takes a first sample.
func (t *TiltTracker) OnPointerEnter(ctx PointerContext) {
	if t.detached {
		return
	}
	t.hovered = true
	t.OnPointerMove(ctx)
}

// OnPointerLeave resets both targets to center. The springs carry the card
// back rather than snapping.
func (t *TiltTracker) OnPointerLeave(PointerContext) {
	if t.detached {
		return
	}
	t.hovered = false
	t.sample = PointerSample{}
	t.x.SetTarget(0)
	t.y.SetTarget(0)
}

// Update advances both springs by dt seconds and writes the rotation to the
// node's TiltX and TiltY.
func (t *TiltTracker) Update(dt float64) {
	if t.detached {
		return
	}
	t.x.Step(dt)
	t.y.Step(dt)
	if usable(t.node) {
		t.node.TiltX = t.RotateX()
		t.node.TiltY = t.RotateY()
	}
}

// RotateX returns the rotation around the horizontal axis in degrees:
// +MaxAngle with the pointer at the top edge, -MaxAngle at the bottom.
func (t *TiltTracker) RotateX() float64 {
	return -2 * t.max * clamp(t.y.Value(), -0.5, 0.5)
}

// RotateY returns the rotation around the vertical axis in degrees:
// -MaxAngle with the pointer at the left edge, +MaxAngle at the right.
// A spring retargeted mid-flight can overshoot, so both rotations are
// clamped to MaxAngle.
func (t *TiltTracker) RotateY() float64 {
	return 2 * t.max * clamp(t.x.Value(), -0.5, 0.5)
}

// Sample returns the most recent raw pointer sample.
func (t *TiltTracker) Sample() PointerSample {
	return t.sample
}

// Damped returns the smoothed X and Y axes. They may briefly overshoot
// [-0.5, 0.5] after a retarget.
func (t *TiltTracker) Damped() (x, y float64) {
	return t.x.Value(), t.y.Value()
}

// Hovered reports whether the pointer is over the node.
func (t *TiltTracker) Hovered() bool {
	return t.hovered
}

// AtRest reports whether both springs have settled.
func (t *TiltTracker) AtRest() bool {
	return t.x.AtRest() && t.y.AtRest()
}

// Node returns the tracked node.
func (t *TiltTracker) Node() *Node {
	return t.node
}

// Detach removes the tracker's pointer listeners and stops stepping it. The
// node is returned to a flat pose. Safe to call more than once, and between
// updates while a spring step is still pending.
func (t *TiltTracker) Detach() {
	if t.detached {
		return
	}
	t.detached = true
	for _, h := range t.handles {
		h.Remove()
	}
	t.handles = nil
	if usable(t.node) {
		t.node.TiltX = 0
		t.node.TiltY = 0
	}
	if t.scene != nil {
		t.scene.removeTilt(t)
	}
}

// Detached reports whether Detach has been called.
func (t *TiltTracker) Detached() bool {
	return t.detached
}

func (s *Scene) removeTilt(t *TiltTracker) {
	for i, c := range s.tilts {
		if c == t {
			copy(s.tilts[i:], s.tilts[i+1:])
			s.tilts[len(s.tilts)-1] = nil
			s.tilts = s.tilts[:len(s.tilts)-1]
			return
		}
	}
}
