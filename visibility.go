package flourish

import (
	"errors"
	"fmt"
)

// ErrEnvironmentUnavailable is reported by InViewTrigger.Err when a trigger
// has nothing to observe against: no scene, no camera or screen size, or no
// element. Such triggers report in view so content is never left hidden.
var ErrEnvironmentUnavailable = errors.New("flourish: viewport observation unavailable")

// ErrInvalidElement is reported when a trigger is created for a nil or
// disposed node.
var ErrInvalidElement = errors.New("flourish: invalid element reference")

// ErrDetachedElement is reported while an observed node is not attached to
// the scene tree. It wraps ErrInvalidElement. Detached nodes read out of view
// and are evaluated again once attached.
var ErrDetachedElement = fmt.Errorf("%w: node is not attached to the scene", ErrInvalidElement)

// InViewOptions configures a visibility trigger.
type InViewOptions struct {
	// Margin grows (positive) or shrinks (negative) the viewport on each side
	// before testing. A margin of -100 flips the trigger only once the element
	// is 100 units inside the viewport.
	Margin Margin
	// Once latches the trigger: after the first crossing into view it stays
	// true for the rest of its life.
	Once bool
	// Amount is the fraction of the element's area that must be inside the
	// viewport, in [0, 1]. Zero means any overlap, including touching edges.
	Amount float64
}

// InViewTrigger reports whether a node's layout box intersects the viewport.
// It is evaluated on creation and then once per Scene.Update, after cameras
// have moved.
type InViewTrigger struct {
	scene *Scene
	node  *Node
	opts  InViewOptions

	inView    bool
	latched   bool
	closed    bool
	err       error
	listeners []func(bool)
}

// UseInView starts observing node. The returned trigger already holds the
// correct value for the current scroll position, so an element that is on
// screen at mount reads true immediately.
//
// UseInView is safe on a nil Scene and with a nil node: the trigger then
// fails open and always reports true.
func (s *Scene) UseInView(node *Node, opts InViewOptions) *InViewTrigger {
	opts.Amount = clamp01(opts.Amount)
	t := &InViewTrigger{scene: s, node: node, opts: opts}
	switch {
	case s == nil:
		t.failOpen(ErrEnvironmentUnavailable)
		return t
	case !usable(node):
		t.failOpen(ErrInvalidElement)
		return t
	}
	if s.attached(node) {
		refreshTransforms(node)
	}
	t.evaluate()
	s.triggers = append(s.triggers, t)
	return t
}

// InView reports the current state.
func (t *InViewTrigger) InView() bool {
	return t.inView
}

// Node returns the observed node.
func (t *InViewTrigger) Node() *Node {
	return t.node
}

// Err returns why the trigger fell back to always-visible, or nil.
func (t *InViewTrigger) Err() error {
	return t.err
}

// OnChange registers fn to be called with the new state each time it
// changes. A latched trigger calls fn at most once.
func (t *InViewTrigger) OnChange(fn func(inView bool)) {
	t.listeners = append(t.listeners, fn)
}

// Close stops observation. The last state is kept. Safe to call twice.
func (t *InViewTrigger) Close() {
	if t.closed {
		return
	}
	t.closed = true
	t.listeners = nil
	if t.scene != nil {
		t.scene.removeTrigger(t)
	}
}

// Closed reports whether Close has been called or the node was disposed.
func (t *InViewTrigger) Closed() bool {
	return t.closed
}

func (t *InViewTrigger) failOpen(err error) {
	if t.err == nil {
		debugf("in-view trigger fails open: %v", err)
	}
	t.err = err
	t.set(true)
}

// evaluate recomputes the state from the node's layout bounds.
func (t *InViewTrigger) evaluate() {
	if t.closed || t.latched {
		return
	}
	vp, ok := t.scene.viewportBounds()
	if !ok {
		t.failOpen(ErrEnvironmentUnavailable)
		return
	}
	if !t.scene.attached(t.node) {
		if t.err == nil {
			debugf("in-view trigger waiting: %v", ErrDetachedElement)
		}
		t.err = ErrDetachedElement
		t.set(false)
		return
	}
	t.err = nil
	t.set(intersectsView(t.node.WorldBounds(), vp.Expand(t.opts.Margin), t.opts.Amount))
}

// intersectsView applies the observation rule: the root must be non-empty and
// the element must overlap it, by at least amount of its area when amount > 0.
func intersectsView(bounds, root Rect, amount float64) bool {
	if !bounds.Intersects(root) {
		return false
	}
	if amount <= 0 {
		return true
	}
	area := bounds.Area()
	if area == 0 {
		return true
	}
	return bounds.Intersection(root).Area()/area >= amount
}

func (t *InViewTrigger) set(v bool) {
	if t.latched || v == t.inView {
		return
	}
	t.inView = v
	if v && t.opts.Once {
		t.latched = true
	}
	if t.scene != nil && t.node != nil {
		ev := EventHide
		if v {
			ev = EventReveal
		}
		t.scene.emitVisibilityEvent(ev, t.node)
	}
	for _, fn := range append(([]func(bool))(nil), t.listeners...) {
		fn(v)
	}
}

// --- Scene side ---

// viewportBounds returns the world rectangle triggers observe against: the
// primary camera's visible area, else the screen size reported by Layout.
func (s *Scene) viewportBounds() (Rect, bool) {
	if s == nil {
		return Rect{}, false
	}
	if cam := s.primaryCamera(); cam != nil {
		return cam.VisibleBounds(), true
	}
	if s.screenW > 0 && s.screenH > 0 {
		return Rect{Width: s.screenW, Height: s.screenH}, true
	}
	return Rect{}, false
}

// attached reports whether n hangs under the scene root.
func (s *Scene) attached(n *Node) bool {
	return isAncestor(s.root, n)
}

// SetScreenSize records the logical screen size. Without a camera, triggers
// observe against this rectangle anchored at the origin.
func (s *Scene) SetScreenSize(w, h float64) {
	s.screenW = w
	s.screenH = h
}

// ObserverCount returns the number of live visibility triggers.
func (s *Scene) ObserverCount() int {
	return len(s.triggers)
}

func (s *Scene) removeTrigger(t *InViewTrigger) {
	for i, c := range s.triggers {
		if c == t {
			copy(s.triggers[i:], s.triggers[i+1:])
			s.triggers[len(s.triggers)-1] = nil
			s.triggers = s.triggers[:len(s.triggers)-1]
			return
		}
	}
}

// evaluateTriggers runs every live trigger. Triggers on disposed nodes close.
func (s *Scene) evaluateTriggers() {
	for _, t := range append([]*InViewTrigger(nil), s.triggers...) {
		if t.closed {
			continue
		}
		if !usable(t.node) {
			t.Close()
			continue
		}
		t.evaluate()
	}
}

func (s *Scene) emitVisibilityEvent(ev EventType, n *Node) {
	if s.store == nil || n.EntityID == 0 {
		return
	}
	b := n.WorldBounds()
	s.store.EmitEvent(InteractionEvent{
		Type:     ev,
		EntityID: n.EntityID,
		GlobalX:  b.X,
		GlobalY:  b.Y,
	})
}
