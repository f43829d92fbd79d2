package flourish

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// defaultWheelScroll is how many world units one wheel notch scrolls.
const defaultWheelScroll = 60.0

// --- Built-in HitShape types ---

// HitRect is an axis-aligned rectangular hit area in local coordinates.
type HitRect struct {
	X, Y, Width, Height float64
}

// Contains reports whether (x, y) lies inside the rectangle.
func (r HitRect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// HitCircle is a circular hit area in local coordinates.
type HitCircle struct {
	CenterX, CenterY, Radius float64
}

// Contains reports whether (x, y) lies inside or on the circle.
func (c HitCircle) Contains(x, y float64) bool {
	dx := x - c.CenterX
	dy := y - c.CenterY
	return dx*dx+dy*dy <= c.Radius*c.Radius
}

// --- Pointer source ---

// PointerSource reports the state of the primary pointer once per frame.
// ok is false when no pointer is over the window. Wheel is positive when
// scrolling up.
type PointerSource interface {
	Pointer() (x, y float64, pressed bool, button MouseButton, ok bool)
	Wheel() float64
	Modifiers() KeyModifiers
}

// ebitenPointer reads the mouse through Ebitengine.
type ebitenPointer struct{}

func (ebitenPointer) Pointer() (float64, float64, bool, MouseButton, bool) {
	mx, my := ebiten.CursorPosition()
	switch {
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
		return float64(mx), float64(my), true, MouseButtonLeft, true
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight):
		return float64(mx), float64(my), true, MouseButtonRight, true
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonMiddle):
		return float64(mx), float64(my), true, MouseButtonMiddle, true
	}
	return float64(mx), float64(my), false, MouseButtonLeft, true
}

func (ebitenPointer) Wheel() float64 {
	_, dy := ebiten.Wheel()
	return dy
}

func (ebitenPointer) Modifiers() KeyModifiers {
	return readModifiers()
}

// SetPointerSource replaces the pointer source. Pass nil to disable real
// pointer input entirely (injected events still work).
func (s *Scene) SetPointerSource(src PointerSource) {
	s.pointerSource = src
}

// --- Per-pointer state ---

type pointerState struct {
	down      bool
	present   bool
	lastX     float64
	lastY     float64
	hitNode   *Node
	hoverPath []*Node // hovered node first, then its ancestors
	button    MouseButton
}

// --- Handler registry ---

// pointerHandler is a registered listener. node == nil means scene-level.
type pointerHandler struct {
	id      uint32
	node    *Node
	fn      func(PointerContext)
	removed bool
}

type clickHandler struct {
	id      uint32
	node    *Node
	fn      func(ClickContext)
	removed bool
}

type handlerRegistry struct {
	pointerDown  []*pointerHandler
	pointerUp    []*pointerHandler
	pointerMove  []*pointerHandler
	pointerEnter []*pointerHandler
	pointerLeave []*pointerHandler
	click        []*clickHandler
	nextID       uint32
}

func (r *handlerRegistry) pointerList(event EventType) *[]*pointerHandler {
	switch event {
	case EventPointerDown:
		return &r.pointerDown
	case EventPointerUp:
		return &r.pointerUp
	case EventPointerMove:
		return &r.pointerMove
	case EventPointerEnter:
		return &r.pointerEnter
	case EventPointerLeave:
		return &r.pointerLeave
	}
	return nil
}

func (r *handlerRegistry) count() int {
	return len(r.pointerDown) + len(r.pointerUp) + len(r.pointerMove) +
		len(r.pointerEnter) + len(r.pointerLeave) + len(r.click)
}

// prune drops every listener scoped to a disposed node.
func (r *handlerRegistry) prune() {
	for _, list := range []*[]*pointerHandler{&r.pointerDown, &r.pointerUp, &r.pointerMove, &r.pointerEnter, &r.pointerLeave} {
		kept := (*list)[:0]
		for _, h := range *list {
			if h.node != nil && h.node.disposed {
				h.removed = true
				continue
			}
			kept = append(kept, h)
		}
		clear((*list)[len(kept):])
		*list = kept
	}
	kept := r.click[:0]
	for _, h := range r.click {
		if h.node != nil && h.node.disposed {
			h.removed = true
			continue
		}
		kept = append(kept, h)
	}
	clear(r.click[len(kept):])
	r.click = kept
}

// CallbackHandle allows removing a registered listener.
type CallbackHandle struct {
	id    uint32
	reg   *handlerRegistry
	event EventType
}

// Remove unregisters this listener so it no longer fires. Safe to call from
// inside a handler that is currently being dispatched, and safe to call twice.
func (h CallbackHandle) Remove() {
	if h.reg == nil {
		return
	}
	if h.event == EventClick {
		h.reg.click = removeClickHandler(h.reg.click, h.id)
		return
	}
	if list := h.reg.pointerList(h.event); list != nil {
		*list = removePointerHandler(*list, h.id)
	}
}

func removePointerHandler(s []*pointerHandler, id uint32) []*pointerHandler {
	for i := range s {
		if s[i].id == id {
			s[i].removed = true
			copy(s[i:], s[i+1:])
			s[len(s)-1] = nil
			return s[:len(s)-1]
		}
	}
	return s
}

func removeClickHandler(s []*clickHandler, id uint32) []*clickHandler {
	for i := range s {
		if s[i].id == id {
			s[i].removed = true
			copy(s[i:], s[i+1:])
			s[len(s)-1] = nil
			return s[:len(s)-1]
		}
	}
	return s
}

// --- Listener registration ---

// AddPointerListener registers fn for a pointer event scoped to node.
// Move events bubble, so a listener on a card also fires while the pointer
// is over the card's children. Enter and leave follow DOM mouseenter and
// mouseleave semantics: moving between a node's descendants does not leave it.
// A nil node registers a scene-level listener.
func (s *Scene) AddPointerListener(node *Node, event EventType, fn func(PointerContext)) CallbackHandle {
	list := s.handlers.pointerList(event)
	if list == nil {
		panic("flourish: not a pointer event")
	}
	s.handlers.nextID++
	id := s.handlers.nextID
	*list = append(*list, &pointerHandler{id: id, node: node, fn: fn})
	return CallbackHandle{id: id, reg: &s.handlers, event: event}
}

// AddClickListener registers fn for clicks on node (or anywhere, when node is nil).
func (s *Scene) AddClickListener(node *Node, fn func(ClickContext)) CallbackHandle {
	s.handlers.nextID++
	id := s.handlers.nextID
	s.handlers.click = append(s.handlers.click, &clickHandler{id: id, node: node, fn: fn})
	return CallbackHandle{id: id, reg: &s.handlers, event: EventClick}
}

// OnPointerMove registers a scene-level callback for pointer move events.
func (s *Scene) OnPointerMove(fn func(PointerContext)) CallbackHandle {
	return s.AddPointerListener(nil, EventPointerMove, fn)
}

// OnPointerEnter registers a scene-level callback fired for every node the
// pointer enters.
func (s *Scene) OnPointerEnter(fn func(PointerContext)) CallbackHandle {
	return s.AddPointerListener(nil, EventPointerEnter, fn)
}

// OnPointerLeave registers a scene-level callback fired for every node the
// pointer leaves.
func (s *Scene) OnPointerLeave(fn func(PointerContext)) CallbackHandle {
	return s.AddPointerListener(nil, EventPointerLeave, fn)
}

// OnClick registers a scene-level callback for click events.
func (s *Scene) OnClick(fn func(ClickContext)) CallbackHandle {
	return s.AddClickListener(nil, fn)
}

// ListenerCount returns the number of registered listeners of every kind.
// Per-node callback fields are not counted.
func (s *Scene) ListenerCount() int {
	return s.handlers.count()
}

// --- Hit testing ---

// nodeContainsLocal tests whether (lx, ly) falls inside a node's hit region.
// Uses HitShape if set; otherwise the Width x Height box.
func nodeContainsLocal(n *Node, lx, ly float64) bool {
	if n.HitShape != nil {
		return n.HitShape.Contains(lx, ly)
	}
	if n.Width == 0 && n.Height == 0 {
		return false
	}
	return lx >= 0 && lx <= n.Width && ly >= 0 && ly <= n.Height
}

// collectInteractable walks the tree in painter order, appending
// interactable nodes to buf. Skips invisible subtrees.
func collectInteractable(n *Node, buf []*Node) []*Node {
	if !n.Visible {
		return buf
	}
	if n.Interactable {
		buf = append(buf, n)
	}
	for _, child := range paintOrder(n) {
		buf = collectInteractable(child, buf)
	}
	return buf
}

// hitTest finds the topmost interactable node at (worldX, worldY).
func (s *Scene) hitTest(worldX, worldY float64) *Node {
	s.hitBuf = collectInteractable(s.root, s.hitBuf[:0])
	for i := len(s.hitBuf) - 1; i >= 0; i-- {
		n := s.hitBuf[i]
		lx, ly := n.WorldToLocal(worldX, worldY)
		if nodeContainsLocal(n, lx, ly) {
			return n
		}
	}
	return nil
}

// --- Input processing ---

// readModifiers reads the current keyboard modifier state.
func readModifiers() KeyModifiers {
	var mods KeyModifiers
	if ebiten.IsKeyPressed(ebiten.KeyShift) {
		mods |= ModShift
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) {
		mods |= ModCtrl
	}
	if ebiten.IsKeyPressed(ebiten.KeyAlt) {
		mods |= ModAlt
	}
	if ebiten.IsKeyPressed(ebiten.KeyMeta) {
		mods |= ModMeta
	}
	return mods
}

// screenToWorld converts screen coordinates to world coordinates using the primary camera.
func screenToWorld(cam *Camera, sx, sy float64) (float64, float64) {
	if cam != nil {
		return cam.ScreenToWorld(sx, sy)
	}
	return sx, sy
}

// processInput is called from Scene.Update to handle wheel scrolling and
// the primary pointer. Injected events take priority over real input.
func (s *Scene) processInput() {
	cam := s.primaryCamera()

	if s.processInjectedInput(cam) {
		return
	}
	if s.synthetic || s.pointerSource == nil {
		return
	}

	if wy := s.pointerSource.Wheel(); wy != 0 && cam != nil {
		cam.ScrollBy(-wy * s.WheelScroll)
	}

	mods := s.pointerSource.Modifiers()
	sx, sy, pressed, button, ok := s.pointerSource.Pointer()
	wx, wy := screenToWorld(cam, sx, sy)
	s.processPointer(wx, wy, sx, sy, pressed, button, ok, mods)
}

// processPointer runs the pointer state machine for the primary pointer.
func (s *Scene) processPointer(wx, wy, sx, sy float64, pressed bool, button MouseButton, present bool, mods KeyModifiers) {
	ps := &s.pointer

	var target *Node
	if present {
		target = s.hitTest(wx, wy)
	}

	ev := pointerEvent{wx: wx, wy: wy, sx: sx, sy: sy, target: target, button: button, mods: mods}

	s.updateHover(ps, ev)

	moved := present && (!ps.present || wx != ps.lastX || wy != ps.lastY)
	ps.present = present

	switch {
	case pressed && !ps.down:
		ps.down = true
		ps.button = button
		ps.hitNode = target
		s.dispatchBubbling(EventPointerDown, ev)
	case !pressed && ps.down:
		ev.button = ps.button
		if ps.hitNode != nil && ps.hitNode == target {
			s.fireClick(ev)
		}
		s.dispatchBubbling(EventPointerUp, ev)
		ps.down = false
		ps.hitNode = nil
	}

	if moved {
		s.dispatchBubbling(EventPointerMove, ev)
	}
	ps.lastX = wx
	ps.lastY = wy
}

// updateHover fires leave for nodes no longer under the pointer (innermost
// first) and enter for newly hovered nodes (outermost first).
func (s *Scene) updateHover(ps *pointerState, ev pointerEvent) {
	var path []*Node
	for n := ev.target; n != nil; n = n.Parent {
		path = append(path, n)
	}

	for _, old := range ps.hoverPath {
		if !containsNode(path, old) {
			s.dispatchTo(EventPointerLeave, old, ev)
		}
	}
	for i := len(path) - 1; i >= 0; i-- {
		if !containsNode(ps.hoverPath, path[i]) {
			s.dispatchTo(EventPointerEnter, path[i], ev)
		}
	}
	ps.hoverPath = path
}

// releaseHover fires leave for every hovered node, as when the pointer
// exits the window.
func (s *Scene) releaseHover() {
	ps := &s.pointer
	ev := pointerEvent{wx: ps.lastX, wy: ps.lastY}
	for _, old := range ps.hoverPath {
		s.dispatchTo(EventPointerLeave, old, ev)
	}
	ps.hoverPath = nil
	ps.present = false
}

func containsNode(list []*Node, n *Node) bool {
	for _, c := range list {
		if c == n {
			return true
		}
	}
	return false
}

// --- Event dispatch ---

type pointerEvent struct {
	wx, wy float64
	sx, sy float64
	target *Node
	button MouseButton
	mods   KeyModifiers
}

func (s *Scene) pointerContext(node *Node, ev pointerEvent) PointerContext {
	ctx := PointerContext{
		Node: node, Target: ev.target,
		GlobalX: ev.wx, GlobalY: ev.wy,
		ScreenX: ev.sx, ScreenY: ev.sy,
		Button: ev.button, Modifiers: ev.mods,
	}
	if node != nil {
		ctx.LocalX, ctx.LocalY = node.WorldToLocal(ev.wx, ev.wy)
		ctx.EntityID = node.EntityID
		ctx.UserData = node.UserData
	}
	return ctx
}

// snapshot copies a handler list so listeners may add or remove handlers
// while it is being dispatched.
func (s *Scene) snapshot(list []*pointerHandler) []*pointerHandler {
	return append([]*pointerHandler(nil), list...)
}

// dispatchTo fires a non-bubbling event (enter/leave) on a single node.
func (s *Scene) dispatchTo(event EventType, node *Node, ev pointerEvent) {
	if node.disposed {
		return
	}
	ctx := s.pointerContext(node, ev)
	list := s.handlers.pointerList(event)
	for _, h := range s.snapshot(*list) {
		if !h.removed && (h.node == nil || h.node == node) {
			h.fn(ctx)
		}
	}
	switch event {
	case EventPointerEnter:
		if node.OnPointerEnter != nil {
			node.OnPointerEnter(ctx)
		}
	case EventPointerLeave:
		if node.OnPointerLeave != nil {
			node.OnPointerLeave(ctx)
		}
	}
	s.emitInteractionEvent(event, node, ev.wx, ev.wy, ctx.LocalX, ctx.LocalY, ev.button, ev.mods)
}

// dispatchBubbling fires an event on the target and each ancestor. Scene-level
// listeners fire once with Node set to the target.
func (s *Scene) dispatchBubbling(event EventType, ev pointerEvent) {
	list := s.handlers.pointerList(event)
	handlers := s.snapshot(*list)

	for _, h := range handlers {
		if !h.removed && h.node == nil {
			h.fn(s.pointerContext(ev.target, ev))
		}
	}
	for n := ev.target; n != nil; n = n.Parent {
		if n.disposed {
			break
		}
		ctx := s.pointerContext(n, ev)
		for _, h := range handlers {
			if !h.removed && h.node == n {
				h.fn(ctx)
			}
		}
		var cb func(PointerContext)
		switch event {
		case EventPointerDown:
			cb = n.OnPointerDown
		case EventPointerUp:
			cb = n.OnPointerUp
		case EventPointerMove:
			cb = n.OnPointerMove
		}
		if cb != nil {
			cb(ctx)
		}
	}
	if ev.target != nil {
		lx, ly := ev.target.WorldToLocal(ev.wx, ev.wy)
		s.emitInteractionEvent(event, ev.target, ev.wx, ev.wy, lx, ly, ev.button, ev.mods)
	}
}

func (s *Scene) fireClick(ev pointerEvent) {
	handlers := append([]*clickHandler(nil), s.handlers.click...)
	for n := ev.target; n != nil; n = n.Parent {
		if n.disposed {
			break
		}
		lx, ly := n.WorldToLocal(ev.wx, ev.wy)
		ctx := ClickContext{
			Node: n, EntityID: n.EntityID, UserData: n.UserData,
			GlobalX: ev.wx, GlobalY: ev.wy, LocalX: lx, LocalY: ly,
			Button: ev.button, Modifiers: ev.mods,
		}
		for _, h := range handlers {
			if !h.removed && (h.node == n || (h.node == nil && n == ev.target)) {
				h.fn(ctx)
			}
		}
		if n.OnClick != nil {
			n.OnClick(ctx)
		}
	}
	if ev.target != nil {
		lx, ly := ev.target.WorldToLocal(ev.wx, ev.wy)
		s.emitInteractionEvent(EventClick, ev.target, ev.wx, ev.wy, lx, ly, ev.button, ev.mods)
	}
}

// --- ECS bridge ---

func (s *Scene) emitInteractionEvent(eventType EventType, node *Node, wx, wy, lx, ly float64,
	button MouseButton, mods KeyModifiers) {
	if s.store == nil || node == nil || node.EntityID == 0 {
		return
	}
	s.store.EmitEvent(InteractionEvent{
		Type:      eventType,
		EntityID:  node.EntityID,
		GlobalX:   wx,
		GlobalY:   wy,
		LocalX:    lx,
		LocalY:    ly,
		Button:    button,
		Modifiers: mods,
	})
}
