package flourish

// Default hover pose: lift five units and grow two percent.
const (
	DefaultHoverLift  = -5.0
	DefaultHoverScale = 1.02
)

// HoverConfig configures a HoverEffect. Zero fields take the defaults.
type HoverConfig struct {
	// Lift is the vertical offset while hovered. Negative moves up.
	Lift float64
	// Scale is the scale factor while hovered.
	Scale float64
	// Spring drives both channels. Zero selects DefaultHoverSpring.
	Spring SpringConfig
}

// HoverEffect springs a node's HoverY and HoverScale toward a raised pose
// while the pointer is over it.
type HoverEffect struct {
	scene *Scene
	node  *Node
	lift  float64
	scale float64

	y, s    *DampedValue
	hovered bool

	handles  []CallbackHandle
	detached bool
}

// UseHover attaches a hover lift to node. On a nil Scene the effect is
// returned unbound and only moves through SetHovered and Update.
func (s *Scene) UseHover(node *Node, cfg HoverConfig) *HoverEffect {
	if cfg.Lift == 0 {
		cfg.Lift = DefaultHoverLift
	}
	if cfg.Scale == 0 {
		cfg.Scale = DefaultHoverScale
	}
	spring, clamped := cfg.Spring.normalized(DefaultHoverSpring)
	if clamped {
		debugf("hover spring out of range, clamped to k=%.2f c=%.2f", spring.Stiffness, spring.Damping)
	}
	h := &HoverEffect{
		scene: s,
		node:  node,
		lift:  cfg.Lift,
		scale: cfg.Scale,
		y:     NewDampedValue(0, spring),
		s:     NewDampedValue(1, spring),
	}
	if s == nil {
		return h
	}
	if node != nil {
		node.Interactable = true
		h.handles = append(h.handles,
			s.AddPointerListener(node, EventPointerEnter, func(PointerContext) { h.SetHovered(true) }),
			s.AddPointerListener(node, EventPointerLeave, func(PointerContext) { h.SetHovered(false) }),
		)
	}
	s.hovers = append(s.hovers, h)
	return h
}

// SetHovered moves the effect toward (true) or away from the hover pose.
func (h *HoverEffect) SetHovered(v bool) {
	if h.detached {
		return
	}
	h.hovered = v
	if v {
		h.y.SetTarget(h.lift)
		h.s.SetTarget(h.scale)
		return
	}
	h.y.SetTarget(0)
	h.s.SetTarget(1)
}

// Hovered reports whether the effect is targeting the hover pose.
func (h *HoverEffect) Hovered() bool {
	return h.hovered
}

// Update advances the springs and writes HoverY and HoverScale.
func (h *HoverEffect) Update(dt float64) {
	if h.detached {
		return
	}
	h.y.Step(dt)
	h.s.Step(dt)
	if usable(h.node) {
		h.node.HoverY = h.y.Value()
		h.node.HoverScale = h.s.Value()
	}
}

// Detach removes the listeners and returns the node to its resting pose.
func (h *HoverEffect) Detach() {
	if h.detached {
		return
	}
	h.detached = true
	for _, c := range h.handles {
		c.Remove()
	}
	h.handles = nil
	if usable(h.node) {
		h.node.HoverY = 0
		h.node.HoverScale = 1
	}
	if h.scene == nil {
		return
	}
	for i, c := range h.scene.hovers {
		if c == h {
			copy(h.scene.hovers[i:], h.scene.hovers[i+1:])
			h.scene.hovers[len(h.scene.hovers)-1] = nil
			h.scene.hovers = h.scene.hovers[:len(h.scene.hovers)-1]
			return
		}
	}
}
