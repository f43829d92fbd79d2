package flourish

import (
	"errors"

	"github.com/tanema/gween/ease"
)

// Variant is a presentation pose for a revealed node.
type Variant struct {
	Alpha   float64
	OffsetY float64
	Scale   float64
	// TiltX is an entry rotation around the horizontal axis in degrees.
	TiltX float64
}

// HiddenVariant is the default pose before a reveal: transparent and 30
// units below the resting position.
var HiddenVariant = Variant{Alpha: 0, OffsetY: 30, Scale: 1}

// VisibleVariant is the resting pose.
var VisibleVariant = Variant{Alpha: 1, OffsetY: 0, Scale: 1}

// DefaultRevealDuration is the per-child tween length in seconds.
const DefaultRevealDuration = 0.6

// RevealConfig configures a RevealGroup. Zero variants, duration and ease
// take the defaults; a zero stagger reveals every child together.
type RevealConfig struct {
	Hidden  Variant
	Visible Variant
	// Duration of each child's tween in seconds.
	Duration float32
	// DelayChildren is the wait after the trigger fires before the first child
	// starts. StaggerChildren is the extra delay added per child index.
	DelayChildren   float32
	StaggerChildren float32
	// Ease defaults to EaseReveal.
	Ease ease.TweenFunc
	// Repeat hides the children again each time the container leaves the
	// viewport. By default a group reveals once and stays revealed.
	Repeat bool
	Margin Margin
	Amount float64
}

func (c RevealConfig) withDefaults() RevealConfig {
	if c.Hidden == (Variant{}) {
		c.Hidden = HiddenVariant
	}
	if c.Visible == (Variant{}) {
		c.Visible = VisibleVariant
	}
	if c.Duration <= 0 {
		c.Duration = DefaultRevealDuration
	}
	if c.StaggerChildren < 0 {
		c.StaggerChildren = 0
	}
	if c.DelayChildren < 0 {
		c.DelayChildren = 0
	}
	if c.Ease == nil {
		c.Ease = EaseReveal
	}
	return c
}

// RevealGroup reveals a container's children in order once the container
// scrolls into view. Child i starts after DelayChildren + i*StaggerChildren.
type RevealGroup struct {
	scene     *Scene
	container *Node
	cfg       RevealConfig
	trigger   *InViewTrigger

	tweens   []*TweenGroup
	revealed bool
	closed   bool
}

// UseReveal puts every child of container into the hidden pose and reveals
// them when container enters the viewport. A container already on screen
// starts revealing on the next update. When the viewport cannot be observed
// the children are shown at once. A container not yet attached to the scene
// stays hidden until it is attached and scrolled into view.
func (s *Scene) UseReveal(container *Node, cfg RevealConfig) *RevealGroup {
	cfg = cfg.withDefaults()
	g := &RevealGroup{scene: s, container: container, cfg: cfg}
	if container == nil {
		return g
	}
	g.trigger = s.UseInView(container, InViewOptions{
		Margin: cfg.Margin,
		Once:   !cfg.Repeat,
		Amount: cfg.Amount,
	})
	if err := g.trigger.Err(); err != nil && !errors.Is(err, ErrDetachedElement) {
		g.showInstant()
		return g
	}
	g.applyAll(cfg.Hidden)
	if g.trigger.InView() {
		g.show()
	}
	g.trigger.OnChange(func(v bool) {
		switch {
		case v:
			g.show()
		case cfg.Repeat:
			g.hide()
		}
	})
	s.reveals = append(s.reveals, g)
	return g
}

// Trigger returns the visibility trigger driving the group.
func (g *RevealGroup) Trigger() *InViewTrigger {
	return g.trigger
}

// Revealed reports whether the children are shown or being shown.
func (g *RevealGroup) Revealed() bool {
	return g.revealed
}

// Done reports whether the children are revealed and every tween has finished.
func (g *RevealGroup) Done() bool {
	if !g.revealed {
		return false
	}
	for _, t := range g.tweens {
		if !t.Done {
			return false
		}
	}
	return true
}

// Update advances the child tweens by dt seconds.
func (g *RevealGroup) Update(dt float32) {
	if g.closed {
		return
	}
	for _, t := range g.tweens {
		t.Update(dt)
	}
}

// Close stops observing. Children keep their current pose.
func (g *RevealGroup) Close() {
	if g.closed {
		return
	}
	g.closed = true
	if g.trigger != nil {
		g.trigger.Close()
	}
	g.tweens = nil
	if g.scene != nil {
		for i, c := range g.scene.reveals {
			if c == g {
				copy(g.scene.reveals[i:], g.scene.reveals[i+1:])
				g.scene.reveals[len(g.scene.reveals)-1] = nil
				g.scene.reveals = g.scene.reveals[:len(g.scene.reveals)-1]
				break
			}
		}
	}
}

// show schedules every child toward the visible pose with its stagger delay.
func (g *RevealGroup) show() {
	g.revealed = true
	g.tweens = g.tweens[:0]
	for i, child := range g.container.Children() {
		delay := g.cfg.DelayChildren + float32(i)*g.cfg.StaggerChildren
		g.tweens = append(g.tweens, tweenVariant(child, g.cfg.Visible, g.cfg.Duration, g.cfg.Ease).Delay(delay))
	}
}

// hide sends every child back to the hidden pose together.
func (g *RevealGroup) hide() {
	g.revealed = false
	g.tweens = g.tweens[:0]
	for _, child := range g.container.Children() {
		g.tweens = append(g.tweens, tweenVariant(child, g.cfg.Hidden, g.cfg.Duration, g.cfg.Ease))
	}
}

func (g *RevealGroup) showInstant() {
	g.revealed = true
	g.applyAll(g.cfg.Visible)
}

func (g *RevealGroup) applyAll(v Variant) {
	for _, child := range g.container.Children() {
		applyVariant(child, v)
	}
}

// applyVariant sets a node's presentation channels to v.
func applyVariant(n *Node, v Variant) {
	n.Alpha = v.Alpha
	n.OffsetY = v.OffsetY
	n.RevealScale = v.Scale
	n.EntryTilt = v.TiltX
	n.MarkDirty()
}

// tweenVariant animates a node's presentation channels toward v.
func tweenVariant(n *Node, v Variant, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{target: n}
	g.add(&n.Alpha, v.Alpha, duration, fn)
	g.add(&n.OffsetY, v.OffsetY, duration, fn)
	g.add(&n.RevealScale, v.Scale, duration, fn)
	g.add(&n.EntryTilt, v.TiltX, duration, fn)
	return g
}
