package flourish

import (
	"fmt"
	"math"
	"strings"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Animator is anything the scene can advance once per frame. Scene.AddTween
// accepts any Animator and drops it once Finished reports true.
type Animator interface {
	Update(dt float32)
	Finished() bool
}

// TweenGroup animates up to 4 float64 fields on a Node simultaneously.
// Create one via the convenience constructors (TweenPosition, TweenAlpha,
// TweenOffset, ...) and either call Update(dt) each frame or hand it to
// Scene.AddTween. The group auto-applies values and marks the node dirty. If
// the target node is disposed, the group stops immediately.
//
// Each field runs a gween.Sequence, so a leading Delay is part of the
// same timeline as the tween itself.
type TweenGroup struct {
	seqs   [4]*gween.Sequence
	count  int
	fields [4]*float64
	target *Node
	Done   bool

	// OnComplete runs once when every field has reached its end value.
	// It does not run when the group stops because its node was disposed.
	OnComplete func()
}

// Update advances all tweens by dt seconds, writes values to the target fields,
// and marks the node dirty. If the target node has been disposed, Done is set
// to true and no writes occur.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}

	if g.target != nil && g.target.IsDisposed() {
		g.Done = true
		return
	}

	allDone := true
	for i := 0; i < g.count; i++ {
		val, _, finished := g.seqs[i].Update(dt)
		*g.fields[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone

	if g.target != nil {
		g.target.MarkDirty()
	}
	if g.Done && g.OnComplete != nil {
		g.OnComplete()
	}
}

// Finished reports whether the group is done.
func (g *TweenGroup) Finished() bool {
	return g.Done
}

// Delay holds every field at its starting value for seconds before the
// tween begins. Delays accumulate when called more than once.
func (g *TweenGroup) Delay(seconds float32) *TweenGroup {
	if seconds <= 0 {
		return g
	}
	for i := 0; i < g.count; i++ {
		seq := g.seqs[i]
		from := float32(*g.fields[i])
		hold := gween.New(from, from, seconds, ease.Linear)
		seq.Tweens = append([]*gween.Tween{hold}, seq.Tweens...)
		seq.Reset()
	}
	return g
}

func (g *TweenGroup) add(field *float64, to float64, duration float32, fn ease.TweenFunc) {
	if fn == nil {
		fn = ease.Linear
	}
	g.seqs[g.count] = gween.NewSequence(gween.New(float32(*field), float32(to), duration, fn))
	g.fields[g.count] = field
	g.count++
}

// TweenPosition creates a TweenGroup that animates node.X and node.Y to the
// given target coordinates over the specified duration using the easing function.
func TweenPosition(node *Node, toX, toY float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{target: node}
	g.add(&node.X, toX, duration, fn)
	g.add(&node.Y, toY, duration, fn)
	return g
}

// TweenOffset animates the presentation offset. Unlike TweenPosition it does
// not move the node's layout box, so hit testing and visibility triggers keep
// using the resting position.
func TweenOffset(node *Node, toX, toY float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{target: node}
	g.add(&node.OffsetX, toX, duration, fn)
	g.add(&node.OffsetY, toY, duration, fn)
	return g
}

// TweenScale creates a TweenGroup that animates node.ScaleX and node.ScaleY to
// the given target values over the specified duration using the easing function.
func TweenScale(node *Node, toSX, toSY float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{target: node}
	g.add(&node.ScaleX, toSX, duration, fn)
	g.add(&node.ScaleY, toSY, duration, fn)
	return g
}

// TweenColor creates a TweenGroup that animates all four components of
// node.Color (R, G, B, A) to the target color over the specified duration.
func TweenColor(node *Node, to Color, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{target: node}
	g.add(&node.Color.R, to.R, duration, fn)
	g.add(&node.Color.G, to.G, duration, fn)
	g.add(&node.Color.B, to.B, duration, fn)
	g.add(&node.Color.A, to.A, duration, fn)
	return g
}

// TweenAlpha creates a TweenGroup that animates node.Alpha to the target value
// over the specified duration using the easing function.
func TweenAlpha(node *Node, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{target: node}
	g.add(&node.Alpha, to, duration, fn)
	return g
}

// TweenRotation creates a TweenGroup that animates node.Rotation to the target
// value over the specified duration using the easing function.
func TweenRotation(node *Node, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{target: node}
	g.add(&node.Rotation, to, duration, fn)
	return g
}

// TweenField animates an arbitrary float64 that belongs to node, such as
// RevealScale or EntryTilt. The group stops if node is disposed.
func TweenField(node *Node, field *float64, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{target: node}
	g.add(field, to, duration, fn)
	return g
}

// FloatLoop moves a field back and forth between its starting value and
// start+Amplitude forever, the way decorative badges bob on a landing page.
type FloatLoop struct {
	seq     *gween.Sequence
	field   *float64
	target  *Node
	base    float64
	stopped bool
}

// NewFloatLoop starts a loop on field. period is the time for one full
// there-and-back cycle. A nil easing selects ease.InOutSine.
func NewFloatLoop(node *Node, field *float64, amplitude float64, period float32, fn ease.TweenFunc) *FloatLoop {
	if fn == nil {
		fn = ease.InOutSine
	}
	base := *field
	seq := gween.NewSequence(gween.New(float32(base), float32(base+amplitude), period/2, fn))
	seq.SetYoyo(true)
	seq.SetLoop(-1)
	return &FloatLoop{seq: seq, field: field, target: node, base: base}
}

// Update advances the loop. A loop whose node is disposed stops.
func (l *FloatLoop) Update(dt float32) {
	if l.stopped {
		return
	}
	if l.target != nil && l.target.IsDisposed() {
		l.stopped = true
		return
	}
	v, _, _ := l.seq.Update(dt)
	*l.field = float64(v)
}

// Stop ends the loop and restores the field to its starting value.
func (l *FloatLoop) Stop() {
	if l.stopped {
		return
	}
	l.stopped = true
	if l.target == nil || !l.target.IsDisposed() {
		*l.field = l.base
	}
}

// Finished reports whether Stop has been called.
func (l *FloatLoop) Finished() bool {
	return l.stopped
}

// CubicBezier returns an easing function for the CSS cubic-bezier(x1, y1,
// x2, y2) timing curve. x1 and x2 are clamped to [0, 1].
func CubicBezier(x1, y1, x2, y2 float64) ease.TweenFunc {
	x1 = clamp01(x1)
	x2 = clamp01(x2)
	// Polynomial coefficients for B(s) = ((a s + b) s + c) s.
	cx := 3 * x1
	bx := 3*(x2-x1) - cx
	ax := 1 - cx - bx
	cy := 3 * y1
	by := 3*(y2-y1) - cy
	ay := 1 - cy - by

	sampleX := func(s float64) float64 { return ((ax*s+bx)*s + cx) * s }
	sampleY := func(s float64) float64 { return ((ay*s+by)*s + cy) * s }
	slopeX := func(s float64) float64 { return (3*ax*s+2*bx)*s + cx }

	solve := func(x float64) float64 {
		s := x
		for range 8 {
			dx := sampleX(s) - x
			if math.Abs(dx) < 1e-7 {
				return s
			}
			d := slopeX(s)
			if math.Abs(d) < 1e-6 {
				break
			}
			s -= dx / d
		}
		lo, hi := 0.0, 1.0
		s = x
		for range 50 {
			v := sampleX(s)
			if math.Abs(v-x) < 1e-7 {
				break
			}
			if v < x {
				lo = s
			} else {
				hi = s
			}
			s = (lo + hi) / 2
		}
		return s
	}

	return func(t, b, c, d float32) float32 {
		if d <= 0 {
			return b + c
		}
		p := clamp01(float64(t / d))
		return b + c*float32(sampleY(solve(p)))
	}
}

// EaseReveal is cubic-bezier(0.23, 1, 0.32, 1): a fast start that glides
// into place. It is the default reveal easing.
var EaseReveal = CubicBezier(0.23, 1, 0.32, 1)

var easeNames = map[string]ease.TweenFunc{
	"linear":     ease.Linear,
	"easein":     ease.InCubic,
	"easeout":    ease.OutCubic,
	"easeinout":  ease.InOutCubic,
	"insine":     ease.InSine,
	"outsine":    ease.OutSine,
	"inoutsine":  ease.InOutSine,
	"inquad":     ease.InQuad,
	"outquad":    ease.OutQuad,
	"inoutquad":  ease.InOutQuad,
	"incubic":    ease.InCubic,
	"outcubic":   ease.OutCubic,
	"inoutcubic": ease.InOutCubic,
	"outquint":   ease.OutQuint,
	"outexpo":    ease.OutExpo,
	"outback":    ease.OutBack,
	"outelastic": ease.OutElastic,
	"outbounce":  ease.OutBounce,
	"reveal":     EaseReveal,
}

// ParseEase resolves an easing by name ("easeOut", "inOutSine", "linear")
// or as "cubic-bezier(x1, y1, x2, y2)". Names are case-insensitive and
// ignore dashes.
func ParseEase(s string) (ease.TweenFunc, error) {
	lower := strings.ToLower(strings.TrimSpace(s))
	if fn, ok := easeNames[strings.ReplaceAll(lower, "-", "")]; ok {
		return fn, nil
	}
	if open := strings.IndexByte(lower, '('); open > 0 && strings.HasSuffix(lower, ")") &&
		strings.ReplaceAll(lower[:open], "-", "") == "cubicbezier" {
		var x1, y1, x2, y2 float64
		args := strings.ReplaceAll(lower[open+1:len(lower)-1], " ", "")
		if _, err := fmt.Sscanf(args, "%g,%g,%g,%g", &x1, &y1, &x2, &y2); err != nil {
			return nil, fmt.Errorf("parse ease %q: %w", s, err)
		}
		return CubicBezier(x1, y1, x2, y2), nil
	}
	return nil, fmt.Errorf("parse ease %q: unknown easing", s)
}
