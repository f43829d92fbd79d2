package flourish

import (
	"math"

	"github.com/charmbracelet/harmonica"
)

// Lower bounds applied to spring parameters. Values at or below zero would
// make the integrator diverge or never settle.
const (
	MinStiffness = 1.0
	MinDamping   = 1.0
	minMass      = 0.01
)

// SpringConfig describes a damped spring in physical terms, the way CSS
// animation libraries do: stiffness k, damping c and mass m.
type SpringConfig struct {
	Stiffness float64
	Damping   float64
	Mass      float64
	// RestDelta is the distance from the target below which the spring may
	// stop. RestSpeed is the matching velocity bound.
	RestDelta float64
	RestSpeed float64
}

// DefaultTiltSpring is critically damped: it returns to center without
// overshoot.
var DefaultTiltSpring = SpringConfig{Stiffness: 400, Damping: 40, Mass: 1, RestDelta: 1e-4, RestSpeed: 1e-3}

// DefaultHoverSpring is a lively, slightly bouncy spring for hover lifts.
var DefaultHoverSpring = SpringConfig{Stiffness: 300, Damping: 10, Mass: 1, RestDelta: 1e-3, RestSpeed: 1e-2}

// normalized returns a copy with defaults filled and out-of-range values
// clamped. clamped reports whether any supplied value was out of range.
func (c SpringConfig) normalized(def SpringConfig) (out SpringConfig, clamped bool) {
	if c == (SpringConfig{}) {
		return def, false
	}
	out = c
	if out.Stiffness <= 0 {
		out.Stiffness = MinStiffness
		clamped = true
	}
	if out.Damping <= 0 {
		out.Damping = MinDamping
		clamped = true
	}
	if out.Mass == 0 {
		out.Mass = 1
	} else if out.Mass < minMass {
		out.Mass = minMass
		clamped = true
	}
	if out.RestDelta <= 0 {
		out.RestDelta = def.RestDelta
	}
	if out.RestSpeed <= 0 {
		out.RestSpeed = def.RestSpeed
	}
	return out, clamped
}

// AngularFrequency returns sqrt(k/m) for the config.
func (c SpringConfig) AngularFrequency() float64 {
	return math.Sqrt(c.Stiffness / c.Mass)
}

// DampingRatio returns c / (2 sqrt(k m)). 1 is critically damped.
func (c SpringConfig) DampingRatio() float64 {
	return c.Damping / (2 * math.Sqrt(c.Stiffness*c.Mass))
}

// DampedValue is a scalar that follows its target through a spring.
type DampedValue struct {
	cfg    SpringConfig
	spring harmonica.Spring
	dt     float64

	value    float64
	velocity float64
	target   float64
	resting  bool
}

// NewDampedValue returns a DampedValue at rest at initial. A zero config
// selects DefaultTiltSpring.
func NewDampedValue(initial float64, cfg SpringConfig) *DampedValue {
	cfg, clamped := cfg.normalized(DefaultTiltSpring)
	if clamped {
		debugf("spring config out of range, clamped to k=%.2f c=%.2f m=%.2f", cfg.Stiffness, cfg.Damping, cfg.Mass)
	}
	return &DampedValue{cfg: cfg, value: initial, target: initial, resting: true}
}

// Config returns the effective spring config after clamping.
func (d *DampedValue) Config() SpringConfig {
	return d.cfg
}

// SetTarget changes the value the spring pulls toward.
func (d *DampedValue) SetTarget(v float64) {
	if v == d.target {
		return
	}
	d.target = v
	d.resting = false
}

// Target returns the current target.
func (d *DampedValue) Target() float64 {
	return d.target
}

// Value returns the current spring position.
func (d *DampedValue) Value() float64 {
	return d.value
}

// Velocity returns the current spring velocity in units per second.
func (d *DampedValue) Velocity() float64 {
	return d.velocity
}

// AtRest reports whether the value has settled on its target.
func (d *DampedValue) AtRest() bool {
	return d.resting
}

// Jump moves both value and target to v without animating.
func (d *DampedValue) Jump(v float64) {
	d.value = v
	d.target = v
	d.velocity = 0
	d.resting = true
}

// Step advances the spring by dt seconds and returns the new value.
// Once within RestDelta of the target and slower than RestSpeed the value
// snaps to the target and stays there until the target changes.
func (d *DampedValue) Step(dt float64) float64 {
	if d.resting || dt <= 0 {
		return d.value
	}
	if dt != d.dt {
		d.dt = dt
		d.spring = harmonica.NewSpring(dt, d.cfg.AngularFrequency(), d.cfg.DampingRatio())
	}
	d.value, d.velocity = d.spring.Update(d.value, d.velocity, d.target)
	if math.Abs(d.target-d.value) < d.cfg.RestDelta && math.Abs(d.velocity) < d.cfg.RestSpeed {
		d.value = d.target
		d.velocity = 0
		d.resting = true
	}
	return d.value
}
