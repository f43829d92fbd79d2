package flourish

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func matApprox(a, b [6]float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > epsilon {
			return false
		}
	}
	return true
}

func TestComputeLocalTransform(t *testing.T) {
	tests := []struct {
		name  string
		setup func(n *Node)
		want  [6]float64
	}{
		{"identity", func(n *Node) {}, identityTransform},
		{"translate", func(n *Node) { n.X, n.Y = 10, 20 }, [6]float64{1, 0, 0, 1, 10, 20}},
		{"scale", func(n *Node) { n.ScaleX, n.ScaleY = 2, 3 }, [6]float64{2, 0, 0, 3, 0, 0}},
		{"pivot", func(n *Node) { n.PivotX, n.PivotY = 5, 5; n.ScaleX = 2 }, [6]float64{2, 0, 0, 1, -10, -5}},
		{"rotate 90", func(n *Node) { n.Rotation = math.Pi / 2 }, [6]float64{0, 1, -1, 0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewContainer("n")
			tt.setup(n)
			if got := computeLocalTransform(n); !matApprox(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInvertAffineRoundTrip(t *testing.T) {
	m := [6]float64{2, 0.5, -0.3, 1.5, 40, -12}
	if got := multiplyAffine(m, invertAffine(m)); !matApprox(got, identityTransform) {
		t.Errorf("m * inv(m) = %v", got)
	}
	if got := invertAffine([6]float64{0, 0, 0, 0, 1, 1}); got != identityTransform {
		t.Errorf("singular inverse = %v, want identity", got)
	}
}

func TestWorldAABBRotated(t *testing.T) {
	sin, cos := math.Sincos(math.Pi / 2)
	m := [6]float64{cos, sin, -sin, cos, 100, 100}
	r := worldAABB(m, 40, 20)
	if !approx(r.X, 80, epsilon) || !approx(r.Y, 100, epsilon) ||
		!approx(r.Width, 20, epsilon) || !approx(r.Height, 40, epsilon) {
		t.Errorf("AABB = %+v", r)
	}
}

func TestUpdateWorldTransformHierarchy(t *testing.T) {
	root := NewContainer("root")
	section := NewContainer("section")
	section.Y = 1000
	card := NewBox("card", 100, 50, ColorWhite)
	card.X, card.Y = 20, 30
	card.Alpha = 0.5
	section.Alpha = 0.5
	root.AddChild(section)
	section.AddChild(card)

	updateWorldTransform(root, identityTransform, 1, false)

	b := card.WorldBounds()
	if b != (Rect{X: 20, Y: 1030, Width: 100, Height: 50}) {
		t.Errorf("WorldBounds = %+v", b)
	}
	if card.worldAlpha != 0.25 {
		t.Errorf("worldAlpha = %v, want 0.25", card.worldAlpha)
	}

	// Moving the parent only takes effect once it is marked dirty.
	section.Y = 2000
	updateWorldTransform(root, identityTransform, 1, false)
	if card.WorldBounds().Y != 1030 {
		t.Error("clean parent should not be recomputed")
	}
	section.MarkDirty()
	updateWorldTransform(root, identityTransform, 1, false)
	if card.WorldBounds().Y != 2030 {
		t.Errorf("after MarkDirty Y = %v, want 2030", card.WorldBounds().Y)
	}
}

func TestWorldBoundsIgnorePresentation(t *testing.T) {
	n := NewBox("n", 100, 100, ColorWhite)
	n.SetPosition(0, 500)
	n.OffsetY = 30
	n.HoverY = -5
	n.FloatY = 12
	n.RevealScale = 0.5
	n.TiltX, n.TiltY, n.EntryTilt = 10, 10, 25
	refreshTransforms(n)

	if b := n.WorldBounds(); b != (Rect{Y: 500, Width: 100, Height: 100}) {
		t.Errorf("presentation fields leaked into layout bounds: %+v", b)
	}
}

func TestLocalWorldConversion(t *testing.T) {
	p := NewContainer("p")
	p.SetPosition(100, 200)
	p.SetScale(2, 2)
	c := NewContainer("c")
	c.SetPosition(10, 10)
	p.AddChild(c)
	refreshTransforms(c)

	wx, wy := c.LocalToWorld(5, 5)
	if !approx(wx, 130, epsilon) || !approx(wy, 230, epsilon) {
		t.Errorf("LocalToWorld = (%v, %v), want (130, 230)", wx, wy)
	}
	lx, ly := c.WorldToLocal(wx, wy)
	if !approx(lx, 5, epsilon) || !approx(ly, 5, epsilon) {
		t.Errorf("WorldToLocal = (%v, %v), want (5, 5)", lx, ly)
	}
}

func TestSetters(t *testing.T) {
	n := NewContainer("n")
	updateWorldTransform(n, identityTransform, 1, false)

	n.SetRotation(1)
	if !n.transformDirty || n.Rotation != 1 {
		t.Error("SetRotation should set and dirty")
	}
	n.transformDirty = false
	n.SetPivot(3, 4)
	if !n.transformDirty || n.PivotX != 3 || n.PivotY != 4 {
		t.Error("SetPivot should set and dirty")
	}
	n.transformDirty = false
	n.SetAlpha(0.3)
	if !n.transformDirty || n.Alpha != 0.3 {
		t.Error("SetAlpha should set and dirty")
	}
	n.SetSize(7, 8)
	if n.Width != 7 || n.Height != 8 {
		t.Error("SetSize should set size")
	}
}
