package flourish

import (
	"math"
	"testing"
)

const frame = 1.0 / 60

// newTestScene returns a scene with real input disabled and a 800x600
// camera scrolled to the top of the page.
func newTestScene() *Scene {
	s := NewScene()
	s.SetPointerSource(nil)
	s.NewCamera(Rect{Width: 800, Height: 600})
	return s
}

// stepFrames runs n fixed updates of dt seconds.
func stepFrames(s *Scene, n int, dt float64) {
	for range n {
		s.UpdateDelta(dt)
	}
}

func approx(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

// --- Color ---

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want Color
	}{
		{"#fff", Color{1, 1, 1, 1}},
		{"#000000", Color{0, 0, 0, 1}},
		{"#ff000080", Color{1, 0, 0, 128.0 / 255}},
		{"#00FF00", Color{0, 1, 0, 1}},
		{"white", Color{1, 1, 1, 1}},
		{"  Black ", Color{0, 0, 0, 1}},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if err != nil {
			t.Errorf("ParseColor(%q) error: %v", tt.in, err)
			continue
		}
		if !approx(got.R, tt.want.R, 1e-9) || !approx(got.G, tt.want.G, 1e-9) ||
			!approx(got.B, tt.want.B, 1e-9) || !approx(got.A, tt.want.A, 1e-9) {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseColorErrors(t *testing.T) {
	for _, in := range []string{"", "#12", "#12345", "#gggggg", "notacolor"} {
		if _, err := ParseColor(in); err == nil {
			t.Errorf("ParseColor(%q) should fail", in)
		}
	}
}

func TestColorToRGBAPremultiplies(t *testing.T) {
	c := Color{R: 1, G: 0.5, B: 0, A: 0.5}.toRGBA()
	if c.A != 127 || c.R != 127 || c.G != 63 || c.B != 0 {
		t.Errorf("toRGBA = %v", c)
	}
}

// --- Rect ---

func TestRectIntersects(t *testing.T) {
	view := Rect{X: 0, Y: 0, Width: 800, Height: 600}
	tests := []struct {
		name string
		r    Rect
		want bool
	}{
		{"inside", Rect{100, 100, 50, 50}, true},
		{"overlapping bottom", Rect{0, 550, 800, 200}, true},
		{"touching bottom edge", Rect{0, 600, 800, 200}, true},
		{"below", Rect{0, 601, 800, 200}, false},
		{"above", Rect{0, -300, 800, 299}, false},
		{"zero height line inside", Rect{0, 300, 800, 0}, true},
		{"empty", Rect{0, 300, 800, -1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Intersects(view); got != tt.want {
				t.Errorf("Intersects = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRectExpandAndIntersection(t *testing.T) {
	r := Rect{X: 0, Y: 0, Width: 800, Height: 600}
	grown := r.Expand(Uniform(100))
	if grown != (Rect{-100, -100, 1000, 800}) {
		t.Errorf("Expand(100) = %v", grown)
	}
	shrunk := r.Expand(Uniform(-100))
	if shrunk != (Rect{100, 100, 600, 400}) {
		t.Errorf("Expand(-100) = %v", shrunk)
	}
	if !r.Expand(Uniform(-500)).Empty() {
		t.Error("a margin larger than half the size should produce an empty rect")
	}

	in := r.Intersection(Rect{X: 700, Y: 500, Width: 200, Height: 200})
	if in != (Rect{700, 500, 100, 100}) {
		t.Errorf("Intersection = %v", in)
	}
	if in.Area() != 10000 {
		t.Errorf("Area = %v, want 10000", in.Area())
	}
	if (Rect{Width: -1, Height: 5}).Area() != 0 {
		t.Error("empty rect area should be 0")
	}
}

// --- Margin ---

func TestParseMargin(t *testing.T) {
	tests := []struct {
		in   string
		want Margin
	}{
		{"", Margin{}},
		{"0px", Margin{}},
		{"-100px", Uniform(-100)},
		{"100", Uniform(100)},
		{"10px 20px", Margin{Top: 10, Right: 20, Bottom: 10, Left: 20}},
		{"1 2 3", Margin{Top: 1, Right: 2, Bottom: 3, Left: 2}},
		{"1px 2px 3px 4px", Margin{Top: 1, Right: 2, Bottom: 3, Left: 4}},
	}
	for _, tt := range tests {
		got, err := ParseMargin(tt.in)
		if err != nil {
			t.Errorf("ParseMargin(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMargin(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseMarginErrors(t *testing.T) {
	for _, in := range []string{"abc", "10em", "1 2 3 4 5"} {
		if _, err := ParseMargin(in); err == nil {
			t.Errorf("ParseMargin(%q) should fail", in)
		}
	}
}

func TestClamp(t *testing.T) {
	if clamp(5, 0, 1) != 1 || clamp(-5, 0, 1) != 0 || clamp(0.5, 0, 1) != 0.5 {
		t.Error("clamp out of range")
	}
	if clamp01(2) != 1 {
		t.Error("clamp01(2) != 1")
	}
}
