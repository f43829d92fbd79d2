package flourish

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testLayoutYAML = `
width: 800
background: "#101010"
gap: 20
sections:
  - name: hero
    height: 700
    cards:
      - {name: title, width: 300, height: 100}
  - name: grid
    color: "#202020"
    padding: 10
    columns: 2
    gap: 5
    margin: "-50px"
    reveal: {duration: 0.3, stagger: 0.05, ease: easeOut}
    cards:
      - {name: a, width: 100, height: 50, tilt: {}, hover: {}}
      - {name: b, width: 120, height: 60, color: tomato}
      - {name: c, width: 100, height: 40, float: {amplitude: 8, period: 2}}
`

func mustParseLayout(t *testing.T, src string) *Layout {
	t.Helper()
	l, err := ParseLayout([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func TestParseLayout(t *testing.T) {
	l := mustParseLayout(t, testLayoutYAML)
	if l.Width != 800 || l.Gap != 20 || len(l.Sections) != 2 {
		t.Fatalf("layout = %+v", l)
	}
	grid := l.Sections[1]
	if grid.Columns != 2 || grid.Margin != "-50px" || grid.Reveal == nil {
		t.Errorf("grid = %+v", grid)
	}
	if grid.Reveal.Stagger == nil || *grid.Reveal.Stagger != 0.05 {
		t.Error("stagger not decoded")
	}
	if grid.Cards[0].Tilt == nil || grid.Cards[0].Hover == nil {
		t.Error("empty tilt and hover blocks should enable the effects")
	}
	if grid.Cards[1].Tilt != nil || grid.Cards[2].Float.Amplitude != 8 {
		t.Error("card effects decoded wrongly")
	}
}

func TestLayoutValidate(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"malformed", `sections: [`, "unmarshal"},
		{"empty", `sections: []`, "no sections"},
		{"negative width", "width: -1\nsections: [{name: a}]", "negative width"},
		{"bad background", "background: nope\nsections: [{name: a}]", "background"},
		{"missing section name", `sections: [{height: 10}]`, "missing name"},
		{"duplicate section", `sections: [{name: a}, {name: a}]`, "duplicate name"},
		{"card shares section name", `sections: [{name: a, cards: [{name: a, width: 1, height: 1}]}]`, "duplicate name"},
		{"negative padding", `sections: [{name: a, padding: -1}]`, "negative size"},
		{"amount above one", `sections: [{name: a, amount: 1.5}]`, "amount"},
		{"bad section color", `sections: [{name: a, color: "#12"}]`, "hex digits"},
		{"bad margin", `sections: [{name: a, margin: "wide"}]`, "parse margin"},
		{"bad reveal ease", `sections: [{name: a, reveal: {ease: wobble}}]`, "unknown easing"},
		{"missing card name", `sections: [{name: a, cards: [{width: 1, height: 1}]}]`, "missing name"},
		{"zero card size", `sections: [{name: a, cards: [{name: b, height: 1}]}]`, "size must be positive"},
		{"bad card color", `sections: [{name: a, cards: [{name: b, width: 1, height: 1, color: nope}]}]`, "unknown name"},
		{"bad float ease", `sections: [{name: a, cards: [{name: b, width: 1, height: 1, float: {ease: x}}]}]`, "unknown easing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLayout([]byte(tt.src))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}

	if _, err := ParseLayout([]byte(`sections: []`)); !errors.Is(err, ErrEmptyLayout) {
		t.Errorf("err = %v, want ErrEmptyLayout", err)
	}
}

func TestLayoutBuildPositions(t *testing.T) {
	s := newTestScene()
	p, err := mustParseLayout(t, testLayoutYAML).Build(s)
	if err != nil {
		t.Fatal(err)
	}

	if s.ClearColor != (Color{R: 16.0 / 255, G: 16.0 / 255, B: 16.0 / 255, A: 1}) {
		t.Errorf("ClearColor = %+v", s.ClearColor)
	}
	hero, grid := p.Section("hero"), p.Section("grid")
	if hero.Node.Y != 0 || hero.Node.Height != 700 || hero.Node.Type != NodeTypeContainer {
		t.Errorf("hero = y %v h %v type %v", hero.Node.Y, hero.Node.Height, hero.Node.Type)
	}
	if grid.Node.Y != 720 || grid.Node.Type != NodeTypeBox {
		t.Errorf("grid y = %v, type = %v", grid.Node.Y, grid.Node.Type)
	}
	// Two rows: 10 + 60 + 5 + 40 + 10.
	if grid.Node.Height != 125 {
		t.Errorf("grid height = %v, want 125", grid.Node.Height)
	}

	tests := []struct {
		name string
		x, y float64
	}{
		{"a", 10, 10},
		{"b", 115, 10},
		{"c", 10, 75},
	}
	for _, tt := range tests {
		n := p.Card(tt.name).Node
		if n.X != tt.x || n.Y != tt.y {
			t.Errorf("card %s at (%v, %v), want (%v, %v)", tt.name, n.X, n.Y, tt.x, tt.y)
		}
	}
	if wb := p.Card("c").Node.WorldBounds(); wb.Y != 795 {
		t.Errorf("card c world Y = %v, want 795", wb.Y)
	}

	if p.Height() != 845 || p.Bounds() != (Rect{Width: 800, Height: 845}) {
		t.Errorf("Height = %v, Bounds = %+v", p.Height(), p.Bounds())
	}
	if p.Section("missing") != nil || p.Card("missing") != nil {
		t.Error("unknown names should return nil")
	}
}

func TestLayoutBuildWiresEffects(t *testing.T) {
	s := newTestScene()
	p, err := mustParseLayout(t, testLayoutYAML).Build(s)
	if err != nil {
		t.Fatal(err)
	}

	hero, grid := p.Section("hero"), p.Section("grid")
	if hero.Reveal != nil || hero.Trigger == nil || !hero.Trigger.InView() {
		t.Error("hero should have a plain trigger that starts in view")
	}
	if grid.Reveal == nil || grid.Trigger != grid.Reveal.Trigger() {
		t.Fatal("grid trigger should come from its reveal")
	}
	if grid.Trigger.opts.Margin != Uniform(-50) {
		t.Errorf("margin = %+v", grid.Trigger.opts.Margin)
	}
	if grid.Reveal.Revealed() || p.Card("a").Node.Alpha != 0 {
		t.Error("grid below the fold should start hidden")
	}

	a, b, c := p.Card("a"), p.Card("b"), p.Card("c")
	if a.Tilt == nil || a.Hover == nil || a.Float != nil {
		t.Error("card a should tilt and hover")
	}
	if b.Tilt != nil || b.Hover != nil || b.Float != nil {
		t.Error("card b has no effects")
	}
	if c.Float == nil || s.TweenCount() != 1 {
		t.Error("card c should float")
	}
	if s.ListenerCount() != 5 || s.ObserverCount() != 2 {
		t.Errorf("ListenerCount = %d, ObserverCount = %d", s.ListenerCount(), s.ObserverCount())
	}

	// Scrolling the grid past the negative margin reveals it.
	scrollTo(s, 400)
	if !grid.Reveal.Revealed() {
		t.Error("grid should reveal once 50px inside the viewport")
	}
	stepFrames(s, 60, frame)
	if a.Node.Alpha != 1 || c.Node.Alpha != 1 {
		t.Error("grid cards should finish revealing")
	}
	if c.Node.FloatY == 0 {
		t.Error("float loop should move card c")
	}
}

func TestLayoutUnmountRestoresScene(t *testing.T) {
	s := newTestScene()
	baseChildren := s.Root().NumChildren()
	l := mustParseLayout(t, testLayoutYAML)

	for range 3 {
		p, err := l.Build(s)
		if err != nil {
			t.Fatal(err)
		}
		stepFrames(s, 5, frame)
		p.Unmount()
		p.Unmount()
		s.UpdateDelta(frame)

		if s.ListenerCount() != 0 || s.ObserverCount() != 0 || s.TweenCount() != 0 {
			t.Fatalf("after unmount: listeners %d, observers %d, tweens %d",
				s.ListenerCount(), s.ObserverCount(), s.TweenCount())
		}
		if s.Root().NumChildren() != baseChildren || !p.Root.IsDisposed() {
			t.Fatal("page nodes should be disposed")
		}
		if len(s.tilts) != 0 || len(s.hovers) != 0 || len(s.reveals) != 0 {
			t.Fatal("effects should be released")
		}
	}
}

func TestLoadLayout(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.yaml")
	if err := os.WriteFile(path, []byte(testLayoutYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	l, err := LoadLayout(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(l.Sections) != 2 {
		t.Errorf("sections = %d, want 2", len(l.Sections))
	}

	if _, err := LoadLayout(filepath.Join(dir, "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("sections: []"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadLayout(bad); err == nil || !strings.Contains(err.Error(), bad) {
		t.Errorf("err = %v, want it to name the file", err)
	}
}

func TestLandingLayoutBuilds(t *testing.T) {
	l, err := LoadLayout(filepath.Join("examples", "landing", "layout.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	s := newTestScene()
	p, err := l.Build(s)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Unmount()

	if p.Card("fast").Tilt == nil || p.Card("badge").Float == nil {
		t.Error("landing cards should carry their effects")
	}
	if showcase := p.Section("showcase"); showcase.Reveal == nil || !showcase.Reveal.cfg.Repeat {
		t.Error("showcase should reveal repeatedly")
	}
}
