package flourish

import (
	"errors"
	"slices"
	"testing"
)

// belowFold adds an 800x200 section whose top is at y=1000, below an 800x600
// window scrolled to the top.
func belowFold(s *Scene) *Node {
	n := NewContainer("below")
	n.Width, n.Height = 800, 200
	n.Y = 1000
	s.Root().AddChild(n)
	return n
}

func scrollTo(s *Scene, top float64) {
	s.primaryCamera().SetScrollTop(top)
	s.UpdateDelta(frame)
}

func TestInViewInitialState(t *testing.T) {
	s := newTestScene()
	above := NewContainer("hero")
	above.Width, above.Height = 800, 400
	s.Root().AddChild(above)
	below := belowFold(s)

	if trig := s.UseInView(above, InViewOptions{}); !trig.InView() {
		t.Error("element on screen at mount should read true immediately")
	}
	if trig := s.UseInView(below, InViewOptions{}); trig.InView() {
		t.Error("element below the fold should read false at mount")
	}
	if s.ObserverCount() != 2 {
		t.Errorf("ObserverCount = %d, want 2", s.ObserverCount())
	}
}

func TestInViewMargin(t *testing.T) {
	tests := []struct {
		margin    string
		top       float64
		view      float64
		before    float64
		threshold float64
	}{
		{"100px", 1000, 600, 299, 300},
		{"0px", 1000, 600, 399, 400},
		{"-100px", 1000, 600, 499, 500},
		{"-100px", 400, 300, 199, 200},
	}
	for _, tt := range tests {
		t.Run(tt.margin, func(t *testing.T) {
			s := NewScene()
			s.SetPointerSource(nil)
			s.NewCamera(Rect{Width: 800, Height: tt.view})
			n := NewContainer("section")
			n.Width, n.Height = 800, 200
			n.Y = tt.top
			s.Root().AddChild(n)
			m, err := ParseMargin(tt.margin)
			if err != nil {
				t.Fatal(err)
			}
			trig := s.UseInView(n, InViewOptions{Margin: m})

			scrollTo(s, tt.before)
			if trig.InView() {
				t.Errorf("in view at scrollTop %v", tt.before)
			}
			scrollTo(s, tt.threshold)
			if !trig.InView() {
				t.Errorf("not in view at scrollTop %v", tt.threshold)
			}
		})
	}
}

func TestInViewDetachedUntilMounted(t *testing.T) {
	s := newTestScene()
	n := NewContainer("late")
	n.Width, n.Height = 800, 200
	trig := s.UseInView(n, InViewOptions{Once: true})

	if trig.InView() {
		t.Fatal("detached node should not read in view")
	}
	if !errors.Is(trig.Err(), ErrDetachedElement) || !errors.Is(trig.Err(), ErrInvalidElement) {
		t.Errorf("Err = %v, want ErrDetachedElement", trig.Err())
	}
	if s.ObserverCount() != 1 {
		t.Errorf("ObserverCount = %d, want 1", s.ObserverCount())
	}

	section := NewContainer("section")
	section.Y = 2000
	s.Root().AddChild(section)
	section.AddChild(n)
	s.UpdateDelta(frame)
	if trig.InView() || trig.Err() != nil {
		t.Errorf("InView = %v, Err = %v after mounting below the fold", trig.InView(), trig.Err())
	}

	scrollTo(s, 1800)
	if !trig.InView() {
		t.Error("mounted node should read in view once scrolled to")
	}
}

func TestInViewRemovedNodeLeavesView(t *testing.T) {
	s := newTestScene()
	n := belowFold(s)
	trig := s.UseInView(n, InViewOptions{})
	scrollTo(s, 600)
	if !trig.InView() {
		t.Fatal("expected in view")
	}

	n.RemoveFromParent()
	s.UpdateDelta(frame)
	if trig.InView() || !errors.Is(trig.Err(), ErrDetachedElement) {
		t.Errorf("InView = %v, Err = %v after removal", trig.InView(), trig.Err())
	}

	s.Root().AddChild(n)
	s.UpdateDelta(frame)
	if !trig.InView() || trig.Err() != nil {
		t.Errorf("InView = %v, Err = %v after re-adding", trig.InView(), trig.Err())
	}
}

func TestInViewOnceNeverReverts(t *testing.T) {
	s := newTestScene()
	n := belowFold(s)
	trig := s.UseInView(n, InViewOptions{Once: true})

	var changes []bool
	trig.OnChange(func(v bool) { changes = append(changes, v) })

	scrollTo(s, 600)
	for range 1000 {
		scrollTo(s, 0)
		if !trig.InView() {
			t.Fatal("latched trigger reverted to false")
		}
		scrollTo(s, 3000)
	}
	if !slices.Equal(changes, []bool{true}) {
		t.Errorf("changes = %v, want [true]", changes)
	}
}

func TestInViewRepeatToggles(t *testing.T) {
	s := newTestScene()
	n := belowFold(s)
	trig := s.UseInView(n, InViewOptions{})

	var changes []bool
	trig.OnChange(func(v bool) { changes = append(changes, v) })

	scrollTo(s, 600)
	scrollTo(s, 610) // still in view, no change
	scrollTo(s, 0)
	scrollTo(s, 600)

	if !slices.Equal(changes, []bool{true, false, true}) {
		t.Errorf("changes = %v, want [true false true]", changes)
	}
}

func TestInViewAmount(t *testing.T) {
	s := newTestScene()
	n := belowFold(s)
	trig := s.UseInView(n, InViewOptions{Amount: 0.5})

	scrollTo(s, 450) // 50 of 200 rows visible
	if trig.InView() {
		t.Error("25% visible should not satisfy amount 0.5")
	}
	scrollTo(s, 500) // 100 of 200 rows visible
	if !trig.InView() {
		t.Error("50% visible should satisfy amount 0.5")
	}
}

func TestInViewAmountClamped(t *testing.T) {
	s := newTestScene()
	n := belowFold(s)
	trig := s.UseInView(n, InViewOptions{Amount: 7})
	scrollTo(s, 600)
	if !trig.InView() {
		t.Error("amount above 1 should clamp to fully visible")
	}
}

func TestInViewIgnoresPresentation(t *testing.T) {
	s := newTestScene()
	n := belowFold(s)
	n.OffsetY = -900
	n.RevealScale = 10
	trig := s.UseInView(n, InViewOptions{})
	s.UpdateDelta(frame)
	if trig.InView() {
		t.Error("presentation offset should not move the observed box")
	}
}

func TestInViewFailOpen(t *testing.T) {
	disposed := NewContainer("gone")
	disposed.Dispose()

	var nilScene *Scene
	tests := []struct {
		name  string
		scene *Scene
		node  *Node
		err   error
	}{
		{"nil scene", nilScene, NewContainer("n"), ErrEnvironmentUnavailable},
		{"nil node", newTestScene(), nil, ErrInvalidElement},
		{"disposed node", newTestScene(), disposed, ErrInvalidElement},
		{"no viewport", NewScene(), NewContainer("n"), ErrEnvironmentUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trig := tt.scene.UseInView(tt.node, InViewOptions{Once: true})
			if !trig.InView() {
				t.Error("trigger should fail open to true")
			}
			if !errors.Is(trig.Err(), tt.err) {
				t.Errorf("Err = %v, want %v", trig.Err(), tt.err)
			}
		})
	}
}

func TestInViewRecoversWhenViewportAppears(t *testing.T) {
	s := NewScene()
	s.SetPointerSource(nil)
	n := belowFold(s)
	trig := s.UseInView(n, InViewOptions{})
	if !trig.InView() || trig.Err() == nil {
		t.Fatal("trigger without a viewport should fail open")
	}

	s.SetScreenSize(800, 600)
	s.UpdateDelta(frame)
	if trig.InView() || trig.Err() != nil {
		t.Errorf("InView = %v, Err = %v after screen size is known", trig.InView(), trig.Err())
	}
}

func TestInViewClose(t *testing.T) {
	s := newTestScene()
	n := belowFold(s)
	trig := s.UseInView(n, InViewOptions{})
	calls := 0
	trig.OnChange(func(bool) { calls++ })

	trig.Close()
	trig.Close()
	if !trig.Closed() || s.ObserverCount() != 0 {
		t.Fatalf("Closed = %v, ObserverCount = %d", trig.Closed(), s.ObserverCount())
	}
	scrollTo(s, 600)
	if trig.InView() || calls != 0 {
		t.Error("closed trigger should not change")
	}
}

func TestInViewClosesOnDispose(t *testing.T) {
	s := newTestScene()
	n := belowFold(s)
	trig := s.UseInView(n, InViewOptions{})
	n.Dispose()
	s.UpdateDelta(frame)
	if !trig.Closed() || s.ObserverCount() != 0 {
		t.Error("disposing the node should release its trigger")
	}
}

func TestInViewEmitsRevealEvents(t *testing.T) {
	s := newTestScene()
	store := &recordStore{}
	s.SetEntityStore(store)
	n := belowFold(s)
	n.EntityID = 3
	s.UseInView(n, InViewOptions{})

	scrollTo(s, 600)
	scrollTo(s, 0)

	if !slices.Equal(store.types(), []EventType{EventReveal, EventHide}) {
		t.Errorf("events = %v", store.types())
	}
	if store.events[0].GlobalY != 1000 {
		t.Errorf("reveal GlobalY = %v, want 1000", store.events[0].GlobalY)
	}
}

func TestIntersectsView(t *testing.T) {
	root := Rect{Width: 800, Height: 600}
	if !intersectsView(Rect{X: 0, Y: 600, Width: 10, Height: 10}, root, 0) {
		t.Error("touching edge counts with amount 0")
	}
	if intersectsView(Rect{X: 0, Y: 600, Width: 10, Height: 10}, root, 0.1) {
		t.Error("touching edge has no visible area")
	}
	if !intersectsView(Rect{X: 0, Y: 300, Width: 10, Height: 0}, root, 1) {
		t.Error("zero-area element inside root is visible at any amount")
	}
	if intersectsView(Rect{X: 0, Y: 0, Width: 10, Height: 10}, root.Expand(Uniform(-500)), 0) {
		t.Error("empty root intersects nothing")
	}
}
