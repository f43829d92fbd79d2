package flourish

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"testing"
)

// captureStderr runs fn with os.Stderr redirected and returns what it wrote.
func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stderr
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stderr = w
	fn()
	w.Close()
	os.Stderr = old

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	return buf.String()
}

func TestDebugModeDisposedNodePanics(t *testing.T) {
	s := NewScene()
	s.SetDebugMode(true)
	defer s.SetDebugMode(false)

	parent := NewContainer("parent")
	s.Root().AddChild(parent)

	child := NewBox("child", 10, 10, ColorWhite)
	child.Dispose()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic on AddChild with disposed node, got none")
		}
		if msg := fmt.Sprint(r); !strings.Contains(msg, "disposed") {
			t.Errorf("panic message should mention 'disposed', got: %s", msg)
		}
	}()

	parent.AddChild(child)
}

func TestDebugModeDisposedParentPanics(t *testing.T) {
	s := NewScene()
	s.SetDebugMode(true)
	defer s.SetDebugMode(false)

	parent := NewContainer("parent")
	parent.Dispose()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic on AddChild to disposed parent, got none")
		}
		if msg := fmt.Sprint(r); !strings.Contains(msg, "disposed") {
			t.Errorf("panic message should mention 'disposed', got: %s", msg)
		}
	}()

	parent.AddChild(NewBox("child", 10, 10, ColorWhite))
}

func TestDebugModeTreeDepthWarning(t *testing.T) {
	s := NewScene()
	s.SetDebugMode(true)
	defer s.SetDebugMode(false)

	output := captureStderr(t, func() {
		current := s.Root()
		for i := 0; i < debugMaxTreeDepth+5; i++ {
			child := NewContainer(fmt.Sprintf("depth_%d", i))
			current.AddChild(child)
			current = child
		}
	})

	if !strings.Contains(output, "warning: tree depth") {
		t.Errorf("expected tree depth warning in stderr, got: %q", output)
	}
}

func TestDebugModeChildCountWarning(t *testing.T) {
	s := NewScene()
	s.SetDebugMode(true)
	defer s.SetDebugMode(false)

	output := captureStderr(t, func() {
		parent := NewContainer("many_children")
		s.Root().AddChild(parent)
		for i := 0; i < debugMaxChildCount+1; i++ {
			parent.AddChild(NewContainer(fmt.Sprintf("c_%d", i)))
		}
	})

	if !strings.Contains(output, "warning: node") || !strings.Contains(output, "children") {
		t.Errorf("expected child count warning in stderr, got: %q", output)
	}
}

func TestDebugfGated(t *testing.T) {
	s := NewScene()
	s.SetDebugMode(false)
	quiet := captureStderr(t, func() { debugf("hidden %d", 1) })
	if quiet != "" {
		t.Errorf("debugf wrote %q with debug off", quiet)
	}

	s.SetDebugMode(true)
	defer s.SetDebugMode(false)
	loud := captureStderr(t, func() { debugf("shown %d", 2) })
	if loud != "[flourish] shown 2\n" {
		t.Errorf("debugf wrote %q", loud)
	}
}

func TestDebugModeReportsFailOpen(t *testing.T) {
	s := NewScene()
	s.SetDebugMode(true)
	defer s.SetDebugMode(false)

	output := captureStderr(t, func() {
		s.UseInView(nil, InViewOptions{})
	})
	if !strings.Contains(output, "[flourish]") {
		t.Errorf("expected a fail-open report, got %q", output)
	}
}

func TestDebugLogStats(t *testing.T) {
	s := newTestScene()
	s.SetDebugMode(true)
	defer s.SetDebugMode(false)
	belowFold(s)

	output := captureStderr(t, func() {
		s.debugLog(debugStats{quadCount: 12, culledCount: 3})
	})
	if !strings.Contains(output, "quads: 12 | culled: 3") {
		t.Errorf("stats line missing, got %q", output)
	}
}
