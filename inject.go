package flourish

// syntheticPointerEvent represents a single injected pointer event.
// Screen coordinates are used and converted to world coordinates via the
// primary camera, identical to real mouse input.
type syntheticPointerEvent struct {
	screenX, screenY float64
	pressed          bool
	button           MouseButton
	leave            bool // pointer exits the window
	scroll           bool // scrollTop jump rather than a pointer event
	scrollTop        float64
}

// Once any event has been injected, the scene ignores the real mouse so a
// cursor resting over the window cannot interfere with scripted input.

// InjectMove queues a pointer move to the given screen coordinates with no
// button held. Moving onto a node fires enter on it and its ancestors.
func (s *Scene) InjectMove(x, y float64) {
	s.inject(syntheticPointerEvent{screenX: x, screenY: y})
}

// InjectLeave queues the pointer leaving the window. Every hovered node
// receives a leave event.
func (s *Scene) InjectLeave() {
	s.inject(syntheticPointerEvent{leave: true})
}

// InjectPress queues a pointer press event at the given screen coordinates
// (left button). The event is consumed on the next frame's processInput call.
func (s *Scene) InjectPress(x, y float64) {
	s.inject(syntheticPointerEvent{
		screenX: x, screenY: y,
		pressed: true,
		button:  MouseButtonLeft,
	})
}

// InjectRelease queues a pointer release event at the given screen coordinates.
func (s *Scene) InjectRelease(x, y float64) {
	s.inject(syntheticPointerEvent{
		screenX: x, screenY: y,
		pressed: false,
		button:  MouseButtonLeft,
	})
}

// InjectClick is a convenience that queues a press followed by a release
// at the same screen coordinates. Consumes two frames.
func (s *Scene) InjectClick(x, y float64) {
	s.InjectPress(x, y)
	s.InjectRelease(x, y)
}

// InjectScroll queues a jump of the primary camera's scrollTop. Observers
// see the new position on the same frame.
func (s *Scene) InjectScroll(scrollTop float64) {
	s.inject(syntheticPointerEvent{scroll: true, scrollTop: scrollTop})
}

// PendingInjections returns how many injected events have not yet been consumed.
func (s *Scene) PendingInjections() int {
	return len(s.injectQueue)
}

func (s *Scene) inject(evt syntheticPointerEvent) {
	s.synthetic = true
	s.injectQueue = append(s.injectQueue, evt)
}

// processInjectedInput pops one event from the inject queue, converts
// screen to world via the primary camera, and feeds it through processPointer.
// Returns true if an event was consumed (real mouse input should be skipped).
func (s *Scene) processInjectedInput(cam *Camera) bool {
	if len(s.injectQueue) == 0 {
		return false
	}
	evt := s.injectQueue[0]
	copy(s.injectQueue, s.injectQueue[1:])
	s.injectQueue = s.injectQueue[:len(s.injectQueue)-1]

	switch {
	case evt.scroll:
		if cam != nil {
			cam.SetScrollTop(evt.scrollTop)
		}
	case evt.leave:
		if s.pointer.down {
			s.pointer.down = false
			s.pointer.hitNode = nil
		}
		s.releaseHover()
	default:
		wx, wy := screenToWorld(cam, evt.screenX, evt.screenY)
		s.processPointer(wx, wy, evt.screenX, evt.screenY, evt.pressed, evt.button, true, 0)
	}
	return true
}
