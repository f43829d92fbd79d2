package flourish

import (
	"image"
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// Perspective is the viewer distance used to project tilted nodes, in world
// units. Smaller values exaggerate the depth of a tilt.
const Perspective = 1000.0

// maxDepth caps how far toward the viewer a projected point may come. Points
// at or past Perspective would divide by zero or flip sides.
const maxDepth = 0.9 * Perspective

// maxBatchQuads keeps vertex indices within uint16 range.
const maxBatchQuads = 16000

// --- White pixel singleton (no sync.Once, the scene is single-threaded) ---

var whitePixelImage *ebiten.Image

// ensureWhitePixel returns a lazily-initialized 1x1 white pixel image.
// Every box is a pair of triangles sampling this pixel.
func ensureWhitePixel() *ebiten.Image {
	if whitePixelImage == nil {
		whitePixelImage = ebiten.NewImage(1, 1)
		whitePixelImage.Fill(color.RGBA{R: 255, G: 255, B: 255, A: 255})
	}
	return whitePixelImage
}

// pose is a node's presentation transform in world space: scale and 3D
// rotation about the box center, then a translation.
type pose struct {
	cx, cy float64
	scale  float64
	rx, ry float64 // radians
	dx, dy float64
}

// nodePose builds the presentation pose for n from its world box.
func nodePose(n *Node) pose {
	b := n.WorldBounds()
	return pose{
		cx:    b.X + b.Width/2,
		cy:    b.Y + b.Height/2,
		scale: n.RevealScale * n.HoverScale,
		rx:    (n.TiltX + n.EntryTilt) * math.Pi / 180,
		ry:    n.TiltY * math.Pi / 180,
		dx:    n.OffsetX,
		dy:    n.OffsetY + n.HoverY + n.FloatY,
	}
}

// identity reports whether the pose leaves points where they are.
func (p pose) identity() bool {
	return p.scale == 1 && p.rx == 0 && p.ry == 0 && p.dx == 0 && p.dy == 0
}

// apply maps a world point through the pose. The point is scaled about the
// center, rotated around the vertical then the horizontal axis, projected
// with Perspective, and finally translated.
func (p pose) apply(x, y float64) (float64, float64) {
	px := (x - p.cx) * p.scale
	py := (y - p.cy) * p.scale
	pz := 0.0
	if p.ry != 0 {
		sin, cos := math.Sincos(p.ry)
		px, pz = px*cos+pz*sin, -px*sin+pz*cos
	}
	if p.rx != 0 {
		sin, cos := math.Sincos(p.rx)
		py, pz = py*cos-pz*sin, py*sin+pz*cos
	}
	if pz != 0 {
		pz = min(pz, maxDepth)
		f := Perspective / (Perspective - pz)
		px *= f
		py *= f
	}
	return p.cx + px + p.dx, p.cy + py + p.dy
}

// projectQuad returns the four corners of n's box (top-left, top-right,
// bottom-right, bottom-left) in world space after its own pose and those of
// its ancestors, innermost first.
func projectQuad(n *Node, ancestors []pose) [4]Vec2 {
	own := nodePose(n)
	m := n.worldTransform
	corners := [4][2]float64{{0, 0}, {n.Width, 0}, {n.Width, n.Height}, {0, n.Height}}
	var out [4]Vec2
	for i, c := range corners {
		x, y := transformPoint(m, c[0], c[1])
		if !own.identity() {
			x, y = own.apply(x, y)
		}
		for j := len(ancestors) - 1; j >= 0; j-- {
			x, y = ancestors[j].apply(x, y)
		}
		out[i] = Vec2{x, y}
	}
	return out
}

// Draw renders the scene through each camera, or once without a view
// transform when there are no cameras. Queued screenshots are captured
// afterwards.
func (s *Scene) Draw(screen *ebiten.Image) {
	if s.ClearColor.A > 0 {
		screen.Fill(s.ClearColor.toRGBA())
	}
	if len(s.cameras) == 0 {
		s.drawWithCamera(screen, nil)
	} else {
		for _, cam := range s.cameras {
			vp := cam.Viewport
			viewportImg := screen.SubImage(image.Rect(
				int(vp.X), int(vp.Y),
				int(vp.X+vp.Width), int(vp.Y+vp.Height),
			)).(*ebiten.Image)
			s.drawWithCamera(viewportImg, cam)
		}
	}
	s.flushScreenshots(screen)
}

// drawWithCamera renders the scene from a camera's perspective.
// If cam is nil, uses identity view (no camera).
func (s *Scene) drawWithCamera(target *ebiten.Image, cam *Camera) {
	view := identityTransform
	s.cullActive = false
	if cam != nil {
		view = cam.computeViewMatrix()
		s.cullActive = cam.CullEnabled
		if cam.CullEnabled {
			s.cullBounds = cam.VisibleBounds()
		}
	}

	var stats debugStats
	var t0 time.Time
	if s.debug {
		t0 = time.Now()
	}

	updateWorldTransform(s.root, identityTransform, 1.0, false)
	s.frameQuads, s.frameCulled = 0, 0
	s.verts = s.verts[:0]
	s.inds = s.inds[:0]
	s.poses = s.poses[:0]
	s.traverse(target, s.root, view)

	if s.debug {
		stats.traverseTime = time.Since(t0)
		t0 = time.Now()
	}

	s.flushQuads(target)

	if s.debug {
		stats.submitTime = time.Since(t0)
		stats.updateTime = s.lastUpdate
		stats.quadCount = s.frameQuads
		stats.culledCount = s.frameCulled
		s.debugLog(stats)
	}
}

// traverse walks the tree in paint order, emitting a quad for every visible box.
// Children are always visited, even when their parent is culled.
func (s *Scene) traverse(target *ebiten.Image, n *Node, view [6]float64) {
	if !n.Visible || n.worldAlpha <= 0 {
		return
	}

	if n.Type == NodeTypeBox {
		slack := math.Abs(n.OffsetX) + math.Abs(n.OffsetY) + math.Abs(n.HoverY) + math.Abs(n.FloatY)
		for _, p := range s.poses {
			slack += math.Abs(p.dx) + math.Abs(p.dy)
		}
		if s.cullActive && shouldCull(n, n.worldTransform, s.cullBounds, slack) {
			s.frameCulled++
		} else {
			s.emitQuad(target, n, view)
		}
	}

	if len(n.children) == 0 {
		return
	}
	p := nodePose(n)
	pushed := !p.identity()
	if pushed {
		s.poses = append(s.poses, p)
	}
	for _, child := range paintOrder(n) {
		s.traverse(target, child, view)
	}
	if pushed {
		s.poses = s.poses[:len(s.poses)-1]
	}
}

// emitQuad appends n's projected box to the vertex buffer, flushing first
// when the batch is full.
func (s *Scene) emitQuad(target *ebiten.Image, n *Node, view [6]float64) {
	if len(s.verts)/4 >= maxBatchQuads {
		s.flushQuads(target)
	}
	q := projectQuad(n, s.poses)
	a := float32(clamp01(n.Color.A * n.worldAlpha))
	r := float32(clamp01(n.Color.R)) * a
	g := float32(clamp01(n.Color.G)) * a
	b := float32(clamp01(n.Color.B)) * a

	base := uint16(len(s.verts))
	for _, c := range q {
		x, y := transformPoint(view, c.X, c.Y)
		s.verts = append(s.verts, ebiten.Vertex{
			DstX: float32(x), DstY: float32(y),
			SrcX: 0.5, SrcY: 0.5,
			ColorR: r, ColorG: g, ColorB: b, ColorA: a,
		})
	}
	s.inds = append(s.inds, base, base+1, base+2, base, base+2, base+3)
	s.frameQuads++
}

// flushQuads submits the pending quads in a single DrawTriangles call.
func (s *Scene) flushQuads(target *ebiten.Image) {
	if len(s.inds) == 0 {
		return
	}
	op := &ebiten.DrawTrianglesOptions{}
	op.AntiAlias = true
	target.DrawTriangles(s.verts, s.inds, ensureWhitePixel(), op)
	s.verts = s.verts[:0]
	s.inds = s.inds[:0]
}
