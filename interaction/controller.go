// Package interaction translates raw pointer events into session edits
// through an explicit state machine. The controller is independent of the
// UI toolkit: the canvas feeds it pixel positions and a stage size, and it
// drives the session. One gesture produces exactly one history command, at
// gesture end, covering the net change.
package interaction

import (
	"math"

	"github.com/milk9111/bubbleedit/bubble"
	"github.com/milk9111/bubbleedit/geom"
	"github.com/milk9111/bubbleedit/session"
)

// State is the single interaction state. Dragging and resizing at the same
// time is unrepresentable by construction.
type State int

const (
	Idle State = iota
	DraggingBubble
	ResizingBubble
	DraggingTail
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case DraggingBubble:
		return "DraggingBubble"
	case ResizingBubble:
		return "ResizingBubble"
	case DraggingTail:
		return "DraggingTail"
	}
	return "Unknown"
}

// Tool is the declared tool mode, orthogonal to the interaction state.
type Tool int

const (
	ToolSelect Tool = iota
	ToolAddBubble
	ToolDelete
)

func (t Tool) String() string {
	switch t {
	case ToolSelect:
		return "Select"
	case ToolAddBubble:
		return "Add Bubble"
	case ToolDelete:
		return "Delete"
	}
	return "Unknown"
}

// Handle hit zones, in stage pixels. The canvas feeds the controller
// stage-space coordinates, so the on-screen grab target grows and shrinks
// with the zoom factor.
const (
	resizeHandlePx = 14.0
	tailHandlePx   = 12.0
)

// placeholderText seeds a bubble created with the Add Bubble tool; the user
// types over it.
const placeholderText = "..."

// Controller runs the gesture state machine for one session.
type Controller struct {
	sess  *session.Session
	stage geom.Size

	state State
	tool  Tool

	activeID      string
	pointerOffset geom.Point // pixels from bubble top-left at pointer down
	startGeom     geom.Rect
	startTail     geom.Point
}

func NewController(sess *session.Session) *Controller {
	return &Controller{sess: sess}
}

func (c *Controller) State() State { return c.state }
func (c *Controller) Tool() Tool   { return c.tool }

// SetStage updates the pixel size of the drawing surface. Must be non-zero
// before pointer events arrive.
func (c *Controller) SetStage(stage geom.Size) {
	c.stage = stage
}

// SetTool switches the tool mode. A gesture in flight is finalized first;
// a tool switch is an Idle-inducing event like blur.
func (c *Controller) SetTool(t Tool) {
	if c.state != Idle {
		c.Interrupt()
	}
	c.tool = t
}

// PointerDown starts a gesture or performs a click action, depending on the
// tool and what is under the pointer. A down while a gesture is somehow
// still in flight (a lost pointerUp) finalizes the old gesture first.
func (c *Controller) PointerDown(px geom.Point) {
	if c.state != Idle {
		c.Interrupt()
	}
	norm := geom.ToNormalized(px, c.stage)

	switch c.tool {
	case ToolSelect:
		if id, ok := c.tailHandleAt(px); ok {
			b := c.sess.Store.Get(id)
			c.state = DraggingTail
			c.activeID = id
			c.startTail = *b.Tail
			return
		}
		if id, ok := c.resizeHandleAt(px); ok {
			b := c.sess.Store.Get(id)
			c.state = ResizingBubble
			c.activeID = id
			c.startGeom = b.Geometry
			return
		}
		if b := c.sess.Store.HitTest(norm); b != nil {
			c.sess.Store.Select(b.ID)
			topLeft := geom.ToPixels(geom.Point{X: b.Geometry.X, Y: b.Geometry.Y}, c.stage)
			c.state = DraggingBubble
			c.activeID = b.ID
			c.pointerOffset = geom.Point{X: px.X - topLeft.X, Y: px.Y - topLeft.Y}
			c.startGeom = b.Geometry
			return
		}
		c.sess.Store.Select("")

	case ToolAddBubble:
		if c.sess.Store.HitTest(norm) == nil {
			c.sess.AddBubble(bubble.Speech, placeholderText, "", norm)
		}

	case ToolDelete:
		if b := c.sess.Store.HitTest(norm); b != nil {
			c.sess.DeleteBubble(b.ID)
		}
	}
}

// PointerMove updates the live geometry for the gesture in flight. No
// command is emitted per frame; the session preview re-clamps into the
// bubble's panel on every move so on-screen feedback is truthful.
func (c *Controller) PointerMove(px geom.Point) {
	switch c.state {
	case DraggingBubble:
		topLeft := geom.ToNormalized(geom.Point{X: px.X - c.pointerOffset.X, Y: px.Y - c.pointerOffset.Y}, c.stage)
		c.sess.PreviewGeometry(c.activeID, geom.Rect{
			X: topLeft.X, Y: topLeft.Y,
			W: c.startGeom.W, H: c.startGeom.H,
		})
	case ResizingBubble:
		norm := geom.ToNormalized(px, c.stage)
		c.sess.PreviewGeometry(c.activeID, geom.Rect{
			X: c.startGeom.X, Y: c.startGeom.Y,
			W: norm.X - c.startGeom.X, H: norm.Y - c.startGeom.Y,
		})
	case DraggingTail:
		c.sess.PreviewTail(c.activeID, geom.ToNormalized(px, c.stage))
	}
}

// PointerUp finalizes the gesture: one command from gesture-start state to
// the store's current (already previewed and clamped) state.
func (c *Controller) PointerUp(px geom.Point) {
	c.PointerMove(px)
	c.finalize()
}

// Interrupt finalizes a gesture without a pointerUp: window blur, tool
// switch, or a stray second pointer down. The last previewed geometry
// commits; there is no mid-gesture rollback.
func (c *Controller) Interrupt() {
	c.finalize()
}

// Drop places an externally supplied dialogue line at the drop point. The
// panel is resolved from the point, size from the text, and the new bubble
// becomes the selection.
func (c *Controller) Drop(kind bubble.Kind, text, speaker string, px geom.Point) *bubble.Bubble {
	if c.state != Idle {
		c.Interrupt()
	}
	return c.sess.AddBubble(kind, text, speaker, geom.ToNormalized(px, c.stage))
}

func (c *Controller) finalize() {
	if c.state == Idle {
		return
	}
	b := c.sess.Store.Get(c.activeID)
	if b != nil {
		switch c.state {
		case DraggingBubble:
			if !rectEq(c.startGeom, b.Geometry) {
				c.sess.MoveBubble(c.activeID, c.startGeom, b.Geometry)
			}
		case ResizingBubble:
			if !rectEq(c.startGeom, b.Geometry) {
				c.sess.ResizeBubble(c.activeID, c.startGeom, b.Geometry)
			}
		case DraggingTail:
			if b.Tail != nil && !pointEq(c.startTail, *b.Tail) {
				c.sess.MoveTail(c.activeID, c.startTail, *b.Tail)
			}
		}
	}
	c.state = Idle
	c.activeID = ""
}

// resizeHandleAt reports whether px is on the selected bubble's resize
// handle (bottom-right corner). Handles exist only on the selection.
func (c *Controller) resizeHandleAt(px geom.Point) (string, bool) {
	b := c.selectedBubble()
	if b == nil {
		return "", false
	}
	r := geom.RectToPixels(b.Geometry, c.stage)
	corner := geom.Point{X: r.X + r.W, Y: r.Y + r.H}
	if math.Abs(px.X-corner.X) <= resizeHandlePx && math.Abs(px.Y-corner.Y) <= resizeHandlePx {
		return b.ID, true
	}
	return "", false
}

// tailHandleAt reports whether px is on the selected bubble's tail handle.
func (c *Controller) tailHandleAt(px geom.Point) (string, bool) {
	b := c.selectedBubble()
	if b == nil || b.Tail == nil {
		return "", false
	}
	t := geom.ToPixels(*b.Tail, c.stage)
	if math.Abs(px.X-t.X) <= tailHandlePx && math.Abs(px.Y-t.Y) <= tailHandlePx {
		return b.ID, true
	}
	return "", false
}

func (c *Controller) selectedBubble() *bubble.Bubble {
	id := c.sess.Store.Selected()
	if id == "" {
		return nil
	}
	return c.sess.Store.Get(id)
}

func rectEq(a, b geom.Rect) bool {
	return math.Abs(a.X-b.X) < geom.Epsilon &&
		math.Abs(a.Y-b.Y) < geom.Epsilon &&
		math.Abs(a.W-b.W) < geom.Epsilon &&
		math.Abs(a.H-b.H) < geom.Epsilon
}

func pointEq(a, b geom.Point) bool {
	return math.Abs(a.X-b.X) < geom.Epsilon && math.Abs(a.Y-b.Y) < geom.Epsilon
}
