package main

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/milk9111/bubbleedit/bubble"
	"github.com/milk9111/bubbleedit/geom"
	"github.com/milk9111/bubbleedit/interaction"
	"github.com/milk9111/bubbleedit/session"
)

// Canvas owns the scene viewport: the background render with the bubble
// layer on top, plus pan/zoom. Pointer events inside it are mapped to
// stage pixels and fed to the interaction controller; the bubble drawing
// itself is a pure projection of the store.
type Canvas struct {
	// viewport transform
	Zoom    float64
	OffsetX float64
	OffsetY float64

	// middle-drag pan state
	panActive bool
	lastMX    int
	lastMY    int

	// left-button gesture tracking
	prevMouse     bool
	gestureActive bool

	// stage = background image pixel space
	StageW     int
	StageH     int
	Background *ebiten.Image
}

func NewCanvas(bg *ebiten.Image, stageW, stageH int) *Canvas {
	return &Canvas{
		Zoom:       1.0,
		Background: bg,
		StageW:     stageW,
		StageH:     stageH,
	}
}

// Stage returns the pixel size of the stage for the controller.
func (c *Canvas) Stage() geom.Size {
	return geom.Size{W: float64(c.StageW), H: float64(c.StageH)}
}

// screenToStage maps a screen position through pan/zoom into stage pixels.
func (c *Canvas) screenToStage(sx, sy int) geom.Point {
	if c.Zoom == 0 {
		c.Zoom = 1.0
	}
	return geom.Point{
		X: (float64(sx) - c.OffsetX) / c.Zoom,
		Y: (float64(sy) - c.OffsetY) / c.Zoom,
	}
}

func (c *Canvas) inStage(p geom.Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < float64(c.StageW) && p.Y < float64(c.StageH)
}

// Update handles viewport input and routes the left-button gesture to the
// controller. uiHovered suppresses new gestures while the pointer is over
// a UI widget; a gesture already in flight keeps receiving moves so a drag
// across a panel edge doesn't stall. drop, when non-nil, consumes the next
// stage click (a pending suggestion placement).
func (c *Canvas) Update(ctrl *interaction.Controller, uiHovered bool, drop func(px geom.Point) bool) {
	mx, my := ebiten.CursorPosition()

	// wheel zoom centered on the cursor
	if !uiHovered {
		_, wy := ebiten.Wheel()
		if wy != 0 {
			local := c.screenToStage(mx, my)
			factor := 1.1
			if wy < 0 {
				factor = 1.0 / 1.1
			}
			newZoom := geom.Clamp(c.Zoom*factor, 0.2, 8.0)
			c.Zoom = newZoom
			// keep the point under the cursor fixed
			c.OffsetX = float64(mx) - local.X*c.Zoom
			c.OffsetY = float64(my) - local.Y*c.Zoom
		}
	}

	// middle-button pan
	mPressed := ebiten.IsMouseButtonPressed(ebiten.MouseButtonMiddle)
	if mPressed {
		if !c.panActive {
			c.panActive = true
			c.lastMX = mx
			c.lastMY = my
		}
		c.OffsetX += float64(mx - c.lastMX)
		c.OffsetY += float64(my - c.lastMY)
		c.lastMX = mx
		c.lastMY = my
	} else {
		c.panActive = false
	}

	// left-button gesture: down / move / up edges for the controller
	pressed := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	stagePt := c.screenToStage(mx, my)
	if pressed && !c.prevMouse {
		if !uiHovered && c.inStage(stagePt) {
			if drop != nil && drop(stagePt) {
				// suggestion placed; not the start of a drag
			} else {
				ctrl.PointerDown(stagePt)
				c.gestureActive = true
			}
		}
	} else if pressed && c.prevMouse && c.gestureActive {
		// moves keep flowing even off-stage; clamping downstream keeps
		// the preview truthful
		ctrl.PointerMove(stagePt)
	}
	if !pressed && c.prevMouse && c.gestureActive {
		ctrl.PointerUp(stagePt)
		c.gestureActive = false
	}
	c.prevMouse = pressed
}

// Interrupted tells the canvas the in-flight gesture was finalized
// elsewhere (blur, tool switch) so a stale pointerUp isn't forwarded.
func (c *Canvas) Interrupted() {
	c.gestureActive = false
}

var (
	panelOutline   = color.RGBA{0xff, 0xd7, 0x00, 0xff}
	bubbleFill     = color.RGBA{0xff, 0xff, 0xff, 0xe6}
	bubbleBorder   = color.RGBA{0x10, 0x10, 0x10, 0xff}
	selectedBorder = color.RGBA{0x3c, 0x78, 0xff, 0xff}
	warningBorder  = color.RGBA{0xff, 0x8c, 0x00, 0xff}
	handleFill     = color.RGBA{0x3c, 0x78, 0xff, 0xff}
)

// Draw renders the stage: background, panel outlines, bubbles in draw
// order, and the selection's handles on top.
func (c *Canvas) Draw(screen *ebiten.Image, sess *session.Session) {
	if c.Background != nil {
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(c.Zoom, c.Zoom)
		op.GeoM.Translate(c.OffsetX, c.OffsetY)
		screen.DrawImage(c.Background, op)
	} else {
		vector.DrawFilledRect(screen,
			float32(c.OffsetX), float32(c.OffsetY),
			float32(float64(c.StageW)*c.Zoom), float32(float64(c.StageH)*c.Zoom),
			color.RGBA{0x20, 0x20, 0x20, 0xff}, false)
	}

	stage := c.Stage()

	if sess.Panels != nil {
		for _, p := range sess.Panels.Panels() {
			r := c.stageRectToScreen(geom.RectToPixels(p.Rect, stage))
			vector.StrokeRect(screen, float32(r.X), float32(r.Y), float32(r.W), float32(r.H), 1, panelOutline, false)
		}
	}

	selected := sess.Store.Selected()
	for _, b := range sess.Store.All() {
		c.drawBubble(screen, b, stage, b.ID == selected)
	}
}

func (c *Canvas) stageRectToScreen(r geom.Rect) geom.Rect {
	return geom.Rect{
		X: r.X*c.Zoom + c.OffsetX,
		Y: r.Y*c.Zoom + c.OffsetY,
		W: r.W * c.Zoom,
		H: r.H * c.Zoom,
	}
}

func (c *Canvas) stagePointToScreen(p geom.Point) geom.Point {
	return geom.Point{X: p.X*c.Zoom + c.OffsetX, Y: p.Y*c.Zoom + c.OffsetY}
}

func (c *Canvas) drawBubble(screen *ebiten.Image, b *bubble.Bubble, stage geom.Size, isSelected bool) {
	r := c.stageRectToScreen(geom.RectToPixels(b.Geometry, stage))

	// tail under the balloon
	if b.Tail != nil {
		tip := c.stagePointToScreen(geom.ToPixels(*b.Tail, stage))
		center := geom.Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
		vector.StrokeLine(screen, float32(center.X), float32(center.Y), float32(tip.X), float32(tip.Y), 2, bubbleBorder, false)
		if isSelected {
			vector.DrawFilledCircle(screen, float32(tip.X), float32(tip.Y), 6, handleFill, false)
		}
	}

	if b.Kind != bubble.SFX {
		vector.DrawFilledRect(screen, float32(r.X), float32(r.Y), float32(r.W), float32(r.H), bubbleFill, false)
	}
	border := bubbleBorder
	width := float32(1)
	if b.Unassigned() {
		border = warningBorder
		width = 2
	}
	if isSelected {
		border = selectedBorder
		width = 2
	}
	vector.StrokeRect(screen, float32(r.X), float32(r.Y), float32(r.W), float32(r.H), width, border, false)

	if isSelected {
		// bottom-right resize handle
		vector.DrawFilledRect(screen, float32(r.X+r.W-5), float32(r.Y+r.H-5), 10, 10, handleFill, false)
	}

	label := b.Text
	if b.Speaker != "" {
		label = b.Speaker + ": " + label
	}
	if len(label) > 40 {
		label = label[:40] + "…"
	}
	ebitenutil.DebugPrintAt(screen, label, int(r.X)+4, int(r.Y)+4)
}
