// Package geom holds the normalized-coordinate math used by the annotation
// editor. Everything here is pure: positions and sizes are expressed in
// [0,1] relative to the full background image, so a saved layer renders the
// same regardless of the resolution the scene was generated at.
package geom

import (
	"math"
	"unicode/utf8"
)

// Point is a position in normalized or pixel space depending on context.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a width/height pair.
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Rect is an axis-aligned box.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Bubble size bounds. Minimums keep bubbles visible and grabbable; maximums
// keep a single bubble from dominating the frame.
const (
	MinBubbleW = 0.12
	MaxBubbleW = 0.9
	MinBubbleH = 0.08
	MaxBubbleH = 0.55
)

// Tolerance for float comparisons on normalized geometry.
const Epsilon = 1e-6

func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

func (r Rect) Intersects(other Rect) bool {
	return r.X < other.X+other.W &&
		r.X+r.W > other.X &&
		r.Y < other.Y+other.H &&
		r.Y+r.H > other.Y
}

func (r Rect) Area() float64 {
	return r.W * r.H
}

// Center returns the midpoint of the rect.
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// ToNormalized maps a pixel position onto the unit square of a stage of the
// given pixel size. Inverse of ToPixels up to Epsilon.
func ToNormalized(px Point, stage Size) Point {
	if stage.W == 0 || stage.H == 0 {
		return Point{}
	}
	return Point{X: px.X / stage.W, Y: px.Y / stage.H}
}

// ToPixels maps a normalized position back to pixels on the given stage.
func ToPixels(norm Point, stage Size) Point {
	return Point{X: norm.X * stage.W, Y: norm.Y * stage.H}
}

// RectToPixels scales a normalized rect to stage pixels.
func RectToPixels(r Rect, stage Size) Rect {
	return Rect{X: r.X * stage.W, Y: r.Y * stage.H, W: r.W * stage.W, H: r.H * stage.H}
}

// RectToNormalized scales a pixel rect onto the unit square.
func RectToNormalized(r Rect, stage Size) Rect {
	if stage.W == 0 || stage.H == 0 {
		return Rect{}
	}
	return Rect{X: r.X / stage.W, Y: r.Y / stage.H, W: r.W / stage.W, H: r.H / stage.H}
}

// ClampBox translates (and if needed shrinks) box so it lies fully inside
// bounds inset by padding on each side. A box larger than the padded bounds
// is shrunk to fit and centered. Idempotent: clamping a clamped box is a
// no-op.
func ClampBox(box, bounds Rect, padding float64) Rect {
	inner := Rect{
		X: bounds.X + padding,
		Y: bounds.Y + padding,
		W: bounds.W - 2*padding,
		H: bounds.H - 2*padding,
	}
	if inner.W < 0 {
		inner.X = bounds.X + bounds.W/2
		inner.W = 0
	}
	if inner.H < 0 {
		inner.Y = bounds.Y + bounds.H/2
		inner.H = 0
	}

	out := box
	if out.W > inner.W {
		out.W = inner.W
		out.X = inner.X
	} else {
		out.X = Clamp(out.X, inner.X, inner.X+inner.W-out.W)
	}
	if out.H > inner.H {
		out.H = inner.H
		out.Y = inner.Y
	} else {
		out.Y = Clamp(out.Y, inner.Y, inner.Y+inner.H-out.H)
	}
	return out
}

// DefaultSize estimates a bubble size for the given text. Width grows with
// text length up to a cap; height follows the wrapped line count at that
// width. Deterministic so placement is reproducible and testable.
func DefaultSize(text string) Size {
	n := utf8.RuneCountInString(text)
	w := Clamp(0.18+0.006*float64(n), 0.18, 0.42)
	h := Clamp(0.05+0.03*float64(estimateLines(text, w)), MinBubbleH, MaxBubbleH)
	return Size{W: w, H: h}
}

// estimateLines counts wrapped lines: explicit line breaks split segments,
// each segment wraps at charsPerLine for the chosen width.
func estimateLines(text string, w float64) int {
	charsPerLine := int(math.Floor(w * 70))
	if charsPerLine < 12 {
		charsPerLine = 12
	}
	lines := 0
	start := 0
	runes := []rune(text)
	for i := 0; i <= len(runes); i++ {
		if i == len(runes) || runes[i] == '\n' {
			seg := i - start
			lines += (seg + charsPerLine - 1) / charsPerLine
			start = i + 1
		}
	}
	if lines < 1 {
		lines = 1
	}
	return lines
}
