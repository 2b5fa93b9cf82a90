package bubble

import (
	"sort"

	"github.com/milk9111/bubbleedit/geom"
	"github.com/milk9111/bubbleedit/panel"
)

// Store is the authoritative bubble collection for one session: an
// id-indexed map plus a creation-order slice for stable z-tie-breaks.
// Mutations clamp to the hard invariants before landing; callers that need
// undo wrap mutations in history commands, selection is deliberately not
// part of history.
type Store struct {
	bubbles  map[string]*Bubble
	order    []string
	known    map[string]bool // every id ever inserted; survives Remove
	selected string
	nextZ    int
}

func NewStore() *Store {
	// zIndex starts at 1 so zero means "not assigned yet" on Insert.
	return &Store{
		bubbles: make(map[string]*Bubble),
		known:   make(map[string]bool),
		nextZ:   1,
	}
}

// Get returns the live bubble for id, or nil. Callers must treat the result
// as read-only; use the mutation entry points to change it.
func (s *Store) Get(id string) *Bubble {
	return s.bubbles[id]
}

// Len returns the number of bubbles in the store.
func (s *Store) Len() int {
	return len(s.bubbles)
}

// All returns the bubbles in draw order: ascending zIndex, creation order
// breaking ties. The returned slice is fresh; the bubbles are live.
func (s *Store) All() []*Bubble {
	out := make([]*Bubble, 0, len(s.order))
	for _, id := range s.order {
		if b, ok := s.bubbles[id]; ok {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ZIndex < out[j].ZIndex })
	return out
}

// Insert adds a bubble. A bubble with zIndex zero has not been stacked yet
// and gets the next top-of-stack value; any nonzero zIndex (an undone
// delete, a hydrated layer) is kept as-is. The assigned zIndex is written
// back to the argument so the caller's copy agrees with the store. Ids are
// never reused: re-inserting a removed id lands back at its original
// creation position instead of growing the order slice.
func (s *Store) Insert(b *Bubble) {
	if b == nil {
		return
	}
	c := b.Clone()
	c.Geometry = ClampGeometry(c.Geometry)
	if c.Tail != nil {
		t := ClampTail(*c.Tail)
		c.Tail = &t
	}
	if !s.known[c.ID] {
		s.known[c.ID] = true
		s.order = append(s.order, c.ID)
	}
	if c.ZIndex == 0 {
		c.ZIndex = s.nextZ
	}
	if c.ZIndex >= s.nextZ {
		s.nextZ = c.ZIndex + 1
	}
	b.ZIndex = c.ZIndex
	s.bubbles[c.ID] = c
}

// Remove deletes the bubble and clears selection if it pointed at it. The
// id stays burned: a later Insert with the same id (undo of a delete)
// restores the original creation position.
func (s *Store) Remove(id string) {
	delete(s.bubbles, id)
	if s.selected == id {
		s.selected = ""
	}
}

// SetGeometry replaces a bubble's box, clamped to the hard invariants.
func (s *Store) SetGeometry(id string, r geom.Rect) {
	if b, ok := s.bubbles[id]; ok {
		b.Geometry = ClampGeometry(r)
	}
}

// SetTail replaces a bubble's tail anchor. A nil tail removes it.
func (s *Store) SetTail(id string, p *geom.Point) {
	b, ok := s.bubbles[id]
	if !ok {
		return
	}
	if p == nil {
		b.Tail = nil
		return
	}
	t := ClampTail(*p)
	b.Tail = &t
}

func (s *Store) SetText(id, text string) {
	if b, ok := s.bubbles[id]; ok {
		b.Text = text
	}
}

func (s *Store) SetSpeaker(id, speaker string) {
	if b, ok := s.bubbles[id]; ok {
		b.Speaker = speaker
	}
}

// SetPanel reassigns the bubble. panel.None detaches it; no geometry change
// happens here, the caller re-clamps through the panel index if needed.
func (s *Store) SetPanel(id string, panelID int) {
	if b, ok := s.bubbles[id]; ok {
		b.PanelID = panelID
	}
}

// Select marks the active bubble; empty id clears the selection. Selection
// is session-visible state but not content, so it never enters history.
func (s *Store) Select(id string) {
	if id != "" {
		if _, ok := s.bubbles[id]; !ok {
			return
		}
	}
	s.selected = id
}

// Selected returns the id of the active bubble, or "".
func (s *Store) Selected() string {
	return s.selected
}

// HitTest returns the topmost bubble containing the normalized point, or
// nil. Topmost means highest zIndex; the draw order from All already breaks
// ties by creation order, so scanning it back-to-front matches what the
// user sees.
func (s *Store) HitTest(p geom.Point) *Bubble {
	all := s.All()
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].Geometry.Contains(p) {
			return all[i]
		}
	}
	return nil
}

// Unassigned returns the bubbles with no panel, in draw order. The editor
// surfaces these with a warning tint; they are still saveable.
func (s *Store) Unassigned() []*Bubble {
	var out []*Bubble
	for _, b := range s.All() {
		if b.PanelID == panel.None {
			out = append(out, b)
		}
	}
	return out
}
