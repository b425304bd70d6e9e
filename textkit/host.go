package textkit

import (
	"cmp"
	"slices"

	"github.com/ByLCY/textdeco/richtext"
)

// AttachmentKey identifies live content: the attachment's identity token and
// the character index it currently sits at.
type AttachmentKey struct {
	ID        uint64 `json:"id"`
	CharIndex int    `json:"charIndex"`
}

// KeyFor returns the key of a at charIndex.
func KeyFor(a *Attachment, charIndex int) AttachmentKey {
	return AttachmentKey{ID: a.id, CharIndex: charIndex}
}

type hostEntry struct {
	content Content
	fitted  Size
}

// Host owns the embedded content spawned for view backed attachments of one
// surface. It is not safe for concurrent use.
type Host struct {
	entries   map[AttachmentKey]*hostEntry
	container Container
}

// NewHost returns an empty host.
func NewHost() *Host {
	return &Host{entries: map[AttachmentKey]*hostEntry{}}
}

// SetContainer sets where content is attached. Content attached to a previous
// container is detached from it first.
func (h *Host) SetContainer(c Container) {
	if h.container != nil {
		for _, e := range h.entries {
			h.detach(e.content)
		}
	}
	h.container = c
}

// Container returns the current container, or nil.
func (h *Host) Container() Container { return h.container }

// Ensure creates the content of a view backed attachment at charIndex unless
// it exists already.
func (h *Host) Ensure(a *Attachment, charIndex int) {
	if a == nil || a.kind != KindView || a.generator == nil || !a.CanCustomize() {
		return
	}
	key := KeyFor(a, charIndex)
	if _, ok := h.entries[key]; ok {
		return
	}
	content := a.generator()
	if content == nil {
		return
	}
	h.entries[key] = &hostEntry{content: content, fitted: content.SizeThatFits()}
	Logger().Debug("textkit: generated attachment content", "id", key.ID, "charIndex", key.CharIndex)
}

// Get returns the content of a at charIndex.
func (h *Host) Get(a *Attachment, charIndex int) (Content, bool) {
	if a == nil {
		return nil, false
	}
	e, ok := h.entries[KeyFor(a, charIndex)]
	if !ok {
		return nil, false
	}
	return e.content, true
}

func (h *Host) fitted(a *Attachment, charIndex int) (Size, bool) {
	e, ok := h.entries[KeyFor(a, charIndex)]
	if !ok {
		return Size{}, false
	}
	return e.fitted, true
}

// Len returns the number of live entries.
func (h *Host) Len() int { return len(h.entries) }

// Keys returns the live keys ordered by character index, then identity.
func (h *Host) Keys() []AttachmentKey {
	keys := make([]AttachmentKey, 0, len(h.entries))
	for k := range h.entries {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeys)
	return keys
}

// Contents returns the live content ordered like Keys.
func (h *Host) Contents() []Content {
	keys := h.Keys()
	out := make([]Content, len(keys))
	for i, k := range keys {
		out[i] = h.entries[k].content
	}
	return out
}

// Reconcile updates keys after the characters in edited, in pre-edit
// coordinates, were replaced with a net length change of delta. Entries inside
// edited are dropped, entries at or after its end move by delta and are
// detached until the next draw places them again.
func (h *Host) Reconcile(edited richtext.Range, delta int) {
	var dropped, shifted []AttachmentKey
	for k := range h.entries {
		switch {
		case edited.Contains(k.CharIndex):
			dropped = append(dropped, k)
		case k.CharIndex >= edited.End():
			shifted = append(shifted, k)
		}
	}

	for _, k := range dropped {
		h.detach(h.entries[k].content)
		delete(h.entries, k)
	}

	slices.SortFunc(shifted, compareKeys)
	moved := make([]*hostEntry, len(shifted))
	for i, k := range shifted {
		moved[i] = h.entries[k]
		h.detach(moved[i].content)
		delete(h.entries, k)
	}
	for i, k := range shifted {
		h.entries[AttachmentKey{ID: k.ID, CharIndex: k.CharIndex + delta}] = moved[i]
	}

	if len(dropped) > 0 || len(shifted) > 0 {
		Logger().Debug("textkit: reconciled attachment content",
			"edited", edited, "delta", delta, "dropped", len(dropped), "shifted", len(shifted))
	}
}

// Place draws or positions attachment a at charIndex into r. Custom painted
// attachments are drawn directly; view backed ones get their content framed
// to r and attached to the container.
func (h *Host) Place(s Surface, a *Attachment, charIndex int, r Rect) {
	if a == nil {
		return
	}
	if a.kind == KindPainted && a.paint != nil {
		s.Save()
		a.paint(s, r)
		s.Restore()
		h.Hide(a, charIndex)
		return
	}
	if h.container == nil {
		h.Hide(a, charIndex)
		return
	}
	h.Ensure(a, charIndex)
	e, ok := h.entries[KeyFor(a, charIndex)]
	if !ok {
		return
	}
	e.content.SetFrame(r)
	if !h.container.Attached(e.content) {
		h.container.Attach(e.content)
	}
	h.container.RaiseOverlays()
	Logger().Debug("textkit: placed attachment content", "id", a.ID(), "charIndex", charIndex, "frame", r)
	if d, ok := e.content.(Drawer); ok {
		s.Save()
		d.Draw(s)
		s.Restore()
	}
}

// Hide detaches the content of a at charIndex without discarding it.
func (h *Host) Hide(a *Attachment, charIndex int) {
	if a == nil {
		return
	}
	if e, ok := h.entries[KeyFor(a, charIndex)]; ok {
		h.detach(e.content)
	}
}

// Close detaches all content and forgets it.
func (h *Host) Close() {
	for _, e := range h.entries {
		h.detach(e.content)
	}
	clear(h.entries)
}

func (h *Host) detach(c Content) {
	if h.container != nil && h.container.Attached(c) {
		h.container.Detach(c)
	}
}

func compareKeys(a, b AttachmentKey) int {
	if c := cmp.Compare(a.CharIndex, b.CharIndex); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
