package textkit

import "github.com/ByLCY/textdeco/richtext"

// Manager decorates one layout engine: it resolves geometry, runs painters,
// hosts attachment content and keeps that content keyed correctly across
// edits of the layout's text. A Manager belongs to a single surface and is not
// safe for concurrent use.
type Manager struct {
	layout     Layout
	resolver   *Resolver
	compositor *Compositor
	host       *Host

	removeObserver func()
}

var _ AttachmentSizer = (*Manager)(nil)
var _ richtext.EditObserver = (*Manager)(nil)

// NewManager wires a manager to l. It becomes l's attachment sizer and
// observes edits of l's text.
func NewManager(l Layout) *Manager {
	resolver := NewResolver(l)
	m := &Manager{
		layout:     l,
		resolver:   resolver,
		compositor: NewCompositor(l, resolver),
		host:       NewHost(),
	}
	l.SetAttachmentSizer(m)
	if text := l.Text(); text != nil {
		m.removeObserver = text.AddObserver(m)
	}
	return m
}

func (m *Manager) Layout() Layout           { return m.layout }
func (m *Manager) Resolver() *Resolver      { return m.resolver }
func (m *Manager) Compositor() *Compositor  { return m.compositor }
func (m *Manager) Host() *Host              { return m.host }
func (m *Manager) SetContainer(c Container) { m.host.SetContainer(c) }

// ProcessEditing reconciles hosted content with an edit and invalidates the
// layout. It runs synchronously inside the mutating call on the text.
func (m *Manager) ProcessEditing(ev richtext.EditEvent) {
	m.host.Reconcile(ev.PreEditRange(), ev.Delta)
	m.layout.Invalidate()
}

// AttachmentBounds returns the bounds the layout should reserve for a at
// charIndex. View backed attachments without explicit bounds are generated
// and sized from their content.
func (m *Manager) AttachmentBounds(a *Attachment, charIndex int) Rect {
	b := a.Bounds()
	if !a.sizedByContent() {
		return b
	}
	m.host.Ensure(a, charIndex)
	if fitted, ok := m.host.fitted(a, charIndex); ok {
		b.W, b.H = fitted.W, fitted.H
	}
	return b
}

// DrawBackground draws the engine's background for glyphs followed by the
// background painters of every line touched.
func (m *Manager) DrawBackground(glyphs richtext.Range, origin Point, s Surface) {
	m.layout.DrawBackground(glyphs, origin, s)
	m.compositor.CompositeGlyphs(s, glyphs, origin, Background)
}

// DrawGlyphs draws the engine's glyphs, places attachments and then runs the
// foreground painters.
func (m *Manager) DrawGlyphs(glyphs richtext.Range, origin Point, s Surface) {
	m.layout.DrawGlyphs(glyphs, origin, s)
	m.placeAttachments(glyphs, origin, s)
	m.compositor.CompositeGlyphs(s, glyphs, origin, Foreground)
}

func (m *Manager) placeAttachments(glyphs richtext.Range, origin Point, s Surface) {
	text := m.layout.Text()
	for g := glyphs.Location; g < glyphs.End(); g++ {
		ci := m.layout.CharacterIndex(g)
		a := attachmentAt(text, ci)
		if a == nil {
			continue
		}
		size := m.layout.AttachmentSize(g)
		line, ok := m.layout.LineFragmentAt(g)
		if !a.CanCustomize() || !size.Visible() || !ok {
			m.host.Hide(a, ci)
			continue
		}
		loc := m.layout.Location(g)
		r := Rect{
			X: origin.X + line.Rect.X + loc.X,
			Y: origin.Y + line.Rect.Y + loc.Y - size.H,
			W: size.W,
			H: size.H,
		}
		m.host.Place(s, a, ci, r)
	}
}

// Close tears the manager down: all hosted content is detached and the text
// is no longer observed.
func (m *Manager) Close() {
	m.host.Close()
	if m.removeObserver != nil {
		m.removeObserver()
		m.removeObserver = nil
	}
}
