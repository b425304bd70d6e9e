package layout

import (
	"image/color"
	"math"
	"unicode"

	"github.com/ByLCY/textdeco/richtext"
	"github.com/ByLCY/textdeco/textkit"
)

// 换行比较时允许的误差，避免按测得宽度重新排版时发生折行。
const wrapEpsilon = 1e-6

type glyphInfo struct {
	id         textkit.GlyphID
	r          rune
	font       richtext.Font
	advance    float64
	ascent     float64
	descent    float64
	lineGap    float64
	space      bool
	hardBreak  bool
	attachment *textkit.Attachment
	attBounds  textkit.Rect

	line int
	loc  textkit.Point
}

type lineInfo struct {
	rect     textkit.Rect
	used     textkit.Rect
	baseline float64
	glyphs   richtext.Range
}

// Engine 是贪心换行的排版引擎，实现 textkit.Layout。
// 每个字符对应一个字形；带附件的 U+FFFC 作为附件字形，尺寸由附件尺寸器给出。
// 排版是惰性的：首次查询时计算，Invalidate 或容器尺寸变化后重算。
// 仅修改属性（不改字符）后需要调用方自行 Invalidate。
type Engine struct {
	text      *richtext.Text
	opts      Options
	container textkit.Size
	sizer     textkit.AttachmentSizer

	valid    bool
	building bool
	err      error
	metrics  map[richtext.Font]FontMetrics
	glyphs   []glyphInfo
	lines    []lineInfo
	used     textkit.Rect
}

var _ textkit.Layout = (*Engine)(nil)

// NewEngine 创建引擎。初始容器尺寸不受限。
func NewEngine(text *richtext.Text, opts Options) *Engine {
	if text == nil {
		text = richtext.New("", nil)
	}
	return &Engine{
		text:      text,
		opts:      opts,
		container: textkit.Size{W: math.MaxFloat64, H: math.MaxFloat64},
		metrics:   map[richtext.Font]FontMetrics{},
	}
}

// Err 返回排版中遇到的第一个字体错误。
func (e *Engine) Err() error {
	e.ensure()
	return e.err
}

func (e *Engine) Text() *richtext.Text { return e.text }

func (e *Engine) NumberOfGlyphs() int {
	e.ensure()
	return len(e.glyphs)
}

func (e *Engine) GlyphAt(glyph int) textkit.GlyphID {
	if g := e.glyph(glyph); g != nil {
		return g.id
	}
	return 0
}

func (e *Engine) Location(glyph int) textkit.Point {
	g := e.glyph(glyph)
	if g == nil {
		return textkit.Point{}
	}
	return g.loc
}

func (e *Engine) LineFragmentAt(glyph int) (textkit.LineFragment, bool) {
	g := e.glyph(glyph)
	if g == nil {
		return textkit.LineFragment{}, false
	}
	return e.lines[g.line].fragment(), true
}

func (e *Engine) LineFragments(glyphs richtext.Range) []textkit.LineFragment {
	e.ensure()
	var out []textkit.LineFragment
	for i := range e.lines {
		if !e.lines[i].glyphs.Intersection(glyphs).IsEmpty() {
			out = append(out, e.lines[i].fragment())
		}
	}
	return out
}

// BoundingRect 返回 glyphs 中可见字形包围盒的并集（容器坐标，左上为原点）。
func (e *Engine) BoundingRect(glyphs richtext.Range) textkit.Rect {
	e.ensure()
	glyphs = glyphs.Intersection(richtext.Range{Length: len(e.glyphs)})
	var out textkit.Rect
	for g := glyphs.Location; g < glyphs.End(); g++ {
		r := e.glyphBox(g)
		if !r.Visible() {
			continue
		}
		if !out.Visible() {
			out = r
			continue
		}
		out = out.Union(r)
	}
	return out
}

func (e *Engine) GlyphBounds(font richtext.Font, glyph textkit.GlyphID) textkit.Rect {
	if e.opts.Typesetter == nil || glyph == 0 || glyph == textkit.AttachmentGlyph {
		return textkit.Rect{}
	}
	return e.opts.Typesetter.GlyphBounds(font, glyph)
}

// FontAt 返回排版时字形实际使用的字体，未设置 KeyFont 时为 DefaultFont。
func (e *Engine) FontAt(glyph int) richtext.Font {
	if g := e.glyph(glyph); g != nil {
		return g.font
	}
	return e.opts.DefaultFont
}

func (e *Engine) AttachmentSize(glyph int) textkit.Size {
	g := e.glyph(glyph)
	if g == nil || g.attachment == nil {
		return textkit.Size{}
	}
	return g.attBounds.Size()
}

func (e *Engine) CharacterIndex(glyph int) int                        { return glyph }
func (e *Engine) GlyphRange(chars richtext.Range) richtext.Range      { return chars }
func (e *Engine) CharacterRange(glyphs richtext.Range) richtext.Range { return glyphs }
func (e *Engine) SetAttachmentSizer(s textkit.AttachmentSizer)        { e.sizer = s; e.valid = false }
func (e *Engine) Invalidate()                                         { e.valid = false }
func (e *Engine) ContainerSize() textkit.Size                         { return e.container }

func (e *Engine) UsedRect() textkit.Rect {
	e.ensure()
	return e.used
}

// SetContainerSize 只有在尺寸确实变化时才使排版失效。
func (e *Engine) SetContainerSize(size textkit.Size) {
	if size == e.container {
		return
	}
	e.container = size
	e.valid = false
}

func (e *Engine) glyph(i int) *glyphInfo {
	e.ensure()
	if i < 0 || i >= len(e.glyphs) {
		return nil
	}
	return &e.glyphs[i]
}

func (l *lineInfo) fragment() textkit.LineFragment {
	return textkit.LineFragment{Rect: l.rect, UsedRect: l.used, Glyphs: l.glyphs}
}

// glyphBox 返回单个字形在容器坐标中的包围盒。
func (e *Engine) glyphBox(i int) textkit.Rect {
	g := &e.glyphs[i]
	ln := &e.lines[g.line]
	x := ln.rect.X + g.loc.X
	switch {
	case g.attachment != nil:
		return textkit.Rect{X: x, Y: ln.rect.Y + g.loc.Y - g.attBounds.H, W: g.attBounds.W, H: g.attBounds.H}
	case g.id == 0:
		return textkit.Rect{}
	}
	b := e.GlyphBounds(g.font, g.id)
	if !b.Visible() {
		return textkit.Rect{}
	}
	return textkit.Rect{
		X: x + b.X,
		Y: ln.rect.Y + ln.baseline - (b.Y + b.H),
		W: b.W,
		H: b.H,
	}
}

func (e *Engine) ensure() {
	if e.building || e.valid && len(e.glyphs) == e.text.Len() {
		return
	}
	e.building = true
	defer func() { e.building = false }()
	e.valid = true
	e.glyphs = e.measure()
	e.lines = e.place(e.glyphs, e.breakLines(e.glyphs))
	textkit.Logger().Debug("layout: relayout", "glyphs", len(e.glyphs), "lines", len(e.lines), "width", e.used.W)
}

func (e *Engine) fontAt(i int) richtext.Font {
	v, _ := e.text.Attribute(richtext.KeyFont, i)
	if f, ok := v.(richtext.Font); ok {
		return f
	}
	return e.opts.DefaultFont
}

func (e *Engine) fontMetrics(font richtext.Font) FontMetrics {
	if m, ok := e.metrics[font]; ok {
		return m
	}
	var m FontMetrics
	if e.opts.Typesetter != nil {
		var err error
		m, err = e.opts.Typesetter.Metrics(font)
		if err != nil && e.err == nil {
			e.err = err
		}
	}
	if m.LineHeight() <= 0 {
		// 没有可用度量时按字号估算
		m = FontMetrics{Ascent: font.Size * 0.8, Descent: font.Size * 0.2}
	}
	e.metrics[font] = m
	return m
}

func (e *Engine) attachmentAt(i int) *textkit.Attachment {
	v, _ := e.text.Attribute(richtext.KeyAttachment, i)
	a, _ := v.(*textkit.Attachment)
	return a
}

func (e *Engine) lineSpacingAt(i int) float64 {
	v, _ := e.text.Attribute(richtext.KeyLineSpacing, i)
	f, _ := v.(float64)
	return f
}

func (e *Engine) measure() []glyphInfo {
	n := e.text.Len()
	out := make([]glyphInfo, n)
	for i := range out {
		g := &out[i]
		g.r = e.text.RuneAt(i)
		g.font = e.fontAt(i)
		m := e.fontMetrics(g.font)
		g.ascent, g.descent, g.lineGap = m.Ascent, m.Descent, m.LineGap

		if g.r == '\n' {
			g.hardBreak = true
			continue
		}
		if a := e.attachmentAt(i); a != nil && g.r == richtext.AttachmentChar {
			b := a.Bounds()
			if e.sizer != nil {
				b = e.sizer.AttachmentBounds(a, i)
			}
			g.id = textkit.AttachmentGlyph
			g.attachment = a
			g.attBounds = b
			g.advance = b.W
			g.ascent = math.Max(g.ascent, b.Y+b.H)
			g.descent = math.Max(g.descent, -b.Y)
			continue
		}
		g.space = unicode.IsSpace(g.r)
		if unicode.IsControl(g.r) && !g.space {
			continue
		}
		if ts := e.opts.Typesetter; ts != nil {
			g.id = ts.GlyphIndex(g.font, g.r)
			g.advance = ts.Advance(g.font, g.r)
		}
	}
	return out
}

// limit 返回可用于排字的宽度；容器宽度非正或不受限时返回 +Inf。
func (e *Engine) limit() float64 {
	w := e.container.W
	if w <= 0 || w >= math.MaxFloat64/2 {
		return math.Inf(1)
	}
	return math.Max(w-2*e.opts.Padding, 0)
}

type token struct {
	start, end int
	width      float64
	space      bool
	brk        bool
}

// tokenize 按空白/非空白切分字形；换行与附件各自成为单独的记号。
func tokenize(glyphs []glyphInfo) []token {
	var tokens []token
	for i := 0; i < len(glyphs); {
		g := &glyphs[i]
		if g.hardBreak {
			tokens = append(tokens, token{start: i, end: i + 1, brk: true})
			i++
			continue
		}
		if g.attachment != nil {
			tokens = append(tokens, token{start: i, end: i + 1, width: g.advance})
			i++
			continue
		}
		t := token{start: i, space: g.space}
		for i < len(glyphs) && !glyphs[i].hardBreak && glyphs[i].attachment == nil && glyphs[i].space == t.space {
			t.width += glyphs[i].advance
			i++
		}
		t.end = i
		tokens = append(tokens, t)
	}
	return tokens
}

// breakLines 使用贪心算法切分行：优先在空白处折行，单个记号超出宽度时在词内拆分。
// 行尾空白不参与折行判断。换行符属于它所结束的那一行。
func (e *Engine) breakLines(glyphs []glyphInfo) []richtext.Range {
	limit := e.limit() + wrapEpsilon
	var lines []richtext.Range
	start, width := 0, 0.0
	emit := func(end int) {
		lines = append(lines, richtext.MakeRange(start, end))
		start, width = end, 0
	}

	for _, t := range tokenize(glyphs) {
		switch {
		case t.brk:
			emit(t.end)
			continue
		case t.space:
			width += t.width
			continue
		}
		if t.start > start && width+t.width > limit {
			emit(t.start)
		}
		if t.width <= limit {
			width += t.width
			continue
		}
		for g := t.start; g < t.end; g++ {
			adv := glyphs[g].advance
			if g > start && width+adv > limit {
				emit(g)
			}
			width += adv
		}
	}
	n := len(glyphs)
	if start < n || n == 0 || glyphs[n-1].hardBreak {
		lines = append(lines, richtext.MakeRange(start, n))
	}
	return lines
}

func (e *Engine) place(glyphs []glyphInfo, ranges []richtext.Range) []lineInfo {
	pad := e.opts.Padding
	bounded := !math.IsInf(e.limit(), 1)
	lines := make([]lineInfo, len(ranges))
	y, maxW := 0.0, 0.0

	for li, r := range ranges {
		var asc, desc, gap, spacing float64
		if r.IsEmpty() {
			m := e.fontMetrics(e.fontAt(max(r.Location-1, 0)))
			asc, desc, gap = m.Ascent, m.Descent, m.LineGap
		}
		x, usedW := pad, 0.0
		for g := r.Location; g < r.End(); g++ {
			gi := &glyphs[g]
			asc = math.Max(asc, gi.ascent)
			desc = math.Max(desc, gi.descent)
			gap = math.Max(gap, gi.lineGap)
			spacing = math.Max(spacing, e.lineSpacingAt(g))
			gi.line = li
			gi.loc.X = x
			x += gi.advance
			if !gi.space && !gi.hardBreak {
				usedW = x - pad
			}
		}
		for g := r.Location; g < r.End(); g++ {
			gi := &glyphs[g]
			gi.loc.Y = asc
			if gi.attachment != nil {
				gi.loc.Y = asc - gi.attBounds.Y
			}
		}

		usedH := asc + desc + gap
		lineW := usedW + 2*pad
		rectW := lineW
		if bounded {
			rectW = e.container.W
		}
		lines[li] = lineInfo{
			rect:     textkit.Rect{X: 0, Y: y, W: rectW, H: usedH + spacing},
			used:     textkit.Rect{X: 0, Y: y, W: lineW, H: usedH},
			baseline: asc,
			glyphs:   r,
		}
		y += usedH + spacing
		maxW = math.Max(maxW, lineW)
	}
	e.used = textkit.Rect{W: maxW, H: y}
	return lines
}

// DrawBackground 以 KeyBackground 颜色填充字形所在的行高区域。
func (e *Engine) DrawBackground(glyphs richtext.Range, origin textkit.Point, s textkit.Surface) {
	e.ensure()
	glyphs = glyphs.Intersection(richtext.Range{Length: len(e.glyphs)})
	for g := glyphs.Location; g < glyphs.End(); {
		v, eff := e.text.LongestEffectiveRange(richtext.KeyBackground, g, glyphs)
		end := max(eff.End(), g+1)
		if c, ok := v.(color.Color); ok {
			s.Save()
			s.SetFillColor(c)
			for _, r := range e.runRects(richtext.MakeRange(g, end), origin) {
				s.FillRect(r, 0)
			}
			s.Restore()
		}
		g = end
	}
}

// runRects 返回字形区间在每一行上覆盖的矩形（行高为 used 高度）。
func (e *Engine) runRects(run richtext.Range, origin textkit.Point) []textkit.Rect {
	var out []textkit.Rect
	for i := range e.lines {
		ln := &e.lines[i]
		part := ln.glyphs.Intersection(run)
		if part.IsEmpty() {
			continue
		}
		first, last := &e.glyphs[part.Location], &e.glyphs[part.End()-1]
		x0, x1 := first.loc.X, last.loc.X+last.advance
		if x1 <= x0 {
			continue
		}
		out = append(out, textkit.Rect{
			X: origin.X + ln.rect.X + x0,
			Y: origin.Y + ln.rect.Y,
			W: x1 - x0,
			H: ln.used.H,
		})
	}
	return out
}

// DrawGlyphs 按字体与前景色分段绘制文本，并绘制带原生图像的附件。
// 非 TextSurface 的表面上不绘制任何内容。
func (e *Engine) DrawGlyphs(glyphs richtext.Range, origin textkit.Point, s textkit.Surface) {
	e.ensure()
	ts, ok := s.(textkit.TextSurface)
	if !ok {
		return
	}
	glyphs = glyphs.Intersection(richtext.Range{Length: len(e.glyphs)})
	for i := range e.lines {
		ln := &e.lines[i]
		part := ln.glyphs.Intersection(glyphs)
		if part.IsEmpty() {
			continue
		}
		lineOrigin := textkit.Point{X: origin.X + ln.rect.X, Y: origin.Y + ln.rect.Y}

		var (
			run      []rune
			runStart int
			runFont  richtext.Font
			runColor color.Color
		)
		flush := func() {
			if len(run) == 0 {
				return
			}
			at := textkit.Point{X: lineOrigin.X + e.glyphs[runStart].loc.X, Y: lineOrigin.Y + ln.baseline}
			ts.FillText(runFont, runColor, string(run), at)
			run = run[:0]
		}

		for g := part.Location; g < part.End(); g++ {
			gi := &e.glyphs[g]
			if gi.attachment != nil {
				flush()
				if img := gi.attachment.Payload(); img != nil {
					r := textkit.Rect{X: gi.loc.X, Y: gi.loc.Y - gi.attBounds.H, W: gi.attBounds.W, H: gi.attBounds.H}
					ts.DrawImage(img, r.Offset(lineOrigin.X, lineOrigin.Y))
				}
				continue
			}
			if gi.hardBreak || unicode.IsControl(gi.r) {
				flush()
				continue
			}
			col := e.foregroundAt(g)
			if len(run) > 0 && (gi.font != runFont || !sameColor(col, runColor)) {
				flush()
			}
			if len(run) == 0 {
				runStart, runFont, runColor = g, gi.font, col
			}
			run = append(run, gi.r)
		}
		flush()
	}
}

func (e *Engine) foregroundAt(i int) color.Color {
	v, _ := e.text.Attribute(richtext.KeyForeground, i)
	if c, ok := v.(color.Color); ok {
		return c
	}
	return color.Black
}

func sameColor(a, b color.Color) bool {
	ar, ag, ab, aa := a.RGBA()
	br, bg, bb, ba := b.RGBA()
	return ar == br && ag == bg && ab == bb && aa == ba
}
