package story

import (
	"fmt"
	"image/color"
	"maps"
	"slices"
	"strings"

	"github.com/ByLCY/textdeco/binding"
	"github.com/ByLCY/textdeco/dsl"
	"github.com/ByLCY/textdeco/layout"
	"github.com/ByLCY/textdeco/richtext"
	"github.com/ByLCY/textdeco/textkit"
)

var (
	textArity  = map[string]int{"font": 1, "face": 1, "size": 1, "color": 1, "background": 1, "line-height": 1}
	viewArity  = map[string]int{"width": 1, "height": 1, "fit": 2, "color": 1, "border": 1, "corner": 1, "tap": 1}
	boxArity   = map[string]int{"baseline": 1, "diff": 1, "padding": 1, "inset": 1, "insets": 4, "tap": 1}
	imageArity = map[string]int{"width": 1, "height": 1, "lift": 1}
	shapeArity = map[string]int{"width": 1, "height": 1, "color": 1, "stroke": 1, "lift": 1}
	flowArity  = map[string]int{"item": 1, "line": 1}
)

// defaultViewSize 为 view 未给出尺寸时内容自报的大小（mm）。
var defaultViewSize = textkit.Size{W: 10, H: 5}

type builder struct {
	res         ResourceSet
	opts        Options
	layout      textkit.LayoutFunc
	defaultFont richtext.Font
	edits       []pendingEdit
}

type pendingEdit struct {
	op     string
	target richtext.Range
	with   *richtext.Text
}

func (e pendingEdit) apply(text *richtext.Text) (richtext.EditEvent, error) {
	if e.target.Location < 0 || e.target.End() > text.Len() {
		return richtext.EditEvent{}, fmt.Errorf("edit %s 越界: [%d, %d) 超出文本长度 %d",
			e.op, e.target.Location, e.target.End(), text.Len())
	}
	return text.Replace(e.target, e.with), nil
}

func newBuilder(res ResourceSet, opts Options) *builder {
	font := richtext.Font{Size: defaultFontSize}
	if _, ok := res.Fonts["Body"]; ok {
		font.Family = "Body"
	} else if names := slices.Sorted(maps.Keys(res.Fonts)); len(names) > 0 {
		font.Family = names[0]
	}
	return &builder{
		res:         res,
		opts:        opts,
		defaultFont: font,
		layout:      layout.Func(layout.Options{Typesetter: opts.Typesetter, DefaultFont: font}),
	}
}

func (b *builder) baseAttrs() richtext.Attributes {
	return richtext.Attributes{richtext.KeyFont: b.defaultFont}
}

func (b *builder) block(block *dsl.Block, text *richtext.Text, attrs richtext.Attributes) error {
	if block == nil {
		return nil
	}
	for _, stmt := range block.Statements {
		switch {
		case stmt.Text != nil:
			text.AppendString(b.interpolate(string(stmt.Text.Value)), attrs)
		case stmt.Command != nil:
			if err := b.command(stmt.Command, text, attrs); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *builder) command(cmd *dsl.Command, text *richtext.Text, attrs richtext.Attributes) error {
	var err error
	switch cmd.Name {
	case "text":
		err = b.text(cmd, text, attrs)
	case "paint":
		err = b.paint(cmd, text, attrs)
	case "br":
		text.AppendString("\n", attrs)
	case "view":
		err = b.view(cmd, text, attrs)
	case "box":
		err = b.box(cmd, text, attrs)
	case "image":
		err = b.image(cmd, text, attrs)
	case "shape":
		err = b.shape(cmd, text, attrs)
	case "flow":
		err = b.flow(cmd, text, attrs)
	case "edit":
		err = b.edit(cmd, attrs)
	default:
		return fmt.Errorf("%s: 未知的语句 %s", cmd.Pos, cmd.Name)
	}
	if err != nil {
		return fmt.Errorf("%s: %s: %w", cmd.Pos, cmd.Name, err)
	}
	return nil
}

func (b *builder) interpolate(s string) string {
	return binding.Interpolate(s, b.opts.Data)
}

// text 处理 `text [Style] [key value]... { ... }`，子语句继承合并后的属性。
func (b *builder) text(cmd *dsl.Command, text *richtext.Text, attrs richtext.Attributes) error {
	a := parseArgs(cmd.Args, textArity)
	style := ""
	if len(a.positional) > 0 {
		style = a.positional[0]
		if _, ok := b.res.Styles[style]; !ok {
			return fmt.Errorf("style %s 未定义", style)
		}
	}
	inline := map[string]string{}
	for k, v := range a.named {
		if len(v) > 0 {
			inline[k] = v[0]
		}
	}
	child := maps.Clone(attrs)
	if err := b.applyProps(child, mergeStyleAttributes(style, inline, b.res.Styles)); err != nil {
		return err
	}
	return b.block(cmd.Block, text, child)
}

func mergeStyleAttributes(style string, inline map[string]string, styles map[string]Style) map[string]string {
	out := make(map[string]string)
	if style != "" {
		if s, ok := styles[style]; ok {
			maps.Copy(out, s.Props)
		}
	}
	maps.Copy(out, inline)
	return out
}

// applyProps 把样式属性写入 attrs。字号无单位时按 pt 处理。
func (b *builder) applyProps(attrs richtext.Attributes, props map[string]string) error {
	font, _ := attrs[richtext.KeyFont].(richtext.Font)
	if v := props["font"]; v != "" {
		if _, ok := b.res.Fonts[v]; !ok {
			return fmt.Errorf("字体 %s 未定义", v)
		}
		font.Family = v
	}
	if v := props["face"]; v != "" {
		font.Style = v
	}
	if v := props["size"]; v != "" {
		l, err := layout.ParseLength(v)
		if err != nil {
			return fmt.Errorf("字号: %w", err)
		}
		if l.Unit == layout.UnitNone {
			l.Unit = layout.UnitPT
		}
		font.Size = l.ToMM()
	}
	attrs[richtext.KeyFont] = font

	if v := props["color"]; v != "" {
		c, err := b.res.resolveColor(v)
		if err != nil {
			return err
		}
		attrs[richtext.KeyForeground] = c
	}
	if v := props["background"]; v != "" {
		c, err := b.res.resolveColor(v)
		if err != nil {
			return err
		}
		attrs[richtext.KeyBackground] = c
	}
	if v := props["line-height"]; v != "" {
		spec, err := layout.ParseLineHeight(v)
		if err != nil {
			return err
		}
		attrs[richtext.KeyLineSpacing] = spec.Spacing(font.Size)
	}
	return nil
}

// paint 处理 `paint <Painter>... { ... }`，每个装饰器以自己的名字为键。
func (b *builder) paint(cmd *dsl.Command, text *richtext.Text, attrs richtext.Attributes) error {
	a := parseArgs(cmd.Args, nil)
	if len(a.positional) == 0 {
		return fmt.Errorf("缺少装饰器名称")
	}
	child := maps.Clone(attrs)
	for _, name := range a.positional {
		p, ok := b.res.Painters[name]
		if !ok {
			return fmt.Errorf("装饰器 %s 未定义", name)
		}
		child[richtext.Key(name)] = p
	}
	return b.block(cmd.Block, text, child)
}

func (b *builder) appendAttachment(text *richtext.Text, a *textkit.Attachment, attrs richtext.Attributes) {
	text.Append(richtext.NewAttachmentText(a, attrs))
}

func (b *builder) tapAction(action string, nested *richtext.Text) {
	textkit.Logger().Debug("tap", "action", action)
	if b.opts.Tap != nil {
		b.opts.Tap(action, nested)
	}
}

// view 处理 `view [width w height h | fit w h] [color c] [border c] [corner r] [tap "action"]`。
// 给出 width/height 时附件有显式尺寸；否则由内容自报尺寸。
func (b *builder) view(cmd *dsl.Command, text *richtext.Text, attrs richtext.Attributes) error {
	a := parseArgs(cmd.Args, viewArity)
	fill, err := b.optionalColor(a, "color")
	if err != nil {
		return err
	}
	if fill == nil {
		fill = defaultViewColor
	}
	border, err := b.optionalColor(a, "border")
	if err != nil {
		return err
	}
	corner, err := a.length("corner", 0)
	if err != nil {
		return err
	}
	fit := defaultViewSize
	if dims, err := a.lengths("fit"); err != nil {
		return err
	} else if len(dims) == 2 {
		fit = textkit.Size{W: dims[0], H: dims[1]}
	}

	var opts []textkit.AttachmentOption
	if a.has("width") || a.has("height") {
		w, err := a.length("width", fit.W)
		if err != nil {
			return err
		}
		h, err := a.length("height", fit.H)
		if err != nil {
			return err
		}
		opts = append(opts, textkit.WithBounds(textkit.Rect{W: w, H: h}))
	}

	action := b.interpolate(a.str("tap"))
	gen := func() textkit.Content {
		v := &swatch{fit: fit, fill: fill, border: border, radius: corner}
		if action == "" {
			return v
		}
		v.tap = func() { b.tapAction(action, nil) }
		return tappableSwatch{v}
	}
	b.appendAttachment(text, textkit.NewViewAttachment(gen, opts...), attrs)
	return nil
}

func (b *builder) optionalColor(a args, key string) (color.Color, error) {
	v := a.str(key)
	if v == "" {
		return nil, nil
	}
	return b.res.resolveColor(v)
}

// box 处理嵌套富文本：`box [baseline text|line-bottom|attachment-bottom] [diff d]
// [padding p] [inset i | insets t l b r] [tap "action"] { ... }`。
func (b *builder) box(cmd *dsl.Command, text *richtext.Text, attrs richtext.Attributes) error {
	a := parseArgs(cmd.Args, boxArity)
	diff, err := a.length("diff", 0)
	if err != nil {
		return err
	}
	var mode textkit.BaselineMode
	switch strings.ToLower(a.str("baseline")) {
	case "", "text":
		mode = textkit.TextBaseline(diff)
	case "line-bottom":
		mode = textkit.LineBottom(diff)
	case "attachment-bottom":
		mode = textkit.AttachmentBottom(diff)
	default:
		return fmt.Errorf("未知的基线模式 %s", a.str("baseline"))
	}
	padding, err := a.length("padding", 0)
	if err != nil {
		return err
	}
	inset, err := a.length("inset", 0)
	if err != nil {
		return err
	}
	insets := textkit.Insets{Top: inset, Left: inset, Bottom: inset, Right: inset}
	if a.has("insets") {
		v, err := a.lengths("insets")
		if err != nil {
			return err
		}
		if len(v) != 4 {
			return fmt.Errorf("insets 需要 4 个长度（上 左 下 右）")
		}
		insets = textkit.Insets{Top: v[0], Left: v[1], Bottom: v[2], Right: v[3]}
	}

	// 嵌套文本只继承字体与颜色
	inherited := richtext.Attributes{}
	for _, k := range []richtext.Key{richtext.KeyFont, richtext.KeyForeground} {
		if v, ok := attrs[k]; ok {
			inherited[k] = v
		}
	}
	nested := richtext.New("", nil)
	if err := b.block(cmd.Block, nested, inherited); err != nil {
		return err
	}

	opts := textkit.TextOptions{
		Layout:   b.layout,
		Padding:  padding,
		Insets:   insets,
		Baseline: mode,
	}
	if action := b.interpolate(a.str("tap")); action != "" {
		opts.Tap = func(t *richtext.Text) { b.tapAction(action, t) }
	}
	b.appendAttachment(text, textkit.NewTextAttachment(nested, opts), attrs)
	return nil
}

// image 处理 `image "src" [width w] [height h] [lift d]`，缺省高度按图片宽高比计算。
func (b *builder) image(cmd *dsl.Command, text *richtext.Text, attrs richtext.Attributes) error {
	a := parseArgs(cmd.Args, imageArity)
	if len(a.positional) == 0 {
		return fmt.Errorf("缺少图片路径")
	}
	if b.opts.Resources == nil {
		return fmt.Errorf("没有可用的图片来源")
	}
	img, err := b.opts.Resources.LoadImage(b.interpolate(a.positional[0]))
	if err != nil {
		return err
	}
	px := img.Bounds().Size()
	if px.X <= 0 || px.Y <= 0 {
		return fmt.Errorf("图片 %s 为空", a.positional[0])
	}
	w, err := a.length("width", float64(px.X)/4)
	if err != nil {
		return err
	}
	h, err := a.length("height", w*float64(px.Y)/float64(px.X))
	if err != nil {
		return err
	}
	lift, err := a.length("lift", 0)
	if err != nil {
		return err
	}
	b.appendAttachment(text, textkit.NewPayloadAttachment(img, textkit.Rect{Y: lift, W: w, H: h}), attrs)
	return nil
}

// shape 处理 `shape rect|pill|line [width w] [height h] [color c] [stroke c] [lift d]`。
func (b *builder) shape(cmd *dsl.Command, text *richtext.Text, attrs richtext.Attributes) error {
	a := parseArgs(cmd.Args, shapeArity)
	kind := "rect"
	if len(a.positional) > 0 {
		kind = strings.ToLower(a.positional[0])
	}
	switch kind {
	case "rect", "pill", "line":
	default:
		return fmt.Errorf("未知的形状 %s", kind)
	}
	w, err := a.length("width", defaultViewSize.W)
	if err != nil {
		return err
	}
	h, err := a.length("height", defaultViewSize.H)
	if err != nil {
		return err
	}
	lift, err := a.length("lift", 0)
	if err != nil {
		return err
	}
	fill, err := b.optionalColor(a, "color")
	if err != nil {
		return err
	}
	if fill == nil {
		fill = defaultViewColor
	}
	stroke, err := b.optionalColor(a, "stroke")
	if err != nil {
		return err
	}
	paint := shapePaint(kind, fill, stroke)
	b.appendAttachment(text, textkit.NewPaintedAttachment(paint, textkit.WithBounds(textkit.Rect{Y: lift, W: w, H: h})), attrs)
	return nil
}

// flow 把子语句排成可换行的一行，条目之间插入固定间隔，并设置行距。
func (b *builder) flow(cmd *dsl.Command, text *richtext.Text, attrs richtext.Attributes) error {
	a := parseArgs(cmd.Args, flowArity)
	item, err := a.length("item", 0)
	if err != nil {
		return err
	}
	line, err := a.length("line", 0)
	if err != nil {
		return err
	}
	if cmd.Block == nil {
		return nil
	}
	start := text.Len()
	for i, stmt := range cmd.Block.Statements {
		if i > 0 && item > 0 {
			b.appendAttachment(text, spacer(item), attrs)
		}
		if err := b.block(&dsl.Block{Statements: []*dsl.Statement{stmt}}, text, attrs); err != nil {
			return err
		}
	}
	if line > 0 {
		text.AddAttribute(richtext.KeyLineSpacing, line, richtext.MakeRange(start, text.Len()))
	}
	return nil
}

// edit 登记一次在构建完成后执行的编辑：
// `edit insert <at> { ... }`、`edit delete <start> <end>`、`edit replace <start> <end> { ... }`。
func (b *builder) edit(cmd *dsl.Command, attrs richtext.Attributes) error {
	a := parseArgs(cmd.Args, nil)
	if len(a.positional) == 0 {
		return fmt.Errorf("缺少编辑类型")
	}
	op := strings.ToLower(a.positional[0])
	first, err := a.integer(1)
	if err != nil {
		return err
	}
	e := pendingEdit{op: op, target: richtext.Range{Location: first}, with: richtext.New("", nil)}
	switch op {
	case "insert":
	case "delete", "replace":
		end, err := a.integer(2)
		if err != nil {
			return err
		}
		if end < first {
			return fmt.Errorf("编辑范围 [%d, %d) 无效", first, end)
		}
		e.target = richtext.MakeRange(first, end)
	default:
		return fmt.Errorf("未知的编辑类型 %s", op)
	}
	if op != "delete" {
		if err := b.block(cmd.Block, e.with, attrs); err != nil {
			return err
		}
	}
	b.edits = append(b.edits, e)
	return nil
}
