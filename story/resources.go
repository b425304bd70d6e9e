package story

import (
	"fmt"
	"image/color"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/ByLCY/textdeco/dsl"
	"github.com/ByLCY/textdeco/richtext"
	"github.com/ByLCY/textdeco/textkit"
)

// FontResource 为 resources 中声明的字体。
type FontResource struct {
	Name  string
	Src   string
	Style string
}

// Style 为具名样式，Props 已合并 extends 链。
type Style struct {
	Name    string
	Extends string
	Props   map[string]string
}

// ResourceSet 汇总文档声明的字体、颜色、样式与装饰器。
type ResourceSet struct {
	Fonts    map[string]FontResource
	Colors   map[string]color.Color
	Styles   map[string]Style
	Painters map[string]*textkit.Painter
}

func collectResources(doc *dsl.Document) (ResourceSet, error) {
	res := ResourceSet{
		Fonts:    map[string]FontResource{},
		Colors:   map[string]color.Color{},
		Styles:   map[string]Style{},
		Painters: map[string]*textkit.Painter{},
	}
	rawStyles := map[string]Style{}
	var painters []*dsl.Command

	for _, section := range doc.Sections {
		if section.Resources == nil || section.Resources.Block == nil {
			continue
		}
		for _, stmt := range section.Resources.Block.Statements {
			if stmt.Command == nil {
				continue
			}
			switch stmt.Command.Name {
			case "font":
				font := parseFontResource(stmt.Command)
				if font.Name != "" {
					res.Fonts[font.Name] = font
				}
			case "color":
				name, value := parseColorResource(stmt.Command)
				if name == "" || value == "" {
					continue
				}
				c, err := parseColor(value)
				if err != nil {
					return res, fmt.Errorf("color %s: %w", name, err)
				}
				res.Colors[name] = c
			case "style":
				style := parseStyleResource(stmt.Command)
				if style.Name != "" {
					rawStyles[style.Name] = style
				}
			case "painter":
				painters = append(painters, stmt.Command)
			default:
				return res, fmt.Errorf("%s: 未知的资源类型 %s", stmt.Command.Pos, stmt.Command.Name)
			}
		}
	}

	resolvedStyles, err := resolveStyles(rawStyles)
	if err != nil {
		return res, err
	}
	res.Styles = resolvedStyles

	// 颜色可能在装饰器之后声明，因此装饰器最后解析
	for _, cmd := range painters {
		name, painter, err := parsePainterResource(cmd, res)
		if err != nil {
			return res, err
		}
		if slices.Contains(reservedKeys, richtext.Key(name)) {
			return res, fmt.Errorf("%s: painter 名称 %s 与内置属性冲突", cmd.Pos, name)
		}
		res.Painters[name] = painter
	}
	return res, nil
}

func collectMeta(doc *dsl.Document) Meta {
	meta := Meta{
		Creator: "textdeco",
	}
	for _, section := range doc.Sections {
		if section.Meta == nil || section.Meta.Block == nil {
			continue
		}
		for _, stmt := range section.Meta.Block.Statements {
			if stmt.Assignment == nil {
				continue
			}
			switch strings.ToLower(stmt.Assignment.Key) {
			case "title":
				meta.Title = valueToString(stmt.Assignment.Value)
			case "author":
				meta.Author = valueToString(stmt.Assignment.Value)
			case "subject":
				meta.Subject = valueToString(stmt.Assignment.Value)
			case "creator":
				meta.Creator = valueToString(stmt.Assignment.Value)
			case "keywords":
				meta.Keywords = valueToStringSlice(stmt.Assignment.Value)
			}
		}
	}
	return meta
}

func parseFontResource(cmd *dsl.Command) FontResource {
	if len(cmd.Args) == 0 {
		return FontResource{}
	}
	font := FontResource{Name: cmd.Args[0].Value}
	if cmd.Block == nil {
		return font
	}
	for _, stmt := range cmd.Block.Statements {
		if stmt.Assignment == nil {
			continue
		}
		switch stmt.Assignment.Key {
		case "src":
			font.Src = valueToString(stmt.Assignment.Value)
		case "style":
			font.Style = valueToString(stmt.Assignment.Value)
		}
	}
	return font
}

func parseStyleResource(cmd *dsl.Command) Style {
	if len(cmd.Args) == 0 {
		return Style{}
	}
	style := Style{
		Name:  cmd.Args[0].Value,
		Props: map[string]string{},
	}
	if len(cmd.Args) >= 3 && strings.EqualFold(cmd.Args[1].Value, "extends") {
		style.Extends = cmd.Args[2].Value
	}
	if cmd.Block == nil {
		return style
	}
	for _, stmt := range cmd.Block.Statements {
		if stmt.Assignment == nil {
			continue
		}
		val := valueToString(stmt.Assignment.Value)
		if val == "" {
			continue
		}
		style.Props[stmt.Assignment.Key] = val
	}
	return style
}

func resolveStyles(styles map[string]Style) (map[string]Style, error) {
	resolved := map[string]Style{}
	visiting := map[string]bool{}

	var dfs func(name string) (Style, error)
	dfs = func(name string) (Style, error) {
		if style, ok := resolved[name]; ok {
			return style, nil
		}
		style, ok := styles[name]
		if !ok {
			return Style{}, fmt.Errorf("style %s 未定义", name)
		}
		if visiting[name] {
			return Style{}, fmt.Errorf("style 继承存在循环：%s", name)
		}
		visiting[name] = true

		props := map[string]string{}
		if style.Extends != "" {
			parent, err := dfs(style.Extends)
			if err != nil {
				return Style{}, err
			}
			maps.Copy(props, parent.Props)
		}
		maps.Copy(props, style.Props)
		style.Props = props
		resolved[name] = style
		delete(visiting, name)
		return style, nil
	}

	for name := range styles {
		if _, err := dfs(name); err != nil {
			return nil, err
		}
	}
	return resolved, nil
}

func parseColorResource(cmd *dsl.Command) (string, string) {
	if len(cmd.Args) == 0 {
		return "", ""
	}
	name := cmd.Args[0].Value
	value := ""
	if len(cmd.Args) > 1 {
		value = cmd.Args[len(cmd.Args)-1].Value
	}
	return name, value
}

// resolveColor 接受颜色资源名或 #hex。
func (res ResourceSet) resolveColor(value string) (color.Color, error) {
	if c, ok := res.Colors[value]; ok {
		return c, nil
	}
	if strings.HasPrefix(value, "#") {
		return parseColor(value)
	}
	return nil, fmt.Errorf("未定义的颜色 %s", value)
}

// reservedKeys 是富文本的内置属性，装饰器以名称作为属性键，不能与之重名。
var reservedKeys = []richtext.Key{
	richtext.KeyFont,
	richtext.KeyForeground,
	richtext.KeyBackground,
	richtext.KeyAttachment,
	richtext.KeyLineSpacing,
}

// defaultStrokeWidth 为未指定 width 时的描边宽度（mm）。
const defaultStrokeWidth = 0.25

var painterHelperArity = map[string]int{
	"color":         1,
	"corner":        1,
	"corner-factor": 1,
	"inset":         1,
	"width":         1,
	"dash":          2,
}

// parsePainterResource 解析 `painter <Name> <background|foreground> [z <n>] { helper... }`。
// 每个 helper 对应 textkit 中的一个绘制函数，按声明顺序组合。
func parsePainterResource(cmd *dsl.Command, res ResourceSet) (string, *textkit.Painter, error) {
	a := parseArgs(cmd.Args, map[string]int{"z": 1})
	if len(a.positional) < 2 {
		return "", nil, fmt.Errorf("%s: painter 需要名称与阶段（background 或 foreground）", cmd.Pos)
	}
	name := a.positional[0]
	var phase textkit.Phase
	switch strings.ToLower(a.positional[1]) {
	case "background":
		phase = textkit.Background
	case "foreground":
		phase = textkit.Foreground
	default:
		return "", nil, fmt.Errorf("painter %s: 未知阶段 %s", name, a.positional[1])
	}
	z := 0
	if v := a.str("z"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return "", nil, fmt.Errorf("painter %s: z 不是整数: %q", name, v)
		}
		z = n
	}

	var handlers []textkit.DrawFunc
	if cmd.Block != nil {
		for _, stmt := range cmd.Block.Statements {
			if stmt.Command == nil {
				continue
			}
			h, err := parsePainterHelper(stmt.Command, res)
			if err != nil {
				return "", nil, fmt.Errorf("painter %s: %w", name, err)
			}
			handlers = append(handlers, h)
		}
	}
	if len(handlers) == 0 {
		return "", nil, fmt.Errorf("painter %s 没有任何绘制指令", name)
	}
	return name, textkit.NewPainter(phase, z, textkit.Combine(handlers...)), nil
}

func parsePainterHelper(cmd *dsl.Command, res ResourceSet) (textkit.DrawFunc, error) {
	arity := maps.Clone(painterHelperArity)
	// dash 须写在最后，吞掉其后的全部长度
	for i, lx := range cmd.Args {
		if lx.Value == "dash" {
			arity["dash"] = len(cmd.Args) - i - 1
		}
	}
	a := parseArgs(cmd.Args, arity)
	if len(a.positional) == 0 {
		return nil, fmt.Errorf("%s: %s 缺少目标（如 combined、baseline）", cmd.Pos, cmd.Name)
	}
	col := color.Color(color.Black)
	if v := a.str("color"); v != "" {
		c, err := res.resolveColor(v)
		if err != nil {
			return nil, err
		}
		col = c
	}
	target := strings.ToLower(a.positional[0])

	switch cmd.Name {
	case "fill":
		corner, err := a.length("corner", 0)
		if err != nil {
			return nil, err
		}
		factor, err := a.number("corner-factor", 0)
		if err != nil {
			return nil, err
		}
		inset, err := a.length("inset", 0)
		if err != nil {
			return nil, err
		}
		fill := textkit.Fill{
			Color:        col,
			Corner:       corner,
			CornerFactor: factor,
			Insets:       textkit.Insets{Top: inset, Left: inset, Bottom: inset, Right: inset},
		}
		switch target {
		case "combined":
			return textkit.FillCombinedGlyphRects(fill), nil
		case "glyphs":
			return textkit.FillIndependentGlyphRect(fill), nil
		case "line":
			return textkit.FillLineUsedRect(fill), nil
		}
	case "stroke":
		width, err := a.length("width", defaultStrokeWidth)
		if err != nil {
			return nil, err
		}
		dash, err := a.lengths("dash")
		if err != nil {
			return nil, err
		}
		st := textkit.Stroke{Color: col, Width: width, Dash: dash}
		switch target {
		case "baseline":
			base := textkit.StrokeBaseline(col, width)
			return func(key richtext.Key, s textkit.Surface, line textkit.LineVisualInfo, items []textkit.VisualItem) {
				if len(dash) > 0 {
					s.SetDash(dash...)
				}
				base(key, s, line, items)
			}, nil
		case "outline":
			return textkit.StrokeOutline(st), nil
		case "line":
			return textkit.StrokeLineUsedRect(st), nil
		}
	default:
		return nil, fmt.Errorf("%s: 未知的绘制指令 %s", cmd.Pos, cmd.Name)
	}
	return nil, fmt.Errorf("%s: %s 不支持目标 %s", cmd.Pos, cmd.Name, target)
}
