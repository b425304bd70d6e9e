// Package story 将 DSL 文档构建为带装饰的富文本页面。
package story

import (
	"fmt"
	"image"
	"maps"
	"slices"
	"strings"

	"github.com/ByLCY/textdeco/binding"
	"github.com/ByLCY/textdeco/dsl"
	"github.com/ByLCY/textdeco/layout"
	"github.com/ByLCY/textdeco/richtext"
	"github.com/ByLCY/textdeco/textkit"
)

const (
	defaultMargin   = 10.0
	defaultFontSize = 12 * layout.PtToMm
)

var pagePresets = map[string][2]float64{
	"A4": {210, 297},
	"A5": {148, 210},
	"A6": {105, 148},
}

// Resources 由渲染器实现：注册字体来源并读取图片。
type Resources interface {
	RegisterFont(name, src, style string)
	LoadImage(src string) (image.Image, error)
}

// Options 配置 Build。
type Options struct {
	Typesetter layout.Typesetter
	// Resources 为空时字体声明只做校验，image 语句报错。
	Resources Resources
	Data      *binding.Data
	// Tap 接收可点击附件的动作名与其嵌套文本（view 的文本为 nil）。
	Tap func(action string, text *richtext.Text)
}

// Meta 为文档元数据。
type Meta struct {
	Title    string   `json:"title,omitempty"`
	Subject  string   `json:"subject,omitempty"`
	Author   string   `json:"author,omitempty"`
	Creator  string   `json:"creator,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}

// Document 为构建结果，每个 story 段落对应一页。
type Document struct {
	Name      string
	Version   string
	Meta      Meta
	Resources ResourceSet
	Pages     []*Page
}

// Page 是一页富文本及其排版引擎与装饰管理器。尺寸单位均为 mm。
type Page struct {
	Name    string
	Width   float64
	Height  float64
	Margin  float64
	Padding float64

	Text    *richtext.Text
	Engine  *layout.Engine
	Manager *textkit.Manager
	// Edits 为 edit 语句产生的编辑事件，按执行顺序。
	Edits []richtext.EditEvent
}

// ContentRect 返回页边距以内的区域。
func (p *Page) ContentRect() textkit.Rect {
	return textkit.Rect{
		X: p.Margin,
		Y: p.Margin,
		W: max(p.Width-2*p.Margin, 0),
		H: max(p.Height-2*p.Margin, 0),
	}
}

// Draw 在 c 承载嵌入内容的前提下把整页绘制到 s：先背景，后字形与附件。
func (p *Page) Draw(s textkit.Surface, c textkit.Container) {
	area := p.ContentRect()
	p.Manager.SetContainer(c)
	p.Engine.SetContainerSize(area.Size())
	glyphs := p.Engine.GlyphRange(richtext.Range{Length: p.Text.Len()})
	p.Manager.DrawBackground(glyphs, area.Origin(), s)
	p.Manager.DrawGlyphs(glyphs, area.Origin(), s)
}

// Err 返回排版过程中记录的第一个字体错误。
func (p *Page) Err() error { return p.Engine.Err() }

// Build 根据 DSL AST 生成各页的富文本、装饰器与附件。
func Build(doc *dsl.Document, opts Options) (*Document, error) {
	if doc == nil {
		return nil, fmt.Errorf("文档为空")
	}
	if opts.Typesetter == nil {
		return nil, fmt.Errorf("story: 缺少排版后端 Typesetter")
	}

	res, err := collectResources(doc)
	if err != nil {
		return nil, err
	}
	for _, name := range slices.Sorted(maps.Keys(res.Fonts)) {
		font := res.Fonts[name]
		if font.Src == "" {
			return nil, fmt.Errorf("字体 %s 缺少 src", name)
		}
		if opts.Resources != nil {
			opts.Resources.RegisterFont(name, font.Src, font.Style)
		}
	}

	stories := doc.Stories()
	if len(stories) == 0 {
		return nil, fmt.Errorf("文档中缺少 story 段落")
	}

	out := &Document{
		Name:      doc.Name,
		Version:   doc.Version,
		Meta:      collectMeta(doc),
		Resources: res,
	}
	for _, section := range stories {
		page, err := buildPage(section, res, opts)
		if err != nil {
			return nil, fmt.Errorf("story %s: %w", section.Name, err)
		}
		out.Pages = append(out.Pages, page)
	}
	return out, nil
}

func buildPage(section *dsl.StorySection, res ResourceSet, opts Options) (*Page, error) {
	page := &Page{Name: section.Name, Margin: defaultMargin}
	if err := applyPageParams(page, section.Params); err != nil {
		return nil, err
	}

	b := newBuilder(res, opts)
	text := richtext.New("", nil)
	if err := b.block(section.Block, text, b.baseAttrs()); err != nil {
		return nil, err
	}

	page.Text = text
	page.Engine = layout.NewEngine(text, layout.Options{
		Typesetter:  opts.Typesetter,
		Padding:     page.Padding,
		DefaultFont: b.defaultFont,
	})
	page.Manager = textkit.NewManager(page.Engine)
	// 先排版一次，使自报尺寸的 view 生成内容，edit 才会移动或移除它们
	page.Engine.NumberOfGlyphs()
	for _, e := range b.edits {
		ev, err := e.apply(text)
		if err != nil {
			return nil, err
		}
		page.Edits = append(page.Edits, ev)
	}
	textkit.Logger().Debug("story built", "story", page.Name, "chars", text.Len(), "edits", len(page.Edits))
	return page, nil
}

// applyPageParams 解析 story 头部：纸张预设或宽高、landscape、margin、padding。
func applyPageParams(page *Page, params []*dsl.Lexeme) error {
	a := parseArgs(params, map[string]int{"margin": 1, "padding": 1})
	size, hasSize := pagePresets["A5"], false
	var dims []float64
	landscape := false
	for _, tok := range a.positional {
		switch {
		case strings.EqualFold(tok, "landscape"):
			landscape = true
		case strings.EqualFold(tok, "portrait"):
		default:
			if preset, ok := pagePresets[strings.ToUpper(tok)]; ok {
				size, hasSize = preset, true
				continue
			}
			l, err := layout.ParseLength(tok)
			if err != nil {
				return fmt.Errorf("无法识别的页面参数 %q", tok)
			}
			dims = append(dims, l.ToMM())
		}
	}
	switch {
	case len(dims) == 2 && !hasSize:
		size = [2]float64{dims[0], dims[1]}
	case len(dims) != 0:
		return fmt.Errorf("页面尺寸需要宽和高两个长度，或一个纸张预设")
	}
	page.Width, page.Height = size[0], size[1]
	if landscape {
		page.Width, page.Height = page.Height, page.Width
	}

	var err error
	if page.Margin, err = a.length("margin", defaultMargin); err != nil {
		return err
	}
	if page.Padding, err = a.length("padding", 0); err != nil {
		return err
	}
	if page.Width <= 2*page.Margin || page.Height <= 2*page.Margin {
		return fmt.Errorf("页边距 %gmm 超出页面尺寸 %gx%gmm", page.Margin, page.Width, page.Height)
	}
	return nil
}
