package canvasrenderer

import (
	"fmt"

	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/ByLCY/textdeco/layout"
	"github.com/ByLCY/textdeco/richtext"
	"github.com/ByLCY/textdeco/textkit"
)

// unitsPerMM 为查询 sfnt 时每毫米对应的像素数。字号按 mm 放大后再缩回，
// 以避开 26.6 定点数在小字号下的精度损失。
const unitsPerMM = 16

func ppem(size float64) fixed.Int26_6 {
	return fixed.Int26_6(size * unitsPerMM * 64)
}

func fromFixed(v fixed.Int26_6) float64 {
	return float64(v) / 64 / unitsPerMM
}

// sfntFont 返回 font 对应的已解析字体，按来源缓存。
func (r *Renderer) sfntFont(f richtext.Font) (*sfnt.Font, error) {
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	src := r.source(f)
	if parsed, ok := r.sfntFonts[src.src]; ok {
		return parsed, nil
	}
	data, err := r.loadFontBytes(f.Family, src.src)
	if err != nil {
		return nil, err
	}
	parsed, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("解析字体 %s 失败: %w", src.src, err)
	}
	r.sfntFonts[src.src] = parsed
	return parsed, nil
}

// Metrics 实现 layout.Typesetter。
func (r *Renderer) Metrics(f richtext.Font) (layout.FontMetrics, error) {
	parsed, err := r.sfntFont(f)
	if err != nil {
		return layout.FontMetrics{}, err
	}
	var buf sfnt.Buffer
	m, err := parsed.Metrics(&buf, ppem(f.Size), font.HintingNone)
	if err != nil {
		return layout.FontMetrics{}, fmt.Errorf("读取字体度量失败: %w", err)
	}
	ascent, descent := fromFixed(m.Ascent), fromFixed(m.Descent)
	return layout.FontMetrics{
		Ascent:  ascent,
		Descent: descent,
		LineGap: max(fromFixed(m.Height)-ascent-descent, 0),
	}, nil
}

// Advance 实现 layout.Typesetter；缺字时按 .notdef 的宽度计算。
func (r *Renderer) Advance(f richtext.Font, ch rune) float64 {
	parsed, err := r.sfntFont(f)
	if err != nil {
		return 0
	}
	var buf sfnt.Buffer
	idx, err := parsed.GlyphIndex(&buf, ch)
	if err != nil {
		return 0
	}
	adv, err := parsed.GlyphAdvance(&buf, idx, ppem(f.Size), font.HintingNone)
	if err != nil {
		return 0
	}
	return fromFixed(adv)
}

// GlyphIndex 实现 layout.Typesetter；字体中没有该字符时返回 0。
func (r *Renderer) GlyphIndex(f richtext.Font, ch rune) textkit.GlyphID {
	parsed, err := r.sfntFont(f)
	if err != nil {
		return 0
	}
	var buf sfnt.Buffer
	idx, err := parsed.GlyphIndex(&buf, ch)
	if err != nil {
		return 0
	}
	return textkit.GlyphID(idx)
}

// GlyphBounds 实现 layout.Typesetter。sfnt 的包围盒 y 轴向下，这里翻转为向上。
func (r *Renderer) GlyphBounds(f richtext.Font, glyph textkit.GlyphID) textkit.Rect {
	parsed, err := r.sfntFont(f)
	if err != nil || glyph == 0 {
		return textkit.Rect{}
	}
	var buf sfnt.Buffer
	b, _, err := parsed.GlyphBounds(&buf, sfnt.GlyphIndex(glyph), ppem(f.Size), font.HintingNone)
	if err != nil {
		return textkit.Rect{}
	}
	return textkit.Rect{
		X: fromFixed(b.Min.X),
		Y: -fromFixed(b.Max.Y),
		W: fromFixed(b.Max.X - b.Min.X),
		H: fromFixed(b.Max.Y - b.Min.Y),
	}
}
