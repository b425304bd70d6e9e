package layout

import (
	"github.com/ByLCY/textdeco/richtext"
	"github.com/ByLCY/textdeco/textkit"
)

// Options 配置排版引擎。
type Options struct {
	Typesetter Typesetter
	// Padding 为行片段左右两侧的留白（mm）。
	Padding float64
	// DefaultFont 在字符没有 KeyFont 属性时使用。
	DefaultFont richtext.Font
}

// FontMetrics 为字体的纵向度量，单位均为 mm；Descent 为基线以下的正值。
type FontMetrics struct {
	Ascent  float64 `json:"ascent"`
	Descent float64 `json:"descent"`
	LineGap float64 `json:"lineGap"`
}

// LineHeight 返回单行高度。
func (m FontMetrics) LineHeight() float64 { return m.Ascent + m.Descent + m.LineGap }

// Typesetter 提供字体相关的度量。引擎只在字体首次出现时调用 Metrics，
// 其错误会被记录在 Engine.Err 中；其余方法对无法加载的字体返回零值。
type Typesetter interface {
	Metrics(font richtext.Font) (FontMetrics, error)
	// Advance 返回 r 的前进宽度（mm）。
	Advance(font richtext.Font, r rune) float64
	GlyphIndex(font richtext.Font, r rune) textkit.GlyphID
	// GlyphBounds 返回相对基线原点、y 轴向上的字形包围盒（mm）。
	GlyphBounds(font richtext.Font, glyph textkit.GlyphID) textkit.Rect
}

// Func returns a textkit.LayoutFunc building engines with opts. The padding
// passed by the caller replaces opts.Padding.
func Func(opts Options) textkit.LayoutFunc {
	return func(text *richtext.Text, padding float64) textkit.Layout {
		o := opts
		o.Padding = padding
		return NewEngine(text, o)
	}
}
