package story

import (
	"image/color"

	"github.com/ByLCY/textdeco/textkit"
)

var defaultViewColor = color.RGBA{R: 0x9e, G: 0xc5, B: 0xfe, A: 0xff}

// swatch 是 view 语句生成的嵌入内容：一块带描边的色块，可响应点击。
type swatch struct {
	frame  textkit.Rect
	fit    textkit.Size
	fill   color.Color
	border color.Color
	radius float64
	tap    func()
}

var (
	_ textkit.Content = (*swatch)(nil)
	_ textkit.Drawer  = (*swatch)(nil)
)

func (v *swatch) Frame() textkit.Rect        { return v.frame }
func (v *swatch) SetFrame(r textkit.Rect)    { v.frame = r }
func (v *swatch) SizeThatFits() textkit.Size { return v.fit }

func (v *swatch) Draw(s textkit.Surface) {
	s.SetFillColor(v.fill)
	s.FillRect(v.frame, v.radius)
	if v.border != nil {
		s.SetStrokeColor(v.border)
		s.SetLineWidth(defaultStrokeWidth)
		s.StrokeRect(v.frame)
	}
}

// tappableSwatch 只在声明了 tap 时使用，避免静态色块被当作可点击内容。
type tappableSwatch struct{ *swatch }

func (v tappableSwatch) Tap() { v.tap() }

// shapePaint 返回 shape 语句的绘制函数。
func shapePaint(kind string, fill, stroke color.Color) textkit.PaintFunc {
	return func(s textkit.Surface, r textkit.Rect) {
		switch kind {
		case "line":
			s.SetStrokeColor(fill)
			s.SetLineWidth(max(r.H, defaultStrokeWidth))
			y := r.Y + r.H/2
			s.StrokeLine(textkit.Point{X: r.X, Y: y}, textkit.Point{X: r.MaxX(), Y: y})
			return
		case "pill":
			s.SetFillColor(fill)
			s.FillRect(r, min(r.W, r.H)/2)
		default:
			s.SetFillColor(fill)
			s.FillRect(r, 0)
		}
		if stroke != nil {
			s.SetStrokeColor(stroke)
			s.SetLineWidth(defaultStrokeWidth)
			s.StrokeRect(r)
		}
	}
}

// spacer 是 flow 中相邻条目之间的固定间隔。
func spacer(width float64) *textkit.Attachment {
	return textkit.NewPaintedAttachment(func(textkit.Surface, textkit.Rect) {}, textkit.WithBounds(textkit.Rect{W: width}))
}
