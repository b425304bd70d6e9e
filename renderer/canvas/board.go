package canvasrenderer

import (
	"slices"

	"github.com/ByLCY/textdeco/textkit"
)

// Board 是静态导出时的 textkit.Container：按附着顺序记录嵌入内容。
// 内容的绘制由 textkit.Host 在定位后完成，Board 只负责持有与命中测试。
type Board struct {
	contents []textkit.Content
	raised   int
}

var _ textkit.Container = (*Board)(nil)

func NewBoard() *Board { return &Board{} }

func (b *Board) Attach(c textkit.Content) {
	if !b.Attached(c) {
		b.contents = append(b.contents, c)
	}
}

func (b *Board) Detach(c textkit.Content) {
	b.contents = slices.DeleteFunc(b.contents, func(x textkit.Content) bool { return x == c })
}

func (b *Board) Attached(c textkit.Content) bool { return slices.Contains(b.contents, c) }

// RaiseOverlays 只计数：静态输出没有选区或光标。
func (b *Board) RaiseOverlays() { b.raised++ }

// Contents 返回当前附着的内容，按附着顺序。
func (b *Board) Contents() []textkit.Content { return slices.Clone(b.contents) }

// TapAt 将点击转发给最上层（最后附着）且包含 p 的可点击内容。
func (b *Board) TapAt(p textkit.Point) bool {
	for _, c := range slices.Backward(b.contents) {
		t, ok := c.(textkit.Tappable)
		if !ok {
			continue
		}
		f := c.Frame()
		if p.X >= f.MinX() && p.X < f.MaxX() && p.Y >= f.MinY() && p.Y < f.MaxY() {
			t.Tap()
			return true
		}
	}
	return false
}
