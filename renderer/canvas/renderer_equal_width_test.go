package canvasrenderer

import (
	"testing"

	"github.com/ByLCY/textdeco/layout"
	"github.com/ByLCY/textdeco/richtext"
	"github.com/ByLCY/textdeco/textkit"
)

// 当第一行宽度与容器宽度恰好相等且后面紧跟一个显式换行时，不应产生额外的空行。
func TestNoBlankLineWhenEqualWidthThenNewline(t *testing.T) {
	r := NewRenderer(".")
	first := "SAMPLE-A"

	// 不限宽度先测量第一行宽度（mm）
	measure := layout.NewEngine(richtext.New(first, nil), layout.Options{Typesetter: r, DefaultFont: body})
	limit := measure.UsedRect().W
	if limit <= 0 {
		t.Fatalf("invalid measured width: %g", limit)
	}

	// 构造恰好等宽 + 显式换行 + 下一行内容
	text := richtext.New(first+"\nB", nil)
	e := layout.NewEngine(text, layout.Options{Typesetter: r, DefaultFont: body})
	e.SetContainerSize(textkit.Size{W: limit, H: 100})
	lines := e.LineFragments(richtext.Range{Length: text.Len()})
	if len(lines) != 2 {
		t.Fatalf("期望 2 行，实际 %d 行", len(lines))
	}
	if got := text.Substring(lines[0].Glyphs); got != first+"\n" {
		t.Fatalf("首行内容错误: %q", got)
	}
}
