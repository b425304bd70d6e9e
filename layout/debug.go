package layout

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ByLCY/textdeco/richtext"
	"github.com/ByLCY/textdeco/textkit"
)

// DebugGlyph 是单个字形的调试信息。
type DebugGlyph struct {
	Index    int             `json:"index"`
	Char     string          `json:"char"`
	Glyph    textkit.GlyphID `json:"glyph"`
	Location textkit.Point   `json:"location"`
	Box      textkit.Rect    `json:"box"`
	Advance  float64         `json:"advance"`
}

// DebugLine 是一行的调试信息。
type DebugLine struct {
	Rect     textkit.Rect   `json:"rect"`
	UsedRect textkit.Rect   `json:"usedRect"`
	Baseline float64        `json:"baseline"`
	Glyphs   richtext.Range `json:"glyphs"`
	Content  string         `json:"content"`
	Items    []DebugGlyph   `json:"items"`
}

// DebugInfo 汇总一次排版的结果。
type DebugInfo struct {
	Container textkit.Size `json:"container"`
	UsedRect  textkit.Rect `json:"usedRect"`
	Lines     []DebugLine  `json:"lines"`
}

// Debug 返回当前排版结果的快照。
func (e *Engine) Debug() DebugInfo {
	e.ensure()
	info := DebugInfo{Container: e.container, UsedRect: e.used}
	if info.Container.W >= 1e300 {
		info.Container.W = 0
	}
	if info.Container.H >= 1e300 {
		info.Container.H = 0
	}
	for _, ln := range e.lines {
		dl := DebugLine{
			Rect:     ln.rect,
			UsedRect: ln.used,
			Baseline: ln.baseline,
			Glyphs:   ln.glyphs,
			Content:  e.text.Substring(ln.glyphs),
		}
		for g := ln.glyphs.Location; g < ln.glyphs.End(); g++ {
			gi := &e.glyphs[g]
			dl.Items = append(dl.Items, DebugGlyph{
				Index:    g,
				Char:     string(gi.r),
				Glyph:    gi.id,
				Location: gi.loc,
				Box:      e.glyphBox(g),
				Advance:  gi.advance,
			})
		}
		info.Lines = append(info.Lines, dl)
	}
	return info
}

// WriteDebugJSON 将排版结果输出为 JSON，便于调试或可视化。
func WriteDebugJSON(e *Engine, path string) error {
	if e == nil {
		return nil
	}
	data, err := json.MarshalIndent(e.Debug(), "", "  ")
	if err != nil {
		return fmt.Errorf("序列化排版调试信息失败: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
