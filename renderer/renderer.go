package renderer

import "github.com/ByLCY/textdeco/story"

// Renderer 将排好的文档输出为最终文件，例如 PDF 或 SVG。
// Render 返回生成的二进制数据以及可能的错误。
type Renderer interface {
	Render(doc *story.Document) ([]byte, error)
}
