package canvasrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"github.com/tdewolff/canvas/renderers/svg"
	"golang.org/x/image/font/sfnt"

	"github.com/ByLCY/textdeco/fonts"
	"github.com/ByLCY/textdeco/layout"
	"github.com/ByLCY/textdeco/renderer"
	"github.com/ByLCY/textdeco/richtext"
	"github.com/ByLCY/textdeco/story"
	"github.com/ByLCY/textdeco/textkit"
)

// Format 为输出格式。
type Format string

const (
	FormatPDF Format = "pdf"
	FormatSVG Format = "svg"
)

// ParseFormat 解析输出格式，空字符串视为 PDF。
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatPDF:
		return FormatPDF, nil
	case FormatSVG:
		return FormatSVG, nil
	default:
		return "", fmt.Errorf("不支持的输出格式 %q（可选 pdf、svg）", s)
	}
}

// Renderer draws stories via github.com/tdewolff/canvas and measures text
// with golang.org/x/image/font/sfnt.
type Renderer struct {
	baseDir string
	format  Format

	// injected resources
	fontBlobs  map[string][]byte // by unique name
	imageBlobs map[string][]byte // by unique name

	fontMu       sync.Mutex
	fontSources  map[string]fontSource
	fontFamilies map[string]*fontFamilyEntry
	sfntFonts    map[string]*sfnt.Font
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ layout.Typesetter = (*Renderer)(nil)
	_ story.Resources   = (*Renderer)(nil)
)

type fontSource struct {
	src   string
	style string
}

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

// Options configures the canvas renderer.
type Options struct {
	BaseDir string
	Format  Format
	Fonts   map[string]Resource // built-in fonts accessible via built-in:<name>
	Images  map[string]Resource // built-in images accessible via built-in:<name>
}

// Resource can be provided either by Bytes or by Path.
type Resource struct {
	Bytes []byte
	Path  string
}

// NewRenderer creates a PDF renderer rooted at baseDir for resolving assets.
func NewRenderer(baseDir string) *Renderer { return NewRendererWithOptions(Options{BaseDir: baseDir}) }

// NewRendererWithOptions creates a renderer with injected resources and optional baseDir.
func NewRendererWithOptions(opts Options) *Renderer {
	r := &Renderer{
		baseDir:      opts.BaseDir,
		format:       opts.Format,
		fontBlobs:    ingest(opts.Fonts),
		imageBlobs:   ingest(opts.Images),
		fontSources:  map[string]fontSource{},
		fontFamilies: map[string]*fontFamilyEntry{},
		sfntFonts:    map[string]*sfnt.Font{},
	}
	if r.format == "" {
		r.format = FormatPDF
	}
	return r
}

func ingest(resources map[string]Resource) map[string][]byte {
	blobs := map[string][]byte{}
	for name, res := range resources {
		if name == "" {
			continue
		}
		if len(res.Bytes) > 0 {
			blobs[name] = res.Bytes
			continue
		}
		if res.Path != "" {
			data, _ := os.ReadFile(res.Path) // ignore error here; will be caught when actually used
			if len(data) > 0 {
				blobs[name] = data
			}
		}
	}
	return blobs
}

// RegisterFont 声明名为 name 的字体来源，richtext.Font.Family 以该名字引用它。
// 重复声明时后者覆盖前者并清空相关缓存。
func (r *Renderer) RegisterFont(name, src, style string) {
	r.fontMu.Lock()
	defer r.fontMu.Unlock()
	r.fontSources[name] = fontSource{src: src, style: style}
	for key := range r.fontFamilies {
		if strings.HasPrefix(key, name+"|") {
			delete(r.fontFamilies, key)
		}
	}
}

// LoadImage 读取图片资源：built-in:<name>、相对 baseDir 的路径或绝对路径。
func (r *Renderer) LoadImage(src string) (image.Image, error) {
	if src == "" {
		return nil, fmt.Errorf("图片路径为空")
	}
	if strings.HasPrefix(src, "built-in:") || strings.HasPrefix(src, "builtin:") {
		name := strings.TrimPrefix(strings.TrimPrefix(src, "built-in:"), "builtin:")
		blob, ok := r.imageBlobs[name]
		if !ok {
			return nil, fmt.Errorf("找不到内置图片资源 built-in:%s", name)
		}
		img, _, err := image.Decode(bytes.NewReader(blob))
		if err != nil {
			return nil, fmt.Errorf("解码内置图片 built-in:%s 失败: %w", name, err)
		}
		return img, nil
	}
	if strings.HasPrefix(src, "embed:") {
		return nil, fmt.Errorf("图片资源 %s 未找到（embed 仅支持内置字体，暂不支持图片）", src)
	}
	path, err := r.resolvePath(src)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("读取图片 %s 失败: %w", src, err)
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("解码图片 %s 失败: %w", src, err)
	}
	return img, nil
}

func (r *Renderer) resolvePath(src string) (string, error) {
	if r.baseDir == "" && !filepath.IsAbs(src) {
		return "", fmt.Errorf("未指定资源目录时不允许直接使用路径：%s（请改用 built-in: 或 embed:）", src)
	}
	if filepath.IsAbs(src) {
		return src, nil
	}
	return filepath.Join(r.baseDir, src), nil
}

// Render 按渲染器的输出格式输出整份文档。
func (r *Renderer) Render(doc *story.Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("渲染文档为空")
	}
	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}
	if r.format == FormatSVG {
		return r.renderSVG(doc)
	}
	return r.renderPDF(doc)
}

func (r *Renderer) renderPDF(doc *story.Document) ([]byte, error) {
	var buf bytes.Buffer
	writer := pdf.New(&buf, doc.Pages[0].Width, doc.Pages[0].Height, nil)
	r.applyMeta(writer, doc.Meta)
	for i, page := range doc.Pages {
		if i > 0 {
			writer.NewPage(page.Width, page.Height)
		}
		c, _, err := r.DrawPage(page)
		if err != nil {
			return nil, err
		}
		c.RenderTo(writer)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) renderSVG(doc *story.Document) ([]byte, error) {
	if len(doc.Pages) > 1 {
		return nil, fmt.Errorf("SVG 仅支持单页文档，当前有 %d 页", len(doc.Pages))
	}
	page := doc.Pages[0]
	c, _, err := r.DrawPage(page)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	writer := svg.New(&buf, page.Width, page.Height, nil)
	c.RenderTo(writer)
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 SVG 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// DrawPage 将单个页面绘制到新的画布上，并返回承载嵌入内容的 Board。
func (r *Renderer) DrawPage(page *story.Page) (*canvas.Canvas, *Board, error) {
	c := canvas.New(page.Width, page.Height)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与排版保持左上角为原点

	surface := NewSurface(ctx, r)
	board := NewBoard()
	page.Draw(surface, board)
	if err := page.Err(); err != nil {
		return nil, nil, fmt.Errorf("排版页面 %s 失败: %w", page.Name, err)
	}
	if err := surface.Err(); err != nil {
		return nil, nil, fmt.Errorf("绘制页面 %s 失败: %w", page.Name, err)
	}
	textkit.Logger().Debug("page drawn", "page", page.Name, "content", len(board.Contents()))
	return c, board, nil
}

func (r *Renderer) applyMeta(writer *pdf.PDF, meta story.Meta) {
	if writer == nil {
		return
	}
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

// fontFace 返回绘制用的字体面，size 为 mm。
func (r *Renderer) fontFace(font richtext.Font, col color.Color) (*canvas.FontFace, error) {
	family, style, err := r.ensureFontFamily(font)
	if err != nil {
		return nil, err
	}
	return family.Face(toPt(font.Size), col, style, canvas.FontNormal), nil
}

// source 解析字体名对应的来源；未声明的字体使用内置默认字体。
func (r *Renderer) source(font richtext.Font) fontSource {
	src, ok := r.fontSources[font.Family]
	if !ok {
		src = fontSource{src: "embed:" + fonts.Default}
	}
	if font.Style != "" {
		src.style = font.Style
	}
	return src
}

func (r *Renderer) ensureFontFamily(font richtext.Font) (*canvas.FontFamily, canvas.FontStyle, error) {
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	src := r.source(font)
	key := fontCacheKey(font.Family, src)
	if entry, ok := r.fontFamilies[key]; ok {
		return entry.family, entry.style, nil
	}

	data, err := r.loadFontBytes(font.Family, src.src)
	if err != nil {
		return nil, canvas.FontRegular, err
	}
	familyName := font.Family
	if familyName == "" {
		familyName = "Body"
	}
	style := parseFontStyle(src.style)
	family := canvas.NewFontFamily(familyName)
	if err := family.LoadFont(data, 0, style); err != nil {
		return nil, canvas.FontRegular, fmt.Errorf("加载字体 %s 失败: %w", familyName, err)
	}
	r.fontFamilies[key] = &fontFamilyEntry{family: family, style: style}
	return family, style, nil
}

func (r *Renderer) loadFontBytes(name, src string) ([]byte, error) {
	if src == "" {
		return nil, fmt.Errorf("字体 %s 缺少 src", name)
	}
	if strings.HasPrefix(src, "built-in:") || strings.HasPrefix(src, "builtin:") {
		blobName := strings.TrimPrefix(strings.TrimPrefix(src, "built-in:"), "builtin:")
		if blob, ok := r.fontBlobs[blobName]; ok {
			return blob, nil
		}
		return nil, fmt.Errorf("找不到内置字体资源 built-in:%s", blobName)
	}
	if strings.HasPrefix(src, "embed:") {
		return fonts.Load(src)
	}
	path, err := r.resolvePath(src)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取字体 %s 失败: %w", src, err)
	}
	return data, nil
}

func parseFontStyle(style string) canvas.FontStyle {
	if style == "" {
		return canvas.FontRegular
	}
	s := strings.ToLower(style)
	result := canvas.FontRegular
	switch {
	case strings.Contains(s, "black"):
		result = canvas.FontBlack
	case strings.Contains(s, "extrabold"):
		result = canvas.FontExtraBold
	case strings.Contains(s, "semibold"), strings.Contains(s, "demibold"):
		result = canvas.FontSemiBold
	case strings.Contains(s, "bold"):
		result = canvas.FontBold
	case strings.Contains(s, "medium"):
		result = canvas.FontMedium
	case strings.Contains(s, "light"):
		result = canvas.FontLight
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}

func fontCacheKey(name string, src fontSource) string {
	return fmt.Sprintf("%s|%s|%s", name, src.src, src.style)
}

// toPt 将毫米(mm)转换为点(pt)。
func toPt(mm float64) float64 { return mm * layout.MmToPt }
