package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ByLCY/textdeco/binding"
	"github.com/ByLCY/textdeco/config"
	"github.com/ByLCY/textdeco/dsl"
	"github.com/ByLCY/textdeco/layout"
	"github.com/ByLCY/textdeco/richtext"
	canvasrenderer "github.com/ByLCY/textdeco/renderer/canvas"
	"github.com/ByLCY/textdeco/story"
	"github.com/ByLCY/textdeco/textkit"
)

func main() {
	configPath := flag.String("config", "textdeco.toml", "TOML 配置文件路径")
	input := flag.String("in", "", "DSL 文件路径")
	output := flag.String("out", "", "输出路径")
	format := flag.String("format", "", "输出格式：pdf 或 svg")
	dataJSON := flag.String("data", "", "绑定到 DSL 的 JSON 数据，@path 表示从文件读取")
	debug := flag.String("debug", "", "布局调试 JSON 输出目录，每页一个文件")
	tap := flag.String("tap", "", "模拟在首页 x,y（mm）处点击")
	watch := flag.Bool("watch", false, "DSL 文件变化时重新生成")
	verbose := flag.Bool("v", false, "输出调试日志")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("读取配置失败: %v", err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "in":
			cfg.Input = *input
		case "out":
			cfg.Output = *output
		case "format":
			cfg.Format = *format
		case "data":
			cfg.Data = *dataJSON
		case "debug":
			cfg.Debug = *debug
		case "watch":
			cfg.Watch = *watch
		case "v":
			if *verbose {
				cfg.LogLevel = "debug"
			}
		}
	})

	level, err := cfg.Level()
	if err != nil {
		log.Fatalf("%v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	textkit.SetLogger(logger)

	j := &job{cfg: cfg, tap: *tap, logger: logger}
	if err := j.run(); err != nil {
		log.Fatalf("生成失败: %v", err)
	}
	if cfg.Watch {
		if err := j.watch(); err != nil {
			log.Fatalf("监听失败: %v", err)
		}
	}
}

type job struct {
	cfg    config.Config
	tap    string
	logger *slog.Logger
}

// run 串联解析、数据绑定、构建与渲染。
func (j *job) run() error {
	format, err := canvasrenderer.ParseFormat(j.cfg.Format)
	if err != nil {
		return err
	}
	ast, err := dsl.ParseFile(j.cfg.Input)
	if err != nil {
		return fmt.Errorf("解析 DSL 失败: %w", err)
	}

	raw, err := readData(j.cfg.Data)
	if err != nil {
		return err
	}
	data, err := binding.Parse(raw)
	if err != nil {
		return fmt.Errorf("解析 data 失败: %w", err)
	}

	baseDir := j.cfg.BaseDir
	if baseDir == "" {
		baseDir = filepath.Dir(j.cfg.Input)
	}
	r := canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{
		BaseDir: baseDir,
		Format:  format,
		Fonts:   resources(j.cfg.Fonts),
		Images:  resources(j.cfg.Images),
	})

	doc, err := story.Build(ast, story.Options{
		Typesetter: r,
		Resources:  r,
		Data:       data,
		Tap: func(action string, text *richtext.Text) {
			attrs := []any{"action", action}
			if text != nil {
				attrs = append(attrs, "text", text.String())
			}
			j.logger.Info("tap", attrs...)
		},
	})
	if err != nil {
		return fmt.Errorf("构建文档失败: %w", err)
	}

	out, err := r.Render(doc)
	if err != nil {
		return fmt.Errorf("渲染失败: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(j.cfg.Output), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := os.WriteFile(j.cfg.Output, out, 0o644); err != nil {
		return fmt.Errorf("写入输出文件失败: %w", err)
	}
	j.logger.Info("已生成", "out", j.cfg.Output, "format", format, "pages", len(doc.Pages))

	if j.cfg.Debug != "" {
		if err := writeDebug(doc, j.cfg.Debug); err != nil {
			return err
		}
	}
	if j.tap != "" {
		return j.simulateTap(r, doc)
	}
	return nil
}

func (j *job) simulateTap(r *canvasrenderer.Renderer, doc *story.Document) error {
	x, y, ok := strings.Cut(j.tap, ",")
	px, errX := strconv.ParseFloat(strings.TrimSpace(x), 64)
	py, errY := strconv.ParseFloat(strings.TrimSpace(y), 64)
	if !ok || errX != nil || errY != nil {
		return fmt.Errorf("tap 需要 x,y 形式的坐标: %q", j.tap)
	}
	_, board, err := r.DrawPage(doc.Pages[0])
	if err != nil {
		return err
	}
	if !board.TapAt(textkit.Point{X: px, Y: py}) {
		j.logger.Info("tap 未命中", "x", px, "y", py)
	}
	return nil
}

// watch 监听 DSL 所在目录，输入文件变化后重新生成。
func (j *job) watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	target, err := filepath.Abs(j.cfg.Input)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return err
	}
	j.logger.Info("正在监听", "in", j.cfg.Input)

	// 编辑器保存时常连续触发多次事件，合并到一次重建
	var pending <-chan time.Time
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != target || !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			pending = time.After(100 * time.Millisecond)
		case <-pending:
			pending = nil
			if err := j.run(); err != nil {
				j.logger.Error("重新生成失败", "err", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			j.logger.Error("watcher", "err", err)
		}
	}
}

func readData(value string) ([]byte, error) {
	path, ok := strings.CutPrefix(value, "@")
	if !ok {
		return []byte(value), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取 data 文件失败: %w", err)
	}
	return raw, nil
}

func resources(paths map[string]string) map[string]canvasrenderer.Resource {
	out := make(map[string]canvasrenderer.Resource, len(paths))
	for name, p := range paths {
		out[name] = canvasrenderer.Resource{Path: p}
	}
	return out
}

func writeDebug(doc *story.Document, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	for i, page := range doc.Pages {
		path := filepath.Join(dir, fmt.Sprintf("%02d-%s.json", i+1, page.Name))
		if err := layout.WriteDebugJSON(page.Engine, path); err != nil {
			return fmt.Errorf("输出调试 JSON 失败: %w", err)
		}
	}
	return nil
}
