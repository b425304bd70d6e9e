// Package fonts 提供随程序分发的 Latin Modern 字体。
package fonts

import (
	"fmt"
	"slices"
	"strings"

	"github.com/go-fonts/latin-modern/lmmono10italic"
	"github.com/go-fonts/latin-modern/lmmono10regular"
	"github.com/go-fonts/latin-modern/lmroman10bold"
	"github.com/go-fonts/latin-modern/lmroman10bolditalic"
	"github.com/go-fonts/latin-modern/lmroman10italic"
	"github.com/go-fonts/latin-modern/lmroman10regular"
	"github.com/go-fonts/latin-modern/lmsans10bold"
	"github.com/go-fonts/latin-modern/lmsans10oblique"
	"github.com/go-fonts/latin-modern/lmsans10regular"
)

// Default 是未声明字体时使用的内置字体。
const Default = "roman-regular"

var builtin = map[string][]byte{
	"roman-regular":    lmroman10regular.TTF,
	"roman-bold":       lmroman10bold.TTF,
	"roman-italic":     lmroman10italic.TTF,
	"roman-bolditalic": lmroman10bolditalic.TTF,
	"sans-regular":     lmsans10regular.TTF,
	"sans-bold":        lmsans10bold.TTF,
	"sans-italic":      lmsans10oblique.TTF,
	"mono-regular":     lmmono10regular.TTF,
	"mono-italic":      lmmono10italic.TTF,
}

// Names 返回全部内置字体名，已排序。
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Load 返回内置字体的字节数据。name 可写为 "embed:sans-bold" 或 "sans-bold"，
// 只写族名（如 "mono"）时取 regular。
func Load(name string) ([]byte, error) {
	key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "embed:")))
	if !strings.Contains(key, "-") {
		key += "-regular"
	}
	data, ok := builtin[key]
	if !ok {
		return nil, fmt.Errorf("未知的内置字体 %s（可用：%s）", name, strings.Join(Names(), ", "))
	}
	return data, nil
}
