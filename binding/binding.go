// Package binding 将 JSON 数据绑定到文档中的 ${path} 占位符。
package binding

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	exprPattern  = regexp.MustCompile(`\$\{([^}]+)\}`)
	indexPattern = regexp.MustCompile(`\[(\d+)\]`)
)

// Data 为只读的 JSON 数据源。
type Data struct {
	raw string
}

// Parse 校验并包装 JSON 数据；空输入返回 nil。
func Parse(raw []byte) (*Data, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, nil
	}
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("数据不是合法的 JSON")
	}
	return &Data{raw: string(raw)}, nil
}

// Lookup 按路径取值。路径支持 a.b.c 与 items[0].name 两种下标写法。
func (d *Data) Lookup(path string) (gjson.Result, bool) {
	if d == nil {
		return gjson.Result{}, false
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return gjson.Result{}, false
	}
	res := gjson.Get(d.raw, normalizePath(path))
	return res, res.Exists()
}

// Interpolate 将文本中的 ${path.to.value} 替换为 data 中的值。
// 若 data 为空或路径不存在，则保留原占位符。
func Interpolate(text string, data *Data) string {
	if data == nil {
		return text
	}
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := exprPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		if val, ok := data.Lookup(groups[1]); ok {
			return val.String()
		}
		return match
	})
}

func normalizePath(path string) string {
	return strings.TrimPrefix(indexPattern.ReplaceAllString(path, ".$1"), ".")
}
