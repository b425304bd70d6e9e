package story

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/ByLCY/textdeco/dsl"
	"github.com/ByLCY/textdeco/layout"
)

// args 是命令参数按关键字拆分后的结果。
type args struct {
	positional []string
	named      map[string][]string
}

// parseArgs 按 arity 拆分参数：出现在 arity 中的关键字会吞掉其后固定个数的值，
// 其余参数按顺序放入 positional。"-" 与紧随的数字合并为负数。
func parseArgs(lexemes []*dsl.Lexeme, arity map[string]int) args {
	values := joinSigns(lexemes)
	out := args{named: map[string][]string{}}
	for i := 0; i < len(values); i++ {
		n, ok := arity[values[i]]
		if !ok {
			out.positional = append(out.positional, values[i])
			continue
		}
		end := min(i+1+n, len(values))
		out.named[values[i]] = values[i+1 : end]
		i = end - 1
	}
	return out
}

func joinSigns(lexemes []*dsl.Lexeme) []string {
	var values []string
	for i := 0; i < len(lexemes); i++ {
		lx := lexemes[i]
		if lx.Type == "Symbol" && lx.Value == "-" && i+1 < len(lexemes) && lexemes[i+1].Type == "Number" {
			values = append(values, "-"+lexemes[i+1].Value)
			i++
			continue
		}
		values = append(values, lx.Value)
	}
	return values
}

func (a args) has(key string) bool {
	_, ok := a.named[key]
	return ok
}

func (a args) str(key string) string {
	if v := a.named[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func (a args) length(key string, def float64) (float64, error) {
	v := a.str(key)
	if v == "" {
		return def, nil
	}
	l, err := layout.ParseLength(v)
	if err != nil {
		return 0, fmt.Errorf("参数 %s: %w", key, err)
	}
	return l.ToMM(), nil
}

func (a args) lengths(key string) ([]float64, error) {
	var out []float64
	for _, v := range a.named[key] {
		l, err := layout.ParseLength(v)
		if err != nil {
			return nil, fmt.Errorf("参数 %s: %w", key, err)
		}
		out = append(out, l.ToMM())
	}
	return out, nil
}

func (a args) number(key string, def float64) (float64, error) {
	v := a.str(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("参数 %s 不是数字: %q", key, v)
	}
	return f, nil
}

func (a args) integer(i int) (int, error) {
	if i >= len(a.positional) {
		return 0, fmt.Errorf("缺少第 %d 个参数", i+1)
	}
	n, err := strconv.Atoi(a.positional[i])
	if err != nil {
		return 0, fmt.Errorf("参数 %q 不是整数", a.positional[i])
	}
	return n, nil
}

func parseColor(value string) (color.Color, error) {
	value = strings.TrimPrefix(value, "#")
	switch len(value) {
	case 3:
		return color.RGBA{
			R: mustHex(strings.Repeat(value[0:1], 2)),
			G: mustHex(strings.Repeat(value[1:2], 2)),
			B: mustHex(strings.Repeat(value[2:3], 2)),
			A: 0xff,
		}, nil
	case 6:
		return color.RGBA{R: mustHex(value[0:2]), G: mustHex(value[2:4]), B: mustHex(value[4:6]), A: 0xff}, nil
	case 8:
		// 带透明度的颜色需要预乘
		c := color.NRGBA{R: mustHex(value[0:2]), G: mustHex(value[2:4]), B: mustHex(value[4:6]), A: mustHex(value[6:8])}
		return color.RGBAModel.Convert(c), nil
	default:
		return nil, fmt.Errorf("颜色值 %s 无法解析", value)
	}
}

func mustHex(s string) uint8 {
	v, _ := strconv.ParseUint(s, 16, 8)
	return uint8(v)
}

func valueToString(val *dsl.Value) string {
	if val == nil {
		return ""
	}
	switch {
	case val.String != nil:
		return string(*val.String)
	case val.Number != nil:
		return *val.Number
	case val.Color != nil:
		return *val.Color
	case val.Expr != nil:
		var builder strings.Builder
		for _, part := range val.Expr.Parts {
			builder.WriteString(part.Value)
		}
		return builder.String()
	default:
		return ""
	}
}

func valueToStringSlice(val *dsl.Value) []string {
	if val == nil {
		return nil
	}
	if val.Array != nil {
		out := make([]string, 0, len(val.Array.Values))
		for _, item := range val.Array.Values {
			if s := valueToString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	if s := valueToString(val); s != "" {
		return []string{s}
	}
	return nil
}
