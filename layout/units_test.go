package layout

import (
	"math"
	"testing"
)

// TestPtMmRoundTrip 验证 pt↔mm 换算的往返精度（允许极小的浮点误差）。
func TestPtMmRoundTrip(t *testing.T) {
	samples := []float64{0, 0.001, 1, 12, 14.4, 72, 96, 144, 1000}
	for _, pt := range samples {
		mm := Length{Value: pt, Unit: UnitPT}.ToMM()
		back := Length{Value: mm, Unit: UnitMM}.ToPT()
		if diff := math.Abs(back - pt); diff > 1e-9 {
			t.Fatalf("pt→mm→pt 往返误差过大: in=%gpt mm=%g back=%g diff=%g", pt, mm, back, diff)
		}
	}
}

// TestLengthToConversions 覆盖 Length 在常见单位上的转换正确性（到 mm/pt）。
func TestLengthToConversions(t *testing.T) {
	cases := []struct {
		in   Length
		mm   float64
		unit string
	}{
		{Length{Value: 1, Unit: UnitIN}, 25.4, "1in"},
		{Length{Value: 2.54, Unit: UnitCM}, 25.4, "2.54cm"},
		{Length{Value: 12, Unit: UnitPT}, 12 * PtToMm, "12pt"},
		{Length{Value: 3, Unit: UnitNone}, 3, "3"},
	}
	for _, c := range cases {
		if got := c.in.ToMM(); math.Abs(got-c.mm) > 1e-9 {
			t.Fatalf("%s 转 mm 期望 %g，实际 %g", c.unit, c.mm, got)
		}
		if got := c.in.String(); got != c.unit {
			t.Fatalf("String() 期望 %s，实际 %s", c.unit, got)
		}
	}
	if got := (Length{Value: 12, Unit: UnitPT}).ToPT(); got != 12 {
		t.Fatalf("12pt 转 pt 期望 12，实际 %g", got)
	}
}

func TestParseLength(t *testing.T) {
	l, err := ParseLength(" 3.5MM ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Unit != UnitMM || l.Value != 3.5 {
		t.Fatalf("期望 3.5mm，实际 %+v", l)
	}
	if _, err := ParseLength("wide"); err == nil {
		t.Fatalf("期望解析失败")
	}
	if got := MustMM("-1cm"); got != -10 {
		t.Fatalf("期望 -10，实际 %g", got)
	}
}

func TestParseLineHeight(t *testing.T) {
	factor, err := ParseLineHeight("1.5x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := factor.Spacing(4); math.Abs(got-2) > 1e-9 {
		t.Fatalf("1.5x 行距期望 2，实际 %g", got)
	}
	abs, err := ParseLineHeight("3mm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := abs.Spacing(4); got != 0 {
		t.Fatalf("行高小于字号时行距应为 0，实际 %g", got)
	}
}
