package flex

import (
	"encoding/json"
	"testing"
)

func TestFloat64_NumberAndString(t *testing.T) {
	var v struct {
		A Float64 `json:"a"`
		B Float64 `json:"b"`
		C Float64 `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a": 12.5, "b": "7.25", "c": "N/A"}`), &v); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if v.A != 12.5 {
		t.Errorf("a = %v", v.A)
	}
	if v.B != 7.25 {
		t.Errorf("b = %v", v.B)
	}
	if v.C != 0 {
		t.Errorf("c should coerce to 0, got %v", v.C)
	}
}

func TestFloat64_RejectsObjects(t *testing.T) {
	var v Float64
	if err := json.Unmarshal([]byte(`{}`), &v); err == nil {
		t.Error("expected error for object value")
	}
}

func TestParseOr(t *testing.T) {
	tests := []struct {
		in       string
		fallback float64
		want     float64
	}{
		{"1.23", 0, 1.23},
		{"1.23%", 0, 1.23},
		{"-0.45%", 0, -0.45},
		{"1,234.5", 0, 1234.5},
		{"", 9, 9},
		{"N/A", 9, 9},
		{"-", 9, 9},
		{"garbage", 9, 9},
		{"  42  ", 0, 42},
	}
	for _, tt := range tests {
		if got := ParseOr(tt.in, tt.fallback); got != tt.want {
			t.Errorf("ParseOr(%q, %v) = %v, want %v", tt.in, tt.fallback, got, tt.want)
		}
	}
}

func TestParseIntOr(t *testing.T) {
	tests := []struct {
		in       string
		fallback int64
		want     int64
	}{
		{"3500000", 0, 3500000},
		{"3,500,000", 0, 3500000},
		{"1234.0", 0, 1234}, // float-shaped volume strings occur
		{"", 7, 7},
		{"N/A", 7, 7},
	}
	for _, tt := range tests {
		if got := ParseIntOr(tt.in, tt.fallback); got != tt.want {
			t.Errorf("ParseIntOr(%q, %v) = %v, want %v", tt.in, tt.fallback, got, tt.want)
		}
	}
}
