package utils

import (
	"math"
	"testing"
)

func TestParseSizeToMB(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"1.5GiB", 1536},
		{"512MiB", 512},
		{"1Gi", 1024},
		{"2048Ki", 2},
		{"100B", 100.0 / (1024 * 1024)},
		{"3.2kB", 3200.0 / (1024 * 1024)},
		{"1GB", 1000 * 1000 * 1000 / (1024.0 * 1024.0)},
		{" 256MiB ", 256},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSizeToMB(tt.input)
			if err != nil {
				t.Fatalf("ParseSizeToMB(%q) error: %v", tt.input, err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ParseSizeToMB(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseSizeToMBRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "   ", "GiB", "12XB", "1.2.3MiB"} {
		if _, err := ParseSizeToMB(input); err == nil {
			t.Errorf("ParseSizeToMB(%q) accepted invalid input", input)
		}
	}
}

func TestBytesToMB(t *testing.T) {
	if got := BytesToMB(3 * 1024 * 1024); got != 3 {
		t.Fatalf("BytesToMB = %v, want 3", got)
	}
}
