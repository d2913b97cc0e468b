package utils

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	kib = 1024.0
	mib = kib * 1024
	gib = mib * 1024
	tib = gib * 1024
)

// unitBytes maps size suffixes to bytes. Binary suffixes (KiB, MiB, ...)
// use base-1024, decimal suffixes (kB, MB, ...) use base-1000, matching
// what container runtimes report.
var unitBytes = map[string]float64{
	"":    1,
	"b":   1,
	"kb":  1000,
	"mb":  1000 * 1000,
	"gb":  1000 * 1000 * 1000,
	"tb":  1000 * 1000 * 1000 * 1000,
	"kib": kib,
	"mib": mib,
	"gib": gib,
	"tib": tib,
	"ki":  kib,
	"mi":  mib,
	"gi":  gib,
	"ti":  tib,
}

// ParseSizeToMB normalizes a substrate-reported size string ("1.5GiB",
// "512MiB", "3.2kB") to mebibytes using base-1024 arithmetic, so callers
// never need unit-aware comparisons.
func ParseSizeToMB(s string) (float64, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, fmt.Errorf("empty size value")
	}

	split := len(trimmed)
	for i, r := range trimmed {
		if (r < '0' || r > '9') && r != '.' && r != '-' {
			split = i
			break
		}
	}

	numPart := trimmed[:split]
	unitPart := strings.ToLower(strings.TrimSpace(trimmed[split:]))

	value, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q: %w", s, err)
	}

	factor, ok := unitBytes[unitPart]
	if !ok {
		return 0, fmt.Errorf("unknown size unit %q in %q", unitPart, s)
	}

	return value * factor / mib, nil
}

// BytesToMB converts a raw byte count to mebibytes
func BytesToMB(bytes int64) float64 {
	return float64(bytes) / mib
}
