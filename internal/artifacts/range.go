package artifacts

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// DefaultRangeWindow bounds open-ended ranges such as "bytes=N-".
const DefaultRangeWindow int64 = 1 << 20

type rangeOutcome int

const (
	rangeFull rangeOutcome = iota
	rangePartial
	rangeUnsatisfiable
)

// byteRange is an inclusive [Start, End] window.
type byteRange struct {
	Start int64
	End   int64
}

func (r byteRange) Length() int64 {
	return r.End - r.Start + 1
}

// parseRange interprets a single "bytes=start-end" header against size.
// Anything it cannot parse yields rangeFull; a start at or past EOF yields
// rangeUnsatisfiable.
func parseRange(header string, size int64) (byteRange, rangeOutcome) {
	header = strings.TrimSpace(header)
	if header == "" {
		return byteRange{}, rangeFull
	}
	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok || strings.Contains(spec, ",") {
		return byteRange{}, rangeFull
	}
	startRaw, endRaw, ok := strings.Cut(spec, "-")
	if !ok {
		return byteRange{}, rangeFull
	}
	startRaw = strings.TrimSpace(startRaw)
	endRaw = strings.TrimSpace(endRaw)
	if !isDigits(startRaw) || (endRaw != "" && !isDigits(endRaw)) {
		return byteRange{}, rangeFull
	}

	start, err := strconv.ParseInt(startRaw, 10, 64)
	if err != nil {
		return byteRange{}, rangeFull
	}

	var end int64
	if endRaw == "" {
		end = start + DefaultRangeWindow - 1
	} else {
		end, err = strconv.ParseInt(endRaw, 10, 64)
		if errors.Is(err, strconv.ErrRange) {
			end, err = math.MaxInt64, nil
		}
		if err != nil || end < start {
			return byteRange{}, rangeFull
		}
	}

	if start >= size {
		return byteRange{}, rangeUnsatisfiable
	}
	if end > size-1 {
		end = size - 1
	}
	return byteRange{Start: start, End: end}, rangePartial
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
