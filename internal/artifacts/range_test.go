package artifacts

import "testing"

func TestParseRange(t *testing.T) {
	const size = int64(10 << 20)

	tests := []struct {
		name    string
		header  string
		want    byteRange
		outcome rangeOutcome
	}{
		{name: "absent", header: "", outcome: rangeFull},
		{name: "explicit", header: "bytes=0-1023", want: byteRange{0, 1023}, outcome: rangePartial},
		{name: "open ended near eof", header: "bytes=10485750-", want: byteRange{10485750, 10485759}, outcome: rangePartial},
		{name: "open ended window", header: "bytes=100-", want: byteRange{100, 100 + DefaultRangeWindow - 1}, outcome: rangePartial},
		{name: "end clamped", header: "bytes=10485000-99999999", want: byteRange{10485000, size - 1}, outcome: rangePartial},
		{name: "single byte", header: "bytes=5-5", want: byteRange{5, 5}, outcome: rangePartial},
		{name: "start at eof", header: "bytes=10485760-", outcome: rangeUnsatisfiable},
		{name: "start past eof", header: "bytes=20000000-20000010", outcome: rangeUnsatisfiable},
		{name: "wrong unit", header: "items=0-10", outcome: rangeFull},
		{name: "suffix form", header: "bytes=-500", outcome: rangeFull},
		{name: "multi range", header: "bytes=0-1,4-5", outcome: rangeFull},
		{name: "end before start", header: "bytes=10-5", outcome: rangeFull},
		{name: "garbage", header: "bytes=abc-def", outcome: rangeFull},
		{name: "negative", header: "bytes=-1-5", outcome: rangeFull},
		{name: "overflow", header: "bytes=99999999999999999999-", outcome: rangeFull},
		{name: "end overflow clamped", header: "bytes=0-99999999999999999999", want: byteRange{0, size - 1}, outcome: rangePartial},
		{name: "no dash", header: "bytes=100", outcome: rangeFull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, outcome := parseRange(tt.header, size)
			if outcome != tt.outcome {
				t.Fatalf("expected outcome %d, got %d", tt.outcome, outcome)
			}
			if outcome == rangePartial && got != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}
