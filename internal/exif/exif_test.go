package exif

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int64
	}{
		{
			name:  "exif colon format",
			input: "2024:06:15 12:30:00",
			want:  time.Date(2024, 6, 15, 12, 30, 0, 0, time.UTC).Unix(),
		},
		{
			name:  "hyphenated variant",
			input: "2024-06-15 12:30:00",
			want:  time.Date(2024, 6, 15, 12, 30, 0, 0, time.UTC).Unix(),
		},
		{
			name:  "date only",
			input: "2024:06:15",
			want:  time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC).Unix(),
		},
		{
			name:  "subsecond suffix trimmed",
			input: "2024:06:15 12:30:00.123",
			want:  time.Date(2024, 6, 15, 12, 30, 0, 0, time.UTC).Unix(),
		},
		{
			name:  "timezone suffix trimmed",
			input: "2024:06:15 12:30:00+02:00",
			want:  time.Date(2024, 6, 15, 12, 30, 0, 0, time.UTC).Unix(),
		},
		{
			name:  "surrounding whitespace",
			input: "  2024:06:15 12:30:00  ",
			want:  time.Date(2024, 6, 15, 12, 30, 0, 0, time.UTC).Unix(),
		},
		{name: "empty", input: "", want: 0},
		{name: "garbage", input: "not a date", want: 0},
		{name: "camera default epoch", input: "0000:00:00 00:00:00", want: 0},
		{name: "implausibly old", input: "1969:12:31 23:59:59", want: 0},
		{name: "implausibly future", input: "2222:01:01 00:00:00", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseDate(tt.input); got != tt.want {
				t.Errorf("ParseDate(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtractor_NilSafe(t *testing.T) {
	var e *Extractor
	if got := e.Extract("/whatever.jpg"); got != nil {
		t.Errorf("nil extractor must return nil metadata, got %+v", got)
	}
	e.Close() // must not panic
}
