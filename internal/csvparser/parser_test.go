package csvparser

import (
	"bytes"
	"strings"
	"testing"
)

func TestReadGrid(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		settings Settings
		r, c     int
		want     string
	}{
		{
			name:     "ragged rows",
			input:    []byte(",A1. Ingresos,\"1,000\",(50)\n,B1. Otros\n"),
			settings: DefaultSettings(),
			r:        0, c: 2,
			want: "1,000",
		},
		{
			name:     "semicolon",
			input:    []byte(";a1) ISR;(50);−25\n"),
			settings: Settings{Delimiter: ";"},
			r:        0, c: 3,
			want: "−25",
		},
		{
			name:     "windows-1252 accent",
			input:    []byte{'I', 'I', '.', ' ', 'D', 'i', 's', 'p', 'o', 's', 'i', 'c', 'i', 0xF3, 'n'},
			settings: Settings{Encoding: "windows-1252"},
			r:        0, c: 0,
			want: "II. Disposición",
		},
		{
			name:     "utf-8 bom stripped",
			input:    append([]byte("\xef\xbb\xbf"), []byte("x,y")...),
			settings: DefaultSettings(),
			r:        0, c: 0,
			want: "x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := ReadGrid(bytes.NewReader(tt.input), tt.settings)
			if err != nil {
				t.Fatalf("ReadGrid() error = %v", err)
			}
			if got := g.Cell(tt.r, tt.c); got != tt.want {
				t.Errorf("Cell(%d,%d) = %q, want %q", tt.r, tt.c, got, tt.want)
			}
		})
	}
}

func TestReadGridUnknownEncoding(t *testing.T) {
	_, err := ReadGrid(strings.NewReader("a,b"), Settings{Encoding: "ebcdic"})
	if err == nil {
		t.Error("expected an error for an unknown encoding")
	}
}
