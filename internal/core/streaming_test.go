package core

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/cespare/xxhash/v2"
)

func TestCountingReader(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		limit   int64
		wantErr error
	}{
		{name: "no limit", input: "hello,world\n", limit: 0},
		{name: "under limit", input: "hello", limit: 5},
		{name: "empty input", input: "", limit: 1},
		{name: "over limit", input: "hello,world", limit: 5, wantErr: ErrFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newCountingReader(strings.NewReader(tt.input), tt.limit)
			data, err := io.ReadAll(r)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ReadAll() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if string(data) != tt.input {
				t.Errorf("data = %q, want %q", data, tt.input)
			}
			if r.BytesRead != int64(len(tt.input)) {
				t.Errorf("BytesRead = %d, want %d", r.BytesRead, len(tt.input))
			}
			if got, want := r.Checksum(), xxhashHex(tt.input); got != want {
				t.Errorf("Checksum() = %s, want %s", got, want)
			}
		})
	}
}

func xxhashHex(s string) string {
	const digits = "0123456789abcdef"
	v := xxhash.Sum64String(s)
	out := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		out[i] = digits[v&0xf]
		v >>= 4
	}
	return string(out)
}
