package linebuf

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

// collect returns a buffer and a pointer to the lines it emitted.
func collect() (*Buffer, *[]string) {
	var lines []string
	return New(func(line string) { lines = append(lines, line) }), &lines
}

func feed(t *testing.T, chunks ...[]byte) []string {
	t.Helper()
	b, lines := collect()
	for _, c := range chunks {
		if _, err := b.Write(c); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	return *lines
}

func TestLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"single line", "hello\n", []string{"hello"}},
		{"two lines", "a\nb\n", []string{"a", "b"}},
		{"unterminated remainder", "a\nrest", []string{"a", "rest"}},
		{"empty lines kept", "a\n\nb\n", []string{"a", "", "b"}},
		{"crlf", "a\r\nb\r\n", []string{"a", "b"}},
		{"bare cr", "a\rb\r", []string{"a", "b"}},
		{"cr cr lf", "a\r\r\n", []string{"a", ""}},
		{"unicode separators", "a\u2028b\u2029c\u0085d", []string{"a", "b", "c", "d"}},
		{"multibyte", "grüße\n日本語\n", []string{"grüße", "日本語"}},
		{"nothing", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := feed(t, []byte(tt.input))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("lines = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEveryChunkingYieldsSameLines(t *testing.T) {
	input := []byte("[cplayer] Playing: ytdl://abc\r\nAV: 00:00:01 / 00:03:12\rgrüße 日本 x\n\xff\xfeend")
	want := feed(t, input)

	// Every single split point.
	for i := 0; i <= len(input); i++ {
		got := feed(t, input[:i], input[i:])
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("split at %d: lines = %q, want %q", i, got, want)
		}
	}

	// Every pair of split points.
	for i := 0; i <= len(input); i++ {
		for j := i; j <= len(input); j++ {
			got := feed(t, input[:i], input[i:j], input[j:])
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("split at %d,%d: lines = %q, want %q", i, j, got, want)
			}
		}
	}

	// One byte at a time.
	chunks := make([][]byte, len(input))
	for i := range input {
		chunks[i] = input[i : i+1]
	}
	if got := feed(t, chunks...); !reflect.DeepEqual(got, want) {
		t.Fatalf("byte-at-a-time: lines = %q, want %q", got, want)
	}
}

func TestInvalidUTF8IsReplaced(t *testing.T) {
	got := feed(t, []byte("ok\xffok\n"))
	want := []string{"ok\uFFFDok"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("lines = %q, want %q", got, want)
	}
}

func TestTruncatedRuneAtClose(t *testing.T) {
	// First two bytes of a three-byte rune, then the stream closes.
	got := feed(t, []byte("ab\xe6\x97"))
	if len(got) != 1 || !strings.HasPrefix(got[0], "ab") || !strings.Contains(got[0], "\uFFFD") {
		t.Errorf("lines = %q, want one line starting with ab and a replacement char", got)
	}
}

func TestLinesEmittedBeforeClose(t *testing.T) {
	b, lines := collect()
	b.Write([]byte("first\nsec"))
	if !reflect.DeepEqual(*lines, []string{"first"}) {
		t.Fatalf("lines after first write = %q", *lines)
	}
	b.Write([]byte("ond\n"))
	if !reflect.DeepEqual(*lines, []string{"first", "second"}) {
		t.Fatalf("lines after second write = %q", *lines)
	}
}

func TestLongLine(t *testing.T) {
	long := strings.Repeat("x", 3*scratchSize+17)
	got := feed(t, []byte(long+"\n"))
	if len(got) != 1 || got[0] != long {
		t.Errorf("long line not reassembled, got %d lines", len(got))
	}
}

func TestWriteAfterClose(t *testing.T) {
	b, _ := collect()
	b.Close()
	if _, err := b.Write([]byte("x")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("second Close returned %v", err)
	}
}

func TestDrain(t *testing.T) {
	var lines []string
	err := Drain(strings.NewReader("one\ntwo\nthree"), func(line string) {
		lines = append(lines, line)
	})
	if err != nil {
		t.Fatalf("Drain returned %v", err)
	}
	want := []string{"one", "two", "three"}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("lines = %q, want %q", lines, want)
	}
}
