// Package linebuf assembles a raw output stream into lines.
//
// Bytes may arrive in chunks of any size; a line (and a multi-byte rune) may
// be split across any number of writes. Every complete line is emitted exactly
// once, in arrival order, to the consumer given to New. Invalid UTF-8 is
// replaced with U+FFFD instead of failing the stream.
package linebuf

import (
	"errors"
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("line buffer closed")

const scratchSize = 4096

// Buffer splits written bytes into lines. It is safe for concurrent use,
// although lines are only meaningful when a single stream writes to it.
type Buffer struct {
	mu      sync.Mutex
	emit    func(line string)
	decoder transform.Transformer
	pending []byte // undecoded bytes, at most one incomplete rune
	line    strings.Builder
	afterCR bool // last separator was \r, a following \n belongs to it
	closed  bool
	scratch [scratchSize]byte
}

// New creates a buffer that calls emit for each completed line.
// emit is called synchronously from Write and Close.
func New(emit func(line string)) *Buffer {
	return &Buffer{
		emit:    emit,
		decoder: unicode.UTF8.NewDecoder(),
	}
}

// Write implements io.Writer. It never fails except after Close.
func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}
	b.decode(p, false)
	return len(p), nil
}

// Close flushes undecoded bytes and emits the unterminated remainder, if any,
// as a final line. Subsequent calls are no-ops.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	b.decode(nil, true)

	if b.line.Len() > 0 {
		b.flushLine()
	}
	return nil
}

func (b *Buffer) decode(p []byte, atEOF bool) {
	src := p
	if len(b.pending) > 0 {
		src = append(b.pending, p...)
	}

	for len(src) > 0 {
		nDst, nSrc, err := b.decoder.Transform(b.scratch[:], src, atEOF)
		b.consume(b.scratch[:nDst])
		src = src[nSrc:]

		if errors.Is(err, transform.ErrShortDst) && (nDst > 0 || nSrc > 0) {
			continue
		}
		break
	}

	if len(src) == 0 {
		b.pending = b.pending[:0]
		return
	}
	rest := make([]byte, len(src))
	copy(rest, src)
	b.pending = rest
}

// consume walks decoded, valid UTF-8 text.
func (b *Buffer) consume(text []byte) {
	for len(text) > 0 {
		r, size := utf8.DecodeRune(text)
		text = text[size:]

		switch r {
		case '\n':
			if b.afterCR {
				b.afterCR = false
				continue
			}
			b.flushLine()
		case '\r':
			b.flushLine()
			b.afterCR = true
			continue
		case '\u0085', '\u2028', '\u2029':
			b.flushLine()
		default:
			b.line.WriteRune(r)
		}
		b.afterCR = false
	}
}

func (b *Buffer) flushLine() {
	line := b.line.String()
	b.line.Reset()
	if b.emit != nil {
		b.emit(line)
	}
}

// Drain copies r into a new Buffer until EOF or a read error, then closes the
// buffer so the trailing partial line is delivered. It returns the read error,
// if any, other than EOF.
func Drain(r io.Reader, emit func(line string)) error {
	b := New(emit)
	_, err := io.Copy(b, r)
	b.Close()
	return err
}
