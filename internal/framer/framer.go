package framer

import (
	"strings"
	"unicode/utf8"
)

// Framer reassembles a raw byte stream into newline-delimited messages.
// Bytes are decoded lossily: invalid UTF-8 bytes are replaced with U+FFFD
// instead of failing, so transient corruption on the line never stops the
// pipeline. Decoding happens per chunk; a rune split across two reads is
// replaced like any other invalid sequence.
//
// Feed drains every complete line currently in the pending buffer, so lines
// already received are never stuck waiting for the source to produce more
// bytes. The buffer only ever holds the unterminated tail of the next
// message.
type Framer struct {
	pending  string
	replaced int64
}

// Feed appends chunk to the pending buffer and returns all complete lines.
// Each returned line has the terminator removed and surrounding whitespace
// (including any carriage return) trimmed. A chunk without a newline
// returns nothing and leaves the bytes buffered.
func (f *Framer) Feed(chunk []byte) []string {
	if len(chunk) > 0 {
		f.pending += f.decode(chunk)
	}

	var lines []string
	for {
		i := strings.IndexByte(f.pending, '\n')
		if i < 0 {
			return lines
		}
		lines = append(lines, strings.TrimSpace(f.pending[:i]))
		f.pending = f.pending[i+1:]
	}
}

// Pending returns the buffered unterminated tail.
func (f *Framer) Pending() string {
	return f.pending
}

// Replaced returns the cumulative number of invalid bytes substituted with
// U+FFFD since the Framer was created.
func (f *Framer) Replaced() int64 {
	return f.replaced
}

func (f *Framer) decode(chunk []byte) string {
	if utf8.Valid(chunk) {
		return string(chunk)
	}
	var b strings.Builder
	b.Grow(len(chunk))
	for len(chunk) > 0 {
		r, size := utf8.DecodeRune(chunk)
		if r == utf8.RuneError && size == 1 {
			f.replaced++
		}
		b.WriteRune(r)
		chunk = chunk[size:]
	}
	return b.String()
}
