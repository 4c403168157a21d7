package input

import (
	"errors"
	"io"
	"unicode/utf8"

	"vitess.io/vitess/go/bytes2"
)

var (
	// ErrUnsupported is returned by Skip and Seek: arbitrary repositioning
	// would invalidate the lookahead state.
	ErrUnsupported = errors.New("input: operation not supported by lookahead reader")

	// ErrNotReady is returned by ReadBlock when not even the initial
	// lookahead can be filled without blocking.
	ErrNotReady = errors.New("input: source not ready")

	// ErrNothingRead is returned by ReadAgain before the first Read.
	ErrNothingRead = errors.New("input: no character has been read")
)

// slot is the state of a one-character register: never filled, filled
// with end-of-stream, or filled with a character.
type slot int

const (
	slotUnset slot = iota
	slotEOF
	slotChar
)

// Reader decorates a Source with one character of lookahead, a
// last-character register and a line counter. Peek always returns
// exactly what the next Read will return, and ReadAgain returns the
// character Read handed out last, so a tokenizer can look ahead one
// character and reconsider the character it just consumed.
//
// A Reader is not safe for concurrent use; one logical owner drives it.
type Reader struct {
	src Source

	look   slot
	ch     rune
	last   slot
	lastCh rune

	lines int
	line  *bytes2.Buffer
}

func NewReader(src Source) *Reader {
	// do not fetch the first character here, that could block
	return &Reader{
		src:  src,
		line: bytes2.NewBuffer(make([]byte, 0, 1024)),
	}
}

// fill fetches the next character from the source into the lookahead
// slot. May block.
func (r *Reader) fill() error {
	ch, err := r.src.ReadChar()
	if err != nil {
		if err == io.EOF {
			r.look = slotEOF
			return nil
		}
		r.look = slotUnset
		return err
	}
	r.look = slotChar
	r.ch = ch
	return nil
}

// Read consumes and returns the next character, or io.EOF at the end
// of the stream. The lookahead is refilled only if the source is ready,
// so the call blocks at most once, to establish the initial lookahead.
func (r *Reader) Read() (rune, error) {
	if r.look == slotUnset {
		if err := r.fill(); err != nil {
			return 0, err
		}
	}
	out, outCh := r.look, r.ch
	r.last, r.lastCh = out, outCh
	if r.src.Ready() {
		if err := r.fill(); err != nil {
			return 0, err
		}
	} else {
		r.look = slotUnset
	}
	if out == slotEOF {
		return 0, io.EOF
	}
	if outCh == '\n' {
		r.lines++
	}
	return outCh, nil
}

// ReadAgain returns the last character handed out by Read, without any
// I/O or state change. Returns io.EOF if the last result was the end of
// the stream and ErrNothingRead before the first Read.
func (r *Reader) ReadAgain() (rune, error) {
	switch r.last {
	case slotChar:
		return r.lastCh, nil
	case slotEOF:
		return 0, io.EOF
	}
	return 0, ErrNothingRead
}

// ReadBlock transfers characters into p for as long as capacity remains
// and the source keeps reporting ready, never blocking inside the loop.
// It returns ErrNotReady when the initial lookahead cannot be filled
// without blocking, io.EOF when the stream has ended, and otherwise the
// number of characters transferred.
func (r *Reader) ReadBlock(p []rune) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if r.look == slotUnset {
		if !r.src.Ready() {
			return 0, ErrNotReady
		}
		if err := r.fill(); err != nil {
			return 0, err
		}
	}
	if r.look == slotEOF {
		return 0, io.EOF
	}
	n := 0
	for n < len(p) && r.src.Ready() {
		if r.look == slotEOF {
			return n, nil
		}
		p[n] = r.ch
		if r.ch == '\n' {
			r.lines++
		}
		r.last, r.lastCh = slotChar, r.ch
		n++
		if err := r.fill(); err != nil {
			return n, err
		}
	}
	return n, nil
}

// ReadLine returns the next logical line without its terminator, or
// io.EOF at the end of the stream. An empty line between two terminators
// is ("", nil). A final line without a terminator is returned as-is and
// still counted: the end of input stands in for the terminator.
func (r *Reader) ReadLine() (string, error) {
	if r.look == slotUnset {
		if err := r.fill(); err != nil {
			return "", err
		}
	}
	r.line.Reset()
	if r.look == slotEOF {
		return "", io.EOF
	}
	first := r.ch
	if first == '\n' || first == '\r' {
		r.last, r.lastCh = slotChar, first
		if err := r.fill(); err != nil {
			return "", err
		}
		if first == '\r' && r.look == slotChar && r.ch == '\n' {
			r.last, r.lastCh = slotChar, r.ch
			if err := r.fill(); err != nil {
				return "", err
			}
		}
		r.lines++
		return r.line.String(), nil
	}
	appendRune(r.line, first)
	rest, err := r.src.ReadRawLine()
	if err != nil && err != io.EOF {
		return "", err
	}
	r.last, r.lastCh = slotChar, first
	if ferr := r.fill(); ferr != nil {
		return "", ferr
	}
	if err == nil {
		r.line.WriteString(rest)
	}
	r.lines++
	return r.line.String(), nil
}

// Peek returns the next character without consuming it, filling the
// lookahead (blocking if necessary) on first use. Idempotent: the next
// Read returns exactly this value.
func (r *Reader) Peek() (rune, error) {
	if r.look == slotUnset {
		if err := r.fill(); err != nil {
			return 0, err
		}
	}
	if r.look == slotEOF {
		return 0, io.EOF
	}
	return r.ch, nil
}

// LineCount returns the number of line terminators consumed so far.
// Read and ReadBlock count '\n'; ReadLine counts each logical
// terminator ("\n", "\r" or "\r\n") once.
func (r *Reader) LineCount() int {
	return r.lines
}

// Consumed returns the number of bytes of input handed out to the
// caller so far. A character waiting in the lookahead slot has been
// fetched from the source but not consumed, so it is not counted;
// resume offsets taken from Consumed land on the first byte the
// caller has not seen.
func (r *Reader) Consumed() int64 {
	pos := r.src.Pos()
	if r.look == slotChar {
		pos -= int64(utf8.RuneLen(r.ch))
	}
	return pos
}

// Skip is unsupported.
func (r *Reader) Skip(n int64) (int64, error) {
	return 0, ErrUnsupported
}

// Seek is unsupported: the lookahead makes repositioning unsound.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	return 0, ErrUnsupported
}
