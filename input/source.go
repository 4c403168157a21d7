package input

import (
	"bufio"
	"io"
	"unicode/utf8"

	"vitess.io/vitess/go/bytes2"
)

// Source is the capability set the lookahead Reader needs from an
// underlying character stream. Encoding and stream lifecycle stay with
// the implementation.
type Source interface {
	// Ready reports whether the next ReadChar is guaranteed not to block.
	Ready() bool
	// ReadChar returns the next character, blocking if necessary.
	// io.EOF marks the end of the stream.
	ReadChar() (rune, error)
	// ReadRawLine consumes the rest of the current line including its
	// terminator and returns the content without the terminator. It
	// returns io.EOF only when the stream ends before any character is
	// read; an unterminated final line comes back with a nil error.
	ReadRawLine() (string, error)
	// Pos returns the number of bytes consumed from the stream,
	// including terminators ReadRawLine swallowed.
	Pos() int64
}

// BufferedSource adapts a bufio.Reader to the Source interface.
type BufferedSource struct {
	br   *bufio.Reader
	pos  int64
	line *bytes2.Buffer
}

func NewBufferedSource(rd io.Reader) *BufferedSource {
	return &BufferedSource{
		br:   bufio.NewReader(rd),
		line: bytes2.NewBuffer(make([]byte, 0, 1024)),
	}
}

// Ready reports whether buffered data remains. A rune split across a
// fill boundary can still block ReadChar; readiness is byte-granular.
func (s *BufferedSource) Ready() bool {
	return s.br.Buffered() > 0
}

func (s *BufferedSource) ReadChar() (rune, error) {
	ch, size, err := s.br.ReadRune()
	if err != nil {
		return 0, err
	}
	s.pos += int64(size)
	return ch, nil
}

func (s *BufferedSource) ReadRawLine() (string, error) {
	s.line.Reset()
	for {
		ch, size, err := s.br.ReadRune()
		if err != nil {
			if err == io.EOF && s.line.Len() > 0 {
				return s.line.String(), nil
			}
			return "", err
		}
		s.pos += int64(size)
		switch ch {
		case '\n':
			return s.line.String(), nil
		case '\r':
			// swallow the '\n' of a "\r\n" pair
			if next, nsize, err := s.br.ReadRune(); err == nil {
				if next == '\n' {
					s.pos += int64(nsize)
				} else {
					s.br.UnreadRune()
				}
			}
			return s.line.String(), nil
		}
		appendRune(s.line, ch)
	}
}

func (s *BufferedSource) Pos() int64 {
	return s.pos
}

func appendRune(buf *bytes2.Buffer, ch rune) {
	var enc [utf8.UTFMax]byte
	buf.Write(enc[:utf8.EncodeRune(enc[:], ch)])
}
