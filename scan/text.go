package scan

import (
	"fmt"
	"path/filepath"
	"unicode/utf8"

	"textscan/input"
)

// Summary accumulates per-file line statistics.
type Summary struct {
	Lines    int
	Blank    int
	Comments int
	Runes    int
	Longest  int
}

// Text scans plain delimited-text files one logical line per call,
// skipping comment lines.
type Text struct {
	fileName string
	comment  rune
	notifier Notifier
	summary  Summary
}

func NewText(logFile string, comment rune, notifier Notifier) *Text {
	fileName := filepath.Base(logFile)
	return &Text{fileName: fileName, comment: comment, notifier: notifier}
}

func (m *Text) Process(r *input.Reader) error {
	ch, err := r.Peek()
	if err != nil {
		return err
	}
	if m.comment != 0 && ch == m.comment {
		if _, err := r.ReadLine(); err != nil {
			return err
		}
		m.summary.Comments++
		m.summary.Lines = r.LineCount()
		return nil
	}
	line, err := r.ReadLine()
	if err != nil {
		return err
	}
	if line == "" {
		m.summary.Blank++
	}
	n := utf8.RuneCountInString(line)
	m.summary.Runes += n
	if n > m.summary.Longest {
		m.summary.Longest = n
	}
	m.summary.Lines = r.LineCount()
	return nil
}

func (m *Text) Summary() Summary {
	return m.summary
}

// Flush reports the accumulated summary once the reader has caught up
// with the file.
func (m *Text) Flush() error {
	log.Infof("%s: %d lines (%d blank, %d comments), %d runes, longest %d",
		m.fileName, m.summary.Lines, m.summary.Blank, m.summary.Comments,
		m.summary.Runes, m.summary.Longest)
	if m.notifier == nil {
		return nil
	}
	text := fmt.Sprintf("lines=%d blank=%d comments=%d runes=%d longest=%d",
		m.summary.Lines, m.summary.Blank, m.summary.Comments,
		m.summary.Runes, m.summary.Longest)
	return m.notifier.Send(m.fileName, text)
}
