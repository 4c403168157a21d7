package scan

import (
	"encoding/json"
	"path/filepath"

	"textscan/input"
)

// JSONL scans structured logs with one JSON object per line and
// forwards error-level entries to the notifier.
type JSONL struct {
	fileName  string
	notifier  Notifier
	malformed int
}

func NewJSONL(logFile string, notifier Notifier) *JSONL {
	fileName := filepath.Base(logFile)
	return &JSONL{fileName: fileName, notifier: notifier}
}

func (m *JSONL) Process(r *input.Reader) error {
	line, err := r.ReadLine()
	if err != nil {
		return err
	}
	if line == "" {
		return nil
	}
	var entry struct {
		Level string `json:"level"`
	}
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		m.malformed++
		if first, lerr := r.ReadAgain(); lerr == nil {
			log.Warningf("%s: line %d starting with %q is not JSON: %v",
				m.fileName, r.LineCount(), first, err)
		}
		return nil
	}
	if entry.Level == "error" {
		return m.notifier.Send(m.fileName, line)
	}
	return nil
}

func (m *JSONL) Malformed() int {
	return m.malformed
}
