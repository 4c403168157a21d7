package scan

import (
	"fmt"

	"github.com/op/go-logging"

	"textscan/input"
)

var log = logging.MustGetLogger("scan")

// Notifier delivers a report about a scanned file.
type Notifier interface {
	Send(title, text string) error
}

// Processor consumes one unit of input per call. io.EOF means the
// reader is caught up with the file, not a failure.
type Processor interface {
	Process(r *input.Reader) error
}

// New builds the processor for a configured scanner type. comment is
// the line marker for text scanners; its first rune is used, an empty
// string disables comment handling.
func New(typ, file, comment string, notifier Notifier) (Processor, error) {
	switch typ {
	case "text":
		var marker rune
		for _, ch := range comment {
			marker = ch
			break
		}
		return NewText(file, marker, notifier), nil
	case "jsonl":
		return NewJSONL(file, notifier), nil
	}
	return nil, fmt.Errorf("invalid scanner type: %s", typ)
}
