package scan

import (
	"io"
	"strings"
	"testing"

	"textscan/input"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		typ     string
		comment string
		wantErr bool
	}{
		{"text", "text", "#", false},
		{"text without comment marker", "text", "", false},
		{"jsonl", "jsonl", "", false},
		{"unknown type", "csv", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.typ, "/var/data/sample.csv", tt.comment, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			switch tt.typ {
			case "text":
				if _, ok := p.(*Text); !ok {
					t.Errorf("New() = %T, want *Text", p)
				}
			case "jsonl":
				if _, ok := p.(*JSONL); !ok {
					t.Errorf("New() = %T, want *JSONL", p)
				}
			}
		})
	}
}

func TestNew_textWithoutMarkerCountsNothingAsComment(t *testing.T) {
	p, err := New("text", "sample.csv", "", nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	r := input.NewReader(input.NewBufferedSource(strings.NewReader("# looks like one\n")))
	for {
		if err := p.Process(r); err == io.EOF {
			break
		} else if err != nil {
			t.Fatalf("Process() error = %v", err)
		}
	}
	if got := p.(*Text).Summary().Comments; got != 0 {
		t.Errorf("Comments = %d, want 0", got)
	}
}
