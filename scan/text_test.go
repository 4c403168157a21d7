package scan

import (
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"textscan/input"
)

type fakeNotifier struct {
	titles []string
	texts  []string
	err    error
}

func (f *fakeNotifier) Send(title, text string) error {
	if f.err != nil {
		return f.err
	}
	f.titles = append(f.titles, title)
	f.texts = append(f.texts, text)
	return nil
}

func drain(t *testing.T, p Processor, r *input.Reader) {
	t.Helper()
	for {
		err := p.Process(r)
		if err == io.EOF {
			return
		}
		if err != nil {
			t.Fatalf("Process() error = %v", err)
		}
	}
}

func TestText_Process(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Summary
	}{
		{
			"comments and blanks",
			"# header\na,b,c\n\nd,e,f",
			Summary{Lines: 4, Blank: 1, Comments: 1, Runes: 10, Longest: 5},
		},
		{
			"dos terminators",
			"x\r\ny\r\n",
			Summary{Lines: 2, Runes: 2, Longest: 1},
		},
		{
			"empty file",
			"",
			Summary{},
		},
		{
			"comment only",
			"#a\n#b\n",
			Summary{Lines: 2, Comments: 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewText("sample.csv", '#', nil)
			r := input.NewReader(input.NewBufferedSource(strings.NewReader(tt.in)))
			drain(t, p, r)
			if diff := cmp.Diff(tt.want, p.Summary()); diff != "" {
				t.Errorf("Summary mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestText_Flush(t *testing.T) {
	n := &fakeNotifier{}
	p := NewText("/var/data/sample.csv", '#', n)
	r := input.NewReader(input.NewBufferedSource(strings.NewReader("a\nbb\n")))
	drain(t, p, r)
	if err := p.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if len(n.titles) != 1 || n.titles[0] != "sample.csv" {
		t.Errorf("notifier titles = %v, want [sample.csv]", n.titles)
	}
	want := "lines=2 blank=0 comments=0 runes=3 longest=2"
	if len(n.texts) != 1 || n.texts[0] != want {
		t.Errorf("notifier texts = %v, want [%s]", n.texts, want)
	}
}
