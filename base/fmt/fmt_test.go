package fmt_test

import (
	"testing"

	gxfmt "github.com/gx-org/texpr/base/fmt"
)

func TestIndent(t *testing.T) {
	tests := []struct {
		txt  string
		want string
	}{
		{txt: "", want: ""},
		{txt: "Hello", want: "\tHello"},
		{txt: "Hello\nWorld", want: "\tHello\n\tWorld"},
		{txt: "{\n\tx\n}", want: "\t{\n\t\tx\n\t}"},
	}
	for i, test := range tests {
		got := gxfmt.Indent(test.txt)
		if got != test.want {
			t.Errorf("test %d: Indent(%q) = %q, want %q", i, test.txt, got, test.want)
		}
	}
}

func TestIndentSkip(t *testing.T) {
	tests := []struct {
		skip int
		txt  string
		want string
	}{
		{skip: 1, txt: "head\nbody", want: "head\n\tbody"},
		{skip: 1, txt: "head", want: "head"},
		{skip: 2, txt: "a\nb\nc", want: "a\nb\n\tc"},
	}
	for i, test := range tests {
		got := gxfmt.IndentSkip(test.skip, test.txt)
		if got != test.want {
			t.Errorf("test %d: IndentSkip(%d, %q) = %q, want %q", i, test.skip, test.txt, got, test.want)
		}
	}
}
