package csvimport

import (
	"reflect"
	"testing"
)

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		name string
		text string
		want rune
	}{
		{"comma", "a,b,c\n1;2;3;4;5", ','},
		{"tab", "a\tb\tc,d", '\t'},
		{"semicolon", "a;b;c,d", ';'},
		{"tie tab comma", "a\tb,c", ','},
		{"tie semicolon comma", "a;b,c", ','},
		{"skips blank lines", "\n\n  \na;b;c\n", ';'},
		{"empty", "", ','},
		{"no separators", "abc", ','},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectDelimiter(tt.text); got != tt.want {
				t.Errorf("DetectDelimiter(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestSplitLine(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		delim rune
		want  []string
	}{
		{"quoted delimiter", `a,"b,c",d`, ',', []string{"a", "b,c", "d"}},
		{"doubled quotes", `"a""b"`, ',', []string{`a"b`}},
		{"trims", ` a , b ,c `, ',', []string{"a", "b", "c"}},
		{"empty fields", "a,,", ',', []string{"a", "", ""}},
		{"tab", "x\ty, z", '\t', []string{"x", "y, z"}},
		{"escaped empty string", `"{""k"":""""}"`, ',', []string{`{"k":""}`}},
		{"empty line", "", ',', []string{""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitLine(tt.line, tt.delim)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitLine(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestRecords(t *testing.T) {
	text := "\ufeffa,b\r\n\r\n  \n1,2\n"
	rows := records(text)
	want := [][]string{{"a", "b"}, {"1", "2"}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("records = %q, want %q", rows, want)
	}
	if got := records("   \n\n"); len(got) != 0 {
		t.Errorf("expected no rows for blank text, got %d", len(got))
	}
}

func TestFindColumn(t *testing.T) {
	header := []string{"STT", " Lớp ", "CHỦ ĐỀ", "Câu hỏi"}
	tests := []struct {
		name     string
		keywords []string
		want     int
		found    bool
	}{
		{"case and space insensitive", []string{"lớp"}, 1, true},
		{"upper case header", []string{"chủ đề"}, 2, true},
		{"first matching keyword wins by column", []string{"câu hỏi", "lớp"}, 1, true},
		{"missing", []string{"gợi ý"}, -1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindColumn(header, tt.keywords)
			if got != tt.want || ok != tt.found {
				t.Errorf("FindColumn(%v) = (%d, %v), want (%d, %v)", tt.keywords, got, ok, tt.want, tt.found)
			}
		})
	}
}

func TestFindColumnNormalizesDecomposedHeader(t *testing.T) {
	header := []string{"Ma\u0303", "Lo\u031b\u0301p"}
	if i, ok := FindColumn(header, []string{"lớp"}); !ok || i != 1 {
		t.Errorf("expected decomposed header to match at 1, got (%d, %v)", i, ok)
	}
}
