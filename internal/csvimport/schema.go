package csvimport

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/textnorm"
)

// Field names a semantic column of an import file.
type Field string

const (
	FieldGrade     Field = "grade"
	FieldTopic     Field = "topic"
	FieldLesson    Field = "lesson"
	FieldLevel     Field = "level"
	FieldBody      Field = "body"
	FieldImage     Field = "image"
	FieldOptionA   Field = "option_a"
	FieldOptionB   Field = "option_b"
	FieldOptionC   Field = "option_c"
	FieldOptionD   Field = "option_d"
	FieldCorrect   Field = "correct"
	FieldHint      Field = "hint"
	FieldSolution  Field = "solution"
	FieldID        Field = "id"
	FieldPassword  Field = "password"
	FieldName      Field = "name"
	FieldClass     Field = "class"
	FieldTitle     Field = "title"
	FieldDate      Field = "date"
	FieldDuration  Field = "duration"
	FieldVariants  Field = "variants"
	FieldStructure Field = "structure"
	FieldStatus    Field = "status"
)

// MatchMode controls how a header cell is compared with a keyword.
type MatchMode int

const (
	// MatchContains accepts a cell that contains the keyword anywhere.
	MatchContains MatchMode = iota
	// MatchWord accepts a cell equal to the keyword, or starting or ending
	// with it as a separate word.
	MatchWord
)

// Column describes how one field is located in a header row.
type Column struct {
	Field    Field
	Default  int
	Keywords []string
	Match    MatchMode

	// Require lists keyword groups that must all occur in the same cell.
	// A cell satisfying it is preferred over a plain Keywords match.
	Require [][]string
	// Exclude names a field whose header-matched column may not be claimed
	// again through the Keywords fallback.
	Exclude Field
}

// Schema is the keyword table for one import shape.
type Schema struct {
	// Scan is how many leading lines may hold the header row.
	Scan int
	// Header lists field groups; a row is the header when every group has
	// at least one field matching some cell.
	Header  [][]Field
	Columns []Column
}

// Mapping resolves fields to column indices. -1 means absent.
type Mapping map[Field]int

// Index returns the column for f, or -1.
func (m Mapping) Index(f Field) int {
	if i, ok := m[f]; ok {
		return i
	}
	return -1
}

// FindColumn returns the index of the first header cell that contains any
// of the keywords, compared after trimming, lower-casing and NFC.
func FindColumn(header []string, keywords []string) (int, bool) {
	return findColumn(foldAll(header), Column{Keywords: keywords})
}

func findColumn(folded []string, col Column) (int, bool) {
	for i, c := range folded {
		if cellMatches(c, col.Keywords, col.Match) {
			return i, true
		}
	}
	return -1, false
}

func findRequired(folded []string, groups [][]string) (int, bool) {
	for i, c := range folded {
		ok := true
		for _, g := range groups {
			if !cellMatches(c, g, MatchContains) {
				ok = false
				break
			}
		}
		if ok {
			return i, true
		}
	}
	return -1, false
}

func cellMatches(folded string, keywords []string, mode MatchMode) bool {
	for _, kw := range keywords {
		k := textnorm.Fold(kw)
		if k == "" {
			continue
		}
		switch mode {
		case MatchWord:
			if folded == k || strings.HasPrefix(folded, k+" ") || strings.HasSuffix(folded, " "+k) {
				return true
			}
		default:
			if strings.Contains(folded, k) {
				return true
			}
		}
	}
	return false
}

func foldAll(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = textnorm.Fold(c)
	}
	return out
}

func (s *Schema) column(f Field) (Column, bool) {
	for _, c := range s.Columns {
		if c.Field == f {
			return c, true
		}
	}
	return Column{}, false
}

// isHeader reports whether the row satisfies every header group.
func (s *Schema) isHeader(folded []string) bool {
	if len(s.Header) == 0 {
		return false
	}
	for _, group := range s.Header {
		matched := false
		for _, f := range group {
			col, ok := s.column(f)
			if !ok {
				continue
			}
			if _, found := findColumn(folded, col); found {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// DetectHeader returns the index of the header row within the first Scan
// rows.
func (s *Schema) DetectHeader(rows [][]string) (int, bool) {
	limit := min(s.Scan, len(rows))
	for i := 0; i < limit; i++ {
		if s.isHeader(foldAll(rows[i])) {
			return i, true
		}
	}
	return -1, false
}

// Defaults is the mapping used when no header row is found.
func (s *Schema) Defaults() Mapping {
	m := make(Mapping, len(s.Columns))
	for _, c := range s.Columns {
		m[c.Field] = c.Default
	}
	return m
}

// Map resolves every column against a header row. Fields that cannot be
// found keep their default index.
func (s *Schema) Map(header []string) Mapping {
	folded := foldAll(header)
	m := s.Defaults()
	found := make(map[Field]bool, len(s.Columns))
	for _, c := range s.Columns {
		if len(c.Require) > 0 {
			if i, ok := findRequired(folded, c.Require); ok {
				m[c.Field] = i
				found[c.Field] = true
				continue
			}
		}
		i, ok := findColumn(folded, c)
		if !ok {
			continue
		}
		// Only a column the excluded field matched by keyword is taken;
		// its default position is free.
		if c.Exclude != "" && found[c.Exclude] && i == m.Index(c.Exclude) {
			continue
		}
		m[c.Field] = i
		found[c.Field] = true
	}
	return m
}

// resolve finds the header and returns the mapping together with the
// index of the first data row.
func (s *Schema) resolve(rows [][]string) (Mapping, int, bool) {
	if i, ok := s.DetectHeader(rows); ok {
		return s.Map(rows[i]), i + 1, true
	}
	return s.Defaults(), 0, false
}

func (s *Schema) clone() *Schema {
	out := &Schema{Scan: s.Scan, Header: s.Header, Columns: make([]Column, len(s.Columns))}
	for i, c := range s.Columns {
		c.Keywords = slices.Clone(c.Keywords)
		out.Columns[i] = c
	}
	return out
}

// extend appends extra keywords to the named fields.
func (s *Schema) extend(extra map[Field][]string) error {
	for f, kws := range extra {
		found := false
		for i := range s.Columns {
			if s.Columns[i].Field == f {
				s.Columns[i].Keywords = append(s.Columns[i].Keywords, kws...)
				found = true
			}
		}
		if !found {
			return fmt.Errorf("unknown field %q", f)
		}
	}
	return nil
}

// Synonyms holds additional header keywords per shape and field.
type Synonyms struct {
	Questions  map[Field][]string `yaml:"questions"`
	Accounts   map[Field][]string `yaml:"accounts"`
	Exams      map[Field][]string `yaml:"exams"`
	Curriculum map[Field][]string `yaml:"curriculum"`
}

// LoadSynonyms reads extra header keywords from YAML, for example:
//
//	questions:
//	  grade: ["khối"]
//	accounts:
//	  password: ["pw"]
func LoadSynonyms(r io.Reader) (Synonyms, error) {
	var syn Synonyms
	if err := yaml.NewDecoder(r).Decode(&syn); err != nil && err != io.EOF {
		return Synonyms{}, fmt.Errorf("decode synonyms: %w", err)
	}
	return syn, nil
}

// QuestionSchema is the default keyword table for question banks.
func QuestionSchema() *Schema {
	return &Schema{
		Scan:   15,
		Header: [][]Field{{FieldBody, FieldCorrect, FieldGrade}},
		Columns: []Column{
			{Field: FieldGrade, Default: 0, Keywords: []string{"lớp", "lop", "class"}},
			{Field: FieldTopic, Default: 1, Keywords: []string{"chủ đề", "chu de", "topic", "chương"}},
			{Field: FieldLesson, Default: 2, Keywords: []string{"bài", "bai", "lesson", "tên bài"}},
			{Field: FieldLevel, Default: 3, Keywords: []string{"mức độ", "muc do", "level"}},
			{Field: FieldBody, Default: 4, Keywords: []string{"câu hỏi", "cau hoi", "question", "nội dung"}},
			{Field: FieldImage, Default: 5, Keywords: []string{"link ảnh", "link anh", "image", "hình"}},
			{Field: FieldOptionA, Default: 6, Keywords: []string{"đáp án a", "dap an a"}},
			{Field: FieldOptionB, Default: 7, Keywords: []string{"đáp án b", "dap an b"}},
			{Field: FieldOptionC, Default: 8, Keywords: []string{"đáp án c", "dap an c"}},
			{Field: FieldOptionD, Default: 9, Keywords: []string{"đáp án d", "dap an d"}},
			{
				Field:    FieldCorrect,
				Default:  10,
				Keywords: []string{"đáp án đúng", "dap an dung", "correct", "đáp án", "dap an"},
				Require:  [][]string{{"đáp án", "dap an"}, {"đúng", "dung"}},
				Exclude:  FieldOptionA,
			},
			{Field: FieldHint, Default: 11, Keywords: []string{"gợi ý", "goi y", "hint"}},
			{Field: FieldSolution, Default: 12, Keywords: []string{"lời giải", "loi giai", "solution", "chi tiết"}},
		},
	}
}

// AccountSchema is the default keyword table for student rosters.
func AccountSchema() *Schema {
	return &Schema{
		Scan:   10,
		Header: [][]Field{{FieldID}, {FieldPassword}},
		Columns: []Column{
			{Field: FieldID, Default: 0, Keywords: []string{"id", "mã", "user", "tài khoản", "account", "username", "ma hs"}},
			{Field: FieldPassword, Default: 1, Keywords: []string{"pass", "mật khẩu", "password", "mk", "mat khau"}},
			{Field: FieldName, Default: 2, Keywords: []string{"tên", "name", "họ tên", "ho ten", "fullname", "họ và tên"}},
			{Field: FieldClass, Default: 3, Keywords: []string{"lớp", "class", "lop", "grade", "khoi"}},
		},
	}
}

// ExamSchema is the default keyword table for exam summaries.
func ExamSchema() *Schema {
	return &Schema{
		Scan:   10,
		Header: [][]Field{{FieldTitle}, {FieldStructure}},
		Columns: []Column{
			{Field: FieldID, Default: 0, Keywords: []string{"id", "mã đề", "ma de"}},
			{Field: FieldTitle, Default: 1, Keywords: []string{"tên", "tiêu đề", "title"}},
			{Field: FieldDate, Default: 2, Keywords: []string{"ngày", "date"}},
			{Field: FieldDuration, Default: 3, Keywords: []string{"thời gian", "thoi gian", "duration", "phút"}},
			{Field: FieldVariants, Default: 4, Keywords: []string{"số đề", "so de", "variant", "biến thể"}},
			{Field: FieldStructure, Default: 5, Keywords: []string{"cấu trúc", "json", "structure"}},
			{Field: FieldStatus, Default: 6, Keywords: []string{"trạng thái", "trang thai", "status"}},
		},
	}
}

// CurriculumSchema is the default keyword table for the syllabus. Topic
// and lesson have no default column; a curriculum file needs a header.
func CurriculumSchema() *Schema {
	return &Schema{
		Scan:   15,
		Header: [][]Field{{FieldGrade}, {FieldTopic, FieldLesson}},
		Columns: []Column{
			{Field: FieldGrade, Default: -1, Keywords: []string{"lớp", "lop", "khối", "khoi", "grade", "class"}},
			{Field: FieldTopic, Default: -1, Keywords: []string{"chủ đề", "chu de", "chương", "chuong", "topic", "chapter", "chuyên đề"}},
			{
				Field:    FieldLesson,
				Default:  -1,
				Keywords: []string{"bài", "bai", "tên bài", "ten bai", "bài học", "lesson", "unit"},
				Match:    MatchWord,
			},
		},
	}
}
