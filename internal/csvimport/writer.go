package csvimport

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/model"
)

// ExamHeader is the header row written by WriteExams.
var ExamHeader = []string{"ID", "Tên kỳ thi", "Ngày thi", "Thời gian (phút)", "Số đề", "Cấu trúc JSON", "Trạng thái"}

// QuestionHeader is the optional header row written by QuestionsTSV.
var QuestionHeader = []string{
	"Lớp", "Chủ đề", "Bài", "Mức độ", "Câu hỏi", "Link ảnh",
	"Đáp án A", "Đáp án B", "Đáp án C", "Đáp án D", "Đáp án đúng", "Gợi ý", "Lời giải",
}

const defaultTSVLevel = "Hiểu"

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// WriteExams writes exam summaries as CSV. The structure cell carries the
// frozen question list when present, otherwise the sections, so that the
// file imports back into the same exams.
func WriteExams(w io.Writer, exams []model.ExamConfig) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExamHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, e := range exams {
		structure, err := structureCell(e)
		if err != nil {
			return fmt.Errorf("encode structure of %s: %w", e.ID, err)
		}
		rec := []string{
			lineBreaks.Replace(e.ID),
			lineBreaks.Replace(e.Title),
			e.Date,
			strconv.Itoa(e.Duration),
			strconv.Itoa(e.Variants),
			structure,
			"Open",
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write exam %s: %w", e.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func structureCell(e model.ExamConfig) (string, error) {
	var v any = []model.ExamSection{}
	switch {
	case len(e.SpecificQuestions) > 0:
		v = e.SpecificQuestions
	case len(e.Sections) > 0:
		v = e.Sections
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// QuestionsTSV renders questions as 13 tab-separated columns, one per
// line, in the order the question parser expects without a header.
func QuestionsTSV(qs []model.Question, withHeader bool) string {
	var sb strings.Builder
	if withHeader {
		sb.WriteString(strings.Join(QuestionHeader, "\t"))
		sb.WriteByte('\n')
	}
	clean := func(s string) string {
		return strings.ReplaceAll(lineBreaks.Replace(s), "\t", " ")
	}
	for _, q := range qs {
		level := q.Difficulty
		if level == "" {
			level = defaultTSVLevel
		}
		cols := []string{
			q.Grade, q.Topic, q.Lesson, level, q.Body, q.ImageURL,
			q.OptionA, q.OptionB, q.OptionC, q.OptionD, string(q.Correct), q.Hint, q.Solution,
		}
		for i, c := range cols {
			cols[i] = clean(c)
		}
		sb.WriteString(strings.Join(cols, "\t"))
		sb.WriteByte('\n')
	}
	return sb.String()
}
