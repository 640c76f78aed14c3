package llm

import (
	"testing"

	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/model"
)

func TestToQuestionsCarriesAndCleansFields(t *testing.T) {
	drafts := []model.QuestionDraft{
		{
			Topic:    "  Hàm số ",
			Body:     " Hàm số y = x ",
			ImageURL: "https://drive.google.com/file/d/abc123/view",
			OptionA:  " 1 ",
			OptionB:  "2",
			OptionC:  "3",
			OptionD:  "4",
			Correct:  "c.",
			Hint:     " xét dấu ",
			Solution: "y' > 0",
		},
		{Body: "   "},
	}
	def := Defaults{Grade: "12", Topic: "Mặc định", Lesson: "Đơn điệu", Difficulty: "Biết"}
	qs := ToQuestions(drafts, "ai", def, genNow)
	if len(qs) != 1 {
		t.Fatalf("expected 1 question, got %d", len(qs))
	}
	q := qs[0]
	if q.ID != "ai-1700000000000-0" {
		t.Errorf("id = %q", q.ID)
	}
	if q.Body != "Hàm số y = x" {
		t.Errorf("body = %q", q.Body)
	}
	if q.Grade != "12" || q.Topic != "Hàm số" || q.Lesson != "Đơn điệu" || q.Difficulty != "Biết" {
		t.Errorf("unexpected classification %+v", q)
	}
	if q.OptionA != "1" || q.OptionD != "4" {
		t.Errorf("options A=%q D=%q", q.OptionA, q.OptionD)
	}
	if q.Correct != model.AnswerC {
		t.Errorf("correct = %q", q.Correct)
	}
	if q.Hint != "xét dấu" || q.Solution != "y' > 0" {
		t.Errorf("hint %q solution %q", q.Hint, q.Solution)
	}
	if q.ImageURL != model.DisplayImageURL(drafts[0].ImageURL) {
		t.Errorf("image = %q", q.ImageURL)
	}
}
