package bank

import (
	"context"
	"log/slog"
	"time"

	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/model"
)

const seededKey = "seeded"

// SeedIfEmpty loads the sample bank, exam and accounts the first time the
// application starts on an empty database. It reports whether it seeded.
func (b *Bank) SeedIfEmpty(ctx context.Context) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	done, err := b.store.GetMetadata(ctx, seededKey)
	if err != nil {
		return false, err
	}
	if done != "" {
		return false, nil
	}
	snap, err := b.store.LoadSnapshot(ctx)
	if err != nil {
		return false, err
	}
	empty := len(snap.ReviewQuestions) == 0 && len(snap.ExamQuestions) == 0 &&
		len(snap.Exams) == 0 && len(snap.Accounts) == 0
	if empty {
		snap = SampleData(b.now())
		if err := b.store.SaveSnapshot(ctx, snap); err != nil {
			return false, err
		}
		slog.Info("seeded sample data", "questions", len(snap.ReviewQuestions), "exams", len(snap.Exams), "students", len(snap.Accounts))
	}
	if err := b.store.SetMetadata(ctx, seededKey, "1"); err != nil {
		return false, err
	}
	return empty, nil
}

// SampleData is a small bank, one ready-made exam and two student accounts.
func SampleData(now time.Time) model.Snapshot {
	questions := []model.Question{
		{
			ID:         "q-001",
			Grade:      "12",
			Topic:      "Hàm số",
			Lesson:     "Cực trị",
			Difficulty: "Biết",
			Body:       "Cho hàm số $y = f(x)$ có bảng biến thiên như sau. Hàm số đạt cực đại tại điểm nào?",
			ImageURL:   "https://i.imgur.com/Kj7Xy8q.png",
			OptionA:    "x = 1",
			OptionB:    "x = 2",
			OptionC:    "x = 3",
			OptionD:    "x = 0",
			Correct:    model.AnswerA,
			Hint:       "Nhìn vào bảng biến thiên, điểm cực đại là nơi y' đổi dấu từ dương sang âm.",
			Solution:   "Dựa vào bảng biến thiên, hàm số đạt cực đại tại $x = 1$.",
		},
		{
			ID:         "q-002",
			Grade:      "12",
			Topic:      "Hàm số",
			Lesson:     "Đơn điệu",
			Difficulty: "Hiểu",
			Body:       "Hàm số $y = x^3 - 3x + 1$ nghịch biến trên khoảng nào?",
			OptionA:    "$(0; 2)$",
			OptionB:    "$(-1; 1)$",
			OptionC:    `$(-\infty; -1)$`,
			OptionD:    `$(1; +\infty)$`,
			Correct:    model.AnswerB,
			Hint:       "Tính đạo hàm $y'$ và tìm nghiệm của $y' < 0$.",
			Solution:   `$y' = 3x^2 - 3$. Cho $y' < 0 \Leftrightarrow x^2 - 1 < 0 \Leftrightarrow -1 < x < 1$.`,
		},
		{
			ID:         "q-003",
			Grade:      "12",
			Topic:      "Mũ - Logarit",
			Lesson:     "Logarit",
			Difficulty: "Vận dụng",
			Body:       `Giải phương trình $\log_2(x-1) = 3$.`,
			OptionA:    "x = 9",
			OptionB:    "x = 7",
			OptionC:    "x = 8",
			OptionD:    "x = 10",
			Correct:    model.AnswerA,
			Hint:       `Sử dụng định nghĩa logarit: $\log_a b = c \Rightarrow b = a^c$.`,
			Solution:   `Điều kiện $x > 1$. Phương trình $\Leftrightarrow x - 1 = 2^3 \Leftrightarrow x - 1 = 8 \Leftrightarrow x = 9$.`,
		},
	}
	frozen := []model.Question{questions[0], questions[1]}

	return model.Snapshot{
		ReviewQuestions: questions,
		ExamQuestions:   append([]model.Question(nil), questions...),
		Exams: []model.ExamConfig{{
			ID:                "exam-demo-01",
			Title:             "Kiểm tra 15 phút - Hàm số",
			Date:              now.Format(time.DateOnly),
			Duration:          15,
			Variants:          1,
			TargetClass:       "12",
			Sections:          []model.ExamSection{},
			SpecificQuestions: frozen,
			QuestionCount:     len(frozen),
			ShuffleQuestions:  true,
			ShuffleAnswers:    true,
			AllowReview:       true,
			CreatedAt:         now.UnixMilli(),
		}},
		Accounts: []model.StudentAccount{
			{ID: "hs01", Password: "123", Name: "Nguyễn Văn A", Class: "12A1"},
			{ID: "hs02", Password: "123", Name: "Trần Thị B", Class: "12A2"},
		},
		Submissions: []model.StudentSubmission{},
		Curriculum:  []model.CurriculumItem{},
	}
}
