package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(""); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return WithLocalizer(context.Background(), NewLocalizer(lang))
}

func TestTranslateVietnamese(t *testing.T) {
	ctx := initLang(t, "vi")

	if got := T(ctx, "MissingTitle"); got != "Vui lòng nhập tên kỳ thi!" {
		t.Errorf("T(MissingTitle) = %q", got)
	}
	if got := T(ctx, "NoExamQuestions"); got != "Đề thi này không có dữ liệu câu hỏi." {
		t.Errorf("T(NoExamQuestions) = %q", got)
	}
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	if got := T(ctx, "MissingTitle"); got != "Please enter the exam title!" {
		t.Errorf("T(MissingTitle) = %q", got)
	}
}

func TestUnknownLanguageFallsBackToDefault(t *testing.T) {
	ctx := initLang(t, "ru")

	if got := T(ctx, "MissingTopic"); got != "Nhập chủ đề!" {
		t.Errorf("T(MissingTopic) = %q, want Vietnamese fallback", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")
	if got := Tp(ctx, "RowsImported", 1); got != "Imported 1 row." {
		t.Errorf("Tp(RowsImported, 1) = %q", got)
	}
	if got := Tp(ctx, "RowsImported", 5); got != "Imported 5 rows." {
		t.Errorf("Tp(RowsImported, 5) = %q", got)
	}

	ctx = initLang(t, "vi")
	if got := Tp(ctx, "ExamCreated", 3); got != "Đã tạo bài thi thành công! (3 câu)" {
		t.Errorf("Tp(ExamCreated, 3) = %q", got)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	if got := Td(ctx, "AIFailed", map[string]any{"Detail": "quota"}); got != "AI error: quota" {
		t.Errorf("Td(AIFailed) = %q", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	if got := T(ctx, "NonExistentKey"); got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want the ID back", got)
	}
}

func TestLanguages(t *testing.T) {
	initLang(t, "vi")
	langs := Languages()
	if !slices.Contains(langs, "vi") || !slices.Contains(langs, "en") {
		t.Errorf("Languages() = %v", langs)
	}
}

func TestInitRejectsBadTag(t *testing.T) {
	if err := Init("not a language!"); err == nil {
		t.Error("expected error for malformed tag")
	}
	if err := Init(DefaultLanguage); err != nil {
		t.Fatal(err)
	}
}

func TestMiddlewarePicksLanguage(t *testing.T) {
	if err := Init("vi"); err != nil {
		t.Fatal(err)
	}
	var got string
	h := Middleware("vi")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "NotFound")
	}))

	tests := []struct {
		name   string
		target string
		accept string
		want   string
	}{
		{"default", "/", "", "Không tìm thấy dữ liệu."},
		{"header", "/", "en-US,en;q=0.9", "Not found."},
		{"query wins", "/?lang=vi", "en", "Không tìm thấy dữ liệu."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
