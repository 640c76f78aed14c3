package handler

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/assembler"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/auth"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/bank"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/docexport"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/i18n"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/llm"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/model"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/selector"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/store"
)

const adminPassword = "AdminPass1@"

const questionSheet = "Lớp,Chủ đề,Bài,Mức độ,Câu hỏi,Link ảnh,A,B,C,D,Đáp án đúng,Gợi ý,Lời giải\n" +
	"12,Hàm số,Cực trị,Biết,Câu một,,1,2,3,4,b,,Vì vậy\n" +
	"12,Hàm số,Cực trị,Hiểu,Câu hai,,1,2,3,4,C,,\n" +
	"12,Hàm số,Đơn điệu,Vận dụng,Câu ba,,1,2,3,4,A,,\n"

type testServer struct {
	t     *testing.T
	h     http.Handler
	mock  *llm.MockProvider
	admin string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	if err := i18n.Init("vi"); err != nil {
		t.Fatalf("i18n.Init: %v", err)
	}
	st, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	now := func() time.Time { return time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC) }
	b := bank.New(st, nil, assembler.New(nil, selector.NewRand(1), assembler.WithClock(now)), bank.WithClock(now))
	a, err := auth.New("test-secret", adminPassword)
	if err != nil {
		t.Fatalf("auth.New: %v", err)
	}
	mock := llm.NewMockProvider()
	gen := llm.NewGenerator(llm.Config{Provider: "mock"}, mock, llm.WithClock(now))

	h := New(b, a, gen, docexport.New(), Config{Lang: "vi", CORSOrigins: []string{"http://localhost:5173"}})
	ts := &testServer{t: t, h: h.Router(), mock: mock}
	ts.admin = ts.login("/api/login", map[string]string{"password": adminPassword})
	return ts
}

func (ts *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			ts.t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.h.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) login(path string, body any) string {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, path, "", body)
	if rec.Code != http.StatusOK {
		ts.t.Fatalf("login %s: status %d: %s", path, rec.Code, rec.Body)
	}
	var resp tokenResponse
	decode(ts.t, rec, &resp)
	return resp.Token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var e errorBody
	decode(t, rec, &e)
	return e.Error
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d: %s", rec.Code, want, rec.Body)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	expectStatus(t, ts.do(http.MethodGet, "/healthz", "", nil), http.StatusOK)
}

func TestAdminLogin(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/login", "", map[string]string{"password": "nope"})
	expectStatus(t, rec, http.StatusUnauthorized)
	if msg := errorMessage(t, rec); msg != "Sai mật khẩu!" {
		t.Errorf("message = %q", msg)
	}

	rec = ts.do(http.MethodPost, "/api/login", "", "{not json")
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)
	expectStatus(t, ts.do(http.MethodGet, "/api/state", "", nil), http.StatusUnauthorized)
	expectStatus(t, ts.do(http.MethodGet, "/api/state", "garbage", nil), http.StatusUnauthorized)
	expectStatus(t, ts.do(http.MethodGet, "/api/state", ts.admin, nil), http.StatusOK)
}

func TestImportAndPools(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/import/exam-questions", ts.admin, questionSheet)
	expectStatus(t, rec, http.StatusOK)
	var cr countResponse
	decode(t, rec, &cr)
	if cr.Count != 3 || cr.Message != "Đã nhập 3 dòng." {
		t.Errorf("unexpected import response %+v", cr)
	}

	rec = ts.do(http.MethodGet, "/api/pools/exam", ts.admin, nil)
	expectStatus(t, rec, http.StatusOK)
	var qs []model.Question
	decode(t, rec, &qs)
	if len(qs) != 3 || qs[0].Correct != model.AnswerB {
		t.Fatalf("unexpected pool %+v", qs)
	}

	expectStatus(t, ts.do(http.MethodDelete, "/api/pools/exam/"+qs[0].ID, ts.admin, nil), http.StatusNoContent)
	expectStatus(t, ts.do(http.MethodDelete, "/api/pools/exam/"+qs[0].ID, ts.admin, nil), http.StatusNotFound)
	expectStatus(t, ts.do(http.MethodGet, "/api/pools/archive", ts.admin, nil), http.StatusNotFound)
	expectStatus(t, ts.do(http.MethodPost, "/api/import/pictures", ts.admin, "x"), http.StatusNotFound)

	rec = ts.do(http.MethodPost, "/api/import/questions", ts.admin, "chỉ có một dòng rác")
	expectStatus(t, rec, http.StatusBadRequest)

	expectStatus(t, ts.do(http.MethodPut, "/api/pools/review", ts.admin, []model.Question{{ID: "r1", Body: "x"}}), http.StatusNoContent)
	rec = ts.do(http.MethodPost, "/api/pools/review", ts.admin, []model.Question{{ID: "r1", Body: "y"}})
	expectStatus(t, rec, http.StatusCreated)
	decode(t, rec, &qs)
	if len(qs) != 1 || qs[0].ID == "r1" {
		t.Errorf("expected re-keyed question, got %+v", qs)
	}
}

func TestPickersAndAvailable(t *testing.T) {
	ts := newTestServer(t)
	expectStatus(t, ts.do(http.MethodPost, "/api/import/exam-questions", ts.admin, questionSheet), http.StatusOK)

	rec := ts.do(http.MethodGet, "/api/pickers?grade=12&topic="+"H%C3%A0m%20s%E1%BB%91", ts.admin, nil)
	expectStatus(t, rec, http.StatusOK)
	var p bank.Pickers
	decode(t, rec, &p)
	if len(p.Lessons) != 2 {
		t.Errorf("expected two lessons, got %+v", p)
	}

	rec = ts.do(http.MethodPost, "/api/sections/available", ts.admin, model.ExamSection{Grade: "12", Topic: "Hàm số"})
	expectStatus(t, rec, http.StatusOK)
	var counts map[model.Level]int
	decode(t, rec, &counts)
	if counts[model.LevelRecall] != 1 || counts[model.LevelUnderstand] != 1 || counts[model.LevelApplication] != 1 {
		t.Errorf("unexpected counts %v", counts)
	}
}

func TestCreateExamAndExport(t *testing.T) {
	ts := newTestServer(t)
	expectStatus(t, ts.do(http.MethodPost, "/api/import/exam-questions", ts.admin, questionSheet), http.StatusOK)

	rec := ts.do(http.MethodPost, "/api/exams", ts.admin, map[string]any{
		"sections": []model.ExamSection{{Grade: "12", Topic: "Hàm số", CountRecall: 1}},
	})
	expectStatus(t, rec, http.StatusBadRequest)
	if msg := errorMessage(t, rec); msg != "Vui lòng nhập tên kỳ thi!" {
		t.Errorf("message = %q", msg)
	}

	rec = ts.do(http.MethodPost, "/api/exams", ts.admin, map[string]any{
		"title":    "Kiểm tra",
		"sections": []model.ExamSection{{Grade: "10", Topic: "Hàm số", CountRecall: 1}},
	})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = ts.do(http.MethodPost, "/api/exams", ts.admin, map[string]any{
		"title":    "Kiểm tra 15 phút",
		"duration": 15,
		"sections": []model.ExamSection{{Grade: "12", Topic: "Hàm số", CountRecall: 1, CountUnderstand: 1, CountApplication: 1}},
	})
	expectStatus(t, rec, http.StatusCreated)
	var er examResponse
	decode(t, rec, &er)
	if er.Exam.QuestionCount != 3 || er.Message != "Đã tạo bài thi thành công! (3 câu)" {
		t.Fatalf("unexpected exam response %+v", er)
	}

	rec = ts.do(http.MethodGet, "/api/exams/"+er.Exam.ID+"/docx", ts.admin, nil)
	expectStatus(t, rec, http.StatusOK)
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "Ki_m_tra_15_ph_t.docx") || !strings.Contains(cd, "UTF-8''") {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}
	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	if err != nil {
		t.Fatalf("docx is not a zip: %v", err)
	}
	if len(zr.File) < 5 {
		t.Errorf("expected docx parts, got %d", len(zr.File))
	}

	rec = ts.do(http.MethodGet, "/api/exams.csv", ts.admin, nil)
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "Kiểm tra 15 phút") {
		t.Errorf("expected exam in CSV, got %q", rec.Body)
	}

	expectStatus(t, ts.do(http.MethodGet, "/api/exams/missing/docx", ts.admin, nil), http.StatusNotFound)
	expectStatus(t, ts.do(http.MethodDelete, "/api/exams/"+er.Exam.ID, ts.admin, nil), http.StatusNoContent)
	expectStatus(t, ts.do(http.MethodDelete, "/api/exams", ts.admin, nil), http.StatusNoContent)
}

func TestExportRefusesStructureOnlyExam(t *testing.T) {
	ts := newTestServer(t)
	sheet := "ID,Tên kỳ thi,Ngày thi,Thời gian,Số đề,Cấu trúc JSON,Trạng thái\n" +
		`e1,Đề cấu trúc,1/2/2025,30,1,"[{""selectedTopic"":""Hàm số"",""countBiet"":2}]",Open` + "\n"
	expectStatus(t, ts.do(http.MethodPost, "/api/import/exams", ts.admin, sheet), http.StatusOK)

	rec := ts.do(http.MethodGet, "/api/exams/e1/docx", ts.admin, nil)
	expectStatus(t, rec, http.StatusBadRequest)
	if msg := errorMessage(t, rec); msg != "Đề thi này không có dữ liệu câu hỏi." {
		t.Errorf("message = %q", msg)
	}
}

func TestStudentFlow(t *testing.T) {
	ts := newTestServer(t)
	expectStatus(t, ts.do(http.MethodPost, "/api/import/exam-questions", ts.admin, questionSheet), http.StatusOK)

	rec := ts.do(http.MethodPost, "/api/students", ts.admin, model.StudentAccount{ID: "hs01", Name: "An"})
	expectStatus(t, rec, http.StatusBadRequest)
	if msg := errorMessage(t, rec); msg != "Vui lòng điền ID, Tên và Mật khẩu!" {
		t.Errorf("message = %q", msg)
	}
	rec = ts.do(http.MethodPost, "/api/students", ts.admin, model.StudentAccount{ID: "hs01", Name: "Nguyễn An", Password: "123", Class: "12A1"})
	expectStatus(t, rec, http.StatusCreated)

	rec = ts.do(http.MethodPost, "/api/exams", ts.admin, map[string]any{
		"title":    "Đề 1",
		"sections": []model.ExamSection{{Grade: "12", Topic: "Hàm số", CountRecall: 1}},
	})
	expectStatus(t, rec, http.StatusCreated)
	var er examResponse
	decode(t, rec, &er)

	expectStatus(t, ts.do(http.MethodPost, "/api/students/login", "", map[string]string{"id": "hs01", "password": "x"}), http.StatusUnauthorized)
	rec = ts.do(http.MethodPost, "/api/students/login", "", map[string]string{"id": "hs01", "password": "123"})
	expectStatus(t, rec, http.StatusOK)
	var tr tokenResponse
	decode(t, rec, &tr)
	if tr.Student == nil || tr.Student.Password != "" || tr.Student.Name != "Nguyễn An" {
		t.Fatalf("unexpected student %+v", tr.Student)
	}
	student := tr.Token

	expectStatus(t, ts.do(http.MethodGet, "/api/state", student, nil), http.StatusForbidden)
	rec = ts.do(http.MethodGet, "/api/exams", student, nil)
	expectStatus(t, rec, http.StatusOK)
	var exams []model.ExamConfig
	decode(t, rec, &exams)
	if len(exams) != 1 {
		t.Fatalf("expected 1 exam, got %d", len(exams))
	}
	expectStatus(t, ts.do(http.MethodGet, "/api/exams/"+er.Exam.ID, student, nil), http.StatusOK)

	rec = ts.do(http.MethodPost, "/api/submissions", student, model.StudentSubmission{
		StudentName: "someone else", ExamID: er.Exam.ID, Score: 8.5, CorrectCount: 1, TotalQuestions: 1,
	})
	expectStatus(t, rec, http.StatusCreated)
	var sub model.StudentSubmission
	decode(t, rec, &sub)
	if sub.StudentID != "hs01" || sub.StudentName != "Nguyễn An" || sub.ExamTitle != "Đề 1" {
		t.Errorf("unexpected submission %+v", sub)
	}
	expectStatus(t, ts.do(http.MethodPost, "/api/submissions", student, model.StudentSubmission{ExamID: "nope"}), http.StatusNotFound)

	rec = ts.do(http.MethodGet, "/api/submissions?q=nguy%E1%BB%85n", ts.admin, nil)
	expectStatus(t, rec, http.StatusOK)
	var sr submissionsResponse
	decode(t, rec, &sr)
	if sr.Count != 1 || sr.AverageScore != 8.5 {
		t.Errorf("unexpected submissions %+v", sr)
	}

	rec = ts.do(http.MethodGet, "/api/submissions.tsv", ts.admin, nil)
	expectStatus(t, rec, http.StatusOK)
	if rec.Body.String() != "Nguyễn An\t8.5" {
		t.Errorf("unexpected TSV %q", rec.Body)
	}

	rec = ts.do(http.MethodGet, "/api/results?exam="+er.Exam.ID, ts.admin, nil)
	expectStatus(t, rec, http.StatusOK)
	var res model.ResultsExport
	decode(t, rec, &res)
	if res.Count != 1 || res.ExamTitle != "Đề 1" {
		t.Errorf("unexpected results %+v", res)
	}

	rec = ts.do(http.MethodGet, "/api/students?q=12a1", ts.admin, nil)
	expectStatus(t, rec, http.StatusOK)
	var accounts []model.StudentAccount
	decode(t, rec, &accounts)
	if len(accounts) != 1 {
		t.Errorf("expected 1 student, got %d", len(accounts))
	}

	expectStatus(t, ts.do(http.MethodDelete, "/api/submissions", ts.admin, nil), http.StatusNoContent)
	expectStatus(t, ts.do(http.MethodDelete, "/api/students/hs01", ts.admin, nil), http.StatusNoContent)
	expectStatus(t, ts.do(http.MethodDelete, "/api/students/hs01", ts.admin, nil), http.StatusNotFound)
}

func (ts *testServer) createExam(body map[string]any) model.ExamConfig {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/api/exams", ts.admin, body)
	expectStatus(ts.t, rec, http.StatusCreated)
	var er examResponse
	decode(ts.t, rec, &er)
	return er.Exam
}

func (ts *testServer) studentExam(token, id string) model.Question {
	ts.t.Helper()
	rec := ts.do(http.MethodGet, "/api/exams/"+id, token, nil)
	expectStatus(ts.t, rec, http.StatusOK)
	var exam model.ExamConfig
	decode(ts.t, rec, &exam)
	if len(exam.SpecificQuestions) != 1 {
		ts.t.Fatalf("expected 1 question, got %d", len(exam.SpecificQuestions))
	}
	return exam.SpecificQuestions[0]
}

func TestStudentExamHidesAnswersUntilReview(t *testing.T) {
	ts := newTestServer(t)
	expectStatus(t, ts.do(http.MethodPost, "/api/import/exam-questions", ts.admin, questionSheet), http.StatusOK)
	expectStatus(t, ts.do(http.MethodPost, "/api/students", ts.admin,
		model.StudentAccount{ID: "hs02", Name: "Bình", Password: "abc", Class: "12A2"}), http.StatusCreated)

	section := []model.ExamSection{{Grade: "12", Topic: "Hàm số", CountRecall: 1}}
	open := ts.createExam(map[string]any{"title": "Ôn tập", "sections": section})
	closed := ts.createExam(map[string]any{"title": "Kiểm tra", "sections": section, "allowReview": false})
	if q := open.SpecificQuestions[0]; q.Correct != model.AnswerB || q.Solution != "Vì vậy" {
		t.Fatalf("admin should see the answer key, got %+v", q)
	}

	var tr tokenResponse
	rec := ts.do(http.MethodPost, "/api/students/login", "", map[string]string{"id": "hs02", "password": "abc"})
	expectStatus(t, rec, http.StatusOK)
	decode(t, rec, &tr)
	student := tr.Token

	rec = ts.do(http.MethodGet, "/api/exams", student, nil)
	expectStatus(t, rec, http.StatusOK)
	if strings.Contains(rec.Body.String(), "Vì vậy") {
		t.Errorf("exam list leaks a solution: %s", rec.Body)
	}
	var listed []model.ExamConfig
	decode(t, rec, &listed)
	for _, e := range listed {
		for _, q := range e.SpecificQuestions {
			if q.Correct != "" || q.Solution != "" {
				t.Errorf("exam %s leaks %+v", e.ID, q)
			}
		}
	}

	q := ts.studentExam(student, open.ID)
	if q.Correct != "" || q.Solution != "" || q.Body != "Câu một" {
		t.Fatalf("unexpected question before submitting %+v", q)
	}

	for _, id := range []string{open.ID, closed.ID} {
		rec = ts.do(http.MethodPost, "/api/submissions", student, model.StudentSubmission{
			ExamID:  id,
			Score:   10,
			Answers: map[string]model.AnswerTag{q.ID: "b"},
		})
		expectStatus(t, rec, http.StatusCreated)
		var sub model.StudentSubmission
		decode(t, rec, &sub)
		if sub.CorrectCount != 1 || sub.TotalQuestions != 1 || sub.Score != 10 {
			t.Errorf("unexpected grading %+v", sub)
		}
	}

	if q := ts.studentExam(student, open.ID); q.Correct != model.AnswerB || q.Solution != "Vì vậy" {
		t.Errorf("review should show the answer key, got %+v", q)
	}
	if q := ts.studentExam(student, closed.ID); q.Correct != "" || q.Solution != "" {
		t.Errorf("exam without review leaks %+v", q)
	}
}

func mockDrafts(t *testing.T, bodies ...string) json.RawMessage {
	t.Helper()
	drafts := make([]model.QuestionDraft, len(bodies))
	for i, b := range bodies {
		drafts[i] = model.QuestionDraft{Body: b, OptionA: "1", OptionB: "2", OptionC: "3", OptionD: "4", Correct: "A"}
	}
	data, err := json.Marshal(map[string]any{"questions": drafts})
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestAIGenerate(t *testing.T) {
	ts := newTestServer(t)
	ts.mock.AddResponse(llm.MockResponse{Content: mockDrafts(t, "Câu AI 1", "Câu AI 2")})

	rec := ts.do(http.MethodPost, "/api/ai/generate", ts.admin, map[string]any{
		"grade": "12", "topic": "Hàm số", "difficulty": "Hiểu", "count": 2,
	})
	expectStatus(t, rec, http.StatusOK)
	var qr questionsResponse
	decode(t, rec, &qr)
	if len(qr.Questions) != 2 || qr.Questions[0].Lesson != "AI" || qr.Questions[0].Topic != "Hàm số" {
		t.Fatalf("unexpected questions %+v", qr.Questions)
	}

	rec = ts.do(http.MethodPost, "/api/ai/questions.tsv", ts.admin, qr)
	expectStatus(t, rec, http.StatusOK)
	if lines := strings.Split(strings.TrimRight(rec.Body.String(), "\n"), "\n"); len(lines) != 2 || strings.Count(lines[0], "\t") != 12 {
		t.Errorf("unexpected TSV %q", rec.Body)
	}
}

func TestAIRefusals(t *testing.T) {
	ts := newTestServer(t)
	tests := []struct {
		name   string
		path   string
		body   any
		status int
		msg    string
	}{
		{"missing topic", "/api/ai/generate", map[string]any{"grade": "12"}, http.StatusBadRequest, "Nhập chủ đề!"},
		{"empty extract", "/api/ai/extract", map[string]any{"text": " "}, http.StatusBadRequest, "Vui lòng dán nội dung hoặc tải ảnh lên!"},
		{"bad file type", "/api/ai/extract", map[string]any{"file": "aGVsbG8=", "mimeType": "text/plain"}, http.StatusBadRequest, "Chỉ hỗ trợ file Ảnh (PNG/JPG) hoặc PDF."},
		{"no seeds", "/api/ai/similar", map[string]any{"count": 3}, http.StatusBadRequest, "Cần có câu hỏi mẫu để tạo tương tự!"},
		{"service down", "/api/ai/extract", map[string]any{"text": "Câu 1"}, http.StatusBadGateway, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodPost, tt.path, ts.admin, tt.body)
			expectStatus(t, rec, tt.status)
			msg := errorMessage(t, rec)
			if tt.msg != "" && msg != tt.msg {
				t.Errorf("message = %q, want %q", msg, tt.msg)
			}
			if tt.msg == "" && !strings.HasPrefix(msg, "Lỗi AI: ") {
				t.Errorf("expected AI failure message, got %q", msg)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/state", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec := httptest.NewRecorder()
	ts.h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestLanguageHeader(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"password":"x"}`))
	req.Header.Set("Accept-Language", "en")
	rec := httptest.NewRecorder()
	ts.h.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusUnauthorized)
	if msg := errorMessage(t, rec); msg != "Wrong password!" {
		t.Errorf("message = %q", msg)
	}
}

func TestAttachment(t *testing.T) {
	got := attachment("Đề 1.docx")
	want := fmt.Sprintf(`attachment; filename="__ 1.docx"; filename*=UTF-8''%s`, "%C4%90%E1%BB%81%201.docx")
	if got != want {
		t.Errorf("attachment = %q, want %q", got, want)
	}
}
