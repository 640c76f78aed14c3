package docexport

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"image/color/palette"
	"image/gif"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/model"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func unzip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	files := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		files[f.Name] = string(b)
	}
	return files
}

func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	wide := pngBytes(t, 900, 300)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/wide.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(wide)
		case "/text":
			_, _ = io.WriteString(w, "not an image")
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFitBox(t *testing.T) {
	tests := []struct {
		name  string
		w, h  int
		wantW int
		wantH int
	}{
		{"small", 100, 80, 100, 80},
		{"wide", 900, 300, 450, 150},
		{"tall", 200, 1000, 100, 500},
		{"wide then tall", 900, 1800, 250, 500},
		{"unknown", 0, 0, 200, 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := fitBox(tt.w, tt.h)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestBuild(t *testing.T) {
	srv := imageServer(t)
	doc := Document{
		Title:    "Kiểm tra 15 phút",
		Duration: 15,
		Questions: []model.Question{
			{Body: "1 + 1 = ?", ImageURL: srv.URL + "/wide.png", OptionA: "1", OptionB: "2", OptionC: "3", OptionD: "4", Correct: model.AnswerB, Solution: "Cộng <hai> số"},
			{Body: "x & y", ImageURL: srv.URL + "/missing.png", OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d", Correct: model.AnswerD},
			{Body: "Không hình", ImageURL: srv.URL + "/text", Correct: model.AnswerA},
		},
	}

	data, err := New(WithHTTPClient(srv.Client())).Build(context.Background(), doc)
	require.NoError(t, err)
	files := unzip(t, data)

	for _, part := range []string{"[Content_Types].xml", "_rels/.rels", "word/document.xml", "word/styles.xml", "word/_rels/document.xml.rels", "word/media/image1.png"} {
		assert.Contains(t, files, part)
	}
	assert.NotContains(t, files, "word/media/image2.png")

	body := files["word/document.xml"]
	assert.Contains(t, body, "Môn: Toán - Thời gian: 15 phút")
	assert.Contains(t, body, "Câu 1: ")
	assert.Contains(t, body, "Cộng &lt;hai&gt; số")
	assert.Contains(t, body, "x &amp; y")
	assert.Equal(t, 2, strings.Count(body, `cx="4286250" cy="1428750"`), "extent and shape size")
	assert.Equal(t, 2, strings.Count(body, imageOnline))
	assert.Contains(t, body, srv.URL+"/missing.png")
	assert.Contains(t, body, "1.B   |   2.D   |   3.A")
	assert.Equal(t, 2, strings.Count(body, noSolution))
	assert.Contains(t, body, `w:type="page"`)
	assert.Less(t, strings.Index(body, "Câu 1: "), strings.Index(body, answerKeyTitle))
	assert.Contains(t, files["word/_rels/document.xml.rels"], `Target="media/image1.png"`)
}

func TestBuildUnsupportedFormatFallsBack(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, image.NewPaletted(image.Rect(0, 0, 4, 4), palette.Plan9), nil))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(buf.Bytes())
	}))
	t.Cleanup(srv.Close)

	data, err := New(WithHTTPClient(srv.Client())).Build(context.Background(), Document{
		Title:     "T",
		Questions: []model.Question{{Body: "q", ImageURL: srv.URL + "/a.gif"}},
	})
	require.NoError(t, err)
	files := unzip(t, data)
	assert.Contains(t, files["word/document.xml"], imageOnline)
	for name := range files {
		assert.NotContains(t, name, "word/media/")
	}
}

func TestBuildThroughProxy(t *testing.T) {
	img := pngBytes(t, 10, 10)
	var proxied atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		proxied.Store(r.URL.Query().Get("url"))
		_, _ = w.Write(img)
	}))
	t.Cleanup(srv.Close)

	x := New(WithHTTPClient(srv.Client()), WithProxy(srv.URL+"/?url=%s&output=png"), WithFetchLimit(1))
	data, err := x.Build(context.Background(), Document{
		Title:     "T",
		Questions: []model.Question{{Body: "q", ImageURL: "https://drive.google.com/file/d/abc123/view"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://drive.google.com/thumbnail?id=abc123&sz=s1200", proxied.Load())
	assert.Contains(t, unzip(t, data), "word/media/image1.png")
}

func TestBuildCancelled(t *testing.T) {
	srv := imageServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(WithHTTPClient(srv.Client())).Build(ctx, Document{
		Questions: []model.Question{{Body: "q", ImageURL: srv.URL + "/wide.png"}},
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFromExam(t *testing.T) {
	_, err := FromExam(model.ExamConfig{Title: "Chỉ có cấu trúc", Sections: []model.ExamSection{{Topic: "Hàm số", CountRecall: 2}}})
	assert.ErrorIs(t, err, ErrNoQuestions)

	doc, err := FromExam(model.ExamConfig{Title: "T", Duration: 45, SpecificQuestions: []model.Question{{Body: "q"}}})
	require.NoError(t, err)
	assert.Equal(t, 45, doc.Duration)
	assert.Len(t, doc.Questions, 1)

	_, err = New().Build(context.Background(), Document{Title: "T"})
	assert.ErrorIs(t, err, ErrNoQuestions)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "Kiểm_tra_15_phút.docx", FileName("  Kiểm tra  15 phút "))
	assert.Equal(t, "a_b.docx", FileName("a/b"))
	assert.Equal(t, "de_thi.docx", FileName(" "))
}
