package docexport

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/model"
)

const (
	optionGap       = "      "
	noSolution      = "(Chưa có lời giải chi tiết)"
	imageOnline     = "(Xem hình tại link online)"
	answerKeyTitle  = "ĐÁP ÁN & LỜI GIẢI CHI TIẾT"
	quickAnswers    = "BẢNG ĐÁP ÁN NHANH:"
	answerSeparator = "   |   "
	linkColor       = "0000FF"

	// Sizes are in half-points.
	titleSize   = "40"
	headingSize = "32"
	linkSize    = "16"
)

// text appends a run whose spaces survive in Word; newlines become line
// breaks.
func text(p *docx.Paragraph, s string) *docx.Run {
	r := p.AddText(strings.ReplaceAll(s, "\r\n", "\n"))
	for _, c := range r.Children {
		if t, ok := c.(*docx.Text); ok {
			t.XMLSpace = "preserve"
		}
	}
	return r
}

func spaceBefore(p *docx.Paragraph, twips int) *docx.Paragraph {
	if p.Properties == nil {
		p.Properties = &docx.ParagraphProperties{}
	}
	p.Properties.Spacing = &docx.Spacing{Before: twips}
	return p
}

// addPicture embeds pic scaled to its display box. It reports false when
// the library cannot read the image.
func addPicture(p *docx.Paragraph, pic *picture) bool {
	r, err := p.AddInlineDrawing(pic.data)
	if err != nil {
		slog.Warn("image not embeddable", "format", pic.format, "error", err)
		return false
	}
	for _, c := range r.Children {
		if d, ok := c.(*docx.Drawing); ok && d.Inline != nil {
			d.Inline.Size(int64(pic.width)*emuPerPixel, int64(pic.height)*emuPerPixel)
		}
	}
	return true
}

func imageFallback(w *docx.Docx, link string) {
	text(w.AddParagraph(), imageOnline).Italic().Color(linkColor)
	text(w.AddParagraph(), link).Color(linkColor).Underline("single").Size(linkSize)
}

// layout writes the questions, then the answer key on a new page.
func layout(w *docx.Docx, doc Document, images []*picture) {
	text(w.AddParagraph().Justification("center"), doc.Title).Bold().Size(titleSize)
	text(w.AddParagraph().Justification("center"), fmt.Sprintf("Môn: Toán - Thời gian: %d phút", doc.Duration))

	for i, q := range doc.Questions {
		p := spaceBefore(w.AddParagraph(), 200)
		text(p, fmt.Sprintf("Câu %d: ", i+1)).Bold()
		text(p, q.Body)

		if link := model.DisplayImageURL(q.ImageURL); link != "" {
			if pic := images[i]; pic == nil || !addPicture(w.AddParagraph().Justification("center"), pic) {
				imageFallback(w, link)
			}
		}

		text(w.AddParagraph(), "A. "+q.OptionA+optionGap+"B. "+q.OptionB)
		text(w.AddParagraph(), "C. "+q.OptionC+optionGap+"D. "+q.OptionD)
	}

	w.AddParagraph().AddPageBreaks()
	text(w.AddParagraph().Justification("center"), answerKeyTitle).Bold().Size(headingSize)

	keys := make([]string, len(doc.Questions))
	for i, q := range doc.Questions {
		keys[i] = fmt.Sprintf("%d.%s", i+1, q.Correct)
	}
	text(w.AddParagraph(), quickAnswers).Bold()
	text(w.AddParagraph(), strings.Join(keys, answerSeparator))

	for i, q := range doc.Questions {
		p := spaceBefore(w.AddParagraph(), 200)
		text(p, fmt.Sprintf("Câu %d: ", i+1)).Bold()
		text(p, fmt.Sprintf("Đáp án %s. ", q.Correct))
		solution := strings.TrimSpace(q.Solution)
		if solution == "" {
			solution = noSolution
		}
		text(w.AddParagraph(), solution)
	}
}
