package docexport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/fumiama/imgsz"
	"golang.org/x/sync/errgroup"

	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/model"
)

const (
	maxWidthPx  = 450
	maxHeightPx = 500
	fallbackPx  = 200
	emuPerPixel = 9525
)

// embeddable lists the formats the document package declares content
// types for.
var embeddable = map[string]bool{"png": true, "jpeg": true, "webp": true}

// picture is a fetched image ready to embed. Width and height are the
// display size in pixels.
type picture struct {
	format string
	data   []byte
	width  int
	height int
}

// fitBox scales w x h down to fit the display box, keeping the aspect
// ratio. Unknown sizes use the fallback square.
func fitBox(w, h int) (int, int) {
	fw, fh := float64(w), float64(h)
	if fw <= 0 {
		fw = fallbackPx
	}
	if fh <= 0 {
		fh = fallbackPx
	}
	if fw > maxWidthPx {
		fh *= maxWidthPx / fw
		fw = maxWidthPx
	}
	if fh > maxHeightPx {
		fw *= maxHeightPx / fh
		fh = maxHeightPx
	}
	return int(fw + 0.5), int(fh + 0.5)
}

// prefetch downloads every question image with bounded concurrency. The
// result is indexed like qs; entries are nil where there is no usable
// image. Only context cancellation is returned as an error.
func (x *Exporter) prefetch(ctx context.Context, qs []model.Question) ([]*picture, error) {
	out := make([]*picture, len(qs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(x.fetchLimit)
	for i, q := range qs {
		link := model.DisplayImageURL(q.ImageURL)
		if link == "" {
			continue
		}
		g.Go(func() error {
			pic, err := x.fetch(gctx, link)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				slog.Warn("image unavailable for export", "url", link, "error", err)
				return nil
			}
			out[i] = pic
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (x *Exporter) fetch(ctx context.Context, link string) (*picture, error) {
	target := link
	if x.proxy != "" {
		target = fmt.Sprintf(x.proxy, url.QueryEscape(link))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := x.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, x.maxImage+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > x.maxImage {
		return nil, fmt.Errorf("image larger than %d bytes", x.maxImage)
	}

	size, format, err := imgsz.DecodeSize(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if !embeddable[format] {
		return nil, fmt.Errorf("unsupported image format %q", format)
	}
	w, h := fitBox(size.Width, size.Height)
	return &picture{format: format, data: data, width: w, height: h}, nil
}
