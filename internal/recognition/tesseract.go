package recognition

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"math"

	"github.com/otiai10/gosseract/v2"

	"civis/internal/domain"
)

// tesseractRecognizer drives the gosseract client. A fresh client is built per
// call so no shared state exists between concurrent extractions; setup cost is
// negligible next to recognition itself.
type tesseractRecognizer struct{}

func (t *tesseractRecognizer) Recognize(ctx context.Context, req Request) (string, []domain.ScoredWord, error) {
	c := gosseract.NewClient()
	defer c.Close()

	if err := c.SetLanguage(req.Language); err != nil {
		return "", nil, fmt.Errorf("set language: %w", err)
	}
	if err := c.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		return "", nil, fmt.Errorf("set page segmentation mode: %w", err)
	}
	if req.Whitelist != "" {
		if err := c.SetWhitelist(req.Whitelist); err != nil {
			return "", nil, fmt.Errorf("set whitelist: %w", err)
		}
	}

	img, err := cropImage(req.Image, req.Region)
	if err != nil {
		return "", nil, err
	}
	if err := c.SetImageFromBytes(img); err != nil {
		return "", nil, fmt.Errorf("set image: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return "", nil, fmt.Errorf("recognize text: %w", err)
	}

	return text, extractWords(c), nil
}

func extractWords(c *gosseract.Client) []domain.ScoredWord {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return nil
	}
	words := make([]domain.ScoredWord, 0, len(boxes))
	for _, b := range boxes {
		words = append(words, domain.ScoredWord{Text: b.Word, Score: b.Confidence})
	}
	return words
}

// cropImage re-encodes the requested region as PNG; a nil or empty region
// passes the original bytes through untouched.
func cropImage(data []byte, region *Region) ([]byte, error) {
	if region == nil || region.IsEmpty() {
		return data, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode for region: %w", err)
	}
	rect := image.Rect(region.X, region.Y, region.X+region.Width, region.Y+region.Height)
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("region %+v outside image bounds %v", *region, img.Bounds())
	}

	sub, ok := img.(interface {
		SubImage(image.Rectangle) image.Image
	})
	if !ok {
		return nil, fmt.Errorf("image format does not support region extraction")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, sub.SubImage(rect)); err != nil {
		return nil, fmt.Errorf("encode region: %w", err)
	}
	return buf.Bytes(), nil
}

// probeImage returns a small white PNG used by health checks; recognizing it
// exercises the full backend path without needing a sample document on disk.
func probeImage() []byte {
	img := image.NewGray(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.SetGray(x, y, color.Gray{Y: math.MaxUint8})
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
