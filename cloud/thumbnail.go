package cloud

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/nfnt/resize"
)

// Thumbnail scales a rendered PNG down to width, keeping the aspect ratio.
// Widths that would not shrink the image return the input unchanged.
func Thumbnail(data []byte, width int) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode cloud: %w", err)
	}
	if width <= 0 || width >= img.Bounds().Dx() {
		return data, nil
	}

	small := resize.Resize(uint(width), 0, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := png.Encode(&buf, small); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
