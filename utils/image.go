package utils

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"math"
	"strings"

	_ "image/png" // register PNG decoder

	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp" // register WebP decoder

	"drip-rating-server/types"
)

// NormalizedImage is a downscaled JPEG ready for transport: raw base64
// without a data: prefix, plus an explicit MIME tag.
type NormalizedImage struct {
	Base64   string
	MimeType string
	Width    int
	Height   int
}

// NormalizeImage decodes an arbitrary user-supplied image (JPEG, PNG or
// WebP), downscales it to at most maxWidth preserving aspect ratio, and
// re-encodes it as JPEG at the given quality. Images already narrower than
// maxWidth are never upscaled.
//
// Undecodable input returns a validation error; callers surface it to the
// user instead of retrying.
func NormalizeImage(data []byte, maxWidth uint, quality int) (*NormalizedImage, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, types.NewError(types.KindValidation, "could not decode image", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if maxWidth > 0 && uint(width) > maxWidth {
		// Compute the target height ourselves so rounding is deterministic
		targetHeight := uint(math.Round(float64(height) * float64(maxWidth) / float64(width)))
		img = resize.Resize(maxWidth, targetHeight, img, resize.Lanczos3)
		width = int(maxWidth)
		height = int(targetHeight)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, types.NewError(types.KindValidation, "could not encode JPEG", err)
	}

	return &NormalizedImage{
		Base64:   base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType: "image/jpeg",
		Width:    width,
		Height:   height,
	}, nil
}

// EncodedSize returns the byte length of the JPEG behind the base64 payload.
func (n *NormalizedImage) EncodedSize() int {
	return base64.StdEncoding.DecodedLen(len(n.Base64))
}

// DataURL renders the normalized image as a self-contained data URL for
// inline storage.
func (n *NormalizedImage) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", n.MimeType, n.Base64)
}

// ParseDataURL splits an inline data URL into its raw base64 payload and
// MIME type. Plain base64 input (no scheme prefix) is passed through with
// the provided fallback MIME type.
func ParseDataURL(src, fallbackMime string) (payload, mimeType string, err error) {
	if !strings.HasPrefix(src, "data:") {
		return src, fallbackMime, nil
	}
	rest := strings.TrimPrefix(src, "data:")
	idx := strings.Index(rest, ";base64,")
	if idx < 0 {
		return "", "", types.NewError(types.KindValidation, "unsupported data URL encoding", nil)
	}
	return rest[idx+len(";base64,"):], rest[:idx], nil
}
