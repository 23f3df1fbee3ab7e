package gigachat

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"regexp"

	_ "image/gif"
	_ "image/png"
)

// Image-generating replies embed the file reference as an HTML-ish tag in the
// message content. The text-format coupling stays isolated here.
var imageTagPattern = regexp.MustCompile(`<img\s+src="([^"]+)"`)

// ExtractImageRef scans reply text for an embedded image tag and returns the
// captured file identifier.
func ExtractImageRef(text string) (string, bool) {
	m := imageTagPattern.FindStringSubmatch(text)
	if m == nil || m[1] == "" {
		return "", false
	}
	return m[1], true
}

// ReencodeJPEG decodes the bytes as an image (JPEG, PNG or GIF) and
// re-encodes them as JPEG for delivery as a photo attachment.
func ReencodeJPEG(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gigachat: decode image: %w", err)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		return nil, fmt.Errorf("gigachat: encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
