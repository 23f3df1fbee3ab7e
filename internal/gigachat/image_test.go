package gigachat

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func TestExtractImageRef(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{name: "plain tag", text: `<img src="abc123">`, want: "abc123", ok: true},
		{name: "tag inside text", text: `Here is your picture: <img src="f-42" fuse="true">`, want: "f-42", ok: true},
		{name: "no tag", text: "just a text reply", ok: false},
		{name: "empty src", text: `<img src="">`, ok: false},
		{name: "empty text", text: "", ok: false},
		{name: "multiple tags returns first", text: `<img src="one"> <img src="two">`, want: "one", ok: true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ExtractImageRef(tc.text)
			if ok != tc.ok {
				t.Fatalf("ExtractImageRef(%q) ok = %v, want %v", tc.text, ok, tc.ok)
			}
			if got != tc.want {
				t.Fatalf("ExtractImageRef(%q) = %q, want %q", tc.text, got, tc.want)
			}
		})
	}
}

func TestReencodeJPEGFromPNG(t *testing.T) {
	t.Parallel()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), B: 128, A: 255})
		}
	}
	var src bytes.Buffer
	if err := png.Encode(&src, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}

	out, err := ReencodeJPEG(src.Bytes())
	if err != nil {
		t.Fatalf("ReencodeJPEG() error = %v", err)
	}
	decoded, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("jpeg.Decode() of output error = %v", err)
	}
	if got := decoded.Bounds(); got != img.Bounds() {
		t.Fatalf("bounds = %v, want %v", got, img.Bounds())
	}
}

func TestReencodeJPEGRejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := ReencodeJPEG([]byte("definitely not an image")); err == nil {
		t.Fatalf("ReencodeJPEG() expected error for garbage input")
	}
}
