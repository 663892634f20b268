package preview

import (
	"image"
	"image/color"
	"testing"
)

func TestScale(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1200, 1600))
	for y := 0; y < 1600; y++ {
		for x := 0; x < 1200; x++ {
			src.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	got := Scale(src, 480)
	if b := got.Bounds(); b.Dx() != 480 || b.Dy() != 640 {
		t.Fatalf("bounds = %v", b)
	}
	r, _, _, a := got.At(240, 320).RGBA()
	if r>>8 < 190 || a>>8 != 255 {
		t.Fatalf("pixel = %v", got.At(240, 320))
	}
}

func TestScaleKeepsSmallImages(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 100, 50))
	if got := Scale(src, 480); got != image.Image(src) {
		t.Fatal("small image must be returned as is")
	}
}

func TestPathFor(t *testing.T) {
	if got := PathFor("/out/report_clean.pdf"); got != "/out/report_clean.preview.jpg" {
		t.Fatalf("got %q", got)
	}
}
