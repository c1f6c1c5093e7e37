package snapshot

import (
	"image"
	"image/color"
	"testing"
)

func TestPointInPolygon(t *testing.T) {
	poly := []Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}

	if !pointInPolygon(5.5, 5.5, poly) {
		t.Fatal("expected center point to be inside polygon")
	}
	if pointInPolygon(-1, 5, poly) {
		t.Fatal("expected point outside polygon to be outside")
	}
	if !pointInPolygon(0, 5, poly) {
		t.Fatal("expected edge point to be treated as inside")
	}
}

func TestCropAppliesPolygonMask(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	black := color.RGBA{R: 0, G: 0, B: 0, A: 255}
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			img.SetRGBA(x, y, black)
		}
	}
	snap := FromImage(img, image.Pt(50, 80))

	region := Region{
		X:      50,
		Y:      80,
		Width:  6,
		Height: 6,
		Polygon: []Point{
			{X: 51, Y: 81},
			{X: 54, Y: 81},
			{X: 54, Y: 84},
			{X: 51, Y: 84},
		},
	}

	out, err := snap.Crop(region)
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}

	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	if got := out.RGBAAt(0, 0); got != white {
		t.Fatalf("expected outside pixel to be white, got %#v", got)
	}
	if got := out.RGBAAt(2, 2); got != black {
		t.Fatalf("expected inside pixel to remain original color, got %#v", got)
	}
	if got := out.RGBAAt(1, 2); got != black {
		t.Fatalf("expected edge pixel to remain original color, got %#v", got)
	}
	if got := out.RGBAAt(5, 5); got != white {
		t.Fatalf("expected outside corner pixel to be white, got %#v", got)
	}
}
