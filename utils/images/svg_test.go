package images

import (
	"bytes"
	"image/png"
	"testing"
)

func TestRasterize(t *testing.T) {
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 50"><rect width="100" height="50"/></svg>`)

	tests := []struct {
		name   string
		w, h   int
		wantDx int
		wantDy int
	}{
		{"intrinsic", 0, 0, 100, 50},
		{"scale_by_width", 200, 0, 200, 100},
		{"scale_by_height", 0, 200, 400, 200},
		{"fit_box", 150, 150, 150, 75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Rasterize(svg, tt.w, tt.h, 1)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if img.Bounds().Dx() != tt.wantDx || img.Bounds().Dy() != tt.wantDy {
				t.Fatalf("bounds = %v, want %dx%d", img.Bounds(), tt.wantDx, tt.wantDy)
			}
		})
	}
}

func TestRasterize_Clamp(t *testing.T) {
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100000 50000"></svg>`)
	old := maxRasterDim
	maxRasterDim = 64
	defer func() { maxRasterDim = old }()

	img, err := Rasterize(svg, 0, 0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 32 {
		t.Fatalf("bounds = %v, want 64x32", img.Bounds())
	}
}

func TestScaleStrokeWidth(t *testing.T) {
	tests := []struct {
		in     string
		factor float64
		want   string
	}{
		{`<line stroke-width="2"/>`, 2, `<line stroke-width="4"/>`},
		{`<line style="stroke-width: 0.5"/>`, 3, `<line style="stroke-width: 1.5"/>`},
		{`<line stroke-width="2"/>`, 1, `<line stroke-width="2"/>`},
		{`<line stroke-width="2"/>`, 0, `<line stroke-width="2"/>`},
	}
	for _, tt := range tests {
		if got := string(ScaleStrokeWidth([]byte(tt.in), tt.factor)); got != tt.want {
			t.Errorf("ScaleStrokeWidth(%q, %v) = %q, want %q", tt.in, tt.factor, got, tt.want)
		}
	}
}

func TestEncodePNG(t *testing.T) {
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 20 10"><rect width="20" height="10" fill="red"/></svg>`)
	data, err := EncodePNG(svg, 40, 0, 1)
	if err != nil {
		t.Fatalf("EncodePNG() error = %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 20 {
		t.Errorf("bounds = %v, want 40x20", img.Bounds())
	}
}
