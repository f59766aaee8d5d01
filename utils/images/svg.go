// Package images renders transformed documents to raster formats.
package images

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"regexp"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// defaultSize is used when the document has no viewBox.
const defaultSize = 1024

// maxRasterDim caps either pixel dimension of a rendered document.
var maxRasterDim = 8192

var strokeWidthRe = regexp.MustCompile(`(stroke-width\s*[=:]\s*["']?)(\d+(?:\.\d+)?)(["']?)`)

// ScaleStrokeWidth multiplies all stroke-width values in the document by
// factor. Factors of 0 and 1 leave the data unchanged.
func ScaleStrokeWidth(svgData []byte, factor float64) []byte {
	if factor <= 0 || factor == 1.0 {
		return svgData
	}

	return strokeWidthRe.ReplaceAllFunc(svgData, func(match []byte) []byte {
		sub := strokeWidthRe.FindSubmatch(match)
		if len(sub) < 4 {
			return match
		}
		value, err := strconv.ParseFloat(string(sub[2]), 64)
		if err != nil {
			return match
		}
		out := append([]byte{}, sub[1]...)
		out = strconv.AppendFloat(out, value*factor, 'f', -1, 64)
		return append(out, sub[3]...)
	})
}

// Rasterize renders the document on a white canvas.
//
// With no target size the viewBox size is used. A single target dimension
// scales the other one, and two dimensions fit the image into that box,
// keeping the aspect ratio in both cases.
func Rasterize(svgData []byte, targetW, targetH int, strokeWidthFactor float64) (image.Image, error) {
	svgData = ScaleStrokeWidth(svgData, strokeWidthFactor)

	icon, err := oksvg.ReadIconStream(bytes.NewReader(svgData))
	if err != nil {
		return nil, fmt.Errorf("unable to parse document for rendering: %w", err)
	}

	w, h := fit(icon.ViewBox.W, icon.ViewBox.H, targetW, targetH)
	icon.SetTarget(0, 0, float64(w), float64(h))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(w, h, dst, dst.Bounds())
	dasher := rasterx.NewDasher(w, h, scanner)
	icon.Draw(dasher, 1.0)
	return dst, nil
}

func fit(vbW, vbH float64, targetW, targetH int) (int, int) {
	intrW, intrH := int(math.Ceil(vbW)), int(math.Ceil(vbH))
	if intrW <= 0 {
		intrW = defaultSize
	}
	if intrH <= 0 {
		intrH = defaultSize
	}

	w, h := intrW, intrH
	switch {
	case targetW <= 0 && targetH <= 0:
	case targetH <= 0:
		w = targetW
		h = int(math.Round(float64(w) * float64(intrH) / float64(intrW)))
	case targetW <= 0:
		h = targetH
		w = int(math.Round(float64(h) * float64(intrW) / float64(intrH)))
	default:
		scale := math.Min(float64(targetW)/float64(intrW), float64(targetH)/float64(intrH))
		w = int(math.Round(float64(intrW) * scale))
		h = int(math.Round(float64(intrH) * scale))
	}
	w, h = max(w, 1), max(h, 1)

	if w > maxRasterDim || h > maxRasterDim {
		s := min(float64(maxRasterDim)/float64(w), float64(maxRasterDim)/float64(h))
		w = max(int(math.Round(float64(w)*s)), 1)
		h = max(int(math.Round(float64(h)*s)), 1)
	}
	return w, h
}

// EncodePNG renders the document and encodes it as PNG.
func EncodePNG(svgData []byte, targetW, targetH int, strokeWidthFactor float64) ([]byte, error) {
	img, err := Rasterize(svgData, targetW, targetH, strokeWidthFactor)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression)); err != nil {
		return nil, fmt.Errorf("unable to encode png: %w", err)
	}
	return buf.Bytes(), nil
}
