// internal/game/blank.go
package game

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/draw"
	"image/png"
)

const (
	canvasWidth  = 400
	canvasHeight = 300
)

// BlankImage is the canonical placeholder recorded for any drawing or copy a player did
// not submit in time. It is a white canvas the size of the client's drawing surface.
var BlankImage = renderBlankCanvas(canvasWidth, canvasHeight)

func renderBlankCanvas(w, h int) string {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "data:image/png;base64,"
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

// IsBlank reports whether img is the placeholder rather than a player's own work.
func IsBlank(img string) bool {
	return img == "" || img == BlankImage
}
