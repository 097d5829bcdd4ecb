package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

// ErrNoChart is returned when a chart state carries no image.
var ErrNoChart = errors.New("no chart image")

// Resized charts never exceed these bounds.
const (
	MaxChartWidth  = 4096
	MaxChartHeight = 4096
)

// DecodeChart decodes a base64 chart_image. width > 0 resizes the image to
// that width, keeping the aspect ratio; width is capped at MaxChartWidth and
// the resulting height at MaxChartHeight.
func DecodeChart(chartImage string, width int) (image.Image, error) {
	data, err := decodeChartData(chartImage)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode chart image: %w", err)
	}

	if width <= 0 || img.Bounds().Dx() == width {
		return img, nil
	}
	width = min(width, MaxChartWidth)
	if b := img.Bounds(); b.Dy()*width/b.Dx() > MaxChartHeight {
		return imaging.Fit(img, width, MaxChartHeight, imaging.Lanczos), nil
	}
	return imaging.Resize(img, width, 0, imaging.Lanczos), nil
}

// WriteChartPNG writes the chart as PNG to w.
func WriteChartPNG(w io.Writer, chartImage string, width int) error {
	img, err := DecodeChart(chartImage, width)
	if err != nil {
		return err
	}
	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		return fmt.Errorf("encode chart png: %w", err)
	}
	return nil
}

// SaveChart writes the chart to path; the format follows the extension.
func SaveChart(path, chartImage string, width int) error {
	img, err := DecodeChart(chartImage, width)
	if err != nil {
		return err
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("save chart: %w", err)
	}
	return nil
}
