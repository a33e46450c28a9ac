package services

import (
	"bytes"
	"fmt"
	"image/color"
	"image/png"
	"strings"

	"github.com/skip2/go-qrcode"
)

const (
	defaultQRSize = 256
	maxQRSize     = 1024
)

type QROptions struct {
	Content string
	Size    int
	FgColor string // Hex code e.g. "#000000"
	BgColor string // Hex code e.g. "#FFFFFF"
}

type QRService struct{}

func NewQRService() *QRService {
	return &QRService{}
}

// GenerateQRCode renders the content as a PNG. Sizes outside (0, 1024] fall
// back to 256 pixels.
func (s *QRService) GenerateQRCode(opts QROptions) ([]byte, error) {
	qr, err := qrcode.New(opts.Content, qrcode.Medium)
	if err != nil {
		return nil, err
	}
	qr.ForegroundColor = s.parseHexColor(opts.FgColor, color.Black)
	qr.BackgroundColor = s.parseHexColor(opts.BgColor, color.White)

	size := opts.Size
	if size <= 0 || size > maxQRSize {
		size = defaultQRSize
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(size)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GenerateQRCodeSVG renders the content as an SVG document with one path per
// dark module run.
func (s *QRService) GenerateQRCodeSVG(opts QROptions) (string, error) {
	qr, err := qrcode.New(opts.Content, qrcode.Medium)
	if err != nil {
		return "", err
	}
	qr.DisableBorder = true
	bitmap := qr.Bitmap()
	size := len(bitmap)

	fg := hexOrDefault(opts.FgColor, "#000000")
	bg := hexOrDefault(opts.BgColor, "#FFFFFF")

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" shape-rendering="crispEdges">`, size, size)
	fmt.Fprintf(&sb, `<rect width="100%%" height="100%%" fill="%s"/>`, bg)
	fmt.Fprintf(&sb, `<path fill="%s" d="`, fg)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if bitmap[y][x] {
				fmt.Fprintf(&sb, "M%d %dh1v1h-1z ", x, y)
			}
		}
	}
	sb.WriteString(`"/></svg>`)
	return sb.String(), nil
}

func isHexColor(s string) bool {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}

// hexOrDefault keeps user supplied colors out of the SVG unless they are
// plain hex codes.
func hexOrDefault(s, def string) string {
	if !isHexColor(s) {
		return def
	}
	return "#" + strings.TrimPrefix(s, "#")
}

func (s *QRService) parseHexColor(hex string, defaultColor color.Color) color.Color {
	if !isHexColor(hex) {
		return defaultColor
	}
	hex = strings.TrimPrefix(hex, "#")
	hexToByte := func(c byte) byte {
		switch {
		case c >= '0' && c <= '9':
			return c - '0'
		case c >= 'a' && c <= 'f':
			return c - 'a' + 10
		default:
			return c - 'A' + 10
		}
	}
	r := (hexToByte(hex[0]) << 4) + hexToByte(hex[1])
	g := (hexToByte(hex[2]) << 4) + hexToByte(hex[3])
	b := (hexToByte(hex[4]) << 4) + hexToByte(hex[5])
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
