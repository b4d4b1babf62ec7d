package services

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"linkvault/internal/apperr"

	"github.com/skip2/go-qrcode"
)

const (
	DefaultQRSize = 256
	minQRSize     = 64
	maxQRSize     = 1024
)

type QROptions struct {
	Size    int
	FgColor string // hex, e.g. "#000000"
	BgColor string // hex, e.g. "#FFFFFF"
}

// QRService renders QR codes pointing at public short links.
type QRService struct {
	baseURL string
}

func NewQRService(baseURL string) *QRService {
	return &QRService{baseURL: strings.TrimRight(baseURL, "/")}
}

// ShortLink is the public redirect address of code.
func (s *QRService) ShortLink(code string) string {
	return s.baseURL + "/" + code
}

func (s *QRService) PNG(content string, opts QROptions) ([]byte, error) {
	size, err := s.size(opts.Size)
	if err != nil {
		return nil, err
	}

	qr, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Could not render QR code", err)
	}
	qr.ForegroundColor = s.parseHexColor(opts.FgColor, color.Black)
	qr.BackgroundColor = s.parseHexColor(opts.BgColor, color.White)

	png, err := qr.PNG(size)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Could not render QR code", err)
	}
	return png, nil
}

// SVG renders one square per dark module, without a quiet zone.
func (s *QRService) SVG(content string, opts QROptions) (string, error) {
	qr, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "Could not render QR code", err)
	}
	qr.DisableBorder = true
	bitmap := qr.Bitmap()
	n := len(bitmap)

	fg := hexString(s.parseHexColor(opts.FgColor, color.Black))
	bg := hexString(s.parseHexColor(opts.BgColor, color.White))

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" shape-rendering="crispEdges">`, n, n)
	fmt.Fprintf(&sb, `<rect width="100%%" height="100%%" fill="%s"/>`, bg)
	fmt.Fprintf(&sb, `<path fill="%s" d="`, fg)
	for y, row := range bitmap {
		for x, dark := range row {
			if dark {
				fmt.Fprintf(&sb, "M%d %dh1v1h-1z", x, y)
			}
		}
	}
	sb.WriteString(`"/></svg>`)
	return sb.String(), nil
}

func (s *QRService) size(requested int) (int, error) {
	if requested == 0 {
		return DefaultQRSize, nil
	}
	if requested < minQRSize || requested > maxQRSize {
		return 0, apperr.Validation(fmt.Sprintf("size must be between %d and %d", minQRSize, maxQRSize))
	}
	return requested, nil
}

// parseHexColor reads "#rrggbb"; anything else yields def.
func (s *QRService) parseHexColor(hex string, def color.Color) color.Color {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return def
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return def
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}

func hexString(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}
