package utils

import (
	"github.com/skip2/go-qrcode"
)

const (
	DefaultQRSize = 256
	MinQRSize     = 64
	MaxQRSize     = 1024
)

// GenerateQRCode encodes content as a PNG QR code of size x size pixels.
// Non-positive sizes use DefaultQRSize; others are clamped to
// [MinQRSize, MaxQRSize].
func GenerateQRCode(content string, size int) ([]byte, error) {
	switch {
	case size <= 0:
		size = DefaultQRSize
	case size < MinQRSize:
		size = MinQRSize
	case size > MaxQRSize:
		size = MaxQRSize
	}
	return qrcode.Encode(content, qrcode.Medium, size)
}
