// Package media は WZ アーカイブのキャンバスを画像に復号するパッケージです。
//
// 対応するピクセル形式:
//   - 1: BGRA4444
//   - 2: BGRA8888
//   - 513: RGB565
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/shiroemons/go-wzarc/pkg/wz"
)

// ピクセル形式
const (
	FormatBGRA4444 = 1
	FormatBGRA8888 = 2
	FormatRGB565   = 513
)

// maxDimension は幅と高さの上限です
const maxDimension = 1 << 14

// CanvasDecoder は wz.CanvasDecoder の実装です
type CanvasDecoder struct{}

// NewCanvasDecoder は新しい CanvasDecoder を作成します
func NewCanvasDecoder() *CanvasDecoder {
	return &CanvasDecoder{}
}

var _ wz.CanvasDecoder = (*CanvasDecoder)(nil)

// DecodeCanvas は圧縮されたペイロードを展開し、画像に変換します
func (d *CanvasDecoder) DecodeCanvas(c *wz.Canvas, raw []byte) (image.Image, error) {
	return Decode(c.Format, int(c.Width), int(c.Height), raw)
}

// Decode は形式 format の圧縮データ raw を width x height の画像に変換します
func Decode(format int32, width, height int, raw []byte) (*image.NRGBA, error) {
	size, err := UncompressedSize(format, width, height)
	if err != nil {
		return nil, err
	}
	pixels, err := Inflate(raw, size)
	if err != nil {
		return nil, err
	}
	return Convert(format, width, height, pixels)
}

// UncompressedSize は展開後のバイト数を返します
func UncompressedSize(format int32, width, height int) (int, error) {
	if width <= 0 || height <= 0 || width > maxDimension || height > maxDimension {
		return 0, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	switch format {
	case FormatBGRA4444, FormatRGB565:
		return width * height * 2, nil
	case FormatBGRA8888:
		return width * height * 4, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedFormat, format)
	}
}

// Inflate は zlib ストリームを size バイトまで展開します。
// ストリームが途中で終わっている場合、足りない部分は 0 のままです。
func Inflate(raw []byte, size int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInflate, err)
	}
	defer zr.Close()

	out := make([]byte, size)
	_, err = io.ReadFull(zr, out)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInflate, err)
	}
	return out, nil
}

// Convert は展開済みのピクセルデータを NRGBA 画像に変換します
func Convert(format int32, width, height int, pixels []byte) (*image.NRGBA, error) {
	size, err := UncompressedSize(format, width, height)
	if err != nil {
		return nil, err
	}
	if len(pixels) < size {
		return nil, fmt.Errorf("%w: ピクセルデータが %d バイト不足しています", ErrInvalidSize, size-len(pixels))
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	dst := img.Pix
	n := width * height

	switch format {
	case FormatBGRA4444:
		for i := range n {
			lo, hi := pixels[i*2], pixels[i*2+1]
			// 下位バイトは B (下位4ビット) と G、上位バイトは R と A
			dst[i*4+0] = expand4(hi & 0x0F)
			dst[i*4+1] = expand4(lo >> 4)
			dst[i*4+2] = expand4(lo & 0x0F)
			dst[i*4+3] = expand4(hi >> 4)
		}
	case FormatBGRA8888:
		for i := range n {
			b, g, r, a := pixels[i*4], pixels[i*4+1], pixels[i*4+2], pixels[i*4+3]
			dst[i*4+0], dst[i*4+1], dst[i*4+2], dst[i*4+3] = r, g, b, a
		}
	case FormatRGB565:
		for i := range n {
			v := uint16(pixels[i*2]) | uint16(pixels[i*2+1])<<8
			r := byte(v >> 11 & 0x1F)
			g := byte(v >> 5 & 0x3F)
			b := byte(v & 0x1F)
			dst[i*4+0] = r<<3 | r>>2
			dst[i*4+1] = g<<2 | g>>4
			dst[i*4+2] = b<<3 | b>>2
			dst[i*4+3] = 0xFF
		}
	}
	return img, nil
}

// expand4 は4ビットの値を8ビットに拡張します
func expand4(v byte) byte {
	return v<<4 | v
}
