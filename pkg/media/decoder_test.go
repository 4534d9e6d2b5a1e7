package media

import (
	"bytes"
	"image/color"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestUncompressedSize(t *testing.T) {
	tests := []struct {
		name     string
		format   int32
		width    int
		height   int
		expected int
		wantErr  error
	}{
		{name: "BGRA4444", format: FormatBGRA4444, width: 4, height: 3, expected: 24},
		{name: "BGRA8888", format: FormatBGRA8888, width: 4, height: 3, expected: 48},
		{name: "RGB565", format: FormatRGB565, width: 2, height: 2, expected: 8},
		{name: "未対応の形式", format: 1026, width: 4, height: 4, wantErr: ErrUnsupportedFormat},
		{name: "幅が0", format: FormatBGRA8888, width: 0, height: 4, wantErr: ErrInvalidSize},
		{name: "大きすぎる", format: FormatBGRA8888, width: maxDimension + 1, height: 1, wantErr: ErrInvalidSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UncompressedSize(tt.format, tt.width, tt.height)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name     string
		format   int32
		pixels   []byte
		expected color.NRGBA
	}{
		{
			name:     "BGRA4444",
			format:   FormatBGRA4444,
			pixels:   []byte{0x21, 0x43}, // B=1 G=2 R=3 A=4
			expected: color.NRGBA{R: 0x33, G: 0x22, B: 0x11, A: 0x44},
		},
		{
			name:     "BGRA8888",
			format:   FormatBGRA8888,
			pixels:   []byte{0x10, 0x20, 0x30, 0x40},
			expected: color.NRGBA{R: 0x30, G: 0x20, B: 0x10, A: 0x40},
		},
		{
			name:     "RGB565 白",
			format:   FormatRGB565,
			pixels:   []byte{0xFF, 0xFF},
			expected: color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
		},
		{
			name:     "RGB565 赤",
			format:   FormatRGB565,
			pixels:   []byte{0x00, 0xF8},
			expected: color.NRGBA{R: 0xFF, G: 0x00, B: 0x00, A: 0xFF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Convert(tt.format, 1, 1, tt.pixels)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, img.NRGBAAt(0, 0))
		})
	}

	_, err := Convert(FormatBGRA8888, 2, 2, make([]byte, 4))
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestDecode(t *testing.T) {
	pixels := []byte{
		0x00, 0x00, 0xFF, 0xFF, // 赤
		0x00, 0xFF, 0x00, 0x80, // 半透明の緑
	}
	img, err := Decode(FormatBGRA8888, 2, 1, compress(t, pixels))
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0xFF, A: 0xFF}, img.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{G: 0xFF, A: 0x80}, img.NRGBAAt(1, 0))
}

func TestInflate(t *testing.T) {
	data := bytes.Repeat([]byte{1, 2, 3, 4}, 64)
	stream := compress(t, data)

	t.Run("ちょうどのサイズ", func(t *testing.T) {
		got, err := Inflate(stream, len(data))
		require.NoError(t, err)
		assert.Equal(t, data, got)
	})

	t.Run("展開後が短い", func(t *testing.T) {
		got, err := Inflate(stream, len(data)+8)
		require.NoError(t, err)
		assert.Equal(t, data, got[:len(data)])
		assert.Equal(t, make([]byte, 8), got[len(data):])
	})

	t.Run("不正なヘッダ", func(t *testing.T) {
		_, err := Inflate([]byte{0x00, 0x01, 0x02}, 16)
		assert.ErrorIs(t, err, ErrInflate)
	})
}
