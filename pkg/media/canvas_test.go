package media

import (
	"bytes"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiroemons/go-wzarc/internal/wztest"
	"github.com/shiroemons/go-wzarc/pkg/wz"
)

func TestCanvasDecoder_Archive(t *testing.T) {
	pixels := []byte{0x0F, 0xF0, 0xF0, 0x0F} // 2x1 BGRA4444
	stream := compress(t, pixels)

	data, err := wztest.New().Build(&wztest.Dir{
		Images: []*wztest.Image{{
			Name: "icon.img",
			Props: []wztest.Prop{
				{Name: "plain", Type: wztest.CanvasProp, Canvas: &wztest.Canvas{
					Width: 2, Height: 1, Format: FormatBGRA4444, Payload: stream,
				}},
				{Name: "encrypted", Type: wztest.CanvasProp, Canvas: &wztest.Canvas{
					Width: 2, Height: 1, Format: FormatBGRA4444, Payload: stream, Encrypt: true,
				}},
			},
		}},
	})
	require.NoError(t, err)

	arc, err := wz.OpenReaderAt("Icon.wz", bytes.NewReader(data), int64(len(data)), wztest.IV, wztest.Key)
	require.NoError(t, err)

	dec := NewCanvasDecoder()
	for _, name := range []string{"plain", "encrypted"} {
		t.Run(name, func(t *testing.T) {
			c, err := arc.Get("icon.img/" + name).Canvas()
			require.NoError(t, err)

			img, err := c.Decode(dec)
			require.NoError(t, err)
			assert.Equal(t, 2, img.Bounds().Dx())
			assert.Equal(t, color.NRGBA{R: 0x00, G: 0x00, B: 0xFF, A: 0xFF}, img.At(0, 0))
			assert.Equal(t, color.NRGBA{R: 0xFF, G: 0xFF, B: 0x00, A: 0x00}, img.At(1, 0))
		})
	}
}
