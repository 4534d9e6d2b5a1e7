package wz

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"

	"github.com/shiroemons/go-wzarc/internal/wztest"
	"github.com/shiroemons/go-wzarc/pkg/crypto"
)

func newTestReader(t *testing.T, data []byte) *Reader {
	t.Helper()
	keys, err := crypto.NewKeyStream(wztest.IV, wztest.Key)
	require.NoError(t, err)
	return NewReader(newTestStore(data), keys, nil, nil)
}

func TestReader_CompressedInt(t *testing.T) {
	b := wztest.New()
	values := []int32{0, 1, -1, 127, -127, -128, 128, 255, -129, math.MaxInt32, math.MinInt32, 0x12345678}

	for _, v := range values {
		r := newTestReader(t, b.CompressedInt(v))
		got, err := r.ReadCompressedInt()
		require.NoError(t, err, "v=%d", v)
		assert.Equal(t, v, got)
		assert.Equal(t, int64(0), r.store.Remaining())
	}

	// 番兵の直後に4バイト整数
	r := newTestReader(t, []byte{0x80, 0x01, 0x02, 0x03, 0x04})
	got, err := r.ReadCompressedInt()
	require.NoError(t, err)
	assert.Equal(t, int32(0x04030201), got)
}

func TestReader_CompressedFloat(t *testing.T) {
	b := wztest.New()
	for _, v := range []float32{0, 1, -5, 127, 0.5, -128, 3.25e10} {
		r := newTestReader(t, b.CompressedFloat(v))
		got, err := r.ReadCompressedFloat()
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestReader_EncodedString(t *testing.T) {
	b := wztest.New()
	tests := []struct {
		name  string
		input string
	}{
		{name: "空文字列", input: ""},
		{name: "ASCII", input: "hello"},
		{name: "127文字", input: strings.Repeat("x", 127)},
		{name: "長いASCII", input: strings.Repeat("abcdefgh", 40)},
		{name: "UTF-16", input: "こんにちは"},
		{name: "長いUTF-16", input: strings.Repeat("日本語", 50)},
		{name: "サロゲートペア", input: "😀 smile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestReader(t, b.EncodeString(tt.input))
			got, err := r.ReadEncodedString()
			require.NoError(t, err)
			assert.Equal(t, tt.input, got)
			assert.Equal(t, int64(0), r.store.Remaining())
		})
	}
}

func TestReader_EncodedString_Manual(t *testing.T) {
	keys, err := crypto.NewKeyStream(wztest.IV, wztest.Key)
	require.NoError(t, err)

	k0, err := keys.ByteAt(0)
	require.NoError(t, err)
	k1, err := keys.ByteAt(1)
	require.NoError(t, err)

	// "ab" を8ビット形式で手動で暗号化する
	data := []byte{
		0xFE,
		'a' ^ 0xAA ^ k0,
		'b' ^ 0xAB ^ k1,
	}
	r := NewReader(newTestStore(data), keys, nil, nil)
	got, err := r.ReadEncodedString()
	require.NoError(t, err)
	assert.Equal(t, "ab", got)
}

func TestReader_EncodedString_TooLong(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(0x80)
	binary.Write(&buf, binary.LittleEndian, int32(1000))
	buf.WriteString("short")

	r := newTestReader(t, buf.Bytes())
	_, err := r.ReadEncodedString()
	assert.ErrorIs(t, err, ErrValidation)
}

func TestReader_Charset(t *testing.T) {
	keys, err := crypto.NewKeyStream(wztest.IV, wztest.Key)
	require.NoError(t, err)

	raw, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte("テスト"))
	require.NoError(t, err)
	data := append([]byte{byte(int8(-len(raw)))}, raw...)
	crypto.RollingXOR(data[1:], 0xAA, 1)
	keys.XOR(data[1:])

	r := NewReader(newTestStore(data), keys, nil, japanese.ShiftJIS)
	got, err := r.ReadEncodedString()
	require.NoError(t, err)
	assert.Equal(t, "テスト", got)
}

func TestReader_StringBlock(t *testing.T) {
	b := wztest.New()

	var buf bytes.Buffer
	buf.WriteString("pad")
	target := buf.Len()
	buf.Write(b.EncodeString("shared"))
	start := buf.Len()
	buf.WriteByte(stringInlineAlt)
	buf.Write(b.EncodeString("inline"))
	buf.WriteByte(stringReference)
	binary.Write(&buf, binary.LittleEndian, int32(target))
	buf.WriteByte(stringReferenceAlt)
	binary.Write(&buf, binary.LittleEndian, int32(target))
	buf.WriteByte(0x42)

	r := newTestReader(t, buf.Bytes())
	require.NoError(t, r.store.Seek(int64(start)))

	got, err := r.ReadStringBlock(0)
	require.NoError(t, err)
	assert.Equal(t, "inline", got)

	got, err = r.ReadStringBlock(0)
	require.NoError(t, err)
	assert.Equal(t, "shared", got)

	// 参照を読んだ後は参照の直後に戻る
	pos := r.store.Position()
	got, err = r.ReadStringBlock(0)
	require.NoError(t, err)
	assert.Equal(t, "shared", got)
	assert.Equal(t, pos+5, r.store.Position())

	_, err = r.ReadStringBlock(0)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestReader_EncodedBytes(t *testing.T) {
	b := wztest.New()
	first := []byte("first segment")
	second := []byte("second")

	var buf bytes.Buffer
	buf.Write(b.EncodedBytes(first))
	buf.Write(b.EncodedBytes(second))

	r := newTestReader(t, buf.Bytes())
	got, err := r.ReadEncodedBytes(buf.Len())
	require.NoError(t, err)
	// キーストリームはセグメントごとに先頭から適用される
	assert.Equal(t, append(append([]byte{}, first...), second...), got)
}

func TestReader_EncodedBytes_BadSize(t *testing.T) {
	tests := []struct {
		name   string
		size   int32
		length int // 0 の場合はデータ全体
	}{
		{name: "負のサイズ", size: -1},
		{name: "残りを超えるサイズ", size: 100},
		{name: "負の長さ", size: 4, length: -1},
		{name: "データを超える長さ", size: 4, length: 1 << 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			binary.Write(&buf, binary.LittleEndian, tt.size)
			buf.Write(make([]byte, 16))

			length := tt.length
			if length == 0 {
				length = buf.Len()
			}
			r := newTestReader(t, buf.Bytes())
			_, err := r.ReadEncodedBytes(length)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestReader_ReadOffset(t *testing.T) {
	const (
		pos       = 0x40
		dataStart = 0x3C
		want      = 0x12345
	)
	hash := crypto.VersionHash(wztest.DefaultVersion)

	data := make([]byte, pos+4)
	binary.LittleEndian.PutUint32(data[pos:], crypto.EncodeOffset(pos, dataStart, hash, want))

	r := newTestReader(t, data)
	_, err := r.ReadOffset()
	assert.ErrorIs(t, err, ErrFormat)

	r.header = &Header{DataStart: dataStart, Version: VersionInfo{Hash: hash}}
	require.NoError(t, r.store.Seek(pos))
	got, err := r.ReadOffset()
	require.NoError(t, err)
	assert.Equal(t, int64(want), got)
}
