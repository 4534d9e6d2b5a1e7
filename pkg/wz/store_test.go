package wz

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(data []byte) *Store {
	return NewStore(bytes.NewReader(data), int64(len(data)))
}

func TestStore_Primitives(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(0xFE)
	binary.Write(&buf, binary.LittleEndian, int16(-2))
	binary.Write(&buf, binary.LittleEndian, uint32(0xDEADBEEF))
	binary.Write(&buf, binary.LittleEndian, int64(-1234567890123))
	binary.Write(&buf, binary.LittleEndian, float32(1.5))
	binary.Write(&buf, binary.LittleEndian, math.Pi)
	buf.WriteString("abc\x00rest")

	s := newTestStore(buf.Bytes())

	i8, err := s.ReadInt8()
	require.NoError(t, err)
	assert.Equal(t, int8(-2), i8)

	i16, err := s.ReadInt16()
	require.NoError(t, err)
	assert.Equal(t, int16(-2), i16)

	u32, err := s.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), u32)

	i64, err := s.ReadInt64()
	require.NoError(t, err)
	assert.Equal(t, int64(-1234567890123), i64)

	f32, err := s.ReadFloat32()
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), f32)

	f64, err := s.ReadFloat64()
	require.NoError(t, err)
	assert.Equal(t, math.Pi, f64)

	str, err := s.ReadNullTerminated()
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), str)

	assert.Equal(t, int64(4), s.Remaining())
}

func TestStore_Errors(t *testing.T) {
	tests := []struct {
		name    string
		run     func(s *Store) error
		wantErr error
	}{
		{
			name: "末尾を超える読み込み",
			run: func(s *Store) error {
				_, err := s.ReadInt64()
				return err
			},
			wantErr: io.ErrUnexpectedEOF,
		},
		{
			name: "負の位置へのシーク",
			run: func(s *Store) error {
				return s.Seek(-1)
			},
			wantErr: ErrIO,
		},
		{
			name: "負の長さ",
			run: func(s *Store) error {
				_, err := s.ReadBytes(-1)
				return err
			},
			wantErr: ErrValidation,
		},
		{
			name: "終端のない文字列",
			run: func(s *Store) error {
				_, err := s.ReadNullTerminated()
				return err
			},
			wantErr: ErrIO,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore([]byte{1, 2, 3})
			err := tt.run(s)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestStore_WindowBoundaries(t *testing.T) {
	data := make([]byte, windowSize*3+7)
	for i := range data {
		data[i] = byte(i * 31)
	}
	s := newTestStore(data)

	// ウィンドウの境界をまたぐ読み込み
	require.NoError(t, s.Seek(windowSize-2))
	got, err := s.ReadBytes(4)
	require.NoError(t, err)
	assert.Equal(t, data[windowSize-2:windowSize+2], got)

	// 後方へのシーク
	require.NoError(t, s.Seek(1))
	b, err := s.ReadUint8()
	require.NoError(t, err)
	assert.Equal(t, data[1], b)

	// ウィンドウより大きい読み込み
	require.NoError(t, s.Seek(3))
	big, err := s.ReadBytes(windowSize * 2)
	require.NoError(t, err)
	assert.Equal(t, data[3:3+windowSize*2], big)
	assert.Equal(t, int64(3+windowSize*2), s.Position())
}

func TestStore_Clone(t *testing.T) {
	s := newTestStore([]byte{1, 2, 3, 4})
	require.NoError(t, s.Seek(2))

	c := s.clone()
	assert.Equal(t, int64(0), c.Position())
	b, err := c.ReadUint8()
	require.NoError(t, err)
	assert.Equal(t, byte(1), b)
	assert.Equal(t, int64(2), s.Position())
}
