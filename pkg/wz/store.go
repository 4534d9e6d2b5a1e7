package wz

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// windowSize は Store が一度に先読みするバイト数です
const windowSize = 8 << 10

// Store は io.ReaderAt 上のシーク可能なリトルエンディアンリーダーです。
// カーソルは1つだけで、複数のゴルーチンから同時に使うことはできません。
type Store struct {
	r    io.ReaderAt
	size int64
	pos  int64

	window    []byte
	windowBuf []byte
	windowOff int64
}

// NewStore は新しい Store を作成します
func NewStore(r io.ReaderAt, size int64) *Store {
	return &Store{r: r, size: size}
}

// clone は同じ io.ReaderAt を共有し、独立したカーソルを持つ Store を返します
func (s *Store) clone() *Store {
	return NewStore(s.r, s.size)
}

// Size はデータ全体の長さを返します
func (s *Store) Size() int64 {
	return s.size
}

// Position は現在の読み込み位置を返します
func (s *Store) Position() int64 {
	return s.pos
}

// Remaining は現在位置から末尾までのバイト数を返します
func (s *Store) Remaining() int64 {
	return s.size - s.pos
}

// Seek は読み込み位置を絶対位置 pos に移動します
func (s *Store) Seek(pos int64) error {
	if pos < 0 {
		return fmt.Errorf("%w: 負の位置へのシーク (%d)", ErrIO, pos)
	}
	s.pos = pos
	return nil
}

// Skip は読み込み位置を n バイト移動します
func (s *Store) Skip(n int64) error {
	return s.Seek(s.pos + n)
}

// read は現在位置から len(p) バイトを読み込みます
func (s *Store) read(p []byte) error {
	n := int64(len(p))
	if n == 0 {
		return nil
	}
	if s.pos+n > s.size {
		return fmt.Errorf("%w: 0x%X から %d バイト: %w", ErrIO, s.pos, n, io.ErrUnexpectedEOF)
	}

	// 先読みウィンドウより大きい読み込みは直接行う
	if n > windowSize {
		m, err := s.r.ReadAt(p, s.pos)
		if int64(m) < n {
			return fmt.Errorf("%w: 0x%X から %d バイト: %w", ErrIO, s.pos, n, eofOr(err))
		}
		s.pos += n
		return nil
	}

	if s.pos < s.windowOff || s.pos+n > s.windowOff+int64(len(s.window)) {
		if err := s.fill(); err != nil {
			return err
		}
	}
	copy(p, s.window[s.pos-s.windowOff:])
	s.pos += n
	return nil
}

// fill は現在位置から先読みウィンドウを読み込みます
func (s *Store) fill() error {
	if s.windowBuf == nil {
		s.windowBuf = make([]byte, windowSize)
	}
	size := min(int64(windowSize), s.size-s.pos)
	m, err := s.r.ReadAt(s.windowBuf[:size], s.pos)
	if int64(m) < size {
		s.window = nil
		return fmt.Errorf("%w: 0x%X から %d バイト: %w", ErrIO, s.pos, size, eofOr(err))
	}
	s.window = s.windowBuf[:size]
	s.windowOff = s.pos
	return nil
}

func eofOr(err error) error {
	if err == nil || err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// ReadBytes は n バイトを読み込みます
func (s *Store) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: 負の長さ (%d)", ErrValidation, n)
	}
	buf := make([]byte, n)
	if err := s.read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadUint8 は符号なし1バイトを読み込みます
func (s *Store) ReadUint8() (uint8, error) {
	var b [1]byte
	if err := s.read(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadInt8 は符号付き1バイトを読み込みます
func (s *Store) ReadInt8() (int8, error) {
	b, err := s.ReadUint8()
	return int8(b), err
}

// ReadUint16 は符号なし2バイト整数を読み込みます
func (s *Store) ReadUint16() (uint16, error) {
	var b [2]byte
	if err := s.read(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

// ReadInt16 は符号付き2バイト整数を読み込みます
func (s *Store) ReadInt16() (int16, error) {
	v, err := s.ReadUint16()
	return int16(v), err
}

// ReadUint32 は符号なし4バイト整数を読み込みます
func (s *Store) ReadUint32() (uint32, error) {
	var b [4]byte
	if err := s.read(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

// ReadInt32 は符号付き4バイト整数を読み込みます
func (s *Store) ReadInt32() (int32, error) {
	v, err := s.ReadUint32()
	return int32(v), err
}

// ReadInt64 は符号付き8バイト整数を読み込みます
func (s *Store) ReadInt64() (int64, error) {
	var b [8]byte
	if err := s.read(b[:]); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// ReadFloat32 は IEEE-754 単精度浮動小数点数を読み込みます
func (s *Store) ReadFloat32() (float32, error) {
	v, err := s.ReadUint32()
	return math.Float32frombits(v), err
}

// ReadFloat64 は IEEE-754 倍精度浮動小数点数を読み込みます
func (s *Store) ReadFloat64() (float64, error) {
	var b [8]byte
	if err := s.read(b[:]); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b[:])), nil
}

// ReadNullTerminated は 0 終端のバイト列を読み込みます (終端は含みません)
func (s *Store) ReadNullTerminated() ([]byte, error) {
	var out []byte
	for {
		b, err := s.ReadUint8()
		if err != nil {
			return nil, err
		}
		if b == 0 {
			return out, nil
		}
		out = append(out, b)
	}
}
