package wz

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"

	"github.com/shiroemons/go-wzarc/pkg/crypto"
)

const (
	// compressedSentinel は圧縮整数・圧縮浮動小数点数で後続の4バイト値を示す値です
	compressedSentinel = -128

	unicodeLengthSentinel = 127
	asciiLengthSentinel   = -128

	unicodeMask = 0xAAAA
	asciiMask   = 0xAA
)

// 文字列ブロックの種類
const (
	stringInline       = 0x00
	stringInlineAlt    = 0x73
	stringReference    = 0x01
	stringReferenceAlt = 0x1B
)

var utf16LE = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// Reader は Store の上で WZ 固有のエンコーディングを復号します。
// Store と同じくカーソルは1つで、並行利用はできません。
type Reader struct {
	store   *Store
	keys    *crypto.KeyStream
	header  *Header
	charset encoding.Encoding
}

// NewReader は新しい Reader を作成します。
// header は ReadOffset の計算に使われ、ヘッダ読み込み前は nil でも構いません。
func NewReader(store *Store, keys *crypto.KeyStream, header *Header, charset encoding.Encoding) *Reader {
	if charset == nil {
		charset = DefaultCharset
	}
	return &Reader{store: store, keys: keys, header: header, charset: charset}
}

// Store は内部の Store を返します
func (r *Reader) Store() *Store {
	return r.store
}

// ReadCompressedInt は圧縮整数を読み込みます。
// 1バイト目が -128 の場合は後続の4バイト整数が値になります。
func (r *Reader) ReadCompressedInt() (int32, error) {
	b, err := r.store.ReadInt8()
	if err != nil {
		return 0, err
	}
	if b == compressedSentinel {
		return r.store.ReadInt32()
	}
	return int32(b), nil
}

// ReadCompressedFloat は圧縮浮動小数点数を読み込みます
func (r *Reader) ReadCompressedFloat() (float32, error) {
	b, err := r.store.ReadInt8()
	if err != nil {
		return 0, err
	}
	if b == compressedSentinel {
		return r.store.ReadFloat32()
	}
	return float32(b), nil
}

// ReadEncodedString は暗号化された文字列を読み込みます。
// 長さが正の場合は UTF-16、0以下の場合は8ビット文字列として復号します。
func (r *Reader) ReadEncodedString() (string, error) {
	b, err := r.store.ReadInt8()
	if err != nil {
		return "", err
	}
	length := int64(b)
	isUnicode := length > 0

	switch {
	case isUnicode && length == unicodeLengthSentinel, !isUnicode && length == asciiLengthSentinel:
		v, err := r.store.ReadInt32()
		if err != nil {
			return "", err
		}
		length = int64(v)
	case length < 0:
		length = -length
	}

	if length <= 0 {
		return "", nil
	}
	if isUnicode {
		length *= 2
	}
	if length > r.store.Remaining() {
		return "", fmt.Errorf("%w: 文字列長 %d が残りサイズ %d を超えています", ErrValidation, length, r.store.Remaining())
	}

	buf, err := r.store.ReadBytes(int(length))
	if err != nil {
		return "", err
	}
	r.keys.XOR(buf)

	if isUnicode {
		crypto.RollingXOR16LE(buf, unicodeMask, 1)
		out, err := utf16LE.NewDecoder().Bytes(buf)
		if err != nil {
			return "", fmt.Errorf("%w: UTF-16 の復号: %w", ErrFormat, err)
		}
		return string(out), nil
	}

	crypto.RollingXOR(buf, asciiMask, 1)
	return r.decodeText(buf)
}

// decodeText は8ビット文字列を設定された文字コードで UTF-8 に変換します
func (r *Reader) decodeText(buf []byte) (string, error) {
	if r.charset == encoding.Nop {
		return string(buf), nil
	}
	out, err := r.charset.NewDecoder().Bytes(buf)
	if err != nil {
		return "", fmt.Errorf("%w: 文字コードの変換: %w", ErrFormat, err)
	}
	return string(out), nil
}

// ReadEncodedStringAt は位置 offset の文字列を読み込み、元の位置に戻ります
func (r *Reader) ReadEncodedStringAt(offset int64) (string, error) {
	saved := r.store.Position()
	if err := r.store.Seek(offset); err != nil {
		return "", err
	}
	s, err := r.ReadEncodedString()
	if seekErr := r.store.Seek(saved); err == nil {
		err = seekErr
	}
	return s, err
}

// ReadStringBlock は文字列ブロックを読み込みます。
// 参照型の場合は base からの相対位置にある文字列を読み込みます。
func (r *Reader) ReadStringBlock(base int64) (string, error) {
	kind, err := r.store.ReadUint8()
	if err != nil {
		return "", err
	}
	switch kind {
	case stringInline, stringInlineAlt:
		return r.ReadEncodedString()
	case stringReference, stringReferenceAlt:
		rel, err := r.store.ReadInt32()
		if err != nil {
			return "", err
		}
		return r.ReadEncodedStringAt(base + int64(rel))
	default:
		return "", fmt.Errorf("%w: 文字列ブロックの種類 0x%02X (位置 0x%X)", ErrFormat, kind, r.store.Position()-1)
	}
}

// ReadEncodedBytes は暗号化されたバイトブロックを length バイト分読み込みます。
// 各セグメントは4バイトのサイズを先頭に持ち、キーストリームはセグメントごとに先頭から適用されます。
func (r *Reader) ReadEncodedBytes(length int) ([]byte, error) {
	if length < 0 || int64(length) > r.store.Remaining() {
		return nil, fmt.Errorf("%w: 長さ %d (残り %d)", ErrValidation, length, r.store.Remaining())
	}
	out := make([]byte, 0, length)
	read := 0
	for read < length {
		size, err := r.store.ReadInt32()
		if err != nil {
			return nil, err
		}
		read += 4
		if size < 0 || int(size) > length-read {
			return nil, fmt.Errorf("%w: ブロックサイズ %d (残り %d)", ErrValidation, size, length-read)
		}

		block, err := r.store.ReadBytes(int(size))
		if err != nil {
			return nil, err
		}
		r.keys.XOR(block)
		out = append(out, block...)
		read += int(size)
	}
	return out, nil
}

// ReadOffset は現在位置に格納された難読化オフセットを読み込み、絶対オフセットを返します
func (r *Reader) ReadOffset() (int64, error) {
	if r.header == nil {
		return 0, fmt.Errorf("%w: ヘッダが読み込まれていません", ErrFormat)
	}
	pos := r.store.Position()
	stored, err := r.store.ReadUint32()
	if err != nil {
		return 0, err
	}
	off := crypto.DecodeOffset(uint32(pos), uint32(r.header.DataStart), r.header.Version.Hash, stored)
	return int64(off), nil
}
