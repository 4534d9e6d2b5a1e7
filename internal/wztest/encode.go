package wztest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf16"

	"github.com/shiroemons/go-wzarc/pkg/crypto"
)

func writeLE(buf *bytes.Buffer, v any) {
	if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
		panic(err)
	}
}

// CompressedInt は圧縮整数のバイト列を返します
func (b *Builder) CompressedInt(v int32) []byte {
	if v > math.MinInt8 && v <= math.MaxInt8 {
		return []byte{byte(int8(v))}
	}
	var buf bytes.Buffer
	buf.WriteByte(0x80)
	writeLE(&buf, v)
	return buf.Bytes()
}

// CompressedFloat は圧縮浮動小数点数のバイト列を返します
func (b *Builder) CompressedFloat(v float32) []byte {
	if f := float64(v); f == math.Trunc(f) && f > math.MinInt8 && f <= math.MaxInt8 {
		return []byte{byte(int8(v))}
	}
	var buf bytes.Buffer
	buf.WriteByte(0x80)
	writeLE(&buf, v)
	return buf.Bytes()
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// EncodeString は暗号化された文字列のバイト列を返します。
// ASCII のみの文字列は8ビット形式、それ以外は UTF-16 形式になります。
func (b *Builder) EncodeString(s string) []byte {
	var buf bytes.Buffer
	if s == "" {
		buf.WriteByte(0)
		return buf.Bytes()
	}

	if isASCII(s) {
		n := len(s)
		if n < 128 {
			buf.WriteByte(byte(int8(-n)))
		} else {
			buf.WriteByte(0x80)
			writeLE(&buf, int32(n))
		}
		data := []byte(s)
		crypto.RollingXOR(data, 0xAA, 1)
		b.keyStream().XOR(data)
		buf.Write(data)
		return buf.Bytes()
	}

	units := utf16.Encode([]rune(s))
	if len(units) < 127 {
		buf.WriteByte(byte(len(units)))
	} else {
		buf.WriteByte(127)
		writeLE(&buf, int32(len(units)))
	}
	data := make([]byte, len(units)*2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(data[i*2:], u)
	}
	crypto.RollingXOR16LE(data, 0xAAAA, 1)
	b.keyStream().XOR(data)
	buf.Write(data)
	return buf.Bytes()
}

// EncodedBytes は data を1セグメントの暗号化バイトブロックにします
func (b *Builder) EncodedBytes(data []byte) []byte {
	var buf bytes.Buffer
	writeLE(&buf, int32(len(data)))
	enc := bytes.Clone(data)
	b.keyStream().XOR(enc)
	buf.Write(enc)
	return buf.Bytes()
}

// imageWriter は1つのイメージ本体を書き込みます。
// 文字列ブロックの参照位置はイメージの先頭からの相対位置です。
type imageWriter struct {
	b    *Builder
	buf  bytes.Buffer
	seen map[string]int32
}

// ImageBody はプロパティリストを持つイメージ本体のバイト列を返します
func (b *Builder) ImageBody(props []Prop) []byte {
	w := &imageWriter{b: b, seen: make(map[string]int32)}
	w.buf.WriteByte(0x73)
	w.buf.Write(b.EncodeString("Property"))
	writeLE(&w.buf, uint16(0))
	w.propertyList(props)
	return w.buf.Bytes()
}

// stringBlock は文字列ブロックを書き込みます。2回目以降は最初の位置への参照になります。
func (w *imageWriter) stringBlock(s string, inline, reference byte) {
	if rel, ok := w.seen[s]; ok {
		w.buf.WriteByte(reference)
		writeLE(&w.buf, rel)
		return
	}
	w.buf.WriteByte(inline)
	w.seen[s] = int32(w.buf.Len())
	w.buf.Write(w.b.EncodeString(s))
}

func (w *imageWriter) propertyList(props []Prop) {
	w.buf.Write(w.b.CompressedInt(int32(len(props))))
	for _, p := range props {
		w.stringBlock(p.Name, 0x00, 0x01)
		w.property(p)
	}
}

func (w *imageWriter) code(p Prop, def byte) {
	if p.Code != 0 {
		w.buf.WriteByte(p.Code)
		return
	}
	w.buf.WriteByte(def)
}

func (w *imageWriter) property(p Prop) {
	switch p.Type {
	case Null:
		w.code(p, 0)
	case Short:
		w.code(p, 2)
		writeLE(&w.buf, p.Value.(int16))
	case Int:
		w.code(p, 3)
		w.buf.Write(w.b.CompressedInt(p.Value.(int32)))
	case Float:
		w.code(p, 4)
		w.buf.Write(w.b.CompressedFloat(p.Value.(float32)))
	case Long:
		w.code(p, 20)
		writeLE(&w.buf, p.Value.(int64))
	case Double:
		w.code(p, 5)
		writeLE(&w.buf, p.Value.(float64))
	case String:
		w.code(p, 8)
		w.stringBlock(p.Value.(string), 0x00, 0x01)
	default:
		w.code(p, 9)
		w.extended(p)
	}
}

// extended は拡張エントリを書き込み、先頭のサイズを後から埋めます
func (w *imageWriter) extended(p Prop) {
	sizePos := w.buf.Len()
	writeLE(&w.buf, int32(0))

	switch p.Type {
	case Sub:
		w.stringBlock("Property", 0x73, 0x1B)
		writeLE(&w.buf, int16(0))
		w.propertyList(p.Children)
	case CanvasProp:
		w.stringBlock("Canvas", 0x73, 0x1B)
		w.canvas(p.Canvas)
	case VectorProp:
		w.stringBlock("Shape2D#Vector2D", 0x73, 0x1B)
		v := p.Value.([2]int32)
		w.buf.Write(w.b.CompressedInt(v[0]))
		w.buf.Write(w.b.CompressedInt(v[1]))
	case ConvexProp:
		w.stringBlock("Shape2D#Convex2D", 0x73, 0x1B)
		w.buf.Write(w.b.CompressedInt(0))
	case SoundProp:
		w.stringBlock("Sound_DX8", 0x73, 0x1B)
		w.buf.WriteByte(0)
	case Alias:
		w.stringBlock("UOL", 0x73, 0x1B)
		w.buf.WriteByte(0)
		w.stringBlock(p.Value.(string), 0x00, 0x01)
	case RawExtended:
		w.stringBlock(p.TypeName, 0x73, 0x1B)
	default:
		panic(fmt.Sprintf("wztest: 未対応のプロパティの種類 %d", p.Type))
	}

	out := w.buf.Bytes()
	binary.LittleEndian.PutUint32(out[sizePos:], uint32(len(out)-sizePos-4))
}

func (w *imageWriter) canvas(c *Canvas) {
	if c == nil {
		c = &Canvas{}
	}
	if len(c.Children) > 0 {
		writeLE(&w.buf, uint16(0x0100))
		writeLE(&w.buf, int16(0))
		w.propertyList(c.Children)
	} else {
		writeLE(&w.buf, uint16(0))
	}
	w.buf.Write(w.b.CompressedInt(c.Width))
	w.buf.Write(w.b.CompressedInt(c.Height))
	w.buf.Write(w.b.CompressedInt(c.Format))
	w.buf.WriteByte(byte(c.Scale))
	writeLE(&w.buf, c.Prop)

	data := c.Payload
	if c.Encrypt {
		data = w.b.EncodedBytes(c.Payload)
	}
	writeLE(&w.buf, int32(len(data)+1))
	w.buf.WriteByte(0)
	w.buf.Write(data)
}
