package wz

import (
	"fmt"
	"image"
)

const canvasChildrenFlag = 0x0100

// zlib ストリームの先頭2バイト (リトルエンディアンで読んだ値)。
// これらで始まるペイロードは暗号化されていません。
var plainZlibHeaders = map[uint16]bool{
	0x9C78: true,
	0xDA78: true,
	0x0178: true,
	0x5E78: true,
}

// Canvas はキャンバスノードの構造情報です。
// 幅や形式の参照ではペイロードを読み込みません。
type Canvas struct {
	Width  int32
	Height int32
	Format int32
	Scale  int8
	Prop   int32

	node    *Node
	payload int64
}

// CanvasDecoder はキャンバスの生データを画像に復号します
type CanvasDecoder interface {
	DecodeCanvas(c *Canvas, raw []byte) (image.Image, error)
}

// Node はキャンバスのノードを返します
func (c *Canvas) Node() *Node {
	return c.node
}

// PayloadOffset はペイロードの開始位置を返します
func (c *Canvas) PayloadOffset() int64 {
	return c.payload
}

// Raw は圧縮されたままのペイロードを読み込みます。
// 必要であればキーストリームで復号します。呼び出すたびに読み直します。
func (c *Canvas) Raw() ([]byte, error) {
	if c.node == nil || c.node.arc == nil {
		return nil, fmt.Errorf("%w: キャンバスがアーカイブに属していません", ErrFormat)
	}
	r := c.node.arc.reader
	s := r.store
	if err := s.Seek(c.payload); err != nil {
		return nil, err
	}

	length, err := s.ReadInt32()
	if err != nil {
		return nil, err
	}
	length--
	if length < 0 || int64(length) > s.Remaining() {
		return nil, fmt.Errorf("%w: キャンバスのペイロード長 %d (%s)", ErrValidation, length, c.node.FullPath())
	}
	if err := s.Skip(1); err != nil {
		return nil, err
	}
	if length == 0 {
		return []byte{}, nil
	}

	head := s.Position()
	magic, err := s.ReadUint16()
	if err != nil {
		return nil, err
	}
	if err := s.Seek(head); err != nil {
		return nil, err
	}
	if plainZlibHeaders[magic] {
		return s.ReadBytes(int(length))
	}
	return r.ReadEncodedBytes(int(length))
}

// Decode はペイロードを読み込み、dec で画像に復号します。結果はキャッシュされません。
func (c *Canvas) Decode(dec CanvasDecoder) (image.Image, error) {
	raw, err := c.Raw()
	if err != nil {
		return nil, err
	}
	img, err := dec.DecodeCanvas(c, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.node.FullPath(), err)
	}
	return img, nil
}

// parseCanvas はキャンバスの子プロパティと構造情報を解析します
func (n *Node) parseCanvas(r *Reader, set *childSet) (*Canvas, error) {
	s := r.store
	flag, err := s.ReadUint16()
	if err != nil {
		return nil, err
	}
	if flag == canvasChildrenFlag {
		if _, err := s.ReadInt16(); err != nil {
			return nil, err
		}
		if err := n.parsePropertyList(r, set); err != nil {
			return nil, err
		}
	}

	c := &Canvas{node: n}
	if c.Width, err = r.ReadCompressedInt(); err != nil {
		return nil, err
	}
	if c.Height, err = r.ReadCompressedInt(); err != nil {
		return nil, err
	}
	if c.Format, err = r.ReadCompressedInt(); err != nil {
		return nil, err
	}
	if c.Scale, err = s.ReadInt8(); err != nil {
		return nil, err
	}
	if c.Prop, err = s.ReadInt32(); err != nil {
		return nil, err
	}
	c.payload = s.Position()
	return c, nil
}
