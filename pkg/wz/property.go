package wz

import (
	"fmt"
)

// プロパティの型コード
const (
	propNull     = 0
	propShort    = 2
	propShortAlt = 11
	propInt      = 3
	propIntAlt   = 19
	propFloat    = 4
	propDouble   = 5
	propString   = 8
	propExtended = 9
	propLong     = 20
)

// 拡張エントリの型名
const (
	extProperty = "Property"
	extCanvas   = "Canvas"
	extVector   = "Shape2D#Vector2D"
	extConvex   = "Shape2D#Convex2D"
	extSound    = "Sound_DX8"
	extAlias    = "UOL"
)

// parseProperty はネストしたプロパティリストを解析します
func (n *Node) parseProperty(r *Reader, set *childSet) error {
	if _, err := r.store.ReadInt16(); err != nil {
		return err
	}
	return n.parsePropertyList(r, set)
}

// parsePropertyList は現在位置のプロパティリストを解析します。
// 文字列ブロックの参照は最も近いイメージの位置を基準にします。
func (n *Node) parsePropertyList(r *Reader, set *childSet) error {
	img := n.image()
	if img == nil {
		return fmt.Errorf("%w: %s の親イメージが見つかりません", ErrFormat, n.FullPath())
	}
	base := img.offset
	s := r.store

	count, err := r.ReadCompressedInt()
	if err != nil {
		return fmt.Errorf("プロパティ数の読み込み: %w", err)
	}
	if count < 0 {
		return fmt.Errorf("%w: プロパティ数 %d", ErrValidation, count)
	}

	for i := int32(0); i < count; i++ {
		label, err := r.ReadStringBlock(base)
		if err != nil {
			return err
		}
		code, err := s.ReadUint8()
		if err != nil {
			return err
		}

		var child *Node
		switch code {
		case propNull:
			child = newValue(KindNull, label, nil)
		case propShort, propShortAlt:
			v, err := s.ReadInt16()
			if err != nil {
				return err
			}
			child = newValue(KindShort, label, v)
		case propInt, propIntAlt:
			v, err := r.ReadCompressedInt()
			if err != nil {
				return err
			}
			child = newValue(KindInt, label, v)
		case propFloat:
			v, err := r.ReadCompressedFloat()
			if err != nil {
				return err
			}
			child = newValue(KindFloat, label, v)
		case propLong:
			v, err := s.ReadInt64()
			if err != nil {
				return err
			}
			child = newValue(KindLong, label, v)
		case propDouble:
			v, err := s.ReadFloat64()
			if err != nil {
				return err
			}
			child = newValue(KindDouble, label, v)
		case propString:
			v, err := r.ReadStringBlock(base)
			if err != nil {
				return err
			}
			child = newValue(KindString, label, v)
		case propExtended:
			start := s.Position()
			size, err := s.ReadInt32()
			if err != nil {
				return err
			}
			if size < 0 {
				return fmt.Errorf("%w: 拡張エントリのサイズ %d (%s)", ErrValidation, size, label)
			}
			if child, err = readExtended(r, base, label); err != nil {
				return err
			}
			if err := s.Seek(start + int64(size) + 4); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: プロパティの型 %d (%s/%s)", ErrFormat, code, n.FullPath(), label)
		}
		set.add(n, child)
	}
	return nil
}

// readExtended は拡張エントリの型名を読み、対応するノードを作成します。
// 入れ子のプロパティやキャンバスは型名の直後の位置から後で解析されます。
func readExtended(r *Reader, base int64, label string) (*Node, error) {
	typeName, err := r.ReadStringBlock(base)
	if err != nil {
		return nil, err
	}
	start := r.store.Position()

	switch typeName {
	case extProperty:
		return newNode(KindProperty, label, start), nil
	case extCanvas:
		return newNode(KindCanvas, label, start), nil
	case extConvex:
		return newNode(KindConvex, label, start), nil
	case extSound:
		return newNode(KindSound, label, start), nil
	case extVector:
		x, err := r.ReadCompressedInt()
		if err != nil {
			return nil, err
		}
		y, err := r.ReadCompressedInt()
		if err != nil {
			return nil, err
		}
		return newValue(KindVector, label, Vector{X: x, Y: y}), nil
	case extAlias:
		if _, err := r.store.ReadUint8(); err != nil {
			return nil, err
		}
		path, err := r.ReadStringBlock(base)
		if err != nil {
			return nil, err
		}
		return newValue(KindAlias, label, path), nil
	default:
		return nil, fmt.Errorf("%w: 拡張エントリの型名 %q (%s)", ErrFormat, typeName, label)
	}
}
