package wz

import (
	"fmt"
)

// ディレクトリエントリの種類
const (
	entrySkip      = 0x01
	entryReference = 0x02
	entryDirectory = 0x03
	entryImage     = 0x04
)

// parseDirectory はディレクトリのエントリ一覧を解析します
func (n *Node) parseDirectory(r *Reader, set *childSet) error {
	s := r.store
	count, err := r.ReadCompressedInt()
	if err != nil {
		return fmt.Errorf("エントリ数の読み込み: %w", err)
	}
	if count < 0 {
		return fmt.Errorf("%w: エントリ数 %d", ErrValidation, count)
	}

	for i := int32(0); i < count; i++ {
		tag, err := s.ReadUint8()
		if err != nil {
			return err
		}

		var name string
		switch tag {
		case entrySkip:
			if err := s.Skip(4 + 2); err != nil {
				return err
			}
			if _, err := r.ReadOffset(); err != nil {
				return err
			}
			continue

		case entryReference:
			rel, err := s.ReadInt32()
			if err != nil {
				return err
			}
			back := s.Position()
			if err := s.Seek(int64(r.header.DataStart) + int64(rel)); err != nil {
				return err
			}
			if tag, err = s.ReadUint8(); err != nil {
				return err
			}
			if name, err = r.ReadEncodedString(); err != nil {
				return err
			}
			if err := s.Seek(back); err != nil {
				return err
			}

		case entryDirectory, entryImage:
			if name, err = r.ReadEncodedString(); err != nil {
				return err
			}

		default:
			return fmt.Errorf("%w: ディレクトリエントリの種類 0x%02X (位置 0x%X)", ErrFormat, tag, s.Position()-1)
		}

		var kind Kind
		switch tag {
		case entryDirectory:
			kind = KindDirectory
		case entryImage:
			kind = KindImage
		default:
			return fmt.Errorf("%w: 参照先のエントリの種類 0x%02X (%s)", ErrFormat, tag, name)
		}

		size, err := r.ReadCompressedInt()
		if err != nil {
			return err
		}
		checksum, err := r.ReadCompressedInt()
		if err != nil {
			return err
		}
		offset, err := r.ReadOffset()
		if err != nil {
			return err
		}

		child := newNode(kind, name, offset)
		child.blockSize = size
		child.checksum = checksum
		set.add(n, child)
	}
	return nil
}
