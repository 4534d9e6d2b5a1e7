package wz

import (
	"strings"
)

const (
	imageTag    = 0x73
	imageMarker = "property"
)

// parseImage はイメージを解析します。
// 先頭がプロパティリストの形式でない場合は子を持たないイメージとして扱います。
func (n *Node) parseImage(r *Reader, set *childSet) error {
	s := r.store
	tag, err := s.ReadUint8()
	if err != nil {
		return err
	}
	if tag != imageTag {
		return nil
	}
	name, err := r.ReadEncodedString()
	if err != nil {
		return err
	}
	if !strings.EqualFold(name, imageMarker) {
		return nil
	}
	marker, err := s.ReadUint16()
	if err != nil {
		return err
	}
	if marker != 0 {
		return nil
	}
	return n.parsePropertyList(r, set)
}
