package wz

import (
	"fmt"

	"github.com/shiroemons/go-wzarc/pkg/crypto"
)

// Identifier は WZ アーカイブ先頭の識別子です
const Identifier = "PKG1"

// VersionInfo はヘッダのバージョン情報です。
// ObfuscateHash(Hash) == Encoded かつ Hash == VersionHash(Real) が成り立ちます。
type VersionInfo struct {
	Encoded uint16 // ヘッダに格納された難読化バージョン
	Real    uint16 // 復元した実バージョン
	Hash    uint32 // 実バージョンのハッシュ
}

// Header は WZ アーカイブのヘッダです。オープン後は変更されません。
type Header struct {
	Ident     string // 4バイトの識別子 (通常 "PKG1")
	Size      int64  // ヘッダに記録されたサイズ
	DataStart int32  // データ領域の開始位置
	Copyright string // 著作権表示
	Version   VersionInfo
}

// IndexStart はルートディレクトリの開始位置を返します (バージョンの2バイトの直後)
func (h *Header) IndexStart() int64 {
	return int64(h.DataStart) + 2
}

// readHeader はヘッダを読み込み、バージョンを復元します。
// forced が 0 以外の場合は総当たりせずにそのバージョンを使います。
func readHeader(r *Reader, forced uint16) (*Header, error) {
	s := r.store
	if err := s.Seek(0); err != nil {
		return nil, err
	}

	ident, err := s.ReadBytes(4)
	if err != nil {
		return nil, fmt.Errorf("識別子の読み込み: %w", err)
	}
	size, err := s.ReadInt64()
	if err != nil {
		return nil, fmt.Errorf("サイズの読み込み: %w", err)
	}
	dataStart, err := s.ReadInt32()
	if err != nil {
		return nil, fmt.Errorf("データ開始位置の読み込み: %w", err)
	}
	rawCopyright, err := s.ReadNullTerminated()
	if err != nil {
		return nil, fmt.Errorf("著作権表示の読み込み: %w", err)
	}
	copyright, err := r.decodeText(rawCopyright)
	if err != nil {
		return nil, err
	}

	if err := s.Seek(int64(dataStart)); err != nil {
		return nil, err
	}
	encoded, err := s.ReadUint16()
	if err != nil {
		return nil, fmt.Errorf("バージョンの読み込み: %w", err)
	}

	h := &Header{
		Ident:     string(ident),
		Size:      size,
		DataStart: dataStart,
		Copyright: copyright,
		Version:   VersionInfo{Encoded: encoded},
	}

	if forced != 0 {
		h.Version.Real = forced
		h.Version.Hash = crypto.VersionHash(forced)
		return h, nil
	}

	realVersion, hash, err := crypto.ResolveVersion(encoded)
	if err != nil {
		return nil, err
	}
	h.Version.Real = realVersion
	h.Version.Hash = hash
	return h, nil
}

// NextVersion は同じ難読化バージョンを持つ次の実バージョン候補を返します。
// ヘッダ自体は変更しません。
func (h *Header) NextVersion() (VersionInfo, error) {
	realVersion, hash, err := crypto.ResolveVersionAfter(h.Version.Encoded, h.Version.Real)
	if err != nil {
		return VersionInfo{}, err
	}
	return VersionInfo{Encoded: h.Version.Encoded, Real: realVersion, Hash: hash}, nil
}
