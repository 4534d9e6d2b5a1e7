package crypto

import (
	"errors"
	"fmt"
	"strconv"
)

// MaxVersion は総当たりで探索する実バージョンの上限です
const MaxVersion = 32767

// ErrVersionNotFound は難読化バージョンに一致する実バージョンが見つからない場合のエラー
var ErrVersionNotFound = errors.New("一致するバージョンが見つかりません")

// VersionHash は実バージョンの10進表記からバージョンハッシュを計算します。
// h = 32*h + 文字コード + 1 を 32 ビットの折り返し演算で繰り返します。
func VersionHash(version uint16) uint32 {
	var hash uint32
	for _, c := range strconv.Itoa(int(version)) {
		hash = 32*hash + uint32(c) + 1
	}
	return hash
}

// ObfuscateHash はバージョンハッシュからヘッダに格納される難読化バージョンを計算します
func ObfuscateHash(hash uint32) uint16 {
	return uint16(0xFF ^ ((hash >> 8) & 0xFF) ^ (hash & 0xFF))
}

// ResolveVersion は難読化バージョンから実バージョンとハッシュを復元します。
// 1 から MaxVersion まで順に探索し、最初に一致したものを返します。
func ResolveVersion(encoded uint16) (uint16, uint32, error) {
	return ResolveVersionAfter(encoded, 0)
}

// ResolveVersionAfter は after より大きい実バージョンから探索を再開します。
// 同じ難読化バージョンを持つ候補が複数ある場合に次の候補を得るために使います。
func ResolveVersionAfter(encoded, after uint16) (uint16, uint32, error) {
	for v := int(after) + 1; v <= MaxVersion; v++ {
		hash := VersionHash(uint16(v))
		if ObfuscateHash(hash) == encoded {
			return uint16(v), hash, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: 0x%04X (%d より後)", ErrVersionNotFound, encoded, after)
}
