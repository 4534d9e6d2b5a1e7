package crypto

import "math/bits"

// OffsetConstant はオフセット難読化で使われる定数です
const OffsetConstant = 0x581C3F6D

// offsetKey は位置 pos に格納されたオフセットを XOR するための値を計算します
func offsetKey(pos, dataStart, hash uint32) uint32 {
	off := (pos - dataStart) ^ 0xFFFFFFFF
	off *= hash
	off -= OffsetConstant
	return bits.RotateLeft32(off, int(off&0x1F))
}

// DecodeOffset は位置 pos から読み込んだ難読化オフセット stored を絶対オフセットに戻します。
// 演算はすべて 32 ビットの折り返し演算です。
func DecodeOffset(pos, dataStart, hash, stored uint32) uint32 {
	return (offsetKey(pos, dataStart, hash) ^ stored) + dataStart*2
}

// EncodeOffset は DecodeOffset の逆変換です。
// 位置 pos に書き込むべき難読化オフセットを返します。
func EncodeOffset(pos, dataStart, hash, offset uint32) uint32 {
	return (offset - dataStart*2) ^ offsetKey(pos, dataStart, hash)
}
