package crypto

import "encoding/binary"

// RollingXOR はデータストリームの各バイトをキーで XOR し、1バイトごとにキーへ step を加算します。
// 更新後のキーを返します。
func RollingXOR(data []byte, key, step byte) byte {
	currentKey := key
	for i := range data {
		data[i] ^= currentKey
		currentKey += step
	}
	return currentKey
}

// RollingXOR16LE はデータを16ビットリトルエンディアンの単位列とみなし、
// 各単位をキーで XOR して単位ごとにキーへ step を加算します。
// 奇数長の場合、末尾の1バイトは処理しません。
func RollingXOR16LE(data []byte, key, step uint16) uint16 {
	currentKey := key
	for i := 0; i+1 < len(data); i += 2 {
		unit := binary.LittleEndian.Uint16(data[i:])
		binary.LittleEndian.PutUint16(data[i:], unit^currentKey)
		currentKey += step
	}
	return currentKey
}
