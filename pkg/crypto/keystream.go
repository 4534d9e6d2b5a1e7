// Package crypto は WZ アーカイブで使用される暗号化・難読化アルゴリズムを提供します。
//
// 主な機能:
//   - KeyStream: AES-256 ECB の連鎖暗号で生成される XOR 用キーストリーム
//   - ResolveVersion: 難読化されたバージョン番号の総当たり復元
//   - DecodeOffset: ディレクトリエントリのオフセット難読化の解除
//   - RollingXOR: 文字列マスク用の XOR
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
	"slices"
	"sync"
)

const (
	// BlockSize はキーストリームを生成するブロックの大きさです
	BlockSize = aes.BlockSize

	// KeyBatchSize はキーストリームを一度に拡張する単位です (BlockSize の倍数)
	KeyBatchSize = 4096
)

var (
	// ErrInvalidIV は IV の長さが不正な場合のエラー
	ErrInvalidIV = errors.New("IV の長さが不正です")

	// ErrInvalidKey は AES キーが不正な場合のエラー
	ErrInvalidKey = errors.New("AES キーが不正です")

	// ErrInvalidIndex はキーストリームの位置が負の場合のエラー
	ErrInvalidIndex = errors.New("キーストリームの位置が不正です")
)

// DefaultUserKey はクライアントに埋め込まれている 128 バイトのユーザーキーです
var DefaultUserKey = [128]byte{
	0x13, 0x00, 0x00, 0x00, 0x52, 0x00, 0x00, 0x00, 0x2A, 0x00, 0x00, 0x00, 0x5B, 0x00, 0x00, 0x00,
	0x08, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00, 0x60, 0x00, 0x00, 0x00,
	0x06, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00, 0x43, 0x00, 0x00, 0x00, 0x0F, 0x00, 0x00, 0x00,
	0xB4, 0x00, 0x00, 0x00, 0x4B, 0x00, 0x00, 0x00, 0x35, 0x00, 0x00, 0x00, 0x05, 0x00, 0x00, 0x00,
	0x1B, 0x00, 0x00, 0x00, 0x0A, 0x00, 0x00, 0x00, 0x5F, 0x00, 0x00, 0x00, 0x09, 0x00, 0x00, 0x00,
	0x0F, 0x00, 0x00, 0x00, 0x50, 0x00, 0x00, 0x00, 0x0C, 0x00, 0x00, 0x00, 0x1B, 0x00, 0x00, 0x00,
	0x33, 0x00, 0x00, 0x00, 0x55, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x09, 0x00, 0x00, 0x00,
	0x52, 0x00, 0x00, 0x00, 0xDE, 0x00, 0x00, 0x00, 0xC7, 0x00, 0x00, 0x00, 0x1E, 0x00, 0x00, 0x00,
}

// TrimUserKey は 128 バイトのユーザーキーから AES-256 キーを取り出します。
// 16 バイトごとの先頭バイトを 4 バイト間隔で配置し、残りは 0 のままです。
func TrimUserKey(userKey [128]byte) [32]byte {
	var key [32]byte
	for i := 0; i < len(userKey); i += 16 {
		key[i/4] = userKey[i]
	}
	return key
}

// KeyStream は IV と秘密鍵から導出される XOR 用のキーストリームです。
//
// ブロック0は IV で埋めた 16 バイトを AES-ECB で暗号化したもの、
// ブロック n+1 はブロック n を暗号化したものです。
// 必要になった時点で KeyBatchSize 単位で拡張され、生成済みの部分は変更されません。
// 複数のゴルーチンから共有できます。
type KeyStream struct {
	mu    sync.RWMutex
	block cipher.Block // nil の場合はすべて 0 のキーストリーム
	keys  []byte
}

// NewZeroKeyStream はすべてのバイトが 0 のキーストリームを作成します。
// 文字列を暗号化していない旧クライアント (Classic) のアーカイブで使います。
func NewZeroKeyStream() *KeyStream {
	return &KeyStream{}
}

// NewKeyStream は新しい KeyStream を作成します。
// iv は 1〜16 バイトで、16 バイトに満たない場合は繰り返して種ブロックを作ります。
func NewKeyStream(iv, key []byte) (*KeyStream, error) {
	if len(iv) == 0 || len(iv) > BlockSize {
		return nil, fmt.Errorf("%w: %d バイト", ErrInvalidIV, len(iv))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}

	seed := make([]byte, BlockSize)
	for i := range seed {
		seed[i] = iv[i%len(iv)]
	}
	keys := make([]byte, BlockSize)
	block.Encrypt(keys, seed)

	return &KeyStream{block: block, keys: keys}, nil
}

// At は index 番目のキーバイトを符号付きで返します
func (k *KeyStream) At(index int64) (int8, error) {
	b, err := k.ByteAt(index)
	return int8(b), err
}

// ByteAt は index 番目のキーバイトを返します
func (k *KeyStream) ByteAt(index int64) (byte, error) {
	if index < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	k.expandTo(index + 1)
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.keys[index], nil
}

// XOR は data[i] をキーストリームの i 番目のバイトで XOR します
func (k *KeyStream) XOR(data []byte) {
	if len(data) == 0 {
		return
	}
	k.expandTo(int64(len(data)))
	k.mu.RLock()
	defer k.mu.RUnlock()
	for i := range data {
		data[i] ^= k.keys[i]
	}
}

// Len は生成済みのキーストリームの長さを返します
func (k *KeyStream) Len() int64 {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return int64(len(k.keys))
}

// expandTo はキーストリームを少なくとも size バイトまで拡張します
func (k *KeyStream) expandTo(size int64) {
	k.mu.RLock()
	current := int64(len(k.keys))
	k.mu.RUnlock()
	if current >= size {
		return
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	start := int64(len(k.keys))
	if start >= size {
		return
	}

	// KeyBatchSize の倍数に切り上げる
	newSize := (size + KeyBatchSize - 1) / KeyBatchSize * KeyBatchSize
	if k.block == nil {
		k.keys = append(k.keys, make([]byte, newSize-start)...)
		return
	}
	keys := slices.Grow(k.keys, int(newSize-start))[:newSize]

	// 直前のブロックを暗号化して次のブロックを作る
	for i := start; i < newSize; i += BlockSize {
		k.block.Encrypt(keys[i:i+BlockSize], keys[i-BlockSize:i])
	}
	k.keys = keys
}
