package crypto

import (
	"crypto/aes"
	"encoding/hex"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func keyAt(t *testing.T, ks *KeyStream, index int64) byte {
	t.Helper()
	b, err := ks.ByteAt(index)
	require.NoError(t, err)
	return b
}

func TestKeyStream_KnownVector(t *testing.T) {
	// FIPS-197 の AES-256 テストベクタ
	iv := mustHex(t, "00112233445566778899aabbccddeeff")
	key := mustHex(t, "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")

	ks, err := NewKeyStream(iv, key)
	require.NoError(t, err)

	want := mustHex(t, "8ea2b7ca516745bfeafc49904b496089")
	for i, b := range want {
		assert.Equal(t, b, keyAt(t, ks, int64(i)), "index=%d", i)
	}
	signed, err := ks.At(0)
	require.NoError(t, err)
	assert.Equal(t, int8(-114), signed) // 0x8E
}

func TestKeyStream_Chain(t *testing.T) {
	iv := []byte{0x4D, 0x23, 0xC7, 0x2B}
	key := TrimUserKey(DefaultUserKey)

	ks, err := NewKeyStream(iv, key[:])
	require.NoError(t, err)

	// 期待値を AES で直接計算する
	block, err := aes.NewCipher(key[:])
	require.NoError(t, err)
	prev := make([]byte, BlockSize)
	for i := range prev {
		prev[i] = iv[i%len(iv)]
	}
	expected := make([]byte, 0, BlockSize*300)
	for len(expected) < BlockSize*300 {
		next := make([]byte, BlockSize)
		block.Encrypt(next, prev)
		expected = append(expected, next...)
		prev = next
	}

	// 後ろから参照しても前から参照しても同じ値になる
	for i := len(expected) - 1; i >= 0; i -= 7 {
		assert.Equal(t, expected[i], keyAt(t, ks, int64(i)), "index=%d", i)
	}
	for i := range expected {
		if expected[i] != keyAt(t, ks, int64(i)) {
			t.Fatalf("index=%d: got=0x%02X, want=0x%02X", i, keyAt(t, ks, int64(i)), expected[i])
		}
	}
}

func TestKeyStream_Deterministic(t *testing.T) {
	key := TrimUserKey(DefaultUserKey)
	ks1, err := NewKeyStream([]byte{0xB9, 0x7D, 0x63, 0xE9}, key[:])
	require.NoError(t, err)
	ks2, err := NewKeyStream([]byte{0xB9, 0x7D, 0x63, 0xE9}, key[:])
	require.NoError(t, err)

	first := keyAt(t, ks1, 10000)
	assert.Equal(t, first, keyAt(t, ks1, 10000))
	assert.Equal(t, first, keyAt(t, ks2, 10000))
	assert.Zero(t, ks1.Len()%KeyBatchSize)
}

func TestKeyStream_LargeIndex(t *testing.T) {
	key := TrimUserKey(DefaultUserKey)
	ks, err := NewKeyStream([]byte{1, 2, 3, 4}, key[:])
	require.NoError(t, err)

	// 大きなインデックスでもパニックしないことを確認
	_ = keyAt(t, ks, 1<<20)
	assert.GreaterOrEqual(t, ks.Len(), int64(1<<20)+1)
}

func TestKeyStream_XOR(t *testing.T) {
	key := TrimUserKey(DefaultUserKey)
	ks, err := NewKeyStream([]byte{1, 2, 3, 4}, key[:])
	require.NoError(t, err)

	data := make([]byte, 40)
	ks.XOR(data)
	for i := range data {
		assert.Equal(t, keyAt(t, ks, int64(i)), data[i])
	}

	// 2回適用すると元に戻る
	ks.XOR(data)
	assert.Equal(t, make([]byte, 40), data)
}

func TestKeyStream_Concurrent(t *testing.T) {
	key := TrimUserKey(DefaultUserKey)
	ks, err := NewKeyStream([]byte{1, 2, 3, 4}, key[:])
	require.NoError(t, err)
	ref, err := NewKeyStream([]byte{1, 2, 3, 4}, key[:])
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := int64(w); i < 50000; i += 997 {
				_, _ = ks.ByteAt(i)
			}
		}(w)
	}
	wg.Wait()

	for i := int64(0); i < 50000; i += 331 {
		assert.Equal(t, keyAt(t, ref, i), keyAt(t, ks, i))
	}
}

func TestNewKeyStream_Invalid(t *testing.T) {
	key := TrimUserKey(DefaultUserKey)

	_, err := NewKeyStream(nil, key[:])
	assert.ErrorIs(t, err, ErrInvalidIV)

	_, err = NewKeyStream(make([]byte, 17), key[:])
	assert.ErrorIs(t, err, ErrInvalidIV)

	_, err = NewKeyStream([]byte{1, 2, 3, 4}, []byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestTrimUserKey(t *testing.T) {
	key := TrimUserKey(DefaultUserKey)

	assert.Equal(t, byte(0x13), key[0])
	assert.Equal(t, byte(0x08), key[4])
	assert.Equal(t, byte(0x52), key[28])
	for i, b := range key {
		if i%4 != 0 {
			assert.Zero(t, b, "index=%d", i)
		}
	}
}

func TestKeyStream_NegativeIndex(t *testing.T) {
	key := TrimUserKey(DefaultUserKey)
	ks, err := NewKeyStream([]byte{1, 2, 3, 4}, key[:])
	require.NoError(t, err)

	tests := []struct {
		name  string
		index int64
	}{
		{name: "-1", index: -1},
		{name: "最小値", index: math.MinInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ks.ByteAt(tt.index)
			assert.ErrorIs(t, err, ErrInvalidIndex)
			_, err = ks.At(tt.index)
			assert.ErrorIs(t, err, ErrInvalidIndex)
		})
	}
	assert.Zero(t, ks.Len()-BlockSize)
}

func TestZeroKeyStream(t *testing.T) {
	ks := NewZeroKeyStream()

	for _, i := range []int64{0, 15, 16, KeyBatchSize, KeyBatchSize*3 + 7} {
		assert.Equal(t, byte(0), keyAt(t, ks, i), "index=%d", i)
	}
	assert.Zero(t, ks.Len()%KeyBatchSize)

	// XOR しても変化しない
	data := []byte("Classic")
	ks.XOR(data)
	assert.Equal(t, []byte("Classic"), data)
}
