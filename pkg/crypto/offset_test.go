package crypto

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeOffset_RoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		pos       uint32
		dataStart uint32
		hash      uint32
	}{
		{name: "典型的なヘッダ", pos: 0x3C + 2 + 17, dataStart: 0x3C, hash: VersionHash(83)},
		{name: "先頭", pos: 0, dataStart: 0, hash: 1},
		{name: "大きな位置", pos: 0xFFFFFFF0, dataStart: 0x40, hash: VersionHash(MaxVersion)},
	}

	rng := rand.New(rand.NewPCG(1, 2))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offsets := []uint32{0, 1, tt.dataStart, math.MaxUint32, 0x80000000}
			for i := 0; i < 2000; i++ {
				offsets = append(offsets, rng.Uint32())
			}
			for _, off := range offsets {
				stored := EncodeOffset(tt.pos, tt.dataStart, tt.hash, off)
				got := DecodeOffset(tt.pos, tt.dataStart, tt.hash, stored)
				if got != off {
					t.Fatalf("offset=0x%08X: got=0x%08X", off, got)
				}
			}
		})
	}
}

func TestDecodeOffset_Steps(t *testing.T) {
	pos, dataStart, hash := uint32(0x50), uint32(0x3C), uint32(1876)

	// 手順どおりに計算した値と一致することを確認
	off := (pos - dataStart) ^ 0xFFFFFFFF
	off *= hash
	off -= OffsetConstant
	shift := off & 0x1F
	off = (off << shift) | (off >> ((32 - shift) & 0x1F))
	off ^= 0x12345678
	off += dataStart * 2

	assert.Equal(t, off, DecodeOffset(pos, dataStart, hash, 0x12345678))
}
