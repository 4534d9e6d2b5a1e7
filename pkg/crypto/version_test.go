package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionHash(t *testing.T) {
	tests := []struct {
		name    string
		version uint16
		want    uint32
	}{
		{name: "1桁", version: 1, want: '1' + 1},
		{name: "2桁", version: 83, want: 1876},
		{name: "上限", version: MaxVersion, want: 56256280},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VersionHash(tt.version))
		})
	}
}

func TestObfuscateHash(t *testing.T) {
	assert.Equal(t, uint16(0xAC), ObfuscateHash(1876))
	assert.Equal(t, uint16(0xFF), ObfuscateHash(0))
	// 上位16ビットは結果に影響しない
	assert.Equal(t, ObfuscateHash(0x1234), ObfuscateHash(0xFFFF1234))
}

func TestResolveVersion_AllVersions(t *testing.T) {
	// 各難読化バージョンについて最初に現れる実バージョンを求めておく
	first := make(map[uint16]uint16)
	for v := 1; v <= MaxVersion; v++ {
		code := ObfuscateHash(VersionHash(uint16(v)))
		if _, ok := first[code]; !ok {
			first[code] = uint16(v)
		}
	}

	for code, want := range first {
		got, hash, err := ResolveVersion(code)
		require.NoError(t, err)
		assert.Equal(t, want, got, "code=0x%02X", code)
		assert.Equal(t, VersionHash(got), hash)
	}

	for v := 1; v <= MaxVersion; v++ {
		code := ObfuscateHash(VersionHash(uint16(v)))
		if first[code] > uint16(v) {
			t.Fatalf("version %d: first match %d is greater", v, first[code])
		}
	}
}

func TestResolveVersionAfter(t *testing.T) {
	target := uint16(176)
	code := ObfuscateHash(VersionHash(target))

	// 候補を順にたどると目的のバージョンに到達する
	var got uint16
	for {
		v, hash, err := ResolveVersionAfter(code, got)
		require.NoError(t, err)
		assert.Equal(t, code, ObfuscateHash(hash))
		got = v
		if v >= target {
			break
		}
	}
	assert.Equal(t, target, got)
}

func TestResolveVersion_NotFound(t *testing.T) {
	// ObfuscateHash は常に 0xFF 以下
	_, _, err := ResolveVersion(0x1234)
	assert.ErrorIs(t, err, ErrVersionNotFound)

	_, _, err = ResolveVersionAfter(ObfuscateHash(VersionHash(1)), MaxVersion)
	assert.ErrorIs(t, err, ErrVersionNotFound)
}
