package config

import (
	_ "embed"
	"encoding/hex"
	"fmt"
	"maps"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shiroemons/go-wzarc/pkg/crypto"
)

// DefaultKeyName は既定の鍵を表すキー名です
const DefaultKeyName = "default"

// キーストリームの種類
const (
	KeyStreamAES  = "aes"
	KeyStreamZero = "zero"
)

//go:embed presets.yaml
var builtinPresets []byte

// Preset は地域ごとの IV と鍵です
type Preset struct {
	IV  string `yaml:"iv"`
	Key string `yaml:"key"`
	// KeyStream が zero の場合は文字列を暗号化していないアーカイブとして扱います
	KeyStream string `yaml:"keystream"`
}

// Presets は地域名からプリセットへの対応です
type Presets map[string]Preset

type presetFile struct {
	Presets Presets `yaml:"presets"`
}

// LoadPresets は組み込みのプリセットに extra の内容を重ねて返します。
// extra が空の場合は組み込みのプリセットだけを返します。
func LoadPresets(extra []byte) (Presets, error) {
	var base presetFile
	if err := yaml.Unmarshal(builtinPresets, &base); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPresets, err)
	}
	if len(extra) == 0 {
		return base.Presets, nil
	}

	var more presetFile
	if err := yaml.Unmarshal(extra, &more); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPresets, err)
	}
	for name, p := range more.Presets {
		base.Presets[strings.ToLower(name)] = p
	}
	return base.Presets, nil
}

// Names はプリセット名を昇順で返します
func (p Presets) Names() []string {
	return slices.Sorted(maps.Keys(p))
}

// Resolve は地域 region のプリセットから IV と鍵を返します。
// iv や key が空でない場合はプリセットより優先します。
func (p Presets) Resolve(region, iv, key string) ([]byte, []byte, error) {
	if iv == "" || key == "" {
		preset, ok := p[strings.ToLower(region)]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %q (%s)", ErrUnknownRegion, region, strings.Join(p.Names(), ", "))
		}
		if iv == "" {
			iv = preset.IV
		}
		if key == "" {
			key = preset.Key
		}
	}

	ivBytes, err := hex.DecodeString(iv)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: IV %q: %w", ErrInvalidHex, iv, err)
	}
	keyBytes, err := ParseKey(key)
	if err != nil {
		return nil, nil, err
	}
	return ivBytes, keyBytes, nil
}

// KeyStream は地域 region のプリセットが IV と鍵から導出しないキーストリームを使う場合に、
// そのキーストリームを返します。iv が指定された場合や AES の場合は nil です。
func (p Presets) KeyStream(region, iv string) (*crypto.KeyStream, error) {
	if iv != "" {
		return nil, nil
	}
	preset, ok := p[strings.ToLower(region)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (%s)", ErrUnknownRegion, region, strings.Join(p.Names(), ", "))
	}
	switch strings.ToLower(preset.KeyStream) {
	case "", KeyStreamAES:
		return nil, nil
	case KeyStreamZero:
		return crypto.NewZeroKeyStream(), nil
	default:
		return nil, fmt.Errorf("%w: %s: キーストリーム %q", ErrInvalidPresets, region, preset.KeyStream)
	}
}

// ParseKey は16進数の鍵を読み込みます。default の場合は既定の鍵を返します。
func ParseKey(s string) ([]byte, error) {
	if strings.EqualFold(s, DefaultKeyName) {
		k := crypto.TrimUserKey(crypto.DefaultUserKey)
		return k[:], nil
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: 鍵: %w", ErrInvalidHex, err)
	}
	return b, nil
}
