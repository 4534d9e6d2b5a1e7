// Package wztest はテスト用の WZ アーカイブを組み立てるパッケージです。
//
// 読み込み側と同じ暗号化・オフセット難読化を逆向きに適用し、
// ディレクトリ・イメージ・プロパティの木からアーカイブのバイト列を生成します。
package wztest

import (
	"bytes"
	"encoding/binary"

	"github.com/shiroemons/go-wzarc/pkg/crypto"
)

// テスト用の IV と鍵
var (
	IV  = []byte{0x4D, 0x23, 0xC7, 0x2B}
	Key = func() []byte {
		k := crypto.TrimUserKey(crypto.DefaultUserKey)
		return k[:]
	}()
)

// DefaultVersion は総当たりで一意に復元できる実バージョンです
const DefaultVersion = 83

// Dir はディレクトリです
type Dir struct {
	Name   string
	Dirs   []*Dir
	Images []*Image

	// ByReference が true の場合、エントリ名を文字列領域への参照として書き込みます
	ByReference bool
	// Placeholders は先頭に書き込むスキップ用エントリの数です
	Placeholders int
}

// Image はイメージです
type Image struct {
	Name  string
	Props []Prop

	// Body が nil でない場合はプロパティの代わりにそのまま書き込みます
	Body []byte
	// Checksum はディレクトリエントリに書き込むチェックサムです
	Checksum int32
}

// PropType はプロパティの種類です
type PropType int

// プロパティの種類
const (
	Null PropType = iota
	Short
	Int
	Float
	Long
	Double
	String
	Sub
	CanvasProp
	VectorProp
	ConvexProp
	SoundProp
	Alias
	RawExtended
)

// Prop はプロパティリストの1エントリです
type Prop struct {
	Name     string
	Type     PropType
	Value    any
	Children []Prop

	// Canvas は CanvasProp の内容です
	Canvas *Canvas
	// TypeName は RawExtended で書き込む型名です
	TypeName string
	// Code が 0 以外の場合は型コードを上書きします (11, 19 などの別コード用)
	Code byte
}

// Canvas はキャンバスの内容です
type Canvas struct {
	Width, Height, Format int32
	Scale                 int8
	Prop                  int32
	Children              []Prop

	// Payload は圧縮済みの画像データです。Encrypt が true の場合はキーストリームで暗号化します。
	Payload []byte
	Encrypt bool
}

// ヘルパー

// P は型と値からプロパティを作成します
func P(name string, typ PropType, value any) Prop {
	return Prop{Name: name, Type: typ, Value: value}
}

// S はネストしたプロパティを作成します
func S(name string, children ...Prop) Prop {
	return Prop{Name: name, Type: Sub, Children: children}
}

// Builder はアーカイブを組み立てます
type Builder struct {
	IV        []byte
	Key       []byte
	Version   uint16
	Copyright string
	// Keys が nil でない場合は IV と鍵の代わりに使います
	Keys *crypto.KeyStream

	keys *crypto.KeyStream
}

// keyStream は IV と鍵からキーストリームを作成します。不正な IV や鍵の場合は panic します。
func (b *Builder) keyStream() *crypto.KeyStream {
	if b.Keys != nil {
		return b.Keys
	}
	if b.keys == nil {
		keys, err := crypto.NewKeyStream(b.IV, b.Key)
		if err != nil {
			panic(err)
		}
		b.keys = keys
	}
	return b.keys
}

// New はテスト用の既定値で Builder を作成します
func New() *Builder {
	return &Builder{IV: IV, Key: Key, Version: DefaultVersion, Copyright: "Package file v1.0 Copyright 2002 Wizet, ZMS"}
}

// EncodedVersion はヘッダに書き込む難読化バージョンを返します
func (b *Builder) EncodedVersion() uint16 {
	return crypto.ObfuscateHash(crypto.VersionHash(b.Version))
}

type fixup struct {
	pos    int
	target *int
}

type layout struct {
	buf       bytes.Buffer
	dataStart int
	hash      uint32
	offsets   []fixup
	relatives []fixup
}

// Build は root をルートディレクトリとするアーカイブのバイト列を返します
func (b *Builder) Build(root *Dir) ([]byte, error) {
	if b.Keys == nil {
		if _, err := crypto.NewKeyStream(b.IV, b.Key); err != nil {
			return nil, err
		}
	}

	l := &layout{hash: crypto.VersionHash(b.Version)}
	l.buf.WriteString("PKG1")
	sizePos := l.buf.Len()
	writeLE(&l.buf, int64(0))
	dataStartPos := l.buf.Len()
	writeLE(&l.buf, int32(0))
	l.buf.WriteString(b.Copyright)
	l.buf.WriteByte(0)
	l.dataStart = l.buf.Len()
	writeLE(&l.buf, b.EncodedVersion())

	type pendingImage struct {
		body []byte
		at   *int
	}
	var images []pendingImage
	type pendingName struct {
		tag  byte
		name string
		at   *int
	}
	var names []pendingName

	dirTargets := make(map[*Dir]*int)
	queue := []*Dir{root}
	for len(queue) > 0 {
		dir := queue[0]
		queue = queue[1:]
		if at, ok := dirTargets[dir]; ok {
			*at = l.buf.Len()
		}

		count := len(dir.Dirs) + len(dir.Images) + dir.Placeholders
		l.buf.Write(b.CompressedInt(int32(count)))
		for range dir.Placeholders {
			l.buf.WriteByte(0x01)
			writeLE(&l.buf, int32(0))
			writeLE(&l.buf, int16(0))
			writeLE(&l.buf, uint32(0))
		}

		entry := func(tag byte, name string, size, checksum int32) *int {
			if dir.ByReference {
				at := new(int)
				l.buf.WriteByte(0x02)
				l.relatives = append(l.relatives, fixup{pos: l.buf.Len(), target: at})
				writeLE(&l.buf, int32(0))
				names = append(names, pendingName{tag: tag, name: name, at: at})
			} else {
				l.buf.WriteByte(tag)
				l.buf.Write(b.EncodeString(name))
			}
			l.buf.Write(b.CompressedInt(size))
			l.buf.Write(b.CompressedInt(checksum))
			target := new(int)
			l.offsets = append(l.offsets, fixup{pos: l.buf.Len(), target: target})
			writeLE(&l.buf, uint32(0))
			return target
		}

		for _, sub := range dir.Dirs {
			dirTargets[sub] = entry(0x03, sub.Name, 0, 0)
			queue = append(queue, sub)
		}
		for _, img := range dir.Images {
			body := img.Body
			if body == nil {
				body = b.ImageBody(img.Props)
			}
			at := entry(0x04, img.Name, int32(len(body)), img.Checksum)
			images = append(images, pendingImage{body: body, at: at})
		}
	}

	for _, n := range names {
		*n.at = l.buf.Len()
		l.buf.WriteByte(n.tag)
		l.buf.Write(b.EncodeString(n.name))
	}
	for _, img := range images {
		*img.at = l.buf.Len()
		l.buf.Write(img.body)
	}

	out := l.buf.Bytes()
	for _, f := range l.offsets {
		stored := crypto.EncodeOffset(uint32(f.pos), uint32(l.dataStart), l.hash, uint32(*f.target))
		binary.LittleEndian.PutUint32(out[f.pos:], stored)
	}
	for _, f := range l.relatives {
		binary.LittleEndian.PutUint32(out[f.pos:], uint32(int32(*f.target-l.dataStart)))
	}
	binary.LittleEndian.PutUint64(out[sizePos:], uint64(len(out)-l.dataStart))
	binary.LittleEndian.PutUint32(out[dataStartPos:], uint32(l.dataStart))
	return out, nil
}
