// Package models は wzarc コマンドで使用するデータモデルを定義します
package models

// ExportNode はダンプ用に変換したノードを表します
type ExportNode struct {
	Label    string        `json:"label" yaml:"label" cbor:"label"`
	Kind     string        `json:"kind" yaml:"kind" cbor:"kind"`
	Value    any           `json:"value,omitempty" yaml:"value,omitempty" cbor:"value,omitempty"`
	Alias    string        `json:"alias,omitempty" yaml:"alias,omitempty" cbor:"alias,omitempty"`
	Canvas   *CanvasInfo   `json:"canvas,omitempty" yaml:"canvas,omitempty" cbor:"canvas,omitempty"`
	Error    string        `json:"error,omitempty" yaml:"error,omitempty" cbor:"error,omitempty"`
	Children []*ExportNode `json:"children,omitempty" yaml:"children,omitempty" cbor:"children,omitempty"`
}

// Vector は2次元ベクトルを表します
type Vector struct {
	X int32 `json:"x" yaml:"x" cbor:"x"`
	Y int32 `json:"y" yaml:"y" cbor:"y"`
}

// CanvasInfo はキャンバスの構造情報を表します
type CanvasInfo struct {
	Width  int32 `json:"width" yaml:"width" cbor:"width"`
	Height int32 `json:"height" yaml:"height" cbor:"height"`
	Format int32 `json:"format" yaml:"format" cbor:"format"`
	Scale  int8  `json:"scale" yaml:"scale" cbor:"scale"`
}

// ManifestEntry は抽出した1つの画像を表します
type ManifestEntry struct {
	Path   string `yaml:"path"`   // アーカイブ内のパス
	File   string `yaml:"file"`   // 出力ディレクトリからの相対パス
	Width  int32  `yaml:"width"`
	Height int32  `yaml:"height"`
	Format int32  `yaml:"format"`
	Size   int    `yaml:"size"`   // PNG のバイト数
	Digest string `yaml:"blake3"` // PNG の BLAKE3 ダイジェスト
}

// Manifest は抽出結果の一覧です
type Manifest struct {
	Archive string          `yaml:"archive"`
	Version uint16          `yaml:"version"`
	Root    string          `yaml:"root"`
	Entries []ManifestEntry `yaml:"entries"`
	Failed  []string        `yaml:"failed,omitempty"`
}
