// Package interfaces は wzarc コマンドで使用するインターフェースを定義します
package interfaces

import (
	"github.com/shiroemons/go-wzarc/pkg/wz"
)

// FileSystem はファイルシステム操作のインターフェース
type FileSystem interface {
	FileExists(filename string) bool
	ReadFile(filename string) ([]byte, error)
	WriteFile(filename string, data []byte, perm uint32) error
	MkdirAll(path string, perm uint32) error
	Stat(name string) (FileInfo, error)
	ReadDir(dirname string) ([]DirEntry, error)
	Getwd() (string, error)
	Executable() (string, error)
}

// FileInfo はファイル情報のインターフェース
type FileInfo interface {
	Name() string
	IsDir() bool
}

// DirEntry はディレクトリエントリのインターフェース
type DirEntry interface {
	Name() string
	IsDir() bool
}

// ArchiveFinder は .wz ファイルを検索するインターフェースです
type ArchiveFinder interface {
	Find() (string, error)
}

// ArchiveOpener はアーカイブを開くためのインターフェース
type ArchiveOpener interface {
	Open(path string, iv, key []byte, opts ...wz.Option) (*wz.Archive, error)
}
