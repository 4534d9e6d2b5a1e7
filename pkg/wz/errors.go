package wz

import (
	"errors"
	"fmt"

	"github.com/shiroemons/go-wzarc/pkg/crypto"
)

var (
	// ErrFormat は想定外のバイト列を読み込んだ場合のエラー
	ErrFormat = errors.New("不正なフォーマットです")

	// ErrIO は読み込みやシークに失敗した場合のエラー
	ErrIO = errors.New("読み込みに失敗しました")

	// ErrVersion は実バージョンを復元できない場合のエラー
	ErrVersion = crypto.ErrVersionNotFound

	// ErrLink はエイリアスのリンク先を解決できない場合のエラー
	ErrLink = errors.New("リンク先を解決できません")

	// ErrValidation はブロックサイズや長さが範囲外の場合のエラー
	// (多くの場合 IV や鍵の誤り、またはアーカイブの破損を示します)
	ErrValidation = errors.New("値が範囲外です")

	// ErrNotCanvas はキャンバスではないノードの画像を要求した場合のエラー
	ErrNotCanvas = errors.New("キャンバスではありません")
)

// ParseError はノードの解析に失敗した場合のエラー
type ParseError struct {
	Op     string // 実行していた操作
	Path   string // ノードのフルパス
	Offset int64  // ノードのデータ開始位置
	Err    error  // 元のエラー
}

// Error はエラーメッセージを返します
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s %s (offset 0x%X): %v", e.Op, e.Path, e.Offset, e.Err)
}

// Unwrap は元のエラーを返します
func (e *ParseError) Unwrap() error {
	return e.Err
}
