package media

import "errors"

var (
	// ErrUnsupportedFormat は未対応のピクセル形式の場合のエラー
	ErrUnsupportedFormat = errors.New("未対応のピクセル形式です")

	// ErrInvalidSize は幅や高さが不正な場合のエラー
	ErrInvalidSize = errors.New("画像サイズが不正です")

	// ErrInflate は zlib の展開に失敗した場合のエラー
	ErrInflate = errors.New("zlib の展開に失敗しました")
)
