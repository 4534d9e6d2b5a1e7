package export

import "errors"

var (
	// ErrUnknownFormat は未対応の出力形式が指定された場合のエラー
	ErrUnknownFormat = errors.New("未対応の出力形式です")

	// ErrEncode は出力のエンコードに失敗した場合のエラー
	ErrEncode = errors.New("出力のエンコードに失敗しました")
)
