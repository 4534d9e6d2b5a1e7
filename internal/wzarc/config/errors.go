package config

import "errors"

var (
	// ErrTooManyArgs は位置引数が多すぎる場合のエラー
	ErrTooManyArgs = errors.New("引数が多すぎます")

	// ErrUnknownRegion は地域プリセットが見つからない場合のエラー
	ErrUnknownRegion = errors.New("地域プリセットが見つかりません")

	// ErrInvalidHex は IV や鍵が16進数として読めない場合のエラー
	ErrInvalidHex = errors.New("16進数として読めません")

	// ErrInvalidPresets はプリセットファイルの形式が不正な場合のエラー
	ErrInvalidPresets = errors.New("プリセットの形式が不正です")
)
