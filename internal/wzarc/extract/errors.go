package extract

import "errors"

var (
	// ErrNoCanvas は抽出対象のキャンバスが見つからない場合のエラー
	ErrNoCanvas = errors.New("抽出できるキャンバスがありません")

	// ErrEncodePNG は PNG のエンコードに失敗した場合のエラー
	ErrEncodePNG = errors.New("PNG のエンコードに失敗しました")

	// ErrWriteManifest はマニフェストの書き込みに失敗した場合のエラー
	ErrWriteManifest = errors.New("マニフェストの書き込みに失敗しました")

	// ErrPartialExtract は一部のキャンバスの抽出に失敗した場合のエラー
	ErrPartialExtract = errors.New("一部のキャンバスを抽出できませんでした")
)
