package app

import "errors"

var (
	// ErrNoArchive はアーカイブが指定されず自動検出もできなかった場合のエラー
	ErrNoArchive = errors.New("アーカイブが見つかりません。--archive フラグで .wz ファイルを指定してください")

	// ErrReadPresets はプリセットファイルの読み込みに失敗した場合のエラー
	ErrReadPresets = errors.New("プリセットファイルの読み込みに失敗しました")

	// ErrInvalidCharset は未対応の文字コードが指定された場合のエラー
	ErrInvalidCharset = errors.New("文字コードの指定が不正です")

	// ErrOpenArchive はアーカイブを開けなかった場合のエラー
	ErrOpenArchive = errors.New("アーカイブを開けませんでした")

	// ErrPathNotFound は指定したパスのノードが見つからない場合のエラー
	ErrPathNotFound = errors.New("指定したパスが見つかりません")

	// ErrSaveFile はファイルの保存に失敗した場合のエラー
	ErrSaveFile = errors.New("ファイルの保存に失敗しました")
)
