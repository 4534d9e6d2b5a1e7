// Package fileutil はファイル操作のユーティリティ関数を提供します
package fileutil

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/shiroemons/go-wzarc/internal/wzarc/interfaces"
)

var (
	// WzFilePattern は自動検出の対象となる .wz ファイルのパターン
	WzFilePattern = regexp.MustCompile(`(?i)^[a-z0-9_]+\.wz$`)

	unsafeChars = regexp.MustCompile(`[<>:"\\|?*\x00-\x1f]`)
)

// excludedWzFile は自動検出から除外するファイル名です (パッチ用の一覧ファイル)
const excludedWzFile = "list.wz"

// SanitizePath はアーカイブ内のパスを出力先の相対パスに変換します。
// 各要素の使用できない文字は "_" に置き換え、"." と ".." は取り除きます。
func SanitizePath(p string) string {
	var parts []string
	for _, seg := range strings.Split(p, "/") {
		if seg == "" || seg == "." || seg == ".." {
			continue
		}
		parts = append(parts, unsafeChars.ReplaceAllString(seg, "_"))
	}
	return filepath.Join(parts...)
}

// SaveToFile は親ディレクトリを作成してからファイルに保存します
func SaveToFile(fs interfaces.FileSystem, outputPath string, data []byte) error {
	if err := fs.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrCreateDirectory, err)
	}
	if err := fs.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteContent, outputPath, err)
	}
	return nil
}

// WzFileFinder は.wzファイルの検索を行います
type WzFileFinder struct {
	fs interfaces.FileSystem
}

// NewWzFileFinder は新しいWzFileFinderを作成します
func NewWzFileFinder(fs interfaces.FileSystem) *WzFileFinder {
	return &WzFileFinder{fs: fs}
}

// Find はカレントディレクトリ、次に実行ファイルと同じディレクトリから.wzファイルを検索します。
// 見つからない場合は空文字列を返します。
func (f *WzFileFinder) Find() (string, error) {
	currentDir, err := f.fs.Getwd()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGetCurrentDirectory, err)
	}

	found, err := f.findInDir(currentDir)
	if err != nil {
		return "", err
	}

	// カレントディレクトリで見つかった場合は他のディレクトリは検索しない
	if len(found) == 0 {
		execPath, err := f.fs.Executable()
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrGetExecutablePath, err)
		}
		execDir := filepath.Dir(execPath)
		if execDir != currentDir {
			if found, err = f.findInDir(execDir); err != nil {
				return "", err
			}
		}
	}

	switch len(found) {
	case 0:
		return "", nil
	case 1:
		return found[0], nil
	}
	return "", f.createMultipleFilesError(found)
}

// findInDir は指定されたディレクトリ内の.wzファイルを検索します
func (f *WzFileFinder) findInDir(dir string) ([]string, error) {
	files, err := f.fs.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrReadDirectory, dir, err)
	}

	var found []string
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		name := file.Name()
		if strings.EqualFold(name, excludedWzFile) {
			continue
		}
		if WzFilePattern.MatchString(name) {
			found = append(found, filepath.Join(dir, name))
		}
	}
	slices.Sort(found)
	return found, nil
}

// createMultipleFilesError は複数の.wzファイルが見つかった場合のエラーを生成します
func (f *WzFileFinder) createMultipleFilesError(paths []string) error {
	names := make([]string, len(paths))
	for i, path := range paths {
		names[i] = filepath.Base(path)
	}
	return fmt.Errorf("%w: %s", ErrMultipleWzFiles, strings.Join(names, ", "))
}
