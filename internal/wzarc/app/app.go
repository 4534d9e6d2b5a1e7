// Package app はアプリケーションのメインロジックを実装します
package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/shiroemons/go-wzarc/internal/wzarc/config"
	"github.com/shiroemons/go-wzarc/internal/wzarc/export"
	"github.com/shiroemons/go-wzarc/internal/wzarc/extract"
	"github.com/shiroemons/go-wzarc/internal/wzarc/fileutil"
	"github.com/shiroemons/go-wzarc/internal/wzarc/interfaces"
	"github.com/shiroemons/go-wzarc/pkg/crypto"
	"github.com/shiroemons/go-wzarc/pkg/media"
	"github.com/shiroemons/go-wzarc/pkg/wz"
)

// App はアプリケーションのメインロジックを管理します
type App struct {
	config  *config.Config
	logger  *slog.Logger
	fs      interfaces.FileSystem
	finder  interfaces.ArchiveFinder
	opener  interfaces.ArchiveOpener
	decoder wz.CanvasDecoder
	out     io.Writer
}

// Options はAppの設定オプション
type Options struct {
	FileSystem    interfaces.FileSystem
	ArchiveFinder interfaces.ArchiveFinder
	ArchiveOpener interfaces.ArchiveOpener
	CanvasDecoder wz.CanvasDecoder
	Logger        *slog.Logger
	Stdout        io.Writer
}

// fileOpener はファイルシステム上のアーカイブを開きます
type fileOpener struct{}

func (fileOpener) Open(path string, iv, key []byte, opts ...wz.Option) (*wz.Archive, error) {
	return wz.Open(path, iv, key, opts...)
}

// New は新しいAppを作成します
func New(cfg *config.Config) *App {
	return NewWithOptions(cfg, Options{})
}

// NewWithOptions は新しいAppをオプション付きで作成します
func NewWithOptions(cfg *config.Config, opts Options) *App {
	a := &App{
		config:  cfg,
		logger:  opts.Logger,
		fs:      opts.FileSystem,
		finder:  opts.ArchiveFinder,
		opener:  opts.ArchiveOpener,
		decoder: opts.CanvasDecoder,
		out:     opts.Stdout,
	}

	if a.logger == nil {
		a.logger = config.NewLogger(os.Stderr, cfg.DebugMode)
	}
	if a.fs == nil {
		a.fs = fileutil.NewOSFileSystem()
	}
	if a.finder == nil {
		a.finder = fileutil.NewWzFileFinder(a.fs)
	}
	if a.opener == nil {
		a.opener = fileOpener{}
	}
	if a.decoder == nil {
		a.decoder = media.NewCanvasDecoder()
	}
	if a.out == nil {
		a.out = os.Stdout
	}
	return a
}

// Run はアプリケーションを実行します
func (a *App) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	archivePath, err := a.archivePath()
	if err != nil {
		return err
	}

	iv, key, keys, err := a.keys()
	if err != nil {
		return err
	}

	charset, err := wz.LookupCharset(a.config.Charset)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCharset, err)
	}

	arc, err := a.opener.Open(archivePath, iv, key,
		wz.WithLogger(a.logger),
		wz.WithCharset(charset),
		wz.WithVersion(a.config.WzVersion),
		wz.WithKeyStream(keys))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOpenArchive, err)
	}
	defer arc.Close()

	h := arc.Header()
	a.logger.Info("アーカイブを開きました",
		"archive", archivePath,
		"version", h.Version.Real,
		"encoded_version", h.Version.Encoded)

	node, err := arc.Lookup(a.config.Path)
	if err != nil {
		return err
	}
	if node == nil {
		return fmt.Errorf("%w: %s", ErrPathNotFound, a.config.Path)
	}

	switch a.config.Mode() {
	case config.ModeDump:
		return a.dump(node)
	case config.ModeExtract:
		return a.extract(ctx, arc, node)
	default:
		return a.list(node)
	}
}

// archivePath は指定されたアーカイブ、なければ自動検出したアーカイブのパスを返します
func (a *App) archivePath() (string, error) {
	if a.config.ArchivePath != "" {
		return a.config.ArchivePath, nil
	}
	found, err := a.finder.Find()
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", ErrNoArchive
	}
	a.logger.Info("アーカイブを自動検出しました", "archive", filepath.Base(found))
	return found, nil
}

// keys はフラグまたは地域プリセットから IV と鍵を決定します。
// プリセットがキーストリームを指定する場合はそれも返します。
func (a *App) keys() ([]byte, []byte, *crypto.KeyStream, error) {
	var extra []byte
	if file := a.config.PresetsFile; file != "" {
		if !a.fs.FileExists(file) {
			return nil, nil, nil, fmt.Errorf("%w: %s が見つかりません", ErrReadPresets, file)
		}
		data, err := a.fs.ReadFile(file)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("%w: %s: %w", ErrReadPresets, file, err)
		}
		extra = data
	}
	presets, err := config.LoadPresets(extra)
	if err != nil {
		return nil, nil, nil, err
	}
	iv, key, err := presets.Resolve(a.config.Region, a.config.IV, a.config.Key)
	if err != nil {
		return nil, nil, nil, err
	}
	keys, err := presets.KeyStream(a.config.Region, a.config.IV)
	if err != nil {
		return nil, nil, nil, err
	}
	if keys != nil {
		a.logger.Debug("暗号化されていないキーストリームを使います", "region", a.config.Region)
	}
	return iv, key, keys, nil
}

// list は子ノードを表形式で出力します。子を持たないノードはそのノード自身を出力します。
func (a *App) list(node *wz.Node) error {
	nodes := []*wz.Node{node}
	if node.Kind().IsLazy() {
		children, err := node.Children()
		if err != nil {
			return err
		}
		nodes = children
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, n := range nodes {
		summary := export.Summary(export.Build(n, 0))
		fmt.Fprintf(tw, "%s\t%s\t%s\n", n.Label(), n.Kind(), summary)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	a.logger.Debug("一覧を出力しました", "path", node.FullPath(), "count", len(nodes))
	return nil
}

// dump は部分木を指定の形式で出力します。--output が指定された場合はファイルに保存します。
func (a *App) dump(node *wz.Node) error {
	tree := export.Build(node, a.config.Depth)

	if a.config.OutputDir == "" {
		return export.Encode(a.out, a.config.Format, tree)
	}

	var buf bytes.Buffer
	if err := export.Encode(&buf, a.config.Format, tree); err != nil {
		return err
	}
	if a.config.DryRun {
		a.logger.Info("ドライランのため保存しません", "output", a.config.OutputDir, "bytes", buf.Len())
		return nil
	}
	if err := fileutil.SaveToFile(a.fs, a.config.OutputDir, buf.Bytes()); err != nil {
		return fmt.Errorf("%w: %w", ErrSaveFile, err)
	}
	a.logger.Info("データを保存しました", "output", a.config.OutputDir)
	return nil
}

// extract は部分木のキャンバスを PNG として書き出します
func (a *App) extract(ctx context.Context, arc *wz.Archive, node *wz.Node) error {
	outDir := a.config.OutputDir
	if outDir == "" {
		outDir = strings.TrimSuffix(arc.Name(), filepath.Ext(arc.Name()))
	}

	ex := extract.New(a.logger, a.fs, a.decoder, extract.Options{
		Workers: a.config.Workers,
		DryRun:  a.config.DryRun,
	})
	manifest, err := ex.Extract(ctx, arc, node, outDir)
	if manifest != nil {
		if a.config.DryRun {
			for _, entry := range manifest.Entries {
				fmt.Fprintf(a.out, "%s -> %s\n", entry.Path, filepath.Join(outDir, entry.File))
			}
		}
		fmt.Fprintf(a.out, "%d 個の画像を抽出しました (%s)\n", len(manifest.Entries), outDir)
	}
	return err
}
