// Package extract はアーカイブ内のキャンバスを PNG ファイルとして書き出します
package extract

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"image/png"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"

	"github.com/shiroemons/go-wzarc/internal/wzarc/fileutil"
	"github.com/shiroemons/go-wzarc/internal/wzarc/interfaces"
	"github.com/shiroemons/go-wzarc/internal/wzarc/models"
	"github.com/shiroemons/go-wzarc/pkg/wz"
)

// ManifestName は出力ディレクトリに書き込むマニフェストのファイル名です
const ManifestName = "manifest.yaml"

// Options は抽出の設定です
type Options struct {
	Workers int  // 1 以下の場合は順次処理
	DryRun  bool // true の場合はファイルを書き込まない
}

// Extractor はキャンバスを抽出します
type Extractor struct {
	logger  *slog.Logger
	fs      interfaces.FileSystem
	decoder wz.CanvasDecoder
	opts    Options
}

// New は新しい Extractor を作成します
func New(logger *slog.Logger, fs interfaces.FileSystem, decoder wz.CanvasDecoder, opts Options) *Extractor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Extractor{logger: logger, fs: fs, decoder: decoder, opts: opts}
}

type extractJob struct {
	path string // アーカイブのルートからの相対パス
}

type extractResult struct {
	path  string
	entry models.ManifestEntry
	err   error
}

// Collect は node 以下のキャンバスのパスを出現順に返します。
// 解析に失敗した部分木は記録して読み飛ばします。
func (e *Extractor) Collect(ctx context.Context, node *wz.Node) (canvases []string, failed []string, err error) {
	var walk func(n *wz.Node) error
	walk = func(n *wz.Node) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if n.Kind() == wz.KindCanvas {
			canvases = append(canvases, RelativePath(n))
		}
		if !n.Kind().IsLazy() {
			return nil
		}
		children, err := n.Children()
		if err != nil {
			e.logger.Warn("解析できないため読み飛ばします", "path", n.FullPath(), "error", err)
			failed = append(failed, RelativePath(n))
			return nil
		}
		for _, c := range children {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(node); err != nil {
		return nil, nil, err
	}
	return canvases, failed, nil
}

// Extract は node 以下のキャンバスをすべて outDir に書き出し、マニフェストを返します。
// 失敗したキャンバスはマニフェストの Failed に記録され、ErrPartialExtract が返ります。
func (e *Extractor) Extract(ctx context.Context, arc *wz.Archive, node *wz.Node, outDir string) (*models.Manifest, error) {
	paths, failed, err := e.Collect(ctx, node)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoCanvas, node.FullPath())
	}
	e.logger.Info("キャンバスを抽出します", "count", len(paths), "workers", e.opts.Workers, "dry_run", e.opts.DryRun)

	if !e.opts.DryRun {
		if err := e.fs.MkdirAll(outDir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: %w", fileutil.ErrCreateDirectory, err)
		}
	}

	var results []extractResult
	if e.opts.Workers > 1 && len(paths) > 1 {
		results, err = e.extractParallel(ctx, arc, outDir, paths)
	} else {
		results, err = e.extractSequential(ctx, arc, outDir, paths)
	}
	if err != nil {
		return nil, err
	}

	manifest := &models.Manifest{
		Archive: arc.Name(),
		Version: arc.Header().Version.Real,
		Root:    RelativePath(node),
		Failed:  failed,
	}
	for _, r := range results {
		if r.err != nil {
			e.logger.Error("抽出に失敗しました", "path", r.path, "error", r.err)
			manifest.Failed = append(manifest.Failed, r.path)
			continue
		}
		manifest.Entries = append(manifest.Entries, r.entry)
	}
	slices.SortFunc(manifest.Entries, func(a, b models.ManifestEntry) int {
		return strings.Compare(a.Path, b.Path)
	})
	slices.Sort(manifest.Failed)

	if !e.opts.DryRun {
		if err := e.writeManifest(outDir, manifest); err != nil {
			return manifest, err
		}
	}
	e.logger.Info("抽出が完了しました", "extracted", len(manifest.Entries), "failed", len(manifest.Failed))

	if len(manifest.Failed) > 0 {
		return manifest, fmt.Errorf("%w: %d 件", ErrPartialExtract, len(manifest.Failed))
	}
	return manifest, nil
}

// extractSequential は1つの読み込み位置で順番に抽出します
func (e *Extractor) extractSequential(ctx context.Context, arc *wz.Archive, outDir string, paths []string) ([]extractResult, error) {
	results := make([]extractResult, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results = append(results, e.extractOne(arc, outDir, p))
	}
	return results, nil
}

// extractParallel はワーカーごとに Fork した Archive で並列に抽出します
func (e *Extractor) extractParallel(ctx context.Context, arc *wz.Archive, outDir string, paths []string) ([]extractResult, error) {
	numWorkers := min(e.opts.Workers, len(paths))
	jobs := make(chan extractJob, numWorkers*2)
	resultCh := make(chan extractResult, numWorkers*2)

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func(local *wz.Archive) {
			defer wg.Done()
			for job := range jobs {
				if ctx.Err() != nil {
					continue
				}
				resultCh <- e.extractOne(local, outDir, job.path)
			}
		}(arc.Fork())
	}

	results := make([]extractResult, 0, len(paths))
	done := make(chan struct{})
	go func() {
		for r := range resultCh {
			results = append(results, r)
			if r.err == nil {
				e.logger.Debug("抽出しました", "path", r.path)
			}
		}
		close(done)
	}()

feed:
	for _, p := range paths {
		select {
		case jobs <- extractJob{path: p}:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	close(resultCh)
	<-done

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// extractOne は1つのキャンバスをデコードして書き出します
func (e *Extractor) extractOne(arc *wz.Archive, outDir, path string) extractResult {
	res := extractResult{path: path}

	node, err := arc.Lookup(path)
	if err != nil {
		res.err = err
		return res
	}
	if node == nil {
		res.err = fmt.Errorf("%w: %s", wz.ErrLink, path)
		return res
	}
	c, err := node.Canvas()
	if err != nil {
		res.err = err
		return res
	}
	img, err := c.Decode(e.decoder)
	if err != nil {
		res.err = err
		return res
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		res.err = fmt.Errorf("%w: %w", ErrEncodePNG, err)
		return res
	}
	data := buf.Bytes()
	sum := blake3.Sum256(data)

	rel := fileutil.SanitizePath(path) + ".png"
	res.entry = models.ManifestEntry{
		Path:   path,
		File:   filepath.ToSlash(rel),
		Width:  c.Width,
		Height: c.Height,
		Format: c.Format,
		Size:   len(data),
		Digest: hex.EncodeToString(sum[:]),
	}

	if e.opts.DryRun {
		return res
	}
	if err := fileutil.SaveToFile(e.fs, filepath.Join(outDir, rel), data); err != nil {
		res.err = err
	}
	return res
}

func (e *Extractor) writeManifest(outDir string, manifest *models.Manifest) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(manifest); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteManifest, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteManifest, err)
	}
	if err := fileutil.SaveToFile(e.fs, filepath.Join(outDir, ManifestName), buf.Bytes()); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteManifest, err)
	}
	return nil
}

// RelativePath はルートのラベルを除いたパスを返します。ルート自身は空文字列です。
func RelativePath(n *wz.Node) string {
	full := n.FullPath()
	root := n
	for root.Parent() != nil {
		root = root.Parent()
	}
	return strings.TrimPrefix(strings.TrimPrefix(full, root.Label()), "/")
}
