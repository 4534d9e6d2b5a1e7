// Package config は wzarc コマンドの設定管理を行います
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

const Version = "0.1.0"

// Mode は実行モードです
type Mode int

// 実行モード
const (
	ModeList Mode = iota
	ModeDump
	ModeExtract
)

// String はモード名を返します
func (m Mode) String() string {
	switch m {
	case ModeList:
		return "list"
	case ModeDump:
		return "dump"
	case ModeExtract:
		return "extract"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Config はアプリケーションの設定を保持します
type Config struct {
	ArchivePath string
	Region      string
	IV          string
	Key         string
	PresetsFile string
	Path        string
	List        bool
	Extract     bool
	Format      string
	Depth       int
	OutputDir   string
	Workers     int
	Charset     string
	WzVersion   uint16
	DebugMode   bool
	DryRun      bool
	ShowVersion bool
}

// Mode はフラグの組み合わせから実行モードを決定します。
// --extract が最優先で、--list がなく --format が指定されていればダンプします。
func (c *Config) Mode() Mode {
	switch {
	case c.Extract:
		return ModeExtract
	case c.List:
		return ModeList
	case c.Format != "":
		return ModeDump
	}
	return ModeList
}

// ParseFlags はコマンドライン引数を解析して設定を返します。
// 位置引数が1つある場合はアーカイブのパスとして扱います。
func ParseFlags(name string, args []string) (*Config, error) {
	cfg := &Config{}

	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringVarP(&cfg.ArchivePath, "archive", "a", "", "path to .wz archive file (e.g. Item.wz)")
	fs.StringVarP(&cfg.Region, "region", "r", "gms", "region preset for IV and key (gms, kms, msea, classic)")
	fs.StringVar(&cfg.IV, "iv", "", "IV as hex (overrides the region preset)")
	fs.StringVar(&cfg.Key, "key", "", "AES-256 key as hex, or \"default\" (overrides the region preset)")
	fs.StringVar(&cfg.PresetsFile, "presets", "", "YAML file with additional region presets")
	fs.StringVarP(&cfg.Path, "path", "p", "", "node path inside the archive (e.g. Item.img/0001)")
	fs.BoolVarP(&cfg.List, "list", "l", false, "list children of the node (default mode)")
	fs.BoolVarP(&cfg.Extract, "extract", "x", false, "extract canvases under the node as PNG files")
	fs.StringVarP(&cfg.Format, "format", "f", "", "dump the node tree as text, json, yaml or cbor")
	fs.IntVar(&cfg.Depth, "depth", -1, "maximum depth of the dump (-1 for unlimited)")
	fs.StringVarP(&cfg.OutputDir, "output", "o", "", "output directory for extract, or output file for dump")
	fs.IntVarP(&cfg.Workers, "workers", "w", 4, "number of workers for extraction (1 for sequential)")
	fs.StringVar(&cfg.Charset, "charset", "", "charset of 8-bit strings (cp1252, euc-kr, shift-jis, gbk, big5, utf-8)")
	fs.Uint16Var(&cfg.WzVersion, "wz-version", 0, "real archive version (skips the brute-force search)")
	fs.BoolVarP(&cfg.DebugMode, "debug", "d", false, "enable debug output")
	fs.BoolVarP(&cfg.DryRun, "dry-run", "n", false, "perform a dry run without writing output files")
	fs.BoolVarP(&cfg.ShowVersion, "version", "v", false, "show version information")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	rest := fs.Args()
	switch {
	case len(rest) == 1 && cfg.ArchivePath == "":
		cfg.ArchivePath = rest[0]
	case len(rest) > 0:
		return nil, fmt.Errorf("%w: %v", ErrTooManyArgs, rest)
	}

	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return cfg, nil
}

// HandleVersion はバージョン表示を処理します。表示した場合は true を返します。
func HandleVersion(w io.Writer, showVersion bool) bool {
	if showVersion {
		fmt.Fprintf(w, "wzarc version %s\n", Version)
	}
	return showVersion
}

// NewLogger は w に出力するロガーを作成します。
// debug が true の場合はデバッグレベルまで出力し、端末でない場合は色を付けません。
func NewLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !term.IsTerminal(int(f.Fd()))
	}

	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	}))
}
