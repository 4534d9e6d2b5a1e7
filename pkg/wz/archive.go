// Package wz は暗号化された WZ アーカイブを読み込むためのパッケージです。
//
// アーカイブはディレクトリ・イメージ・プロパティからなる木構造で、
// 各ノードは初回アクセス時にファイルから解析されます。
//
// 基本的な使い方:
//
//	arc, err := wz.Open("Data.wz", iv, key)
//	if err != nil {
//	    return err
//	}
//	defer arc.Close()
//
//	node, err := arc.Lookup("Item.img/0001/info/price")
//	if err != nil || node == nil {
//	    return err
//	}
//	price, err := node.Int()
//
// 1つの Archive は1つの読み込み位置を持つため、複数のゴルーチンから使う場合は
// Fork でゴルーチンごとの Archive を作成してください。
package wz

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/text/encoding"

	"github.com/shiroemons/go-wzarc/pkg/crypto"
)

// Option は Open の設定を変更します
type Option func(*options)

type options struct {
	version uint16
	charset encoding.Encoding
	logger  *slog.Logger
	keys    *crypto.KeyStream
}

// WithVersion は総当たりせずに実バージョン v を使います
func WithVersion(v uint16) Option {
	return func(o *options) {
		o.version = v
	}
}

// WithCharset は8ビット文字列の文字コードを指定します
func WithCharset(enc encoding.Encoding) Option {
	return func(o *options) {
		if enc != nil {
			o.charset = enc
		}
	}
}

// WithLogger は解析ログの出力先を指定します
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithKeyStream は iv と key から導出せずに ks を文字列の復号に使います。
// iv と key は無視されます。
func WithKeyStream(ks *crypto.KeyStream) Option {
	return func(o *options) {
		if ks != nil {
			o.keys = ks
		}
	}
}

// Archive は開いた WZ アーカイブです
type Archive struct {
	name   string
	closer io.Closer
	src    io.ReaderAt
	size   int64

	keys   *crypto.KeyStream
	header *Header
	reader *Reader
	root   *Node
	logger *slog.Logger
}

// Open はファイル path をアーカイブとして開きます
func Open(path string, iv, key []byte, opts ...Option) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	arc, err := OpenReaderAt(filepath.Base(path), f, info.Size(), iv, key, opts...)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	arc.closer = f
	return arc, nil
}

// OpenReaderAt は r をアーカイブとして開きます。name はルートディレクトリの名前になります。
// r は Archive を使い終わるまで有効である必要があります。
func OpenReaderAt(name string, r io.ReaderAt, size int64, iv, key []byte, opts ...Option) (*Archive, error) {
	o := options{
		charset: DefaultCharset,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}

	keys := o.keys
	if keys == nil {
		var err error
		if keys, err = crypto.NewKeyStream(iv, key); err != nil {
			return nil, err
		}
	}

	store := NewStore(r, size)
	reader := NewReader(store, keys, nil, o.charset)
	header, err := readHeader(reader, o.version)
	if err != nil {
		return nil, err
	}
	reader.header = header
	if header.Ident != Identifier {
		o.logger.Warn("識別子が一致しません", "name", name, "ident", header.Ident)
	}

	arc := &Archive{
		name:   name,
		src:    r,
		size:   size,
		keys:   keys,
		header: header,
		reader: reader,
		logger: o.logger,
	}
	arc.root = arc.newRoot()

	o.logger.Debug("アーカイブを開きました",
		"name", name,
		"ident", header.Ident,
		"data_start", header.DataStart,
		"version", header.Version.Real,
		"encoded_version", header.Version.Encoded)
	return arc, nil
}

func (a *Archive) newRoot() *Node {
	root := newNode(KindDirectory, a.name, a.header.IndexStart())
	root.arc = a
	return root
}

// Name はアーカイブ名を返します
func (a *Archive) Name() string {
	return a.name
}

// Root はルートディレクトリを返します
func (a *Archive) Root() *Node {
	return a.root
}

// Header はヘッダを返します
func (a *Archive) Header() *Header {
	return a.header
}

// KeyStream はアーカイブのキーストリームを返します
func (a *Archive) KeyStream() *crypto.KeyStream {
	return a.keys
}

// Reader はアーカイブの Reader を返します
func (a *Archive) Reader() *Reader {
	return a.reader
}

// Lookup はルートからの相対パスでノードを探します。見つからない場合は (nil, nil) です。
func (a *Archive) Lookup(path string) (*Node, error) {
	return a.root.Lookup(path)
}

// Get はルートからの相対パスでノードを探します。見つからない場合は nil です。
func (a *Archive) Get(path string) *Node {
	return a.root.Get(path)
}

// Fork は同じデータを独立した読み込み位置で読む Archive を返します。
// ヘッダとキーストリームは共有し、ノードの木は新しく作り直します。
// Fork した Archive は元の Archive を Close した後は使えません。
func (a *Archive) Fork() *Archive {
	f := &Archive{
		name:   a.name,
		src:    a.src,
		size:   a.size,
		keys:   a.keys,
		header: a.header,
		logger: a.logger,
	}
	f.reader = NewReader(a.reader.store.clone(), a.keys, a.header, a.reader.charset)
	f.root = f.newRoot()
	return f
}

// Close はファイルを閉じます。OpenReaderAt や Fork で作った場合は何もしません。
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}
