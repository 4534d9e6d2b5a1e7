package wz

import (
	"fmt"
	"strings"
)

// maxAliasHops はエイリアスを連続して辿る最大回数です
const maxAliasHops = 32

// Kind はノードの種類です
type Kind int

// ノードの種類
const (
	KindNull Kind = iota
	KindDirectory
	KindImage
	KindProperty
	KindCanvas
	KindConvex
	KindSound
	KindVector
	KindShort
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindString
	KindAlias
)

var kindNames = [...]string{
	KindNull:      "null",
	KindDirectory: "directory",
	KindImage:     "image",
	KindProperty:  "property",
	KindCanvas:    "canvas",
	KindConvex:    "convex",
	KindSound:     "sound",
	KindVector:    "vector",
	KindShort:     "short",
	KindInt:       "int",
	KindLong:      "long",
	KindFloat:     "float",
	KindDouble:    "double",
	KindString:    "string",
	KindAlias:     "alias",
}

// String は種類の名前を返します
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// IsLazy は初回アクセス時にアーカイブから解析される種類かどうかを返します
func (k Kind) IsLazy() bool {
	switch k {
	case KindDirectory, KindImage, KindProperty, KindCanvas, KindConvex, KindSound:
		return true
	}
	return false
}

// Vector は2次元ベクトルの値です
type Vector struct {
	X, Y int32
}

// Node はアーカイブ内の1つのノードです。
// ディレクトリ・イメージ・プロパティ・キャンバスは初回アクセス時に解析されます。
// 1つの Archive から得たノードは同時に1つのゴルーチンからのみ使えます。
type Node struct {
	kind   Kind
	label  string
	parent *Node
	arc    *Archive

	offset    int64
	checksum  int32
	blockSize int32

	parsed   bool
	children *childSet
	value    any
}

func newNode(kind Kind, label string, offset int64) *Node {
	return &Node{kind: kind, label: label, offset: offset}
}

func newValue(kind Kind, label string, value any) *Node {
	return &Node{kind: kind, label: label, parsed: true, value: value}
}

// Kind はノードの種類を返します
func (n *Node) Kind() Kind {
	return n.kind
}

// Label はノード名を返します
func (n *Node) Label() string {
	return n.label
}

// Parent は親ノードを返します。ルートの場合は nil です。
func (n *Node) Parent() *Node {
	return n.parent
}

// Offset はノードのデータ開始位置を返します。値ノードでは 0 です。
func (n *Node) Offset() int64 {
	return n.offset
}

// Checksum はディレクトリエントリに記録されたチェックサムを返します
func (n *Node) Checksum() int32 {
	return n.checksum
}

// BlockSize はディレクトリエントリに記録されたサイズを返します
func (n *Node) BlockSize() int32 {
	return n.blockSize
}

// Parsed はノードが解析済みかどうかを返します
func (n *Node) Parsed() bool {
	return n.parsed
}

// FullPath はルートからのパスを "/" 区切りで返します。ルートのラベルを含みます。
func (n *Node) FullPath() string {
	var parts []string
	for cur := n; cur != nil; cur = cur.parent {
		parts = append(parts, cur.label)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

// Children は子ノードを出現順に返します。必要であれば先に解析します。
func (n *Node) Children() ([]*Node, error) {
	if err := n.ensureParsed(); err != nil {
		return nil, err
	}
	if n.children == nil {
		return nil, nil
	}
	out := make([]*Node, len(n.children.order))
	copy(out, n.children.order)
	return out, nil
}

// Child は名前が label の子ノードを返します。存在しない場合は nil です。
func (n *Node) Child(label string) (*Node, error) {
	if err := n.ensureParsed(); err != nil {
		return nil, err
	}
	if n.children == nil {
		return nil, nil
	}
	return n.children.byLabel[label], nil
}

// Lookup は "/" 区切りのパスでノードを探します。
// "." は現在のノード、".." は親ノードを表します。空のパスと末尾の "/" は現在のノードです。
// 先頭や途中の空の要素には一致するノードがありません。
// 見つからない場合は (nil, nil) を返します。
func (n *Node) Lookup(path string) (*Node, error) {
	cur := n
	segs := strings.Split(path, "/")
	for i, seg := range segs {
		switch seg {
		case "":
			if i == len(segs)-1 {
				continue
			}
			return nil, nil
		case ".":
			continue
		case "..":
			if cur.parent == nil {
				return nil, nil
			}
			cur = cur.parent
			continue
		}
		next, err := cur.Child(seg)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, nil
		}
		cur = next
	}
	return cur, nil
}

// Get は Lookup のエラーを無視する版です。見つからない場合や解析に失敗した場合は nil を返します。
func (n *Node) Get(path string) *Node {
	found, err := n.Lookup(path)
	if err != nil {
		return nil
	}
	return found
}

// Target はエイリアスを辿った先のノードを返します。エイリアス以外はそのノード自身です。
// リンク先は毎回親ノードから解決されます。
func (n *Node) Target() (*Node, error) {
	cur := n
	for hops := 0; cur.kind == KindAlias; hops++ {
		if hops >= maxAliasHops {
			return nil, fmt.Errorf("%w: %s: エイリアスが %d 段を超えています", ErrLink, n.FullPath(), maxAliasHops)
		}
		path, _ := cur.value.(string)
		if cur.parent == nil {
			return nil, fmt.Errorf("%w: %s: 親ノードがありません", ErrLink, cur.FullPath())
		}
		next, err := cur.parent.Lookup(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s -> %s: %w", ErrLink, cur.FullPath(), path, err)
		}
		if next == nil {
			return nil, fmt.Errorf("%w: %s -> %s", ErrLink, cur.FullPath(), path)
		}
		cur = next
	}
	return cur, nil
}

// AliasPath はエイリアスのリンク先パスを返します。エイリアス以外は空文字列です。
func (n *Node) AliasPath() string {
	if n.kind != KindAlias {
		return ""
	}
	s, _ := n.value.(string)
	return s
}

// Value はノードの値を返します。エイリアスはリンク先の値を返します。
//
//	short: int16, int: int32, long: int64, float: float32, double: float64,
//	string: string, vector: Vector, canvas: *Canvas, その他: nil
func (n *Node) Value() (any, error) {
	target, err := n.Target()
	if err != nil {
		return nil, err
	}
	if err := target.ensureParsed(); err != nil {
		return nil, err
	}
	return target.value, nil
}

// Int は整数系の値を int64 で返します
func (n *Node) Int() (int64, error) {
	v, err := n.Value()
	if err != nil {
		return 0, err
	}
	switch x := v.(type) {
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	}
	return 0, n.typeError("整数")
}

// Float は数値系の値を float64 で返します
func (n *Node) Float() (float64, error) {
	v, err := n.Value()
	if err != nil {
		return 0, err
	}
	switch x := v.(type) {
	case float32:
		return float64(x), nil
	case float64:
		return x, nil
	case int16:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	}
	return 0, n.typeError("数値")
}

// Text は文字列の値を返します
func (n *Node) Text() (string, error) {
	v, err := n.Value()
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", n.typeError("文字列")
	}
	return s, nil
}

// Vector はベクトルの値を返します
func (n *Node) Vector() (Vector, error) {
	v, err := n.Value()
	if err != nil {
		return Vector{}, err
	}
	vec, ok := v.(Vector)
	if !ok {
		return Vector{}, n.typeError("ベクトル")
	}
	return vec, nil
}

// Canvas はキャンバスの情報を返します
func (n *Node) Canvas() (*Canvas, error) {
	v, err := n.Value()
	if err != nil {
		return nil, err
	}
	c, ok := v.(*Canvas)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotCanvas, n.FullPath())
	}
	return c, nil
}

func (n *Node) typeError(want string) error {
	return fmt.Errorf("%w: %s は%sではありません (%s)", ErrFormat, n.FullPath(), want, n.kind)
}

// image は自身を含む最も近いイメージの祖先を返します
func (n *Node) image() *Node {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.kind == KindImage {
			return cur
		}
	}
	return nil
}

// ensureParsed は未解析のノードを解析します。
// 失敗した場合は未解析のまま残り、子ノードは公開されません。
func (n *Node) ensureParsed() error {
	if n.parsed || !n.kind.IsLazy() {
		return nil
	}
	if n.arc == nil {
		return &ParseError{Op: "parse " + n.kind.String(), Path: n.FullPath(), Offset: n.offset,
			Err: fmt.Errorf("%w: アーカイブに属していません", ErrFormat)}
	}

	r := n.arc.reader
	set := newChildSet()
	var value any
	err := r.store.Seek(n.offset)
	if err == nil {
		switch n.kind {
		case KindDirectory:
			err = n.parseDirectory(r, set)
		case KindImage:
			err = n.parseImage(r, set)
		case KindProperty:
			err = n.parseProperty(r, set)
		case KindCanvas:
			value, err = n.parseCanvas(r, set)
		case KindConvex, KindSound:
			// 内容は解析しない
		}
	}
	if err != nil {
		set.detach()
		n.arc.logger.Debug("ノードの解析に失敗しました", "path", n.FullPath(), "kind", n.kind, "offset", n.offset, "error", err)
		return &ParseError{Op: "parse " + n.kind.String(), Path: n.FullPath(), Offset: n.offset, Err: err}
	}

	n.children = set
	n.value = value
	n.parsed = true
	n.arc.logger.Debug("ノードを解析しました", "path", n.FullPath(), "kind", n.kind, "children", len(set.order))
	return nil
}

// childSet は名前の一意性を保ちながら出現順を記録する子ノードの集合です
type childSet struct {
	byLabel map[string]*Node
	order   []*Node
}

func newChildSet() *childSet {
	return &childSet{byLabel: make(map[string]*Node)}
}

// add は child を parent の子として追加します。
// 同じ名前の子が既にある場合は後から追加したものが残り、古い子は切り離されます。
func (s *childSet) add(parent, child *Node) {
	child.parent = parent
	child.arc = parent.arc
	if old, ok := s.byLabel[child.label]; ok {
		old.parent = nil
		for i, c := range s.order {
			if c == old {
				s.order[i] = child
				break
			}
		}
	} else {
		s.order = append(s.order, child)
	}
	s.byLabel[child.label] = child
}

func (s *childSet) detach() {
	for _, c := range s.order {
		c.parent = nil
	}
}
