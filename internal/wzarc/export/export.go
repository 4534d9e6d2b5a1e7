// Package export はノードの木をダンプ用のモデルに変換して出力します
package export

import (
	"math"
	"strconv"

	"github.com/shiroemons/go-wzarc/internal/wzarc/models"
	"github.com/shiroemons/go-wzarc/pkg/wz"
)

// Build は node 以下を ExportNode の木に変換します。
// depth が負の場合は無制限、0 の場合は node 自身のみを変換します。
// 解析に失敗したノードは Error に理由を記録し、兄弟ノードの変換は続けます。
func Build(node *wz.Node, depth int) *models.ExportNode {
	out := &models.ExportNode{
		Label: node.Label(),
		Kind:  node.Kind().String(),
	}

	switch node.Kind() {
	case wz.KindAlias:
		// リンク先は辿らず、パスのみを記録する
		out.Alias = node.AliasPath()
		return out
	case wz.KindCanvas:
		c, err := node.Canvas()
		if err != nil {
			out.Error = err.Error()
			return out
		}
		out.Canvas = &models.CanvasInfo{Width: c.Width, Height: c.Height, Format: c.Format, Scale: c.Scale}
	default:
		if !node.Kind().IsLazy() {
			v, err := node.Value()
			if err != nil {
				out.Error = err.Error()
				return out
			}
			out.Value = exportValue(v)
		}
	}

	if depth == 0 {
		return out
	}

	children, err := node.Children()
	if err != nil {
		out.Error = err.Error()
		return out
	}
	for _, child := range children {
		out.Children = append(out.Children, Build(child, depth-1))
	}
	return out
}

// exportValue はスカラー値を出力用の値に変換します。
// NaN や無限大は JSON で表せないため文字列にします。
func exportValue(v any) any {
	switch x := v.(type) {
	case wz.Vector:
		return models.Vector{X: x.X, Y: x.Y}
	case float32:
		if f := float64(x); math.IsNaN(f) || math.IsInf(f, 0) {
			return strconv.FormatFloat(f, 'g', -1, 32)
		}
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return strconv.FormatFloat(x, 'g', -1, 64)
		}
	case nil:
		return nil
	}
	return v
}
