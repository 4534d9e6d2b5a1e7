package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"github.com/shiroemons/go-wzarc/internal/wzarc/models"
)

// 出力形式
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCBOR = "cbor"
)

// Formats は対応している出力形式の一覧です
var Formats = []string{FormatText, FormatJSON, FormatYAML, FormatCBOR}

var cborMode = func() cbor.EncMode {
	mode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return mode
}()

// Encode は node を format 形式で w に書き込みます
func Encode(w io.Writer, format string, node *models.ExportNode) error {
	var err error
	switch strings.ToLower(format) {
	case FormatText, "":
		err = encodeText(w, node, 0)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(node)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err = enc.Encode(node); err == nil {
			err = enc.Close()
		}
	case FormatCBOR:
		err = cborMode.NewEncoder(w).Encode(node)
	default:
		return fmt.Errorf("%w: %s (%s)", ErrUnknownFormat, format, strings.Join(Formats, ", "))
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return nil
}

// encodeText はインデント付きのテキストで木を書き込みます
//
//	label [kind] = value
func encodeText(w io.Writer, node *models.ExportNode, indent int) error {
	var b strings.Builder
	b.WriteString(strings.Repeat("  ", indent))
	b.WriteString(node.Label)
	fmt.Fprintf(&b, " [%s]", node.Kind)
	if summary := Summary(node); summary != "" {
		b.WriteByte(' ')
		b.WriteString(summary)
	}
	b.WriteByte('\n')
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}
	for _, child := range node.Children {
		if err := encodeText(w, child, indent+1); err != nil {
			return err
		}
	}
	return nil
}

// Summary はノードの値を1行で表した文字列を返します。値を持たないノードは空文字列です。
func Summary(node *models.ExportNode) string {
	switch {
	case node.Error != "":
		return "! " + node.Error
	case node.Alias != "":
		return "-> " + node.Alias
	case node.Canvas != nil:
		return fmt.Sprintf("%dx%d format=%d", node.Canvas.Width, node.Canvas.Height, node.Canvas.Format)
	case node.Value != nil:
		return "= " + FormatValue(node.Value)
	}
	return ""
}

// FormatValue は値を1行の文字列に変換します
func FormatValue(v any) string {
	switch x := v.(type) {
	case string:
		return fmt.Sprintf("%q", x)
	case models.Vector:
		return fmt.Sprintf("(%d, %d)", x.X, x.Y)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}
