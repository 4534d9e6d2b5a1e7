package wz

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// DefaultCharset は8ビット文字列の既定の文字コードです
var DefaultCharset encoding.Encoding = charmap.Windows1252

// LookupCharset は名前から8ビット文字列の文字コードを返します
func LookupCharset(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "_", "-")) {
	case "", "cp1252", "windows-1252", "latin1":
		return charmap.Windows1252, nil
	case "utf-8", "utf8":
		return encoding.Nop, nil
	case "euc-kr", "cp949", "korean":
		return korean.EUCKR, nil
	case "shift-jis", "sjis", "cp932":
		return japanese.ShiftJIS, nil
	case "gbk", "cp936":
		return simplifiedchinese.GBK, nil
	case "big5", "cp950":
		return traditionalchinese.Big5, nil
	default:
		return nil, fmt.Errorf("未対応の文字コードです: %s", name)
	}
}
