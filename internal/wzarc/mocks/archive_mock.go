package mocks

import (
	"bytes"
	"image"
	"path/filepath"
	"sync"

	"github.com/shiroemons/go-wzarc/pkg/wz"
)

// MockArchiveFinder はArchiveFinderのモック実装です
type MockArchiveFinder struct {
	FoundFile string
	Error     error
}

// Find はモック実装です
func (m *MockArchiveFinder) Find() (string, error) {
	if m.Error != nil {
		return "", m.Error
	}
	return m.FoundFile, nil
}

// MockArchiveOpener はメモリ上のデータをアーカイブとして開くモックです
type MockArchiveOpener struct {
	Data      []byte
	Error     error
	CallCount int
	LastPath  string
	LastIV    []byte
	LastKey   []byte
}

// Open はモック実装です
func (m *MockArchiveOpener) Open(path string, iv, key []byte, opts ...wz.Option) (*wz.Archive, error) {
	m.CallCount++
	m.LastPath = path
	m.LastIV = iv
	m.LastKey = key
	if m.Error != nil {
		return nil, m.Error
	}
	return wz.OpenReaderAt(filepath.Base(path), bytes.NewReader(m.Data), int64(len(m.Data)), iv, key, opts...)
}

// MockCanvasDecoder はキャンバスを単色の画像として返すモックです
type MockCanvasDecoder struct {
	mu        sync.Mutex
	Error     error
	FailPaths map[string]bool
	CallCount int
}

// DecodeCanvas はモック実装です
func (m *MockCanvasDecoder) DecodeCanvas(c *wz.Canvas, raw []byte) (image.Image, error) {
	m.mu.Lock()
	m.CallCount++
	m.mu.Unlock()
	if m.Error != nil {
		return nil, m.Error
	}
	if m.FailPaths[c.Node().FullPath()] {
		return nil, wz.ErrFormat
	}
	return image.NewNRGBA(image.Rect(0, 0, int(c.Width), int(c.Height))), nil
}
