package config

import (
	"os"
	"path/filepath"

	"github.com/juju/errors"
)

// FullReader loads whole config sources by name.
type FullReader interface {
	Normalize(name string) string
	// nil,nil = not found
	ReadAll(name string) ([]byte, error)
}

// OsFullReader resolves relative names against base directory.
type OsFullReader struct {
	base string
}

func NewOsFullReader(base string) (*OsFullReader, error) {
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, errors.Annotatef(err, "config base=%s", base)
	}
	return &OsFullReader{base: abs}, nil
}

func (self *OsFullReader) SetBase(dir string) {
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(self.base, dir)
	}
	self.base = filepath.Clean(dir)
}

func (self *OsFullReader) Normalize(name string) string {
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(self.base, name)
}

func (*OsFullReader) ReadAll(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	return b, err
}

type MockFullReader struct {
	Map map[string]string
}

func NewMockFullReader(sources map[string]string) *MockFullReader {
	return &MockFullReader{Map: sources}
}

func (self *MockFullReader) Normalize(name string) string { return filepath.Clean(name) }

func (self *MockFullReader) ReadAll(name string) ([]byte, error) {
	if s, ok := self.Map[name]; ok {
		return []byte(s), nil
	}
	return nil, nil
}
