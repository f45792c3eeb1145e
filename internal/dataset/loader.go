package dataset

import (
	"path/filepath"
	"strings"
)

// Loader reads one family of tabular files into a Dataset.
type Loader interface {
	CanLoad(path string) bool
	Load(path string, opt Options) (*Dataset, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

// Supported reports whether any registered loader accepts path.
func Supported(path string) bool {
	for _, l := range registry {
		if l.CanLoad(path) {
			return true
		}
	}
	return false
}

// SupportedExtensions lists the accepted upload extensions in preference order.
func SupportedExtensions() []string {
	return []string{".csv", ".xlsx", ".xls"}
}

// Load selects a loader by extension and reads the file. Every failure is
// reported as an *InputFormatError.
func Load(path string, opt Options) (*Dataset, error) {
	for _, l := range registry {
		if !l.CanLoad(path) {
			continue
		}
		ds, err := l.Load(path, opt)
		if err != nil {
			if IsInputFormat(err) {
				return nil, err
			}
			return nil, &InputFormatError{Path: path, Reason: "unreadable content", Err: err}
		}
		return ds, nil
	}
	return nil, &InputFormatError{Path: path, Reason: "unsupported extension " + strings.ToLower(filepath.Ext(path)), Err: ErrUnsupported}
}

func hasExt(path string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

func init() {
	// Register default loaders
	Register(csvLoader{})
	Register(xlsxLoader{})
	Register(xlsLoader{})
}
