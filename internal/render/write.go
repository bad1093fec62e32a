package render

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const stampPrefix = "/* generated by lolpig"

// WriteFile writes content to path unless the file already holds the same
// content apart from the generation stamp line. It reports whether the
// file was written.
func WriteFile(path, content string) (bool, error) {
	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		if contentHash(string(existing)) == contentHash(content) {
			return false, nil
		}
	case !errors.Is(err, fs.ErrNotExist):
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	return true, nil
}

func contentHash(content string) uint64 {
	if strings.HasPrefix(content, stampPrefix) {
		if i := strings.IndexByte(content, '\n'); i >= 0 {
			content = content[i+1:]
		} else {
			content = ""
		}
	}
	return xxhash.Sum64String(content)
}
