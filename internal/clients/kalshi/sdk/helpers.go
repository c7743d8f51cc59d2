package sdk

import (
	"os"
	"strings"
)

func readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// stripQuery removes everything from the first '?' onward, since the
// signature base string covers the path only, never the query string.
func stripQuery(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}
