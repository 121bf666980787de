// source.go - source line lookup used to print the failing statement.
package errtrack

import (
	"bytes"
	"os"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// SourceReader returns the raw text of line n (1-based) of file, or "" when
// the line is unavailable.
type SourceReader interface {
	Line(file string, n int) string
}

// SourceReaderFunc adapts a function to SourceReader.
type SourceReaderFunc func(file string, n int) string

// Line implements SourceReader.
func (f SourceReaderFunc) Line(file string, n int) string { return f(file, n) }

// SourceCache is a SourceReader that reads each file once and keeps its lines
// in memory. Concurrent first reads of the same file share one load. Files
// that cannot be read are cached as empty so repeated reports stay cheap;
// call Invalidate or Clear to pick up changes on disk.
type SourceCache struct {
	mu    sync.RWMutex
	files map[string][]string
	group singleflight.Group
	read  func(string) ([]byte, error)
}

// DefaultSource is the process-wide cache used by trackers that were not given
// a SourceReader.
var DefaultSource = NewSourceCache()

// NewSourceCache returns an empty cache reading from the local filesystem.
func NewSourceCache() *SourceCache {
	return &SourceCache{
		files: make(map[string][]string),
		read:  os.ReadFile,
	}
}

// Line implements SourceReader.
func (c *SourceCache) Line(file string, n int) string {
	if file == "" || n <= 0 {
		return ""
	}
	lines := c.load(file)
	if n > len(lines) {
		return ""
	}
	return lines[n-1]
}

// Invalidate drops the cached copy of file.
func (c *SourceCache) Invalidate(file string) {
	c.mu.Lock()
	delete(c.files, file)
	c.mu.Unlock()
}

// Clear drops every cached file.
func (c *SourceCache) Clear() {
	c.mu.Lock()
	c.files = make(map[string][]string)
	c.mu.Unlock()
}

func (c *SourceCache) load(file string) []string {
	c.mu.RLock()
	lines, ok := c.files[file]
	c.mu.RUnlock()
	if ok {
		return lines
	}

	v, _, _ := c.group.Do(file, func() (any, error) {
		data, err := c.read(file)
		var lines []string
		if err == nil {
			lines = splitLines(data)
		}
		c.mu.Lock()
		c.files[file] = lines
		c.mu.Unlock()
		return lines, nil
	})
	lines, _ = v.([]string)
	return lines
}

// splitLines splits data on '\n', keeping each line's own terminator so the
// reader returns the raw text.
func splitLines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	var out []string
	for len(data) > 0 {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			out = append(out, string(data))
			break
		}
		out = append(out, string(data[:i+1]))
		data = data[i+1:]
	}
	return out
}

// trimLineEnd strips trailing newline characters from a source line.
func trimLineEnd(line string) string {
	return strings.TrimRight(line, "\r\n")
}
