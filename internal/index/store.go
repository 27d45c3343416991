package index

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Index maps exported declarations to the files that define them. It is
// append-only: entries are snapshots taken before any rewriting, so later
// renames do not affect resolution.
type Index struct {
	mu      sync.RWMutex
	entries []Entry

	// Indexes for fast lookups
	byName map[string][]int // name -> indices into entries
	byFile map[string][]int // file -> indices into entries
}

// New creates an empty index.
func New() *Index {
	return &Index{
		byName: make(map[string][]int),
		byFile: make(map[string][]int),
	}
}

// Add appends entries to the index.
func (x *Index) Add(ee ...Entry) {
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, e := range ee {
		idx := len(x.entries)
		x.entries = append(x.entries, e)
		x.byName[e.Name] = append(x.byName[e.Name], idx)
		if e.File != "" {
			x.byFile[e.File] = append(x.byFile[e.File], idx)
		}
	}
}

// Lookup returns the file defining name directly inside a namespace called
// namespace. When several entries match, the first one added wins.
func (x *Index) Lookup(name, namespace string) (string, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	for _, idx := range x.byName[name] {
		if e := x.entries[idx]; e.Namespace == namespace {
			return e.File, true
		}
	}
	return "", false
}

// Resolve looks up the qualified name of a using-declaration (a::b::c) by its
// last two segments. Names with fewer than two segments, or naming the global
// namespace (::c), never resolve.
func (x *Index) Resolve(fullName string) (string, bool) {
	segments := strings.Split(fullName, "::")
	if len(segments) < 2 || segments[len(segments)-2] == "" {
		return "", false
	}
	return x.Lookup(segments[len(segments)-1], segments[len(segments)-2])
}

// All returns all entries in insertion order.
func (x *Index) All() []Entry {
	x.mu.RLock()
	defer x.mu.RUnlock()
	result := make([]Entry, len(x.entries))
	copy(result, x.entries)
	return result
}

// Count returns the number of entries.
func (x *Index) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// ByName returns all entries with the given name.
func (x *Index) ByName(name string) []Entry {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.collectByIndex(x.byName[name])
}

// ByFile returns all entries defined in the given file.
func (x *Index) ByFile(file string) []Entry {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.collectByIndex(x.byFile[file])
}

// Query returns entries whose name contains name and, if namespace is not
// empty, whose enclosing namespace equals it. Empty filters match all.
func (x *Index) Query(name, namespace string) []Entry {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var result []Entry
	for _, e := range x.entries {
		if name != "" && !strings.Contains(e.Name, name) {
			continue
		}
		if namespace != "" && e.Namespace != namespace {
			continue
		}
		result = append(result, e)
	}
	return result
}

// WriteJSONL writes all entries as JSONL to the given writer.
func (x *Index) WriteJSONL(w io.Writer) error {
	x.mu.RLock()
	defer x.mu.RUnlock()
	enc := json.NewEncoder(w)
	for _, e := range x.entries {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("encoding entry %q: %w", e.Name, err)
		}
	}
	return nil
}

// WriteJSONLFile writes all entries as JSONL to the given file path.
func (x *Index) WriteJSONLFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	bw := bufio.NewWriter(f)
	if err := x.WriteJSONL(bw); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// ReadJSONL reads entries from a JSONL reader and adds them to the index.
func (x *Index) ReadJSONL(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return fmt.Errorf("decoding entry: %w", err)
		}
		x.Add(e)
	}
	return scanner.Err()
}

// ReadJSONLFile reads entries from a JSONL file and adds them to the index.
func (x *Index) ReadJSONLFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return x.ReadJSONL(f)
}

func (x *Index) collectByIndex(indices []int) []Entry {
	result := make([]Entry, 0, len(indices))
	for _, idx := range indices {
		if idx < len(x.entries) {
			result = append(result, x.entries[idx])
		}
	}
	return result
}
