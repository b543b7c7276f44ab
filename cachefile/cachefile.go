// Package cachefile persists the translation cache as YAML so repeated runs
// over the same documents skip the providers for text seen before.
//
// Entries are grouped by language pair:
//
//	version: 1
//	pairs:
//	  en:ta:
//	    Hello: வணக்கம்
package cachefile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/minios-linux/pagetrans/translate"
)

// Version is the cache file format version.
const Version = 1

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// File is a cache snapshot on disk.
type File struct {
	Version int                          `yaml:"version"`
	Pairs   map[string]map[string]string `yaml:"pairs"` // "src:tgt" -> text -> translation

	mu   sync.Mutex `yaml:"-"`
	path string     `yaml:"-"`
}

// PairKey builds the group key for a language pair.
func PairKey(source, target string) string {
	return source + ":" + target
}

func splitPair(pair string) (string, string, bool) {
	return strings.Cut(pair, ":")
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Load reads the cache file at path. A missing file yields an empty cache
// that Save will create.
func Load(path string) (*File, error) {
	f := &File{
		Version: Version,
		Pairs:   make(map[string]map[string]string),
		path:    path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if f.Version > Version {
		return nil, fmt.Errorf("%s: unsupported cache version %d", path, f.Version)
	}
	f.path = path
	if f.Pairs == nil {
		f.Pairs = make(map[string]map[string]string)
	}
	return f, nil
}

// Save writes the cache through a temporary file and a rename, so a crash
// never leaves a truncated cache behind.
func (f *File) Save() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.path == "" {
		return fmt.Errorf("cache file path not set")
	}

	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshaling cache file: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".pagetrans-cache-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("writing %s: %w", f.path, err)
	}
	return nil
}

// Path returns the cache file path.
func (f *File) Path() string {
	return f.path
}

// ---------------------------------------------------------------------------
// Entries
// ---------------------------------------------------------------------------

// Set records one translation.
func (f *File) Set(key translate.Key, translation string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pair := PairKey(key.Source, key.Target)
	if f.Pairs[pair] == nil {
		f.Pairs[pair] = make(map[string]string)
	}
	f.Pairs[pair][key.Text] = translation
}

// Merge records all entries, e.g. the content of a translate.MemoryCache.
func (f *File) Merge(entries map[translate.Key]string) {
	for k, v := range entries {
		f.Set(k, v)
	}
}

// Entries returns all cached translations keyed for translate.MemoryCache.
// Malformed pair keys are skipped.
func (f *File) Entries() map[translate.Key]string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[translate.Key]string)
	for pair, texts := range f.Pairs {
		source, target, ok := splitPair(pair)
		if !ok {
			continue
		}
		for text, translation := range texts {
			out[translate.Key{Text: text, Source: source, Target: target}] = translation
		}
	}
	return out
}

// Stats returns the number of language pairs and entries.
func (f *File) Stats() (pairs, entries int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pairs = len(f.Pairs)
	for _, m := range f.Pairs {
		entries += len(m)
	}
	return
}

// Summary returns a human-readable summary string.
func (f *File) Summary() string {
	pairs, entries := f.Stats()
	if pairs == 0 {
		return "empty"
	}

	f.mu.Lock()
	names := make([]string, 0, len(f.Pairs))
	for p := range f.Pairs {
		names = append(names, p)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, p := range names {
		parts = append(parts, fmt.Sprintf("%s: %d", p, len(f.Pairs[p])))
	}
	f.mu.Unlock()

	return fmt.Sprintf("%d pairs, %d entries (%s)", pairs, entries, strings.Join(parts, ", "))
}
