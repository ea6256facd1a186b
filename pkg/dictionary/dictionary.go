// Package dictionary is an offline completion backend: a ranked word list held in
// a patricia trie, queried with the word fragment under the cursor.
package dictionary

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"

	"github.com/bastiangx/inkpilot/internal/logger"
)

// Suggestion is a word and its score.
type Suggestion struct {
	Word  string
	Score int
}

// Dictionary is safe for concurrent use.
type Dictionary struct {
	mu     sync.RWMutex
	trie   *patricia.Trie
	words  int
	logger *log.Logger
}

// New returns an empty dictionary.
func New() *Dictionary {
	return &Dictionary{
		trie:   patricia.NewTrie(),
		logger: logger.New("dict"),
	}
}

// Add inserts entries. A word seen twice keeps its best score.
func (d *Dictionary) Add(entries []Entry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, e := range entries {
		if e.Word == "" {
			continue
		}
		key := patricia.Prefix(e.Word)
		score := e.Score()
		if existing := d.trie.Get(key); existing != nil {
			if existing.(int) < score {
				d.trie.Set(key, score)
			}
			continue
		}
		d.trie.Insert(key, score)
		d.words++
	}
}

// Len returns the number of distinct words.
func (d *Dictionary) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.words
}

// Lookup returns up to limit words starting with prefix, best first.
// Ties are broken alphabetically. A non-positive limit returns everything.
func (d *Dictionary) Lookup(prefix string, limit int) []Suggestion {
	d.mu.RLock()
	var out []Suggestion
	_ = d.trie.VisitSubtree(patricia.Prefix(prefix), func(key patricia.Prefix, item patricia.Item) error {
		out = append(out, Suggestion{Word: string(key), Score: item.(int)})
		return nil
	})
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Word < out[j].Word
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Load reads chunk files from dir in ID order until maxWords words are loaded.
// A maxWords of zero loads every chunk.
func Load(dir string, maxWords int) (*Dictionary, error) {
	chunks, err := ListChunks(dir)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoChunks, dir)
	}

	d := New()
	for _, chunk := range chunks {
		if maxWords > 0 && d.Len() >= maxWords {
			break
		}
		entries, err := readChunkFile(chunk.Filename)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", chunk.ID, err)
		}
		if maxWords > 0 {
			entries = entries[:min(len(entries), maxWords-d.Len())]
		}
		d.Add(entries)
		d.logger.Debugf("Loaded chunk %d: %d words", chunk.ID, len(entries))
	}
	d.logger.Debugf("Dictionary ready with %d words from %s", d.Len(), dir)
	return d, nil
}

// LoadFile reads a single chunk or word list file.
func LoadFile(path string) (*Dictionary, error) {
	format, err := DetectFileFormat(path)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	switch format {
	case FormatChunk:
		entries, err = readChunkFile(path)
	case FormatText:
		var file *os.File
		if file, err = os.Open(path); err == nil {
			entries, err = ReadWordList(file)
			file.Close()
		}
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	d := New()
	d.Add(entries)
	return d, nil
}

func readChunkFile(name string) ([]Entry, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadChunk(file)
}
