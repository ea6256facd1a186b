package dictionary

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bastiangx/inkpilot/internal/utils"
)

const (
	chunkPattern = "dict_*.bin"
	maxRank      = math.MaxUint16
)

// ErrNoChunks is returned when a directory holds no dict_XXXX.bin files.
var ErrNoChunks = errors.New("no dictionary chunks found")

// Entry is one ranked word. Rank 1 is the most frequent word.
type Entry struct {
	Word string
	Rank uint16
}

// Score inverts the rank so that higher is better: rank 1 scores 65535.
func (e Entry) Score() int {
	return maxRank - int(e.Rank) + 1
}

// ChunkInfo contains metadata about a chunk file
type ChunkInfo struct {
	ID        int
	Filename  string
	WordCount int
}

// ListChunks scans dir for chunk files, ordered by ID.
func ListChunks(dir string) ([]ChunkInfo, error) {
	files, err := filepath.Glob(filepath.Join(dir, chunkPattern))
	if err != nil {
		return nil, fmt.Errorf("failed to scan for chunk files: %w", err)
	}

	var chunks []ChunkInfo
	for _, file := range files {
		idStr := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(file), "dict_"), ".bin")
		id, err := strconv.Atoi(idStr)
		if err != nil {
			continue
		}
		count, err := chunkWordCount(file)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", file, err)
		}
		chunks = append(chunks, ChunkInfo{ID: id, Filename: file, WordCount: count})
	}
	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].ID < chunks[j].ID
	})
	return chunks, nil
}

// chunkWordCount reads the word count from a chunk file's header
func chunkWordCount(filename string) (int, error) {
	file, err := os.Open(filename)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	var wordCount int32
	if err := binary.Read(file, binary.LittleEndian, &wordCount); err != nil {
		return 0, err
	}
	return int(wordCount), nil
}

// ReadChunk decodes a chunk: an int32 word count, then per word a uint16
// length, the UTF-8 bytes and a uint16 rank, all little endian.
func ReadChunk(r io.Reader) ([]Entry, error) {
	reader := bufio.NewReader(r)

	var total int32
	if err := binary.Read(reader, binary.LittleEndian, &total); err != nil {
		return nil, fmt.Errorf("failed to read chunk header: %w", err)
	}
	if total < 0 {
		return nil, fmt.Errorf("invalid word count %d", total)
	}

	entries := make([]Entry, 0, min(int(total), 1<<16))
	for len(entries) < int(total) {
		var wordLen uint16
		if err := binary.Read(reader, binary.LittleEndian, &wordLen); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read word length: %w", err)
		}
		wordBytes := make([]byte, wordLen)
		if _, err := io.ReadFull(reader, wordBytes); err != nil {
			return nil, fmt.Errorf("failed to read word: %w", err)
		}
		var rank uint16
		if err := binary.Read(reader, binary.LittleEndian, &rank); err != nil {
			return nil, fmt.Errorf("failed to read rank: %w", err)
		}
		entries = append(entries, Entry{Word: string(wordBytes), Rank: rank})
	}
	return entries, nil
}

// WriteChunk encodes entries in the format ReadChunk expects.
func WriteChunk(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, int32(len(entries))); err != nil {
		return err
	}
	for _, e := range entries {
		if len(e.Word) > math.MaxUint16 {
			return fmt.Errorf("word too long: %d bytes", len(e.Word))
		}
		if err := binary.Write(bw, binary.LittleEndian, uint16(len(e.Word))); err != nil {
			return err
		}
		if _, err := bw.WriteString(e.Word); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, e.Rank); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadWordList parses a plain text list. Each line is "word" or "word count";
// without counts the line order is the rank. Blank lines and lines starting
// with '#' are skipped.
func ReadWordList(r io.Reader) ([]Entry, error) {
	type counted struct {
		word  string
		count int
		line  int
	}
	var words []counted
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		c := counted{word: strings.ToLower(fields[0]), count: -1, line: line}
		if len(fields) > 1 {
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, fmt.Errorf("line %d: bad count %q", line+1, fields[1])
			}
			c.count = n
		}
		words = append(words, c)
		line++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(words, func(i, j int) bool {
		return words[i].count > words[j].count
	})
	entries := make([]Entry, 0, len(words))
	seen := make(map[string]bool, len(words))
	for _, w := range words {
		if seen[w.word] {
			continue
		}
		seen[w.word] = true
		rank := min(len(entries)+1, maxRank)
		entries = append(entries, Entry{Word: w.word, Rank: uint16(rank)})
	}
	return entries, nil
}

// BuildChunks splits entries into dict_XXXX.bin files of chunkSize words each,
// numbered from 1, and returns the files written.
func BuildChunks(dir string, entries []Entry, chunkSize int) ([]string, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	var files []string
	for id, start := 1, 0; start < len(entries); id, start = id+1, start+chunkSize {
		end := min(start+chunkSize, len(entries))
		name := filepath.Join(dir, fmt.Sprintf("dict_%04d.bin", id))
		if err := writeChunkFile(name, entries[start:end]); err != nil {
			return files, err
		}
		files = append(files, name)
	}
	return files, nil
}

func writeChunkFile(name string, entries []Entry) error {
	return utils.WriteFileAtomic(name, func(w io.Writer) error {
		return WriteChunk(w, entries)
	})
}
