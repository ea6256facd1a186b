package dictionary

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileFormat represents different dictionary file formats
type FileFormat int

const (
	FormatUnknown FileFormat = iota
	FormatChunk              // dict_XXXX.bin
	FormatText               // word list, one per line
)

// maxChunkWords is a sanity bound on a chunk header.
const maxChunkWords = 1000000

func (f FileFormat) String() string {
	switch f {
	case FormatChunk:
		return "chunk"
	case FormatText:
		return "text"
	default:
		return "unknown"
	}
}

// DetectFileFormat picks the format from the file name and checks the header.
func DetectFileFormat(filename string) (FileFormat, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".bin":
		if err := validateChunkFile(filename); err != nil {
			return FormatUnknown, err
		}
		return FormatChunk, nil
	case ".txt", ".list", "":
		info, err := os.Stat(filename)
		if err != nil {
			return FormatUnknown, err
		}
		if info.Size() == 0 {
			return FormatUnknown, fmt.Errorf("file %s is empty", filename)
		}
		return FormatText, nil
	}
	return FormatUnknown, fmt.Errorf("unable to detect format for file %s", filename)
}

// validateChunkFile checks that the header holds a plausible word count.
func validateChunkFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	var wordCount int32
	if err := binary.Read(file, binary.LittleEndian, &wordCount); err != nil {
		return fmt.Errorf("failed to read header from %s: %w", filename, err)
	}
	if wordCount < 0 || wordCount > maxChunkWords {
		return fmt.Errorf("invalid word count in %s: %d", filename, wordCount)
	}
	return nil
}
