package headersource

import (
	"bufio"
	"context"
	"encoding/hex"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// FileSource replays headers from hex lines. Line i holds the header at
// startHeight + i. Blank lines and lines starting with # are skipped.
type FileSource struct {
	startHeight uint32
	headers     [][]byte
}

// NewFileSource reads every header in the file at path.
func NewFileSource(path string, startHeight uint32) (*FileSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer file.Close()
	return ReadFileSource(file, startHeight)
}

// ReadFileSource reads every header from r.
func ReadFileSource(r io.Reader, startHeight uint32) (*FileSource, error) {
	source := &FileSource{startHeight: startHeight}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		headerBytes, err := hex.DecodeString(line)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d is not hex", lineNumber)
		}
		source.headers = append(source.headers, headerBytes)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	log.Debugf("Loaded %d headers starting at height %d", len(source.headers), startHeight)
	return source, nil
}

// HeaderBytes returns the header at height.
func (s *FileSource) HeaderBytes(ctx context.Context, height uint32) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	if height < s.startHeight {
		return nil, errors.Errorf("height %d is below the first header %d", height, s.startHeight)
	}
	index := uint64(height - s.startHeight)
	if index >= uint64(len(s.headers)) {
		return nil, errors.Wrapf(ErrHeaderNotAvailable, "height %d is past the last header %d",
			height, uint64(s.startHeight)+uint64(len(s.headers))-1)
	}
	return s.headers[index], nil
}

// Close is a no-op.
func (s *FileSource) Close() error {
	return nil
}
