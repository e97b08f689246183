package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

const maxLineBytes = 1024 * 1024

// Reader tails one log file.
type Reader struct {
	path   string
	offset int64
}

// NewReader returns a reader positioned at the start of path.
func NewReader(path string) *Reader {
	return &Reader{path: path}
}

// Path returns the file being read.
func (r *Reader) Path() string { return r.path }

// Offset returns the byte position the next Poll starts from.
func (r *Reader) Offset() int64 { return r.offset }

// Last returns up to n trailing lines and moves the offset to end of file. A
// missing file yields no lines.
func (r *Reader) Last(n int) ([]string, error) {
	file, err := r.open()
	if err != nil || file == nil {
		return nil, err
	}
	defer file.Close()

	if n <= 0 {
		end, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, fmt.Errorf("seek log file: %w", err)
		}
		r.offset = end
		return nil, nil
	}

	ring := make([]string, n)
	count, next := 0, 0
	scanner := newScanner(file)
	for scanner.Scan() {
		ring[next] = scanner.Text()
		next = (next + 1) % n
		if count < n {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}
	end, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("determine log offset: %w", err)
	}
	r.offset = end

	lines := make([]string, count)
	start := 0
	if count == n {
		start = next
	}
	for i := 0; i < count; i++ {
		lines[i] = ring[(start+i)%n]
	}
	return lines, nil
}

// Poll returns complete lines appended since the last call.
func (r *Reader) Poll() ([]string, error) {
	file, err := r.open()
	if err != nil || file == nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat log file: %w", err)
	}
	if info.Size() < r.offset {
		r.offset = 0
	}
	if _, err := file.Seek(r.offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek log file: %w", err)
	}

	var lines []string
	reader := bufio.NewReaderSize(file, 64*1024)
	for {
		line, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) {
			// Leave a partial trailing line for the next poll.
			break
		}
		if err != nil {
			return lines, fmt.Errorf("read log file: %w", err)
		}
		r.offset += int64(len(line))
		lines = append(lines, trimNewline(line))
	}
	return lines, nil
}

// Follow polls every interval and hands new lines to fn until ctx ends.
func (r *Reader) Follow(ctx context.Context, interval time.Duration, fn func(string)) error {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		lines, err := r.Poll()
		if err != nil {
			return err
		}
		for _, line := range lines {
			fn(line)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *Reader) open() (*os.File, error) {
	file, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			r.offset = 0
			return nil, nil
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, fmt.Errorf("log path %q is a directory", r.path)
	}
	return file, nil
}

func newScanner(rd io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return scanner
}

func trimNewline(line string) string {
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line
}
