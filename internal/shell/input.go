package shell

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"
	"sync"

	"registros/internal/core"
	"registros/internal/records"
)

// minIDPrefix is the shortest id prefix accepted as a record reference.
const minIDPrefix = 4

// lineReader turns a blocking reader into lines that can be awaited
// together with a context.
type lineReader struct {
	lines   chan string
	errc    chan error
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func newLineReader(r io.Reader) *lineReader {
	lr := &lineReader{
		lines:   make(chan string),
		errc:    make(chan error, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go func() {
		defer close(lr.stopped)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lr.lines <- sc.Text():
			case <-lr.done:
				return
			}
		}
		err := sc.Err()
		if err == nil {
			err = io.EOF
		}
		lr.errc <- err
	}()
	return lr
}

// close stops delivering lines. A goroutine blocked in Read on the
// underlying reader only exits once that Read returns.
func (lr *lineReader) close() {
	lr.once.Do(func() { close(lr.done) })
}

// next returns the next sanitized line. Once the input is exhausted every
// call returns the same error, io.EOF on a clean end.
func (lr *lineReader) next(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line := <-lr.lines:
		return sanitizeInput(line), nil
	case err := <-lr.errc:
		lr.errc <- err
		return "", err
	}
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' {
			return -1
		}
		return r
	}, s)
}

// parseCommand splits a line into a lower-cased command and its arguments.
func parseCommand(line string) (string, []string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	return strings.ToLower(fields[0]), fields[1:]
}

// resolveRef finds the record a user reference points at. A number is a
// 1-based position in the visible list; anything else is matched against
// record ids, exactly or by a unique prefix.
func resolveRef(snap records.Snapshot, ref string) (core.Record, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return core.Record{}, false
	}
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(snap.Visible) {
			return core.Record{}, false
		}
		return snap.Visible[n-1], true
	}

	var (
		match core.Record
		found int
	)
	for _, r := range snap.Records {
		if r.ID == ref {
			return r, true
		}
		if len(ref) >= minIDPrefix && strings.HasPrefix(r.ID, ref) {
			match = r
			found++
		}
	}
	return match, found == 1
}

// isYes accepts the usual affirmative answers to a y/N prompt.
func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
