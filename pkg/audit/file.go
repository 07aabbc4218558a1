package audit

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// ChainedEvent is an event as written to a journal file. Each entry carries
// the hash of the one before it.
type ChainedEvent struct {
	*Event
	PreviousHash string `json:"previous_hash,omitempty"`
	EventHash    string `json:"event_hash"`
}

// FileJournal appends events to a JSON Lines file as a hash chain.
type FileJournal struct {
	mu       sync.Mutex
	path     string
	file     *os.File
	writer   *bufio.Writer
	lastHash string
	count    int64
}

// OpenFile opens path for appending, creating it if needed. An existing file
// is verified first and the chain continues from its last entry.
func OpenFile(path string) (*FileJournal, error) {
	n, lastHash, err := verify(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to verify audit file: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit file: %w", err)
	}
	return &FileJournal{
		path:     path,
		file:     file,
		writer:   bufio.NewWriter(file),
		lastHash: lastHash,
		count:    int64(n),
	}, nil
}

// Path returns the file being written.
func (f *FileJournal) Path() string { return f.path }

// Log appends event and syncs the file.
func (f *FileJournal) Log(event *Event) error {
	stamp(event)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return os.ErrClosed
	}

	chained := &ChainedEvent{Event: event, PreviousHash: f.lastHash}
	hash, err := hashOf(chained)
	if err != nil {
		return err
	}
	chained.EventHash = hash

	line, err := json.Marshal(chained)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if _, err := f.writer.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	if err := f.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush event: %w", err)
	}
	if err := f.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync audit file: %w", err)
	}

	f.lastHash = hash
	f.count++
	return nil
}

// Count returns the number of entries in the file.
func (f *FileJournal) Count() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

// Close flushes and closes the file.
func (f *FileJournal) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return nil
	}

	flushErr := f.writer.Flush()
	closeErr := f.file.Close()
	f.file = nil
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

// Verify checks the hash chain of a journal file and returns the number of
// entries it holds.
func Verify(path string) (int, error) {
	n, _, err := verify(path)
	return n, err
}

// ReadFile returns every event in a journal file after verifying the chain.
func ReadFile(path string) (_ []*Event, retErr error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && retErr == nil {
			retErr = closeErr
		}
	}()

	var events []*Event
	_, err = walk(file, func(e *ChainedEvent) { events = append(events, e.Event) })
	if err != nil {
		return nil, err
	}
	return events, nil
}

func verify(path string) (_ int, _ string, retErr error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, "", err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && retErr == nil {
			retErr = closeErr
		}
	}()

	var n int
	last, err := walk(file, func(*ChainedEvent) { n++ })
	return n, last, err
}

// walk reads chained events from r, checking every link, and returns the hash
// of the last one.
func walk(r io.Reader, fn func(*ChainedEvent)) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var previous string
	line := 0
	for scanner.Scan() {
		line++
		var e ChainedEvent
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return "", fmt.Errorf("line %d: failed to parse event: %w", line, err)
		}
		if e.Event == nil {
			return "", fmt.Errorf("line %d: empty event", line)
		}
		if e.PreviousHash != previous {
			return "", fmt.Errorf("line %d: hash chain broken (expected previous hash %q, got %q)", line, previous, e.PreviousHash)
		}
		recorded := e.EventHash
		e.EventHash = ""
		hash, err := hashOf(&e)
		if err != nil {
			return "", err
		}
		if hash != recorded {
			return "", fmt.Errorf("line %d: event hash mismatch", line)
		}
		e.EventHash = recorded
		fn(&e)
		previous = recorded
	}
	return previous, scanner.Err()
}

// hashOf hashes e with its EventHash cleared.
func hashOf(e *ChainedEvent) (string, error) {
	saved := e.EventHash
	e.EventHash = ""
	data, err := json.Marshal(e)
	e.EventHash = saved
	if err != nil {
		return "", fmt.Errorf("failed to marshal event: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
