package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// FileSink appends entries as JSON lines.
type FileSink struct {
	mu   sync.Mutex
	path string
}

// NewFileSink returns a sink writing to path. The file is created on first write.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

func (s *FileSink) Write(entry Entry) error {
	if s == nil || s.path == "" {
		return nil
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open audit file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write audit file: %w", err)
	}
	return nil
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Entry) error

func (f SinkFunc) Write(e Entry) error { return f(e) }
