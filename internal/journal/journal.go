// Package journal records per-tick AI decisions for post-run analysis: a
// zstd-compressed JSONL stream as the source of truth, with an optional
// sqlite index for fast tick-range queries.
package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// AgentRecord is one agent's decision snapshot inside a tick.
type AgentRecord struct {
	ID        string  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Label     string  `json:"label"`
	Certainty float64 `json:"certainty"`
	Token     string  `json:"token,omitempty"`
	PlanStep  string  `json:"planStep,omitempty"`
}

// TickRecord is one JSONL line.
type TickRecord struct {
	Tick       uint64        `json:"tick"`
	Alerts     int           `json:"alerts"`
	TokensHeld int           `json:"tokensHeld"`
	Plans      int           `json:"plans"`
	Agents     []AgentRecord `json:"agents,omitempty"`
}

// Writer appends tick records to a zstd-compressed JSONL file.
type Writer struct {
	mu   sync.Mutex
	file *os.File
	enc  *zstd.Encoder
	buf  *bufio.Writer
}

// NewWriter creates (or truncates) the journal file at path.
func NewWriter(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("journal dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("journal file: %w", err)
	}
	enc, err := zstd.NewWriter(file, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("journal encoder: %w", err)
	}
	return &Writer{
		file: file,
		enc:  enc,
		buf:  bufio.NewWriterSize(enc, 64*1024),
	}, nil
}

// Write appends one record as a JSON line.
func (w *Writer) Write(record TickRecord) error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf == nil {
		return fmt.Errorf("journal closed")
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	if _, err := w.buf.Write(raw); err != nil {
		return err
	}
	return w.buf.WriteByte('\n')
}

// Close flushes and finalizes the compressed stream.
func (w *Writer) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf == nil {
		return nil
	}
	flushErr := w.buf.Flush()
	w.buf = nil
	encErr := w.enc.Close()
	w.enc = nil
	fileErr := w.file.Close()
	w.file = nil
	if flushErr != nil {
		return flushErr
	}
	if encErr != nil {
		return encErr
	}
	return fileErr
}

// ReadAll decodes every record from a journal file, oldest first.
func ReadAll(path string) ([]TickRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	dec, err := zstd.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("journal decoder: %w", err)
	}
	defer dec.Close()

	var records []TickRecord
	scanner := bufio.NewScanner(dec)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record TickRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return records, fmt.Errorf("journal line %d: %w", len(records)+1, err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return records, err
	}
	return records, nil
}
