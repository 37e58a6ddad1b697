// Package ndjson writes line-delimited JSON with bounded buffering.
package ndjson

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

const queueDepth = 64

// Writer streams records to a file one JSON line at a time. Records pass
// through a bounded queue drained by a single background goroutine: when
// the sink is slower than the producer, Write blocks instead of piling up
// an unbounded backlog in memory.
type Writer struct {
	file  *os.File
	queue chan []byte
	done  chan struct{}

	mu  sync.Mutex
	err error
}

// Create opens path for writing, truncating any previous run's output.
func Create(path string) (*Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	w := &Writer{
		file:  file,
		queue: make(chan []byte, queueDepth),
		done:  make(chan struct{}),
	}
	go w.drain()
	return w, nil
}

func (w *Writer) drain() {
	defer close(w.done)
	bw := bufio.NewWriter(w.file)
	for line := range w.queue {
		if w.Err() != nil {
			continue // keep draining so producers never block on a dead sink
		}
		if _, err := bw.Write(line); err != nil {
			w.setErr(fmt.Errorf("write %s: %w", w.file.Name(), err))
		}
	}
	if err := bw.Flush(); err != nil {
		w.setErr(fmt.Errorf("flush %s: %w", w.file.Name(), err))
	}
}

// Write marshals record and queues it, blocking while the sink catches
// up. A sink failure from an earlier record is reported on the next call.
func (w *Writer) Write(record any) error {
	if err := w.Err(); err != nil {
		return err
	}
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	w.queue <- append(line, '\n')
	return nil
}

// Close flushes queued records and closes the file. Call exactly once.
func (w *Writer) Close() error {
	close(w.queue)
	<-w.done
	if err := w.file.Close(); err != nil {
		w.setErr(fmt.Errorf("close %s: %w", w.file.Name(), err))
	}
	return w.Err()
}

// Err returns the first sink failure observed, if any.
func (w *Writer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *Writer) setErr(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err == nil {
		w.err = err
	}
}

// WriteFile writes records to path as NDJSON. An empty slice still
// produces an empty file rather than omitting it.
func WriteFile[T any](path string, records []T) error {
	w, err := Create(path)
	if err != nil {
		return err
	}
	for _, record := range records {
		if err := w.Write(record); err != nil {
			_ = w.Close()
			return err
		}
	}
	return w.Close()
}
