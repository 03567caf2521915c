// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

package watch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/nxadm/tail"
)

// LogHandler is called for each parsed log line.
type LogHandler func(log ParsedLog)

// Watcher watches multiple log files and calls handlers for each line.
// Directories containing glob patterns are watched with fsnotify so files
// created after startup are picked up too.
type Watcher struct {
	patterns  []string
	files     []string
	service   string
	tailLines int
	follow    bool
	oneshot   bool
	handlers  []LogHandler
	tails     []*tail.Tail
	watching  map[string]bool
	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// Config holds watcher configuration.
type Config struct {
	Files     []string
	Service   string // Override service name
	TailLines int    // Number of lines to show initially
	Follow    bool   // Keep watching for new lines
	Oneshot   bool   // Read all lines and exit (don't follow)
}

// New creates a new Watcher.
func New(cfg Config) (*Watcher, error) {
	var files []string
	for _, pattern := range cfg.Files {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); os.IsNotExist(err) {
				fmt.Fprintf(os.Stderr, "Warning: %q matches nothing yet (will watch for creation)\n", pattern)
			}
			continue
		}
		files = append(files, matches...)
	}

	if len(files) == 0 && len(cfg.Files) == 0 {
		return nil, fmt.Errorf("no files to watch")
	}

	ctx, cancel := context.WithCancel(context.Background())

	w := &Watcher{
		patterns:  cfg.Files,
		files:     files,
		service:   cfg.Service,
		tailLines: cfg.TailLines,
		follow:    cfg.Follow,
		oneshot:   cfg.Oneshot,
		watching:  make(map[string]bool),
		ctx:       ctx,
		cancel:    cancel,
	}
	return w, nil
}

// AddHandler adds a log handler.
func (w *Watcher) AddHandler(h LogHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, h)
}

// Start begins watching. It blocks until Stop is called.
func (w *Watcher) Start() error {
	for _, file := range w.files {
		w.startTail(file)
	}

	if w.follow {
		if err := w.watchForNewFiles(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: new-file pickup disabled: %v\n", err)
		}
	}

	<-w.ctx.Done()

	w.mu.Lock()
	for _, t := range w.tails {
		t.Stop()
	}
	w.mu.Unlock()

	w.wg.Wait()
	return nil
}

// Stop stops watching all files.
func (w *Watcher) Stop() {
	w.cancel()
}

// FileCount returns the number of files currently being tailed.
func (w *Watcher) FileCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.watching)
}

// Files returns the initially matched file list.
func (w *Watcher) Files() []string {
	return w.files
}

// startTail launches a tail goroutine for one file, once.
func (w *Watcher) startTail(filename string) {
	w.mu.Lock()
	if w.watching[filename] {
		w.mu.Unlock()
		return
	}
	w.watching[filename] = true
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.watchFile(filename); err != nil {
			fmt.Fprintf(os.Stderr, "Error watching %s: %v\n", filename, err)
		}
	}()
}

// watchForNewFiles watches the parent directories of all patterns and starts
// tailing any newly created file that matches one.
func (w *Watcher) watchForNewFiles() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}

	dirs := make(map[string]bool)
	for _, pattern := range w.patterns {
		dir := filepath.Dir(pattern)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		if err := fw.Add(dir); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot watch %s: %v\n", dir, err)
		}
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer fw.Close()
		for {
			select {
			case <-w.ctx.Done():
				return
			case event, ok := <-fw.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Create) {
					continue
				}
				for _, pattern := range w.patterns {
					if matched, _ := filepath.Match(pattern, event.Name); matched {
						w.startTail(event.Name)
						break
					}
				}
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				fmt.Fprintf(os.Stderr, "Watch error: %v\n", err)
			}
		}
	}()

	return nil
}

// ReadAll reads all lines from all files and calls handlers for each.
// Used in oneshot mode.
func (w *Watcher) ReadAll() (int, error) {
	totalLines := 0

	for _, filename := range w.files {
		service := w.service
		if service == "" {
			service = ServiceFromFilename(filename)
		}

		lines, err := readLines(filename)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not read %s: %v\n", filename, err)
			continue
		}

		for _, line := range lines {
			if line == "" {
				continue
			}
			w.callHandlers(ParseLine(line, filename, service))
			totalLines++
		}
	}

	return totalLines, nil
}

func (w *Watcher) watchFile(filename string) error {
	service := w.service
	if service == "" {
		service = ServiceFromFilename(filename)
	}

	if w.tailLines > 0 {
		if err := w.showLastLines(filename, service); err != nil {
			// Not fatal, the file might not exist yet.
			fmt.Fprintf(os.Stderr, "Warning: could not read initial lines from %s: %v\n", filename, err)
		}
	}

	cfg := tail.Config{
		Follow:    w.follow,
		ReOpen:    true,  // Handle file rotation
		MustExist: false, // Allow watching files that don't exist yet
		Poll:      true,  // Polling is more reliable across filesystems
		Location:  &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd},
	}

	t, err := tail.TailFile(filename, cfg)
	if err != nil {
		return fmt.Errorf("failed to tail %s: %w", filename, err)
	}

	w.mu.Lock()
	w.tails = append(w.tails, t)
	w.mu.Unlock()

	for {
		select {
		case <-w.ctx.Done():
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				return nil
			}
			if line.Err != nil {
				fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", filename, line.Err)
				continue
			}
			w.callHandlers(ParseLine(line.Text, filename, service))
		}
	}
}

// showLastLines replays the last N lines from a file through the handlers.
func (w *Watcher) showLastLines(filename, service string) error {
	lines, err := readLines(filename)
	if err != nil {
		return err
	}

	start := 0
	if len(lines) > w.tailLines {
		start = len(lines) - w.tailLines
	}

	for _, line := range lines[start:] {
		if line == "" {
			continue
		}
		w.callHandlers(ParseLine(line, filename, service))
	}
	return nil
}

// readLines reads a whole file into lines, tolerating a missing trailing
// newline.
func readLines(filename string) ([]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	buf := make([]byte, 64*1024)
	var partial string

	for {
		n, err := file.Read(buf)
		if n > 0 {
			chunk := partial + string(buf[:n])
			parts := splitLines(chunk)
			if len(parts) > 0 {
				partial = parts[len(parts)-1]
				lines = append(lines, parts[:len(parts)-1]...)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return lines, err
		}
	}
	if partial != "" {
		lines = append(lines, partial)
	}
	return lines, nil
}

// splitLines splits on newlines, preserving the last potentially incomplete
// line as the final element.
func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			line := s[start:i]
			if len(line) > 0 && line[len(line)-1] == '\r' {
				line = line[:len(line)-1]
			}
			lines = append(lines, line)
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func (w *Watcher) callHandlers(log ParsedLog) {
	w.mu.Lock()
	handlers := make([]LogHandler, len(w.handlers))
	copy(handlers, w.handlers)
	w.mu.Unlock()

	for _, h := range handlers {
		h(log)
	}
}

// FormatLog formats a parsed log for terminal output.
func FormatLog(log ParsedLog, noColor bool, showFilename bool) string {
	var prefix string
	if showFilename {
		prefix = fmt.Sprintf("[%-15s] ", truncate(filepath.Base(log.Source), 15))
	}

	ts := log.Timestamp.Format("15:04:05.000")
	level := fmt.Sprintf("%-5s", log.Severity)

	if noColor {
		return fmt.Sprintf("%s%s %s %s", prefix, ts, level, log.Message)
	}

	return fmt.Sprintf("%s%s %s%s%s %s",
		prefix,
		ts,
		SeverityColor(log.Severity),
		level,
		ColorReset(),
		log.Message,
	)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
