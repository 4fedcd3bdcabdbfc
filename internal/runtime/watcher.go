package runtime

import (
	"bytes"
	"context"
	"os"
	"time"
)

// Watch polls path and invokes fn with the file's contents whenever they
// change, edge-triggered: fn fires once per distinct content, including
// once for the initial state. A change arriving while an earlier one is
// still being compiled simply produces a later fn call whose staged
// graph supersedes the earlier one (§5). Polling rather than inotify
// keeps the watcher portable and dependency-free; at editor-save
// granularity the interval is imperceptible.
func Watch(ctx context.Context, path string, interval time.Duration, fn func(text string)) error {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	var last []byte
	first := true

	check := func() {
		data, err := os.ReadFile(path)
		if err != nil {
			return
		}
		if !first && bytes.Equal(data, last) {
			return
		}
		first = false
		last = data
		fn(string(data))
	}

	check()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			check()
		}
	}
}
