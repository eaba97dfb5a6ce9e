// Package notify provides notification sinks for the taxonomy editor. Sinks
// are injected into the action context and edit form; there is no global
// notifier.
package notify

import (
	"slices"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/taxa/pkg/types"
)

// Func adapts a function to types.Notifier.
type Func func(types.Notification)

// Notify calls f(n).
func (f Func) Notify(n types.Notification) { f(n) }

// Discard drops every notification.
var Discard types.Notifier = Func(func(types.Notification) {})

// Recorder keeps the notifications it receives. Tests assert on Recorder
// contents; the terminal UI shows the last one on its status line.
type Recorder struct {
	mu    sync.Mutex
	limit int
	items []types.Notification
}

// NewRecorder returns a Recorder holding at most limit notifications, oldest
// dropped first. A limit of 0 keeps everything.
func NewRecorder(limit int) *Recorder {
	if limit < 0 {
		limit = 0
	}
	return &Recorder{limit: limit}
}

// Notify records n.
func (r *Recorder) Notify(n types.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
	if r.limit > 0 && len(r.items) > r.limit {
		r.items = slices.Delete(r.items, 0, len(r.items)-r.limit)
	}
}

// All returns a copy of every notification received so far.
func (r *Recorder) All() []types.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Last returns the most recent notification and true, or false if none.
func (r *Recorder) Last() (types.Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return types.Notification{}, false
	}
	return r.items[len(r.items)-1], true
}

// Count returns how many notifications of severity s were received.
func (r *Recorder) Count(s types.Severity) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, it := range r.items {
		if it.Severity == s {
			n++
		}
	}
	return n
}

// Reset forgets all recorded notifications.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.items = nil
	r.mu.Unlock()
}

// LogSink writes notifications to a logrus logger.
type LogSink struct {
	logger *log.Logger
}

// NewLogSink returns a sink writing to logger, or to the standard logrus
// logger when logger is nil.
func NewLogSink(logger *log.Logger) *LogSink {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &LogSink{logger: logger}
}

// Notify logs n at a level matching its severity.
func (s *LogSink) Notify(n types.Notification) {
	entry := s.logger.WithField("severity", string(n.Severity))
	switch n.Severity {
	case types.SeverityError:
		entry.Error(n.Text)
	case types.SeverityWarning:
		entry.Warn(n.Text)
	default:
		entry.Info(n.Text)
	}
}

// Fanout delivers each notification to every sink in order.
type Fanout []types.Notifier

// Notify forwards n to every non-nil sink.
func (f Fanout) Notify(n types.Notification) {
	for _, s := range f {
		if s != nil {
			s.Notify(n)
		}
	}
}

// Success builds a success notification.
func Success(text string) types.Notification {
	return types.Notification{Severity: types.SeveritySuccess, Text: text}
}

// Info builds an informational notification.
func Info(text string) types.Notification {
	return types.Notification{Severity: types.SeverityInfo, Text: text}
}

// Warning builds a warning notification.
func Warning(text string) types.Notification {
	return types.Notification{Severity: types.SeverityWarning, Text: text}
}

// Error builds an error notification.
func Error(text string) types.Notification {
	return types.Notification{Severity: types.SeverityError, Text: text}
}
