// Package event carries the narrated simulation steps to whatever is
// watching: a console, a websocket client, or a test buffer. The core calls
// Notify synchronously at each step; implementations must not block it.
package event

import (
	"fmt"
	"io"
	"sync"
	"time"

	"cardsim/pkg/logger"
)

// Severity tags a narrated step for display purposes.
type Severity string

const (
	SeverityNeutral Severity = "neutral"
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Event is one narrated step.
type Event struct {
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
	Step     string    `json:"step,omitempty"` // phase banner, empty for regular messages
	At       time.Time `json:"at"`
}

// Notifier receives every narrated step of a simulation run.
type Notifier interface {
	Notify(message string, severity Severity)
	StartStep(title string)
}

// NewNop returns a Notifier that discards everything.
func NewNop() Notifier { return nopNotifier{} }

type nopNotifier struct{}

func (nopNotifier) Notify(string, Severity) {}
func (nopNotifier) StartStep(string)        {}

// ConsoleNotifier writes severity-prefixed lines, the demo runner's default.
type ConsoleNotifier struct {
	w io.Writer
}

func NewConsole(w io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{w: w}
}

func (c *ConsoleNotifier) Notify(message string, severity Severity) {
	fmt.Fprintf(c.w, "[%s] %s\n", severity, message)
}

func (c *ConsoleNotifier) StartStep(title string) {
	fmt.Fprintf(c.w, "\n--- %s ---\n", title)
}

// LogNotifier forwards steps to the structured logger.
type LogNotifier struct {
	log logger.Logger
}

func NewLog(log logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (l *LogNotifier) Notify(message string, severity Severity) {
	fields := map[string]interface{}{"severity": severity}
	switch severity {
	case SeverityError:
		l.log.Error(message, fields)
	case SeverityWarning:
		l.log.Warn(message, fields)
	default:
		l.log.Info(message, fields)
	}
}

func (l *LogNotifier) StartStep(title string) {
	l.log.Info("step started", map[string]interface{}{"step": title})
}

// BufferNotifier records events in order. Used by tests and by the outcome
// summary; safe for concurrent readers once the run has finished.
type BufferNotifier struct {
	mu     sync.Mutex
	events []Event
}

func NewBuffer() *BufferNotifier {
	return &BufferNotifier{}
}

func (b *BufferNotifier) Notify(message string, severity Severity) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, Event{Message: message, Severity: severity, At: time.Now()})
}

func (b *BufferNotifier) StartStep(title string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, Event{Message: title, Severity: SeverityNeutral, Step: title, At: time.Now()})
}

// Events returns a copy of everything recorded so far.
func (b *BufferNotifier) Events() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Event, len(b.events))
	copy(out, b.events)
	return out
}

// FuncNotifier adapts a callback, e.g. the websocket hub's broadcast.
type FuncNotifier struct {
	fn func(Event)
}

func NewFunc(fn func(Event)) *FuncNotifier {
	return &FuncNotifier{fn: fn}
}

func (f *FuncNotifier) Notify(message string, severity Severity) {
	f.fn(Event{Message: message, Severity: severity, At: time.Now()})
}

func (f *FuncNotifier) StartStep(title string) {
	f.fn(Event{Message: title, Severity: SeverityNeutral, Step: title, At: time.Now()})
}

// Multi fans one stream of steps out to several notifiers.
func Multi(notifiers ...Notifier) Notifier {
	return multiNotifier{notifiers: notifiers}
}

type multiNotifier struct {
	notifiers []Notifier
}

func (m multiNotifier) Notify(message string, severity Severity) {
	for _, n := range m.notifiers {
		n.Notify(message, severity)
	}
}

func (m multiNotifier) StartStep(title string) {
	for _, n := range m.notifiers {
		n.StartStep(title)
	}
}
