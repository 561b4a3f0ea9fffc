// Package log provides a feed based logger.
package log

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Level defines log level.
type Level uint8

// Logging levels.
const (
	LevelError   Level = 16
	LevelWarning Level = 24
	LevelInfo    Level = 32
	LevelDebug   Level = 48
)

// UnixMillisecond .
type UnixMillisecond uint64

// Entry defines a log entry.
type Entry struct {
	Level Level
	Time  UnixMillisecond
	Src   string
	Msg   string
}

// Event is a log entry under construction.
type Event struct {
	entry  Entry
	logger *Logger
}

// Src sets the event source.
func (e *Event) Src(src string) *Event {
	e.entry.Src = src
	return e
}

// Time sets the event time.
func (e *Event) Time(t time.Time) *Event {
	e.entry.Time = UnixMillisecond(t.UnixNano() / 1000)
	return e
}

// Msg sends the event with msg as the message field.
func (e *Event) Msg(msg string) {
	e.entry.Msg = msg
	if e.entry.Time == 0 {
		e.Time(time.Now())
	}
	e.logger.feed <- e.entry
}

// Msgf sends the event with a formatted message.
func (e *Event) Msgf(format string, v ...interface{}) {
	e.Msg(fmt.Sprintf(format, v...))
}

type entryFeed chan Entry

// Logger broadcasts log entries to subscribers.
type Logger struct {
	feed  entryFeed
	sub   chan entryFeed
	unsub chan entryFeed
}

// NewLogger returns a logger. Start must be called before use.
func NewLogger() *Logger {
	return &Logger{
		feed:  make(entryFeed),
		sub:   make(chan entryFeed),
		unsub: make(chan entryFeed),
	}
}

func (l *Logger) event(level Level) *Event {
	return &Event{entry: Entry{Level: level}, logger: l}
}

// Error starts an error level event.
func (l *Logger) Error() *Event { return l.event(LevelError) }

// Warn starts a warning level event.
func (l *Logger) Warn() *Event { return l.event(LevelWarning) }

// Info starts an info level event.
func (l *Logger) Info() *Event { return l.event(LevelInfo) }

// Debug starts a debug level event.
func (l *Logger) Debug() *Event { return l.event(LevelDebug) }

// Start broadcasting until ctx is canceled.
func (l *Logger) Start(ctx context.Context) {
	go func() {
		subs := map[entryFeed]struct{}{}
		for {
			select {
			case <-ctx.Done():
				return

			case ch := <-l.sub:
				subs[ch] = struct{}{}

			case ch := <-l.unsub:
				close(ch)
				delete(subs, ch)

			case entry := <-l.feed:
				for ch := range subs {
					ch <- entry
				}
			}
		}
	}()
}

// CancelFunc cancels a feed subscription.
type CancelFunc func()

// Subscribe returns a new feed of log entries and a CancelFunc.
func (l *Logger) Subscribe() (<-chan Entry, CancelFunc) {
	feed := make(entryFeed)
	l.sub <- feed

	cancel := func() {
		l.unSubscribe(feed)
	}
	return feed, cancel
}

func (l *Logger) unSubscribe(feed entryFeed) {
	// Drain the feed until the unsub request is accepted.
	for {
		select {
		case l.unsub <- feed:
			return
		case <-feed:
		}
	}
}

// PrintToStdout prints the log feed to stdout until ctx is canceled.
func (l *Logger) PrintToStdout(ctx context.Context) {
	feed, cancel := l.Subscribe()
	defer cancel()
	for {
		select {
		case entry := <-feed:
			fmt.Println(formatEntry(entry))
		case <-ctx.Done():
			return
		}
	}
}

func formatEntry(entry Entry) string {
	var b strings.Builder

	switch entry.Level {
	case LevelError:
		b.WriteString("[ERROR] ")
	case LevelWarning:
		b.WriteString("[WARNING] ")
	case LevelInfo:
		b.WriteString("[INFO] ")
	case LevelDebug:
		b.WriteString("[DEBUG] ")
	}

	if entry.Src != "" {
		b.WriteString(entry.Src)
		b.WriteString(": ")
	}
	b.WriteString(entry.Msg)
	return b.String()
}
