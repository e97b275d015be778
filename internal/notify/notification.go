// Package notify carries shopper-facing notifications (the storefront's toasts)
// back to the caller and out over the realtime socket.
package notify

import (
	"context"
	"sync"
	"time"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

type Notification struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

type Notifier interface {
	Notify(n Notification)
}

func Success(n Notifier, msg string) { send(n, LevelSuccess, msg) }
func Error(n Notifier, msg string)   { send(n, LevelError, msg) }
func Info(n Notifier, msg string)    { send(n, LevelInfo, msg) }

func send(n Notifier, level Level, msg string) {
	if n == nil {
		return
	}
	n.Notify(Notification{Level: level, Message: msg, Time: time.Now()})
}

// Recorder keeps notifications until the handler drains them into its response.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	r.items = append(r.items, n)
	r.mu.Unlock()
}

// Drain returns the collected notifications and resets the recorder.
func (r *Recorder) Drain() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.items
	r.items = nil
	if out == nil {
		out = []Notification{}
	}
	return out
}

// Fanout forwards every notification to each notifier in order.
type Fanout []Notifier

func (f Fanout) Notify(n Notification) {
	for _, x := range f {
		if x != nil {
			x.Notify(n)
		}
	}
}

type recorderKey struct{}

// WithRecorder returns ctx carrying the recorder of the request it belongs to.
func WithRecorder(ctx context.Context, rec *Recorder) context.Context {
	return context.WithValue(ctx, recorderKey{}, rec)
}

// To returns a notifier that reaches the recorder carried by ctx, if any, and also.
// Either may be missing; the result is nil when both are.
func To(ctx context.Context, also Notifier) Notifier {
	rec, _ := ctx.Value(recorderKey{}).(*Recorder)
	switch {
	case rec == nil:
		return also
	case also == nil:
		return rec
	}
	return Fanout{rec, also}
}
