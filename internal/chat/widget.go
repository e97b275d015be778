package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wichananm65/flower-shop-storefront/internal/apperr"
)

// Widget holds one visitor's transcript. Every question gets a sequence number and
// only the reply to the latest one is appended.
type Widget struct {
	backend Backend
	links   Links
	log     *logrus.Entry
	now     func() time.Time

	mu         sync.Mutex
	seq        uint64
	transcript []Segment
}

func NewWidget(id string, backend Backend, links Links, logger *logrus.Logger) *Widget {
	w := &Widget{
		backend: backend,
		links:   links,
		log:     logger.WithFields(logrus.Fields{"component": "chat", "chat_id": id}),
		now:     time.Now,
	}
	w.transcript = []Segment{{Role: RoleBot, Text: Greeting, Time: w.now()}}
	return w
}

func (w *Widget) Transcript() []Segment {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Segment(nil), w.transcript...)
}

// Send appends the question and, once the suggestion arrives, the reply segments.
// A failed call appends the fallback message instead. Either way nothing is appended
// if another question was sent in the meantime, and ErrStale is returned.
func (w *Widget) Send(ctx context.Context, question string) ([]Segment, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, apperr.Validation("chat.Send", "question is empty")
	}

	w.mu.Lock()
	w.seq++
	seq := w.seq
	w.transcript = append(w.transcript, Segment{Role: RoleUser, Text: question, Time: w.now()})
	w.mu.Unlock()

	reply, err := w.backend.Suggest(ctx, question)

	var added []Segment
	if err != nil {
		w.log.WithError(err).Warn("chat suggestion failed")
		added = []Segment{{Role: RoleBot, Text: Fallback, Time: w.now()}}
	} else {
		added = w.links.segments(reply, w.now())
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if seq != w.seq {
		w.log.WithField("seq", seq).Debug("discarding stale chat reply")
		return nil, ErrStale
	}
	w.transcript = append(w.transcript, added...)
	return added, err
}
