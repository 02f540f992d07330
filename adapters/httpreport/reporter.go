// Package httpreport implements the event reporter port over HTTP with
// fire-and-forget semantics: Send enqueues without blocking and a single
// dispatcher goroutine posts events in the background. Delivery failures
// are logged and dropped; the assignment path never waits on them.
package httpreport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"gosplit/domain/experiment"
	"gosplit/internal"
	"gosplit/ports"
)

// Reporter posts events to a collector endpoint, best-effort.
type Reporter struct {
	endpoint string
	client   *http.Client
	queue    chan experiment.Event
	log      *internal.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// Options tune queue depth and per-request timeout.
type Options struct {
	QueueSize   int
	SendTimeout time.Duration
}

// NewReporter creates a reporter and starts its dispatcher.
func NewReporter(endpoint string, opts Options, log *internal.Logger) *Reporter {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1024
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 5 * time.Second
	}
	if log == nil {
		log = internal.DefaultLogger
	}

	r := &Reporter{
		endpoint: endpoint,
		client:   &http.Client{Timeout: opts.SendTimeout},
		queue:    make(chan experiment.Event, opts.QueueSize),
		log:      log,
		done:     make(chan struct{}),
	}
	go r.dispatch()
	return r
}

var _ ports.EventReporter = (*Reporter)(nil)

// Send enqueues an event without blocking. When the queue is full the
// event is dropped with a warning; at-most-best-effort delivery is the
// contract, and a slow collector must not back-pressure assignments.
func (r *Reporter) Send(ctx context.Context, ev experiment.Event) error {
	select {
	case r.queue <- ev:
	default:
		r.log.Warn("event queue full, dropping %s event for experiment %s", ev.Name, ev.ExperimentID)
	}
	return nil
}

// Close stops the dispatcher after draining queued events.
func (r *Reporter) Close() {
	r.closeOnce.Do(func() {
		close(r.queue)
		<-r.done
	})
}

func (r *Reporter) dispatch() {
	defer close(r.done)
	for ev := range r.queue {
		r.post(ev)
	}
}

func (r *Reporter) post(ev experiment.Event) {
	body, err := json.Marshal(ev)
	if err != nil {
		r.log.Error("marshaling event %s: %v", ev.ID, err)
		return
	}

	req, err := http.NewRequest(http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		r.log.Error("building event request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		r.log.Warn("event delivery failed for experiment %s: %v", ev.ExperimentID, err)
		return
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		r.log.Warn("event collector returned %d for experiment %s", resp.StatusCode, ev.ExperimentID)
	}
}
