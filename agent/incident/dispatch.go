package incident

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultClassifyTimeout = 30 * time.Second

// LocalDispatcher classifies in a goroutine detached from the caller's
// cancellation.
type LocalDispatcher struct {
	run     func(ctx context.Context, incidentID string) (*Incident, error)
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewLocalDispatcher(run func(ctx context.Context, incidentID string) (*Incident, error), timeout time.Duration) *LocalDispatcher {
	if timeout <= 0 {
		timeout = defaultClassifyTimeout
	}
	return &LocalDispatcher{run: run, timeout: timeout}
}

func (d *LocalDispatcher) Dispatch(ctx context.Context, incidentID string) error {
	if d.run == nil {
		return errors.New("local dispatcher has no classifier")
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()
		if _, err := d.run(runCtx, incidentID); err != nil {
			log.Error().Err(err).Str("incident_id", incidentID).Msg("background incident classification failed")
		}
	}()
	return nil
}

// Wait blocks until every dispatched classification has finished.
func (d *LocalDispatcher) Wait() {
	d.wg.Wait()
}

type Publisher interface {
	Publish(ctx context.Context, destination string, body any) (string, error)
}

// ClassifyRequest is the callback payload delivered by QStash.
type ClassifyRequest struct {
	IncidentID string `json:"incidentId"`
}

// QStashDispatcher hands classification to QStash, which calls back into
// CallbackURL with a signed ClassifyRequest.
type QStashDispatcher struct {
	publisher   Publisher
	callbackURL string
}

func NewQStashDispatcher(publisher Publisher, callbackURL string) (*QStashDispatcher, error) {
	if publisher == nil {
		return nil, errors.New("qstash publisher is required")
	}
	callbackURL = strings.TrimSpace(callbackURL)
	if callbackURL == "" {
		return nil, errors.New("classification callback url is required")
	}
	return &QStashDispatcher{publisher: publisher, callbackURL: callbackURL}, nil
}

func (d *QStashDispatcher) Dispatch(ctx context.Context, incidentID string) error {
	id, err := d.publisher.Publish(ctx, d.callbackURL, ClassifyRequest{IncidentID: incidentID})
	if err != nil {
		return err
	}
	log.Debug().Str("incident_id", incidentID).Str("message_id", id).Msg("incident classification enqueued")
	return nil
}
