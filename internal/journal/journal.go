package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gosimple/slug"
	natsserver "github.com/nats-io/nats-server/v2/server"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/xid"

	"github.com/mark3labs/sprintr/internal/logger"
)

const streamName = "sprintr_events"

// Event types recorded in the journal.
const (
	EventExtract   = "extract"
	EventSync      = "sync"
	EventIteration = "iteration"
)

// Event is one append-only journal entry.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Project   string    `json:"project"`
	Type      string    `json:"type"`             // extract, sync, iteration
	Module    string    `json:"module,omitempty"` // Module(s) affected, e.g. "US-001"
	Branch    string    `json:"branch,omitempty"` // Sprint branch name
	Data      string    `json:"data,omitempty"`   // Human-readable summary
}

// Journal is an embedded JetStream event log. One journal instance owns the
// embedded server for the lifetime of the process.
type Journal struct {
	ns     *natsserver.Server
	nc     *natsgo.Conn
	js     jetstream.JetStream
	stream jetstream.Stream
}

// Open starts the embedded server under dataDir and ensures the event
// stream exists.
func Open(ctx context.Context, dataDir string) (*Journal, error) {
	ns, err := startServer(dataDir)
	if err != nil {
		return nil, fmt.Errorf("starting journal server: %w", err)
	}

	nc, err := connectInProcess(ns)
	if err != nil {
		ns.Shutdown()
		return nil, fmt.Errorf("connecting to journal server: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		_ = shutdown(nc, ns)
		return nil, fmt.Errorf("creating JetStream context: %w", err)
	}

	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{"sprintr.>"},
		Storage:  jetstream.FileStorage,
	})
	if err != nil {
		_ = shutdown(nc, ns)
		return nil, fmt.Errorf("creating journal stream: %w", err)
	}

	return &Journal{ns: ns, nc: nc, js: js, stream: stream}, nil
}

// Close shuts the embedded server down. Safe to call more than once.
func (j *Journal) Close() error {
	if j.ns == nil {
		return nil
	}
	err := shutdown(j.nc, j.ns)
	j.nc = nil
	j.ns = nil
	return err
}

// Record appends an event. ID and timestamp are filled in when absent.
func (j *Journal) Record(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = xid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling journal event: %w", err)
	}

	subject := subjectFor(event.Project, event.Type)
	if _, err := j.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("publishing journal event: %w", err)
	}

	logger.Debug("Journal event: project=%s type=%s module=%s", event.Project, event.Type, event.Module)
	return nil
}

// Events returns all events for a project in append order. Malformed
// entries are skipped with a warning rather than aborting the read.
func (j *Journal) Events(ctx context.Context, project string) ([]Event, error) {
	consumer, err := j.stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		FilterSubject: subjectWildcard(project),
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("creating journal consumer: %w", err)
	}

	var events []Event
	const batchSize = 1000
	for {
		msgs, err := consumer.FetchNoWait(batchSize)
		if err != nil {
			break
		}

		count := 0
		for msg := range msgs.Messages() {
			count++
			var event Event
			if err := json.Unmarshal(msg.Data(), &event); err != nil {
				logger.Warn("Skipping malformed journal event: %v", err)
				_ = msg.Ack()
				continue
			}
			events = append(events, event)
			_ = msg.Ack()
		}

		if count < batchSize {
			break
		}
	}

	return events, nil
}

// SprintSeq returns the generation counter for the next sprint of a module:
// one more than the number of extractions already recorded for it. The
// counter keeps branch names collision-free on repeated extraction.
func (j *Journal) SprintSeq(ctx context.Context, project, module string) (int, error) {
	events, err := j.Events(ctx, project)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range events {
		if e.Type == EventExtract && e.Module == module {
			n++
		}
	}
	return n + 1, nil
}

func subjectFor(project, eventType string) string {
	return fmt.Sprintf("sprintr.%s.%s", subjectToken(project), eventType)
}

func subjectWildcard(project string) string {
	return fmt.Sprintf("sprintr.%s.>", subjectToken(project))
}

// subjectToken makes a project name safe for use in a NATS subject.
func subjectToken(project string) string {
	t := slug.Make(project)
	if t == "" {
		return "default"
	}
	return t
}
