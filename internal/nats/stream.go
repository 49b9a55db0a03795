package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/rhinoai/cad-interpreter/internal/model"
)

const (
	// StreamName is the name of the interpretations stream.
	StreamName = "INTERPRETATIONS"

	// SubjectPrefix is the prefix for all interpretation subjects.
	SubjectPrefix = "interp"
)

// StreamManager handles JetStream stream operations for the
// interpretation audit trail.
type StreamManager struct {
	client *Client
}

// NewStreamManager creates a new stream manager.
func NewStreamManager(client *Client) *StreamManager {
	return &StreamManager{client: client}
}

// EnsureStream ensures the interpretations stream exists.
func (m *StreamManager) EnsureStream(ctx context.Context) error {
	js := m.client.JetStream()

	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      90 * 24 * time.Hour,
		MaxBytes:    10 * 1024 * 1024 * 1024, // 10GB
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		DenyDelete:  true,
		DenyPurge:   true,
		Description: "Interpretation turn outcomes, one message per turn",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// EventSubject returns the subject for one interpretation event:
// interp.<tenant>.<session>.<outcome>.
func EventSubject(tenantID, sessionID string, outcome model.ResultKind) string {
	return fmt.Sprintf("%s.%s.%s.%s", SubjectPrefix, tenantID, sessionID, outcome)
}

// SessionFilter returns the filter subject covering every event in a
// session.
func SessionFilter(tenantID, sessionID string) string {
	return fmt.Sprintf("%s.%s.%s.>", SubjectPrefix, tenantID, sessionID)
}

// PublishInterpretation publishes one turn's event to JetStream and
// returns the stream sequence.
func (m *StreamManager) PublishInterpretation(ctx context.Context, event *model.InterpretationEvent) (uint64, error) {
	subject := EventSubject(event.TenantID, event.SessionID, event.Outcome)

	data, err := json.Marshal(event)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal event: %w", err)
	}

	ack, err := m.client.JetStream().Publish(ctx, subject, data)
	if err != nil {
		return 0, fmt.Errorf("failed to publish event: %w", err)
	}

	return ack.Sequence, nil
}
