package client

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// NotificationPublisher publishes workflow events to NATS for consumption by
// the notification service.
//
// Subject convention: notifications.wf.<event_type>
// Event types: claim_created, claim_allocated, claim_forwarded,
//              claim_approved, claim_rejected, clarification_requested,
//              clarification_responded
//
// All publish operations are non-fatal — errors are logged but never
// propagated, so notification failures never interrupt workflow operations.
// The claim_approved event is also what triggers sanction order generation
// downstream.
type NotificationPublisher struct {
	conn *nats.Conn
	log  zerolog.Logger
}

// NotificationEvent is the JSON schema published to NATS.
type NotificationEvent struct {
	EventType  string                 `json:"event_type"`
	ClaimID    string                 `json:"claim_id"`
	BillID     string                 `json:"bill_id,omitempty"`
	ActorID    string                 `json:"actor_id"`
	Recipients []string               `json:"recipients,omitempty"`
	Severity   string                 `json:"severity,omitempty"`
	Category   string                 `json:"category,omitempty"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
}

// NewNotificationPublisher connects to NATS. A publisher with an empty url
// is valid and drops every event, so the workflow can run without a broker
// in development.
func NewNotificationPublisher(url string, log zerolog.Logger) (*NotificationPublisher, error) {
	if url == "" {
		return &NotificationPublisher{log: log}, nil
	}
	conn, err := nats.Connect(url,
		nats.Name("be-wf-sanctions"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &NotificationPublisher{conn: conn, log: log}, nil
}

// Close drains the NATS connection.
func (p *NotificationPublisher) Close() {
	if p.conn != nil {
		p.conn.Drain()
	}
}

// PublishClaimEvent publishes a workflow event for a claim.
// Subject: notifications.wf.<eventType>
func (p *NotificationPublisher) PublishClaimEvent(eventType, claimID, billID, actorID string, recipients []string, payload map[string]interface{}) {
	if p.conn == nil {
		return
	}

	event := &NotificationEvent{
		EventType:  eventType,
		ClaimID:    claimID,
		BillID:     billID,
		ActorID:    actorID,
		Recipients: recipients,
		Severity:   "info",
		Category:   "wf_approval",
		Payload:    payload,
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.log.Warn().Err(err).Str("event_type", eventType).Msg("notification: failed to marshal event")
		return
	}

	subject := fmt.Sprintf("notifications.wf.%s", eventType)
	if err := p.conn.Publish(subject, data); err != nil {
		p.log.Warn().Err(err).
			Str("subject", subject).
			Str("claim_id", claimID).
			Msg("notification: failed to publish NATS event (non-fatal)")
		return
	}

	p.log.Debug().
		Str("subject", subject).
		Str("claim_id", claimID).
		Msg("notification: event published")
}
