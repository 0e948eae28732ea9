package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/layer-3/mintpass/core"
	"github.com/layer-3/mintpass/ports"
)

// DefaultVerdictTopic is the topic verdicts are published on
const DefaultVerdictTopic = "mintpass.challenge.verdict"

// VerdictEvent is the payload published for each evaluation
type VerdictEvent struct {
	ID                string `json:"id"`
	Success           bool   `json:"success"`
	Reason            string `json:"reason,omitempty"`
	Path              string `json:"path,omitempty"`
	AuthorAddress     string `json:"author_address"`
	SubplebbitAddress string `json:"subplebbit_address"`
	ChainTicker       string `json:"chain_ticker"`
	ContractAddress   string `json:"contract_address"`
	TokenID           string `json:"token_id,omitempty"`
	EvaluatedAt       int64  `json:"evaluated_at"`
}

// WatermillPublisher implements the VerdictPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
}

// Compile-time interface compliance check
var _ ports.VerdictPublisher = (*WatermillPublisher)(nil)

// NewWatermillPublisher creates a new Watermill publisher. An empty topic
// selects DefaultVerdictTopic.
func NewWatermillPublisher(publisher message.Publisher, topic string) *WatermillPublisher {
	if topic == "" {
		topic = DefaultVerdictTopic
	}
	return &WatermillPublisher{
		publisher: publisher,
		topic:     topic,
	}
}

// PublishVerdict publishes a verdict event. The author-facing error text is
// not part of the event.
func (p *WatermillPublisher) PublishVerdict(ctx context.Context, verdict *core.Verdict) error {
	event := VerdictEvent{
		ID:                verdict.ID,
		Success:           verdict.Success,
		Reason:            verdict.Reason,
		Path:              string(verdict.Path),
		AuthorAddress:     verdict.AuthorAddress,
		SubplebbitAddress: verdict.SubplebbitAddress,
		ChainTicker:       verdict.ChainTicker,
		ContractAddress:   verdict.ContractAddress,
		TokenID:           verdict.TokenID,
		EvaluatedAt:       verdict.EvaluatedAt.Unix(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(verdict.ID, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("outcome", outcome(verdict.Success))
	msg.Metadata.Set("published_at", strconv.FormatInt(time.Now().Unix(), 10))

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

func outcome(success bool) string {
	if success {
		return "accepted"
	}
	return "rejected"
}
