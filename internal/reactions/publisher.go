package reactions

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// SubjectPosted is the JetStream subject reaction messages are published on.
const SubjectPosted = "feed.reactions.posted"

// Publisher publishes reactions to NATS JetStream so other sessions and the
// backend see them. The zero value and a nil pointer are both safe no-op
// stubs.
type Publisher struct {
	js  nats.JetStreamContext
	log *zap.Logger
}

// NewPublisher creates a Publisher using an existing JetStream context.
// Pass js=nil to get a no-op stub (useful in tests and offline sessions).
func NewPublisher(js nats.JetStreamContext, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{js: js, log: log}
}

// Publish sends a reaction asynchronously (fire-and-forget). Failures are
// logged as warnings and never surface to the caller; the local store is the
// source of truth for what the user sees.
func (p *Publisher) Publish(r Reaction) {
	if p == nil || p.js == nil {
		return
	}
	data, err := json.Marshal(r)
	if err != nil {
		p.log.Warn("reactions: marshal failed", zap.String("video_id", r.VideoID), zap.Error(err))
		return
	}
	if _, err := p.js.PublishAsync(SubjectPosted, data); err != nil {
		p.log.Warn("reactions: publish failed", zap.String("subject", SubjectPosted), zap.Error(err))
	}
}
