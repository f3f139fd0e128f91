package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"ms-checkin/internal/models"
)

type Producer struct {
	Writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		Writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// CheckInEvent is the wire shape of one check-in on the audit stream: the
// immutable ledger entry plus the guest view at commit time, so consumers
// do not have to join back against the guest store.
type CheckInEvent struct {
	Entry models.CheckInEntry `json:"entry"`
	Guest models.GuestView    `json:"guest"`
}

// PublishGuestCheckedIn streams one committed check-in, keyed by guest id.
func (p *Producer) PublishGuestCheckedIn(entry models.CheckInEntry, guest models.GuestView) error {
	msgBytes, err := json.Marshal(CheckInEvent{Entry: entry, Guest: guest})
	if err != nil {
		return err
	}

	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Topic: TopicGuestCheckedIn,
			Key:   []byte(entry.GuestID),
			Value: msgBytes,
		},
	)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
