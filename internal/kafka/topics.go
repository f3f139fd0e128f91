package kafka

import (
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// TopicGuestCheckedIn carries one message per committed check-in, keyed by
// guest id so per-guest ordering is preserved within a partition.
const TopicGuestCheckedIn = "roster.guest.checked-in"

// EnsureTopicsExist creates the given topics if they are missing. Failures
// on individual topics are logged and skipped so one bad topic does not
// block service startup.
func EnsureTopicsExist(brokers []string, topics []string) error {
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	controllerConn, err := kafka.Dial("tcp", controller.Host)
	if err != nil {
		return err
	}
	defer controllerConn.Close()

	for _, topic := range topics {
		err := controllerConn.CreateTopics(kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		})
		if err != nil {
			if err.Error() == "kafka server: topic already exists" {
				continue
			}
			log.Printf("Error creating topic %s: %v", topic, err)
			continue
		}
		log.Printf("Created topic: %s", topic)
	}

	// Give the controller a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
	return nil
}
