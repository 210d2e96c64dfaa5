package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	// DriverMemory selects the in-process driver.
	DriverMemory = "memory"
	// DriverNSQ selects NSQ.
	DriverNSQ = "nsq"
	// DriverNATS selects NATS.
	DriverNATS = "nats"
	// DriverKafka selects Kafka.
	DriverKafka = "kafka"
	// DriverGooglePubSub selects Google Cloud Pub/Sub.
	DriverGooglePubSub = "google-pubsub"
)

// ErrUnknownDriver is returned for an unsupported driver name.
var ErrUnknownDriver = errors.New("messaging: unknown driver")

// FactoryOptions holds the configuration of every driver; only the selected one is read.
type FactoryOptions struct {
	Memory MemoryConfig
	NSQ    NSQConfig
	Kafka  KafkaConfig
	NATS   NATSConfig
	PubSub PubSubConfig
}

// NewFromDriver builds the Messaging named by driver.
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Messaging, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverMemory, "":
		return NewMemory(opts.Memory), nil
	case DriverNSQ:
		return NewNSQ(opts.NSQ)
	case DriverKafka:
		return NewKafka(opts.Kafka)
	case DriverNATS:
		return NewNATS(opts.NATS)
	case DriverGooglePubSub:
		return NewPubSub(ctx, opts.PubSub)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}
