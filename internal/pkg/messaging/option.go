package messaging

import "strconv"

type consumeOptions struct {
	concurrency int
	autoAck     bool
	maxInFlight int

	// group is the Kafka consumer group.
	group string
	// channel is the NSQ channel.
	channel string
	// queueGroup is the NATS queue group.
	queueGroup string
	// subscription is the Pub/Sub subscription; the source then names the topic.
	subscription string

	params map[string]string
}

// ConsumeOption tunes a Consume call.
type ConsumeOption func(*consumeOptions)

func newConsumeOptions(opts ...ConsumeOption) consumeOptions {
	co := consumeOptions{concurrency: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(&co)
		}
	}

	if co.concurrency <= 0 {
		co.concurrency = 1
	}
	if v, ok := co.params["auto_ack"]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			co.autoAck = b
		}
	}
	if v := co.params["queue_group"]; v != "" {
		co.queueGroup = v
	}
	if v := co.params["subscription"]; v != "" {
		co.subscription = v
	}

	return co
}

// WithConcurrency sets how many handlers run in parallel.
func WithConcurrency(n int) ConsumeOption {
	return func(o *consumeOptions) { o.concurrency = n }
}

// WithAutoAck acks on a nil handler error and nacks otherwise.
func WithAutoAck(autoAck bool) ConsumeOption {
	return func(o *consumeOptions) { o.autoAck = autoAck }
}

// WithMaxInFlight caps unacknowledged messages where the broker supports it.
func WithMaxInFlight(n int) ConsumeOption {
	return func(o *consumeOptions) { o.maxInFlight = n }
}

// WithGroup sets the Kafka consumer group.
func WithGroup(group string) ConsumeOption {
	return func(o *consumeOptions) { o.group = group }
}

// WithChannel sets the NSQ channel.
func WithChannel(channel string) ConsumeOption {
	return func(o *consumeOptions) { o.channel = channel }
}

// WithQueueGroup sets the NATS queue group.
func WithQueueGroup(queueGroup string) ConsumeOption {
	return func(o *consumeOptions) { o.queueGroup = queueGroup }
}

// WithSubscription sets the Pub/Sub subscription.
func WithSubscription(subscription string) ConsumeOption {
	return func(o *consumeOptions) { o.subscription = subscription }
}

// WithParam sets a broker-specific parameter such as "auto_ack" or "queue_group".
func WithParam(key, value string) ConsumeOption {
	return func(o *consumeOptions) {
		if key == "" {
			return
		}
		if o.params == nil {
			o.params = map[string]string{}
		}
		o.params[key] = value
	}
}
