package messaging

import (
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/propagation"
)

var _ propagation.TextMapCarrier = (*HeaderCarrier)(nil)

// HeaderCarrier exposes Kafka message headers to OpenTelemetry propagators.
type HeaderCarrier struct {
	msg *kafka.Message
}

func NewHeaderCarrier(msg *kafka.Message) *HeaderCarrier {
	return &HeaderCarrier{msg: msg}
}

func (c *HeaderCarrier) Get(key string) string {
	if h, ok := header(c.msg, key); ok {
		return h
	}
	return ""
}

// Set replaces an existing header in place so re-injection never duplicates
// trace context.
func (c *HeaderCarrier) Set(key, value string) {
	setHeader(c.msg, key, value)
}

func (c *HeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(c.msg.Headers))
	for _, h := range c.msg.Headers {
		keys = append(keys, h.Key)
	}
	return keys
}

func header(msg *kafka.Message, key string) (string, bool) {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value), true
		}
	}
	return "", false
}

func setHeader(msg *kafka.Message, key, value string) {
	for i := range msg.Headers {
		if msg.Headers[i].Key == key {
			msg.Headers[i].Value = []byte(value)
			return
		}
	}
	msg.Headers = append(msg.Headers, kafka.Header{Key: key, Value: []byte(value)})
}
