package broadcast

import (
	"context"
	"sync"

	"github.com/medidesk/dashboard/pkg/logging"
)

// NoopBus is the degraded mode for environments without a broadcast
// transport: cross-instance logout simply does not happen, and other
// instances stay logged in until their own token expires. A warning is
// logged once rather than erroring.
type NoopBus struct {
	logger *logging.Logger
	once   sync.Once
}

func NewNoopBus(logger *logging.Logger) *NoopBus {
	if logger == nil {
		logger = logging.Default()
	}
	return &NoopBus{logger: logger}
}

func (b *NoopBus) warn() {
	b.once.Do(func() {
		b.logger.Warn("broadcast: no transport configured; cross-instance logout disabled")
	})
}

func (b *NoopBus) Publish(context.Context, Event) error {
	b.warn()
	return nil
}

func (b *NoopBus) Subscribe(context.Context, func(Event)) (func(), error) {
	b.warn()
	return func() {}, nil
}
