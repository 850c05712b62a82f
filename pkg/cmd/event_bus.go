// Package cmd provides common initialization functions for the
// command-line entrypoints.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/dailygate/pkg/eventbus"
	"github.com/dukex/dailygate/pkg/eventbus/gochannel"
	"github.com/dukex/dailygate/pkg/eventbus/kafka"
)

// NewEventBus creates the event bus for the given provider. The
// in-memory gochannel provider serves single-process deployments;
// kafka serves multi-process ones.
func NewEventBus(provider string, logger *slog.Logger) eventbus.EventBus {
	wmLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(wmLogger, "dailygate")
		if err != nil {
			panic(fmt.Errorf("failed to create Kafka pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub)
	case "gochannel", "":
		pub, sub, err := gochannel.CreateChannel(wmLogger)
		if err != nil {
			panic(fmt.Errorf("failed to create gochannel pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub)
	default:
		panic("Unsupported event bus provider: " + provider)
	}
}
