package mqtt

import (
	"github.com/sweeney/soil-irrigator/internal/log"
	"github.com/sweeney/soil-irrigator/internal/logic"
)

// LogPublisher writes events to the log instead of a broker. It is used
// when no broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(event logic.PumpEvent) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}
	log.Infow("pump event", "payload", string(payload))
	return nil
}

func (LogPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	log.Debugw("system event", "event", event.Event, "payload", string(payload))
	return nil
}

func (LogPublisher) Close() error { return nil }
