package event

import (
	"github.com/sirupsen/logrus"
)

// EventHandler reacts to a committed record, it returns nil for records it does not care about.
type EventHandler func(e *EventRecord) *EventHandleResult

type EventHandleResult struct {
	Success           bool
	Message           string
	HandlerIdentifier string
}

var EventHandlers []EventHandler

var InvokeHandlersFunc = invokeHandlers

func invokeHandlers(record *EventRecord) []EventHandleResult {
	log := logrus.WithFields(logrus.Fields{
		"eventId":  record.ID,
		"source":   record.SourceType,
		"sourceId": record.SourceId,
		"category": record.EventCategory,
	})

	results := []EventHandleResult{}
	for _, handler := range EventHandlers {
		r := handler(record)
		if r == nil {
			continue
		}
		results = append(results, *r)

		entry := log.WithField("handler", r.HandlerIdentifier)
		if r.Success {
			entry.Debug(r.Message)
		} else {
			entry.Errorf("event handler failed: %s", r.Message)
		}
	}
	return results
}
