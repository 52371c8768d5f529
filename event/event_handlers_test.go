package event_test

import (
	"fleetcare/event"
	"testing"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

func TestInvokeHandlers(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should invoke all registered event handlers", func(t *testing.T) {
		origin := event.EventHandlers
		defer func() { event.EventHandlers = origin }()

		event.EventHandlers = []event.EventHandler{
			func(e *event.EventRecord) *event.EventHandleResult {
				return nil
			},
			func(e *event.EventRecord) *event.EventHandleResult {
				return &event.EventHandleResult{Success: true, Message: "success", HandlerIdentifier: "all-success-handler"}
			},
			func(e *event.EventRecord) *event.EventHandleResult {
				return &event.EventHandleResult{Success: false, Message: "failure", HandlerIdentifier: "all-failure-handler"}
			},
		}

		ev := event.EventRecord{
			ID: 1,
			Event: event.Event{
				SourceType: event.SourceWorkOrder,
				SourceId:   1234,
				SourceDesc: "work order 1234",

				EventCategory:     event.EventCategoryStatusChanged,
				UpdatedProperties: event.StatusChange("pending", "in_progress"),

				CreatorId:   333,
				CreatorName: "user333",
			},
			Timestamp: time.Date(2021, 1, 1, 12, 12, 12, 0, time.Local),
			Synced:    true,
		}

		hook := logtest.NewGlobal()
		defer hook.Reset()

		ret := event.InvokeHandlersFunc(&ev)
		Expect(ret).To(Equal([]event.EventHandleResult{
			{Success: true, Message: "success", HandlerIdentifier: "all-success-handler"},
			{Success: false, Message: "failure", HandlerIdentifier: "all-failure-handler"},
		}))

		failed := hook.LastEntry()
		Expect(failed).ToNot(BeNil())
		Expect(failed.Level).To(Equal(logrus.ErrorLevel))
		Expect(failed.Message).To(Equal("event handler failed: failure"))
		Expect(failed.Data["source"]).To(Equal(event.SourceWorkOrder))
		Expect(failed.Data["sourceId"]).To(Equal(types.ID(1234)))
		Expect(failed.Data["handler"]).To(Equal("all-failure-handler"))
	})

	t.Run("should invoke handlers for each committed record and mark accepted ones synced", func(t *testing.T) {
		origin := event.InvokeHandlersFunc
		defer func() {
			event.InvokeHandlersFunc = origin
			event.MarkSyncedFunc = event.MarkSynced
		}()

		var invoked []string
		event.InvokeHandlersFunc = func(record *event.EventRecord) []event.EventHandleResult {
			invoked = append(invoked, record.SourceDesc)
			if record.SourceDesc == "b" {
				return []event.EventHandleResult{{Success: true}, {Success: false, Message: "index down"}}
			}
			return nil
		}
		var marked []types.ID
		event.MarkSyncedFunc = func(ids []types.ID, db *gorm.DB) error {
			marked = ids
			return nil
		}
		event.InvokeAll([]*event.EventRecord{{ID: 1, Event: event.Event{SourceDesc: "a"}}, nil, {ID: 2, Event: event.Event{SourceDesc: "b"}}})
		Expect(invoked).To(Equal([]string{"a", "b"}))
		Expect(marked).To(Equal([]types.ID{1}))
	})
}
