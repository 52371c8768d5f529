package event

import (
	"fleetcare/idgen"
	"fleetcare/persistence"
	"fleetcare/session"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

var (
	idWorker = idgen.NewWorker()

	QueryEventsFunc = QueryEvents
	MarkSyncedFunc  = MarkSynced
)

// CreateEvent persists an audit record with db, which is normally the transaction of the change itself.
func CreateEvent(sourceType string, sourceId types.ID, sourceDesc string, category EventCategory,
	updatedProperties UpdatedProperties, updatedRelations UpdatedRelations,
	identity *session.Identity, timestamp time.Time, db *gorm.DB) (*EventRecord, error) {

	record := EventRecord{
		ID: idgen.NextID(idWorker),
		Event: Event{
			SourceType: sourceType,
			SourceId:   sourceId,
			SourceDesc: sourceDesc,

			EventCategory:     category,
			UpdatedProperties: updatedProperties,
			UpdatedRelations:  updatedRelations,

			CreatorId:   identity.ID,
			CreatorName: identity.DisplayName(),
		},
		Synced:    false,
		Timestamp: timestamp,
	}
	if err := EventPersistCreateFunc(&record, db); err != nil {
		return nil, err
	}
	return &record, nil
}

type EventQuery struct {
	SourceType string   `form:"sourceType" binding:"required"`
	SourceId   types.ID `form:"sourceId"`
}

// QueryEvents lists the audit trail of a source in time order.
func QueryEvents(q *EventQuery, s *session.Session) ([]EventRecord, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context).Where("source_type = ?", q.SourceType)
	if q.SourceId != 0 {
		db = db.Where("source_id = ?", q.SourceId)
	}
	records := []EventRecord{}
	if err := db.Order("timestamp ASC, id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// InvokeAll runs the registered handlers for records of a committed transaction.
// Records accepted by every handler are marked synced, the others are left for inspection.
func InvokeAll(records []*EventRecord) {
	synced := []types.ID{}
	for _, r := range records {
		if r == nil {
			continue
		}
		accepted := true
		for _, result := range InvokeHandlersFunc(r) {
			accepted = accepted && result.Success
		}
		if accepted {
			synced = append(synced, r.ID)
		}
	}
	if len(synced) == 0 {
		return
	}
	if err := MarkSyncedFunc(synced, persistence.ActiveDataSourceManager.GormDB(nil)); err != nil {
		logrus.Warnf("mark events %v synced: %v", synced, err)
	}
}
