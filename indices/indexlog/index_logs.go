package indexlog

import (
	"fleetcare/idgen"
	"fleetcare/persistence"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

// IndexLogRecord tracks one pending synchronization of a source into the search index.
// A record is pending until IndexedTime is set, newer records of the same source obsolete the older ones.
type IndexLogRecord struct {
	ID         types.ID `json:"id" gorm:"primary_key"`
	SourceType string   `json:"sourceType" gorm:"index:idx_index_log_source"`
	SourceId   types.ID `json:"sourceId" gorm:"index:idx_index_log_source"`
	Deletion   bool     `json:"deletion"`

	Obsolete  bool   `json:"obsolete"`
	Attempts  int    `json:"attempts"`
	LastError string `json:"lastError" sql:"type:TEXT"`

	Timestamp   time.Time  `json:"timestamp"`
	IndexedTime *time.Time `json:"indexedTime"`
}

func (r *IndexLogRecord) TableName() string {
	return "index_logs"
}

var (
	idWorker = idgen.NewWorker()

	CreateIndexLogFunc        = CreateIndexLog
	FinishIndexLogFunc        = FinishIndexLog
	FailIndexLogFunc          = FailIndexLog
	LoadPendingIndexLogFunc   = LoadPendingIndexLog
	IndexLogPersistCreateFunc = indexLogPersistCreate
)

func CreateIndexLog(sourceType string, sourceId types.ID, deletion bool, timestamp time.Time) (*IndexLogRecord, error) {
	record := IndexLogRecord{
		ID:         idgen.NextID(idWorker),
		SourceType: sourceType,
		SourceId:   sourceId,
		Deletion:   deletion,
		Timestamp:  timestamp,
	}
	if err := IndexLogPersistCreateFunc(&record, persistence.ActiveDataSourceManager.GormDB(nil)); err != nil {
		return nil, err
	}
	return &record, nil
}

func FinishIndexLog(id types.ID) error {
	return persistence.ActiveDataSourceManager.GormDB(nil).Model(&IndexLogRecord{}).Where("id = ?", id).
		Updates(map[string]interface{}{"indexed_time": time.Now(), "last_error": ""}).Error
}

func FailIndexLog(id types.ID, cause error) error {
	return persistence.ActiveDataSourceManager.GormDB(nil).Model(&IndexLogRecord{}).Where("id = ?", id).
		Updates(map[string]interface{}{"attempts": gorm.Expr("attempts + 1"), "last_error": cause.Error()}).Error
}

// LoadPendingIndexLog returns the oldest pending records first.
func LoadPendingIndexLog(limit int) ([]IndexLogRecord, error) {
	records := []IndexLogRecord{}
	if err := persistence.ActiveDataSourceManager.GormDB(nil).
		Where("indexed_time IS NULL AND obsolete = ?", false).
		Order("timestamp ASC, id ASC").Limit(limit).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func indexLogPersistCreate(record *IndexLogRecord, db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&IndexLogRecord{}).
			Where("source_type = ? AND source_id = ? AND indexed_time IS NULL", record.SourceType, record.SourceId).
			Update("obsolete", true).Error; err != nil {
			return err
		}
		return tx.Create(record).Error
	})
}
