package event

import (
	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	EventPersistCreateFunc       = eventPersistCreate
	EventPersistCreateFuncOrigin = eventPersistCreate
)

func eventPersistCreate(record *EventRecord, db *gorm.DB) error {
	return db.Create(record).Error
}

func MarkSynced(ids []types.ID, db *gorm.DB) error {
	if len(ids) == 0 {
		return nil
	}
	return db.Model(&EventRecord{}).Where("id IN (?)", ids).Update("synced", true).Error
}
