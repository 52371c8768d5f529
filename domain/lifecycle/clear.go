package lifecycle

import (
	"fleetcare/bizerror"
	"fleetcare/domain"
	"fleetcare/domain/vehicle"
	"fleetcare/event"
	"fleetcare/persistence"
	"fleetcare/session"
	"strconv"

	"github.com/jinzhu/gorm"
)

var ClearReportsFunc = ClearReports

type ClearResult struct {
	Reports     int64 `json:"reports"`
	Diagnostics int64 `json:"diagnostics"`
	WorkOrders  int64 `json:"workOrders"`
	Tasks       int64 `json:"tasks"`
	Materials   int64 `json:"materials"`
	Evidence    int64 `json:"evidence"`
	Vehicles    int64 `json:"vehicles"`
}

// ClearReports removes every report with its diagnostics and work orders in one transaction,
// and returns vehicles left in service to their resting status.
// Consumed inventory is not restocked and evidence objects stay in the bucket.
func ClearReports(s *session.Session) (*ClearResult, error) {
	if !s.Perms.IsSystemAdmin() {
		return nil, bizerror.ErrForbidden
	}

	result := ClearResult{}
	var t *transition
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		t = newTransition(tx, s)
		for _, table := range domain.LifecycleTables {
			db := tx.Where("1 = 1").Delete(table)
			if db.Error != nil {
				return db.Error
			}
			switch table.(type) {
			case *domain.WorkOrderEvidence:
				result.Evidence = db.RowsAffected
			case *domain.WorkOrderMaterial:
				result.Materials = db.RowsAffected
			case *domain.WorkOrderTask:
				result.Tasks = db.RowsAffected
			case *domain.WorkOrder:
				result.WorkOrders = db.RowsAffected
			case *domain.Diagnostic:
				result.Diagnostics = db.RowsAffected
			case *domain.Report:
				result.Reports = db.RowsAffected
			}
		}

		vehicles, err := vehicle.ResetServiceStatusDirectly(tx)
		if err != nil {
			return err
		}
		result.Vehicles = vehicles

		summary := strconv.FormatInt(result.Reports, 10) + " reports, " + strconv.FormatInt(result.WorkOrders, 10) + " work orders"
		return t.record(event.CreateEvent(event.SourceReport, 0, summary, event.EventCategoryDeleted, nil, nil, &s.Identity, t.now, tx))
	})
	if err != nil {
		return nil, bizerror.StorageFailure(err)
	}
	event.InvokeAll(t.events)
	return &result, nil
}
