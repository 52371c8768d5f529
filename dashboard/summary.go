package dashboard

import (
	"fleetcare/domain"
	"fleetcare/domain/inventory"
	"fleetcare/persistence"
	"fleetcare/session"

	"github.com/jinzhu/gorm"
)

var SummaryFunc = Summary

type Overview struct {
	Vehicles   map[domain.VehicleStatus]int   `json:"vehicles"`
	Reports    map[domain.ReportStatus]int    `json:"reports"`
	WorkOrders map[domain.WorkOrderStatus]int `json:"workOrders"`

	OpenDiagnostics int                    `json:"openDiagnostics"`
	OverduePlans    int                    `json:"overduePlans"`
	LowStockItems   []domain.InventoryItem `json:"lowStockItems"`
}

type statusCount struct {
	Status string
	Total  int
}

// Summary aggregates the fleet state. Every known status is present in the maps, zero included.
func Summary(s *session.Session) (*Overview, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	o := Overview{
		Vehicles:   map[domain.VehicleStatus]int{},
		Reports:    map[domain.ReportStatus]int{},
		WorkOrders: map[domain.WorkOrderStatus]int{},
	}
	for _, st := range domain.VehicleStatuses {
		o.Vehicles[st] = 0
	}
	for _, st := range domain.ReportStatuses {
		o.Reports[st] = 0
	}
	for _, st := range domain.WorkOrderStatuses {
		o.WorkOrders[st] = 0
	}

	counts, err := countByStatus(db, &domain.Vehicle{})
	if err != nil {
		return nil, err
	}
	for _, c := range counts {
		o.Vehicles[domain.VehicleStatus(c.Status)] = c.Total
	}
	if counts, err = countByStatus(db, &domain.Report{}); err != nil {
		return nil, err
	}
	for _, c := range counts {
		o.Reports[domain.ReportStatus(c.Status)] = c.Total
	}
	if counts, err = countByStatus(db, &domain.WorkOrder{}); err != nil {
		return nil, err
	}
	for _, c := range counts {
		o.WorkOrders[domain.WorkOrderStatus(c.Status)] = c.Total
	}

	if err := db.Model(&domain.Diagnostic{}).Where("state = ?", domain.DiagnosticOpen).Count(&o.OpenDiagnostics).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&domain.MaintenancePlan{}).Where("status = ?", domain.PlanOverdue).Count(&o.OverduePlans).Error; err != nil {
		return nil, err
	}
	if o.LowStockItems, err = inventory.LowStockItemsDirectly(db); err != nil {
		return nil, err
	}
	return &o, nil
}

func countByStatus(db *gorm.DB, model interface{}) ([]statusCount, error) {
	counts := []statusCount{}
	err := db.Model(model).Select("status, count(*) AS total").Group("status").Scan(&counts).Error
	return counts, err
}
