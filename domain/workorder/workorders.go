package workorder

import (
	"errors"
	"fleetcare/bizerror"
	"fleetcare/domain"
	"fleetcare/idgen"
	"fleetcare/persistence"
	"fleetcare/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	idWorker = idgen.NewWorker()

	QueryWorkOrdersFunc = QueryWorkOrders
	DetailWorkOrderFunc = DetailWorkOrder
)

type WorkOrderQuery struct {
	Status    domain.WorkOrderStatus `form:"status"`
	VehicleID types.ID               `form:"vehicleId"`
	ReportID  types.ID               `form:"reportId"`
}

type WorkOrderDetail struct {
	domain.WorkOrder
	Tasks     []domain.WorkOrderTask     `json:"tasks"`
	Materials []domain.WorkOrderMaterial `json:"materials"`
	Evidence  []domain.WorkOrderEvidence `json:"evidence"`
}

func QueryWorkOrders(q *WorkOrderQuery, s *session.Session) ([]domain.WorkOrder, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if q.Status != "" {
		if !q.Status.Valid() {
			return nil, bizerror.BadParam("invalid work order status '" + string(q.Status) + "'")
		}
		db = db.Where("status = ?", q.Status)
	}
	if q.VehicleID != 0 {
		db = db.Where("vehicle_id = ?", q.VehicleID)
	}
	if q.ReportID != 0 {
		db = db.Where("report_id = ?", q.ReportID)
	}
	orders := []domain.WorkOrder{}
	if err := db.Order("create_time DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func DetailWorkOrder(id types.ID, s *session.Session) (*WorkOrderDetail, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	wo, err := FindWorkOrderDirectly(db, id)
	if err != nil {
		return nil, err
	}
	detail := WorkOrderDetail{WorkOrder: *wo, Tasks: []domain.WorkOrderTask{},
		Materials: []domain.WorkOrderMaterial{}, Evidence: []domain.WorkOrderEvidence{}}
	if err := db.Where("work_order_id = ?", id).Order("create_time ASC").Find(&detail.Tasks).Error; err != nil {
		return nil, err
	}
	if err := db.Where("work_order_id = ?", id).Order("create_time ASC").Find(&detail.Materials).Error; err != nil {
		return nil, err
	}
	if err := db.Where("work_order_id = ?", id).Order("create_time ASC").Find(&detail.Evidence).Error; err != nil {
		return nil, err
	}
	return &detail, nil
}

func FindWorkOrderDirectly(db *gorm.DB, id types.ID) (*domain.WorkOrder, error) {
	wo := domain.WorkOrder{}
	if err := db.Where(&domain.WorkOrder{ID: id}).First(&wo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.NotFound("work order", id)
		}
		return nil, err
	}
	return &wo, nil
}

// findMutableWorkOrder loads a work order whose tasks, materials and evidence may still change.
// The row stays locked until the surrounding transaction ends, so a concurrent submission waits for the change.
func findMutableWorkOrder(db *gorm.DB, id types.ID) (*domain.WorkOrder, error) {
	wo, err := FindWorkOrderDirectly(persistence.LockForUpdate(db), id)
	if err != nil {
		return nil, err
	}
	if wo.Status != domain.WorkOrderPending && wo.Status != domain.WorkOrderInProgress {
		return nil, &bizerror.TransitionError{Entity: "work order", ID: wo.ID, From: string(wo.Status), To: string(wo.Status),
			Reason: "work order content is frozen"}
	}
	return wo, nil
}
