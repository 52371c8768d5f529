package lifecycle

import (
	"fleetcare/bizerror"
	"fleetcare/domain"
	"fleetcare/domain/report"
	"fleetcare/domain/workorder"
	"fleetcare/event"
	"fleetcare/persistence"
	"fleetcare/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	AdvanceWorkOrderFunc = AdvanceWorkOrder
	ReopenWorkOrderFunc  = ReopenWorkOrder
)

type AdvanceRequest struct {
	TargetStatus domain.WorkOrderStatus `json:"targetStatus" binding:"required"`
}

// AdvanceWorkOrder moves a work order exactly one step forward, on behalf of the employee the report is assigned to
// or a lifecycle manager.
// Completion continues to awaiting_validation in the same call. Validation resolves the report once all of
// its work orders are validated, and the vehicle status is derived again.
func AdvanceWorkOrder(id types.ID, req *AdvanceRequest, s *session.Session) (*CascadeResult, error) {
	target := req.TargetStatus
	if !target.Valid() {
		return nil, bizerror.BadParam("invalid work order status '" + string(target) + "'")
	}
	if target == domain.WorkOrderValidated {
		if !s.Perms.CanManageLifecycle() {
			return nil, bizerror.ErrForbidden
		}
	} else if !s.Perms.CanWorkOnOrders() {
		return nil, bizerror.ErrForbidden
	}

	result := CascadeResult{}
	var t *transition
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		t = newTransition(tx, s)
		wo, err := workorder.FindWorkOrderDirectly(persistence.LockForUpdate(tx), id)
		if err != nil {
			return err
		}
		r, err := report.FindReportDirectly(tx, wo.ReportID)
		if err != nil {
			return err
		}
		if !s.Perms.CanManageLifecycle() && r.AssignedTo != s.Identity.EmployeeID {
			return bizerror.ErrForbidden
		}
		if target == domain.WorkOrderAwaitingValidation {
			return &bizerror.TransitionError{Entity: "work order", ID: wo.ID, From: string(wo.Status), To: string(target),
				Reason: "it is reached by completing the work order"}
		}
		if !domain.IsForwardStep(wo.Status, target) {
			return &bizerror.TransitionError{Entity: "work order", ID: wo.ID, From: string(wo.Status), To: string(target)}
		}

		switch target {
		case domain.WorkOrderInProgress:
			if err := t.moveWorkOrder(wo, target, map[string]interface{}{"start_time": t.now}); err != nil {
				return err
			}
			wo.StartTime = &t.now
		case domain.WorkOrderCompleted:
			if err := t.moveWorkOrder(wo, target, map[string]interface{}{"complete_time": t.now}); err != nil {
				return err
			}
			wo.CompleteTime = &t.now
			if err := t.moveWorkOrder(wo, domain.WorkOrderAwaitingValidation, nil); err != nil {
				return err
			}
		case domain.WorkOrderValidated:
			if err := t.moveWorkOrder(wo, target, map[string]interface{}{"validate_time": t.now, "validator_id": s.Identity.ID}); err != nil {
				return err
			}
			wo.ValidateTime = &t.now
			wo.ValidatorID = s.Identity.ID
		}

		if target == domain.WorkOrderValidated && r.Status == domain.ReportInProgress {
			var pending int
			if err := tx.Model(&domain.WorkOrder{}).Where("report_id = ? AND status <> ?", r.ID, domain.WorkOrderValidated).
				Count(&pending).Error; err != nil {
				return err
			}
			if pending == 0 {
				if err := t.moveReport(r, domain.ReportResolved, map[string]interface{}{"resolve_time": t.now}); err != nil {
					return err
				}
				r.ResolveTime = &t.now
			}
		}

		v, err := t.recomputeVehicle(wo.VehicleID)
		if err != nil {
			return err
		}
		result = CascadeResult{WorkOrder: wo, Report: r, Vehicle: v}
		return nil
	})
	if err != nil {
		return nil, bizerror.StorageFailure(err)
	}
	event.InvokeAll(t.events)
	return &result, nil
}

// ReopenWorkOrder sends a submitted or validated work order back to in_progress, reopening its report.
func ReopenWorkOrder(id types.ID, s *session.Session) (*CascadeResult, error) {
	if !s.Perms.IsSystemAdmin() {
		return nil, bizerror.ErrForbidden
	}

	result := CascadeResult{}
	var t *transition
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		t = newTransition(tx, s)
		wo, err := workorder.FindWorkOrderDirectly(tx, id)
		if err != nil {
			return err
		}
		if !domain.IsReopenable(wo.Status) {
			return &bizerror.TransitionError{Entity: "work order", ID: wo.ID, From: string(wo.Status), To: string(domain.WorkOrderInProgress),
				Reason: "only submitted or validated work orders can be reopened"}
		}
		if err := t.moveWorkOrder(wo, domain.WorkOrderInProgress,
			map[string]interface{}{"complete_time": nil, "validate_time": nil, "validator_id": 0}); err != nil {
			return err
		}
		wo.CompleteTime, wo.ValidateTime, wo.ValidatorID = nil, nil, 0

		r, err := report.FindReportDirectly(tx, wo.ReportID)
		if err != nil {
			return err
		}
		if r.Status == domain.ReportResolved {
			if err := t.moveReport(r, domain.ReportInProgress, map[string]interface{}{"resolve_time": nil}); err != nil {
				return err
			}
			r.ResolveTime = nil
		}

		v, err := t.recomputeVehicle(wo.VehicleID)
		if err != nil {
			return err
		}
		result = CascadeResult{WorkOrder: wo, Report: r, Vehicle: v}
		return nil
	})
	if err != nil {
		return nil, bizerror.StorageFailure(err)
	}
	event.InvokeAll(t.events)
	return &result, nil
}
