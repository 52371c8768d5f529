package lifecycle

import (
	"errors"
	"fleetcare/bizerror"
	"fleetcare/domain"
	"fleetcare/domain/employee"
	"fleetcare/domain/report"
	"fleetcare/event"
	"fleetcare/idgen"
	"fleetcare/persistence"
	"fleetcare/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	CreateDiagnosticFunc  = CreateDiagnostic
	ApproveDiagnosticFunc = ApproveDiagnostic
	RejectDiagnosticFunc  = RejectDiagnostic
	QueryDiagnosticsFunc  = QueryDiagnostics
	DetailDiagnosticFunc  = DetailDiagnostic
)

type DiagnosticCreation struct {
	ReportID        types.ID `json:"reportId" binding:"required"`
	EmployeeID      types.ID `json:"employeeId" binding:"required"`
	Diagnosis       string   `json:"diagnosis" binding:"required,lte=4000"`
	Recommendations string   `json:"recommendations" binding:"lte=4000"`
	EstimatedCost   float64  `json:"estimatedCost" binding:"gte=0"`
}

type RejectRequest struct {
	Reason string `json:"reason" binding:"required,lte=1000"`
}

type DiagnosticQuery struct {
	ReportID   types.ID               `form:"reportId"`
	EmployeeID types.ID               `form:"employeeId"`
	State      domain.DiagnosticState `form:"state"`
}

// CreateDiagnostic files the diagnosis of the assigned employee. The report stays diagnostico.
func CreateDiagnostic(c *DiagnosticCreation, s *session.Session) (*domain.Diagnostic, error) {
	admin := s.Perms.IsSystemAdmin()
	if !admin && s.Identity.EmployeeID != c.EmployeeID {
		return nil, bizerror.ErrForbidden
	}

	d := domain.Diagnostic{ID: idgen.NextID(idWorker), ReportID: c.ReportID, EmployeeID: c.EmployeeID, Diagnosis: c.Diagnosis,
		Recommendations: c.Recommendations, EstimatedCost: c.EstimatedCost, State: domain.DiagnosticOpen}
	var t *transition
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		t = newTransition(tx, s)
		d.CreateTime = t.now
		r, err := report.FindReportDirectly(persistence.LockForUpdate(tx), c.ReportID)
		if err != nil {
			return err
		}
		if r.Status != domain.ReportDiagnostico {
			return &bizerror.TransitionError{Entity: "report", ID: r.ID, From: string(r.Status), To: string(domain.ReportDiagnostico),
				Reason: "diagnostics are filed while the report is diagnostico"}
		}
		if r.AssignedTo != c.EmployeeID && !admin {
			return bizerror.ErrForbidden
		}
		if _, err := employee.FindEmployeeDirectly(tx, c.EmployeeID); err != nil {
			return err
		}
		open, err := countOpenDiagnostics(tx, r.ID)
		if err != nil {
			return err
		}
		if open > 0 {
			return &bizerror.TransitionError{Entity: "report", ID: r.ID, From: string(r.Status), To: string(r.Status),
				Reason: "an open diagnostic exists"}
		}
		if err := tx.Create(&d).Error; err != nil {
			return err
		}
		return t.record(event.CreateEvent(event.SourceDiagnostic, d.ID, d.Diagnosis, event.EventCategoryCreated, nil,
			event.UpdatedRelations{{PropertyName: "Report", PropertyDesc: "Report", TargetType: event.SourceReport, TargetTypeDesc: "Report",
				NewTargetId: r.ID.String(), NewTargetDesc: r.Description}}, &s.Identity, t.now, tx))
	})
	if err != nil {
		return nil, bizerror.StorageFailure(err)
	}
	event.InvokeAll(t.events)
	return &d, nil
}

// ApproveDiagnostic accepts an open diagnostic, opens its work order and puts the report in progress.
func ApproveDiagnostic(id types.ID, s *session.Session) (*CascadeResult, error) {
	if !s.Perms.CanManageLifecycle() {
		return nil, bizerror.ErrForbidden
	}

	result := CascadeResult{}
	var t *transition
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		t = newTransition(tx, s)
		d, err := FindDiagnosticDirectly(tx, id)
		if err != nil {
			return err
		}
		if !domain.DiagnosticMachine.CanTransition(d.State, domain.DiagnosticApproved) {
			return &bizerror.TransitionError{Entity: "diagnostic", ID: d.ID, From: string(d.State), To: string(domain.DiagnosticApproved)}
		}
		if err := t.moveDiagnostic(d, domain.DiagnosticApproved,
			map[string]interface{}{"approved_at": t.now, "approver_id": s.Identity.ID}); err != nil {
			return err
		}

		r, err := report.FindReportDirectly(tx, d.ReportID)
		if err != nil {
			return err
		}
		if r.Status != domain.ReportDiagnostico {
			return &bizerror.TransitionError{Entity: "report", ID: r.ID, From: string(r.Status), To: string(domain.ReportInProgress)}
		}

		description := d.Recommendations
		if description == "" {
			description = d.Diagnosis
		}
		wo := domain.WorkOrder{ID: idgen.NextID(idWorker), ReportID: r.ID, DiagnosticID: d.ID, VehicleID: r.VehicleID,
			Status: domain.WorkOrderPending, Description: description, EstimatedCost: d.EstimatedCost, CreateTime: t.now}
		if err := tx.Create(&wo).Error; err != nil {
			return err
		}
		if err := t.record(event.CreateEvent(event.SourceWorkOrder, wo.ID, wo.Description, event.EventCategoryCreated, nil,
			event.UpdatedRelations{{PropertyName: "Diagnostic", PropertyDesc: "Diagnostic", TargetType: event.SourceDiagnostic,
				TargetTypeDesc: "Diagnostic", NewTargetId: d.ID.String(), NewTargetDesc: d.Diagnosis}}, &s.Identity, t.now, tx)); err != nil {
			return err
		}

		if err := t.moveReport(r, domain.ReportInProgress, nil); err != nil {
			return err
		}
		v, err := t.recomputeVehicle(r.VehicleID)
		if err != nil {
			return err
		}
		result = CascadeResult{WorkOrder: &wo, Report: r, Vehicle: v}
		return nil
	})
	if err != nil {
		return nil, bizerror.StorageFailure(err)
	}
	event.InvokeAll(t.events)
	return &result, nil
}

// RejectDiagnostic closes an open diagnostic without a work order so that a new one can be filed.
func RejectDiagnostic(id types.ID, req *RejectRequest, s *session.Session) (*domain.Diagnostic, error) {
	if !s.Perms.CanManageLifecycle() {
		return nil, bizerror.ErrForbidden
	}

	var result *domain.Diagnostic
	var t *transition
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		t = newTransition(tx, s)
		d, err := FindDiagnosticDirectly(tx, id)
		if err != nil {
			return err
		}
		if !domain.DiagnosticMachine.CanTransition(d.State, domain.DiagnosticRejected) {
			return &bizerror.TransitionError{Entity: "diagnostic", ID: d.ID, From: string(d.State), To: string(domain.DiagnosticRejected)}
		}
		if err := t.moveDiagnostic(d, domain.DiagnosticRejected,
			map[string]interface{}{"rejected_at": t.now, "reject_reason": req.Reason}); err != nil {
			return err
		}
		d.RejectedAt = &t.now
		d.RejectReason = req.Reason
		result = d
		return nil
	})
	if err != nil {
		return nil, bizerror.StorageFailure(err)
	}
	event.InvokeAll(t.events)
	return result, nil
}

func QueryDiagnostics(q *DiagnosticQuery, s *session.Session) ([]domain.Diagnostic, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if q.State != "" {
		if !q.State.Valid() {
			return nil, bizerror.BadParam("invalid diagnostic state '" + string(q.State) + "'")
		}
		db = db.Where("state = ?", q.State)
	}
	if q.ReportID != 0 {
		db = db.Where("report_id = ?", q.ReportID)
	}
	if q.EmployeeID != 0 {
		db = db.Where("employee_id = ?", q.EmployeeID)
	}
	diagnostics := []domain.Diagnostic{}
	if err := db.Order("create_time ASC, id ASC").Find(&diagnostics).Error; err != nil {
		return nil, err
	}
	return diagnostics, nil
}

func DetailDiagnostic(id types.ID, s *session.Session) (*domain.Diagnostic, error) {
	return FindDiagnosticDirectly(persistence.ActiveDataSourceManager.GormDB(s.Context), id)
}

func FindDiagnosticDirectly(db *gorm.DB, id types.ID) (*domain.Diagnostic, error) {
	d := domain.Diagnostic{}
	if err := db.Where(&domain.Diagnostic{ID: id}).First(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.NotFound("diagnostic", id)
		}
		return nil, err
	}
	return &d, nil
}
