package lifecycle

import (
	"fleetcare/bizerror"
	"fleetcare/domain"
	"fleetcare/domain/employee"
	"fleetcare/domain/report"
	"fleetcare/event"
	"fleetcare/persistence"
	"fleetcare/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var AssignReportFunc = AssignReport

type AssignRequest struct {
	EmployeeID types.ID `json:"employeeId" binding:"required"`
}

// AssignReport hands a report to an employee for diagnosis.
// A pending report moves to diagnostico. A report under diagnosis may change hands only while no diagnostic is open.
func AssignReport(reportID types.ID, req *AssignRequest, s *session.Session) (*domain.Report, error) {
	if !s.Perms.CanManageLifecycle() {
		return nil, bizerror.ErrForbidden
	}

	var result *domain.Report
	var t *transition
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		t = newTransition(tx, s)
		r, err := report.FindReportDirectly(persistence.LockForUpdate(tx), reportID)
		if err != nil {
			return err
		}

		switch r.Status {
		case domain.ReportPending:
			if _, err := employee.FindActiveEmployeeDirectly(tx, req.EmployeeID); err != nil {
				return err
			}
			if err := t.moveReport(r, domain.ReportDiagnostico, map[string]interface{}{"assigned_to": req.EmployeeID}); err != nil {
				return err
			}
			if err := t.record(assigneeChangedEvent(r, 0, req.EmployeeID, t)); err != nil {
				return err
			}
		case domain.ReportDiagnostico:
			if r.AssignedTo == req.EmployeeID {
				result = r
				return nil
			}
			open, err := countOpenDiagnostics(tx, r.ID)
			if err != nil {
				return err
			}
			if open > 0 {
				return &bizerror.TransitionError{Entity: "report", ID: r.ID, From: string(r.Status), To: string(domain.ReportDiagnostico),
					Reason: "an open diagnostic exists"}
			}
			if _, err := employee.FindActiveEmployeeDirectly(tx, req.EmployeeID); err != nil {
				return err
			}
			db := tx.Model(&domain.Report{}).Where("id = ? AND status = ? AND assigned_to = ?", r.ID, r.Status, r.AssignedTo).
				Update("assigned_to", req.EmployeeID)
			if db.Error != nil {
				return db.Error
			}
			if db.RowsAffected != 1 {
				return &bizerror.TransitionError{Entity: "report", ID: r.ID, From: string(r.Status), To: string(domain.ReportDiagnostico),
					Reason: "assignment changed concurrently"}
			}
			previous := r.AssignedTo
			r.AssignedTo = req.EmployeeID
			if err := t.record(assigneeChangedEvent(r, previous, req.EmployeeID, t)); err != nil {
				return err
			}
		default:
			return &bizerror.TransitionError{Entity: "report", ID: r.ID, From: string(r.Status), To: string(domain.ReportDiagnostico)}
		}

		r.AssignedTo = req.EmployeeID
		result = r
		return nil
	})
	if err != nil {
		return nil, bizerror.StorageFailure(err)
	}
	event.InvokeAll(t.events)
	return result, nil
}

func assigneeChangedEvent(r *domain.Report, from, to types.ID, t *transition) (*event.EventRecord, error) {
	relation := event.UpdatedRelation{PropertyName: "AssignedTo", PropertyDesc: "Assigned employee", TargetType: "EMPLOYEE", TargetTypeDesc: "Employee",
		NewTargetId: to.String()}
	if from != 0 {
		relation.OldTargetId = from.String()
	}
	return event.CreateEvent(event.SourceReport, r.ID, r.Description, event.EventCategoryRelationUpdated, nil,
		event.UpdatedRelations{relation}, &t.s.Identity, t.now, t.tx)
}
