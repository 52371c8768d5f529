package lifecycle

import (
	"fleetcare/bizerror"
	"fleetcare/domain"
	"fleetcare/domain/vehicle"
	"fleetcare/event"
	"fleetcare/idgen"
	"fleetcare/session"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var idWorker = idgen.NewWorker()

// CascadeResult carries every entity touched by a transition, as committed.
type CascadeResult struct {
	WorkOrder *domain.WorkOrder `json:"workOrder"`
	Report    *domain.Report    `json:"report"`
	Vehicle   *domain.Vehicle   `json:"vehicle"`
}

// transition is the state of one lifecycle transaction: the caller, the clock and the audit records to publish after commit.
type transition struct {
	tx     *gorm.DB
	s      *session.Session
	now    time.Time
	events []*event.EventRecord
}

func newTransition(tx *gorm.DB, s *session.Session) *transition {
	return &transition{tx: tx, s: s, now: time.Now()}
}

func (t *transition) record(ev *event.EventRecord, err error) error {
	if err != nil {
		return err
	}
	t.events = append(t.events, ev)
	return nil
}

// move updates the status column of a row only if it still holds from.
func (t *transition) move(model interface{}, entity string, id types.ID, from, to string, changes map[string]interface{}) error {
	values := map[string]interface{}{"status": to}
	for k, v := range changes {
		values[k] = v
	}
	db := t.tx.Model(model).Where("id = ? AND status = ?", id, from).Updates(values)
	if db.Error != nil {
		return db.Error
	}
	if db.RowsAffected != 1 {
		return &bizerror.TransitionError{Entity: entity, ID: id, From: from, To: to, Reason: "status changed concurrently"}
	}
	return nil
}

func (t *transition) moveReport(r *domain.Report, to domain.ReportStatus, changes map[string]interface{}) error {
	from := r.Status
	if err := t.move(&domain.Report{}, "report", r.ID, string(from), string(to), changes); err != nil {
		return err
	}
	r.Status = to
	return t.record(event.CreateEvent(event.SourceReport, r.ID, r.Description, event.EventCategoryStatusChanged,
		event.StatusChange(string(from), string(to)), nil, &t.s.Identity, t.now, t.tx))
}

func (t *transition) moveWorkOrder(wo *domain.WorkOrder, to domain.WorkOrderStatus, changes map[string]interface{}) error {
	from := wo.Status
	if err := t.move(&domain.WorkOrder{}, "work order", wo.ID, string(from), string(to), changes); err != nil {
		return err
	}
	wo.Status = to
	return t.record(event.CreateEvent(event.SourceWorkOrder, wo.ID, wo.Description, event.EventCategoryStatusChanged,
		event.StatusChange(string(from), string(to)), nil, &t.s.Identity, t.now, t.tx))
}

// moveDiagnostic is move for the state column of diagnostics.
func (t *transition) moveDiagnostic(d *domain.Diagnostic, to domain.DiagnosticState, changes map[string]interface{}) error {
	values := map[string]interface{}{"state": to}
	for k, v := range changes {
		values[k] = v
	}
	db := t.tx.Model(&domain.Diagnostic{}).Where("id = ? AND state = ?", d.ID, d.State).Updates(values)
	if db.Error != nil {
		return db.Error
	}
	if db.RowsAffected != 1 {
		return &bizerror.TransitionError{Entity: "diagnostic", ID: d.ID, From: string(d.State), To: string(to), Reason: "state changed concurrently"}
	}
	from := d.State
	d.State = to
	return t.record(event.CreateEvent(event.SourceDiagnostic, d.ID, d.Diagnosis, event.EventCategoryStatusChanged,
		event.StatusChange(string(from), string(to)), nil, &t.s.Identity, t.now, t.tx))
}

// recomputeVehicle refreshes the derived vehicle status and records a change if there was one.
func (t *transition) recomputeVehicle(vehicleID types.ID) (*domain.Vehicle, error) {
	v, from, err := vehicle.RecomputeStatusDirectly(t.tx, vehicleID)
	if err != nil {
		return nil, err
	}
	if from != v.Status {
		if err := t.record(vehicle.StatusChangedEvent(v, from, &t.s.Identity, t.tx)); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func countOpenDiagnostics(tx *gorm.DB, reportID types.ID) (int, error) {
	var count int
	err := tx.Model(&domain.Diagnostic{}).Where("report_id = ? AND state = ?", reportID, domain.DiagnosticOpen).Count(&count).Error
	return count, err
}
