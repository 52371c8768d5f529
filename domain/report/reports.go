package report

import (
	"errors"
	"fleetcare/bizerror"
	"fleetcare/domain"
	"fleetcare/domain/vehicle"
	"fleetcare/event"
	"fleetcare/idgen"
	"fleetcare/persistence"
	"fleetcare/session"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	idWorker = idgen.NewWorker()

	CreateReportFunc      = CreateReport
	QueryReportsFunc      = QueryReports
	DetailReportFunc      = DetailReport
	UpdateReportNotesFunc = UpdateReportNotes
)

type ReportCreation struct {
	VehicleID   types.ID `json:"vehicleId" binding:"required"`
	Description string   `json:"description" binding:"required,lte=2000"`
}

type ReportQuery struct {
	Status     domain.ReportStatus `form:"status"`
	VehicleID  types.ID            `form:"vehicleId"`
	AssignedTo types.ID            `form:"assignedToEmployeeId"`
}

type ReportNotesUpdating struct {
	Notes string `json:"notes" binding:"lte=2000"`
}

type ReportDetail struct {
	domain.Report
	Vehicle     *domain.Vehicle     `json:"vehicle"`
	Diagnostics []domain.Diagnostic `json:"diagnostics"`
	WorkOrders  []domain.WorkOrder  `json:"workOrders"`
}

// CreateReport files a new pending report against an existing vehicle.
func CreateReport(c *ReportCreation, s *session.Session) (*domain.Report, error) {
	now := time.Now()
	r := domain.Report{ID: idgen.NextID(idWorker), VehicleID: c.VehicleID, Description: c.Description,
		Status: domain.ReportPending, ReporterID: s.Identity.ID, CreateTime: now}
	var ev *event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		if _, err := vehicle.FindVehicleDirectly(tx, c.VehicleID); err != nil {
			return err
		}
		if err := tx.Create(&r).Error; err != nil {
			return err
		}
		var err error
		ev, err = event.CreateEvent(event.SourceReport, r.ID, r.Description, event.EventCategoryCreated,
			nil, nil, &s.Identity, now, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	event.InvokeAll([]*event.EventRecord{ev})
	return &r, nil
}

func QueryReports(q *ReportQuery, s *session.Session) ([]domain.Report, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if q.Status != "" {
		if !q.Status.Valid() {
			return nil, bizerror.BadParam("invalid report status '" + string(q.Status) + "'")
		}
		db = db.Where("status = ?", q.Status)
	}
	if q.VehicleID != 0 {
		db = db.Where("vehicle_id = ?", q.VehicleID)
	}
	if q.AssignedTo != 0 {
		db = db.Where("assigned_to = ?", q.AssignedTo)
	}
	reports := []domain.Report{}
	if err := db.Order("create_time DESC, id DESC").Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

func DetailReport(id types.ID, s *session.Session) (*ReportDetail, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	r, err := FindReportDirectly(db, id)
	if err != nil {
		return nil, err
	}
	detail := ReportDetail{Report: *r, Diagnostics: []domain.Diagnostic{}, WorkOrders: []domain.WorkOrder{}}
	if v, err := vehicle.FindVehicleDirectly(db, r.VehicleID); err == nil {
		detail.Vehicle = v
	} else if !errors.Is(err, bizerror.ErrNotFound) {
		return nil, err
	}
	if err := db.Where("report_id = ?", id).Order("create_time ASC, id ASC").Find(&detail.Diagnostics).Error; err != nil {
		return nil, err
	}
	if err := db.Where("report_id = ?", id).Order("create_time ASC, id ASC").Find(&detail.WorkOrders).Error; err != nil {
		return nil, err
	}
	return &detail, nil
}

// UpdateReportNotes is open to the reporter, the assigned employee and lifecycle managers.
func UpdateReportNotes(id types.ID, u *ReportNotesUpdating, s *session.Session) (*domain.Report, error) {
	var result *domain.Report
	var ev *event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		r, err := FindReportDirectly(tx, id)
		if err != nil {
			return err
		}
		if !s.Perms.CanManageLifecycle() && r.ReporterID != s.Identity.ID &&
			(r.AssignedTo == 0 || r.AssignedTo != s.Identity.EmployeeID) {
			return bizerror.ErrForbidden
		}
		if err := tx.Model(&domain.Report{}).Where("id = ?", id).Update("notes", u.Notes).Error; err != nil {
			return err
		}
		ev, err = event.CreateEvent(event.SourceReport, id, r.Description, event.EventCategoryPropertyUpdated,
			event.UpdatedProperties{{PropertyName: "Notes", PropertyDesc: "Notes",
				OldValue: r.Notes, OldValueDesc: r.Notes, NewValue: u.Notes, NewValueDesc: u.Notes}},
			nil, &s.Identity, time.Now(), tx)
		if err != nil {
			return err
		}
		r.Notes = u.Notes
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	event.InvokeAll([]*event.EventRecord{ev})
	return result, nil
}

func FindReportDirectly(db *gorm.DB, id types.ID) (*domain.Report, error) {
	r := domain.Report{}
	if err := db.Where(&domain.Report{ID: id}).First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.NotFound("report", id)
		}
		return nil, err
	}
	return &r, nil
}
