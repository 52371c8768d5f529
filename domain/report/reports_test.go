package report_test

import (
	"errors"
	"fleetcare/authority"
	"fleetcare/bizerror"
	"fleetcare/domain"
	"fleetcare/domain/report"
	"fleetcare/event"
	"fleetcare/testinfra"
	"testing"
	"time"

	. "github.com/onsi/gomega"
)

func setup(t *testing.T) *testinfra.TestDatabase {
	testDatabase := testinfra.StartTestDatabaseWith("report", append(domain.AllTables, &event.EventRecord{})...)
	now := time.Now()
	Expect(testDatabase.DS.GormDB(nil).Create(&domain.Vehicle{ID: 100, Plate: "V-100", Status: domain.VehicleActive,
		CreateTime: now, UpdateTime: now}).Error).To(BeNil())
	return testDatabase
}

func TestCreateReport(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should create pending report for existing vehicle", func(t *testing.T) {
		testDatabase := setup(t)
		defer testinfra.StopTestDatabase(testDatabase)

		driver := testinfra.BuildSession(20)
		r, err := report.CreateReport(&report.ReportCreation{VehicleID: 100, Description: "brakes squeal"}, driver)
		Expect(err).To(BeNil())
		Expect(r.Status).To(Equal(domain.ReportPending))
		Expect(r.ReporterID).To(BeEquivalentTo(20))
		Expect(r.AssignedTo).To(BeZero())

		records, err := event.QueryEvents(&event.EventQuery{SourceType: event.SourceReport, SourceId: r.ID}, driver)
		Expect(err).To(BeNil())
		Expect(records).To(HaveLen(1))
		Expect(records[0].CreatorId).To(BeEquivalentTo(20))
	})

	t.Run("should fail when vehicle not exist", func(t *testing.T) {
		testDatabase := setup(t)
		defer testinfra.StopTestDatabase(testDatabase)

		r, err := report.CreateReport(&report.ReportCreation{VehicleID: 404, Description: "x"}, testinfra.BuildSession(20))
		Expect(r).To(BeNil())
		Expect(errors.Is(err, bizerror.ErrNotFound)).To(BeTrue())

		reports, err := report.QueryReports(&report.ReportQuery{}, testinfra.BuildSession(20))
		Expect(err).To(BeNil())
		Expect(reports).To(BeEmpty())
	})
}

func TestQueryAndDetailReports(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should filter and detail reports", func(t *testing.T) {
		testDatabase := setup(t)
		defer testinfra.StopTestDatabase(testDatabase)
		db := testDatabase.DS.GormDB(nil)
		s := testinfra.BuildSession(20)

		r1, err := report.CreateReport(&report.ReportCreation{VehicleID: 100, Description: "one"}, s)
		Expect(err).To(BeNil())
		r2, err := report.CreateReport(&report.ReportCreation{VehicleID: 100, Description: "two"}, s)
		Expect(err).To(BeNil())
		Expect(db.Model(&domain.Report{}).Where("id = ?", r2.ID).
			Updates(map[string]interface{}{"status": domain.ReportDiagnostico, "assigned_to": 7}).Error).To(BeNil())
		Expect(db.Create(&domain.Diagnostic{ID: 1, ReportID: r2.ID, EmployeeID: 7, State: domain.DiagnosticOpen, CreateTime: time.Now()}).Error).To(BeNil())

		reports, err := report.QueryReports(&report.ReportQuery{Status: domain.ReportPending}, s)
		Expect(err).To(BeNil())
		Expect(reports).To(HaveLen(1))
		Expect(reports[0].ID).To(Equal(r1.ID))

		reports, err = report.QueryReports(&report.ReportQuery{AssignedTo: 7}, s)
		Expect(err).To(BeNil())
		Expect(reports).To(HaveLen(1))
		Expect(reports[0].ID).To(Equal(r2.ID))

		reports, err = report.QueryReports(&report.ReportQuery{VehicleID: 100}, s)
		Expect(err).To(BeNil())
		Expect(reports).To(HaveLen(2))

		_, err = report.QueryReports(&report.ReportQuery{Status: "closed"}, s)
		var badParam *bizerror.ErrBadParam
		Expect(errors.As(err, &badParam)).To(BeTrue())

		detail, err := report.DetailReport(r2.ID, s)
		Expect(err).To(BeNil())
		Expect(detail.Status).To(Equal(domain.ReportDiagnostico))
		Expect(detail.Vehicle.Plate).To(Equal("V-100"))
		Expect(detail.Diagnostics).To(HaveLen(1))
		Expect(detail.WorkOrders).To(BeEmpty())

		_, err = report.DetailReport(404, s)
		Expect(errors.Is(err, bizerror.ErrNotFound)).To(BeTrue())
	})
}

func TestUpdateReportNotes(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should allow reporter, assignee and managers only", func(t *testing.T) {
		testDatabase := setup(t)
		defer testinfra.StopTestDatabase(testDatabase)

		r, err := report.CreateReport(&report.ReportCreation{VehicleID: 100, Description: "one"}, testinfra.BuildSession(20))
		Expect(err).To(BeNil())

		_, err = report.UpdateReportNotes(r.ID, &report.ReportNotesUpdating{Notes: "x"}, testinfra.BuildSession(21))
		Expect(err).To(Equal(bizerror.ErrForbidden))

		updated, err := report.UpdateReportNotes(r.ID, &report.ReportNotesUpdating{Notes: "by reporter"}, testinfra.BuildSession(20))
		Expect(err).To(BeNil())
		Expect(updated.Notes).To(Equal("by reporter"))

		updated, err = report.UpdateReportNotes(r.ID, &report.ReportNotesUpdating{Notes: "by manager"},
			testinfra.BuildSession(30, authority.PermLifecycleManage))
		Expect(err).To(BeNil())
		Expect(updated.Notes).To(Equal("by manager"))
		Expect(updated.Status).To(Equal(domain.ReportPending))
	})
}
