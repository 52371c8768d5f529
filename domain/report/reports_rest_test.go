package report_test

import (
	"fleetcare/bizerror"
	"fleetcare/domain"
	"fleetcare/domain/report"
	"fleetcare/session"
	"fleetcare/testinfra"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
)

func TestReportsRestAPI(t *testing.T) {
	RegisterTestingT(t)

	router := gin.Default()
	router.Use(bizerror.ErrorHandling())
	report.RegisterReportsRestAPI(router)
	defer func() {
		report.CreateReportFunc = report.CreateReport
		report.QueryReportsFunc = report.QueryReports
		report.DetailReportFunc = report.DetailReport
		report.UpdateReportNotesFunc = report.UpdateReportNotes
	}()

	t.Run("should validate creation", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, report.PathReports, strings.NewReader(`{"vehicleId":"1"}`))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(MatchJSON(`{"code":"common.bad_param",
			"message":"Key: 'ReportCreation.Description' Error:Field validation for 'Description' failed on the 'required' tag","data":null}`))
	})

	t.Run("should create report", func(t *testing.T) {
		report.CreateReportFunc = func(c *report.ReportCreation, s *session.Session) (*domain.Report, error) {
			return &domain.Report{ID: 9, VehicleID: c.VehicleID, Description: c.Description, Status: domain.ReportPending}, nil
		}
		req := httptest.NewRequest(http.MethodPost, report.PathReports, strings.NewReader(`{"vehicleId":"1","description":"leak"}`))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusCreated))
		Expect(body).To(ContainSubstring(`"status":"pending"`))
		Expect(body).To(ContainSubstring(`"assignedToEmployeeId":"0"`))
	})

	t.Run("should query reports by status", func(t *testing.T) {
		var query *report.ReportQuery
		report.QueryReportsFunc = func(q *report.ReportQuery, s *session.Session) ([]domain.Report, error) {
			query = q
			return []domain.Report{}, nil
		}
		req := httptest.NewRequest(http.MethodGet, report.PathReports+"?status=diagnostico&assignedToEmployeeId=7", nil)
		status, _, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(*query).To(Equal(report.ReportQuery{Status: domain.ReportDiagnostico, AssignedTo: 7}))
	})

	t.Run("should detail and update report", func(t *testing.T) {
		report.DetailReportFunc = func(id types.ID, s *session.Session) (*report.ReportDetail, error) {
			return &report.ReportDetail{Report: domain.Report{ID: id}, Diagnostics: []domain.Diagnostic{}, WorkOrders: []domain.WorkOrder{}}, nil
		}
		req := httptest.NewRequest(http.MethodGet, report.PathReports+"/3", nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(ContainSubstring(`"diagnostics":[]`))

		report.UpdateReportNotesFunc = func(id types.ID, u *report.ReportNotesUpdating, s *session.Session) (*domain.Report, error) {
			return nil, bizerror.ErrForbidden
		}
		req = httptest.NewRequest(http.MethodPatch, report.PathReports+"/3", strings.NewReader(`{"notes":"n"}`))
		status, body, _ = testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusForbidden))
		Expect(body).To(MatchJSON(`{"code":"security.forbidden","message":"access forbidden","data":null}`))

		req = httptest.NewRequest(http.MethodGet, report.PathReports+"/abc", nil)
		status, _, _ = testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
	})
}
