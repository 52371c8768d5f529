package indices

import (
	"fleetcare/client/es"
	"fleetcare/domain"
	"fleetcare/session"
	"fmt"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

var (
	ReportIndexName = "reports"

	LoadReportDocumentsFunc = LoadReportDocuments
)

type WorkOrderDigest struct {
	ID          types.ID               `json:"id"`
	Status      domain.WorkOrderStatus `json:"status"`
	Description string                 `json:"description"`
}

// ReportDocument is the denormalized search view of a report.
type ReportDocument struct {
	domain.Report

	VehiclePlate string            `json:"vehiclePlate"`
	AssigneeName string            `json:"assigneeName"`
	Diagnoses    []string          `json:"diagnoses"`
	WorkOrders   []WorkOrderDigest `json:"workOrders"`
}

type BatchActionError map[types.ID]error

func (e BatchActionError) Error() string {
	return fmt.Sprintf("%v", map[types.ID]error(e))
}

// LoadReportDocuments pages through reports by id and builds their documents.
func LoadReportDocuments(page, size int, db *gorm.DB) ([]ReportDocument, error) {
	reports := []domain.Report{}
	if err := db.Order("id ASC").Offset((page - 1) * size).Limit(size).Find(&reports).Error; err != nil {
		return nil, err
	}
	return BuildReportDocuments(reports, db)
}

func BuildReportDocuments(reports []domain.Report, db *gorm.DB) ([]ReportDocument, error) {
	if len(reports) == 0 {
		return []ReportDocument{}, nil
	}
	reportIds := make([]types.ID, 0, len(reports))
	vehicleIds := make([]types.ID, 0, len(reports))
	employeeIds := []types.ID{}
	for _, r := range reports {
		reportIds = append(reportIds, r.ID)
		vehicleIds = append(vehicleIds, r.VehicleID)
		if r.AssignedTo != 0 {
			employeeIds = append(employeeIds, r.AssignedTo)
		}
	}

	vehicles := []domain.Vehicle{}
	if err := db.Where("id IN (?)", vehicleIds).Find(&vehicles).Error; err != nil {
		return nil, err
	}
	plates := map[types.ID]string{}
	for _, v := range vehicles {
		plates[v.ID] = v.Plate
	}
	names := map[types.ID]string{}
	if len(employeeIds) > 0 {
		employees := []domain.Employee{}
		if err := db.Where("id IN (?)", employeeIds).Find(&employees).Error; err != nil {
			return nil, err
		}
		for _, e := range employees {
			names[e.ID] = e.Name
		}
	}
	diagnostics := []domain.Diagnostic{}
	if err := db.Where("report_id IN (?)", reportIds).Order("create_time ASC").Find(&diagnostics).Error; err != nil {
		return nil, err
	}
	orders := []domain.WorkOrder{}
	if err := db.Where("report_id IN (?)", reportIds).Order("create_time ASC").Find(&orders).Error; err != nil {
		return nil, err
	}

	docs := make([]ReportDocument, 0, len(reports))
	index := map[types.ID]int{}
	for _, r := range reports {
		index[r.ID] = len(docs)
		docs = append(docs, ReportDocument{Report: r, VehiclePlate: plates[r.VehicleID], AssigneeName: names[r.AssignedTo],
			Diagnoses: []string{}, WorkOrders: []WorkOrderDigest{}})
	}
	for _, d := range diagnostics {
		doc := &docs[index[d.ReportID]]
		doc.Diagnoses = append(doc.Diagnoses, d.Diagnosis)
	}
	for _, wo := range orders {
		doc := &docs[index[wo.ReportID]]
		doc.WorkOrders = append(doc.WorkOrders, WorkOrderDigest{ID: wo.ID, Status: wo.Status, Description: wo.Description})
	}
	return docs, nil
}

func IndexReports(docs []ReportDocument, s *session.Session) error {
	errs := BatchActionError{}
	for _, doc := range docs {
		if err := es.IndexFunc(ReportIndexName, doc.ID, doc, s); err != nil {
			errs[doc.ID] = err
			logrus.Warnf("index report %d: %v", doc.ID, err)
		} else {
			logrus.Debugf("index report %d successfully", doc.ID)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
