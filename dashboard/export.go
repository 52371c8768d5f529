package dashboard

import (
	"fleetcare/domain"
	"fleetcare/domain/workorder"
	"fleetcare/persistence"
	"fleetcare/session"
	"fmt"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/xuri/excelize/v2"
)

var (
	ExportWorkOrdersFunc = ExportWorkOrders

	exportSheet   = "WorkOrders"
	exportHeaders = []string{"ID", "Report", "Vehicle", "Status", "Description", "Estimated cost", "Material cost",
		"Created", "Completed", "Validated"}
)

type materialCost struct {
	WorkOrderID types.ID
	Cost        float64
}

// ExportWorkOrders renders the work orders matching q as a spreadsheet, one row per work order plus a total row.
func ExportWorkOrders(q *workorder.WorkOrderQuery, s *session.Session) (*excelize.File, error) {
	orders, err := workorder.QueryWorkOrders(q, s)
	if err != nil {
		return nil, err
	}

	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	plates := map[types.ID]string{}
	vehicles := []domain.Vehicle{}
	if err := db.Select("id, plate").Find(&vehicles).Error; err != nil {
		return nil, err
	}
	for _, v := range vehicles {
		plates[v.ID] = v.Plate
	}
	costs := map[types.ID]float64{}
	rows := []materialCost{}
	if err := db.Model(&domain.WorkOrderMaterial{}).Select("work_order_id, SUM(quantity * unit_cost) AS cost").
		Group("work_order_id").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		costs[r.WorkOrderID] = r.Cost
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	if err != nil {
		return nil, err
	}
	for i, h := range exportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		_ = f.SetCellValue(exportSheet, cell, h)
		_ = f.SetCellStyle(exportSheet, cell, cell, headerStyle)
	}

	var totalEstimated, totalMaterials float64
	for i, wo := range orders {
		row := i + 2
		values := []interface{}{wo.ID.String(), wo.ReportID.String(), plates[wo.VehicleID], string(wo.Status), wo.Description,
			wo.EstimatedCost, costs[wo.ID], formatTime(&wo.CreateTime), formatTime(wo.CompleteTime), formatTime(wo.ValidateTime)}
		for j, v := range values {
			col, _ := excelize.ColumnNumberToName(j + 1)
			_ = f.SetCellValue(exportSheet, fmt.Sprintf("%s%d", col, row), v)
		}
		totalEstimated += wo.EstimatedCost
		totalMaterials += costs[wo.ID]
	}

	totalRow := len(orders) + 2
	_ = f.SetCellValue(exportSheet, fmt.Sprintf("A%d", totalRow), "Total")
	_ = f.SetCellValue(exportSheet, fmt.Sprintf("F%d", totalRow), totalEstimated)
	_ = f.SetCellValue(exportSheet, fmt.Sprintf("G%d", totalRow), totalMaterials)

	for i, w := range []float64{20, 20, 12, 20, 40, 14, 14, 20, 20, 20} {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(exportSheet, col, col, w)
	}
	return f, nil
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}
