package domain

import (
	"time"

	"github.com/fundwit/go-commons/types"
)

type Vehicle struct {
	ID      types.ID `json:"id" gorm:"primary_key"`
	Plate   string   `json:"plate" gorm:"unique_index:uni_vehicle_plate"`
	Brand   string   `json:"brand"`
	Model   string   `json:"model"`
	Year    int      `json:"year"`
	Vin     string   `json:"vin"`
	Mileage int64    `json:"mileage"`

	// Status is derived from open work orders, Inactive is the record's own flag used when none is open.
	Status   VehicleStatus `json:"status"`
	Inactive bool          `json:"inactive"`

	ClientID types.ID `json:"clientId"`
	BranchID types.ID `json:"branchId"`

	CreateTime time.Time `json:"createTime"`
	UpdateTime time.Time `json:"updateTime"`
}

type Report struct {
	ID          types.ID     `json:"id" gorm:"primary_key"`
	VehicleID   types.ID     `json:"vehicleId"`
	Description string       `json:"description"`
	Status      ReportStatus `json:"status"`

	// zero when unassigned
	AssignedTo types.ID `json:"assignedToEmployeeId"`
	Notes      string   `json:"notes"`
	ReporterID types.ID `json:"reporterId"`

	CreateTime  time.Time  `json:"createTime"`
	ResolveTime *time.Time `json:"resolveTime"`
}

type Diagnostic struct {
	ID              types.ID        `json:"id" gorm:"primary_key"`
	ReportID        types.ID        `json:"reportId"`
	EmployeeID      types.ID        `json:"employeeId"`
	Diagnosis       string          `json:"diagnosis" sql:"type:TEXT"`
	Recommendations string          `json:"recommendations" sql:"type:TEXT"`
	EstimatedCost   float64         `json:"estimatedCost"`
	State           DiagnosticState `json:"state"`

	ApprovedAt   *time.Time `json:"approvedAt"`
	ApproverID   types.ID   `json:"approverId"`
	RejectedAt   *time.Time `json:"rejectedAt"`
	RejectReason string     `json:"rejectReason"`

	CreateTime time.Time `json:"createTime"`
}

type WorkOrder struct {
	ID           types.ID        `json:"id" gorm:"primary_key"`
	ReportID     types.ID        `json:"reportId"`
	DiagnosticID types.ID        `json:"diagnosticId"`
	VehicleID    types.ID        `json:"vehicleId"`
	Status       WorkOrderStatus `json:"status"`

	Description   string  `json:"description" sql:"type:TEXT"`
	EstimatedCost float64 `json:"estimatedCost"`

	CreateTime   time.Time  `json:"createTime"`
	StartTime    *time.Time `json:"startTime"`
	CompleteTime *time.Time `json:"completeTime"`
	ValidateTime *time.Time `json:"validateTime"`
	ValidatorID  types.ID   `json:"validatorId"`
}

type WorkOrderTask struct {
	ID          types.ID `json:"id" gorm:"primary_key"`
	WorkOrderID types.ID `json:"workOrderId"`
	Title       string   `json:"title"`
	Done        bool     `json:"done"`

	CreateTime time.Time `json:"createTime"`
}

type WorkOrderMaterial struct {
	ID          types.ID `json:"id" gorm:"primary_key"`
	WorkOrderID types.ID `json:"workOrderId"`
	ItemID      types.ID `json:"itemId"`
	Quantity    int      `json:"quantity"`
	UnitCost    float64  `json:"unitCost"`

	CreateTime time.Time `json:"createTime"`
}

type WorkOrderEvidence struct {
	ID          types.ID `json:"id" gorm:"primary_key"`
	WorkOrderID types.ID `json:"workOrderId"`
	ObjectKey   string   `json:"objectKey"`
	FileName    string   `json:"fileName"`
	ContentType string   `json:"contentType"`
	Size        int64    `json:"size"`
	UploaderID  types.ID `json:"uploaderId"`

	CreateTime time.Time `json:"createTime"`
}

type Employee struct {
	ID       types.ID `json:"id" gorm:"primary_key"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone"`
	Position string   `json:"position"`
	BranchID types.ID `json:"branchId"`
	Active   bool     `json:"active"`

	CreateTime time.Time `json:"createTime"`
}

type Client struct {
	ID      types.ID `json:"id" gorm:"primary_key"`
	Name    string   `json:"name"`
	Contact string   `json:"contact"`
	Phone   string   `json:"phone"`
	Email   string   `json:"email"`

	CreateTime time.Time `json:"createTime"`
}

type Branch struct {
	ID       types.ID `json:"id" gorm:"primary_key"`
	ClientID types.ID `json:"clientId"`
	Name     string   `json:"name"`
	Address  string   `json:"address"`

	CreateTime time.Time `json:"createTime"`
}

type Provider struct {
	ID      types.ID `json:"id" gorm:"primary_key"`
	Name    string   `json:"name"`
	Service string   `json:"service"`
	Contact string   `json:"contact"`
	Phone   string   `json:"phone"`
	Email   string   `json:"email"`

	CreateTime time.Time `json:"createTime"`
}

type InventoryItem struct {
	ID          types.ID `json:"id" gorm:"primary_key"`
	SKU         string   `json:"sku" gorm:"column:sku;unique_index:uni_inventory_sku"`
	Name        string   `json:"name"`
	Quantity    int      `json:"quantity"`
	MinQuantity int      `json:"minQuantity"`
	UnitCost    float64  `json:"unitCost"`
	ProviderID  types.ID `json:"providerId"`

	CreateTime time.Time `json:"createTime"`
	UpdateTime time.Time `json:"updateTime"`
}

type MaintenancePlan struct {
	ID        types.ID `json:"id" gorm:"primary_key"`
	VehicleID types.ID `json:"vehicleId"`
	Title     string   `json:"title"`

	IntervalDays int   `json:"intervalDays"`
	IntervalKm   int64 `json:"intervalKm"`

	LastServiceTime    *time.Time `json:"lastServiceTime"`
	LastServiceMileage int64      `json:"lastServiceMileage"`
	NextDueTime        *time.Time `json:"nextDueTime"`
	NextDueMileage     int64      `json:"nextDueMileage"`
	Status             PlanStatus `json:"status"`

	CreateTime time.Time `json:"createTime"`
}

// LifecycleTables lists the tables removed by a reports clear, dependents first.
var LifecycleTables = []interface{}{&WorkOrderEvidence{}, &WorkOrderMaterial{}, &WorkOrderTask{}, &WorkOrder{}, &Diagnostic{}, &Report{}}

// AllTables lists every domain table in creation order.
var AllTables = []interface{}{&Vehicle{}, &Report{}, &Diagnostic{}, &WorkOrder{}, &WorkOrderTask{}, &WorkOrderMaterial{},
	&WorkOrderEvidence{}, &Employee{}, &Client{}, &Branch{}, &Provider{}, &InventoryItem{}, &MaintenancePlan{}}
