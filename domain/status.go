package domain

import (
	"encoding/json"
	"fleetcare/domain/state"
	"fmt"
)

type ReportStatus string

const (
	ReportPending     = ReportStatus("pending")
	ReportDiagnostico = ReportStatus("diagnostico")
	ReportInProgress  = ReportStatus("in_progress")
	ReportResolved    = ReportStatus("resolved")
)

var ReportStatuses = []ReportStatus{ReportPending, ReportDiagnostico, ReportInProgress, ReportResolved}

type DiagnosticState string

const (
	DiagnosticOpen     = DiagnosticState("open")
	DiagnosticApproved = DiagnosticState("approved")
	DiagnosticRejected = DiagnosticState("rejected")
)

var DiagnosticStates = []DiagnosticState{DiagnosticOpen, DiagnosticApproved, DiagnosticRejected}

type WorkOrderStatus string

const (
	WorkOrderPending            = WorkOrderStatus("pending")
	WorkOrderInProgress         = WorkOrderStatus("in_progress")
	WorkOrderCompleted          = WorkOrderStatus("completed")
	WorkOrderAwaitingValidation = WorkOrderStatus("awaiting_validation")
	WorkOrderValidated          = WorkOrderStatus("validated")
)

var WorkOrderStatuses = []WorkOrderStatus{WorkOrderPending, WorkOrderInProgress, WorkOrderCompleted,
	WorkOrderAwaitingValidation, WorkOrderValidated}

type VehicleStatus string

const (
	VehicleActive    = VehicleStatus("active")
	VehicleInService = VehicleStatus("in-service")
	VehicleInactive  = VehicleStatus("inactive")
)

var VehicleStatuses = []VehicleStatus{VehicleActive, VehicleInService, VehicleInactive}

type PlanStatus string

const (
	PlanScheduled = PlanStatus("scheduled")
	PlanOverdue   = PlanStatus("overdue")
)

var PlanStatuses = []PlanStatus{PlanScheduled, PlanOverdue}

const (
	TransitionAssign   = "assign"
	TransitionApprove  = "approve"
	TransitionReject   = "reject"
	TransitionResolve  = "resolve"
	TransitionStart    = "start"
	TransitionComplete = "complete"
	TransitionSubmit   = "submit"
	TransitionValidate = "validate"
	TransitionReopen   = "reopen"
)

var ReportMachine = state.NewMachine(ReportStatuses, []state.Transition[ReportStatus]{
	{Name: TransitionAssign, From: ReportPending, To: ReportDiagnostico},
	{Name: TransitionApprove, From: ReportDiagnostico, To: ReportInProgress},
	{Name: TransitionResolve, From: ReportInProgress, To: ReportResolved},
	{Name: TransitionReopen, From: ReportResolved, To: ReportInProgress},
})

var DiagnosticMachine = state.NewMachine(DiagnosticStates, []state.Transition[DiagnosticState]{
	{Name: TransitionApprove, From: DiagnosticOpen, To: DiagnosticApproved},
	{Name: TransitionReject, From: DiagnosticOpen, To: DiagnosticRejected},
})

var WorkOrderMachine = state.NewMachine(WorkOrderStatuses, []state.Transition[WorkOrderStatus]{
	{Name: TransitionStart, From: WorkOrderPending, To: WorkOrderInProgress},
	{Name: TransitionComplete, From: WorkOrderInProgress, To: WorkOrderCompleted},
	{Name: TransitionSubmit, From: WorkOrderCompleted, To: WorkOrderAwaitingValidation},
	{Name: TransitionValidate, From: WorkOrderAwaitingValidation, To: WorkOrderValidated},
	{Name: TransitionReopen, From: WorkOrderAwaitingValidation, To: WorkOrderInProgress},
	{Name: TransitionReopen, From: WorkOrderValidated, To: WorkOrderInProgress},
})

// IsForwardStep reports whether to is exactly one step ahead of from, reopen excluded.
func IsForwardStep(from, to WorkOrderStatus) bool {
	for _, t := range WorkOrderMachine.AvailableTransitions(from, to) {
		if t.Name != TransitionReopen {
			return true
		}
	}
	return false
}

func IsReopenable(from WorkOrderStatus) bool {
	for _, t := range WorkOrderMachine.AvailableTransitions(from, "") {
		if t.Name == TransitionReopen {
			return true
		}
	}
	return false
}

// IsOpen reports whether a work order still keeps its vehicle in service.
func (s WorkOrderStatus) IsOpen() bool {
	return s != WorkOrderValidated
}

func (s ReportStatus) Valid() bool    { return contains(ReportStatuses, s) }
func (s DiagnosticState) Valid() bool { return contains(DiagnosticStates, s) }
func (s WorkOrderStatus) Valid() bool { return contains(WorkOrderStatuses, s) }
func (s VehicleStatus) Valid() bool   { return contains(VehicleStatuses, s) }
func (s PlanStatus) Valid() bool      { return contains(PlanStatuses, s) }

func (s *ReportStatus) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, s, "report status")
}

func (s *DiagnosticState) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, s, "diagnostic state")
}

func (s *WorkOrderStatus) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, s, "work order status")
}

func (s *VehicleStatus) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, s, "vehicle status")
}

func (s *PlanStatus) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, s, "plan status")
}

type enum interface {
	~string
	Valid() bool
}

func unmarshalEnum[E enum](data []byte, target *E, kind string) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v := E(raw)
	if !v.Valid() {
		return fmt.Errorf("invalid %s '%s'", kind, raw)
	}
	*target = v
	return nil
}

func contains[E comparable](values []E, v E) bool {
	for _, e := range values {
		if e == v {
			return true
		}
	}
	return false
}
