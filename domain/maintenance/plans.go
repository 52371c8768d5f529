package maintenance

import (
	"errors"
	"fleetcare/bizerror"
	"fleetcare/domain"
	"fleetcare/domain/vehicle"
	"fleetcare/idgen"
	"fleetcare/persistence"
	"fleetcare/session"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	idWorker = idgen.NewWorker()

	// DueSoonWindow is how far ahead a dated plan counts as due.
	DueSoonWindow = 7 * 24 * time.Hour

	CreatePlanFunc   = CreatePlan
	QueryPlansFunc   = QueryPlans
	CompletePlanFunc = CompletePlan
	DeletePlanFunc   = DeletePlan
)

type PlanCreation struct {
	VehicleID          types.ID   `json:"vehicleId" binding:"required"`
	Title              string     `json:"title" binding:"required,lte=128"`
	IntervalDays       int        `json:"intervalDays" binding:"gte=0"`
	IntervalKm         int64      `json:"intervalKm" binding:"gte=0"`
	LastServiceTime    *time.Time `json:"lastServiceTime"`
	LastServiceMileage int64      `json:"lastServiceMileage" binding:"gte=0"`
}

type PlanCompletion struct {
	ServiceTime *time.Time `json:"serviceTime"`
	Mileage     int64      `json:"mileage" binding:"gte=0"`
}

type PlanQuery struct {
	VehicleID types.ID `form:"vehicleId"`
	DueOnly   bool     `form:"dueOnly"`
}

func CreatePlan(c *PlanCreation, s *session.Session) (*domain.MaintenancePlan, error) {
	if !s.Perms.CanManageLifecycle() {
		return nil, bizerror.ErrForbidden
	}
	if c.IntervalDays == 0 && c.IntervalKm == 0 {
		return nil, bizerror.BadParam("plan needs an interval in days or kilometers")
	}
	now := time.Now()
	plan := domain.MaintenancePlan{ID: idgen.NextID(idWorker), VehicleID: c.VehicleID, Title: c.Title,
		IntervalDays: c.IntervalDays, IntervalKm: c.IntervalKm, LastServiceTime: c.LastServiceTime,
		LastServiceMileage: c.LastServiceMileage, CreateTime: now}
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		v, err := vehicle.FindVehicleDirectly(tx, c.VehicleID)
		if err != nil {
			return err
		}
		if plan.LastServiceMileage == 0 {
			plan.LastServiceMileage = v.Mileage
		}
		schedule(&plan, v.Mileage, now)
		return tx.Create(&plan).Error
	})
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// QueryPlans lists plans, restricted with dueOnly to overdue plans and plans due within DueSoonWindow.
func QueryPlans(q *PlanQuery, s *session.Session) ([]domain.MaintenancePlan, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if q.VehicleID != 0 {
		db = db.Where("vehicle_id = ?", q.VehicleID)
	}
	if q.DueOnly {
		db = db.Where("status = ? OR (next_due_time IS NOT NULL AND next_due_time <= ?)", domain.PlanOverdue, time.Now().Add(DueSoonWindow))
	}
	plans := []domain.MaintenancePlan{}
	if err := db.Order("next_due_time ASC, id ASC").Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

// CompletePlan records a service and schedules the next one from it.
func CompletePlan(id types.ID, c *PlanCompletion, s *session.Session) (*domain.MaintenancePlan, error) {
	if !s.Perms.CanWorkOnOrders() {
		return nil, bizerror.ErrForbidden
	}
	var result *domain.MaintenancePlan
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		plan, err := FindPlanDirectly(tx, id)
		if err != nil {
			return err
		}
		v, err := vehicle.FindVehicleDirectly(tx, plan.VehicleID)
		if err != nil {
			return err
		}
		now := time.Now()
		serviceTime := now
		if c.ServiceTime != nil {
			serviceTime = *c.ServiceTime
		}
		mileage := c.Mileage
		if mileage == 0 {
			mileage = v.Mileage
		}
		if mileage < plan.LastServiceMileage {
			return bizerror.BadParam("service mileage can not be lower than the last service")
		}
		plan.LastServiceTime = &serviceTime
		plan.LastServiceMileage = mileage
		current := v.Mileage
		if mileage > current {
			current = mileage
		}
		schedule(plan, current, now)
		if err := tx.Model(&domain.MaintenancePlan{}).Where("id = ?", id).Updates(map[string]interface{}{
			"last_service_time": plan.LastServiceTime, "last_service_mileage": plan.LastServiceMileage,
			"next_due_time": plan.NextDueTime, "next_due_mileage": plan.NextDueMileage, "status": plan.Status}).Error; err != nil {
			return err
		}
		result = plan
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func DeletePlan(id types.ID, s *session.Session) error {
	if !s.Perms.CanManageLifecycle() {
		return bizerror.ErrForbidden
	}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context).Where("id = ?", id).Delete(&domain.MaintenancePlan{})
	if db.Error != nil {
		return db.Error
	}
	if db.RowsAffected == 0 {
		return bizerror.NotFound("maintenance plan", id)
	}
	return nil
}

func FindPlanDirectly(db *gorm.DB, id types.ID) (*domain.MaintenancePlan, error) {
	plan := domain.MaintenancePlan{}
	if err := db.Where(&domain.MaintenancePlan{ID: id}).First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.NotFound("maintenance plan", id)
		}
		return nil, err
	}
	return &plan, nil
}

// schedule derives the next due date and mileage of plan, and its status at now for a vehicle at mileage.
func schedule(plan *domain.MaintenancePlan, mileage int64, now time.Time) {
	plan.NextDueTime = nil
	plan.NextDueMileage = 0
	if plan.IntervalDays > 0 {
		base := plan.CreateTime
		if plan.LastServiceTime != nil {
			base = *plan.LastServiceTime
		}
		due := base.AddDate(0, 0, plan.IntervalDays)
		plan.NextDueTime = &due
	}
	if plan.IntervalKm > 0 {
		plan.NextDueMileage = plan.LastServiceMileage + plan.IntervalKm
	}
	plan.Status = statusAt(plan, mileage, now)
}

func statusAt(plan *domain.MaintenancePlan, mileage int64, now time.Time) domain.PlanStatus {
	if plan.NextDueTime != nil && !now.Before(*plan.NextDueTime) {
		return domain.PlanOverdue
	}
	if plan.NextDueMileage > 0 && mileage >= plan.NextDueMileage {
		return domain.PlanOverdue
	}
	return domain.PlanScheduled
}
