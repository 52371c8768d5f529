package vehicle

import (
	"errors"
	"fleetcare/bizerror"
	"fleetcare/domain"
	"fleetcare/event"
	"fleetcare/idgen"
	"fleetcare/persistence"
	"fleetcare/session"
	"strconv"
	"strings"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	idWorker = idgen.NewWorker()

	CreateVehicleFunc = CreateVehicle
	QueryVehiclesFunc = QueryVehicles
	DetailVehicleFunc = DetailVehicle
	UpdateVehicleFunc = UpdateVehicle
)

type VehicleCreation struct {
	Plate    string   `json:"plate" binding:"required,lte=20"`
	Brand    string   `json:"brand" binding:"lte=64"`
	Model    string   `json:"model" binding:"lte=64"`
	Year     int      `json:"year" binding:"omitempty,gte=1900,lte=2100"`
	Vin      string   `json:"vin" binding:"lte=32"`
	Mileage  int64    `json:"mileage" binding:"gte=0"`
	ClientID types.ID `json:"clientId"`
	BranchID types.ID `json:"branchId"`
	Inactive bool     `json:"inactive"`
}

type VehicleUpdating struct {
	Brand    *string   `json:"brand" binding:"omitempty,lte=64"`
	Model    *string   `json:"model" binding:"omitempty,lte=64"`
	Year     *int      `json:"year" binding:"omitempty,gte=1900,lte=2100"`
	Vin      *string   `json:"vin" binding:"omitempty,lte=32"`
	Mileage  *int64    `json:"mileage" binding:"omitempty,gte=0"`
	ClientID *types.ID `json:"clientId"`
	BranchID *types.ID `json:"branchId"`
	Inactive *bool     `json:"inactive"`
}

type VehicleQuery struct {
	Status   domain.VehicleStatus `form:"status"`
	ClientID types.ID             `form:"clientId"`
	Plate    string               `form:"plate"`
}

func CreateVehicle(c *VehicleCreation, s *session.Session) (*domain.Vehicle, error) {
	if !s.Perms.CanManageLifecycle() {
		return nil, bizerror.ErrForbidden
	}
	now := time.Now()
	v := domain.Vehicle{
		ID: idgen.NextID(idWorker), Plate: normalizePlate(c.Plate), Brand: c.Brand, Model: c.Model, Year: c.Year, Vin: c.Vin,
		Mileage: c.Mileage, ClientID: c.ClientID, BranchID: c.BranchID, Inactive: c.Inactive,
		Status: restingStatus(c.Inactive), CreateTime: now, UpdateTime: now,
	}
	var ev *event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		var count int
		if err := tx.Model(&domain.Vehicle{}).Where("plate = ?", v.Plate).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return bizerror.BadParam("plate '" + v.Plate + "' is already registered")
		}
		if err := tx.Create(&v).Error; err != nil {
			return err
		}
		var err error
		ev, err = event.CreateEvent(event.SourceVehicle, v.ID, v.Plate, event.EventCategoryCreated, nil, nil, &s.Identity, now, tx)
		return err
	})
	if persistence.IsUniqueViolation(err) {
		return nil, bizerror.BadParam("plate '" + v.Plate + "' is already registered")
	}
	if err != nil {
		return nil, err
	}
	event.InvokeAll([]*event.EventRecord{ev})
	return &v, nil
}

func QueryVehicles(q *VehicleQuery, s *session.Session) ([]domain.Vehicle, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if q.Status != "" {
		if !q.Status.Valid() {
			return nil, bizerror.BadParam("invalid vehicle status '" + string(q.Status) + "'")
		}
		db = db.Where("status = ?", q.Status)
	}
	if q.ClientID != 0 {
		db = db.Where("client_id = ?", q.ClientID)
	}
	if q.Plate != "" {
		db = db.Where("plate LIKE ?", "%"+normalizePlate(q.Plate)+"%")
	}
	vehicles := []domain.Vehicle{}
	if err := db.Order("plate ASC").Find(&vehicles).Error; err != nil {
		return nil, err
	}
	return vehicles, nil
}

func DetailVehicle(id types.ID, s *session.Session) (*domain.Vehicle, error) {
	return FindVehicleDirectly(persistence.ActiveDataSourceManager.GormDB(s.Context), id)
}

func UpdateVehicle(id types.ID, u *VehicleUpdating, s *session.Session) (*domain.Vehicle, error) {
	if !s.Perms.CanManageLifecycle() {
		return nil, bizerror.ErrForbidden
	}
	var result *domain.Vehicle
	var events []*event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		v, err := FindVehicleDirectly(tx, id)
		if err != nil {
			return err
		}
		changes := map[string]interface{}{"update_time": time.Now()}
		if u.Brand != nil {
			changes["brand"] = *u.Brand
		}
		if u.Model != nil {
			changes["model"] = *u.Model
		}
		if u.Year != nil {
			changes["year"] = *u.Year
		}
		if u.Vin != nil {
			changes["vin"] = *u.Vin
		}
		if u.Mileage != nil {
			if *u.Mileage < v.Mileage {
				return bizerror.BadParam("mileage can not decrease")
			}
			changes["mileage"] = *u.Mileage
		}
		if u.ClientID != nil {
			changes["client_id"] = *u.ClientID
		}
		if u.BranchID != nil {
			changes["branch_id"] = *u.BranchID
		}
		if u.Inactive != nil {
			changes["inactive"] = *u.Inactive
		}
		if err := tx.Model(&domain.Vehicle{}).Where("id = ?", id).Updates(changes).Error; err != nil {
			return err
		}
		updated, from, err := RecomputeStatusDirectly(tx, id)
		if err != nil {
			return err
		}
		ev, err := event.CreateEvent(event.SourceVehicle, id, updated.Plate, event.EventCategoryPropertyUpdated,
			propertyChanges(v, updated), nil, &s.Identity, time.Now(), tx)
		if err != nil {
			return err
		}
		events = append(events, ev)
		if from != updated.Status {
			ev, err := StatusChangedEvent(updated, from, &s.Identity, tx)
			if err != nil {
				return err
			}
			events = append(events, ev)
		}
		result = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	event.InvokeAll(events)
	return result, nil
}

func FindVehicleDirectly(db *gorm.DB, id types.ID) (*domain.Vehicle, error) {
	v := domain.Vehicle{}
	if err := db.Where(&domain.Vehicle{ID: id}).First(&v).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.NotFound("vehicle", id)
		}
		return nil, err
	}
	return &v, nil
}

// RecomputeStatusDirectly derives the vehicle status from its open work orders and returns the vehicle with the previous status.
func RecomputeStatusDirectly(tx *gorm.DB, id types.ID) (*domain.Vehicle, domain.VehicleStatus, error) {
	v, err := FindVehicleDirectly(tx, id)
	if err != nil {
		return nil, "", err
	}
	var open int
	if err := tx.Model(&domain.WorkOrder{}).Where("vehicle_id = ? AND status <> ?", id, domain.WorkOrderValidated).
		Count(&open).Error; err != nil {
		return nil, "", err
	}
	status := restingStatus(v.Inactive)
	if open > 0 {
		status = domain.VehicleInService
	}
	from := v.Status
	if status == from {
		return v, from, nil
	}
	now := time.Now()
	if err := tx.Model(&domain.Vehicle{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "update_time": now}).Error; err != nil {
		return nil, "", err
	}
	v.Status = status
	v.UpdateTime = now
	return v, from, nil
}

// ResetServiceStatusDirectly moves every in-service vehicle back to its resting status and returns the affected count.
func ResetServiceStatusDirectly(tx *gorm.DB) (int64, error) {
	now := time.Now()
	db := tx.Model(&domain.Vehicle{}).Where("status = ? AND inactive = ?", domain.VehicleInService, false).
		Updates(map[string]interface{}{"status": domain.VehicleActive, "update_time": now})
	if db.Error != nil {
		return 0, db.Error
	}
	affected := db.RowsAffected
	db = tx.Model(&domain.Vehicle{}).Where("status = ? AND inactive = ?", domain.VehicleInService, true).
		Updates(map[string]interface{}{"status": domain.VehicleInactive, "update_time": now})
	if db.Error != nil {
		return 0, db.Error
	}
	return affected + db.RowsAffected, nil
}

func StatusChangedEvent(v *domain.Vehicle, from domain.VehicleStatus, identity *session.Identity, tx *gorm.DB) (*event.EventRecord, error) {
	return event.CreateEvent(event.SourceVehicle, v.ID, v.Plate, event.EventCategoryStatusChanged,
		event.StatusChange(string(from), string(v.Status)), nil, identity, time.Now(), tx)
}

func restingStatus(inactive bool) domain.VehicleStatus {
	if inactive {
		return domain.VehicleInactive
	}
	return domain.VehicleActive
}

func normalizePlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}

func propertyChanges(before, after *domain.Vehicle) event.UpdatedProperties {
	props := event.UpdatedProperties{}
	add := func(name, old, updated string) {
		if old != updated {
			props = append(props, event.UpdatedProperty{PropertyName: name, PropertyDesc: name,
				OldValue: old, OldValueDesc: old, NewValue: updated, NewValueDesc: updated})
		}
	}
	add("Brand", before.Brand, after.Brand)
	add("Model", before.Model, after.Model)
	add("Vin", before.Vin, after.Vin)
	add("Year", strconv.Itoa(before.Year), strconv.Itoa(after.Year))
	add("Mileage", strconv.FormatInt(before.Mileage, 10), strconv.FormatInt(after.Mileage, 10))
	add("Inactive", strconv.FormatBool(before.Inactive), strconv.FormatBool(after.Inactive))
	return props
}
