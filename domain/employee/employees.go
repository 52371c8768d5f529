package employee

import (
	"errors"
	"fleetcare/bizerror"
	"fleetcare/domain"
	"fleetcare/idgen"
	"fleetcare/persistence"
	"fleetcare/session"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	idWorker = idgen.NewWorker()

	CreateEmployeeFunc     = CreateEmployee
	QueryEmployeesFunc     = QueryEmployees
	DetailEmployeeFunc     = DetailEmployee
	UpdateEmployeeFunc     = UpdateEmployee
	DeactivateEmployeeFunc = DeactivateEmployee
)

const (
	PositionTechnician    = "technician"
	PositionSupervisor    = "supervisor"
	PositionDriver        = "driver"
	PositionAdministrator = "administrator"
)

type EmployeeCreation struct {
	Name     string   `json:"name" binding:"required,lte=64"`
	Email    string   `json:"email" binding:"omitempty,email"`
	Phone    string   `json:"phone" binding:"lte=32"`
	Position string   `json:"position" binding:"required,oneof=technician supervisor driver administrator"`
	BranchID types.ID `json:"branchId"`
}

type EmployeeUpdating struct {
	Name     string   `json:"name" binding:"required,lte=64"`
	Email    string   `json:"email" binding:"omitempty,email"`
	Phone    string   `json:"phone" binding:"lte=32"`
	Position string   `json:"position" binding:"required,oneof=technician supervisor driver administrator"`
	BranchID types.ID `json:"branchId"`
}

type EmployeeQuery struct {
	Position   string `form:"position"`
	ActiveOnly bool   `form:"activeOnly"`
}

func CreateEmployee(c *EmployeeCreation, s *session.Session) (*domain.Employee, error) {
	if !s.Perms.CanManageLifecycle() {
		return nil, bizerror.ErrForbidden
	}
	e := domain.Employee{ID: idgen.NextID(idWorker), Name: c.Name, Email: c.Email, Phone: c.Phone, Position: c.Position,
		BranchID: c.BranchID, Active: true, CreateTime: time.Now()}
	if err := persistence.ActiveDataSourceManager.GormDB(s.Context).Create(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func QueryEmployees(q *EmployeeQuery, s *session.Session) ([]domain.Employee, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if q.Position != "" {
		db = db.Where("position = ?", q.Position)
	}
	if q.ActiveOnly {
		db = db.Where("active = ?", true)
	}
	employees := []domain.Employee{}
	if err := db.Order("name ASC, id ASC").Find(&employees).Error; err != nil {
		return nil, err
	}
	return employees, nil
}

func DetailEmployee(id types.ID, s *session.Session) (*domain.Employee, error) {
	return FindEmployeeDirectly(persistence.ActiveDataSourceManager.GormDB(s.Context), id)
}

func UpdateEmployee(id types.ID, u *EmployeeUpdating, s *session.Session) (*domain.Employee, error) {
	if !s.Perms.CanManageLifecycle() {
		return nil, bizerror.ErrForbidden
	}
	var result *domain.Employee
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		e, err := FindEmployeeDirectly(tx, id)
		if err != nil {
			return err
		}
		changes := map[string]interface{}{"name": u.Name, "email": u.Email, "phone": u.Phone, "position": u.Position, "branch_id": u.BranchID}
		if err := tx.Model(&domain.Employee{}).Where("id = ?", id).Updates(changes).Error; err != nil {
			return err
		}
		e.Name, e.Email, e.Phone, e.Position, e.BranchID = u.Name, u.Email, u.Phone, u.Position, u.BranchID
		result = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeactivateEmployee keeps the record for the reports and diagnostics referencing it.
func DeactivateEmployee(id types.ID, s *session.Session) error {
	if !s.Perms.CanManageLifecycle() {
		return bizerror.ErrForbidden
	}
	return persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		if _, err := FindEmployeeDirectly(tx, id); err != nil {
			return err
		}
		return tx.Model(&domain.Employee{}).Where("id = ?", id).Update("active", false).Error
	})
}

func FindEmployeeDirectly(db *gorm.DB, id types.ID) (*domain.Employee, error) {
	e := domain.Employee{}
	if err := db.Where(&domain.Employee{ID: id}).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.NotFound("employee", id)
		}
		return nil, err
	}
	return &e, nil
}

// FindActiveEmployeeDirectly rejects deactivated employees as a bad parameter.
func FindActiveEmployeeDirectly(db *gorm.DB, id types.ID) (*domain.Employee, error) {
	e, err := FindEmployeeDirectly(db, id)
	if err != nil {
		return nil, err
	}
	if !e.Active {
		return nil, bizerror.BadParam("employee " + id.String() + " is inactive")
	}
	return e, nil
}
