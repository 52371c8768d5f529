package workorder

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
	CreateTaskFunc = CreateTask
	UpdateTaskFunc = UpdateTask
	DeleteTaskFunc = DeleteTask
)

type TaskCreation struct {
	Title string `json:"title" binding:"required,lte=255"`
}

type TaskUpdating struct {
	Title string `json:"title" binding:"lte=255"`
	Done  *bool  `json:"done"`
}

func CreateTask(workOrderID types.ID, c *TaskCreation, s *session.Session) (*domain.WorkOrderTask, error) {
	if !s.Perms.CanWorkOnOrders() {
		return nil, bizerror.ErrForbidden
	}
	task := domain.WorkOrderTask{ID: idgen.NextID(idWorker), WorkOrderID: workOrderID, Title: c.Title, CreateTime: time.Now()}
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		if _, err := findMutableWorkOrder(tx, workOrderID); err != nil {
			return err
		}
		return tx.Create(&task).Error
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func UpdateTask(workOrderID, taskID types.ID, u *TaskUpdating, s *session.Session) (*domain.WorkOrderTask, error) {
	if !s.Perms.CanWorkOnOrders() {
		return nil, bizerror.ErrForbidden
	}
	var result *domain.WorkOrderTask
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		if _, err := findMutableWorkOrder(tx, workOrderID); err != nil {
			return err
		}
		task, err := findTask(tx, workOrderID, taskID)
		if err != nil {
			return err
		}
		changes := map[string]interface{}{}
		if u.Title != "" {
			changes["title"] = u.Title
			task.Title = u.Title
		}
		if u.Done != nil {
			changes["done"] = *u.Done
			task.Done = *u.Done
		}
		if len(changes) > 0 {
			if err := tx.Model(&domain.WorkOrderTask{}).Where("id = ?", taskID).Updates(changes).Error; err != nil {
				return err
			}
		}
		result = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func DeleteTask(workOrderID, taskID types.ID, s *session.Session) error {
	if !s.Perms.CanWorkOnOrders() {
		return bizerror.ErrForbidden
	}
	return persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		if _, err := findMutableWorkOrder(tx, workOrderID); err != nil {
			return err
		}
		if _, err := findTask(tx, workOrderID, taskID); err != nil {
			return err
		}
		return tx.Where("id = ?", taskID).Delete(&domain.WorkOrderTask{}).Error
	})
}

func findTask(db *gorm.DB, workOrderID, taskID types.ID) (*domain.WorkOrderTask, error) {
	task := domain.WorkOrderTask{}
	if err := db.Where("id = ? AND work_order_id = ?", taskID, workOrderID).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.NotFound("task", taskID)
		}
		return nil, err
	}
	return &task, nil
}
