package workorder

import (
	"errors"
	"fleetcare/bizerror"
	"fleetcare/domain"
	"fleetcare/domain/inventory"
	"fleetcare/event"
	"fleetcare/idgen"
	"fleetcare/persistence"
	"fleetcare/session"
	"strconv"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	AddMaterialFunc    = AddMaterial
	RemoveMaterialFunc = RemoveMaterial
)

type MaterialCreation struct {
	ItemID   types.ID `json:"itemId" binding:"required"`
	Quantity int      `json:"quantity" binding:"required,gt=0"`
}

// AddMaterial records a material used by the work order and takes it out of stock.
func AddMaterial(workOrderID types.ID, c *MaterialCreation, s *session.Session) (*domain.WorkOrderMaterial, error) {
	if !s.Perms.CanWorkOnOrders() {
		return nil, bizerror.ErrForbidden
	}
	now := time.Now()
	m := domain.WorkOrderMaterial{ID: idgen.NextID(idWorker), WorkOrderID: workOrderID, ItemID: c.ItemID, Quantity: c.Quantity, CreateTime: now}
	var ev *event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		wo, err := findMutableWorkOrder(tx, workOrderID)
		if err != nil {
			return err
		}
		item, err := inventory.ConsumeDirectly(tx, c.ItemID, c.Quantity)
		if err != nil {
			return err
		}
		m.UnitCost = item.UnitCost
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		ev, err = event.CreateEvent(event.SourceWorkOrder, wo.ID, wo.Description, event.EventCategoryRelationUpdated, nil,
			event.UpdatedRelations{materialRelation(item, c.Quantity, true)}, &s.Identity, now, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	event.InvokeAll([]*event.EventRecord{ev})
	return &m, nil
}

// RemoveMaterial deletes a material line and puts its quantity back in stock.
func RemoveMaterial(workOrderID, materialID types.ID, s *session.Session) error {
	if !s.Perms.CanWorkOnOrders() {
		return bizerror.ErrForbidden
	}
	var ev *event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		wo, err := findMutableWorkOrder(tx, workOrderID)
		if err != nil {
			return err
		}
		m := domain.WorkOrderMaterial{}
		if err := tx.Where("id = ? AND work_order_id = ?", materialID, workOrderID).First(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return bizerror.NotFound("material", materialID)
			}
			return err
		}
		if err := tx.Where("id = ?", materialID).Delete(&domain.WorkOrderMaterial{}).Error; err != nil {
			return err
		}
		item, err := inventory.RestockDirectly(tx, m.ItemID, m.Quantity)
		if err != nil {
			return err
		}
		ev, err = event.CreateEvent(event.SourceWorkOrder, wo.ID, wo.Description, event.EventCategoryRelationUpdated, nil,
			event.UpdatedRelations{materialRelation(item, m.Quantity, false)}, &s.Identity, time.Now(), tx)
		return err
	})
	if err != nil {
		return err
	}
	event.InvokeAll([]*event.EventRecord{ev})
	return nil
}

func materialRelation(item *domain.InventoryItem, quantity int, added bool) event.UpdatedRelation {
	desc := item.SKU + " x" + strconv.Itoa(quantity)
	r := event.UpdatedRelation{PropertyName: "Materials", PropertyDesc: "Materials", TargetType: "INVENTORY_ITEM", TargetTypeDesc: "Inventory item"}
	if added {
		r.NewTargetId, r.NewTargetDesc = item.ID.String(), desc
	} else {
		r.OldTargetId, r.OldTargetDesc = item.ID.String(), desc
	}
	return r
}
