package inventory

import (
	"errors"
	"fleetcare/bizerror"
	"fleetcare/domain"
	"fleetcare/idgen"
	"fleetcare/persistence"
	"fleetcare/session"
	"strings"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	idWorker = idgen.NewWorker()

	CreateItemFunc  = CreateItem
	QueryItemsFunc  = QueryItems
	DetailItemFunc  = DetailItem
	UpdateItemFunc  = UpdateItem
	RestockItemFunc = RestockItem
)

type ItemCreation struct {
	SKU         string   `json:"sku" binding:"required,lte=64"`
	Name        string   `json:"name" binding:"required,lte=128"`
	Quantity    int      `json:"quantity" binding:"gte=0"`
	MinQuantity int      `json:"minQuantity" binding:"gte=0"`
	UnitCost    float64  `json:"unitCost" binding:"gte=0"`
	ProviderID  types.ID `json:"providerId"`
}

type ItemUpdating struct {
	Name        string   `json:"name" binding:"required,lte=128"`
	MinQuantity int      `json:"minQuantity" binding:"gte=0"`
	UnitCost    float64  `json:"unitCost" binding:"gte=0"`
	ProviderID  types.ID `json:"providerId"`
}

type Restocking struct {
	Quantity int `json:"quantity" binding:"required,gt=0"`
}

type ItemQuery struct {
	LowStock   bool     `form:"lowStock"`
	ProviderID types.ID `form:"providerId"`
}

func CreateItem(c *ItemCreation, s *session.Session) (*domain.InventoryItem, error) {
	if !s.Perms.CanManageLifecycle() {
		return nil, bizerror.ErrForbidden
	}
	now := time.Now()
	item := domain.InventoryItem{ID: idgen.NextID(idWorker), SKU: strings.ToUpper(strings.TrimSpace(c.SKU)), Name: c.Name,
		Quantity: c.Quantity, MinQuantity: c.MinQuantity, UnitCost: c.UnitCost, ProviderID: c.ProviderID, CreateTime: now, UpdateTime: now}
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		var count int
		if err := tx.Model(&domain.InventoryItem{}).Where("sku = ?", item.SKU).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return bizerror.BadParam("sku '" + item.SKU + "' is already registered")
		}
		return tx.Create(&item).Error
	})
	if persistence.IsUniqueViolation(err) {
		return nil, bizerror.BadParam("sku '" + item.SKU + "' is already registered")
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func QueryItems(q *ItemQuery, s *session.Session) ([]domain.InventoryItem, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if q.ProviderID != 0 {
		db = db.Where("provider_id = ?", q.ProviderID)
	}
	if q.LowStock {
		return LowStockItemsDirectly(db)
	}
	items := []domain.InventoryItem{}
	if err := db.Order("sku ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func DetailItem(id types.ID, s *session.Session) (*domain.InventoryItem, error) {
	return FindItemDirectly(persistence.ActiveDataSourceManager.GormDB(s.Context), id)
}

func UpdateItem(id types.ID, u *ItemUpdating, s *session.Session) (*domain.InventoryItem, error) {
	if !s.Perms.CanManageLifecycle() {
		return nil, bizerror.ErrForbidden
	}
	var result *domain.InventoryItem
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		if _, err := FindItemDirectly(tx, id); err != nil {
			return err
		}
		changes := map[string]interface{}{"name": u.Name, "min_quantity": u.MinQuantity, "unit_cost": u.UnitCost,
			"provider_id": u.ProviderID, "update_time": time.Now()}
		if err := tx.Model(&domain.InventoryItem{}).Where("id = ?", id).Updates(changes).Error; err != nil {
			return err
		}
		item, err := FindItemDirectly(tx, id)
		result = item
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func RestockItem(id types.ID, r *Restocking, s *session.Session) (*domain.InventoryItem, error) {
	if !s.Perms.CanManageLifecycle() {
		return nil, bizerror.ErrForbidden
	}
	var result *domain.InventoryItem
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		item, err := RestockDirectly(tx, id, r.Quantity)
		result = item
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ConsumeDirectly takes quantity out of stock, failing when the stock is insufficient.
func ConsumeDirectly(tx *gorm.DB, id types.ID, quantity int) (*domain.InventoryItem, error) {
	if quantity <= 0 {
		return nil, bizerror.BadParam("quantity must be positive")
	}
	db := tx.Model(&domain.InventoryItem{}).Where("id = ? AND quantity >= ?", id, quantity).
		Updates(map[string]interface{}{"quantity": gorm.Expr("quantity - ?", quantity), "update_time": time.Now()})
	if db.Error != nil {
		return nil, db.Error
	}
	if db.RowsAffected != 1 {
		item, err := FindItemDirectly(tx, id)
		if err != nil {
			return nil, err
		}
		return nil, bizerror.BadParam("insufficient stock for item '" + item.SKU + "'")
	}
	return FindItemDirectly(tx, id)
}

func RestockDirectly(tx *gorm.DB, id types.ID, quantity int) (*domain.InventoryItem, error) {
	if quantity <= 0 {
		return nil, bizerror.BadParam("quantity must be positive")
	}
	if _, err := FindItemDirectly(tx, id); err != nil {
		return nil, err
	}
	if err := tx.Model(&domain.InventoryItem{}).Where("id = ?", id).
		Updates(map[string]interface{}{"quantity": gorm.Expr("quantity + ?", quantity), "update_time": time.Now()}).Error; err != nil {
		return nil, err
	}
	return FindItemDirectly(tx, id)
}

// LowStockItemsDirectly lists items at or below their minimum quantity.
func LowStockItemsDirectly(db *gorm.DB) ([]domain.InventoryItem, error) {
	items := []domain.InventoryItem{}
	if err := db.Where("quantity <= min_quantity").Order("sku ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func FindItemDirectly(db *gorm.DB, id types.ID) (*domain.InventoryItem, error) {
	item := domain.InventoryItem{}
	if err := db.Where(&domain.InventoryItem{ID: id}).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.NotFound("inventory item", id)
		}
		return nil, err
	}
	return &item, nil
}
