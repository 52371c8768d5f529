package provider

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

	CreateProviderFunc = CreateProvider
	QueryProvidersFunc = QueryProviders
	DetailProviderFunc = DetailProvider
	UpdateProviderFunc = UpdateProvider
	DeleteProviderFunc = DeleteProvider
)

type ProviderCreation struct {
	Name    string `json:"name" binding:"required,lte=128"`
	Service string `json:"service" binding:"required,lte=64"`
	Contact string `json:"contact" binding:"lte=64"`
	Phone   string `json:"phone" binding:"lte=32"`
	Email   string `json:"email" binding:"omitempty,email"`
}

type ProviderQuery struct {
	Service string `form:"service"`
}

func CreateProvider(c *ProviderCreation, s *session.Session) (*domain.Provider, error) {
	if !s.Perms.CanManageLifecycle() {
		return nil, bizerror.ErrForbidden
	}
	p := domain.Provider{ID: idgen.NextID(idWorker), Name: c.Name, Service: c.Service, Contact: c.Contact,
		Phone: c.Phone, Email: c.Email, CreateTime: time.Now()}
	if err := persistence.ActiveDataSourceManager.GormDB(s.Context).Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func QueryProviders(q *ProviderQuery, s *session.Session) ([]domain.Provider, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if q.Service != "" {
		db = db.Where("service = ?", q.Service)
	}
	providers := []domain.Provider{}
	if err := db.Order("name ASC").Find(&providers).Error; err != nil {
		return nil, err
	}
	return providers, nil
}

func DetailProvider(id types.ID, s *session.Session) (*domain.Provider, error) {
	return FindProviderDirectly(persistence.ActiveDataSourceManager.GormDB(s.Context), id)
}

func UpdateProvider(id types.ID, u *ProviderCreation, s *session.Session) (*domain.Provider, error) {
	if !s.Perms.CanManageLifecycle() {
		return nil, bizerror.ErrForbidden
	}
	var result *domain.Provider
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		p, err := FindProviderDirectly(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Model(&domain.Provider{}).Where("id = ?", id).Updates(map[string]interface{}{
			"name": u.Name, "service": u.Service, "contact": u.Contact, "phone": u.Phone, "email": u.Email}).Error; err != nil {
			return err
		}
		p.Name, p.Service, p.Contact, p.Phone, p.Email = u.Name, u.Service, u.Contact, u.Phone, u.Email
		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteProvider refuses while inventory items are still supplied by the provider.
func DeleteProvider(id types.ID, s *session.Session) error {
	if !s.Perms.CanManageLifecycle() {
		return bizerror.ErrForbidden
	}
	return persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		if _, err := FindProviderDirectly(tx, id); err != nil {
			return err
		}
		var items int
		if err := tx.Model(&domain.InventoryItem{}).Where("provider_id = ?", id).Count(&items).Error; err != nil {
			return err
		}
		if items > 0 {
			return bizerror.BadParam("provider " + id.String() + " still supplies inventory items")
		}
		return tx.Where("id = ?", id).Delete(&domain.Provider{}).Error
	})
}

func FindProviderDirectly(db *gorm.DB, id types.ID) (*domain.Provider, error) {
	p := domain.Provider{}
	if err := db.Where(&domain.Provider{ID: id}).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.NotFound("provider", id)
		}
		return nil, err
	}
	return &p, nil
}
