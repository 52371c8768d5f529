package client

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

	CreateClientFunc = CreateClient
	QueryClientsFunc = QueryClients
	DetailClientFunc = DetailClient
	UpdateClientFunc = UpdateClient
	DeleteClientFunc = DeleteClient

	CreateBranchFunc = CreateBranch
	DeleteBranchFunc = DeleteBranch
)

type ClientCreation struct {
	Name    string `json:"name" binding:"required,lte=128"`
	Contact string `json:"contact" binding:"lte=64"`
	Phone   string `json:"phone" binding:"lte=32"`
	Email   string `json:"email" binding:"omitempty,email"`
}

type BranchCreation struct {
	Name    string `json:"name" binding:"required,lte=128"`
	Address string `json:"address" binding:"lte=255"`
}

type ClientQuery struct {
	Name string `form:"name"`
}

type ClientDetail struct {
	domain.Client
	Branches []domain.Branch `json:"branches"`
}

func CreateClient(c *ClientCreation, s *session.Session) (*domain.Client, error) {
	if !s.Perms.CanManageLifecycle() {
		return nil, bizerror.ErrForbidden
	}
	client := domain.Client{ID: idgen.NextID(idWorker), Name: c.Name, Contact: c.Contact, Phone: c.Phone, Email: c.Email, CreateTime: time.Now()}
	if err := persistence.ActiveDataSourceManager.GormDB(s.Context).Create(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func QueryClients(q *ClientQuery, s *session.Session) ([]domain.Client, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if q.Name != "" {
		db = db.Where("name LIKE ?", "%"+q.Name+"%")
	}
	clients := []domain.Client{}
	if err := db.Order("name ASC").Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

func DetailClient(id types.ID, s *session.Session) (*ClientDetail, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	c, err := FindClientDirectly(db, id)
	if err != nil {
		return nil, err
	}
	detail := ClientDetail{Client: *c, Branches: []domain.Branch{}}
	if err := db.Where("client_id = ?", id).Order("name ASC").Find(&detail.Branches).Error; err != nil {
		return nil, err
	}
	return &detail, nil
}

func UpdateClient(id types.ID, u *ClientCreation, s *session.Session) (*domain.Client, error) {
	if !s.Perms.CanManageLifecycle() {
		return nil, bizerror.ErrForbidden
	}
	var result *domain.Client
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		c, err := FindClientDirectly(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Model(&domain.Client{}).Where("id = ?", id).Updates(map[string]interface{}{
			"name": u.Name, "contact": u.Contact, "phone": u.Phone, "email": u.Email}).Error; err != nil {
			return err
		}
		c.Name, c.Contact, c.Phone, c.Email = u.Name, u.Contact, u.Phone, u.Email
		result = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteClient removes a client and its branches, refusing while vehicles still belong to it.
func DeleteClient(id types.ID, s *session.Session) error {
	if !s.Perms.CanManageLifecycle() {
		return bizerror.ErrForbidden
	}
	return persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		if _, err := FindClientDirectly(tx, id); err != nil {
			return err
		}
		var vehicles int
		if err := tx.Model(&domain.Vehicle{}).Where("client_id = ?", id).Count(&vehicles).Error; err != nil {
			return err
		}
		if vehicles > 0 {
			return bizerror.BadParam("client " + id.String() + " still owns vehicles")
		}
		if err := tx.Where("client_id = ?", id).Delete(&domain.Branch{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&domain.Client{}).Error
	})
}

func CreateBranch(clientID types.ID, c *BranchCreation, s *session.Session) (*domain.Branch, error) {
	if !s.Perms.CanManageLifecycle() {
		return nil, bizerror.ErrForbidden
	}
	b := domain.Branch{ID: idgen.NextID(idWorker), ClientID: clientID, Name: c.Name, Address: c.Address, CreateTime: time.Now()}
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		if _, err := FindClientDirectly(tx, clientID); err != nil {
			return err
		}
		return tx.Create(&b).Error
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func DeleteBranch(clientID, branchID types.ID, s *session.Session) error {
	if !s.Perms.CanManageLifecycle() {
		return bizerror.ErrForbidden
	}
	return persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		var vehicles int
		if err := tx.Model(&domain.Vehicle{}).Where("branch_id = ?", branchID).Count(&vehicles).Error; err != nil {
			return err
		}
		if vehicles > 0 {
			return bizerror.BadParam("branch " + branchID.String() + " still has vehicles")
		}
		db := tx.Where("id = ? AND client_id = ?", branchID, clientID).Delete(&domain.Branch{})
		if db.Error != nil {
			return db.Error
		}
		if db.RowsAffected == 0 {
			return bizerror.NotFound("branch", branchID)
		}
		return nil
	})
}

func FindClientDirectly(db *gorm.DB, id types.ID) (*domain.Client, error) {
	c := domain.Client{}
	if err := db.Where(&domain.Client{ID: id}).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.NotFound("client", id)
		}
		return nil, err
	}
	return &c, nil
}
