package account

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fleetcare/bizerror"
	"fleetcare/idgen"
	"fleetcare/persistence"
	"fleetcare/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var idWorker = idgen.NewWorker()

func HashSha256(raw string) string {
	h := sha256.New()
	h.Write([]byte(raw))
	sum := h.Sum(nil)
	return hex.EncodeToString(sum)
}

func UpdateBasicAuthSecret(u *BasicAuthUpdating, s *session.Session) error {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	user := User{}
	if err := db.Where(&User{ID: s.Identity.ID, Secret: HashSha256(u.OriginalSecret)}).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return bizerror.ErrInvalidPassword
		}
		return err
	}
	return db.Model(&User{}).Where(&User{ID: s.Identity.ID, Secret: HashSha256(u.OriginalSecret)}).
		Update(&User{Secret: HashSha256(u.NewSecret)}).Error
}

func QueryUsers(s *session.Session) (*[]UserInfo, error) {
	users := []UserInfo{}
	if err := persistence.ActiveDataSourceManager.GormDB(s.Context).Model(&User{}).Order("id ASC").Scan(&users).Error; err != nil {
		return nil, err
	}
	return &users, nil
}

func CreateUser(c *UserCreation, s *session.Session) (*UserInfo, error) {
	if !s.Perms.IsSystemAdmin() {
		return nil, bizerror.ErrForbidden
	}

	user := User{ID: idgen.NextID(idWorker), Name: c.Name, Nickname: c.Nickname, Secret: HashSha256(c.Secret), EmployeeID: c.EmployeeID}
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		var count int
		if err := tx.Model(&User{}).Where(&User{Name: c.Name}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return bizerror.BadParam("user name '" + c.Name + "' is already taken")
		}
		if err := tx.Save(&user).Error; err != nil {
			return err
		}
		return bindRoles(tx, user.ID, c.Roles)
	})
	if err != nil {
		return nil, err
	}
	return &UserInfo{ID: user.ID, Name: user.Name, Nickname: user.Nickname, EmployeeID: user.EmployeeID}, nil
}

func UpdateUser(userId types.ID, c *UserUpdation, s *session.Session) error {
	if !s.Perms.IsSystemAdmin() && userId != s.Identity.ID {
		return bizerror.ErrForbidden
	}

	return persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		user := User{ID: userId}
		if err := tx.Where(&user).First(&user).Error; err != nil {
			return err
		}
		return tx.Model(&user).Update(&User{Nickname: c.Nickname}).Error
	})
}
