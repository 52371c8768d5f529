package account_test

import (
	"errors"
	"fleetcare/account"
	"fleetcare/authority"
	"fleetcare/bizerror"
	"fleetcare/persistence"
	"fleetcare/testinfra"
	"testing"

	"github.com/jinzhu/gorm"
	. "github.com/onsi/gomega"
)

func setupAccountDatabase(t *testing.T) *testinfra.TestDatabase {
	testDatabase := testinfra.StartTestDatabase("account")
	persistence.ActiveDataSourceManager = testDatabase.DS
	err := testDatabase.DS.GormDB(nil).AutoMigrate(&account.User{}, &account.Role{}, &account.Permission{},
		&account.UserRoleBinding{}, &account.RolePermissionBinding{}).Error
	if err != nil {
		t.Fatal(err)
	}
	return testDatabase
}

func TestDefaultSecurityConfiguration(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should seed admin and roles idempotently", func(t *testing.T) {
		testDatabase := setupAccountDatabase(t)
		defer testinfra.StopTestDatabase(testDatabase)

		Expect(account.DefaultSecurityConfiguration()).To(Succeed())
		Expect(account.DefaultSecurityConfiguration()).To(Succeed())

		admin := account.User{}
		Expect(testDatabase.DS.GormDB(nil).Where(&account.User{ID: 1}).First(&admin).Error).To(BeNil())
		Expect(admin.Name).To(Equal("admin"))
		Expect(admin.Secret).To(Equal(account.HashSha256("admin123")))

		perms := account.LoadPerms(1)
		Expect(perms).To(ConsistOf(authority.PermSystemAdmin, authority.PermLifecycleManage, authority.PermLifecycleDiagnose))

		var roles int
		Expect(testDatabase.DS.GormDB(nil).Model(&account.Role{}).Count(&roles).Error).To(BeNil())
		Expect(roles).To(Equal(4))
	})

	t.Run("should return empty permissions for user without roles", func(t *testing.T) {
		testDatabase := setupAccountDatabase(t)
		defer testinfra.StopTestDatabase(testDatabase)

		Expect(account.DefaultSecurityConfiguration()).To(Succeed())
		Expect(account.LoadPerms(404)).To(BeEmpty())
	})
}

func TestCreateUser(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should be forbidden for non admin", func(t *testing.T) {
		testDatabase := setupAccountDatabase(t)
		defer testinfra.StopTestDatabase(testDatabase)

		u, err := account.CreateUser(&account.UserCreation{Name: "tom", Secret: "123456"}, testinfra.BuildSession(2, authority.PermLifecycleManage))
		Expect(u).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})

	t.Run("should create user with roles", func(t *testing.T) {
		testDatabase := setupAccountDatabase(t)
		defer testinfra.StopTestDatabase(testDatabase)
		Expect(account.DefaultSecurityConfiguration()).To(Succeed())

		u, err := account.CreateUser(&account.UserCreation{Name: "tom", Secret: "123456", Nickname: "Tom", EmployeeID: 30,
			Roles: []string{account.TechnicianRole.ID}}, testinfra.BuildSession(1, authority.PermSystemAdmin))
		Expect(err).To(BeNil())
		Expect(u.ID).ToNot(BeZero())
		Expect(*u).To(Equal(account.UserInfo{ID: u.ID, Name: "tom", Nickname: "Tom", EmployeeID: 30}))

		Expect(account.LoadPerms(u.ID)).To(Equal(authority.Permissions{authority.PermLifecycleDiagnose}))

		users, err := account.QueryUsers(testinfra.BuildSession(1))
		Expect(err).To(BeNil())
		Expect(*users).To(HaveLen(2))
	})

	t.Run("should reject duplicated name and unknown role", func(t *testing.T) {
		testDatabase := setupAccountDatabase(t)
		defer testinfra.StopTestDatabase(testDatabase)
		Expect(account.DefaultSecurityConfiguration()).To(Succeed())
		admin := testinfra.BuildSession(1, authority.PermSystemAdmin)

		_, err := account.CreateUser(&account.UserCreation{Name: "admin", Secret: "123456"}, admin)
		var badParam *bizerror.ErrBadParam
		Expect(errors.As(err, &badParam)).To(BeTrue())
		Expect(err.Error()).To(Equal("user name 'admin' is already taken"))

		_, err = account.CreateUser(&account.UserCreation{Name: "ann", Secret: "123456", Roles: []string{"pilot"}}, admin)
		Expect(errors.As(err, &badParam)).To(BeTrue())
		Expect(err.Error()).To(Equal("role 'pilot' is not exist"))

		var count int
		Expect(testDatabase.DS.GormDB(nil).Model(&account.User{}).Where(&account.User{Name: "ann"}).Count(&count).Error).To(BeNil())
		Expect(count).To(BeZero())
	})
}

func TestUpdateUserAndSecret(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should update nickname by self or admin only", func(t *testing.T) {
		testDatabase := setupAccountDatabase(t)
		defer testinfra.StopTestDatabase(testDatabase)
		Expect(testDatabase.DS.GormDB(nil).Save(&account.User{ID: 5, Name: "ann", Secret: account.HashSha256("abc123")}).Error).To(BeNil())

		Expect(account.UpdateUser(5, &account.UserUpdation{Nickname: "x"}, testinfra.BuildSession(6))).To(Equal(bizerror.ErrForbidden))
		Expect(account.UpdateUser(5, &account.UserUpdation{Nickname: "Ann"}, testinfra.BuildSession(5))).To(Succeed())
		Expect(errors.Is(account.UpdateUser(7, &account.UserUpdation{Nickname: "Ann"}, testinfra.BuildSession(1, authority.PermSystemAdmin)),
			gorm.ErrRecordNotFound)).To(BeTrue())
	})

	t.Run("should update secret when original secret matches", func(t *testing.T) {
		testDatabase := setupAccountDatabase(t)
		defer testinfra.StopTestDatabase(testDatabase)
		Expect(testDatabase.DS.GormDB(nil).Save(&account.User{ID: 5, Name: "ann", Secret: account.HashSha256("abc123")}).Error).To(BeNil())

		err := account.UpdateBasicAuthSecret(&account.BasicAuthUpdating{OriginalSecret: "bad", NewSecret: "654321"}, testinfra.BuildSession(5))
		Expect(err).To(Equal(bizerror.ErrInvalidPassword))

		err = account.UpdateBasicAuthSecret(&account.BasicAuthUpdating{OriginalSecret: "abc123", NewSecret: "654321"}, testinfra.BuildSession(5))
		Expect(err).To(BeNil())

		user := account.User{}
		Expect(testDatabase.DS.GormDB(nil).Where(&account.User{ID: 5}).First(&user).Error).To(BeNil())
		Expect(user.Secret).To(Equal(account.HashSha256("654321")))
	})
}
