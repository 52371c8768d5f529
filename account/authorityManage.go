package account

import (
	"errors"
	"fleetcare/authority"
	"fleetcare/bizerror"
	"fleetcare/idgen"
	"fleetcare/persistence"
	"os"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	SystemAdminRole = Role{ID: "system-admin", Title: "System Administrator"}
	SupervisorRole  = Role{ID: "supervisor", Title: "Maintenance Supervisor"}
	TechnicianRole  = Role{ID: "technician", Title: "Technician"}
	DriverRole      = Role{ID: "driver", Title: "Driver"}

	SystemAdminPermission     = Permission{ID: authority.PermSystemAdmin, Title: "System Administration"}
	LifecycleManagePermission = Permission{ID: authority.PermLifecycleManage, Title: "Maintenance Lifecycle Management"}
	DiagnosePermission        = Permission{ID: authority.PermLifecycleDiagnose, Title: "Vehicle Diagnosis"}

	defaultRoles       = []Role{SystemAdminRole, SupervisorRole, TechnicianRole, DriverRole}
	defaultPermissions = []Permission{SystemAdminPermission, LifecycleManagePermission, DiagnosePermission}
	defaultBindings    = []RolePermissionBinding{
		{ID: 1, RoleID: SystemAdminRole.ID, PermissionID: SystemAdminPermission.ID},
		{ID: 2, RoleID: SystemAdminRole.ID, PermissionID: LifecycleManagePermission.ID},
		{ID: 3, RoleID: SystemAdminRole.ID, PermissionID: DiagnosePermission.ID},
		{ID: 4, RoleID: SupervisorRole.ID, PermissionID: LifecycleManagePermission.ID},
		{ID: 5, RoleID: TechnicianRole.ID, PermissionID: DiagnosePermission.ID},
	}
)

var (
	LoadPermFunc = LoadPerms
)

func LoadPermFuncReset() {
	LoadPermFunc = LoadPerms
}

// DefaultSecurityConfiguration seeds the built-in roles and the initial admin account (id 1).
func DefaultSecurityConfiguration() error {
	db := persistence.ActiveDataSourceManager.GormDB(nil)
	for _, r := range defaultRoles {
		r := r
		if err := db.Save(&r).Error; err != nil {
			return err
		}
	}
	for _, p := range defaultPermissions {
		p := p
		if err := db.Save(&p).Error; err != nil {
			return err
		}
	}
	for _, b := range defaultBindings {
		b := b
		if err := db.Save(&b).Error; err != nil {
			return err
		}
	}

	return db.Transaction(func(tx *gorm.DB) error {
		admin := User{}
		err := tx.Model(&User{}).Where(&User{ID: 1}).First(&admin).Error
		if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
			initialAdminPassword := os.Getenv("INITIAL_ADMIN_PASSWORD")
			if initialAdminPassword == "" {
				initialAdminPassword = "admin123"
			}
			if err := tx.Save(&User{ID: 1, Name: "admin", Secret: HashSha256(initialAdminPassword)}).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		return tx.Save(&UserRoleBinding{ID: 1, UserID: 1, RoleID: SystemAdminRole.ID}).Error
	})
}

// LoadPerms resolves the permissions granted to a user through its roles.
func LoadPerms(uid types.ID) authority.Permissions {
	db := persistence.ActiveDataSourceManager.GormDB(nil)

	var roles []string
	if err := db.Model(&UserRoleBinding{}).Where(&UserRoleBinding{UserID: uid}).Pluck("role_id", &roles).Error; err != nil {
		panic(err)
	}

	perms := authority.Permissions{}
	if len(roles) == 0 {
		return perms
	}
	var rolePerms []string
	if err := db.Model(&RolePermissionBinding{}).Where("role_id IN (?)", roles).Pluck("permission_id", &rolePerms).Error; err != nil {
		panic(err)
	}
	seen := map[string]bool{}
	for _, p := range rolePerms {
		if !seen[p] {
			seen[p] = true
			perms = append(perms, p)
		}
	}
	return perms
}

func bindRoles(tx *gorm.DB, uid types.ID, roles []string) error {
	for _, roleId := range roles {
		role := Role{}
		if err := tx.Where(&Role{ID: roleId}).First(&role).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return bizerror.BadParam("role '" + roleId + "' is not exist")
			}
			return err
		}
		if err := tx.Save(&UserRoleBinding{ID: idgen.NextID(idWorker), UserID: uid, RoleID: roleId}).Error; err != nil {
			return err
		}
	}
	return nil
}
