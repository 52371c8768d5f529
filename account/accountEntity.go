package account

import "github.com/fundwit/go-commons/types"

type User struct {
	ID     types.ID `json:"id"`
	Name   string   `json:"name" gorm:"unique_index:uni_user_name"`
	Secret string   `json:"secret"`

	Nickname   string   `json:"nickname"`
	EmployeeID types.ID `json:"employeeId"`
}

type UserInfo struct {
	ID         types.ID `json:"id"`
	Name       string   `json:"name"`
	Nickname   string   `json:"nickname"`
	EmployeeID types.ID `json:"employeeId"`
}

type BasicAuthUpdating struct {
	OriginalSecret string `json:"originalSecret"`
	NewSecret      string `json:"newSecret" binding:"required,gte=6,lte=32"`
}

type UserCreation struct {
	Name       string   `json:"name" binding:"required,lte=32"`
	Secret     string   `json:"secret" binding:"required,gte=6,lte=32"`
	Nickname   string   `json:"nickname" binding:"omitempty,gte=1,lte=32"`
	EmployeeID types.ID `json:"employeeId"`
	Roles      []string `json:"roles"`
}

type UserUpdation struct {
	Nickname string `json:"nickname" binding:"required,lte=32"`
}

type Role struct {
	ID    string `json:"id" gorm:"primary_key"`
	Title string `json:"title"`
}

type UserRoleBinding struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	UserID types.ID `json:"userId" gorm:"unique_index:uni_user_role"`
	RoleID string   `json:"roleId" gorm:"unique_index:uni_user_role"`
}

type Permission struct {
	ID    string `json:"id" gorm:"primary_key"`
	Title string `json:"title"`
}

type RolePermissionBinding struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	RoleID       string `json:"roleId" gorm:"unique_index:uni_role_perm"`
	PermissionID string `json:"permissionId" gorm:"unique_index:uni_role_perm"`
}

func (u User) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Name
}

func (u UserInfo) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Name
}
