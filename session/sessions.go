package session

import (
	"context"
	"fleetcare/authority"
	"time"

	"github.com/fundwit/go-commons/types"
)

type Session struct {
	Token    string                `json:"token"`
	Identity Identity              `json:"identity"`
	Perms    authority.Permissions `json:"perms"`

	SigningTime time.Time       `json:"-"`
	Context     context.Context `json:"-"`
}

type Identity struct {
	ID       types.ID `json:"id"`
	Name     string   `json:"name"`
	Nickname string   `json:"nickname"`

	// EmployeeID binds the account to an employee record, zero when the user is not an employee.
	EmployeeID types.ID `json:"employeeId"`
}

func (s *Session) Clone() Session {
	perms := make(authority.Permissions, len(s.Perms))
	copy(perms, s.Perms)
	return Session{Token: s.Token, Identity: s.Identity, Perms: perms, SigningTime: s.SigningTime, Context: s.Context}
}

func (i Identity) DisplayName() string {
	if i.Nickname != "" {
		return i.Nickname
	}
	return i.Name
}
