package testinfra

import (
	"context"
	"fleetcare/authority"
	"fleetcare/session"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/fundwit/go-commons/types"
)

// ExecuteRequest serves the request and returns status, body and the recorded response.
func ExecuteRequest(req *http.Request, handler http.Handler) (int, string, *http.Response) {
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp.StatusCode, string(body), resp
}

// BuildSession builds a session of an account without an employee binding.
func BuildSession(uid types.ID, perms ...string) *session.Session {
	return BuildEmployeeSession(uid, 0, perms...)
}

func BuildEmployeeSession(uid, employeeId types.ID, perms ...string) *session.Session {
	return &session.Session{
		Token:       "token-" + uid.String(),
		Identity:    session.Identity{ID: uid, Name: "user" + uid.String(), EmployeeID: employeeId},
		Perms:       authority.Permissions(perms),
		SigningTime: time.Now(),
		Context:     context.Background(),
	}
}
