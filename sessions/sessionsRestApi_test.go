package sessions_test

import (
	"bytes"
	"encoding/json"
	"fleetcare/account"
	"fleetcare/authority"
	"fleetcare/bizerror"
	"fleetcare/persistence"
	"fleetcare/session"
	"fleetcare/sessions"
	"fleetcare/testinfra"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
	"github.com/patrickmn/go-cache"
)

func TestSimpleLoginHandler(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should be able to login successfully", func(t *testing.T) {
		router, testDatabase := beforeEachSessionsRestApiCase(t)
		defer afterEachSessionsRestApiCase(t, testDatabase)

		Expect(testDatabase.DS.GormDB(nil).Save(&account.User{ID: 2, Name: "ann", Nickname: "Ann", EmployeeID: 8,
			Secret: account.HashSha256("abc123")}).Error).To(BeNil())
		Expect(testDatabase.DS.GormDB(nil).Save(&account.UserRoleBinding{ID: 10, UserID: 2, RoleID: account.TechnicianRole.ID}).Error).To(BeNil())

		begin := time.Now()
		req := httptest.NewRequest(http.MethodPost, "/v1/sessions", bytes.NewReader([]byte(`{"name": "ann", "password":"abc123"}`)))
		status, body, resp := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))

		detail := map[string]interface{}{}
		Expect(json.Unmarshal([]byte(body), &detail)).To(Succeed())
		Expect(detail["identity"]).To(Equal(map[string]interface{}{"id": "2", "name": "ann", "nickname": "Ann", "employeeId": "8"}))
		Expect(detail["perms"]).To(Equal([]interface{}{authority.PermLifecycleDiagnose}))
		Expect(detail["accessToken"]).ToNot(BeEmpty())

		Expect(resp.Cookies()[0].Name).To(Equal(session.KeySecToken))
		token := resp.Cookies()[0].Value
		Expect(detail["token"]).To(Equal(token))

		value, found := session.TokenCache.Get(token)
		Expect(found).To(BeTrue())
		s := value.(*session.Session)
		Expect(s.SigningTime.Before(begin)).To(BeFalse())
		Expect(*s).To(Equal(session.Session{Token: token, Identity: session.Identity{ID: 2, Name: "ann", Nickname: "Ann", EmployeeID: 8},
			Perms: authority.Permissions{authority.PermLifecycleDiagnose}, SigningTime: s.SigningTime}))

		jti, err := session.ParseAccessToken(detail["accessToken"].(string))
		Expect(err).To(BeNil())
		Expect(jti).To(Equal(token))
	})

	t.Run("should return 401 when user not exist", func(t *testing.T) {
		router, testDatabase := beforeEachSessionsRestApiCase(t)
		defer afterEachSessionsRestApiCase(t, testDatabase)

		req := httptest.NewRequest(http.MethodPost, "/v1/sessions", bytes.NewReader([]byte(`{"name": "ann", "password":"abc123"}`)))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusUnauthorized))
		Expect(body).To(MatchJSON(`{"code":"common.unauthenticated","message":"unauthenticated","data":null}`))
	})

	t.Run("should return 401 when user password is not correct", func(t *testing.T) {
		router, testDatabase := beforeEachSessionsRestApiCase(t)
		defer afterEachSessionsRestApiCase(t, testDatabase)

		Expect(testDatabase.DS.GormDB(nil).Save(&account.User{ID: 1, Name: "ann", Secret: account.HashSha256("abc123")}).Error).To(BeNil())

		req := httptest.NewRequest(http.MethodPost, "/v1/sessions", bytes.NewReader([]byte(`{"name": "ann", "password":"bad pass"}`)))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusUnauthorized))
		Expect(body).To(MatchJSON(`{"code":"common.unauthenticated","message":"unauthenticated","data":null}`))
	})

	t.Run("should return 400 when bind failed", func(t *testing.T) {
		router, testDatabase := beforeEachSessionsRestApiCase(t)
		defer afterEachSessionsRestApiCase(t, testDatabase)

		req := httptest.NewRequest(http.MethodPost, "/v1/sessions", bytes.NewReader([]byte(`bad json`)))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(MatchJSON(`{"code":"common.bad_param","message":"invalid character 'b' looking for beginning of value","data":null}`))
	})

	t.Run("should return 500 when query failed", func(t *testing.T) {
		router, testDatabase := beforeEachSessionsRestApiCase(t)
		defer afterEachSessionsRestApiCase(t, testDatabase)

		Expect(testDatabase.DS.GormDB(nil).DropTable(&account.User{}).Error).To(BeNil())

		req := httptest.NewRequest(http.MethodPost, "/v1/sessions", bytes.NewReader([]byte(`{"name": "ann", "password":"bad pass"}`)))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusInternalServerError))
		Expect(body).To(ContainSubstring(`"code":"common.internal_server_error"`))
	})
}

func TestSimpleLogoutHandler(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should return 204 when token is cleared", func(t *testing.T) {
		router, testDatabase := beforeEachSessionsRestApiCase(t)
		defer afterEachSessionsRestApiCase(t, testDatabase)

		Expect(session.TokenCache.Add("test_token", &session.Session{}, cache.DefaultExpiration)).To(BeNil())

		req := httptest.NewRequest(http.MethodDelete, "/v1/sessions", nil)
		req.AddCookie(&http.Cookie{Name: session.KeySecToken, Value: "test_token"})
		status, body, resp := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusNoContent))
		Expect(body).To(BeEmpty())
		Expect(len(resp.Cookies())).To(Equal(1))
		cookie := resp.Cookies()[0]
		Expect(cookie.Name).To(Equal(session.KeySecToken))
		Expect(cookie.Value).To(BeEmpty())
		Expect(cookie.MaxAge).To(Equal(-1))

		_, found := session.TokenCache.Get("test_token")
		Expect(found).To(BeFalse())
	})

	t.Run("should return 204 when request without token", func(t *testing.T) {
		router, testDatabase := beforeEachSessionsRestApiCase(t)
		defer afterEachSessionsRestApiCase(t, testDatabase)

		Expect(session.TokenCache.Add("test_token", &session.Session{}, cache.DefaultExpiration)).To(BeNil())

		req := httptest.NewRequest(http.MethodDelete, "/v1/sessions", nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusNoContent))
		Expect(body).To(BeEmpty())

		_, found := session.TokenCache.Get("test_token")
		Expect(found).To(BeTrue())
	})
}

func TestDetailSessionSecurityContext(t *testing.T) {
	RegisterTestingT(t)

	router := gin.Default()
	router.Use(bizerror.ErrorHandling())
	sessions.RegisterSessionHandler(router, session.SimpleAuthFilter())
	defer account.LoadPermFuncReset()

	t.Run("should reload permissions", func(t *testing.T) {
		account.LoadPermFunc = func(uid types.ID) authority.Permissions {
			return authority.Permissions{authority.PermLifecycleManage}
		}
		signing := time.Now().Add(-time.Hour)
		session.TokenCache.Set("t1", &session.Session{Token: "t1", Identity: session.Identity{ID: 3, Name: "sup"}, SigningTime: signing},
			cache.DefaultExpiration)

		req := httptest.NewRequest(http.MethodGet, "/v1/session", nil)
		req.AddCookie(&http.Cookie{Name: session.KeySecToken, Value: "t1"})
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`{"token":"t1","identity":{"id":"3","name":"sup","nickname":"","employeeId":"0"},"perms":["lifecycle:manage"]}`))

		value, _ := session.TokenCache.Get("t1")
		Expect(value.(*session.Session).Perms).To(Equal(authority.Permissions{authority.PermLifecycleManage}))
	})

	t.Run("should reject expired session", func(t *testing.T) {
		session.TokenCache.Set("t2", &session.Session{Token: "t2", SigningTime: time.Now().Add(-48 * time.Hour)}, cache.DefaultExpiration)

		req := httptest.NewRequest(http.MethodGet, "/v1/session", nil)
		req.AddCookie(&http.Cookie{Name: session.KeySecToken, Value: "t2"})
		status, _, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusUnauthorized))
	})
}

func beforeEachSessionsRestApiCase(t *testing.T) (*gin.Engine, *testinfra.TestDatabase) {
	router := gin.Default()
	router.Use(bizerror.ErrorHandling())
	sessions.RegisterSessionsHandler(router)
	session.TokenCache.Flush()
	testDatabase := testinfra.StartTestDatabase("sessions")
	persistence.ActiveDataSourceManager = testDatabase.DS
	Expect(testDatabase.DS.GormDB(nil).AutoMigrate(&account.User{},
		&account.Role{}, &account.Permission{}, &account.UserRoleBinding{}, &account.RolePermissionBinding{}).Error).To(BeNil())
	Expect(account.DefaultSecurityConfiguration()).To(Succeed())
	account.LoadPermFuncReset()

	return router, testDatabase
}

func afterEachSessionsRestApiCase(t *testing.T, testDatabase *testinfra.TestDatabase) {
	testinfra.StopTestDatabase(testDatabase)
}
