package account_test

import (
	"bytes"
	"errors"
	"fleetcare/account"
	"fleetcare/bizerror"
	"fleetcare/session"
	"fleetcare/testinfra"
	"net/http"
	"net/http/httptest"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/patrickmn/go-cache"
)

var _ = Describe("UserRestApi", func() {
	var (
		router *gin.Engine
		token  string
	)
	BeforeEach(func() {
		router = gin.Default()
		router.Use(bizerror.ErrorHandling())
		account.RegisterUsersHandler(router, session.SimpleAuthFilter())

		token = uuid.New().String()
		session.TokenCache.Set(token, &session.Session{Token: token, Identity: session.Identity{Name: "ann", ID: 1, EmployeeID: 9},
			Perms: []string{"system:admin"}}, cache.DefaultExpiration)
	})
	AfterEach(func() {
		session.TokenCache.Delete(token)
		account.UpdateBasicAuthSecretFunc = account.UpdateBasicAuthSecret
		account.QueryUsersFunc = account.QueryUsers
		account.CreateUserFunc = account.CreateUser
		account.UpdateUserFunc = account.UpdateUser
	})

	Describe("UserInfoQueryHandler", func() {
		It("should success when token is valid", func() {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			req.AddCookie(&http.Cookie{Name: session.KeySecToken, Value: token})
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			Expect(body).To(MatchJSON(`{"identity":{"id":"1","name":"ann","nickname":"","employeeId":"9"},"token":"` + token +
				`","perms":["system:admin"]}`))
		})

		It("should failed when token is missing", func() {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusUnauthorized))
			Expect(body).To(MatchJSON(`{"code":"common.unauthenticated","message":"unauthenticated","data":null}`))
		})
	})

	Describe("HandleUpdateBaseAuth", func() {
		It("should return 200 when update successful", func() {
			var payload *account.BasicAuthUpdating
			account.UpdateBasicAuthSecretFunc = func(u *account.BasicAuthUpdating, s *session.Session) error {
				payload = u
				return nil
			}
			req := httptest.NewRequest(http.MethodPut, "/v1/session-users/basic-auths",
				bytes.NewReader([]byte(`{"originalSecret":"123456","newSecret":"654321"}`)))
			req.AddCookie(&http.Cookie{Name: session.KeySecToken, Value: token})
			status, _, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			Expect(*payload).To(Equal(account.BasicAuthUpdating{OriginalSecret: "123456", NewSecret: "654321"}))
		})

		It("should return 400 when new secret is too short", func() {
			req := httptest.NewRequest(http.MethodPut, "/v1/session-users/basic-auths",
				bytes.NewReader([]byte(`{"originalSecret":"123456","newSecret":"65"}`)))
			req.AddCookie(&http.Cookie{Name: session.KeySecToken, Value: token})
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusBadRequest))
			Expect(body).To(ContainSubstring(`"code":"common.bad_param"`))
		})

		It("should return 401 when original password is wrong", func() {
			account.UpdateBasicAuthSecretFunc = func(u *account.BasicAuthUpdating, s *session.Session) error {
				return bizerror.ErrInvalidPassword
			}
			req := httptest.NewRequest(http.MethodPut, "/v1/session-users/basic-auths",
				bytes.NewReader([]byte(`{"originalSecret":"bad","newSecret":"654321"}`)))
			req.AddCookie(&http.Cookie{Name: session.KeySecToken, Value: token})
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusUnauthorized))
			Expect(body).To(MatchJSON(`{"code":"security.invalid_password","message":"invalid password","data":null}`))
		})
	})

	Describe("HandleQueryUsers", func() {
		It("should return users", func() {
			account.QueryUsersFunc = func(s *session.Session) (*[]account.UserInfo, error) {
				return &[]account.UserInfo{{ID: 1, Name: "admin"}, {ID: 2, Name: "tom", Nickname: "Tom", EmployeeID: 3}}, nil
			}
			req := httptest.NewRequest(http.MethodGet, "/v1/users", nil)
			req.AddCookie(&http.Cookie{Name: session.KeySecToken, Value: token})
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			Expect(body).To(MatchJSON(`[{"id":"1","name":"admin","nickname":"","employeeId":"0"},
				{"id":"2","name":"tom","nickname":"Tom","employeeId":"3"}]`))
		})

		It("should return 500 when query failed", func() {
			account.QueryUsersFunc = func(s *session.Session) (*[]account.UserInfo, error) {
				return nil, errors.New("some error")
			}
			req := httptest.NewRequest(http.MethodGet, "/v1/users", nil)
			req.AddCookie(&http.Cookie{Name: session.KeySecToken, Value: token})
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusInternalServerError))
			Expect(body).To(MatchJSON(`{"code":"common.internal_server_error","message":"some error","data":null}`))
		})
	})

	Describe("HandleCreateUser and HandleUpdateUser", func() {
		It("should create user", func() {
			var payload *account.UserCreation
			account.CreateUserFunc = func(c *account.UserCreation, s *session.Session) (*account.UserInfo, error) {
				payload = c
				return &account.UserInfo{ID: 100, Name: c.Name, EmployeeID: c.EmployeeID}, nil
			}
			req := httptest.NewRequest(http.MethodPost, "/v1/users",
				bytes.NewReader([]byte(`{"name":"tom","secret":"123456","employeeId":"3","roles":["technician"]}`)))
			req.AddCookie(&http.Cookie{Name: session.KeySecToken, Value: token})
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusCreated))
			Expect(body).To(MatchJSON(`{"id":"100","name":"tom","nickname":"","employeeId":"3"}`))
			Expect(*payload).To(Equal(account.UserCreation{Name: "tom", Secret: "123456", EmployeeID: 3, Roles: []string{"technician"}}))
		})

		It("should update user", func() {
			var updatedId types.ID
			account.UpdateUserFunc = func(id types.ID, c *account.UserUpdation, s *session.Session) error {
				updatedId = id
				return nil
			}
			req := httptest.NewRequest(http.MethodPut, "/v1/users/2", bytes.NewReader([]byte(`{"nickname":"Tom"}`)))
			req.AddCookie(&http.Cookie{Name: session.KeySecToken, Value: token})
			status, _, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			Expect(updatedId).To(Equal(types.ID(2)))
		})

		It("should return 400 when id is invalid", func() {
			req := httptest.NewRequest(http.MethodPut, "/v1/users/abc", bytes.NewReader([]byte(`{"nickname":"Tom"}`)))
			req.AddCookie(&http.Cookie{Name: session.KeySecToken, Value: token})
			status, _, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusBadRequest))
		})
	})
})
