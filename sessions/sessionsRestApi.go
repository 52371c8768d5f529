package sessions

import (
	"errors"
	"fleetcare/account"
	"fleetcare/bizerror"
	"fleetcare/persistence"
	"fleetcare/session"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
	"github.com/patrickmn/go-cache"
)

// SessionDetail is the login response, the access token is usable as a bearer credential.
type SessionDetail struct {
	session.Session
	AccessToken string `json:"accessToken"`
}

func RegisterSessionsHandler(r *gin.Engine) {
	g := r.Group("/v1/sessions")
	g.POST("", SimpleLoginHandler)
	g.DELETE("", SimpleLogoutHandler)
}

func SimpleLogoutHandler(c *gin.Context) {
	token, _ := c.Cookie(session.KeySecToken) // ErrNoCookie
	if token != "" {
		session.TokenCache.Delete(token)
	}
	c.SetCookie(session.KeySecToken, "", -1, "/", "", false, false)
	c.AbortWithStatus(http.StatusNoContent)
}

func SimpleLoginHandler(c *gin.Context) {
	login := session.LoginRequest{}
	if err := c.ShouldBindBodyWith(&login, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	identity := session.Identity{}
	db := persistence.ActiveDataSourceManager.GormDB(c.Request.Context())
	if err := db.Model(&account.User{}).Where(&account.User{Name: login.Name, Secret: account.HashSha256(login.Password)}).Scan(&identity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			panic(bizerror.ErrUnauthenticated)
		}
		panic(err)
	}
	token := uuid.New().String()
	s := session.Session{Token: token, Identity: identity, Perms: account.LoadPermFunc(identity.ID), SigningTime: time.Now()}
	session.TokenCache.Set(token, &s, cache.DefaultExpiration)

	accessToken, err := session.IssueAccessToken(&s)
	if err != nil {
		panic(err)
	}

	c.SetCookie(session.KeySecToken, token, int(session.TokenExpiration/time.Second), "/", "", false, false)
	c.JSON(http.StatusOK, &SessionDetail{Session: s, AccessToken: accessToken})
}
