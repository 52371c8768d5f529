package sessions

import (
	"fleetcare/account"
	"fleetcare/bizerror"
	"fleetcare/session"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func RegisterSessionHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/session", middleWares...)
	g.GET("", DetailSessionSecurityContext)
}

// DetailSessionSecurityContext reloads the permissions of the current session and keeps its remaining ttl.
func DetailSessionSecurityContext(c *gin.Context) {
	sec := session.ExtractSessionFromGinContext(c)

	now := time.Now()
	ttl := session.TokenExpiration - now.Sub(sec.SigningTime)
	if ttl <= 0 {
		panic(bizerror.ErrUnauthenticated)
	}
	refreshed := session.Session{Token: sec.Token, Identity: sec.Identity, Perms: account.LoadPermFunc(sec.Identity.ID), SigningTime: sec.SigningTime}
	session.TokenCache.Set(sec.Token, &refreshed, ttl)
	c.JSON(http.StatusOK, &refreshed)
}
