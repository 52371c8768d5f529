package event

import (
	"fleetcare/bizerror"
	"fleetcare/session"
	"net/http"

	"github.com/gin-gonic/gin"
)

func RegisterEventsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/events", middleWares...)
	g.GET("", handleQueryEvents)
}

func handleQueryEvents(c *gin.Context) {
	q := EventQuery{}
	if err := c.ShouldBindQuery(&q); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	records, err := QueryEventsFunc(&q, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}
