package dashboard

import (
	"fleetcare/bizerror"
	"fleetcare/domain/workorder"
	"fleetcare/misc"
	"fleetcare/session"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

var (
	PathDashboard = "/v1/dashboard"

	exportLimiter = rate.NewLimiter(rate.Every(10*time.Second), 2)
)

func RegisterDashboardRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathDashboard, middleWares...)
	g.GET("summary", handleSummary)
	g.GET("work-orders.xlsx", handleExportWorkOrders)
}

func handleSummary(c *gin.Context) {
	overview, err := SummaryFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, overview)
}

func handleExportWorkOrders(c *gin.Context) {
	query := workorder.WorkOrderQuery{}
	if err := c.ShouldBindQuery(&query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if !exportLimiter.Allow() {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, &misc.ErrorBody{Code: "common.rate_limited", Message: "request rate limited"})
		return
	}
	f, err := ExportWorkOrdersFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="work-orders-`+time.Now().Format("20060102")+`.xlsx"`)
	if err := f.Write(c.Writer); err != nil {
		_ = c.Error(err)
	}
}
