package lifecycle

import (
	"fleetcare/bizerror"
	"fleetcare/session"
	"net/http"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var (
	PathReports     = "/v1/reports"
	PathDiagnostics = "/v1/diagnostics"
	PathWorkOrders  = "/v1/work-orders"
)

func RegisterLifecycleRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	reports := r.Group(PathReports, middleWares...)
	reports.POST(":id/assign", handleAssignReport)
	reports.POST("clear", handleClearReports)

	diagnostics := r.Group(PathDiagnostics, middleWares...)
	diagnostics.POST("", handleCreateDiagnostic)
	diagnostics.GET("", handleQueryDiagnostics)
	diagnostics.GET(":id", handleDetailDiagnostic)
	diagnostics.POST(":id/approve", handleApproveDiagnostic)
	diagnostics.POST(":id/reject", handleRejectDiagnostic)

	workOrders := r.Group(PathWorkOrders, middleWares...)
	workOrders.POST(":id/advance", handleAdvanceWorkOrder)
	workOrders.POST(":id/reopen", handleReopenWorkOrder)
}

func bindPathID(c *gin.Context) types.ID {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	return id
}

func handleAssignReport(c *gin.Context) {
	id := bindPathID(c)
	req := AssignRequest{}
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	r, err := AssignReportFunc(id, &req, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, r)
}

func handleClearReports(c *gin.Context) {
	result, err := ClearReportsFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}

func handleCreateDiagnostic(c *gin.Context) {
	creation := DiagnosticCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	d, err := CreateDiagnosticFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, d)
}

func handleQueryDiagnostics(c *gin.Context) {
	query := DiagnosticQuery{}
	if err := c.ShouldBindQuery(&query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	diagnostics, err := QueryDiagnosticsFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, diagnostics)
}

func handleDetailDiagnostic(c *gin.Context) {
	d, err := DetailDiagnosticFunc(bindPathID(c), session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, d)
}

func handleApproveDiagnostic(c *gin.Context) {
	result, err := ApproveDiagnosticFunc(bindPathID(c), session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}

func handleRejectDiagnostic(c *gin.Context) {
	id := bindPathID(c)
	req := RejectRequest{}
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	d, err := RejectDiagnosticFunc(id, &req, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, d)
}

func handleAdvanceWorkOrder(c *gin.Context) {
	id := bindPathID(c)
	req := AdvanceRequest{}
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	result, err := AdvanceWorkOrderFunc(id, &req, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}

func handleReopenWorkOrder(c *gin.Context) {
	result, err := ReopenWorkOrderFunc(bindPathID(c), session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}
