package maintenance

import (
	"fleetcare/bizerror"
	"fleetcare/session"
	"net/http"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var (
	PathPlans = "/v1/maintenance-plans"
)

func RegisterPlansRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathPlans, middleWares...)
	g.POST("", handleCreatePlan)
	g.GET("", handleQueryPlans)
	g.POST(":id/completions", handleCompletePlan)
	g.DELETE(":id", handleDeletePlan)
}

func handleCreatePlan(c *gin.Context) {
	creation := PlanCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	plan, err := CreatePlanFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, plan)
}

func handleQueryPlans(c *gin.Context) {
	query := PlanQuery{}
	if err := c.ShouldBindQuery(&query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	plans, err := QueryPlansFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, plans)
}

func handleCompletePlan(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	completion := PlanCompletion{}
	if err := c.ShouldBindBodyWith(&completion, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	plan, err := CompletePlanFunc(id, &completion, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, plan)
}

func handleDeletePlan(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := DeletePlanFunc(id, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}
