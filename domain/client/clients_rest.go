package client

import (
	"fleetcare/bizerror"
	"fleetcare/session"
	"net/http"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var (
	PathClients = "/v1/clients"
)

func RegisterClientsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathClients, middleWares...)
	g.POST("", handleCreateClient)
	g.GET("", handleQueryClients)
	g.GET(":id", handleDetailClient)
	g.PUT(":id", handleUpdateClient)
	g.DELETE(":id", handleDeleteClient)
	g.POST(":id/branches", handleCreateBranch)
	g.DELETE(":id/branches/:branchId", handleDeleteBranch)
}

func parseID(c *gin.Context, name string) types.ID {
	id, err := types.ParseID(c.Param(name))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	return id
}

func handleCreateClient(c *gin.Context) {
	creation := ClientCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	client, err := CreateClientFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, client)
}

func handleQueryClients(c *gin.Context) {
	query := ClientQuery{}
	if err := c.ShouldBindQuery(&query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	clients, err := QueryClientsFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, clients)
}

func handleDetailClient(c *gin.Context) {
	detail, err := DetailClientFunc(parseID(c, "id"), session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, detail)
}

func handleUpdateClient(c *gin.Context) {
	id := parseID(c, "id")
	updating := ClientCreation{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	client, err := UpdateClientFunc(id, &updating, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, client)
}

func handleDeleteClient(c *gin.Context) {
	if err := DeleteClientFunc(parseID(c, "id"), session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}

func handleCreateBranch(c *gin.Context) {
	id := parseID(c, "id")
	creation := BranchCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	b, err := CreateBranchFunc(id, &creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, b)
}

func handleDeleteBranch(c *gin.Context) {
	if err := DeleteBranchFunc(parseID(c, "id"), parseID(c, "branchId"), session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}
