package inventory

import (
	"fleetcare/bizerror"
	"fleetcare/session"
	"net/http"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var (
	PathInventory = "/v1/inventory-items"
)

func RegisterInventoryRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathInventory, middleWares...)
	g.POST("", handleCreateItem)
	g.GET("", handleQueryItems)
	g.GET(":id", handleDetailItem)
	g.PUT(":id", handleUpdateItem)
	g.POST(":id/restock", handleRestockItem)
}

func handleCreateItem(c *gin.Context) {
	creation := ItemCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	item, err := CreateItemFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, item)
}

func handleQueryItems(c *gin.Context) {
	query := ItemQuery{}
	if err := c.ShouldBindQuery(&query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	items, err := QueryItemsFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, items)
}

func handleDetailItem(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	item, err := DetailItemFunc(id, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, item)
}

func handleUpdateItem(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	updating := ItemUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	item, err := UpdateItemFunc(id, &updating, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, item)
}

func handleRestockItem(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	restocking := Restocking{}
	if err := c.ShouldBindBodyWith(&restocking, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	item, err := RestockItemFunc(id, &restocking, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, item)
}
