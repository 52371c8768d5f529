package workorder

import (
	"fleetcare/bizerror"
	"fleetcare/session"
	"net/http"
	"strconv"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var (
	PathWorkOrders = "/v1/work-orders"

	MaxEvidenceSize int64 = 20 << 20
)

func RegisterWorkOrdersRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathWorkOrders, middleWares...)
	g.GET("", handleQueryWorkOrders)
	g.GET(":id", handleDetailWorkOrder)

	g.POST(":id/tasks", handleCreateTask)
	g.PATCH(":id/tasks/:itemId", handleUpdateTask)
	g.DELETE(":id/tasks/:itemId", handleDeleteTask)

	g.POST(":id/materials", handleAddMaterial)
	g.DELETE(":id/materials/:itemId", handleRemoveMaterial)

	g.POST(":id/evidence", handleUploadEvidence)
	g.GET(":id/evidence/:itemId", handleOpenEvidence)
}

func bindIDs(c *gin.Context, names ...string) []types.ID {
	ids := make([]types.ID, 0, len(names))
	for _, name := range names {
		id, err := types.ParseID(c.Param(name))
		if err != nil {
			panic(&bizerror.ErrBadParam{Cause: err})
		}
		ids = append(ids, id)
	}
	return ids
}

func handleQueryWorkOrders(c *gin.Context) {
	query := WorkOrderQuery{}
	if err := c.ShouldBindQuery(&query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	orders, err := QueryWorkOrdersFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, orders)
}

func handleDetailWorkOrder(c *gin.Context) {
	ids := bindIDs(c, "id")
	detail, err := DetailWorkOrderFunc(ids[0], session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, detail)
}

func handleCreateTask(c *gin.Context) {
	ids := bindIDs(c, "id")
	creation := TaskCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	task, err := CreateTaskFunc(ids[0], &creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, task)
}

func handleUpdateTask(c *gin.Context) {
	ids := bindIDs(c, "id", "itemId")
	updating := TaskUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	task, err := UpdateTaskFunc(ids[0], ids[1], &updating, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, task)
}

func handleDeleteTask(c *gin.Context) {
	ids := bindIDs(c, "id", "itemId")
	if err := DeleteTaskFunc(ids[0], ids[1], session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}

func handleAddMaterial(c *gin.Context) {
	ids := bindIDs(c, "id")
	creation := MaterialCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	m, err := AddMaterialFunc(ids[0], &creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, m)
}

func handleRemoveMaterial(c *gin.Context) {
	ids := bindIDs(c, "id", "itemId")
	if err := RemoveMaterialFunc(ids[0], ids[1], session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}

func handleUploadEvidence(c *gin.Context) {
	ids := bindIDs(c, "id")
	file, err := c.FormFile("file")
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if file.Size > MaxEvidenceSize {
		panic(bizerror.BadParam("evidence file exceeds " + strconv.FormatInt(MaxEvidenceSize, 10) + " bytes"))
	}
	src, err := file.Open()
	if err != nil {
		panic(err)
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	evidence, err := UploadEvidenceFunc(ids[0], &EvidenceUpload{FileName: file.Filename, ContentType: contentType,
		Size: file.Size, Content: src}, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, evidence)
}

func handleOpenEvidence(c *gin.Context) {
	ids := bindIDs(c, "id", "itemId")
	evidence, r, err := OpenEvidenceFunc(ids[0], ids[1], session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	defer r.Close()
	c.DataFromReader(http.StatusOK, evidence.Size, evidence.ContentType, r,
		map[string]string{"Content-Disposition": `inline; filename="` + evidence.FileName + `"`})
}
