package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	WorkOrder *WorkOrderHandler
}

func NewHandlers(workOrder *WorkOrderHandler) *Handlers {
	return &Handlers{WorkOrder: workOrder}
}

// RegisterRoutes 注册路由
func RegisterRoutes(r *gin.Engine, h *Handlers) {
	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		workorders := api.Group("/workorders")
		{
			workorders.GET("", h.WorkOrder.List)
			workorders.POST("", h.WorkOrder.Create)
			workorders.POST("/upload", h.WorkOrder.Upload)
			workorders.PUT("/:workOrderNo", h.WorkOrder.Update)
			workorders.DELETE("/:workOrderNo", h.WorkOrder.Delete)
		}
	}
}

// errorBody 客户端可见的错误载荷，不携带堆栈和连接串
type errorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, errorBody{Status: "error", Message: message})
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, errorBody{Status: "error", Message: message})
}

// Conflict 工单号冲突响应
func Conflict(c *gin.Context, message string) {
	c.JSON(http.StatusConflict, errorBody{Status: "error", Message: message})
}

// InternalError 服务器错误响应，细节只进日志
func InternalError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, errorBody{Status: "error", Message: message})
}
