package handler

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/bitfantasy/workorder/internal/apperr"
	"github.com/bitfantasy/workorder/internal/entity"
	"github.com/bitfantasy/workorder/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type WorkOrderHandler struct {
	svc *service.WorkOrderService
	log *zap.Logger
}

func NewWorkOrderHandler(svc *service.WorkOrderService, log *zap.Logger) *WorkOrderHandler {
	return &WorkOrderHandler{svc: svc, log: log}
}

// List GET /api/workorders
func (h *WorkOrderHandler) List(c *gin.Context) {
	wos, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.log.Error("list work orders failed", zap.Error(err))
		InternalError(c, "Failed to fetch work orders")
		return
	}
	if wos == nil {
		wos = []entity.WorkOrder{}
	}
	c.JSON(http.StatusOK, wos)
}

// Create POST /api/workorders
func (h *WorkOrderHandler) Create(c *gin.Context) {
	var wo entity.WorkOrder
	if err := c.ShouldBindJSON(&wo); err != nil {
		BadRequest(c, "invalid request body")
		return
	}
	if err := h.svc.Create(c.Request.Context(), &wo); err != nil {
		switch {
		case errors.Is(err, apperr.ErrValidation):
			BadRequest(c, validationMessage(err))
		case errors.Is(err, apperr.ErrConflict):
			Conflict(c, fmt.Sprintf("Work order %s already exists", wo.WorkOrderNo))
		default:
			h.log.Error("create work order failed", zap.Error(err))
			InternalError(c, "Failed to create work order")
		}
		return
	}
	c.JSON(http.StatusCreated, wo)
}

// Update PUT /api/workorders/:workOrderNo 路径上的工单号优先于 body
func (h *WorkOrderHandler) Update(c *gin.Context) {
	workOrderNo := c.Param("workOrderNo")

	var wo entity.WorkOrder
	if err := c.ShouldBindJSON(&wo); err != nil {
		BadRequest(c, "invalid request body")
		return
	}

	updated, err := h.svc.Update(c.Request.Context(), workOrderNo, &wo)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrValidation):
			BadRequest(c, validationMessage(err))
		case errors.Is(err, apperr.ErrNotFound):
			NotFound(c, fmt.Sprintf("Work order %s not found", workOrderNo))
		default:
			h.log.Error("update work order failed", zap.Error(err))
			InternalError(c, "Failed to update work order")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Work order updated successfully",
		"data": gin.H{
			"workOrderNo":  updated.WorkOrderNo,
			"machineNo":    updated.MachineNo,
			"operatorName": updated.OperatorName,
			"orderQty":     updated.OrderQty,
			"completedQty": updated.CompletedQty,
			"remaining":    updated.Remaining(),
		},
	})
}

// Delete DELETE /api/workorders/:workOrderNo
func (h *WorkOrderHandler) Delete(c *gin.Context) {
	workOrderNo := c.Param("workOrderNo")

	if err := h.svc.Delete(c.Request.Context(), workOrderNo); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			NotFound(c, "Work order not found")
			return
		}
		h.log.Error("delete work order failed", zap.Error(err))
		InternalError(c, "Failed to delete work order")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":            "Work order deleted successfully",
		"deletedWorkOrderNo": workOrderNo,
	})
}

// Upload POST /api/workorders/upload 逐行尽力导入
func (h *WorkOrderHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		BadRequest(c, "No file uploaded")
		return
	}
	defer file.Close()

	if header.Size == 0 {
		BadRequest(c, "Empty file")
		return
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".xlsx" && ext != ".xls" {
		BadRequest(c, "Only .xlsx and .xls files are supported")
		return
	}

	result, err := h.svc.Import(c.Request.Context(), file)
	if err != nil {
		if errors.Is(err, apperr.ErrStore) {
			h.log.Error("import work orders failed", zap.Error(err))
			InternalError(c, "Failed to import work orders")
			return
		}
		BadRequest(c, "Unable to parse spreadsheet")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Import completed",
		"successCount": result.SuccessCount,
		"errorCount":   result.ErrorCount,
		"errors":       result.Errors,
	})
}

// validationMessage 剥掉哨兵前缀，只留给用户看的部分
func validationMessage(err error) string {
	msg := err.Error()
	if cut, ok := strings.CutPrefix(msg, apperr.ErrValidation.Error()+": "); ok {
		return cut
	}
	return msg
}
