package service

import (
	"context"
	"errors"
	"io"

	"github.com/bitfantasy/workorder/internal/apperr"
	"github.com/bitfantasy/workorder/internal/entity"
	"github.com/bitfantasy/workorder/internal/importer"
	"github.com/bitfantasy/workorder/internal/repository"
	"go.uber.org/zap"
)

// maxImportErrors 响应里最多携带的行错误条数，防止病态文件撑爆响应体
const maxImportErrors = 10

type WorkOrderService struct {
	repo *repository.WorkOrderRepository
	log  *zap.Logger
}

func NewWorkOrderService(repo *repository.WorkOrderRepository, log *zap.Logger) *WorkOrderService {
	return &WorkOrderService{repo: repo, log: log}
}

func (s *WorkOrderService) List(ctx context.Context) ([]entity.WorkOrder, error) {
	return s.repo.List(ctx)
}

// Create 校验通过后落库。校验失败不触碰存储。
func (s *WorkOrderService) Create(ctx context.Context, wo *entity.WorkOrder) error {
	if err := validate(wo, true); err != nil {
		return err
	}
	return s.repo.Create(ctx, wo)
}

// Update 按路径上的工单号整体替换可变字段，body 里的工单号忽略
func (s *WorkOrderService) Update(ctx context.Context, workOrderNo string, wo *entity.WorkOrder) (*entity.WorkOrder, error) {
	if err := validate(wo, false); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, workOrderNo, wo)
}

func (s *WorkOrderService) Delete(ctx context.Context, workOrderNo string) error {
	return s.repo.DeleteByNo(ctx, workOrderNo)
}

// ImportResult 批量导入汇总。SuccessCount+ErrorCount 等于数据行数。
type ImportResult struct {
	SuccessCount int      `json:"successCount"`
	ErrorCount   int      `json:"errorCount"`
	Errors       []string `json:"errors"`
}

// Import 逐行尽力导入：单行失败只计数并记录消息，不中断批次
func (s *WorkOrderService) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	rows, err := importer.ParseWorkOrders(r)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: []string{}}
	for _, row := range rows {
		if row.Err != nil {
			s.addRowError(result, row.Number, row.Err.Error())
			continue
		}

		wo := row.Order
		if err := validate(&wo, true); err != nil {
			s.addRowError(result, row.Number, err.Error())
			continue
		}
		if err := s.repo.Create(ctx, &wo); err != nil {
			s.addRowError(result, row.Number, rowMessage(err))
			continue
		}
		result.SuccessCount++
	}

	s.log.Info("import completed",
		zap.Int("success_count", result.SuccessCount),
		zap.Int("error_count", result.ErrorCount),
	)
	return result, nil
}

func (s *WorkOrderService) addRowError(result *ImportResult, row int, msg string) {
	result.ErrorCount++
	if len(result.Errors) < maxImportErrors {
		result.Errors = append(result.Errors, (&apperr.RowError{Row: row, Message: msg}).Error())
	}
}

// rowMessage 行级消息里不透出存储细节
func rowMessage(err error) string {
	switch {
	case errors.Is(err, apperr.ErrConflict):
		return "workOrderNo already exists"
	case errors.Is(err, apperr.ErrStore):
		return "failed to save work order"
	default:
		return err.Error()
	}
}

// validate 必填字段与数量下界。更新时工单号以路径为准，不参与校验。
func validate(wo *entity.WorkOrder, requireNo bool) error {
	if requireNo && wo.WorkOrderNo == "" {
		return apperr.Validationf("Work Order No, Machine No, and Operator are required")
	}
	if wo.MachineNo == "" || wo.OperatorName == "" {
		if requireNo {
			return apperr.Validationf("Work Order No, Machine No, and Operator are required")
		}
		return apperr.Validationf("Machine No and Operator are required")
	}
	if wo.OrderQty < 0 {
		return apperr.Validationf("orderQty must not be negative")
	}
	if wo.CompletedQty < 0 {
		return apperr.Validationf("completedQty must not be negative")
	}
	return nil
}
