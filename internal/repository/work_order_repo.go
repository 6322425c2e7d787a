package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/bitfantasy/workorder/internal/apperr"
	"github.com/bitfantasy/workorder/internal/entity"
	"gorm.io/gorm"
)

type WorkOrderRepository struct {
	db *gorm.DB
}

func NewWorkOrderRepository(db *gorm.DB) *WorkOrderRepository {
	return &WorkOrderRepository{db: db}
}

// List 按创建时间倒序返回全部工单，空结果不是错误
func (r *WorkOrderRepository) List(ctx context.Context) ([]entity.WorkOrder, error) {
	var wos []entity.WorkOrder
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&wos).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStore, err)
	}
	return wos, nil
}

func (r *WorkOrderRepository) GetByNo(ctx context.Context, workOrderNo string) (*entity.WorkOrder, error) {
	var wo entity.WorkOrder
	err := r.db.WithContext(ctx).Where("work_order_no = ?", workOrderNo).First(&wo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStore, err)
	}
	return &wo, nil
}

// Create 插入工单，工单号重复返回 ErrConflict
func (r *WorkOrderRepository) Create(ctx context.Context, wo *entity.WorkOrder) error {
	err := r.db.WithContext(ctx).Create(wo).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrStore, err)
	}
	return nil
}

// Update 按工单号整体替换可变字段，工单号本身不可变。零行命中返回 ErrNotFound。
func (r *WorkOrderRepository) Update(ctx context.Context, workOrderNo string, wo *entity.WorkOrder) (*entity.WorkOrder, error) {
	res := r.db.WithContext(ctx).Model(&entity.WorkOrder{}).
		Where("work_order_no = ?", workOrderNo).
		Updates(map[string]interface{}{
			"machine_no":    wo.MachineNo,
			"operator":      wo.OperatorName,
			"order_qty":     wo.OrderQty,
			"completed_qty": wo.CompletedQty,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStore, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.ErrNotFound
	}
	return r.GetByNo(ctx, workOrderNo)
}

// DeleteByNo 按工单号删除，零行命中返回 ErrNotFound（非致命语义，调用方映射 404）
func (r *WorkOrderRepository) DeleteByNo(ctx context.Context, workOrderNo string) error {
	res := r.db.WithContext(ctx).Where("work_order_no = ?", workOrderNo).Delete(&entity.WorkOrder{})
	if res.Error != nil {
		return fmt.Errorf("%w: %v", apperr.ErrStore, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// Count 记录总数，测试用来验证失败路径不写库
func (r *WorkOrderRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entity.WorkOrder{}).Count(&total).Error
	if err != nil {
		return 0, fmt.Errorf("%w: %v", apperr.ErrStore, err)
	}
	return total, nil
}
