package apperr

import (
	"errors"
	"fmt"
)

// 错误定义
var (
	// ErrValidation 必填字段缺失或取值非法，调用方可修正后重试
	ErrValidation = errors.New("validation failed")
	// ErrNotFound 按工单号未匹配到记录
	ErrNotFound = errors.New("record not found")
	// ErrConflict 工单号已存在
	ErrConflict = errors.New("work order no already exists")
	// ErrStore 存储连接或查询失败，对外只暴露通用消息
	ErrStore = errors.New("store error")
)

// Validationf 构造带描述的校验错误
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrValidation}, args...)...)
}

// RowError 导入时的单行失败，聚合上报，不中断批次
type RowError struct {
	Row     int
	Message string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("Row %d: %s", e.Row, e.Message)
}
