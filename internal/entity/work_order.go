package entity

import (
	"time"
)

// WorkOrder 生产工单
type WorkOrder struct {
	ID           uint      `json:"-" gorm:"primaryKey;autoIncrement"`
	WorkOrderNo  string    `json:"workOrderNo" gorm:"size:50;not null;uniqueIndex"`
	MachineNo    string    `json:"machineNo" gorm:"size:50;not null"`
	OperatorName string    `json:"operatorName" gorm:"column:operator;size:50;not null"`
	OrderQty     int       `json:"orderQty" gorm:"not null"`
	CompletedQty int       `json:"completedQty" gorm:"not null;default:0"`
	CreatedAt    time.Time `json:"-"`
}

func (WorkOrder) TableName() string {
	return "work_orders"
}

// Remaining 剩余数量，展示时计算，不落库。可以为负（超产）。
func (w WorkOrder) Remaining() int {
	return w.OrderQty - w.CompletedQty
}
