package importer

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bitfantasy/workorder/internal/entity"
	"github.com/xuri/excelize/v2"
)

// Row 解析结果，每行独立：Err 非空时该行失败，其余行不受影响
type Row struct {
	Number int // 表格行号，表头为 1
	Order  entity.WorkOrder
	Err    error
}

// ParseWorkOrders 解析第一个 sheet，跳过表头，逐行产出工单或行错误。
// 不落库，持久化由调用方负责。
func ParseWorkOrders(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read spreadsheet: %w", err)
	}

	var out []Row
	if len(rows) < 2 {
		return out, nil
	}

	for i, cells := range rows[1:] { // 跳过表头
		num := i + 2
		wo, err := parseRow(cells)
		if err != nil {
			out = append(out, Row{Number: num, Err: err})
			continue
		}
		out = append(out, Row{Number: num, Order: wo})
	}
	return out, nil
}

// parseRow 模板列顺序: 工单号 机台号 操作员 订单数量 完成数量
func parseRow(cells []string) (entity.WorkOrder, error) {
	var wo entity.WorkOrder

	wo.WorkOrderNo = cell(cells, 0)
	wo.MachineNo = cell(cells, 1)
	wo.OperatorName = cell(cells, 2)

	if wo.WorkOrderNo == "" || wo.MachineNo == "" || wo.OperatorName == "" {
		return wo, fmt.Errorf("missing required fields")
	}

	orderQty, err := strconv.Atoi(cell(cells, 3))
	if err != nil {
		return wo, fmt.Errorf("invalid orderQty %q", cell(cells, 3))
	}
	completedQty, err := strconv.Atoi(cell(cells, 4))
	if err != nil {
		return wo, fmt.Errorf("invalid completedQty %q", cell(cells, 4))
	}
	wo.OrderQty = orderQty
	wo.CompletedQty = completedQty

	return wo, nil
}

// cell 越界按空单元格处理，GetRows 会裁掉行尾空列
func cell(cells []string, idx int) string {
	if idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}
