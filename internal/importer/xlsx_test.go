package importer

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func makeWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := []interface{}{"workOrderNo", "machineNo", "operatorName", "orderQty", "completedQty"}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+2)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestParseWorkOrdersValidRows(t *testing.T) {
	data := makeWorkbook(t, [][]interface{}{
		{"WO-1", "M1", "Alice", 100, 30},
		{"WO-2", "M2", "Bob", 50, 50},
	})

	rows, err := ParseWorkOrders(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 2, rows[0].Number)
	require.NoError(t, rows[0].Err)
	assert.Equal(t, "WO-1", rows[0].Order.WorkOrderNo)
	assert.Equal(t, "M1", rows[0].Order.MachineNo)
	assert.Equal(t, "Alice", rows[0].Order.OperatorName)
	assert.Equal(t, 100, rows[0].Order.OrderQty)
	assert.Equal(t, 30, rows[0].Order.CompletedQty)

	assert.Equal(t, 3, rows[1].Number)
	require.NoError(t, rows[1].Err)
	assert.Equal(t, "WO-2", rows[1].Order.WorkOrderNo)
}

func TestParseWorkOrdersBadRowsDoNotAbort(t *testing.T) {
	data := makeWorkbook(t, [][]interface{}{
		{"WO-1", "M1", "Alice", 100, 30},
		{"WO-2", "M2", "Bob", "lots", 0},   // malformed quantity
		{"", "M3", "Carol", 10, 0},         // missing work order no
		{"WO-4", "M4", "Dave", 10},         // trailing column missing
		{"WO-5", "M5", "Erin", 20, 5},
	})

	rows, err := ParseWorkOrders(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, rows, 5)

	assert.NoError(t, rows[0].Err)
	assert.ErrorContains(t, rows[1].Err, "orderQty")
	assert.ErrorContains(t, rows[2].Err, "required")
	assert.ErrorContains(t, rows[3].Err, "completedQty")
	assert.NoError(t, rows[4].Err)

	// row numbers track the sheet, header is row 1
	assert.Equal(t, 3, rows[1].Number)
	assert.Equal(t, 4, rows[2].Number)
}

func TestParseWorkOrdersHeaderOnly(t *testing.T) {
	data := makeWorkbook(t, nil)

	rows, err := ParseWorkOrders(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestParseWorkOrdersNotASpreadsheet(t *testing.T) {
	_, err := ParseWorkOrders(bytes.NewReader([]byte("this is not xlsx")))
	assert.Error(t, err)
}
