package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/bitfantasy/workorder/internal/repository"
	"github.com/bitfantasy/workorder/internal/service"
	"github.com/bitfantasy/workorder/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func setupWorkOrderTest(t *testing.T) (*gin.Engine, *repository.WorkOrderRepository) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	repo := repository.NewWorkOrderRepository(db)
	svc := service.NewWorkOrderService(repo, zap.NewNop())

	router := testutil.SetupRouter()
	RegisterRoutes(router, NewHandlers(NewWorkOrderHandler(svc, zap.NewNop())))
	return router, repo
}

func workOrderBody(no, machine, operator string, orderQty, completedQty int) map[string]interface{} {
	return map[string]interface{}{
		"workOrderNo":  no,
		"machineNo":    machine,
		"operatorName": operator,
		"orderQty":     orderQty,
		"completedQty": completedQty,
	}
}

func makeWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := []interface{}{"workOrderNo", "machineNo", "operatorName", "orderQty", "completedQty"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		t.Fatalf("write header: %v", err)
	}
	for i, row := range rows {
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			t.Fatalf("write row %d: %v", i, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("serialize workbook: %v", err)
	}
	return buf.Bytes()
}

func TestHealth(t *testing.T) {
	router, _ := setupWorkOrderTest(t)

	w := testutil.DoRequest(router, http.MethodGet, "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if testutil.ParseResponse(w)["status"] != "ok" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestCreateThenListContainsRecordOnce(t *testing.T) {
	router, _ := setupWorkOrderTest(t)

	w := testutil.DoRequest(router, http.MethodPost, "/api/workorders",
		workOrderBody("WO-1", "M1", "Alice", 100, 30))
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	created := testutil.ParseResponse(w)
	if created["workOrderNo"] != "WO-1" || created["orderQty"] != float64(100) {
		t.Fatalf("unexpected created record: %v", created)
	}

	w = testutil.DoRequest(router, http.MethodGet, "/api/workorders", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	var list []map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	matches := 0
	for _, item := range list {
		if item["workOrderNo"] == "WO-1" {
			matches++
			if item["machineNo"] != "M1" || item["operatorName"] != "Alice" ||
				item["orderQty"] != float64(100) || item["completedQty"] != float64(30) {
				t.Errorf("record fields do not round-trip: %v", item)
			}
		}
	}
	if matches != 1 {
		t.Fatalf("expected record exactly once, found %d", matches)
	}
}

func TestListEmptyReturnsArray(t *testing.T) {
	router, _ := setupWorkOrderTest(t)

	w := testutil.DoRequest(router, http.MethodGet, "/api/workorders", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := w.Body.String(); body != "[]" {
		t.Fatalf("expected empty JSON array, got %q", body)
	}
}

func TestCreateMissingRequiredFieldIs400AndNoMutation(t *testing.T) {
	router, repo := setupWorkOrderTest(t)

	cases := []map[string]interface{}{
		workOrderBody("", "M1", "Alice", 10, 0),
		workOrderBody("WO-1", "", "Alice", 10, 0),
		workOrderBody("WO-1", "M1", "", 10, 0),
	}
	for i, body := range cases {
		w := testutil.DoRequest(router, http.MethodPost, "/api/workorders", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("case %d: expected 400, got %d", i, w.Code)
		}
	}

	total, err := repo.Count(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 0 {
		t.Fatalf("store mutated on validation failure: %d rows", total)
	}
}

func TestCreateNegativeQuantityIs400(t *testing.T) {
	router, _ := setupWorkOrderTest(t)

	w := testutil.DoRequest(router, http.MethodPost, "/api/workorders",
		workOrderBody("WO-1", "M1", "Alice", -5, 0))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestCreateDuplicateIs409(t *testing.T) {
	router, _ := setupWorkOrderTest(t)

	body := workOrderBody("WO-1", "M1", "Alice", 100, 30)
	if w := testutil.DoRequest(router, http.MethodPost, "/api/workorders", body); w.Code != http.StatusCreated {
		t.Fatalf("first create: expected 201, got %d", w.Code)
	}
	w := testutil.DoRequest(router, http.MethodPost, "/api/workorders", body)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate create: expected 409, got %d", w.Code)
	}
}

func TestUpdateReturnsRemaining(t *testing.T) {
	router, _ := setupWorkOrderTest(t)

	testutil.DoRequest(router, http.MethodPost, "/api/workorders",
		workOrderBody("WO-1", "M1", "Alice", 100, 30))

	w := testutil.DoRequest(router, http.MethodPut, "/api/workorders/WO-1",
		workOrderBody("WO-1", "M1", "Alice", 100, 120))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if resp["status"] != "success" {
		t.Fatalf("unexpected status: %v", resp)
	}
	data, ok := resp["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing data payload: %v", resp)
	}
	// over-completion is a valid displayed state
	if data["remaining"] != float64(-20) {
		t.Errorf("expected remaining -20, got %v", data["remaining"])
	}
	if data["completedQty"] != float64(120) {
		t.Errorf("expected completedQty 120, got %v", data["completedQty"])
	}
}

func TestUpdatePathKeyWinsOverBody(t *testing.T) {
	router, _ := setupWorkOrderTest(t)

	testutil.DoRequest(router, http.MethodPost, "/api/workorders",
		workOrderBody("WO-1", "M1", "Alice", 100, 30))

	// body claims a different work order no; the path key is authoritative
	w := testutil.DoRequest(router, http.MethodPut, "/api/workorders/WO-1",
		workOrderBody("WO-OTHER", "M2", "Bob", 100, 40))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["workOrderNo"] != "WO-1" {
		t.Errorf("expected key WO-1, got %v", data["workOrderNo"])
	}
	if data["machineNo"] != "M2" {
		t.Errorf("expected machineNo M2, got %v", data["machineNo"])
	}
}

func TestUpdateMissingIs404AndStoreUnchanged(t *testing.T) {
	router, repo := setupWorkOrderTest(t)

	w := testutil.DoRequest(router, http.MethodPut, "/api/workorders/WO-MISSING",
		workOrderBody("WO-MISSING", "M1", "Alice", 10, 0))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	total, _ := repo.Count(context.Background())
	if total != 0 {
		t.Fatalf("store mutated: %d rows", total)
	}
}

func TestUpdateMissingRequiredFieldIs400(t *testing.T) {
	router, _ := setupWorkOrderTest(t)

	testutil.DoRequest(router, http.MethodPost, "/api/workorders",
		workOrderBody("WO-1", "M1", "Alice", 100, 30))

	w := testutil.DoRequest(router, http.MethodPut, "/api/workorders/WO-1",
		workOrderBody("WO-1", "", "Alice", 100, 30))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestDeleteThenDeleteAgain(t *testing.T) {
	router, _ := setupWorkOrderTest(t)

	testutil.DoRequest(router, http.MethodPost, "/api/workorders",
		workOrderBody("WO-1", "M1", "Alice", 100, 30))

	w := testutil.DoRequest(router, http.MethodDelete, "/api/workorders/WO-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("first delete: expected 200, got %d", w.Code)
	}
	resp := testutil.ParseResponse(w)
	if resp["deletedWorkOrderNo"] != "WO-1" {
		t.Fatalf("unexpected delete confirmation: %v", resp)
	}

	w = testutil.DoRequest(router, http.MethodDelete, "/api/workorders/WO-1", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", w.Code)
	}
}

func TestUploadMixedRows(t *testing.T) {
	router, repo := setupWorkOrderTest(t)

	data := makeWorkbook(t, [][]interface{}{
		{"WO-1", "M1", "Alice", 100, 30},
		{"WO-2", "M2", "Bob", "many", 0}, // malformed quantity
		{"", "M3", "Carol", 10, 0},       // missing required field
		{"WO-4", "M4", "Dave", 10, 2},
	})

	w := testutil.DoUpload(t, router, "/api/workorders/upload", "orders.xlsx", data)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if resp["successCount"] != float64(2) {
		t.Errorf("expected successCount 2, got %v", resp["successCount"])
	}
	if resp["errorCount"] != float64(2) {
		t.Errorf("expected errorCount 2, got %v", resp["errorCount"])
	}
	errs, _ := resp["errors"].([]interface{})
	if len(errs) != 2 {
		t.Errorf("expected 2 error messages, got %v", errs)
	}

	total, _ := repo.Count(context.Background())
	if total != 2 {
		t.Fatalf("expected 2 persisted rows, got %d", total)
	}
}

func TestUploadErrorListCappedAtTen(t *testing.T) {
	router, _ := setupWorkOrderTest(t)

	var rows [][]interface{}
	for i := 0; i < 12; i++ {
		rows = append(rows, []interface{}{"", "M1", "Alice", 10, 0})
	}
	data := makeWorkbook(t, rows)

	w := testutil.DoUpload(t, router, "/api/workorders/upload", "orders.xlsx", data)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := testutil.ParseResponse(w)
	if resp["errorCount"] != float64(12) {
		t.Errorf("expected errorCount 12, got %v", resp["errorCount"])
	}
	errs, _ := resp["errors"].([]interface{})
	if len(errs) != 10 {
		t.Errorf("expected error list capped at 10, got %d", len(errs))
	}
}

func TestUploadDuplicateRowBecomesRowError(t *testing.T) {
	router, _ := setupWorkOrderTest(t)

	data := makeWorkbook(t, [][]interface{}{
		{"WO-1", "M1", "Alice", 100, 30},
		{"WO-1", "M2", "Bob", 50, 0},
	})

	w := testutil.DoUpload(t, router, "/api/workorders/upload", "orders.xlsx", data)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := testutil.ParseResponse(w)
	if resp["successCount"] != float64(1) || resp["errorCount"] != float64(1) {
		t.Fatalf("expected 1 success and 1 error, got %v", resp)
	}
}

func TestUploadRejectsMissingAndWrongFiles(t *testing.T) {
	router, _ := setupWorkOrderTest(t)

	// no multipart file at all
	w := testutil.DoRequest(router, http.MethodPost, "/api/workorders/upload", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("no file: expected 400, got %d", w.Code)
	}

	// wrong extension
	w = testutil.DoUpload(t, router, "/api/workorders/upload", "orders.csv", []byte("a,b,c"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("wrong extension: expected 400, got %d", w.Code)
	}

	// empty file
	w = testutil.DoUpload(t, router, "/api/workorders/upload", "orders.xlsx", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty file: expected 400, got %d", w.Code)
	}

	// right extension, garbage content
	w = testutil.DoUpload(t, router, "/api/workorders/upload", "orders.xlsx", []byte("not a workbook"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("garbage content: expected 400, got %d", w.Code)
	}
}
