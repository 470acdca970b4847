package admin

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/campusdash/internal/constants"
	"github.com/campusdash/internal/models"
	"github.com/campusdash/internal/provider"
	"github.com/campusdash/internal/repository"
	"github.com/campusdash/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type adminPaymentFixture struct {
	User1ID        uint
	User2ID        uint
	PaidPaymentID  uint
	ProofPaymentID uint
	OtherPaymentID uint
	OrderCode      string
}

func setupAdminPaymentHandlerTest(t *testing.T) (*Handler, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:admin_payment_handler_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Payment{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	paymentRepo := repository.NewPaymentRepository(db)
	paymentService := service.NewPaymentService(paymentRepo, nil, nil, nil, nil, nil, nil, nil, nil, nil, service.PaymentOptions{})

	h := &Handler{Container: &provider.Container{
		PaymentRepo:    paymentRepo,
		PaymentService: paymentService,
	}}
	return h, db
}

func seedAdminPaymentData(t *testing.T, db *gorm.DB) adminPaymentFixture {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)

	user1 := models.User{Email: "admin_handler_user1@campus.test", PasswordHash: "hash", Status: constants.UserStatusActive}
	user2 := models.User{Email: "admin_handler_user2@campus.test", PasswordHash: "hash", Status: constants.UserStatusActive}
	if err := db.Create(&user1).Error; err != nil {
		t.Fatalf("create user1 failed: %v", err)
	}
	if err := db.Create(&user2).Error; err != nil {
		t.Fatalf("create user2 failed: %v", err)
	}

	orderCode := "CDORDER001"
	providerRef := "mm_ref_001"
	paidAt := now.Add(time.Minute)
	paid := models.Payment{
		UserID:      user1.ID,
		TxRef:       "CDADMINHANDLER001",
		Provider:    constants.PaymentProviderMobileMoney,
		ProviderRef: &providerRef,
		Network:     "airtel",
		Mobile:      "+265991234567",
		Amount:      models.NewMoneyFromInt(3000),
		Currency:    "MWK",
		Status:      constants.PaymentStatusSuccess,
		PaidAt:      &paidAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	paid.SetMeta(models.PaymentMeta{
		OrderCode: orderCode,
		Notes:     []models.ReconciliationNote{models.NewTextNote("gateway", "late callback", now)},
	})
	if err := db.Create(&paid).Error; err != nil {
		t.Fatalf("create paid payment failed: %v", err)
	}

	proof := models.Payment{
		UserID:    user1.ID,
		TxRef:     "CDADMINHANDLER002",
		Provider:  constants.PaymentProviderManual,
		Amount:    models.NewMoneyFromInt(1500),
		Currency:  "MWK",
		Status:    constants.PaymentStatusPending,
		CreatedAt: now.Add(time.Second),
		UpdatedAt: now.Add(time.Second),
	}
	if err := db.Create(&proof).Error; err != nil {
		t.Fatalf("create proof payment failed: %v", err)
	}

	other := models.Payment{
		UserID:    user2.ID,
		TxRef:     "CDADMINHANDLER003",
		Provider:  constants.PaymentProviderMobileMoney,
		Amount:    models.NewMoneyFromInt(800),
		Currency:  "MWK",
		Status:    constants.PaymentStatusPending,
		CreatedAt: now.Add(2 * time.Second),
		UpdatedAt: now.Add(2 * time.Second),
	}
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("create user2 payment failed: %v", err)
	}

	return adminPaymentFixture{
		User1ID:        user1.ID,
		User2ID:        user2.ID,
		PaidPaymentID:  paid.ID,
		ProofPaymentID: proof.ID,
		OtherPaymentID: other.ID,
		OrderCode:      orderCode,
	}
}

type responsePaginationAssert struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"page_size"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"total_page"`
}

func TestBuildAdminPaymentFilterInvalidUserID(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/payments?user_id=bad", nil)

	if _, err := buildAdminPaymentFilter(c, 1, 20); err == nil {
		t.Fatalf("expected invalid user_id error")
	}

	c.Request = httptest.NewRequest(http.MethodGet, "/admin/payments?created_from=yesterday", nil)
	if _, err := buildAdminPaymentFilter(c, 1, 20); err == nil {
		t.Fatalf("expected invalid created_from error")
	}
}

func TestBuildAdminPaymentFilterTrimsQuery(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/payments?status=+pending+&provider=manual&flagged=true&created_from=2026-01-02", nil)

	filter, err := buildAdminPaymentFilter(c, 2, 50)
	if err != nil {
		t.Fatalf("build filter failed: %v", err)
	}
	if filter.Status != "pending" || filter.Provider != "manual" || !filter.Flagged {
		t.Fatalf("unexpected filter: %+v", filter)
	}
	if filter.Page != 2 || filter.PageSize != 50 {
		t.Fatalf("pagination not carried: %+v", filter)
	}
	if filter.CreatedFrom == nil || filter.CreatedFrom.Day() != 2 {
		t.Fatalf("created_from not parsed: %+v", filter.CreatedFrom)
	}
}

func TestGetAdminPaymentsFiltersByUserID(t *testing.T) {
	h, db := setupAdminPaymentHandlerTest(t)
	fixture := seedAdminPaymentData(t, db)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	url := fmt.Sprintf("/admin/payments?user_id=%d&page=1&page_size=20", fixture.User1ID)
	c.Request = httptest.NewRequest(http.MethodGet, url, nil)

	h.GetAdminPayments(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}

	var resp struct {
		StatusCode int                      `json:"status_code"`
		Pagination responsePaginationAssert `json:"pagination"`
		Data       []map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != 0 {
		t.Fatalf("status_code want 0 got %d", resp.StatusCode)
	}
	if resp.Pagination.Total != 2 {
		t.Fatalf("pagination total want 2 got %d", resp.Pagination.Total)
	}

	gotIDs := map[uint]struct{}{}
	for _, row := range resp.Data {
		idRaw, ok := row["id"].(float64)
		if !ok {
			t.Fatalf("row id missing or invalid: %+v", row)
		}
		gotIDs[uint(idRaw)] = struct{}{}
	}
	if _, ok := gotIDs[fixture.PaidPaymentID]; !ok {
		t.Fatalf("missing paid payment id %d", fixture.PaidPaymentID)
	}
	if _, ok := gotIDs[fixture.ProofPaymentID]; !ok {
		t.Fatalf("missing proof payment id %d", fixture.ProofPaymentID)
	}
	if _, ok := gotIDs[fixture.OtherPaymentID]; ok {
		t.Fatalf("unexpected user2 payment id %d", fixture.OtherPaymentID)
	}
}

func TestGetAdminPaymentsRejectsBadFilter(t *testing.T) {
	h, _ := setupAdminPaymentHandlerTest(t)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/payments?user_id=-1", nil)

	h.GetAdminPayments(c)

	var resp struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode == 0 {
		t.Fatalf("expected non-zero status_code for bad filter")
	}
}

func TestExportAdminPaymentsByUserID(t *testing.T) {
	h, db := setupAdminPaymentHandlerTest(t)
	fixture := seedAdminPaymentData(t, db)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	url := fmt.Sprintf("/admin/payments/export?user_id=%d", fixture.User1ID)
	c.Request = httptest.NewRequest(http.MethodGet, url, nil)

	h.ExportAdminPayments(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if contentType := strings.TrimSpace(w.Header().Get("Content-Type")); !strings.HasPrefix(contentType, "text/csv") {
		t.Fatalf("content-type should be csv, got %s", contentType)
	}

	records, err := csv.NewReader(strings.NewReader(w.Body.String())).ReadAll()
	if err != nil {
		t.Fatalf("read csv failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("csv rows want 3 got %d", len(records))
	}
	header := strings.Join(records[0], ",")
	if header != "id,tx_ref,user_id,provider,network,mobile,status,amount,currency,order_code,notes,created_at,paid_at,failed_at,provider_ref" {
		t.Fatalf("csv header mismatch, got %s", header)
	}

	foundOrderCode := false
	for _, row := range records[1:] {
		if row[1] == "CDADMINHANDLER003" {
			t.Fatalf("csv should not include user2 payment")
		}
		if row[9] == fixture.OrderCode {
			foundOrderCode = true
			if row[10] != models.NoteKindNote {
				t.Fatalf("notes column want %q got %q", models.NoteKindNote, row[10])
			}
			if row[14] != "mm_ref_001" {
				t.Fatalf("provider_ref column want mm_ref_001 got %q", row[14])
			}
		}
	}
	if !foundOrderCode {
		t.Fatalf("csv missing linked order row")
	}
}

func TestParseQueryUint(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/payments?user_id=12", nil)

	parsed, err := parseQueryUint(c, "user_id")
	if err != nil {
		t.Fatalf("parse user_id failed: %v", err)
	}
	if parsed != 12 {
		t.Fatalf("parsed user_id want 12 got %d", parsed)
	}

	c.Request = httptest.NewRequest(http.MethodGet, "/admin/payments?user_id=abc", nil)
	if _, err = parseQueryUint(c, "user_id"); err == nil {
		t.Fatalf("expected parse error for user_id=abc")
	}

	c.Request = httptest.NewRequest(http.MethodGet, "/admin/payments", nil)
	parsed, err = parseQueryUint(c, "user_id")
	if err != nil {
		t.Fatalf("unexpected error for empty query: %v", err)
	}
	if parsed != 0 {
		t.Fatalf("parsed empty user_id want 0 got %d", parsed)
	}
}

func TestWriteAdminPaymentCSVRowsJoinsNoteKinds(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	payment := models.Payment{
		ID:        7,
		TxRef:     "CDTX7",
		UserID:    3,
		Provider:  constants.PaymentProviderManual,
		Amount:    models.NewMoneyFromInt(1000),
		Currency:  "MWK",
		Status:    constants.PaymentStatusPending,
		CreatedAt: now,
	}
	payment.SetMeta(models.PaymentMeta{Notes: []models.ReconciliationNote{
		models.NewAmountMismatchNote(models.NewMoneyFromInt(1000), models.NewMoneyFromInt(900), "proof", now),
		models.NewTextNote("admin", "checked", now),
	}})

	var buf strings.Builder
	writer := csv.NewWriter(&buf)
	if err := writeAdminPaymentCSVRows(writer, []models.Payment{payment}); err != nil {
		t.Fatalf("write rows failed: %v", err)
	}
	writer.Flush()

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("read csv failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("csv rows want 1 got %d", len(records))
	}
	row := records[0]
	if row[10] != "amount_mismatch|note" {
		t.Fatalf("notes column mismatch: %q", row[10])
	}
	if row[12] != "" || row[14] != "" {
		t.Fatalf("nullable columns should be empty: %+v", row)
	}
	if row[11] != "2026-03-01T08:00:00Z" {
		t.Fatalf("created_at mismatch: %q", row[11])
	}
}
