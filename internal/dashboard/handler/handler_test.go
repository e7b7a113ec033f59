package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ar-automation/reconciliation/internal/domain/bank"
	"github.com/ar-automation/reconciliation/internal/domain/client"
	"github.com/ar-automation/reconciliation/internal/domain/oplog"
	"github.com/ar-automation/reconciliation/internal/reconcile"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func strPtr(s string) *string { return &s }

type MockSyncRunner struct {
	mock.Mock
}

func (m *MockSyncRunner) Sync(ctx context.Context, from, to bank.Date) (reconcile.SyncResult, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(reconcile.SyncResult), args.Error(1)
}

type MockSourceBrowser struct {
	mock.Mock
}

func (m *MockSourceBrowser) FetchAll(ctx context.Context) ([]bank.Transaction, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]bank.Transaction), args.Error(1)
}

type MockConsolidator struct {
	mock.Mock
}

func (m *MockConsolidator) Consolidate(ctx context.Context) ([]client.CombinedClient, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]client.CombinedClient), args.Error(1)
}

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, txns []bank.Transaction) []reconcile.MatchedTransaction {
	args := m.Called(ctx, txns)
	return args.Get(0).([]reconcile.MatchedTransaction)
}

type MockDocumentSearcher struct {
	mock.Mock
}

func (m *MockDocumentSearcher) Documents(ctx context.Context, phrase string, size int) ([]map[string]interface{}, error) {
	args := m.Called(ctx, phrase, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]map[string]interface{}), args.Error(1)
}

type MockBankRepository struct {
	mock.Mock
}

func (m *MockBankRepository) ListIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockBankRepository) List(ctx context.Context) ([]bank.Transaction, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]bank.Transaction), args.Error(1)
}

func (m *MockBankRepository) InsertBatch(ctx context.Context, txns []bank.Transaction) (int64, error) {
	args := m.Called(ctx, txns)
	return args.Get(0).(int64), args.Error(1)
}

type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) ListClients(ctx context.Context) ([]client.Client, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]client.Client), args.Error(1)
}

func (m *MockClientRepository) ListStudents(ctx context.Context) ([]client.Student, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]client.Student), args.Error(1)
}

type MockOplogRepository struct {
	mock.Mock
}

func (m *MockOplogRepository) Append(ctx context.Context, entry oplog.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockOplogRepository) Recent(ctx context.Context, limit int) ([]oplog.Entry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]oplog.Entry), args.Error(1)
}

func performRequest(router *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var res Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func sampleTxns() []bank.Transaction {
	return []bank.Transaction{
		{
			ID:           1,
			Date:         bank.NewDate(2024, time.March, 5),
			Type:         strPtr("wire"),
			Sender:       strPtr("ACME CORP"),
			Description:  strPtr("tuition"),
			Amount:       decimal.NullDecimal{Decimal: decimal.NewFromInt(100), Valid: true},
			BankSyncDate: time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC),
		},
	}
}

func TestSyncHandler_Sync(t *testing.T) {
	syncService := &MockSyncRunner{}
	syncService.On("Sync", mock.Anything, bank.NewDate(2024, time.March, 1), bank.NewDate(2024, time.March, 31)).
		Return(reconcile.SyncResult{Status: reconcile.SyncStatusOK, Inserted: 1}, nil)

	bankRepo := &MockBankRepository{}
	bankRepo.On("List", mock.Anything).Return(sampleTxns(), nil)

	session := reconcile.NewSession()
	h := NewSyncHandler(newTestLogger(), syncService, &MockSourceBrowser{}, bankRepo, session)

	router := gin.New()
	router.POST("/sync", h.Sync)

	body, _ := json.Marshal(SyncRequest{StartDate: "2024-03-01", EndDate: "2024-03-31"})
	w := performRequest(router, http.MethodPost, "/sync", body)

	assert.Equal(t, http.StatusOK, w.Code)
	res := decodeResponse(t, w)
	require.Nil(t, res.Error)

	data := res.Data.(map[string]interface{})
	assert.Equal(t, "ok", data["status"])
	assert.Equal(t, float64(1), data["inserted"])
	assert.Len(t, data["transactions"], 1)

	// Sync refreshes the session snapshot
	assert.Len(t, session.Bank(), 1)
	syncService.AssertExpectations(t)
}

func TestSyncHandler_Sync_BadDates(t *testing.T) {
	h := NewSyncHandler(newTestLogger(), &MockSyncRunner{}, &MockSourceBrowser{}, &MockBankRepository{}, reconcile.NewSession())
	router := gin.New()
	router.POST("/sync", h.Sync)

	for _, body := range []string{
		`{}`,
		`{"start_date": "03/01/2024", "end_date": "2024-03-31"}`,
		`{"start_date": "2024-03-01", "end_date": "bogus"}`,
	} {
		w := performRequest(router, http.MethodPost, "/sync", []byte(body))
		assert.Equal(t, http.StatusBadRequest, w.Code, "body: %s", body)
	}
}

func TestSyncHandler_Sync_InvertedRange(t *testing.T) {
	syncService := &MockSyncRunner{}
	syncService.On("Sync", mock.Anything, mock.Anything, mock.Anything).
		Return(reconcile.SyncResult{}, reconcile.ErrInvalidDateRange)

	h := NewSyncHandler(newTestLogger(), syncService, &MockSourceBrowser{}, &MockBankRepository{}, reconcile.NewSession())
	router := gin.New()
	router.POST("/sync", h.Sync)

	body, _ := json.Marshal(SyncRequest{StartDate: "2024-03-31", EndDate: "2024-03-01"})
	w := performRequest(router, http.MethodPost, "/sync", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	res := decodeResponse(t, w)
	require.NotNil(t, res.Error)
	assert.Equal(t, "BAD_REQUEST", res.Error.Code)
}

func TestSyncHandler_ListTransactions_UsesSessionCache(t *testing.T) {
	bankRepo := &MockBankRepository{}
	bankRepo.On("List", mock.Anything).Return(sampleTxns(), nil).Once()

	session := reconcile.NewSession()
	h := NewSyncHandler(newTestLogger(), &MockSyncRunner{}, &MockSourceBrowser{}, bankRepo, session)
	router := gin.New()
	router.GET("/transactions", h.ListTransactions)

	// First call loads from the repository, second serves the cache
	w := performRequest(router, http.MethodGet, "/transactions", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = performRequest(router, http.MethodGet, "/transactions", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	bankRepo.AssertNumberOfCalls(t, "List", 1)
}

func TestSyncHandler_ListSourceTransactions(t *testing.T) {
	source := &MockSourceBrowser{}
	source.On("FetchAll", mock.Anything).Return(sampleTxns(), nil)

	h := NewSyncHandler(newTestLogger(), &MockSyncRunner{}, source, &MockBankRepository{}, reconcile.NewSession())
	router := gin.New()
	router.GET("/source/transactions", h.ListSourceTransactions)

	w := performRequest(router, http.MethodGet, "/source/transactions", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	res := decodeResponse(t, w)
	require.Nil(t, res.Error)

	rows := res.Data.([]interface{})
	require.Len(t, rows, 1)
	row := rows[0].(map[string]interface{})
	assert.Equal(t, float64(1), row["id"])
	assert.Equal(t, "ACME CORP", row["sender"])
	source.AssertExpectations(t)
}

func TestSyncHandler_ListSourceTransactions_SourceDown(t *testing.T) {
	source := &MockSourceBrowser{}
	source.On("FetchAll", mock.Anything).Return(nil, errors.New("connection refused"))

	h := NewSyncHandler(newTestLogger(), &MockSyncRunner{}, source, &MockBankRepository{}, reconcile.NewSession())
	router := gin.New()
	router.GET("/source/transactions", h.ListSourceTransactions)

	w := performRequest(router, http.MethodGet, "/source/transactions", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	res := decodeResponse(t, w)
	require.NotNil(t, res.Error)
	assert.Equal(t, "INTERNAL_ERROR", res.Error.Code)
}

func TestClientHandler_Consolidate(t *testing.T) {
	combined := []client.CombinedClient{
		{
			Client: client.Client{ClientID: 10, Name: "Maria"},
			Students: []client.StudentSlot{
				{Name: "Luis", LastName: "Gomez", Grade: "5"},
			},
		},
	}

	consolidator := &MockConsolidator{}
	consolidator.On("Consolidate", mock.Anything).Return(combined, nil)

	session := reconcile.NewSession()
	h := NewClientHandler(newTestLogger(), consolidator, &MockDocumentSearcher{}, &MockClientRepository{}, session)
	router := gin.New()
	router.POST("/consolidations", h.Consolidate)

	w := performRequest(router, http.MethodPost, "/consolidations", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	res := decodeResponse(t, w)
	rows := res.Data.([]interface{})
	require.Len(t, rows, 1)
	row := rows[0].(map[string]interface{})
	assert.Equal(t, "Maria", row["name"])
	assert.Equal(t, "Luis", row["student_name_1"])

	assert.Len(t, session.Combined(), 1)
}

func TestClientHandler_GetCombined_NeverRebuilds(t *testing.T) {
	consolidator := &MockConsolidator{}

	session := reconcile.NewSession()
	h := NewClientHandler(newTestLogger(), consolidator, &MockDocumentSearcher{}, &MockClientRepository{}, session)
	router := gin.New()
	router.GET("/combined", h.GetCombined)

	// Empty view before any consolidation run, and no rebuild on read
	w := performRequest(router, http.MethodGet, "/combined", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	consolidator.AssertNotCalled(t, "Consolidate", mock.Anything)

	session.SetCombined([]client.CombinedClient{
		{Client: client.Client{ClientID: 10, Name: "Maria"}, Students: []client.StudentSlot{{Name: "Luis"}}},
	})

	w = performRequest(router, http.MethodGet, "/combined", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	res := decodeResponse(t, w)
	rows := res.Data.([]interface{})
	require.Len(t, rows, 1)
	assert.Equal(t, "Maria", rows[0].(map[string]interface{})["name"])
	consolidator.AssertNotCalled(t, "Consolidate", mock.Anything)
}

func TestClientHandler_Search(t *testing.T) {
	searcher := &MockDocumentSearcher{}
	searcher.On("Documents", mock.Anything, "maria", 5).
		Return([]map[string]interface{}{{"name": "Maria"}}, nil)

	h := NewClientHandler(newTestLogger(), &MockConsolidator{}, searcher, &MockClientRepository{}, reconcile.NewSession())
	router := gin.New()
	router.GET("/search", h.Search)

	w := performRequest(router, http.MethodGet, "/search?q=maria&size=5", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	res := decodeResponse(t, w)
	docs := res.Data.([]interface{})
	require.Len(t, docs, 1)
	searcher.AssertExpectations(t)
}

func TestClientHandler_Search_DefaultsAndValidation(t *testing.T) {
	searcher := &MockDocumentSearcher{}
	searcher.On("Documents", mock.Anything, "", defaultSearchSize).
		Return([]map[string]interface{}{}, nil)

	h := NewClientHandler(newTestLogger(), &MockConsolidator{}, searcher, &MockClientRepository{}, reconcile.NewSession())
	router := gin.New()
	router.GET("/search", h.Search)

	w := performRequest(router, http.MethodGet, "/search", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = performRequest(router, http.MethodGet, "/search?size=-3", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMatchHandler_Match(t *testing.T) {
	txns := sampleTxns()
	clientID := int64(42)

	resolver := &MockResolver{}
	resolver.On("Resolve", mock.Anything, txns).Return([]reconcile.MatchedTransaction{
		{Transaction: txns[0], MatchedClientID: &clientID},
	})

	session := reconcile.NewSession()
	session.SetBank(txns)

	h := NewMatchHandler(newTestLogger(), resolver, &MockBankRepository{}, session)
	router := gin.New()
	router.POST("/matches", h.Match)

	w := performRequest(router, http.MethodPost, "/matches", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	res := decodeResponse(t, w)
	rows := res.Data.([]interface{})
	require.Len(t, rows, 1)
	row := rows[0].(map[string]interface{})
	assert.Equal(t, float64(42), row["matched_client_id"])
	assert.Equal(t, "ACME CORP", row["sender"])

	assert.Len(t, session.Matched(), 1)
}

func TestMatchHandler_Match_LoadsBankTableWhenEmpty(t *testing.T) {
	txns := sampleTxns()

	bankRepo := &MockBankRepository{}
	bankRepo.On("List", mock.Anything).Return(txns, nil)

	resolver := &MockResolver{}
	resolver.On("Resolve", mock.Anything, txns).Return([]reconcile.MatchedTransaction{
		{Transaction: txns[0]},
	})

	h := NewMatchHandler(newTestLogger(), resolver, bankRepo, reconcile.NewSession())
	router := gin.New()
	router.POST("/matches", h.Match)

	w := performRequest(router, http.MethodPost, "/matches", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	bankRepo.AssertExpectations(t)

	res := decodeResponse(t, w)
	rows := res.Data.([]interface{})
	require.Len(t, rows, 1)
	_, present := rows[0].(map[string]interface{})["matched_client_id"]
	assert.False(t, present)
}

func TestLogHandler_Recent(t *testing.T) {
	entries := []oplog.Entry{
		{
			Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
			Operation: "sync_transactions",
			Message:   "Found 3 new transactions:",
		},
	}

	oplogRepo := &MockOplogRepository{}
	oplogRepo.On("Recent", mock.Anything, 50).Return(entries, nil)

	h := NewLogHandler(newTestLogger(), oplogRepo)
	router := gin.New()
	router.GET("/logs", h.Recent)

	w := performRequest(router, http.MethodGet, "/logs?limit=50", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	res := decodeResponse(t, w)
	rows := res.Data.([]interface{})
	require.Len(t, rows, 1)
	row := rows[0].(map[string]interface{})
	assert.Equal(t, "sync_transactions", row["operation"])
	assert.Equal(t, "Found 3 new transactions:", row["message"])
}

func TestLogHandler_Recent_BadLimit(t *testing.T) {
	h := NewLogHandler(newTestLogger(), &MockOplogRepository{})
	router := gin.New()
	router.GET("/logs", h.Recent)

	w := performRequest(router, http.MethodGet, "/logs?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogHandler_Recent_RepositoryFailure(t *testing.T) {
	oplogRepo := &MockOplogRepository{}
	oplogRepo.On("Recent", mock.Anything, defaultLogLimit).Return(nil, errors.New("mongo down"))

	h := NewLogHandler(newTestLogger(), oplogRepo)
	router := gin.New()
	router.GET("/logs", h.Recent)

	w := performRequest(router, http.MethodGet, "/logs", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
