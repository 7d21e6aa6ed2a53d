package transactions

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zkredit/vault/internal/creditscore"
	"github.com/zkredit/vault/internal/ledger"
	"github.com/zkredit/vault/internal/risk"
)

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := NewMemoryStore()
	l := ledger.New(ledger.NewMemoryStore(25000))
	credit := creditscore.NewService(creditscore.NewMemoryStore(), creditscore.NewMockProvider(), nil, nil)
	factory := NewFactory(store, l, risk.NewScorer(nil), credit, nil, testWallet, nil)

	r := gin.New()
	NewHandler(factory, store).RegisterRoutes(r.Group("/v1"))
	return r
}

func postJSON(r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestCreateEndpoint(t *testing.T) {
	r := testRouter(t)

	w := postJSON(r, "/v1/transactions", CreateTransactionRequest{
		Type:        "send",
		Amount:      0.45,
		Token:       "ETH",
		Address:     "0x3a2D3F8825B5d9a6bEcBEA54E8E53F726f7e46d9",
		Description: "Monthly rent payment",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var tx Transaction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tx))
	assert.Equal(t, TypeSend, tx.Type)
	assert.Equal(t, "0.45", tx.Amount)
	assert.Equal(t, "$1,120.85", tx.Value)
	assert.Equal(t, risk.LevelLow, tx.RiskLevel)
}

func TestCreateEndpoint_Validation(t *testing.T) {
	r := testRouter(t)

	w := postJSON(r, "/v1/transactions", map[string]interface{}{"amount": 5})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(r, "/v1/transactions", CreateTransactionRequest{Type: "send", Amount: 5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "address is required")

	w = postJSON(r, "/v1/transactions", CreateTransactionRequest{Type: "burn", Amount: 5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_type")

	w = postJSON(r, "/v1/transactions", CreateTransactionRequest{
		Type: "send", Amount: -5, Address: "0x3a2D3F8825B5d9a6bEcBEA54E8E53F726f7e46d9",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_amount")
}

func TestListEndpoint_NewestFirst(t *testing.T) {
	r := testRouter(t)

	for _, desc := range []string{"first", "second"} {
		w := postJSON(r, "/v1/transactions", CreateTransactionRequest{
			Type: "receive", Amount: 1, Description: desc,
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/v1/transactions", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Transactions []*Transaction `json:"transactions"`
		Count        int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, "second", resp.Transactions[0].Description)
	assert.Equal(t, "first", resp.Transactions[1].Description)
}

func TestClearEndpoint(t *testing.T) {
	r := testRouter(t)

	w := postJSON(r, "/v1/transactions", CreateTransactionRequest{Type: "receive", Amount: 1})
	require.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest("DELETE", "/v1/transactions", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/v1/transactions", nil)
	r.ServeHTTP(w, req)
	assert.Contains(t, w.Body.String(), `"count":0`)
	assert.Contains(t, w.Body.String(), `"transactions":[]`)
}

func TestSeedEndpoint(t *testing.T) {
	r := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/transactions/seed", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 5, resp.Count)
}

func TestListEndpoint_CursorPagination(t *testing.T) {
	r := testRouter(t)

	for i := 0; i < 5; i++ {
		w := postJSON(r, "/v1/transactions", CreateTransactionRequest{
			Type: "receive", Amount: float64(i + 1),
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	type page struct {
		Transactions []*Transaction `json:"transactions"`
		Count        int            `json:"count"`
		NextCursor   string         `json:"nextCursor"`
	}

	fetch := func(url string) page {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", url, nil)
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		var p page
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
		return p
	}

	first := fetch("/v1/transactions?limit=2")
	require.Equal(t, 2, first.Count)
	require.NotEmpty(t, first.NextCursor)

	second := fetch("/v1/transactions?limit=2&cursor=" + url.QueryEscape(first.NextCursor))
	require.Equal(t, 2, second.Count)
	require.NotEmpty(t, second.NextCursor)

	last := fetch("/v1/transactions?limit=2&cursor=" + url.QueryEscape(second.NextCursor))
	require.Equal(t, 1, last.Count)
	assert.Empty(t, last.NextCursor)

	// No overlap across pages.
	seen := map[string]bool{}
	for _, p := range []page{first, second, last} {
		for _, tx := range p.Transactions {
			assert.False(t, seen[tx.ID])
			seen[tx.ID] = true
		}
	}
	assert.Len(t, seen, 5)
}

func TestListEndpoint_BadCursor(t *testing.T) {
	r := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/v1/transactions?cursor=%25%25not-base64", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
