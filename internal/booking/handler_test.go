package booking

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantumsport/internal/api"
	"quantumsport/internal/auth"
	"quantumsport/internal/cart"
	"quantumsport/internal/session"
)

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(NewService(session.NewManager(session.NewMemoryStore(), time.Hour), cart.DefaultTaxRateBps))

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-Test-Customer"); id != "" {
			auth.SetIdentity(c, id, id+"@example.com", auth.RoleCustomer)
		}
	})
	r.POST("/sessions", h.CreateSession)
	r.DELETE("/sessions/:sessionID", h.EndSession)
	r.GET("/sessions/:sessionID/cart", h.GetCart)
	r.DELETE("/sessions/:sessionID/cart", h.ClearCart)
	r.POST("/sessions/:sessionID/cart/bookings/toggle", h.ToggleBooking)
	r.DELETE("/sessions/:sessionID/cart/bookings", h.RemoveBooking)
	r.POST("/sessions/:sessionID/cart/coaches/toggle", h.ToggleCoach)
	r.PUT("/sessions/:sessionID/cart/inventory", h.SetInventory)
	return r
}

func do(r *gin.Engine, method, path, customer string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if customer != "" {
		req.Header.Set("X-Test-Customer", customer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, r *gin.Engine, customer string) string {
	t.Helper()
	w := do(r, http.MethodPost, "/sessions", customer, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.ID
}

func TestHandler_CartFlow(t *testing.T) {
	r := setupRouter()
	id := createSession(t, r, "cust-1")
	base := "/sessions/" + id + "/cart"

	w := do(r, http.MethodPost, base+"/bookings/toggle", "cust-1", ToggleBookingRequest{ResourceID: "A", Time: "08:00", Date: "2025-01-20", Price: 100000})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, base+"/coaches/toggle", "cust-1", ToggleCoachRequest{ResourceID: "coach-1", TimeSlot: "08:00", Price: 250000})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPut, base+"/inventory", "cust-1", SetInventoryRequest{ResourceID: "racket", Quantity: 2, Available: 5, UnitPrice: 50000})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, base, "cust-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp CartResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(450000), resp.Cart.Totals.Subtotal)
	assert.Equal(t, int64(495000), resp.Cart.Totals.GrandTotal)

	w = do(r, http.MethodDelete, base+"/bookings?resource_id=A&time=08:00&date=2025-01-20", "cust-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Cart.Bookings)
	assert.Len(t, resp.Cart.Coaches, 1, "add-ons are kept until checkout validation")

	w = do(r, http.MethodDelete, base, "cust-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Cart.Coaches)

	w = do(r, http.MethodDelete, "/sessions/"+id, "cust-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(r, http.MethodGet, base, "cust-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_Errors(t *testing.T) {
	r := setupRouter()
	id := createSession(t, r, "cust-1")
	base := "/sessions/" + id + "/cart"

	tests := []struct {
		name     string
		method   string
		path     string
		customer string
		body     interface{}
		status   int
		code     string
	}{
		{"unauthenticated", http.MethodGet, base, "", nil, http.StatusUnauthorized, api.CodeUnauthorized},
		{"other customer", http.MethodGet, base, "cust-2", nil, http.StatusForbidden, api.CodeForbidden},
		{"unknown session", http.MethodGet, "/sessions/nope/cart", "cust-1", nil, http.StatusNotFound, api.CodeSessionNotFound},
		{"missing resource", http.MethodPost, base + "/bookings/toggle", "cust-1", map[string]interface{}{"time": "08:00", "date": "2025-01-20"}, http.StatusBadRequest, api.CodeInvalidRequest},
		{"bad date", http.MethodPost, base + "/bookings/toggle", "cust-1", map[string]interface{}{"resource_id": "A", "time": "08:00", "date": "20-01-2025"}, http.StatusBadRequest, api.CodeInvalidRequest},
		{"bad time", http.MethodPost, base + "/bookings/toggle", "cust-1", ToggleBookingRequest{ResourceID: "A", Time: "late", Date: "2025-01-20"}, http.StatusBadRequest, api.CodeMalformedSelection},
		{"coach without court", http.MethodPost, base + "/coaches/toggle", "cust-1", ToggleCoachRequest{ResourceID: "coach-1", Price: 1}, http.StatusUnprocessableEntity, api.CodeValidation},
		{"inventory without court", http.MethodPut, base + "/inventory", "cust-1", SetInventoryRequest{ResourceID: "racket", Quantity: 1, Available: 1}, http.StatusUnprocessableEntity, api.CodeValidation},
		{"negative available", http.MethodPut, base + "/inventory", "cust-1", SetInventoryRequest{ResourceID: "racket", Quantity: 1, Available: -1}, http.StatusBadRequest, api.CodeInvalidRequest},
		{"remove without key", http.MethodDelete, base + "/bookings?resource_id=A", "cust-1", nil, http.StatusBadRequest, api.CodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, tt.method, tt.path, tt.customer, tt.body)
			assert.Equal(t, tt.status, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body["code"])
		})
	}
}
