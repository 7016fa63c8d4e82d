package router

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/perkhub/pointsledger/internal/server/http/dto"
	"github.com/perkhub/pointsledger/internal/server/http/handlers"
	"github.com/perkhub/pointsledger/internal/server/http/middleware"
	"github.com/perkhub/pointsledger/internal/test/facadestub"
)

func TestSetupRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	engine := Setup(facadestub.PointsFacadeStub{}, logger)

	body, _ := json.Marshal(dto.EarnRequest{UserID: 1, Amount: decimal.NewFromFloat(12.5)})
	req := httptest.NewRequest(http.MethodPost, "/api/points/earn", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer token")
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201 for earn, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/users/1/balance", nil)
	req.Header.Set("Authorization", "Bearer token")
	resp = httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 for balance, got %d", resp.Code)
	}
}

func TestSetupRejectsMissingToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	engine := Setup(facadestub.PointsFacadeStub{}, logger)

	req := httptest.NewRequest(http.MethodGet, "/api/users/1/balance", nil)
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 without token, got %d", resp.Code)
	}
}

func TestSetupAdminGroupRequiresKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	engine := Setup(facadestub.PointsFacadeStub{}, logger)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/consistency/report", nil)
	req.Header.Set("Authorization", "Bearer token")
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 without admin key, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/consistency/report", nil)
	req.Header.Set("Authorization", "Bearer token")
	req.Header.Set(middleware.AdminKeyHeader, "admin-key")
	resp = httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 with admin key, got %d", resp.Code)
	}
}

var _ handlers.PointsFacade = (*facadestub.PointsFacadeStub)(nil)
