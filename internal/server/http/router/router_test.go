package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/storefront/internal/app"
	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
	pkgAuth "github.com/polkiloo/storefront/internal/pkg/auth"
	"github.com/polkiloo/storefront/internal/server/http/dto"
	"github.com/polkiloo/storefront/internal/server/http/handlers"
	"github.com/polkiloo/storefront/internal/storage/fallback"
	"github.com/polkiloo/storefront/internal/storage/memory"
	testhelpers "github.com/polkiloo/storefront/internal/test"
	"github.com/polkiloo/storefront/internal/usecase"
)

func newEngine(facade *testhelpers.StorefrontFacadeStub) *gin.Engine {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	engine := Setup(facade, logger)
	gin.SetMode(gin.TestMode)
	return engine
}

func serve(engine *gin.Engine, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	return resp
}

func TestSetupRoutes(t *testing.T) {
	facade := &testhelpers.StorefrontFacadeStub{
		OrderFn: func(_ context.Context, id string) (*model.Order, error) {
			if id != "ORD-1" {
				return nil, domainErrors.ErrNotFound
			}
			return &model.Order{ID: id}, nil
		},
	}
	engine := newEngine(facade)

	body, _ := json.Marshal(map[string]any{
		"customer": map[string]string{"name": "Asha", "phone": "+91", "address": "12 Market Rd"},
		"items":    []map[string]any{{"name": "Turmeric Powder", "quantity": 2, "unit_price": 200}},
	})

	cases := []struct {
		method string
		path   string
		body   []byte
		status int
	}{
		{http.MethodPost, "/orders", body, http.StatusCreated},
		{http.MethodGet, "/orders", nil, http.StatusOK},
		{http.MethodGet, "/orders/ORD-1", nil, http.StatusOK},
		{http.MethodGet, "/orders/ORD-2", nil, http.StatusNotFound},
		{http.MethodPatch, "/orders/ORD-1", []byte(`{"status":"shipped"}`), http.StatusOK},
		{http.MethodPatch, "/orders/ORD-1/status", []byte(`{"status":"shipped"}`), http.StatusOK},
		{http.MethodGet, "/health", nil, http.StatusOK},
		{http.MethodGet, "/unknown", nil, http.StatusNotFound},
	}
	for _, tc := range cases {
		resp := serve(engine, tc.method, tc.path, tc.body, nil)
		if resp.Code != tc.status {
			t.Fatalf("%s %s: expected %d, got %d", tc.method, tc.path, tc.status, resp.Code)
		}
	}
	if len(facade.Updates) != 2 {
		t.Fatalf("expected both patch routes to update, got %d", len(facade.Updates))
	}
}

func TestMethodNotAllowed(t *testing.T) {
	engine := newEngine(&testhelpers.StorefrontFacadeStub{})

	cases := []struct {
		method string
		path   string
		allow  string
	}{
		{http.MethodDelete, "/orders", "GET, HEAD, POST, OPTIONS"},
		{http.MethodTrace, "/orders", "GET, HEAD, POST, OPTIONS"},
		{http.MethodPut, "/orders/ORD-1", "GET, HEAD, PATCH, OPTIONS"},
		{http.MethodConnect, "/orders/ORD-1", "GET, HEAD, PATCH, OPTIONS"},
		{http.MethodGet, "/orders/ORD-1/status", "PATCH, OPTIONS"},
		{http.MethodHead, "/orders/ORD-1/status", "PATCH, OPTIONS"},
		{http.MethodPost, "/health", "GET, HEAD, OPTIONS"},
	}
	for _, tc := range cases {
		resp := serve(engine, tc.method, tc.path, nil, nil)
		if resp.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s %s: expected 405, got %d", tc.method, tc.path, resp.Code)
		}
		if got := resp.Header().Get("Allow"); got != tc.allow {
			t.Fatalf("%s %s: expected Allow %q, got %q", tc.method, tc.path, tc.allow, got)
		}
	}
}

func TestMethodNotAllowedIgnoresIdentity(t *testing.T) {
	facade := &testhelpers.StorefrontFacadeStub{}
	facade.Err = pkgAuth.ErrInvalidToken
	engine := newEngine(facade)

	resp := serve(engine, http.MethodDelete, "/orders/ORD-1", nil, map[string]string{"Authorization": "Bearer bad"})
	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 before identity check, got %d", resp.Code)
	}
}

func TestHeadOnReadRoutes(t *testing.T) {
	facade := &testhelpers.StorefrontFacadeStub{
		OrderFn: func(_ context.Context, id string) (*model.Order, error) {
			return &model.Order{ID: id}, nil
		},
	}
	engine := newEngine(facade)
	for _, path := range []string{"/orders", "/orders/ORD-1", "/health"} {
		if resp := serve(engine, http.MethodHead, path, nil, nil); resp.Code != http.StatusOK {
			t.Fatalf("HEAD %s: expected 200, got %d", path, resp.Code)
		}
	}
}

func TestPreflight(t *testing.T) {
	engine := newEngine(&testhelpers.StorefrontFacadeStub{})
	for _, path := range []string{"/orders", "/orders/ORD-1/status", "/whatever"} {
		resp := serve(engine, http.MethodOptions, path, nil, nil)
		if resp.Code != http.StatusOK {
			t.Fatalf("OPTIONS %s: expected 200, got %d", path, resp.Code)
		}
		if resp.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Fatalf("OPTIONS %s: missing CORS header", path)
		}
	}
}

func TestIdentityOnOrderRoutes(t *testing.T) {
	facade := &testhelpers.StorefrontFacadeStub{}
	facade.ParseFn = func(token string) (*model.Identity, error) {
		if token != "good" {
			return nil, pkgAuth.ErrInvalidToken
		}
		return &model.Identity{UserID: "u-1", Name: "Asha"}, nil
	}
	engine := newEngine(facade)

	body := []byte(`{"customer":{"address":"12 Market Rd","phone":"+91"},"items":[{"name":"Sample","quantity":1,"unit_price":0}]}`)

	resp := serve(engine, http.MethodPost, "/orders", body, map[string]string{"Authorization": "Bearer bad"})
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", resp.Code)
	}

	resp = serve(engine, http.MethodPost, "/orders", body, map[string]string{"Authorization": "Bearer good"})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	if len(facade.Creates) != 1 || facade.Creates[0].Input.Identity == nil || facade.Creates[0].Input.Identity.UserID != "u-1" {
		t.Fatalf("identity not forwarded: %+v", facade.Creates)
	}

	resp = serve(engine, http.MethodGet, "/health", nil, map[string]string{"Authorization": "Bearer bad"})
	if resp.Code != http.StatusOK {
		t.Fatalf("health must ignore identity, got %d", resp.Code)
	}
}

func TestOrderSurvivesPrimaryAndSecondaryOutage(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	down := func(name string) *testhelpers.OrderStoreStub {
		s := testhelpers.NewOrderStoreStub(name)
		s.Err = domainErrors.Connectivity(name, errors.New("connection refused"))
		return s
	}
	primary, secondary := down("postgres"), down("mongodb")
	chain := fallback.New([]repository.OrderStore{primary, secondary}, memory.New(0), fallback.Options{}, logger)
	orders := usecase.NewOrderUseCase(chain, &testhelpers.NotifierStub{}, "ORD-", logger)
	engine := Setup(app.NewStorefrontFacade(testhelpers.StrategyStub{}, orders, &testhelpers.DispatcherStub{}), logger)

	body := []byte(`{"customer":{"name":"Asha","phone":"+91","address":"12 Market Rd"},"items":[{"name":"Turmeric Powder","quantity":2,"unit_price":200}]}`)
	resp := serve(engine, http.MethodPost, "/orders", body, nil)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created dto.OrderEnvelope
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.Order.OrderID == "" || created.Order.FinalAmount != 400 {
		t.Fatalf("unexpected order %+v", created.Order)
	}

	resp = serve(engine, http.MethodGet, "/orders/"+created.Order.OrderID, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var fetched dto.OrderEnvelope
	if err := json.Unmarshal(resp.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("decode get response: %v", err)
	}
	if fetched.Order.OrderID != created.Order.OrderID || !fetched.Order.CreatedAt.Equal(created.Order.CreatedAt) {
		t.Fatalf("expected %+v, got %+v", created.Order, fetched.Order)
	}
	if len(primary.Created) != 0 || len(secondary.Created) != 0 {
		t.Fatal("down tiers must not hold the order")
	}
}

var _ handlers.StorefrontFacade = (*testhelpers.StorefrontFacadeStub)(nil)
