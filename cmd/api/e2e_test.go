package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapterHTTP "github.com/zing-commerce/cart-engine/internal/adapters/handler/http"
	"github.com/zing-commerce/cart-engine/internal/adapters/handler/http/middleware"
	"github.com/zing-commerce/cart-engine/internal/adapters/storage"
	"github.com/zing-commerce/cart-engine/internal/adapters/upstream"
	"github.com/zing-commerce/cart-engine/internal/core/events"
	"github.com/zing-commerce/cart-engine/internal/core/services"
)

// fakeStorefront stands in for the upstream commerce API: a static catalog
// plus a per-token server-side cart.
type fakeStorefront struct {
	mu    sync.Mutex
	carts map[string][]map[string]any
	next  int
}

func newFakeStorefront() *fakeStorefront {
	return &fakeStorefront{carts: make(map[string][]map[string]any)}
}

func (f *fakeStorefront) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/products/get-attributes/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"colors": []map[string]any{{"_id": "c1", "name": "Red"}},
			"sizes":  []map[string]any{{"_id": "s1", "name": "M"}},
		})
	})

	mux.HandleFunc("/products/product-details/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		id := strings.TrimPrefix(r.URL.Path, "/products/product-details/")
		switch strings.TrimSuffix(id, "/") {
		case "p1":
			json.NewEncoder(w).Encode(map[string]any{"product": map[string]any{
				"_id": "p1", "name": "Tote Bag", "price": 12.5, "stock": 10,
			}})
		case "shirt":
			json.NewEncoder(w).Encode(map[string]any{"product": map[string]any{
				"_id": "shirt", "name": "Shirt", "price": 30.0, "stock": 5,
				"color_ids": []string{"c1"}, "size_ids": []string{"s1"},
			}})
		default:
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]any{"error": "product not found"})
		}
	})

	mux.HandleFunc("/cart/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		items := f.carts[r.Header.Get("Authorization")]
		if items == nil {
			items = []map[string]any{}
		}
		json.NewEncoder(w).Encode(map[string]any{"items": items})
	})

	mux.HandleFunc("/cart/add/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)

		f.mu.Lock()
		defer f.mu.Unlock()
		f.next++
		token := r.Header.Get("Authorization")
		f.carts[token] = append(f.carts[token], map[string]any{
			"item_id":    fmt.Sprintf("srv-%d", f.next),
			"product_id": body["product_id"],
			"quantity":   body["quantity"],
			"color_id":   body["color_id"],
			"size_id":    body["size_id"],
		})
		w.WriteHeader(http.StatusCreated)
	})

	return mux
}

type testApp struct {
	router *gin.Engine
	tokens *services.TokenService
}

func setupApp(t *testing.T, upstreamURL string) *testApp {
	gin.SetMode(gin.TestMode)

	client := upstream.NewClient(upstreamURL, 5*time.Second)
	guestStore := storage.NewInMemoryGuestCartStore()
	broadcaster := events.NewBroadcaster()
	tokens := services.NewTokenService("e2e-secret", "zing-auth", time.Hour)

	cartSvc := services.NewCartService(guestStore, client, client, broadcaster)
	hydrationSvc := services.NewHydrationService(client, time.Minute)
	mergeSvc := services.NewMergeService(guestStore, client, nil, broadcaster)

	router := adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		CartHandler:    adapterHTTP.NewCartHandler(cartSvc, hydrationSvc, broadcaster),
		SessionHandler: adapterHTTP.NewSessionHandler(mergeSvc, nil),
		TokenService:   tokens,
		StartTime:      time.Now(),
	})

	return &testApp{router: router, tokens: tokens}
}

func (app *testApp) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	return w
}

func TestEndToEnd_GuestToLogin(t *testing.T) {
	storefront := newFakeStorefront()
	srv := httptest.NewServer(storefront.handler())
	defer srv.Close()

	app := setupApp(t, srv.URL)

	guest := map[string]string{middleware.GuestSessionHeader: "e2e-sess"}

	t.Run("1. Guest adds items", func(t *testing.T) {
		w := app.do("POST", "/api/v1/cart/items", `{"product_id": "p1", "quantity": 2}`, guest)
		require.Equal(t, http.StatusCreated, w.Code)

		w = app.do("POST", "/api/v1/cart/items",
			`{"product_id": "shirt", "quantity": 1, "color_id": "c1", "size_id": "s1"}`, guest)
		require.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("2. Quick-add without a variant selection is rejected", func(t *testing.T) {
		w := app.do("POST", "/api/v1/cart/items", `{"product_id": "shirt"}`, guest)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "variant_required")
	})

	t.Run("3. Badge count covers both lines", func(t *testing.T) {
		w := app.do("GET", "/api/v1/cart/count", "", guest)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"count": 3}`, w.Body.String())
	})

	t.Run("4. Hydrated view resolves names from the catalog", func(t *testing.T) {
		w := app.do("GET", "/api/v1/cart/hydrated", "", guest)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"name":"Tote Bag"`)
		assert.Contains(t, w.Body.String(), `"name":"Shirt"`)
		assert.Contains(t, w.Body.String(), `"name":"Red"`)
		assert.Contains(t, w.Body.String(), `"name":"M"`)
	})

	var token string

	t.Run("5. Login merges the guest cart into the server cart", func(t *testing.T) {
		var err error
		token, err = app.tokens.GenerateToken("e2e-user")
		require.NoError(t, err)

		w := app.do("POST", "/api/v1/session/merge", "", map[string]string{
			"Authorization":               "Bearer " + token,
			middleware.GuestSessionHeader: "e2e-sess",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var report struct {
			Attempted int `json:"attempted"`
			Succeeded int `json:"succeeded"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
		assert.Equal(t, 2, report.Attempted)
		assert.Equal(t, 2, report.Succeeded)
	})

	t.Run("6. The guest cart is empty after the merge", func(t *testing.T) {
		w := app.do("GET", "/api/v1/cart", "", guest)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"items": []}`, w.Body.String())
	})

	t.Run("7. The authenticated cart now holds the transferred lines", func(t *testing.T) {
		w := app.do("GET", "/api/v1/cart", "", map[string]string{"Authorization": "Bearer " + token})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"product_id":"p1"`)
		assert.Contains(t, w.Body.String(), `"product_id":"shirt"`)
		assert.Contains(t, w.Body.String(), `"item_id":"srv-`)
	})

	t.Run("8. Health reports optional backends as disabled", func(t *testing.T) {
		w := app.do("GET", "/health", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"redis":"disabled"`)
		assert.Contains(t, w.Body.String(), `"database":"disabled"`)
	})
}
