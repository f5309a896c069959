package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"puspita/internal/handlers"
	"puspita/internal/middleware"
	"puspita/internal/models"
	"puspita/internal/repositories"
	"puspita/internal/services"
	"puspita/internal/watch"

	"github.com/dgrijalva/jwt-go"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupApp wires the full HTTP surface against in-memory SQLite and
// in-memory cart/watch backends, mirroring the production wiring minus
// the external services.
func setupApp() (*fiber.App, *services.AuthService, error) {
	viper.SetDefault("JWT_SECRET", "test_jwt_secret")
	viper.AutomaticEnv()
	jwtSecret := viper.GetString("JWT_SECRET")

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to in-memory database: %w", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Product{}, &models.Order{}); err != nil {
		return nil, nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	cartRepo := repositories.NewMockCartRepository()

	hub := watch.NewHub()

	authService := services.NewAuthService(userRepo, jwtSecret)
	productService := services.NewProductService(productRepo)
	cartService := services.NewCartService(cartRepo)
	checkoutService := services.NewCheckoutService()
	orderService := services.NewOrderService(orderRepo, nil, hub, nil, nil)

	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService, nil)
	cartHandler := handlers.NewCartHandler(cartService, productService)
	orderHandler := handlers.NewOrderHandler(orderService, cartService, checkoutService, hub)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")

	authHandler.RegisterRoutes(apiV1)
	productHandler.RegisterRoutes(apiV1)

	protected := apiV1.Group("", middleware.AuthRequired(authService))
	cartHandler.RegisterRoutes(protected)
	orderHandler.RegisterRoutes(protected)

	admin := apiV1.Group("/admin", middleware.AuthRequired(authService), middleware.AdminRequired())
	orderHandler.RegisterAdminRoutes(admin)
	productHandler.RegisterAdminRoutes(admin)

	seedProductsForTest(productRepo)

	return app, authService, nil
}

// seedProductsForTest populates the catalog for tests.
func seedProductsForTest(repo repositories.ProductRepository) {
	products := []models.Product{
		{ID: "prod-rose", Name: "Buket Mawar", Description: "Fresh rose bouquet", Price: 85000, Stock: 5},
		{ID: "prod-card", Name: "Kartu Ucapan", Description: "Greeting card", Price: 2000, Stock: 50},
	}
	for i := range products {
		if err := repo.Create(&products[i]); err != nil {
			log.Printf("Failed to seed product %s: %v", products[i].Name, err)
		}
	}
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	code := m.Run()
	os.Exit(code)
}

// registerAndLogin creates a shopper account and returns its bearer token.
func registerAndLogin(t *testing.T, app *fiber.App, username string) string {
	t.Helper()

	body, _ := json.Marshal(map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	body, _ = json.Marshal(map[string]string{
		"username": username,
		"password": "password123",
	})
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var loginResp map[string]string
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&loginResp))
	resp.Body.Close()
	assert.NotEmpty(t, loginResp["token"])
	return loginResp["token"]
}

// adminToken mints a back-office token directly; admin accounts are
// provisioned out of band, not through self-registration.
func adminToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  "admin-1",
		"username": "backoffice",
		"role":     "admin",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test_jwt_secret"))
	assert.NoError(t, err)
	return signed
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, payload interface{}) *http.Response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	return resp
}

func TestAuthRegisterAndLogin(t *testing.T) {
	app, authService, err := setupApp()
	assert.NoError(t, err)

	token := registerAndLogin(t, app, "siti")

	// Duplicate registration is rejected.
	body, _ := json.Marshal(map[string]string{
		"username": "siti",
		"email":    "siti@example.com",
		"password": "password123",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// The issued token carries identity and role claims.
	claims, err := authService.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "siti", claims["username"])
	assert.Equal(t, "user", claims["role"])
	assert.Contains(t, claims, "user_id")
}

func TestCartLifecycle(t *testing.T) {
	app, _, err := setupApp()
	assert.NoError(t, err)
	token := registerAndLogin(t, app, "dewi")

	// Add two products.
	resp := doJSON(t, app, http.MethodPost, "/api/v1/cart/items", token,
		map[string]interface{}{"product_id": "prod-rose", "quantity": 1})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/api/v1/cart/items", token,
		map[string]interface{}{"product_id": "prod-card", "quantity": 2})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// An unknown product cannot be added.
	resp = doJSON(t, app, http.MethodPost, "/api/v1/cart/items", token,
		map[string]interface{}{"product_id": "prod-missing", "quantity": 1})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Deselect the card: the subtotal covers selected lines only.
	resp = doJSON(t, app, http.MethodPatch, "/api/v1/cart/items/prod-card/selected", token,
		map[string]interface{}{"selected": false})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/v1/cart", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var cart struct {
		Items            []models.CartItem `json:"items"`
		SelectedSubtotal int64             `json:"selected_subtotal"`
	}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&cart))
	resp.Body.Close()
	assert.Len(t, cart.Items, 2)
	assert.Equal(t, int64(85000), cart.SelectedSubtotal)

	// Quantity floors at one instead of deleting the line.
	resp = doJSON(t, app, http.MethodPatch, "/api/v1/cart/items/prod-rose/quantity", token,
		map[string]interface{}{"delta": -5})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var after struct {
		Items []models.CartItem `json:"items"`
	}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&after))
	resp.Body.Close()
	for _, item := range after.Items {
		if item.ProductID == "prod-rose" {
			assert.Equal(t, 1, item.Quantity)
		}
	}

	// Explicit removal deletes the line.
	resp = doJSON(t, app, http.MethodDelete, "/api/v1/cart/items/prod-rose", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestCheckoutAndOrderLifecycle(t *testing.T) {
	app, _, err := setupApp()
	assert.NoError(t, err)
	shopper := registerAndLogin(t, app, "rina")
	backoffice := adminToken(t)

	// Fill the cart: rose selected, card deselected.
	resp := doJSON(t, app, http.MethodPost, "/api/v1/cart/items", shopper,
		map[string]interface{}{"product_id": "prod-rose", "quantity": 1})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
	resp = doJSON(t, app, http.MethodPost, "/api/v1/cart/items", shopper,
		map[string]interface{}{"product_id": "prod-card", "quantity": 1})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
	resp = doJSON(t, app, http.MethodPatch, "/api/v1/cart/items/prod-card/selected", shopper,
		map[string]interface{}{"selected": false})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	checkout := map[string]interface{}{
		"shipping_form": map[string]string{
			"full_name": "Rina Putri",
			"email":     "rina@example.com",
			"phone":     "081234567890",
			"address":   "Jl. Anggrek No. 2, Jakarta",
		},
		"delivery_method": "delivery",
		"payment_method":  "COD",
	}

	// Draft preview shows the exact totals without creating anything.
	resp = doJSON(t, app, http.MethodPost, "/api/v1/checkout/draft", shopper, checkout)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var draft models.OrderDraft
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&draft))
	resp.Body.Close()
	assert.Equal(t, int64(85000), draft.Subtotal)
	assert.Equal(t, int64(10000), draft.ShippingFee)
	assert.Equal(t, int64(95000), draft.GrandTotal)

	// A missing shipping field blocks placement with field-level detail.
	invalid := map[string]interface{}{
		"shipping_form":   map[string]string{"email": "rina@example.com"},
		"delivery_method": "delivery",
		"payment_method":  "COD",
	}
	resp = doJSON(t, app, http.MethodPost, "/api/v1/orders", shopper, invalid)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var validationResp struct {
		Errors map[string]string `json:"errors"`
	}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&validationResp))
	resp.Body.Close()
	assert.Contains(t, validationResp.Errors, "FullName")

	// Place the order for real. COD goes straight to fulfillment.
	resp = doJSON(t, app, http.MethodPost, "/api/v1/orders", shopper, checkout)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var order models.Order
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&order))
	resp.Body.Close()
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, models.StatusPendingDelivery, order.Status)
	assert.Equal(t, int64(95000), order.GrandTotal)
	assert.Len(t, order.Items, 1)

	// Only the purchased line left the cart.
	resp = doJSON(t, app, http.MethodGet, "/api/v1/cart", shopper, nil)
	var cart struct {
		Items []models.CartItem `json:"items"`
	}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&cart))
	resp.Body.Close()
	assert.Len(t, cart.Items, 1)
	assert.Equal(t, "prod-card", cart.Items[0].ProductID)

	// The shopper sees the order; a stranger does not.
	resp = doJSON(t, app, http.MethodGet, "/api/v1/orders/"+order.ID, shopper, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	stranger := registerAndLogin(t, app, "maya")
	resp = doJSON(t, app, http.MethodGet, "/api/v1/orders/"+order.ID, stranger, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Shoppers cannot reach the back-office surface at all.
	resp = doJSON(t, app, http.MethodPatch, "/api/v1/admin/orders/"+order.ID+"/status", shopper,
		map[string]string{"status": "shipped"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// The admin walks the order forward, including a stage skip.
	resp = doJSON(t, app, http.MethodPatch, "/api/v1/admin/orders/"+order.ID+"/status", backoffice,
		map[string]string{"status": "shipped"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// A backward move is rejected with a conflict and the pair involved.
	resp = doJSON(t, app, http.MethodPatch, "/api/v1/admin/orders/"+order.ID+"/status", backoffice,
		map[string]string{"status": "packaged"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var conflict map[string]interface{}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&conflict))
	resp.Body.Close()
	assert.Equal(t, "shipped", conflict["from"])
	assert.Equal(t, "packaged", conflict["to"])

	// Tracking reflects the shipped stage.
	resp = doJSON(t, app, http.MethodGet, "/api/v1/orders/"+order.ID+"/tracking", shopper, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var tracking services.OrderTracking
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&tracking))
	resp.Body.Close()
	assert.Equal(t, models.StatusShipped, tracking.Status)
	assert.False(t, tracking.Completed)

	// The shopper confirms receipt; the order is now terminal.
	resp = doJSON(t, app, http.MethodPost, "/api/v1/orders/"+order.ID+"/confirm-receipt", shopper, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var completed models.Order
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&completed))
	resp.Body.Close()
	assert.Equal(t, models.StatusCompleted, completed.Status)

	resp = doJSON(t, app, http.MethodPatch, "/api/v1/admin/orders/"+order.ID+"/status", backoffice,
		map[string]string{"status": "cancelled"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// The back-office list includes the order.
	resp = doJSON(t, app, http.MethodGet, "/api/v1/admin/orders", backoffice, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var all []models.Order
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&all))
	resp.Body.Close()
	assert.Len(t, all, 1)
}

func TestProtectedEndpointsWithoutAuth(t *testing.T) {
	app, _, err := setupApp()
	assert.NoError(t, err)

	// The catalog is public.
	resp := doJSON(t, app, http.MethodGet, "/api/v1/products", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var products []models.Product
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&products))
	resp.Body.Close()
	assert.GreaterOrEqual(t, len(products), 2)

	// Cart and orders are not.
	resp = doJSON(t, app, http.MethodGet, "/api/v1/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/v1/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Neither is the back-office.
	resp = doJSON(t, app, http.MethodGet, "/api/v1/admin/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}
