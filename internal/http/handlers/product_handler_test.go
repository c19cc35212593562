package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/internal/domain"
	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/internal/http/handlers"
	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/internal/service"
	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/pkg/auth"
)

type mockProductRepo struct {
	nextID   int64
	products map[int64]*domain.Product
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{nextID: 1, products: make(map[int64]*domain.Product)}
}

func (m *mockProductRepo) Create(_ context.Context, sellerID int64, req *domain.CreateProductRequest) (*domain.Product, error) {
	category, _ := domain.ParseCategory(req.Category)
	condition, _ := domain.ParseCondition(req.Condition)
	p := &domain.Product{
		ID:          m.nextID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Category:    category,
		Condition:   condition,
		Images:      req.Images,
		SellerID:    sellerID,
		IsActive:    true,
		CO2Saved:    req.CO2Saved,
		Tags:        req.Tags,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	m.nextID++
	m.products[p.ID] = p
	return p, nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	return m.products[id], nil
}

func (m *mockProductRepo) List(_ context.Context, filter domain.ProductFilter) ([]domain.Product, int64, error) {
	var out []domain.Product
	for _, p := range m.products {
		if !p.IsActive {
			continue
		}
		if filter.Category != "" && string(p.Category) != filter.Category {
			continue
		}
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (m *mockProductRepo) ListBySeller(_ context.Context, sellerID int64) ([]domain.Product, error) {
	var out []domain.Product
	for _, p := range m.products {
		if p.SellerID == sellerID && p.IsActive {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockProductRepo) Update(_ context.Context, id int64, req *domain.UpdateProductRequest) (*domain.Product, error) {
	p := m.products[id]
	if p == nil {
		return nil, nil
	}
	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	return p, nil
}

func (m *mockProductRepo) Deactivate(_ context.Context, id int64) error {
	if p := m.products[id]; p != nil {
		p.IsActive = false
	}
	return nil
}

func (m *mockProductRepo) Snapshots(_ context.Context, ids []int64) (map[int64]*domain.ProductSnapshot, error) {
	out := make(map[int64]*domain.ProductSnapshot)
	for _, id := range ids {
		if p := m.products[id]; p != nil {
			out[id] = &domain.ProductSnapshot{
				ID: p.ID, Title: p.Title, Price: p.Price,
				CO2Saved: p.CO2Saved, IsActive: p.IsActive, SellerID: p.SellerID,
			}
		}
	}
	return out, nil
}

func setupProductServer() (*httptest.Server, *mockProductRepo) {
	repo := newMockProductRepo()
	svc := service.NewCatalogService(repo)
	h := handlers.NewProductHandler(svc, testSecret)

	r := chi.NewRouter()
	r.Mount("/api/products", h.Routes())

	return httptest.NewServer(r), repo
}

func sessionToken(t *testing.T, userID int64) string {
	t.Helper()
	token, err := auth.NewSessionToken(userID, "u@example.com", "user", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return token
}

func doJSON(t *testing.T, method, url, token string, body any, wantStatus int) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: expected status %d, got %d", method, url, wantStatus, resp.StatusCode)
	}
	return resp
}

func validProduct() map[string]any {
	return map[string]any{
		"title":       "Used Laptop",
		"description": "Works fine, some scratches.",
		"price":       120.0,
		"category":    "Electronics",
		"condition":   "Good",
		"co2Saved":    15.0,
	}
}

func TestProducts_CreateRequiresAuth(t *testing.T) {
	server, _ := setupProductServer()
	defer server.Close()

	doJSON(t, http.MethodPost, server.URL+"/api/products", "", validProduct(), http.StatusUnauthorized).Body.Close()
}

func TestProducts_CreateAndGet(t *testing.T) {
	server, _ := setupProductServer()
	defer server.Close()
	token := sessionToken(t, 1)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/products", token, validProduct(), http.StatusCreated)
	var created domain.Product
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()

	if created.ID == 0 || created.SellerID != 1 {
		t.Fatalf("Expected created product owned by 1, got %+v", created)
	}

	getResp := doJSON(t, http.MethodGet, server.URL+"/api/products/1", "", nil, http.StatusOK)
	var fetched domain.Product
	json.NewDecoder(getResp.Body).Decode(&fetched)
	getResp.Body.Close()

	if fetched.Title != "Used Laptop" {
		t.Fatalf("Expected Used Laptop, got %s", fetched.Title)
	}
}

func TestProducts_CreateValidation(t *testing.T) {
	server, _ := setupProductServer()
	defer server.Close()
	token := sessionToken(t, 1)

	bad := validProduct()
	bad["category"] = "Spaceships"
	doJSON(t, http.MethodPost, server.URL+"/api/products", token, bad, http.StatusBadRequest).Body.Close()

	bad = validProduct()
	bad["price"] = -1.0
	doJSON(t, http.MethodPost, server.URL+"/api/products", token, bad, http.StatusBadRequest).Body.Close()
}

func TestProducts_ListRejectsUnknownCategory(t *testing.T) {
	server, _ := setupProductServer()
	defer server.Close()

	doJSON(t, http.MethodGet, server.URL+"/api/products?category=Spaceships", "", nil, http.StatusBadRequest).Body.Close()
}

func TestProducts_UpdateOwnerOnly(t *testing.T) {
	server, _ := setupProductServer()
	defer server.Close()
	owner := sessionToken(t, 1)
	stranger := sessionToken(t, 2)

	doJSON(t, http.MethodPost, server.URL+"/api/products", owner, validProduct(), http.StatusCreated).Body.Close()

	patch := map[string]any{"price": 99.0}
	doJSON(t, http.MethodPut, server.URL+"/api/products/1", stranger, patch, http.StatusForbidden).Body.Close()
	doJSON(t, http.MethodPut, server.URL+"/api/products/1", owner, patch, http.StatusOK).Body.Close()
}

func TestProducts_DeleteHidesFromCatalog(t *testing.T) {
	server, repo := setupProductServer()
	defer server.Close()
	token := sessionToken(t, 1)

	doJSON(t, http.MethodPost, server.URL+"/api/products", token, validProduct(), http.StatusCreated).Body.Close()
	doJSON(t, http.MethodDelete, server.URL+"/api/products/1", token, nil, http.StatusOK).Body.Close()

	// Soft delete: row survives, catalog returns 404.
	if repo.products[1] == nil {
		t.Fatal("Expected product row to survive")
	}
	doJSON(t, http.MethodGet, server.URL+"/api/products/1", "", nil, http.StatusNotFound).Body.Close()
}

func TestProducts_MyListingsExcludesInactive(t *testing.T) {
	server, _ := setupProductServer()
	defer server.Close()
	token := sessionToken(t, 1)

	doJSON(t, http.MethodPost, server.URL+"/api/products", token, validProduct(), http.StatusCreated).Body.Close()
	second := validProduct()
	second["title"] = "Old Bicycle"
	doJSON(t, http.MethodPost, server.URL+"/api/products", token, second, http.StatusCreated).Body.Close()
	doJSON(t, http.MethodDelete, server.URL+"/api/products/1", token, nil, http.StatusOK).Body.Close()

	resp := doJSON(t, http.MethodGet, server.URL+"/api/products/user/my-listings", token, nil, http.StatusOK)
	var result struct {
		Products []domain.Product `json:"products"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	resp.Body.Close()

	if len(result.Products) != 1 || result.Products[0].Title != "Old Bicycle" {
		t.Fatalf("Expected only the active listing, got %+v", result.Products)
	}
}
