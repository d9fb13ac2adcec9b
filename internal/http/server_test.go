package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"ledger/internal/auth"
	"ledger/internal/core"
	"ledger/internal/middleware/ratelimit"
	"ledger/internal/render"
	"ledger/internal/services"
	"ledger/internal/storage"
)

// memRepo backs the handler tests with maps instead of SQLite.
type memRepo struct {
	mu            sync.Mutex
	users         map[string]storage.User
	categories    map[string]core.Category
	transactions  map[string]core.Transaction
	notifications []storage.Notification
}

func newMemRepo() *memRepo {
	return &memRepo{
		users:        make(map[string]storage.User),
		categories:   make(map[string]core.Category),
		transactions: make(map[string]core.Transaction),
	}
}

func (m *memRepo) CreateUser(_ context.Context, u storage.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return fmt.Errorf("create user: email already registered")
		}
	}
	u.CreatedAt = time.Now()
	m.users[u.ID] = u
	return nil
}

func (m *memRepo) GetUserByEmail(_ context.Context, email string) (storage.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return storage.User{}, core.ErrNotFound
}

func (m *memRepo) CreateTransaction(_ context.Context, t core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[t.ID] = t
	return nil
}

func (m *memRepo) GetTransaction(_ context.Context, id, ownerID string) (core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok || t.OwnerID != ownerID {
		return core.Transaction{}, core.ErrNotFound
	}
	return t, nil
}

func (m *memRepo) UpdateTransaction(_ context.Context, t core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.transactions[t.ID]
	if !ok || existing.OwnerID != t.OwnerID {
		return core.ErrNotFound
	}
	m.transactions[t.ID] = t
	return nil
}

func (m *memRepo) DeleteTransaction(_ context.Context, id, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok || t.OwnerID != ownerID {
		return core.ErrNotFound
	}
	delete(m.transactions, id)
	return nil
}

func (m *memRepo) ListTransactions(_ context.Context, ownerID string, f core.Filter) ([]core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Transaction
	for _, t := range m.transactions {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return f.Apply(out), nil
}

func (m *memRepo) CreateCategory(_ context.Context, c core.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[c.ID] = c
	return nil
}

func (m *memRepo) GetCategory(_ context.Context, id, ownerID string) (core.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok || c.OwnerID != ownerID {
		return core.Category{}, core.ErrNotFound
	}
	return c, nil
}

func (m *memRepo) ListCategories(_ context.Context, ownerID string, typ core.TransactionType) ([]core.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Category
	for _, c := range m.categories {
		if c.OwnerID == ownerID && (typ == "" || c.Type == typ) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memRepo) UpdateCategory(_ context.Context, c core.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.categories[c.ID]
	if !ok || existing.OwnerID != c.OwnerID {
		return core.ErrNotFound
	}
	m.categories[c.ID] = c
	return nil
}

func (m *memRepo) DeleteCategory(_ context.Context, id, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok || c.OwnerID != ownerID {
		return core.ErrNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m *memRepo) CategoryExists(_ context.Context, ownerID, name string, typ core.TransactionType) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.OwnerID == ownerID && c.Name == name && c.Type == typ {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) CategoryName(_ context.Context, categoryID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[categoryID]
	if !ok {
		return "", false
	}
	return c.Name, true
}

func (m *memRepo) AddNotification(_ context.Context, n storage.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = int64(len(m.notifications) + 1)
	n.CreatedAt = time.Now()
	m.notifications = append(m.notifications, n)
	return nil
}

func (m *memRepo) ListNotifications(_ context.Context, ownerID string, limit int) ([]storage.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.Notification
	for _, n := range m.notifications {
		if n.OwnerID == ownerID {
			out = append(out, n)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func newTestServer(t *testing.T) (*Server, *memRepo) {
	t.Helper()

	repo := newMemRepo()
	resolver := services.NewCachedResolver(repo, time.Minute)
	txSvc := services.NewTransactionService(repo, repo, resolver, nil)
	catSvc := services.NewCategoryService(repo, resolver)

	renderer, err := render.NewHTMLRenderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	repSvc := services.NewReportService(repo, resolver, renderer)

	srv := NewServer(":0", Deps{
		Transactions:  txSvc,
		Categories:    catSvc,
		Reports:       repSvc,
		Users:         repo,
		Notifications: repo,
		Tokens:        auth.NewManager(strings.Repeat("s", 32), time.Hour),
		RateLimit:     ratelimit.Config{RPS: 10000, Burst: 10000},
	})
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return srv, repo
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func registerAndLogin(t *testing.T, srv *Server) string {
	t.Helper()

	rec := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    "user@example.com",
		"password": "supersecret",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", rec.Code, rec.Body)
	}

	var resp authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode auth response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("register should return a token")
	}
	return resp.Token
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRegisterLoginFlow(t *testing.T) {
	srv, _ := newTestServer(t)
	registerAndLogin(t, srv)

	// Duplicate email conflicts.
	rec := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "user@example.com", "password": "supersecret",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate register status = %d, want 409", rec.Code)
	}

	// Fresh login works.
	rec = doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "user@example.com", "password": "supersecret",
	})
	if rec.Code != http.StatusOK {
		t.Errorf("login status = %d, body %s", rec.Code, rec.Body)
	}

	// Wrong password and unknown email both read the same.
	for _, creds := range []map[string]string{
		{"email": "user@example.com", "password": "wrong-password"},
		{"email": "nobody@example.com", "password": "supersecret"},
	} {
		rec = doJSON(t, srv, http.MethodPost, "/api/auth/login", "", creds)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("bad login status = %d, want 401", rec.Code)
		}
	}
}

func TestRegisterValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "not-an-email", "password": "supersecret",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad email status = %d, want 422", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "u@example.com", "password": "short",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("short password status = %d, want 422", rec.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/transactions", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing token status = %d, want 401", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/transactions", "garbage-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token status = %d, want 401", rec.Code)
	}
}

func TestTransactionLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	token := registerAndLogin(t, srv)

	// Create a category to attach.
	rec := doJSON(t, srv, http.MethodPost, "/api/categories", token, map[string]string{
		"name": "Food", "type": "EXPENSE",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create category status = %d, body %s", rec.Code, rec.Body)
	}
	var cat core.Category
	if err := json.Unmarshal(rec.Body.Bytes(), &cat); err != nil {
		t.Fatalf("decode category: %v", err)
	}

	// Create.
	rec = doJSON(t, srv, http.MethodPost, "/api/transactions", token, map[string]string{
		"categoryId": cat.ID, "amount": "250.50", "type": "expense",
		"description": "groceries", "date": "2024-01-05",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	var created transactionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.AdviceClass != string(core.AdviceNormal) {
		t.Errorf("adviceClass = %s, want %s", created.AdviceClass, core.AdviceNormal)
	}
	id := created.Transaction.ID

	// Read back.
	rec = doJSON(t, srv, http.MethodGet, "/api/transactions/"+id, token, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("get status = %d", rec.Code)
	}

	// Update to a high-value amount.
	rec = doJSON(t, srv, http.MethodPut, "/api/transactions/"+id, token, map[string]string{
		"categoryId": cat.ID, "amount": "10000", "type": "expense",
		"description": "rent", "date": "2024-01-06",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body)
	}
	var updated transactionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode update response: %v", err)
	}
	if updated.AdviceClass != string(core.AdviceHighValue) {
		t.Errorf("adviceClass = %s, want %s", updated.AdviceClass, core.AdviceHighValue)
	}

	// Delete.
	rec = doJSON(t, srv, http.MethodDelete, "/api/transactions/"+id, token, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("delete status = %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodGet, "/api/transactions/"+id, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestTransactionValidationErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	token := registerAndLogin(t, srv)

	cases := []struct {
		name string
		body map[string]string
		want int
	}{
		{"negative amount", map[string]string{"amount": "-5", "type": "EXPENSE"}, http.StatusUnprocessableEntity},
		{"garbage amount", map[string]string{"amount": "abc", "type": "EXPENSE"}, http.StatusUnprocessableEntity},
		{"bad type", map[string]string{"amount": "5", "type": "TRANSFER"}, http.StatusUnprocessableEntity},
		{"bad date", map[string]string{"amount": "5", "type": "EXPENSE", "date": "05/01/2024"}, http.StatusUnprocessableEntity},
		{"unknown category", map[string]string{"amount": "5", "type": "EXPENSE", "categoryId": "nope"}, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodPost, "/api/transactions", token, tc.body)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tc.want, rec.Body)
			}
		})
	}
}

func TestSummaryEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	token := registerAndLogin(t, srv)

	for _, body := range []map[string]string{
		{"amount": "5000", "type": "INCOME", "date": "2024-01-01"},
		{"amount": "2000", "type": "EXPENSE", "date": "2024-01-05"},
		{"amount": "500", "type": "EXPENSE", "date": "2024-02-01"},
	} {
		if rec := doJSON(t, srv, http.MethodPost, "/api/transactions", token, body); rec.Code != http.StatusCreated {
			t.Fatalf("seed status = %d, body %s", rec.Code, rec.Body)
		}
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/transactions/summary", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary status = %d, body %s", rec.Code, rec.Body)
	}
	var s struct {
		TotalIncome      string `json:"totalIncome"`
		TotalExpense     string `json:"totalExpense"`
		Balance          string `json:"balance"`
		TransactionCount int    `json:"transactionCount"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if s.TotalIncome != "5000" || s.TotalExpense != "2500" || s.Balance != "2500" || s.TransactionCount != 3 {
		t.Errorf("summary = %+v, want 5000/2500/2500/3", s)
	}

	// Date-bounded summary.
	rec = doJSON(t, srv, http.MethodGet, "/api/transactions/summary?startDate=2024-01-01&endDate=2024-01-31", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ranged summary status = %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatalf("decode ranged summary: %v", err)
	}
	if s.TransactionCount != 2 {
		t.Errorf("ranged count = %d, want 2", s.TransactionCount)
	}

	// Inverted range is empty, not an error.
	rec = doJSON(t, srv, http.MethodGet, "/api/transactions/summary?startDate=2024-02-01&endDate=2024-01-01", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("inverted range status = %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatalf("decode inverted summary: %v", err)
	}
	if s.TransactionCount != 0 {
		t.Errorf("inverted range count = %d, want 0", s.TransactionCount)
	}
}

func TestReportDownload(t *testing.T) {
	srv, _ := newTestServer(t)
	token := registerAndLogin(t, srv)

	rec := doJSON(t, srv, http.MethodGet, "/api/transactions/report", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("report status = %d, body %s", rec.Code, rec.Body)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "attachment") {
		t.Errorf("Content-Disposition = %q, want attachment", got)
	}
	if !strings.Contains(rec.Body.String(), "No transactions found for this period.") {
		t.Error("empty report should carry the placeholder text")
	}
	if !strings.Contains(rec.Body.String(), "user@example.com") {
		t.Error("report should carry the owner's email")
	}
}

func TestCategoryConflictAndOwnership(t *testing.T) {
	srv, _ := newTestServer(t)
	token := registerAndLogin(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/categories", token, map[string]string{
		"name": "Food", "type": "EXPENSE",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	var cat core.Category
	if err := json.Unmarshal(rec.Body.Bytes(), &cat); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/categories", token, map[string]string{
		"name": "Food", "type": "EXPENSE",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", rec.Code)
	}

	// A second user cannot see or delete the first user's category.
	rec = doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "other@example.com", "password": "supersecret",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("second register status = %d", rec.Code)
	}
	var other authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &other); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if rec = doJSON(t, srv, http.MethodGet, "/api/categories/"+cat.ID, other.Token, nil); rec.Code != http.StatusNotFound {
		t.Errorf("foreign get status = %d, want 404", rec.Code)
	}
	if rec = doJSON(t, srv, http.MethodDelete, "/api/categories/"+cat.ID, other.Token, nil); rec.Code != http.StatusNotFound {
		t.Errorf("foreign delete status = %d, want 404", rec.Code)
	}
}

func TestNotificationsEndpoint(t *testing.T) {
	srv, repo := newTestServer(t)
	token := registerAndLogin(t, srv)

	u, err := repo.GetUserByEmail(context.Background(), "user@example.com")
	if err != nil {
		t.Fatalf("lookup user: %v", err)
	}
	repo.AddNotification(context.Background(), storage.Notification{
		OwnerID: u.ID, TransactionID: "t-1",
		AdviceClass: string(core.AdviceHighValue), Message: "big one",
	})
	repo.AddNotification(context.Background(), storage.Notification{
		OwnerID: "someone-else", TransactionID: "t-2",
		AdviceClass: string(core.AdviceNormal), Message: "not yours",
	})

	rec := doJSON(t, srv, http.MethodGet, "/api/notifications", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var ns []storage.Notification
	if err := json.Unmarshal(rec.Body.Bytes(), &ns); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(ns) != 1 || ns[0].Message != "big one" {
		t.Errorf("notifications = %+v, want only the owner's", ns)
	}
}
