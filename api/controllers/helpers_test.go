package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/angelmondragon/kickfinderz-backend/internal/cart"
	"github.com/angelmondragon/kickfinderz-backend/internal/identity"
	"github.com/angelmondragon/kickfinderz-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/kickfinderz-backend/pkg/errors"
	"github.com/angelmondragon/kickfinderz-backend/pkg/logger"
	"github.com/angelmondragon/kickfinderz-backend/pkg/notify"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Notices []notify.Notice `json:"notices"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func as(req *http.Request, id identity.Identity) *http.Request {
	return req.WithContext(identity.WithContext(req.Context(), id))
}

type memRemote struct {
	mu   sync.Mutex
	rows map[uuid.UUID][]models.CartRow
}

func (m *memRemote) List(_ context.Context, userID uuid.UUID) ([]models.CartRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.CartRow(nil), m.rows[userID]...), nil
}

func (m *memRemote) Replace(_ context.Context, userID uuid.UUID, rows []models.CartRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rows == nil {
		m.rows = map[uuid.UUID][]models.CartRow{}
	}
	m.rows[userID] = append([]models.CartRow(nil), rows...)
	return nil
}

func newCartRegistry(t *testing.T, remote cart.RemoteRepository) *cart.Registry {
	t.Helper()
	if remote == nil {
		remote = &memRemote{}
	}
	reg, err := cart.NewRegistry(cart.RegistryConfig{
		Cache:  cart.NewMemoryCache(),
		Remote: remote,
		Logger: logger.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close(context.Background()) })
	return reg
}

type catalog map[uuid.UUID]models.Product

func (c catalog) GetProduct(_ context.Context, id uuid.UUID) (*models.Product, error) {
	p, ok := c[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return &p, nil
}

func sneaker(name, price string, stock int) models.Product {
	return models.Product{
		ID:       uuid.New(),
		SKU:      strings.ToUpper(strings.ReplaceAll(name, " ", "-")),
		Name:     name,
		Brand:    "Nike",
		Category: "lifestyle",
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		Sizes:    []string{"9", "10"},
		Colors:   []string{"black"},
		IsActive: true,
	}
}
