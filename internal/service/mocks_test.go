package service

import (
	"context"
	"io"
	"io/fs"
	"sync"

	"github.com/dukerupert/bakehouse/internal/domain"
	"github.com/dukerupert/bakehouse/internal/email"
	"github.com/dukerupert/bakehouse/internal/memory"
	"github.com/dukerupert/bakehouse/internal/storage"
	"github.com/google/uuid"
)

// mockProductRepo delegates to a memory store unless a func field overrides
// the method.
type mockProductRepo struct {
	*memory.ProductStore

	listFunc     func(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	createFunc   func(ctx context.Context, in domain.ProductInput) (*domain.Product, error)
	updateFunc   func(ctx context.Context, id uuid.UUID, in domain.ProductInput) (*domain.Product, error)
	toggleFunc   func(ctx context.Context, id uuid.UUID, field domain.ToggleField) (bool, error)
	setImageFunc func(ctx context.Context, id uuid.UUID, imageURL *string) (*domain.Product, error)
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{ProductStore: memory.NewProductStore()}
}

func (m *mockProductRepo) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filter)
	}
	return m.ProductStore.List(ctx, filter)
}

func (m *mockProductRepo) Create(ctx context.Context, in domain.ProductInput) (*domain.Product, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, in)
	}
	return m.ProductStore.Create(ctx, in)
}

func (m *mockProductRepo) Update(ctx context.Context, id uuid.UUID, in domain.ProductInput) (*domain.Product, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, in)
	}
	return m.ProductStore.Update(ctx, id, in)
}

func (m *mockProductRepo) Toggle(ctx context.Context, id uuid.UUID, field domain.ToggleField) (bool, error) {
	if m.toggleFunc != nil {
		return m.toggleFunc(ctx, id, field)
	}
	return m.ProductStore.Toggle(ctx, id, field)
}

func (m *mockProductRepo) SetImage(ctx context.Context, id uuid.UUID, imageURL *string) (*domain.Product, error) {
	if m.setImageFunc != nil {
		return m.setImageFunc(ctx, id, imageURL)
	}
	return m.ProductStore.SetImage(ctx, id, imageURL)
}

type mockContactRepo struct {
	createFunc func(ctx context.Context, s domain.ContactSubmission) (*domain.ContactSubmission, error)
}

func (m *mockContactRepo) Create(ctx context.Context, s domain.ContactSubmission) (*domain.ContactSubmission, error) {
	return m.createFunc(ctx, s)
}

type mockNotifier struct {
	mu       sync.Mutex
	sendFunc func(ctx context.Context, data email.ContactNotification) (string, error)
	sent     []email.ContactNotification
}

func (m *mockNotifier) SendContactNotification(ctx context.Context, data email.ContactNotification) (string, error) {
	m.mu.Lock()
	m.sent = append(m.sent, data)
	m.mu.Unlock()
	if m.sendFunc != nil {
		return m.sendFunc(ctx, data)
	}
	return "msg-1", nil
}

func (m *mockNotifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// mockStorage keeps objects in memory and counts calls.
type mockStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    int
	deletes []string
	putFunc func(key string) error
}

func newMockStorage() *mockStorage {
	return &mockStorage{objects: map[string][]byte{}}
}

func (m *mockStorage) Put(ctx context.Context, key string, content io.Reader, opts storage.PutOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.putFunc != nil {
		if err := m.putFunc(key); err != nil {
			return "", err
		}
	}
	if _, exists := m.objects[key]; exists {
		return "", storage.ErrObjectExists(key)
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	m.objects[key] = data
	return m.URL(key), nil
}

func (m *mockStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, fs.ErrNotExist
}

func (m *mockStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, key)
	delete(m.objects, key)
	return nil
}

func (m *mockStorage) URL(key string) string {
	return "/uploads/" + key
}

func (m *mockStorage) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *mockStorage) putCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}
