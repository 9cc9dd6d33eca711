package tokenstore

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/diagnosis/pakbooking/internal/localstore"
	"github.com/diagnosis/pakbooking/pkg/config"
)

const (
	AccessToken  = "access_token"
	RefreshToken = "refresh_token"
)

type Pair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Store holds the access/refresh pair. A Set is visible to the next Get.
// Clear removes both tokens in one step: no reader sees one without the
// other. Expiry is not tracked here; the backend signals it with a 401.
type Store interface {
	Get(ctx context.Context, name string) (string, bool, error)
	Set(ctx context.Context, name, value string) error
	SetPair(ctx context.Context, p Pair) error
	Clear(ctx context.Context) error
}

// Open selects the backend named in cfg.Storage.TokenBackend.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Storage.TokenBackend {
	case "", config.TokenBackendFile:
		ls, err := localstore.Open(filepath.Join(cfg.Storage.Dir, "credentials.json"))
		if err != nil {
			return nil, fmt.Errorf("open credential file: %w", err)
		}
		return NewFileStore(ls), nil
	case config.TokenBackendRedis:
		return NewRedisStoreFromConfig(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown token backend %q", cfg.Storage.TokenBackend)
	}
}

// Load reads both tokens; absent tokens are empty strings.
func Load(ctx context.Context, s Store) (Pair, error) {
	access, _, err := s.Get(ctx, AccessToken)
	if err != nil {
		return Pair{}, err
	}
	refresh, _, err := s.Get(ctx, RefreshToken)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Access: access, Refresh: refresh}, nil
}

func checkName(name string) error {
	if name != AccessToken && name != RefreshToken {
		return fmt.Errorf("unknown token name %q", name)
	}
	return nil
}

type FileStore struct {
	ls *localstore.Store
}

func NewFileStore(ls *localstore.Store) *FileStore {
	return &FileStore{ls: ls}
}

func (f *FileStore) Get(_ context.Context, name string) (string, bool, error) {
	if err := checkName(name); err != nil {
		return "", false, err
	}
	v, ok := f.ls.Get(name)
	return v, ok && v != "", nil
}

func (f *FileStore) Set(_ context.Context, name, value string) error {
	if err := checkName(name); err != nil {
		return err
	}
	return f.ls.Set(name, value)
}

func (f *FileStore) SetPair(_ context.Context, p Pair) error {
	return f.ls.Update(func(values map[string]string) {
		values[AccessToken] = p.Access
		values[RefreshToken] = p.Refresh
	})
}

func (f *FileStore) Clear(_ context.Context) error {
	return f.ls.Delete(AccessToken, RefreshToken)
}

type MemoryStore struct {
	mu   sync.RWMutex
	pair Pair
}

func NewMemoryStore(p Pair) *MemoryStore {
	return &MemoryStore{pair: p}
}

func (m *MemoryStore) Get(_ context.Context, name string) (string, bool, error) {
	if err := checkName(name); err != nil {
		return "", false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v := m.pair.Access
	if name == RefreshToken {
		v = m.pair.Refresh
	}
	return v, v != "", nil
}

func (m *MemoryStore) Set(_ context.Context, name, value string) error {
	if err := checkName(name); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if name == AccessToken {
		m.pair.Access = value
	} else {
		m.pair.Refresh = value
	}
	return nil
}

func (m *MemoryStore) SetPair(_ context.Context, p Pair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair = p
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair = Pair{}
	return nil
}

// Snapshot returns the current pair.
func (m *MemoryStore) Snapshot() Pair {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pair
}
