package tokenstore

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/diagnosis/pakbooking/internal/localstore"
	"github.com/diagnosis/pakbooking/pkg/config"
	"github.com/redis/go-redis/v9"
)

func newFileStore(t *testing.T) *FileStore {
	t.Helper()
	ls, err := localstore.Open(filepath.Join(t.TempDir(), "credentials.json"))
	if err != nil {
		t.Fatal(err)
	}
	return NewFileStore(ls)
}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisStore(rdb, "test"), mr
}

func backends(t *testing.T) map[string]Store {
	rs, _ := newRedisStore(t)
	return map[string]Store{
		"file":   newFileStore(t),
		"memory": NewMemoryStore(Pair{}),
		"redis":  rs,
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := s.Get(ctx, AccessToken); err != nil || ok {
				t.Fatalf("fresh store: ok=%v err=%v", ok, err)
			}

			if err := s.Set(ctx, AccessToken, "a1"); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if v, ok, _ := s.Get(ctx, AccessToken); !ok || v != "a1" {
				t.Fatalf("set not visible: %q %v", v, ok)
			}

			if err := s.SetPair(ctx, Pair{Access: "a2", Refresh: "r2"}); err != nil {
				t.Fatalf("SetPair: %v", err)
			}
			pair, err := Load(ctx, s)
			if err != nil {
				t.Fatal(err)
			}
			if pair != (Pair{Access: "a2", Refresh: "r2"}) {
				t.Fatalf("unexpected pair %+v", pair)
			}

			if err := s.Clear(ctx); err != nil {
				t.Fatalf("Clear: %v", err)
			}
			pair, _ = Load(ctx, s)
			if pair != (Pair{}) {
				t.Fatalf("clear left %+v", pair)
			}

			// Clearing an empty store is fine.
			if err := s.Clear(ctx); err != nil {
				t.Fatalf("second Clear: %v", err)
			}

			if err := s.Set(ctx, "session_cookie", "x"); err == nil {
				t.Fatal("unknown token names must be rejected")
			}
		})
	}
}

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "credentials.json")

	ls, _ := localstore.Open(path)
	if err := NewFileStore(ls).SetPair(ctx, Pair{Access: "a", Refresh: "r"}); err != nil {
		t.Fatal(err)
	}

	ls2, _ := localstore.Open(path)
	pair, _ := Load(ctx, NewFileStore(ls2))
	if pair.Access != "a" || pair.Refresh != "r" {
		t.Fatalf("tokens not durable: %+v", pair)
	}
}

func TestConcurrentSetPairAndClearNeverTear(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(2)
				go func() {
					defer wg.Done()
					_ = s.SetPair(ctx, Pair{Access: "a", Refresh: "r"})
				}()
				go func() {
					defer wg.Done()
					_ = s.Clear(ctx)
				}()
			}
			wg.Wait()

			pair, err := Load(ctx, s)
			if err != nil {
				t.Fatal(err)
			}
			if (pair.Access == "") != (pair.Refresh == "") {
				t.Fatalf("torn pair after concurrent writes: %+v", pair)
			}
		})
	}
}

func TestRedisStoreUsesPrefixedKeys(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t)

	_ = s.SetPair(ctx, Pair{Access: "a", Refresh: "r"})

	if v, err := mr.Get("test:access_token"); err != nil || v != "a" {
		t.Fatalf("expected prefixed access key, got %q err=%v", v, err)
	}
	if v, err := mr.Get("test:refresh_token"); err != nil || v != "r" {
		t.Fatalf("expected prefixed refresh key, got %q err=%v", v, err)
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	cfg := &config.Config{}
	cfg.Storage.Dir = t.TempDir()

	s, err := Open(ctx, cfg)
	if err != nil {
		t.Fatalf("file backend: %v", err)
	}
	if _, ok := s.(*FileStore); !ok {
		t.Fatalf("expected *FileStore, got %T", s)
	}

	cfg.Storage.TokenBackend = config.TokenBackendRedis
	cfg.Redis.URL = "redis://" + mr.Addr()
	s, err = Open(ctx, cfg)
	if err != nil {
		t.Fatalf("redis backend: %v", err)
	}
	rs, ok := s.(*RedisStore)
	if !ok {
		t.Fatalf("expected *RedisStore, got %T", s)
	}
	rs.Close()

	cfg.Storage.TokenBackend = "etcd"
	if _, err := Open(ctx, cfg); err == nil {
		t.Fatal("unknown backend should fail")
	}
}
