package modeldb

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	pebblestore "github.com/rzbill/modeldb/internal/storage/pebble"
	"github.com/rzbill/modeldb/pkg/kv"
	"github.com/rzbill/modeldb/pkg/model"
	"github.com/rzbill/modeldb/pkg/react"
)

type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

type Adult struct {
	ID    string `json:"id"`
	First string `json:"first"`
	Last  string `json:"last"`
	Birth Date   `json:"birth"`
}

func adultMetadata(a *Adult) model.Metadata {
	return model.NewMetadata(model.ValueOf(a.ID),
		model.Index{Name: "name", Value: model.ValueOf(a.Last, a.First)},
		model.Index{Name: "birth", Value: model.ValueOf(a.Birth.Year, a.Birth.Month, a.Birth.Day)},
	)
}

func testRegistry(t *testing.T) *model.Registry {
	t.Helper()
	reg := model.NewRegistry()
	if err := model.Register(reg, "Adult", adultMetadata); err != nil {
		t.Fatalf("register: %v", err)
	}
	return reg
}

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(pebblestore.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeNever}, Options{Registry: testRegistry(t)})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newMemDB(t *testing.T) (*DB, *memStore) {
	t.Helper()
	ms := newMemStore()
	db, err := New(ms, Options{Registry: testRegistry(t)})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, ms
}

func salomon() *Adult {
	return &Adult{ID: "BRYS", First: "Salomon", Last: "BRYS", Birth: Date{1986, 12, 15}}
}

func laila() *Adult {
	return &Adult{ID: "ATIE", First: "Laila", Last: "ATIE", Birth: Date{1989, 1, 28}}
}

// memStore is an in-memory kv.Store with fault injection.
type memStore struct {
	mu        sync.Mutex
	data      map[string][]byte
	gets      int
	writes    int
	failWrite error
}

func newMemStore() *memStore { return &memStore{data: make(map[string][]byte)} }

func (s *memStore) Get(key []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	v, ok := s.data[string(key)]
	if !ok {
		return nil, kv.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *memStore) Write(ctx context.Context, muts []kv.Mutation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrite != nil {
		return s.failWrite
	}
	s.writes++
	for _, m := range muts {
		if m.Delete {
			delete(s.data, string(m.Key))
			continue
		}
		s.data[string(m.Key)] = append([]byte(nil), m.Value...)
	}
	return nil
}

func (s *memStore) Scan(prefix []byte, fn func(key, value []byte) bool) error {
	s.mu.Lock()
	var keys []string
	for k := range s.data {
		if bytes.HasPrefix([]byte(k), prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	vals := make([][]byte, len(keys))
	for i, k := range keys {
		vals[i] = s.data[k]
	}
	s.mu.Unlock()
	for i, k := range keys {
		if !fn([]byte(k), vals[i]) {
			break
		}
	}
	return nil
}

func (s *memStore) Close() error { return nil }

func (s *memStore) getCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets
}

func (s *memStore) snapshot() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.data))
	for k, v := range s.data {
		out[k] = string(v)
	}
	return out
}

// events is a concurrency-safe call log shared by recording listeners.
type events struct {
	mu  sync.Mutex
	log []string
}

func (e *events) add(format string, args ...any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.log = append(e.log, fmt.Sprintf(format, args...))
}

func (e *events) list() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.log...)
}

func (e *events) reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.log = nil
}

// recorder logs every callback it receives and fails the ones configured to.
type recorder struct {
	react.Base
	name    string
	ev      *events
	subs    int
	willErr error
	didErr  error
}

func (r *recorder) SetSubscription(*react.Subscription) { r.subs++ }

func (r *recorder) WillPut(_ any, typeName string, md model.Metadata) error {
	r.ev.add("%s willPut %s", r.name, model.Key{Type: typeName, ID: md.ID})
	return r.willErr
}

func (r *recorder) DidPut(_ any, typeName string, md model.Metadata) error {
	r.ev.add("%s didPut %s", r.name, model.Key{Type: typeName, ID: md.ID})
	return r.didErr
}

func (r *recorder) WillDelete(key model.Key, _ string, _ func() (any, error)) error {
	r.ev.add("%s willDelete %s", r.name, key)
	return r.willErr
}

func (r *recorder) DidDelete(key model.Key, _ string) error {
	r.ev.add("%s didDelete %s", r.name, key)
	return r.didErr
}

func assertEvents(t *testing.T, got []string, want ...string) {
	t.Helper()
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("events:\n  %s\nwant:\n  %s", strings.Join(got, "\n  "), strings.Join(want, "\n  "))
	}
}
