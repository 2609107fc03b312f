package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/weight-dispute-api/internal/application/ports"
	"github.com/jhoicas/weight-dispute-api/internal/domain"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
)

var (
	_ ports.Locker      = (*Locker)(nil)
	_ ports.ObjectStore = (*ObjectStore)(nil)
	_ ports.ZoneCache   = (*ZoneCache)(nil)
)

// Locker mutex por clave dentro del proceso.
type Locker struct {
	mu   sync.Mutex
	held map[string]chan struct{}
}

func NewLocker() *Locker {
	return &Locker{held: map[string]chan struct{}{}}
}

// Lock espera hasta liberar la clave o hasta que venza ctx.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	for {
		l.mu.Lock()
		ch, busy := l.held[key]
		if !busy {
			done := make(chan struct{})
			l.held[key] = done
			l.mu.Unlock()
			var once sync.Once
			return func() {
				once.Do(func() {
					l.mu.Lock()
					delete(l.held, key)
					l.mu.Unlock()
					close(done)
				})
			}, nil
		}
		l.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, domain.ErrLockNotObtained
		}
	}
}

// ObjectStore almacén de objetos en memoria.
type ObjectStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	types   map[string]string
}

func NewObjectStore() *ObjectStore {
	return &ObjectStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (o *ObjectStore) Put(_ context.Context, key string, data []byte, contentType string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.objects[key] = append([]byte(nil), data...)
	o.types[key] = contentType
	return "mem://" + key, nil
}

func (o *ObjectStore) Get(_ context.Context, key string) ([]byte, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	data, ok := o.objects[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// Keys claves almacenadas (para pruebas).
func (o *ObjectStore) Keys() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	keys := make([]string, 0, len(o.objects))
	for k := range o.objects {
		keys = append(keys, k)
	}
	return keys
}

type zoneEntry struct {
	zone    entity.Zone
	expires time.Time
}

// ZoneCache caché de zonas con vencimiento.
type ZoneCache struct {
	mu      sync.Mutex
	entries map[string]zoneEntry
	now     func() time.Time
}

func NewZoneCache() *ZoneCache {
	return &ZoneCache{entries: map[string]zoneEntry{}, now: time.Now}
}

func (c *ZoneCache) Get(_ context.Context, key string) (entity.Zone, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return "", false, nil
	}
	if !e.expires.IsZero() && c.now().After(e.expires) {
		delete(c.entries, key)
		return "", false, nil
	}
	return e.zone, true, nil
}

func (c *ZoneCache) Set(_ context.Context, key string, zone entity.Zone, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := zoneEntry{zone: zone}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.entries[key] = e
	return nil
}
