package inmemory

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"goshortlink/cache/cacher"
)

// New returns an in-memory cache for default usage.
func New(defaultExp, defaultClearInterval time.Duration) cacher.Engine {
	return &inMemory{
		engine:  gocache.New(defaultExp, defaultClearInterval),
		checked: make(map[string]struct{}),
	}
}

type inMemory struct {
	engine *gocache.Cache

	mu      sync.Mutex
	checked map[string]struct{}
}

func (i *inMemory) Get(code string) (*cacher.Entry, bool, error) {
	data, found := i.engine.Get(code)
	if !found {
		return nil, false, cacher.ErrEntryNotFound
	}
	entry, ok := data.(cacher.Entry)
	if !ok {
		return nil, false, cacher.ErrUnexpectedError
	}
	return &entry, true, nil
}

func (i *inMemory) Set(code string, entry *cacher.Entry, expiration time.Duration) error {
	i.engine.Set(code, *entry, expiration)
	return nil
}

func (i *inMemory) Delete(code string) error {
	i.engine.Delete(code)
	return nil
}

func (i *inMemory) Check(code string) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, taken := i.checked[code]; taken {
		return false, nil
	}
	i.checked[code] = struct{}{}
	return true, nil
}

func (i *inMemory) Uncheck(code string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.checked, code)
	return nil
}
