package cache

import (
	"container/list"
	"sync"
	"time"

	"intellisense-overlay/internal/win32"
)

// DefaultTTL bounds how long a class name is trusted. Window handles are
// recycled after a window is destroyed, so entries must not live forever.
const DefaultTTL = 5 * time.Second

// Service implements an LRU cache of window class names keyed by handle
type Service struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	entries map[win32.HWND]*list.Element
	lruList *list.List // front is most recently used
	now     func() time.Time

	hits   uint64
	misses uint64
}

// cacheEntry holds a cached class name with metadata
type cacheEntry struct {
	hwnd      win32.HWND
	className string
	timestamp time.Time
}

// New creates a new cache service
func New(maxSize int, ttl time.Duration) *Service {
	if maxSize <= 0 {
		maxSize = 256
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Service{
		maxSize: maxSize,
		ttl:     ttl,
		entries: make(map[win32.HWND]*list.Element),
		lruList: list.New(),
		now:     time.Now,
	}
}

// Get returns the cached class name for hwnd
func (s *Service) Get(hwnd win32.HWND) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, exists := s.entries[hwnd]
	if !exists {
		s.misses++
		return "", false
	}

	entry := elem.Value.(*cacheEntry)
	if s.now().Sub(entry.timestamp) > s.ttl {
		s.removeElement(elem)
		s.misses++
		return "", false
	}

	s.lruList.MoveToFront(elem)
	s.hits++
	return entry.className, true
}

// Set caches the class name for hwnd
func (s *Service) Set(hwnd win32.HWND, className string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, exists := s.entries[hwnd]; exists {
		entry := elem.Value.(*cacheEntry)
		entry.className = className
		entry.timestamp = s.now()
		s.lruList.MoveToFront(elem)
		return
	}

	elem := s.lruList.PushFront(&cacheEntry{
		hwnd:      hwnd,
		className: className,
		timestamp: s.now(),
	})
	s.entries[hwnd] = elem

	s.enforceMaxSize()
}

// GetOrLoad returns the cached class name or calls load and caches a
// non-empty result
func (s *Service) GetOrLoad(hwnd win32.HWND, load func(win32.HWND) string) string {
	if name, ok := s.Get(hwnd); ok {
		return name
	}
	name := load(hwnd)
	if name != "" {
		s.Set(hwnd, name)
	}
	return name
}

// Remove drops hwnd from the cache
func (s *Service) Remove(hwnd win32.HWND) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, exists := s.entries[hwnd]; exists {
		s.removeElement(elem)
	}
}

// enforceMaxSize removes old entries if cache exceeds max size
func (s *Service) enforceMaxSize() {
	for s.lruList.Len() > s.maxSize {
		if elem := s.lruList.Back(); elem != nil {
			s.removeElement(elem)
		}
	}
}

// removeElement must be called with s.mu held
func (s *Service) removeElement(elem *list.Element) {
	entry := elem.Value.(*cacheEntry)
	delete(s.entries, entry.hwnd)
	s.lruList.Remove(elem)
}

// Clear removes all entries from the cache
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[win32.HWND]*list.Element)
	s.lruList = list.New()
}

// Size returns the current cache size
func (s *Service) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lruList.Len()
}

// Stats returns cache statistics
func (s *Service) Stats() CacheStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return CacheStats{
		Size:    s.lruList.Len(),
		MaxSize: s.maxSize,
		Hits:    s.hits,
		Misses:  s.misses,
	}
}

// CacheStats holds cache statistics
type CacheStats struct {
	Size    int    `json:"size"`
	MaxSize int    `json:"max_size"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
}
