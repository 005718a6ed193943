package repository

import (
	"strings"
	"sync"
)

// StationCache maps upper-cased station names to station codes.
type StationCache struct {
	codes map[string]int
	mu    sync.RWMutex
}

// NewStationCache creates an empty station cache.
func NewStationCache() *StationCache {
	return &StationCache{codes: make(map[string]int)}
}

// AddStation caches the code of the station.
func (c *StationCache) AddStation(name string, code int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codes[strings.ToUpper(strings.TrimSpace(name))] = code
}

// StationCode returns the cached code of the station.
func (c *StationCache) StationCode(name string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	code, ok := c.codes[strings.ToUpper(strings.TrimSpace(name))]
	return code, ok
}

// StationName returns the cached station name when it is known exactly.
func (c *StationCache) StationName(name string) (string, bool) {
	key := strings.ToUpper(strings.TrimSpace(name))
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.codes[key]; ok {
		return key, true
	}
	return "", false
}

// Len returns the number of cached stations.
func (c *StationCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.codes)
}
