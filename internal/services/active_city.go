package services

import (
	"sync"

	"weather-dashboard/internal/models"
)

// Token identifies one selection of the active city. A view captures it before
// fetching and applies the response only while IsCurrent(token) holds.
type Token uint64

// ActiveCity is the process-wide city selection shared by every view.
type ActiveCity struct {
	mu         sync.RWMutex
	city       models.City
	generation Token
}

// NewActiveCity starts with fallback selected.
func NewActiveCity(fallback models.City) *ActiveCity {
	return &ActiveCity{city: fallback}
}

// Get returns the selected city and its token.
func (a *ActiveCity) Get() (models.City, Token) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.city, a.generation
}

// City returns the selected city.
func (a *ActiveCity) City() models.City {
	c, _ := a.Get()
	return c
}

// Set selects city and returns the new token. Every Set supersedes all earlier tokens,
// even when the city is unchanged.
func (a *ActiveCity) Set(city models.City) Token {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.generation++
	a.city = city
	return a.generation
}

// IsCurrent reports whether tok is still the latest selection.
func (a *ActiveCity) IsCurrent(tok Token) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return tok == a.generation
}
