package store

import (
	"context"
	"fmt"
	"sync"

	"ebirth/internal/registration/models"
)

// Memory is an in-memory Store for tests and single-node development.
type Memory struct {
	mu        sync.RWMutex
	byUBRN    map[string]*models.Registration
	bySession map[string]*models.Registration
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		byUBRN:    make(map[string]*models.Registration),
		bySession: make(map[string]*models.Registration),
	}
}

func (s *Memory) Put(_ context.Context, reg *models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byUBRN[reg.UBRN]; exists {
		return fmt.Errorf("ubrn %s already registered", reg.UBRN)
	}
	cp := *reg
	s.byUBRN[reg.UBRN] = &cp
	if reg.SessionKey != "" {
		s.bySession[reg.SessionKey] = &cp
	}
	return nil
}

func (s *Memory) Get(_ context.Context, ubrn string) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reg, ok := s.byUBRN[ubrn]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *reg
	return &cp, nil
}

func (s *Memory) FindBySessionKey(_ context.Context, key string) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reg, ok := s.bySession[key]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *reg
	return &cp, nil
}
