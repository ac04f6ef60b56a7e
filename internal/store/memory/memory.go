// Package memory keeps lenders and applications in process memory. It backs
// local development and the end-to-end tests.
package memory

import (
	"context"
	"encoding/json"
	"sync"

	"msme-lender-platform/internal/models"
	"msme-lender-platform/internal/store"
)

type LenderStore struct {
	mu      sync.RWMutex
	lenders map[string]models.LenderConfig
}

func NewLenderStore() *LenderStore {
	return &LenderStore{lenders: make(map[string]models.LenderConfig)}
}

func (s *LenderStore) List(_ context.Context) ([]models.LenderConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.LenderConfig, 0, len(s.lenders))
	for _, l := range s.lenders {
		out = append(out, l)
	}
	store.SortLenders(out)
	return out, nil
}

func (s *LenderStore) Get(_ context.Context, id string) (*models.LenderConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.lenders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &l, nil
}

func (s *LenderStore) Save(_ context.Context, lender *models.LenderConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lenders[lender.ID] = *lender
	return nil
}

func (s *LenderStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lenders[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.lenders, id)
	return nil
}

func (s *LenderStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.lenders)), nil
}

func (s *LenderStore) ReplaceDefaults(_ context.Context, defaults []models.LenderConfig) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := make([]models.LenderConfig, 0, len(s.lenders))
	for _, l := range s.lenders {
		existing = append(existing, l)
	}
	previous, err := store.CheckDefaults(existing, defaults)
	if err != nil {
		return 0, err
	}

	for id, l := range s.lenders {
		if l.IsDefault {
			delete(s.lenders, id)
		}
	}
	for _, l := range defaults {
		s.lenders[l.ID] = l
	}
	return previous, nil
}

func (s *LenderStore) InsertMany(_ context.Context, lenders []models.LenderConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range lenders {
		s.lenders[l.ID] = l
	}
	return nil
}

type ApplicationStore struct {
	mu   sync.RWMutex
	apps map[string]models.Application
}

func NewApplicationStore() *ApplicationStore {
	return &ApplicationStore{apps: make(map[string]models.Application)}
}

func (s *ApplicationStore) List(_ context.Context) ([]models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Application, 0, len(s.apps))
	for _, a := range s.apps {
		out = append(out, cloneApplication(a))
	}
	store.SortApplications(out)
	return out, nil
}

func (s *ApplicationStore) Get(_ context.Context, id string) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.apps[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := cloneApplication(a)
	return &c, nil
}

func (s *ApplicationStore) Insert(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apps[app.ID] = cloneApplication(*app)
	return nil
}

func (s *ApplicationStore) Update(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.apps[app.ID]; !ok {
		return store.ErrNotFound
	}
	s.apps[app.ID] = cloneApplication(*app)
	return nil
}

func (s *ApplicationStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.apps[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.apps, id)
	return nil
}

// cloneApplication copies the pointer and map fields so callers cannot
// mutate stored state.
func cloneApplication(a models.Application) models.Application {
	if a.AssignedLender != nil {
		al := *a.AssignedLender
		a.AssignedLender = &al
	}
	if a.UploadedFiles != nil {
		raw, err := json.Marshal(a.UploadedFiles)
		if err == nil {
			files := map[string]interface{}{}
			if json.Unmarshal(raw, &files) == nil {
				a.UploadedFiles = files
			}
		}
	}
	return a
}

var (
	_ store.LenderStore      = (*LenderStore)(nil)
	_ store.ApplicationStore = (*ApplicationStore)(nil)
)
