package service

import (
	"fmt"
	"strings"
	"sync"

	"xrpl_control_room/internal/domain/entity"
)

var validThemes = map[string]bool{"dark": true, "light": true, "system": true}

// PreferenceService holds the persisted UI preferences.
type PreferenceService struct {
	mu      sync.RWMutex
	prefs   entity.Preferences
	changes notifier
}

func NewPreferenceService() *PreferenceService {
	return &PreferenceService{prefs: entity.DefaultPreferences()}
}

func (s *PreferenceService) Get() entity.Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

// Update validates and replaces the preferences. Empty fields keep their
// current value.
func (s *PreferenceService) Update(p entity.Preferences) (entity.Preferences, error) {
	s.mu.Lock()
	next := s.prefs
	if theme := strings.ToLower(strings.TrimSpace(p.Theme)); theme != "" {
		if !validThemes[theme] {
			s.mu.Unlock()
			return entity.Preferences{}, fmt.Errorf("%w: unknown theme %q", entity.ErrInvalidPreferences, p.Theme)
		}
		next.Theme = theme
	}
	if network := strings.ToLower(strings.TrimSpace(p.Network)); network != "" {
		next.Network = network
	}
	next.Profile = p.Profile
	s.prefs = next
	s.mu.Unlock()

	s.changes.publish("")
	return next, nil
}

// Restore replaces the preferences without notifying subscribers.
func (s *PreferenceService) Restore(p entity.Preferences) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs = p
}

func (s *PreferenceService) Subscribe() (<-chan string, func()) {
	return s.changes.subscribe()
}
