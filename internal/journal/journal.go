// Package journal keeps the per-day study ledger: which items were solved on
// each date, free-form notes, and a mood log. Days in the past are immutable;
// today and future dates accept edits.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/phrazzld/astropet-api/internal/domain"
	"github.com/phrazzld/astropet-api/internal/events"
	"github.com/phrazzld/astropet-api/internal/store"
)

const (
	journalKeyPrefix = "journal:"
	moodKeyPrefix    = "moodlog:"
)

// Store owns the journal and mood ledgers for one identity. Every mutation
// persists the affected ledger to the local cache before returning.
type Store struct {
	identity string
	cache    store.CacheStore
	logger   *slog.Logger

	// timeFunc supplies the current time; injectable for tests.
	timeFunc func() time.Time

	mu      sync.Mutex
	entries map[domain.DateKey]*domain.JournalEntry
	moods   map[domain.DateKey]*domain.MoodEntry
}

// NewStore creates a journal Store for the given identity. If logger is nil,
// a default logger will be used.
func NewStore(identity string, cache store.CacheStore, logger *slog.Logger) (*Store, error) {
	if identity == "" {
		return nil, domain.ErrEmptyIdentity
	}
	if cache == nil {
		return nil, domain.NewValidationError("cache", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		identity: identity,
		cache:    cache,
		logger:   logger.With(slog.String("component", "journal_store")),
		timeFunc: time.Now,
		entries:  make(map[domain.DateKey]*domain.JournalEntry),
		moods:    make(map[domain.DateKey]*domain.MoodEntry),
	}, nil
}

// Load reads both ledgers from the local cache at session start. Missing or
// malformed entries yield empty ledgers; Load never fails the session over
// cache state.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[domain.DateKey]*domain.JournalEntry)
	s.moods = make(map[domain.DateKey]*domain.MoodEntry)

	if entries, ok := s.loadLedger(ctx, s.journalKey(), "journal"); ok {
		var decoded []domain.JournalEntry
		if err := json.Unmarshal(entries, &decoded); err != nil {
			s.logger.Warn("journal cache is malformed, starting empty",
				slog.String("error", err.Error()))
		} else {
			for i := range decoded {
				entry := decoded[i]
				s.entries[entry.Date] = &entry
			}
		}
	}

	if moods, ok := s.loadLedger(ctx, s.moodKey(), "mood log"); ok {
		var decoded []domain.MoodEntry
		if err := json.Unmarshal(moods, &decoded); err != nil {
			s.logger.Warn("mood log cache is malformed, starting empty",
				slog.String("error", err.Error()))
		} else {
			for i := range decoded {
				entry := decoded[i]
				s.moods[entry.Date] = &entry
			}
		}
	}
}

func (s *Store) loadLedger(ctx context.Context, key, name string) ([]byte, bool) {
	payload, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrCacheMiss) {
			s.logger.Warn("failed to read cache, starting empty",
				slog.String("ledger", name),
				slog.String("error", err.Error()))
		}
		return nil, false
	}
	return payload, true
}

// LogSolved records today's snapshot of solved work. The entry holds the
// daily delta: identifiers in the current solved set that no earlier date
// already claims. Today's problem list is replaced wholesale on every call,
// so unmarking an item within the day drops it from today's entry. Notes on
// today's entry survive.
func (s *Store) LogSolved(ctx context.Context, solvedIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.today()

	claimed := make(map[string]bool)
	for date, entry := range s.entries {
		if date.Before(today) {
			for _, id := range entry.Problems {
				claimed[id] = true
			}
		}
	}

	delta := make([]string, 0, len(solvedIDs))
	for _, id := range solvedIDs {
		if !claimed[id] {
			delta = append(delta, id)
		}
	}

	entry, ok := s.entries[today]
	if !ok {
		if len(delta) == 0 {
			return nil
		}
		entry = &domain.JournalEntry{Date: today}
		s.entries[today] = entry
	}
	entry.Problems = delta

	if len(entry.Problems) == 0 && entry.Notes == "" {
		delete(s.entries, today)
	}

	return s.persistJournalLocked(ctx)
}

// HandleEvent auto-logs the solved set carried by a change event into
// today's journal entry.
func (s *Store) HandleEvent(ctx context.Context, event *events.SolvedSetChangedEvent) error {
	return s.LogSolved(ctx, event.SolvedItems)
}

var _ events.EventHandler = (*Store)(nil)

// SetNotes attaches free-form notes to the entry for the given date. Past
// dates are immutable; today and future dates are editable. Setting notes on
// a date with no entry creates one.
func (s *Store) SetNotes(ctx context.Context, date domain.DateKey, notes string) error {
	if err := date.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if date.Before(s.today()) {
		return fmt.Errorf("cannot edit notes for %s: %w", date, domain.ErrEditWindowClosed)
	}

	entry, ok := s.entries[date]
	if !ok {
		entry = &domain.JournalEntry{Date: date}
		s.entries[date] = entry
	}
	entry.Notes = notes

	if entry.Notes == "" && len(entry.Problems) == 0 {
		delete(s.entries, date)
	}

	return s.persistJournalLocked(ctx)
}

// SetMood records the mood for the given date, replacing any earlier mood for
// that date. Past dates are immutable.
func (s *Store) SetMood(ctx context.Context, date domain.DateKey, mood domain.Mood) error {
	if err := date.Validate(); err != nil {
		return err
	}
	if !mood.Valid() {
		return fmt.Errorf("mood %q: %w", mood, domain.ErrInvalidMood)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if date.Before(s.today()) {
		return fmt.Errorf("cannot set mood for %s: %w", date, domain.ErrEditWindowClosed)
	}

	entry, ok := s.moods[date]
	if !ok {
		entry = &domain.MoodEntry{Date: date}
		s.moods[date] = entry
	}
	entry.Mood = mood

	return s.persistMoodsLocked(ctx)
}

// SetMoodNote attaches a note to the mood entry for the given date. The date
// must already carry a mood. Past dates are immutable.
func (s *Store) SetMoodNote(ctx context.Context, date domain.DateKey, note string) error {
	if err := date.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if date.Before(s.today()) {
		return fmt.Errorf("cannot edit mood note for %s: %w", date, domain.ErrEditWindowClosed)
	}

	entry, ok := s.moods[date]
	if !ok {
		return fmt.Errorf("no mood recorded for %s: %w", date, store.ErrNotFound)
	}
	entry.Note = note

	return s.persistMoodsLocked(ctx)
}

// Entries returns every journal entry, most recent date first.
func (s *Store) Entries() []domain.JournalEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedEntriesLocked()
}

// Entry returns the journal entry for the given date, or store.ErrNotFound.
func (s *Store) Entry(date domain.DateKey) (domain.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[date]
	if !ok {
		return domain.JournalEntry{}, fmt.Errorf("no journal entry for %s: %w", date, store.ErrNotFound)
	}
	return *entry, nil
}

// Moods returns every mood entry, most recent date first.
func (s *Store) Moods() []domain.MoodEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedMoodsLocked()
}

// MoodStatistics aggregates the mood ledger into per-mood counts and integer
// percentages. Percentages are rounded half away from zero, so a 2/1 split of
// positive and negative reports as 67 and 33.
func (s *Store) MoodStatistics() domain.MoodStatistics {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := domain.MoodStatistics{
		Total:  len(s.moods),
		ByMood: make(map[domain.Mood]domain.MoodCount),
	}
	if stats.Total == 0 {
		return stats
	}

	counts := make(map[domain.Mood]int)
	for _, entry := range s.moods {
		counts[entry.Mood]++
	}
	for mood, count := range counts {
		stats.ByMood[mood] = domain.MoodCount{
			Count:      count,
			Percentage: int(math.Round(float64(count) / float64(stats.Total) * 100)),
		}
	}
	return stats
}

func (s *Store) today() domain.DateKey {
	return domain.NewDateKey(s.timeFunc())
}

func (s *Store) journalKey() string {
	return journalKeyPrefix + s.identity
}

func (s *Store) moodKey() string {
	return moodKeyPrefix + s.identity
}

func (s *Store) sortedEntriesLocked() []domain.JournalEntry {
	entries := make([]domain.JournalEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		entries = append(entries, *entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[j].Date.Before(entries[i].Date)
	})
	return entries
}

func (s *Store) sortedMoodsLocked() []domain.MoodEntry {
	entries := make([]domain.MoodEntry, 0, len(s.moods))
	for _, entry := range s.moods {
		entries = append(entries, *entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[j].Date.Before(entries[i].Date)
	})
	return entries
}

func (s *Store) persistJournalLocked(ctx context.Context) error {
	payload, err := json.Marshal(s.sortedEntriesLocked())
	if err != nil {
		return fmt.Errorf("failed to encode journal: %w", err)
	}
	if err := s.cache.Set(ctx, s.journalKey(), payload); err != nil {
		return fmt.Errorf("failed to persist journal: %w", err)
	}
	return nil
}

func (s *Store) persistMoodsLocked(ctx context.Context) error {
	payload, err := json.Marshal(s.sortedMoodsLocked())
	if err != nil {
		return fmt.Errorf("failed to encode mood log: %w", err)
	}
	if err := s.cache.Set(ctx, s.moodKey(), payload); err != nil {
		return fmt.Errorf("failed to persist mood log: %w", err)
	}
	return nil
}
