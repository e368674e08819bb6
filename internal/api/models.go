package api

import (
	"time"

	"github.com/phrazzld/astropet-api/internal/domain"
)

// Common request/response structures

// ProfileResponse describes the working profile plus the progression derived
// from the live solved set.
type ProfileResponse struct {
	Identity        string    `json:"identity"`
	DisplayName     string    `json:"display_name"`
	Email           string    `json:"email,omitempty"`
	Level           int       `json:"level"`
	TotalExperience int       `json:"total_experience"`
	XP              int       `json:"xp"`
	SolvedCount     int       `json:"solved_count"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ProgressionResponse is the derived level/XP pair.
type ProgressionResponse struct {
	Level int `json:"level"`
	XP    int `json:"xp"`
}

// AddItemRequest defines the payload for adding a playlist item.
type AddItemRequest struct {
	ID    string `json:"id"    validate:"required"`
	Title string `json:"title"`
	URL   string `json:"url"   validate:"omitempty,url"`
}

// PlaylistResponse lists the tracked items, solved subset included.
type PlaylistResponse struct {
	Items       []domain.PlaylistItem `json:"items"`
	SolvedCount int                   `json:"solved_count"`
}

// SetNotesRequest defines the payload for updating a journal entry's notes.
type SetNotesRequest struct {
	Notes string `json:"notes"`
}

// SetMoodRequest defines the payload for recording a day's mood.
type SetMoodRequest struct {
	Mood string `json:"mood" validate:"required,oneof=positive neutral negative"`
	Note string `json:"note"`
}

// SetMoodNoteRequest defines the payload for annotating a recorded mood.
type SetMoodNoteRequest struct {
	Note string `json:"note" validate:"required"`
}

// JournalResponse lists the journal entries, most recent first.
type JournalResponse struct {
	Entries []domain.JournalEntry `json:"entries"`
}

// MoodLogResponse lists the mood entries, most recent first.
type MoodLogResponse struct {
	Entries []domain.MoodEntry `json:"entries"`
}

// AssistantRequest defines the payload for the assistant relay.
type AssistantRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}

// AssistantResponse carries the model's free-text reply.
type AssistantResponse struct {
	Text string `json:"text"`
}
