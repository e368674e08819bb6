package domain

import (
	"errors"
	"testing"
)

func TestNewUserProfile(t *testing.T) {
	t.Parallel()

	profile, err := NewUserProfile("user-123", "Ada", "ada@example.com")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if profile.Identity != "user-123" {
		t.Errorf("Expected identity user-123, got %s", profile.Identity)
	}
	if profile.DisplayName != "Ada" {
		t.Errorf("Expected display name Ada, got %s", profile.DisplayName)
	}
	if profile.Level != 1 {
		t.Errorf("Expected level 1, got %d", profile.Level)
	}
	if profile.TotalExperience != 0 {
		t.Errorf("Expected zero experience, got %d", profile.TotalExperience)
	}
	if profile.SolvedItems == nil || len(profile.SolvedItems) != 0 {
		t.Errorf("Expected empty non-nil solved set, got %v", profile.SolvedItems)
	}
	if profile.UpdatedAt.IsZero() {
		t.Error("Expected non-zero UpdatedAt time")
	}

	_, err = NewUserProfile("", "Ada", "ada@example.com")
	if !errors.Is(err, ErrEmptyIdentity) {
		t.Errorf("Expected ErrEmptyIdentity, got %v", err)
	}
}

func TestNewUserProfileDisplayNameFallback(t *testing.T) {
	t.Parallel()

	profile, err := NewUserProfile("user-123", "", "ada@example.com")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if profile.DisplayName != "ada" {
		t.Errorf("Expected display name ada, got %s", profile.DisplayName)
	}

	profile, err = NewUserProfile("user-123", "", "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if profile.DisplayName != DefaultDisplayName {
		t.Errorf("Expected display name %s, got %s", DefaultDisplayName, profile.DisplayName)
	}
}

func TestUserProfileValidate(t *testing.T) {
	t.Parallel()

	profile, err := NewUserProfile("user-123", "Ada", "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	profile.Level = 0
	if err := profile.Validate(); !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("Expected ErrInvalidLevel, got %v", err)
	}

	profile.Level = 1
	profile.TotalExperience = -1
	if err := profile.Validate(); !errors.Is(err, ErrNegativeExperience) {
		t.Errorf("Expected ErrNegativeExperience, got %v", err)
	}
}

func TestUserProfileSolvedCount(t *testing.T) {
	t.Parallel()

	profile := &UserProfile{SolvedItems: []string{"a", "b", "c"}}
	if count := profile.SolvedCount(); count != 3 {
		t.Errorf("Expected solved count 3, got %d", count)
	}
}

func TestPlaylistItemValidate(t *testing.T) {
	t.Parallel()

	item := &PlaylistItem{ID: "two-sum", Title: "Two Sum"}
	if err := item.Validate(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	empty := &PlaylistItem{}
	if err := empty.Validate(); !errors.Is(err, ErrEmptyItemID) {
		t.Errorf("Expected ErrEmptyItemID, got %v", err)
	}
}
