package api

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/astropet-api/internal/domain"
)

func todayKey() string {
	return string(domain.NewDateKey(time.Now()))
}

func TestJournalAutoLogsSolvedItems(t *testing.T) {
	router, _ := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/api/playlist/two-sum/solved", nil)
	doJSON(t, router, http.MethodPost, "/api/playlist/valid-anagram/solved", nil)

	rec := doJSON(t, router, http.MethodGet, "/api/journal", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp JournalResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, todayKey(), string(resp.Entries[0].Date))
	assert.ElementsMatch(t, []string{"two-sum", "valid-anagram"}, resp.Entries[0].Problems)
}

func TestSetNotesToday(t *testing.T) {
	router, _ := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/api/playlist/two-sum/solved", nil)

	rec := doJSON(t, router, http.MethodPut, "/api/journal/"+todayKey()+"/notes",
		SetNotesRequest{Notes: "sliding window clicked"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/journal", nil)
	var resp JournalResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "sliding window clicked", resp.Entries[0].Notes)
}

func TestSetNotesPastDateIsConflict(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPut, "/api/journal/2020-01-01/notes",
		SetNotesRequest{Notes: "too late"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSetNotesMalformedDate(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPut, "/api/journal/not-a-date/notes",
		SetNotesRequest{Notes: "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMoodLifecycle(t *testing.T) {
	router, _ := newTestRouter(t)
	today := todayKey()

	rec := doJSON(t, router, http.MethodPut, "/api/moods/"+today,
		SetMoodRequest{Mood: "positive", Note: "good session"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/moods", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var moods MoodLogResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &moods))
	require.Len(t, moods.Entries, 1)
	assert.Equal(t, domain.MoodPositive, moods.Entries[0].Mood)
	assert.Equal(t, "good session", moods.Entries[0].Note)

	rec = doJSON(t, router, http.MethodPut, "/api/moods/"+today+"/note",
		SetMoodNoteRequest{Note: "revised note"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/moods", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &moods))
	assert.Equal(t, "revised note", moods.Entries[0].Note)
}

func TestSetMoodRejectsUnknownMood(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPut, "/api/moods/"+todayKey(),
		SetMoodRequest{Mood: "ecstatic"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetMoodPastDateIsConflict(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPut, "/api/moods/2020-01-01",
		SetMoodRequest{Mood: "neutral"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSetMoodNoteWithoutMoodIsNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPut, "/api/moods/"+todayKey()+"/note",
		SetMoodNoteRequest{Note: "orphan"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMoodStatistics(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPut, "/api/moods/"+todayKey(),
		SetMoodRequest{Mood: "negative"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/moods/statistics", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats domain.MoodStatistics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 100, stats.ByMood[domain.MoodNegative].Percentage)
}
