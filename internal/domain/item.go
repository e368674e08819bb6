package domain

// PlaylistItem is a practice item the user has added to their playlist. The
// tracker only needs the identifier for counting; Title and URL are display
// metadata preserved for the presentation layer.
type PlaylistItem struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	Solved bool   `json:"solved"`
}

// Validate checks if the PlaylistItem has valid data.
func (i *PlaylistItem) Validate() error {
	if i.ID == "" {
		return ErrEmptyItemID
	}
	return nil
}
