package hardcover

// UserBookUpdate carries the user-book level fields of a write. Nil fields
// are left untouched.
type UserBookUpdate struct {
	StatusID  *StatusID `json:"status_id,omitempty"`
	Rating    *float64  `json:"rating,omitempty"`
	Review    *string   `json:"review_raw,omitempty"`
	EditionID *int      `json:"edition_id,omitempty"`
}

// Empty reports whether the update carries no field.
func (u UserBookUpdate) Empty() bool {
	return u.StatusID == nil && u.Rating == nil && u.Review == nil && u.EditionID == nil
}

// ReadUpdate carries the reading-session fields of a write.
type ReadUpdate struct {
	ProgressPages *int     `json:"progress_pages,omitempty"`
	Progress      *float64 `json:"progress,omitempty"`
	StartedAt     *string  `json:"started_at,omitempty"`
	FinishedAt    *string  `json:"finished_at,omitempty"`
	EditionID     *int     `json:"edition_id,omitempty"`
}

// Empty reports whether the update carries no field.
func (u ReadUpdate) Empty() bool {
	return u.ProgressPages == nil && u.Progress == nil && u.StartedAt == nil && u.FinishedAt == nil && u.EditionID == nil
}
