package types

import "time"

// CommitteeMember is an organizing/program committee entry shown on the
// public committee page.
type CommitteeMember struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	RoleTitle   string    `json:"role_title" db:"role_title"`
	Affiliation string    `json:"affiliation" db:"affiliation"`
	PhotoURL    string    `json:"photo_url,omitempty" db:"photo_url"`
	SortOrder   int       `json:"sort_order" db:"sort_order"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Speaker is an invited/keynote speaker entry.
type Speaker struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Title     string    `json:"title" db:"title"`
	Bio       string    `json:"bio" db:"bio"`
	PhotoURL  string    `json:"photo_url,omitempty" db:"photo_url"`
	TalkTitle string    `json:"talk_title,omitempty" db:"talk_title"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Event is a schedule entry (session, workshop, social event).
type Event struct {
	ID          int       `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Location    string    `json:"location" db:"location"`
	StartsAt    time.Time `json:"starts_at" db:"starts_at"`
	EndsAt      time.Time `json:"ends_at" db:"ends_at"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Setting is a site-wide key/value configuration entry editable by admins
// (registration deadline, fee amount, contact address, and the like).
type Setting struct {
	Key       string    `json:"key" db:"key"`
	Value     string    `json:"value" db:"value"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
