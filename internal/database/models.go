package database

import "time"

// Project is a saved editing project. Snapshot holds the serialized
// timeline.Snapshot JSON exactly as the editor produced it.
type Project struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	AspectRatio      string    `json:"aspectRatio"`
	DurationInFrames int       `json:"durationInFrames"`
	Snapshot         string    `json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Template is a reusable named timeline snapshot.
type Template struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Snapshot    string    `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
}

// RenderRecord is the persisted state of one render job.
type RenderRecord struct {
	ID         string    `json:"id"`
	ProjectID  int64     `json:"projectId,omitempty"`
	Status     string    `json:"status"`
	Format     string    `json:"format"`
	Codec      string    `json:"codec"`
	Progress   float64   `json:"progress"`
	OutputPath string    `json:"-"`
	Size       int64     `json:"size,omitempty"`
	Message    string    `json:"message,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// User is the single editor account.
type User struct {
	ID           int64     `json:"id"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Session is an authenticated editor session.
type Session struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}
