package message

import (
	"context"
	"io"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Message is a single tribute on the board.
// ID, AuthorID, Timestamp and Rotation are assigned once by the store.
type Message struct {
	ID                  string    `json:"id"`
	AuthorID            string    `json:"authorId"`
	Name                string    `json:"name"`
	Category            Category  `json:"category"`
	Content             string    `json:"content"`
	LeadershipPrinciple string    `json:"leadershipPrinciple,omitempty"`
	Color               string    `json:"color"`
	MediaURL            string    `json:"mediaUrl,omitempty"`
	MediaType           MediaType `json:"mediaType,omitempty"`
	Timestamp           int64     `json:"timestamp"` // ms since epoch
	Rotation            float64   `json:"rotation"`  // degrees, [-2, 2]
}

// Draft holds the user-supplied fields of a new message.
type Draft struct {
	Name                string    `json:"name"`
	Category            Category  `json:"category"`
	Content             string    `json:"content"`
	LeadershipPrinciple string    `json:"leadershipPrinciple,omitempty"`
	MediaURL            string    `json:"mediaUrl,omitempty"`
	MediaType           MediaType `json:"mediaType,omitempty"`
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Name                *string    `json:"name,omitempty"`
	Category            *Category  `json:"category,omitempty"`
	Content             *string    `json:"content,omitempty"`
	LeadershipPrinciple *string    `json:"leadershipPrinciple,omitempty"`
	MediaURL            *string    `json:"mediaUrl,omitempty"`
	MediaType           *MediaType `json:"mediaType,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Name == nil && p.Category == nil && p.Content == nil &&
		p.LeadershipPrinciple == nil && p.MediaURL == nil && p.MediaType == nil
}

// Upload is a media file handed to a store.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Store is the contract both backends implement.
type Store interface {
	List(ctx context.Context) ([]Message, error)
	Add(ctx context.Context, d Draft) (*Message, error)
	Update(ctx context.Context, id string, p Patch) (*Message, error)
	Remove(ctx context.Context, id string) (bool, error)
	UploadMedia(ctx context.Context, u Upload) (string, error)
	// DiscardMedia releases an uploaded file no message ended up using.
	DiscardMedia(ctx context.Context, url string) error
}

// New builds a message from a validated draft, assigning the
// creation-time fields.
func New(d Draft, authorID string, now time.Time) Message {
	return Message{
		ID:                  NewID(),
		AuthorID:            authorID,
		Name:                d.Name,
		Category:            d.Category,
		Content:             d.Content,
		LeadershipPrinciple: d.LeadershipPrinciple,
		Color:               ColorFor(d.Category),
		MediaURL:            d.MediaURL,
		MediaType:           d.MediaType,
		Timestamp:           now.UnixMilli(),
		Rotation:            NewRotation(),
	}
}

// Apply merges p into m. Color follows the category.
func (m *Message) Apply(p Patch) {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Category != nil {
		m.Category = *p.Category
		m.Color = ColorFor(m.Category)
	}
	if p.Content != nil {
		m.Content = *p.Content
	}
	if p.LeadershipPrinciple != nil {
		m.LeadershipPrinciple = *p.LeadershipPrinciple
	}
	if p.MediaURL != nil {
		m.MediaURL = *p.MediaURL
	}
	if p.MediaType != nil {
		m.MediaType = *p.MediaType
	}
}

func NewID() string {
	return uuid.NewString()
}

// NewRotation returns a cosmetic tilt in [-2, 2] degrees.
func NewRotation() float64 {
	return rand.Float64()*4 - 2
}

// SortNewestFirst orders by timestamp descending, keeping insertion
// order for equal timestamps.
func SortNewestFirst(ms []Message) {
	sort.SliceStable(ms, func(i, j int) bool {
		return ms[i].Timestamp > ms[j].Timestamp
	})
}
