package remote

import (
	"fmt"

	"tributes/internal/message"
)

// Row is the wire representation of a message in the `messages` table.
type Row struct {
	ID                  string  `gorm:"column:id;primaryKey"`
	AuthorID            string  `gorm:"column:author_id;index;not null"`
	Name                string  `gorm:"column:name;not null"`
	Category            string  `gorm:"column:category;not null"`
	Content             string  `gorm:"column:content;type:text;not null"`
	MediaURL            *string `gorm:"column:media_url;type:text"`
	MediaType           *string `gorm:"column:media_type"`
	Timestamp           int64   `gorm:"column:timestamp;index;not null"`
	Rotation            float64 `gorm:"column:rotation;not null"`
	Color               string  `gorm:"column:color;not null"`
	LeadershipPrinciple *string `gorm:"column:leadership_principle"`
}

func (Row) TableName() string { return "messages" }

// columns maps application field names to wire column names.
// Every translation between the two namings goes through this table,
// toRow and fromRow.
var columns = map[string]string{
	"id":                  "id",
	"authorId":            "author_id",
	"name":                "name",
	"category":            "category",
	"content":             "content",
	"mediaUrl":            "media_url",
	"mediaType":           "media_type",
	"timestamp":           "timestamp",
	"rotation":            "rotation",
	"color":               "color",
	"leadershipPrinciple": "leadership_principle",
}

func column(field string) string {
	c, ok := columns[field]
	if !ok {
		panic(fmt.Sprintf("remote: no wire column for field %q", field))
	}
	return c
}

// ownedBy is the predicate every mutation runs under.
var ownedBy = column("id") + " = ? AND " + column("authorId") + " = ?"

func toRow(m message.Message) Row {
	return Row{
		ID:                  m.ID,
		AuthorID:            m.AuthorID,
		Name:                m.Name,
		Category:            string(m.Category),
		Content:             m.Content,
		MediaURL:            optional(m.MediaURL),
		MediaType:           optional(string(m.MediaType)),
		Timestamp:           m.Timestamp,
		Rotation:            m.Rotation,
		Color:               m.Color,
		LeadershipPrinciple: optional(m.LeadershipPrinciple),
	}
}

func fromRow(r Row) message.Message {
	return message.Message{
		ID:                  r.ID,
		AuthorID:            r.AuthorID,
		Name:                r.Name,
		Category:            message.Category(r.Category),
		Content:             r.Content,
		LeadershipPrinciple: deref(r.LeadershipPrinciple),
		Color:               r.Color,
		MediaURL:            deref(r.MediaURL),
		MediaType:           message.MediaType(deref(r.MediaType)),
		Timestamp:           r.Timestamp,
		Rotation:            r.Rotation,
	}
}

// patchColumns translates a patch into a column update. Color is
// recomputed whenever the category changes; it is never taken from the
// caller.
func patchColumns(p message.Patch) map[string]any {
	out := map[string]any{}
	if p.Name != nil {
		out[column("name")] = *p.Name
	}
	if p.Category != nil {
		out[column("category")] = string(*p.Category)
		out[column("color")] = message.ColorFor(*p.Category)
	}
	if p.Content != nil {
		out[column("content")] = *p.Content
	}
	if p.LeadershipPrinciple != nil {
		out[column("leadershipPrinciple")] = optional(*p.LeadershipPrinciple)
	}
	if p.MediaURL != nil {
		out[column("mediaUrl")] = optional(*p.MediaURL)
	}
	if p.MediaType != nil {
		out[column("mediaType")] = optional(string(*p.MediaType))
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
