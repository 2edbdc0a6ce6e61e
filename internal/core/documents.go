package core

import (
	"fmt"
	"strings"
	"time"
)

// Timestamp marshals as RFC 3339 and additionally accepts the zone-less ISO
// format the older scripts wrote ("2025-01-10T12:00:00.123456").
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// Now returns the current time as a Timestamp.
func Now() Timestamp {
	return Timestamp{Time: time.Now().UTC()}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format(time.RFC3339) + `"`), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", s)
}

// RawDocument is the output of the extract stage.
type RawDocument struct {
	ExtractedAt   Timestamp `json:"extractedAt"`
	TotalArticles int       `json:"totalArticles"`
	Articles      []Article `json:"articles"`
}

// IntelligenceDocument is written by the analyze stage and extended in place
// by the connect stage.
type IntelligenceDocument struct {
	AnalyzedAt             Timestamp `json:"analyzedAt"`
	Provider               string    `json:"provider"`
	TotalArticles          int       `json:"totalArticles"`
	Articles               []Article `json:"articles"`
	ConnectionsGeneratedAt Timestamp `json:"connectionsGeneratedAt"`
	EmbeddingsUsed         bool      `json:"embeddingsUsed"`
}

// Find returns the article with the given url.
func (d *IntelligenceDocument) Find(url string) (*Article, bool) {
	for i := range d.Articles {
		if d.Articles[i].URL == url {
			return &d.Articles[i], true
		}
	}
	return nil, false
}

// MigratedPost records one post written by the migrate stage.
type MigratedPost struct {
	Slug       string    `json:"slug"`
	Title      string    `json:"title"`
	URL        string    `json:"url"`
	MigratedAt Timestamp `json:"migrated_at"`
}

// MigrationCache is the migrate stage's persistent state.
type MigrationCache struct {
	Posts   []MigratedPost `json:"posts"`
	LastRun Timestamp      `json:"last_run"`
}
