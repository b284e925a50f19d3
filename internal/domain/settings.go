package domain

import (
	"context"
	"slices"
)

// SettingsName is the name of the persisted settings record.
const SettingsName = "google_nl_sentiment.settings"

// DefaultMagnitudeThreshold applies until settings are saved for the first time.
const DefaultMagnitudeThreshold = 1.0

// Settings is the persisted sentiment configuration.
// A content type present in ContentTypes is enabled; its value lists the
// fields that feed the analysis, in selection order.
type Settings struct {
	MagnitudeThreshold float64             `json:"sentiment_magnitude_threshold" yaml:"sentiment_magnitude_threshold"`
	ContentTypes       map[string][]string `json:"content_types" yaml:"content_types"`
}

// DefaultSettings returns the settings used before the first save.
func DefaultSettings() Settings {
	return Settings{
		MagnitudeThreshold: DefaultMagnitudeThreshold,
		ContentTypes:       map[string][]string{},
	}
}

// Enabled reports whether the content type is enabled for sentiment analysis.
func (s Settings) Enabled(contentType string) bool {
	_, ok := s.ContentTypes[contentType]
	return ok
}

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	out := Settings{
		MagnitudeThreshold: s.MagnitudeThreshold,
		ContentTypes:       make(map[string][]string, len(s.ContentTypes)),
	}
	for ct, fields := range s.ContentTypes {
		out.ContentTypes[ct] = slices.Clone(fields)
	}
	return out
}

// ContentTypeSelection is the administrator's choice for one content type.
type ContentTypeSelection struct {
	Enabled bool
	Fields  []string
}

// DesiredSettings is a submitted settings form. Content types missing from
// Selections are treated as disabled.
type DesiredSettings struct {
	MagnitudeThreshold float64
	Selections         map[string]ContentTypeSelection
}

// Selection returns the selection for a content type, disabled when absent.
func (d DesiredSettings) Selection(contentType string) ContentTypeSelection {
	return d.Selections[contentType]
}

// SettingsRepository abstracts settings persistence.
type SettingsRepository interface {
	Get(ctx context.Context) (*Settings, error)
	Save(ctx context.Context, settings Settings) error
}

// SettingsSource provides settings lookup with caching.
// Implementations should provide read-through caching (e.g., Redis → PostgreSQL).
type SettingsSource interface {
	GetSettings(ctx context.Context) (Settings, error)
}

// SettingsCacheInvalidator removes cached settings on every instance.
type SettingsCacheInvalidator interface {
	InvalidateSettings(ctx context.Context) error
}
