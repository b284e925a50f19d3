package domain

import "context"

// Sentiment score field attributes.
const (
	SentimentFieldName        = "field_google_nl_sentiment"
	SentimentFieldLabel       = "Google NL Sentiment"
	SentimentFieldDescription = "Google NL text sentiment."

	SentimentWidget       = "number"
	SentimentWidgetRegion = "content"
	SentimentWidgetWeight = 11
)

// SentimentFieldStorage returns the shared storage definition of the score field.
func SentimentFieldStorage() FieldStorage {
	return FieldStorage{
		EntityType:   EntityTypeNode,
		Name:         SentimentFieldName,
		Kind:         FieldKindFloat,
		Cardinality:  1,
		Translatable: true,
		Locked:       false,
		Settings:     map[string]any{},
	}
}

// SentimentField returns the score field definition for a content type.
// Scores are bounded to [-1, 1].
func SentimentField(contentType string) FieldDefinition {
	return FieldDefinition{
		EntityType:  EntityTypeNode,
		Bundle:      contentType,
		Name:        SentimentFieldName,
		Kind:        FieldKindFloat,
		Label:       SentimentFieldLabel,
		Description: SentimentFieldDescription,
		Settings: map[string]any{
			"min":    "-1",
			"max":    "1",
			"prefix": "",
			"suffix": "",
		},
	}
}

// SentimentFormComponent returns the form display placement of the score field.
func SentimentFormComponent() FormDisplayComponent {
	return FormDisplayComponent{
		Type:               SentimentWidget,
		Region:             SentimentWidgetRegion,
		Weight:             SentimentWidgetWeight,
		Settings:           map[string]any{},
		ThirdPartySettings: map[string]any{},
	}
}

// FieldProvisioner manages the sentiment score field on content types.
type FieldProvisioner interface {
	HasProvisionedField(ctx context.Context, contentType string) (bool, error)
	CreateProvisionedField(ctx context.Context, contentType string) error
	DeleteProvisionedField(ctx context.Context, contentType string) error
	AttachToDefaultFormDisplay(ctx context.Context, contentType string) error
}
