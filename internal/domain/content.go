package domain

import (
	"context"

	"github.com/google/uuid"
)

// EntityTypeNode is the entity type whose bundles are content types.
const EntityTypeNode = "node"

// DefaultFormMode is the form mode edited by the settings form.
const DefaultFormMode = "default"

// ContentType is a bundle of the node entity type, e.g. "article".
type ContentType struct {
	ID    string
	Label string
}

// FieldKind is the storage kind of a field. The set is closed: kinds the
// service does not know parse to FieldKindUnknown.
type FieldKind int

const (
	FieldKindUnknown FieldKind = iota
	FieldKindListString
	FieldKindText
	FieldKindTextLong
	FieldKindTextWithSummary
	FieldKindString
	FieldKindStringLong
	FieldKindFloat
)

var fieldKindNames = map[FieldKind]string{
	FieldKindListString:      "list_string",
	FieldKindText:            "text",
	FieldKindTextLong:        "text_long",
	FieldKindTextWithSummary: "text_with_summary",
	FieldKindString:          "string",
	FieldKindStringLong:      "string_long",
	FieldKindFloat:           "float",
}

// analyzableKinds are the kinds whose values can feed sentiment analysis.
var analyzableKinds = map[FieldKind]struct{}{
	FieldKindListString:      {},
	FieldKindText:            {},
	FieldKindTextLong:        {},
	FieldKindTextWithSummary: {},
	FieldKindString:          {},
	FieldKindStringLong:      {},
}

// ParseFieldKind converts a storage type name to a FieldKind.
func ParseFieldKind(s string) FieldKind {
	for kind, name := range fieldKindNames {
		if name == s {
			return kind
		}
	}
	return FieldKindUnknown
}

func (k FieldKind) String() string {
	if name, ok := fieldKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Analyzable reports whether fields of this kind may be selected for analysis.
func (k FieldKind) Analyzable() bool {
	_, ok := analyzableKinds[k]
	return ok
}

// FieldStorage is the schema object shared by every bundle using a field name.
type FieldStorage struct {
	UUID         uuid.UUID
	EntityType   string
	Name         string
	Kind         FieldKind
	Cardinality  int
	Translatable bool
	Locked       bool
	Settings     map[string]any
}

// ID returns the storage identifier, e.g. "node.field_tags".
func (s FieldStorage) ID() string {
	return s.EntityType + "." + s.Name
}

// FieldDefinition is a field attached to one bundle.
type FieldDefinition struct {
	UUID        uuid.UUID
	EntityType  string
	Bundle      string
	Name        string
	Kind        FieldKind
	Label       string
	Description string
	Settings    map[string]any
}

// ID returns the field identifier, e.g. "node.article.field_tags".
func (f FieldDefinition) ID() string {
	return f.EntityType + "." + f.Bundle + "." + f.Name
}

// FormDisplayComponent places a field widget on an entity form.
type FormDisplayComponent struct {
	Type               string         `json:"type"`
	Region             string         `json:"region"`
	Weight             int            `json:"weight"`
	Settings           map[string]any `json:"settings"`
	ThirdPartySettings map[string]any `json:"third_party_settings"`
}

// ContentTypeRepository abstracts content type lookup.
type ContentTypeRepository interface {
	List(ctx context.Context) ([]ContentType, error)
	Get(ctx context.Context, id string) (*ContentType, error)
}

// FieldStore abstracts field storage and field definition persistence.
type FieldStore interface {
	GetField(ctx context.Context, entityType, bundle, name string) (*FieldDefinition, error)
	ListFields(ctx context.Context, entityType, bundle string) ([]FieldDefinition, error)
	StorageExists(ctx context.Context, entityType, name string) (bool, error)
	CreateStorage(ctx context.Context, storage FieldStorage) error
	CreateField(ctx context.Context, field FieldDefinition) error
	DeleteField(ctx context.Context, entityType, bundle, name string) error
}

// FormDisplayStore abstracts entity form display persistence.
type FormDisplayStore interface {
	GetComponents(ctx context.Context, entityType, bundle, mode string) (map[string]FormDisplayComponent, error)
	SetComponent(ctx context.Context, entityType, bundle, mode, fieldName string, component FormDisplayComponent) error
}
