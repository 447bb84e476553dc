package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ConceptCategory groups technical concepts on the knowledge map.
type ConceptCategory string

const (
	CategoryBackend      ConceptCategory = "backend"
	CategoryFrontend     ConceptCategory = "frontend"
	CategoryDatabase     ConceptCategory = "database"
	CategoryDevOps       ConceptCategory = "devops"
	CategoryArchitecture ConceptCategory = "architecture"
	CategoryTesting      ConceptCategory = "testing"
	CategorySecurity     ConceptCategory = "security"
	CategoryOther        ConceptCategory = "other"
)

// ConceptDifficulty is the learning level of a concept.
type ConceptDifficulty string

const (
	DifficultyBeginner     ConceptDifficulty = "beginner"
	DifficultyIntermediate ConceptDifficulty = "intermediate"
	DifficultyAdvanced     ConceptDifficulty = "advanced"
)

// RelationshipType is the label on a directed edge between two concepts.
type RelationshipType string

const (
	RelDependsOn  RelationshipType = "depends_on"
	RelImplements RelationshipType = "implements"
	RelExtends    RelationshipType = "extends"
	RelUses       RelationshipType = "uses"
	RelRelatedTo  RelationshipType = "related_to"
	RelPartOf     RelationshipType = "part_of"
)

// Concept is a node on the knowledge map.
type Concept struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	CodeExample string            `json:"code_example,omitempty"`
	Category    ConceptCategory   `json:"category"`
	Technology  string            `json:"technology,omitempty"`
	Difficulty  ConceptDifficulty `json:"difficulty"`
	FolderID    string            `json:"folder_id,omitempty"`
	Tags        []Tag             `json:"tags"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func (c Concept) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ID, validation.Required),
		validation.Field(&c.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&c.Category, validation.Required, validation.In(
			CategoryBackend, CategoryFrontend, CategoryDatabase, CategoryDevOps,
			CategoryArchitecture, CategoryTesting, CategorySecurity, CategoryOther)),
		validation.Field(&c.Difficulty, validation.Required, validation.In(
			DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced)),
	)
}

// Relationship is a directed edge between two concepts.
type Relationship struct {
	ID          string           `json:"id"`
	SourceID    string           `json:"source_concept_id"`
	TargetID    string           `json:"target_concept_id"`
	Type        RelationshipType `json:"relationship_type"`
	Description string           `json:"description,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

func (r Relationship) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required),
		validation.Field(&r.SourceID, validation.Required),
		validation.Field(&r.TargetID, validation.Required, validation.NotIn(r.SourceID).Error("concept cannot relate to itself")),
		validation.Field(&r.Type, validation.Required, validation.In(
			RelDependsOn, RelImplements, RelExtends, RelUses, RelRelatedTo, RelPartOf)),
	)
}

// RelatedConcept is one neighbour of a concept together with the edge that links them.
type RelatedConcept struct {
	Concept      Concept      `json:"concept"`
	Relationship Relationship `json:"relationship"`
	Direction    string       `json:"direction"` // "outgoing" or "incoming"
}

// ConceptWithRelations is a concept with its incoming and outgoing neighbours.
type ConceptWithRelations struct {
	Concept
	Related []RelatedConcept `json:"related_concepts"`
}
