package domain

type ReferenceKind string

const (
	RefCrimeTypes  ReferenceKind = "crime_types"
	RefStates      ReferenceKind = "states"
	RefRanks       ReferenceKind = "ranks"
	RefDepartments ReferenceKind = "departments"
)

type ReferenceItem struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name" validate:"required,max=200"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" validate:"max=1000"`
}
