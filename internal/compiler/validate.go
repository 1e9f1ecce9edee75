package compiler

import (
	"fmt"
	"regexp"

	"golang.org/x/text/cases"

	"github.com/andrewjk/Watsonia.Data-sub000/internal/mapping"
)

// Validation error codes (E200-E299)
const (
	ErrDuplicateEntity    = "E201" // entity declared twice
	ErrInvalidIdentifier  = "E202" // name, table or column is not a plain identifier
	ErrMissingPrimaryKey  = "E203" // key property missing or not scalar
	ErrUnknownRelated     = "E204" // item/collection names an undeclared entity
	ErrDuplicateColumn    = "E205" // two properties share a column
	ErrUnmappedForeignKey = "E206" // collection fk not mapped on the element entity
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks compiled entity specs against each other.
// Returns all errors found (does not fail-fast).
func Validate(specs []mapping.EntitySpec) []ValidationError {
	var errs []ValidationError

	byName := make(map[string]*mapping.EntitySpec, len(specs))
	for i := range specs {
		s := &specs[i]
		if _, dup := byName[s.Name]; dup {
			errs = append(errs, ValidationError{
				Field:   s.Name,
				Message: fmt.Sprintf("duplicate entity %q", s.Name),
				Code:    ErrDuplicateEntity,
			})
			continue
		}
		byName[s.Name] = s
	}

	for i := range specs {
		errs = append(errs, validateEntity(&specs[i], byName)...)
	}
	return errs
}

func validateEntity(s *mapping.EntitySpec, byName map[string]*mapping.EntitySpec) []ValidationError {
	var errs []ValidationError
	ident := func(field, value string) {
		if value != "" && !identifierPattern.MatchString(value) {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("%q is not a valid identifier", value),
				Code:    ErrInvalidIdentifier,
			})
		}
	}
	ident(s.Name, s.Name)
	ident(s.Name+".table", s.Table)

	key := s.PrimaryKey
	if key == "" {
		key = "ID"
	}
	keyFound := false

	fold := cases.Fold()
	columns := make(map[string]string)
	for _, p := range s.Properties {
		field := s.Name + "." + p.Name
		ident(field, p.Name)

		switch p.Kind {
		case mapping.Scalar:
			if p.Name == key {
				keyFound = true
			}
		case mapping.RelatedItem, mapping.RelatedCollection:
			if p.Name == key {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: "primary key must be a scalar property",
					Code:    ErrMissingPrimaryKey,
				})
			}
			if _, ok := byName[p.Related]; !ok {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("related entity %q is not declared", p.Related),
					Code:    ErrUnknownRelated,
				})
			}
		}

		if p.Kind == mapping.RelatedCollection {
			if elem, ok := byName[p.Related]; ok && !mapsColumn(elem, foreignKey(s.Name, p)) {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("%s does not map foreign key column %s", p.Related, foreignKey(s.Name, p)),
					Code:    ErrUnmappedForeignKey,
				})
			}
			continue
		}

		col := column(p)
		ident(field+".column", col)
		folded := fold.String(col)
		if prev, dup := columns[folded]; dup {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("column %q is already mapped by %s", col, prev),
				Code:    ErrDuplicateColumn,
			})
			continue
		}
		columns[folded] = p.Name
	}

	if !keyFound {
		errs = append(errs, ValidationError{
			Field:   s.Name + ".key",
			Message: fmt.Sprintf("primary key property %q is not declared", key),
			Code:    ErrMissingPrimaryKey,
		})
	}
	return errs
}

// column returns the column a scalar or related item property maps to,
// applying the same defaults as mapping.Registry.Define.
func column(p mapping.Property) string {
	switch p.Kind {
	case mapping.RelatedItem:
		if p.ForeignKey != "" {
			return p.ForeignKey
		}
		return p.Name + "ID"
	default:
		if p.Column != "" {
			return p.Column
		}
		return p.Name
	}
}

// foreignKey returns the element-side column of a collection property
// owned by owner.
func foreignKey(owner string, p mapping.Property) string {
	if p.ForeignKey != "" {
		return p.ForeignKey
	}
	return owner + "ID"
}

func mapsColumn(s *mapping.EntitySpec, col string) bool {
	for _, p := range s.Properties {
		if p.Kind != mapping.RelatedCollection && column(p) == col {
			return true
		}
	}
	return false
}

// BuildRegistry validates specs and defines them on a new registry.
func BuildRegistry(specs []mapping.EntitySpec) (*mapping.Registry, error) {
	if errs := Validate(specs); len(errs) > 0 {
		return nil, errs[0]
	}
	reg := mapping.NewRegistry()
	for _, s := range specs {
		if err := reg.Define(s); err != nil {
			return nil, fmt.Errorf("define %s: %w", s.Name, err)
		}
	}
	return reg, nil
}
