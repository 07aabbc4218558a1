package validation

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// Validation constants
	MaxNameLength  = 100
	MaxLabelLength = 200
	MaxTargets     = 100

	// Regular expressions
	namePattern = regexp.MustCompile(`^[a-zA-Z0-9_.\-]+$`)
)

// Semantics and cardinality spellings accepted in requests and config files
const (
	SemanticsValidValues  = "valid-values"
	SemanticsImpliedValue = "implied-value"
	CardinalitySingle     = "single"
	CardinalityMulti      = "multi"
)

func init() {
	validate = validator.New()
	validate.RegisterValidation("goblinname", func(fl validator.FieldLevel) bool {
		return namePattern.MatchString(fl.Field().String())
	})
}

// ConceptRequest represents a request to create a concept under a parent
type ConceptRequest struct {
	Name    string `json:"name" yaml:"name" validate:"required,max=100,goblinname"`
	Label   string `json:"label" yaml:"label" validate:"omitempty,max=200"`
	Parent  string `json:"parent" yaml:"parent" validate:"required,max=100,goblinname"`
	Content bool   `json:"content" yaml:"content"`
}

// ConstraintTypeRequest represents a request to register a constraint type
type ConstraintTypeRequest struct {
	Name        string   `json:"name" yaml:"name" validate:"required,max=100,goblinname"`
	RootSource  string   `json:"root_source" yaml:"root_source" validate:"required,max=100,goblinname"`
	RootTarget  string   `json:"root_target" yaml:"root_target" validate:"required,max=100,goblinname"`
	Semantics   []string `json:"semantics" yaml:"semantics" validate:"required,min=1,max=2,unique,dive,oneof=valid-values implied-value"`
	Cardinality string   `json:"cardinality" yaml:"cardinality" validate:"omitempty,oneof=single multi"`
}

// ConstraintRequest represents a request to attach a constraint to a concept.
// Exactly one of ValidValues and ImpliedValue must be set.
type ConstraintRequest struct {
	Type         string   `json:"type" yaml:"type" validate:"required,max=100,goblinname"`
	Source       string   `json:"source" yaml:"source" validate:"required,max=100,goblinname"`
	ValidValues  []string `json:"valid_values" yaml:"valid_values" validate:"omitempty,max=100,unique,dive,required,max=100,goblinname"`
	ImpliedValue string   `json:"implied_value" yaml:"implied_value" validate:"omitempty,max=100,goblinname"`
}

// Targets returns the named targets, whichever form the request uses.
func (r *ConstraintRequest) Targets() []string {
	if r.ImpliedValue != "" {
		return append(append([]string(nil), r.ValidValues...), r.ImpliedValue)
	}
	return r.ValidValues
}

// ContentIDSpec describes the identity of a concept derived from external
// content. An empty name asks the allocator to generate one.
type ContentIDSpec struct {
	Namespace string `json:"namespace" yaml:"namespace" validate:"required,max=200"`
	Name      string `json:"name" yaml:"name" validate:"omitempty,max=100,goblinname"`
	Label     string `json:"label" yaml:"label" validate:"omitempty,max=200"`
}

// ValidateConceptRequest validates a concept creation request
func ValidateConceptRequest(req *ConceptRequest) error {
	if req == nil {
		return errors.New("concept request cannot be nil")
	}
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}
	if req.Name == req.Parent {
		return fmt.Errorf("Name: concept %q cannot be its own parent", req.Name)
	}
	return nil
}

// ValidateConstraintTypeRequest validates a constraint type registration
func ValidateConstraintTypeRequest(req *ConstraintTypeRequest) error {
	if req == nil {
		return errors.New("constraint type request cannot be nil")
	}
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidateConstraintRequest validates a constraint request
func ValidateConstraintRequest(req *ConstraintRequest) error {
	if req == nil {
		return errors.New("constraint request cannot be nil")
	}
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}

	hasValid := len(req.ValidValues) > 0
	hasImplied := req.ImpliedValue != ""
	switch {
	case hasValid && hasImplied:
		return errors.New("ValidValues: cannot be combined with ImpliedValue")
	case !hasValid && !hasImplied:
		return errors.New("ValidValues: one of ValidValues or ImpliedValue is required")
	}
	return nil
}

// ValidateContentIDSpec validates a content id spec
func ValidateContentIDSpec(spec *ContentIDSpec) error {
	if spec == nil {
		return errors.New("content id spec cannot be nil")
	}
	if err := validate.Struct(spec); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidateName validates a concept or constraint type name
func ValidateName(name string) error {
	if name == "" {
		return errors.New("name cannot be empty")
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("name '%s' exceeds maximum length of %d characters", name, MaxNameLength)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("name '%s' contains invalid characters (only alphanumeric, '_', '-' and '.' allowed)", name)
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Field()
		tag := e.Tag()
		param := e.Param()

		switch tag {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		case "oneof":
			return fmt.Errorf("%s: must be one of [%s]", field, param)
		case "unique":
			return fmt.Errorf("%s: values must be unique", field)
		case "goblinname":
			return fmt.Errorf("%s: '%v' contains invalid characters (only alphanumeric, '_', '-' and '.' allowed)", field, e.Value())
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, tag)
		}
	}

	return err
}
