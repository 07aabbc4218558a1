package integrity

import (
	"errors"
	"fmt"
	"time"

	"github.com/dd0wney/goblin/pkg/goblin"
)

// ErrIntegrity is returned by Verify when error-severity violations exist.
var ErrIntegrity = errors.New("model integrity violated")

// ValidationResult contains the results of checking a model
type ValidationResult struct {
	Valid      bool        // True if no violations found
	Violations []Violation // List of all violations
	CheckedAt  time.Time   // When the check was performed
}

// GetViolationsBySeverity returns violations filtered by severity level
func (vr *ValidationResult) GetViolationsBySeverity(severity Severity) []Violation {
	filtered := make([]Violation, 0)
	for _, v := range vr.Violations {
		if v.Severity == severity {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

// GetViolationsByType returns violations filtered by type
func (vr *ValidationResult) GetViolationsByType(violationType ViolationType) []Violation {
	filtered := make([]Violation, 0)
	for _, v := range vr.Violations {
		if v.Type == violationType {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

// Checker manages a set of checks and runs them against a model
type Checker struct {
	checks []Check
}

// NewChecker creates a new empty checker
func NewChecker() *Checker {
	return &Checker{
		checks: make([]Check, 0),
	}
}

// NewDefaultChecker returns a checker with every built-in check.
func NewDefaultChecker() *Checker {
	c := NewChecker()
	c.AddChecks([]Check{&TreeCheck{}, &ConstraintCheck{}, &ConflictCheck{}})
	return c
}

// AddCheck adds a check to the checker
func (c *Checker) AddCheck(check Check) {
	c.checks = append(c.checks, check)
}

// AddChecks adds multiple checks to the checker
func (c *Checker) AddChecks(checks []Check) {
	c.checks = append(c.checks, checks...)
}

// Validate runs all checks against the model and returns the results
func (c *Checker) Validate(model ModelReader) (*ValidationResult, error) {
	result := &ValidationResult{
		Valid:      true,
		Violations: make([]Violation, 0),
		CheckedAt:  time.Now(),
	}

	for _, check := range c.checks {
		violations, err := check.Validate(model)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", check.Name(), err)
		}

		if len(violations) > 0 {
			result.Valid = false
			result.Violations = append(result.Violations, violations...)
		}
	}

	return result, nil
}

// Verify implements goblin.Verifier. Only error-severity violations fail.
func (c *Checker) Verify(m *goblin.Model) error {
	result, err := c.Validate(m)
	if err != nil {
		return err
	}
	errs := result.GetViolationsBySeverity(Error)
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d violation(s), first: %s: %s", ErrIntegrity, len(errs), errs[0].Type, errs[0].Message)
}

// GetChecks returns all checks in the checker
func (c *Checker) GetChecks() []Check {
	return c.checks
}

var _ goblin.Verifier = (*Checker)(nil)
