package health

import (
	"fmt"

	"github.com/dd0wney/goblin/pkg/goblin"
	"github.com/dd0wney/goblin/pkg/integrity"
	"github.com/dd0wney/goblin/pkg/pubsub"
)

// SimpleCheck always reports healthy.
func SimpleCheck(name string) CheckFunc {
	return func() Check {
		return Check{Name: name, Status: StatusHealthy, Message: "ok"}
	}
}

// IntegrityCheck runs the integrity checker over the model with the model
// lock held. Error violations make the model unhealthy; warnings degrade it.
func IntegrityCheck(m *goblin.Model, checker *integrity.Checker) CheckFunc {
	return func() Check {
		check := Check{Name: "integrity"}

		var result *integrity.ValidationResult
		err := m.View(func() error {
			var err error
			result, err = checker.Validate(m)
			return err
		})
		if err != nil {
			check.Status = StatusUnhealthy
			check.Message = fmt.Sprintf("integrity check failed: %v", err)
			return check
		}

		errs := len(result.GetViolationsBySeverity(integrity.Error))
		warnings := len(result.GetViolationsBySeverity(integrity.Warning))
		check.Details = map[string]any{
			"violations": len(result.Violations),
			"errors":     errs,
			"warnings":   warnings,
		}
		switch {
		case errs > 0:
			check.Status = StatusUnhealthy
			check.Message = fmt.Sprintf("%d invariant violation(s)", errs)
		case warnings > 0:
			check.Status = StatusDegraded
			check.Message = fmt.Sprintf("%d warning(s)", warnings)
		default:
			check.Status = StatusHealthy
			check.Message = "model is consistent"
		}
		return check
	}
}

// ModelCheck reports the size of the model and its edit history. An empty
// model is degraded since there is nothing to edit or query.
func ModelCheck(m *goblin.Model) CheckFunc {
	return func() Check {
		check := Check{Name: "model", Status: StatusHealthy}
		m.View(func() error {
			hierarchies := m.Hierarchies()
			concepts, constraints := 0, 0
			for _, h := range hierarchies {
				concepts += h.ConceptCount()
				constraints += h.ConstraintCount()
			}
			check.Details = map[string]any{
				"hierarchies": len(hierarchies),
				"concepts":    concepts,
				"constraints": constraints,
				"undo_depth":  m.UndoDepth(),
				"redo_depth":  m.RedoDepth(),
			}
			if len(hierarchies) == 0 {
				check.Status = StatusDegraded
				check.Message = "model has no hierarchies"
			}
			return nil
		})
		return check
	}
}

// NotificationCheck degrades once any change notification has been dropped
// for a slow subscriber.
func NotificationCheck(ps *pubsub.PubSub) CheckFunc {
	return func() Check {
		dropped := ps.Dropped()
		check := Check{
			Name:   "notifications",
			Status: StatusHealthy,
			Details: map[string]any{
				"subscribers": ps.GetSubscriberCount(pubsub.AllTopic),
				"dropped":     dropped,
			},
		}
		if dropped > 0 {
			check.Status = StatusDegraded
			check.Message = fmt.Sprintf("%d notification(s) dropped", dropped)
		}
		return check
	}
}
