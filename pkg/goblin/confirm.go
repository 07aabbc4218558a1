package goblin

// Confirmer decides whether conflicting constraints may be removed to let an
// edit proceed. It is called with the model lock held and must not mutate the
// model.
type Confirmer interface {
	ConfirmConstraintAddition(conflicts []*Constraint) bool
	ConfirmConceptMove(conflicts []*Constraint) bool
}

type declineAll struct{}

func (declineAll) ConfirmConstraintAddition([]*Constraint) bool { return false }
func (declineAll) ConfirmConceptMove([]*Constraint) bool        { return false }

type acceptAll struct{}

func (acceptAll) ConfirmConstraintAddition([]*Constraint) bool { return true }
func (acceptAll) ConfirmConceptMove([]*Constraint) bool        { return true }

var (
	// DeclineAll refuses every conflicting edit.
	DeclineAll Confirmer = declineAll{}
	// AcceptAll removes conflicting constraints without asking.
	AcceptAll Confirmer = acceptAll{}
)

// ConfirmerFuncs adapts functions to the Confirmer interface. A nil function
// declines.
type ConfirmerFuncs struct {
	Addition func(conflicts []*Constraint) bool
	Move     func(conflicts []*Constraint) bool
}

func (f ConfirmerFuncs) ConfirmConstraintAddition(conflicts []*Constraint) bool {
	return f.Addition != nil && f.Addition(conflicts)
}

func (f ConfirmerFuncs) ConfirmConceptMove(conflicts []*Constraint) bool {
	return f.Move != nil && f.Move(conflicts)
}
