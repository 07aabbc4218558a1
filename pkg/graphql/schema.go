// Package graphql exposes a read-only GraphQL view of a goblin Model.
//
// Resolvers read the live model, so queries must run while no edit is in
// progress. Executor takes care of that by running every query inside
// Model.View.
package graphql

import (
	"fmt"

	"github.com/dd0wney/goblin/pkg/goblin"
	"github.com/graphql-go/graphql"
)

// Resolver maps a concept name to the id it was issued under.
type Resolver interface {
	Resolve(name string) (goblin.EntityID, bool)
}

type schemaTypes struct {
	hierarchy      *graphql.Object
	concept        *graphql.Object
	constraintType *graphql.Object
	constraint     *graphql.Object
	history        *graphql.Object
}

// GenerateSchema builds the query schema over m. Concept names given as
// arguments are looked up through r when it is non-nil, and otherwise by
// matching the name or URI of every attached concept.
func GenerateSchema(m *goblin.Model, r Resolver) (graphql.Schema, error) {
	lookup := &finder{model: m, resolver: r}
	types := createTypes(lookup)

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"health": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return "ok", nil
				},
			},
			"hierarchies": &graphql.Field{
				Type: graphql.NewList(types.hierarchy),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return m.Hierarchies(), nil
				},
			},
			"hierarchy": &graphql.Field{
				Type: types.hierarchy,
				Args: graphql.FieldConfigArgument{
					"name": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					name, _ := p.Args["name"].(string)
					return lookup.hierarchy(name)
				},
			},
			"concept": &graphql.Field{
				Type: types.concept,
				Args: graphql.FieldConfigArgument{
					"name": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					name, _ := p.Args["name"].(string)
					return lookup.concept(name)
				},
			},
			"history": &graphql.Field{
				Type: graphql.NewNonNull(types.history),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return m, nil
				},
			},
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
	if err != nil {
		return graphql.Schema{}, fmt.Errorf("failed to create schema: %w", err)
	}
	return schema, nil
}

// createTypes declares the object types first and adds the fields that refer
// back to them afterwards, since concepts, constraints and hierarchies all
// point at each other.
func createTypes(lookup *finder) *schemaTypes {
	types := &schemaTypes{
		hierarchy:      graphql.NewObject(graphql.ObjectConfig{Name: "Hierarchy", Fields: graphql.Fields{}}),
		concept:        graphql.NewObject(graphql.ObjectConfig{Name: "Concept", Fields: graphql.Fields{}}),
		constraintType: graphql.NewObject(graphql.ObjectConfig{Name: "ConstraintType", Fields: graphql.Fields{}}),
		constraint:     graphql.NewObject(graphql.ObjectConfig{Name: "Constraint", Fields: graphql.Fields{}}),
		history:        createHistoryType(),
	}
	addHierarchyFields(types, lookup)
	addConceptFields(types, lookup)
	addConstraintTypeFields(types)
	addConstraintFields(types)
	return types
}

func createHistoryType() *graphql.Object {
	model := func(p graphql.ResolveParams) *goblin.Model {
		m, _ := p.Source.(*goblin.Model)
		return m
	}
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "History",
		Fields: graphql.Fields{
			"canUndo": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return model(p).CanUndo(), nil
				},
			},
			"canRedo": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return model(p).CanRedo(), nil
				},
			},
			"undoDepth": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return model(p).UndoDepth(), nil
				},
			},
			"redoDepth": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return model(p).RedoDepth(), nil
				},
			},
		},
	})
}

func addHierarchyFields(types *schemaTypes, lookup *finder) {
	source := func(p graphql.ResolveParams) *goblin.Hierarchy {
		h, _ := p.Source.(*goblin.Hierarchy)
		return h
	}
	obj := types.hierarchy
	obj.AddFieldConfig("name", &graphql.Field{
		Type: graphql.NewNonNull(graphql.String),
		Resolve: func(p graphql.ResolveParams) (any, error) {
			return source(p).Name(), nil
		},
	})
	obj.AddFieldConfig("root", &graphql.Field{
		Type: graphql.NewNonNull(types.concept),
		Resolve: func(p graphql.ResolveParams) (any, error) {
			return source(p).Root(), nil
		},
	})
	obj.AddFieldConfig("conceptCount", &graphql.Field{
		Type: graphql.NewNonNull(graphql.Int),
		Resolve: func(p graphql.ResolveParams) (any, error) {
			return source(p).ConceptCount(), nil
		},
	})
	obj.AddFieldConfig("constraintCount", &graphql.Field{
		Type: graphql.NewNonNull(graphql.Int),
		Resolve: func(p graphql.ResolveParams) (any, error) {
			return source(p).ConstraintCount(), nil
		},
	})
	obj.AddFieldConfig("concepts", &graphql.Field{
		Type:        graphql.NewList(types.concept),
		Description: "Every concept in depth-first pre-order from the root",
		Resolve: func(p graphql.ResolveParams) (any, error) {
			return source(p).AllConcepts(), nil
		},
	})
	obj.AddFieldConfig("concept", &graphql.Field{
		Type: types.concept,
		Args: graphql.FieldConfigArgument{
			"name": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
		},
		Resolve: func(p graphql.ResolveParams) (any, error) {
			name, _ := p.Args["name"].(string)
			c, err := lookup.concept(name)
			if err != nil || c.Hierarchy() != source(p) {
				return nil, err
			}
			return c, nil
		},
	})
	obj.AddFieldConfig("constraintTypes", &graphql.Field{
		Type: graphql.NewList(types.constraintType),
		Resolve: func(p graphql.ResolveParams) (any, error) {
			return source(p).ConstraintTypes(), nil
		},
	})
	obj.AddFieldConfig("constraintType", &graphql.Field{
		Type: types.constraintType,
		Args: graphql.FieldConfigArgument{
			"name": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
		},
		Resolve: func(p graphql.ResolveParams) (any, error) {
			name, _ := p.Args["name"].(string)
			return source(p).ConstraintType(name)
		},
	})
}

func addConceptFields(types *schemaTypes, lookup *finder) {
	source := func(p graphql.ResolveParams) *goblin.Concept {
		c, _ := p.Source.(*goblin.Concept)
		return c
	}
	obj := types.concept
	obj.AddFieldConfig("name", &graphql.Field{
		Type: graphql.NewNonNull(graphql.String),
		Resolve: func(p graphql.ResolveParams) (any, error) {
			return source(p).String(), nil
		},
	})
	obj.AddFieldConfig("uri", &graphql.Field{
		Type: graphql.NewNonNull(graphql.String),
		Resolve: func(p graphql.ResolveParams) (any, error) {
			return source(p).ID().URI, nil
		},
	})
	obj.AddFieldConfig("label", &graphql.Field{
		Type: graphql.String,
		Resolve: func(p graphql.ResolveParams) (any, error) {
			return source(p).ID().Label, nil
		},
	})
	obj.AddFieldConfig("kind", &graphql.Field{
		Type: graphql.NewNonNull(graphql.String),
		Resolve: func(p graphql.ResolveParams) (any, error) {
			return source(p).Kind().String(), nil
		},
	})
	obj.AddFieldConfig("isRoot", &graphql.Field{
		Type: graphql.NewNonNull(graphql.Boolean),
		Resolve: func(p graphql.ResolveParams) (any, error) {
			return source(p).IsRoot(), nil
		},
	})
	obj.AddFieldConfig("hierarchy", &graphql.Field{
		Type: types.hierarchy,
		Resolve: func(p graphql.ResolveParams) (any, error) {
			return source(p).Hierarchy(), nil
		},
	})
	obj.AddFieldConfig("parent", &graphql.Field{
		Type: types.concept,
		Resolve: func(p graphql.ResolveParams) (any, error) {
			if parent := source(p).Parent(); parent != nil {
				return parent, nil
			}
			return nil, nil
		},
	})
	obj.AddFieldConfig("children", &graphql.Field{
		Type: graphql.NewList(types.concept),
		Resolve: func(p graphql.ResolveParams) (any, error) {
			return source(p).Children(), nil
		},
	})
	obj.AddFieldConfig("ancestors", &graphql.Field{
		Type:        graphql.NewList(types.concept),
		Description: "Ancestors, nearest first",
		Resolve: func(p graphql.ResolveParams) (any, error) {
			return source(p).Ancestors(), nil
		},
	})
	obj.AddFieldConfig("descendants", &graphql.Field{
		Type: graphql.NewList(types.concept),
		Resolve: func(p graphql.ResolveParams) (any, error) {
			return source(p).Descendants(), nil
		},
	})
	obj.AddFieldConfig("constraints", &graphql.Field{
		Type: graphql.NewList(types.constraint),
		Args: graphql.FieldConfigArgument{
			"type":      &graphql.ArgumentConfig{Type: graphql.String},
			"semantics": &graphql.ArgumentConfig{Type: graphql.String},
		},
		Resolve: func(p graphql.ResolveParams) (any, error) {
			return filterConstraints(source(p).Constraints(), p.Args)
		},
	})
	obj.AddFieldConfig("inwardConstraints", &graphql.Field{
		Type:        graphql.NewList(types.constraint),
		Description: "Constraints that name this concept as a target",
		Args: graphql.FieldConfigArgument{
			"type":      &graphql.ArgumentConfig{Type: graphql.String},
			"semantics": &graphql.ArgumentConfig{Type: graphql.String},
		},
		Resolve: func(p graphql.ResolveParams) (any, error) {
			return filterConstraints(source(p).InwardConstraints(), p.Args)
		},
	})
	obj.AddFieldConfig("subsumes", &graphql.Field{
		Type: graphql.NewNonNull(graphql.Boolean),
		Args: graphql.FieldConfigArgument{
			"name": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
		},
		Resolve: func(p graphql.ResolveParams) (any, error) {
			name, _ := p.Args["name"].(string)
			other, err := lookup.concept(name)
			if err != nil {
				return false, err
			}
			return source(p).Subsumes(other), nil
		},
	})
}

func addConstraintTypeFields(types *schemaTypes) {
	source := func(p graphql.ResolveParams) *goblin.ConstraintType {
		t, _ := p.Source.(*goblin.ConstraintType)
		return t
	}
	obj := types.constraintType
	obj.AddFieldConfig("name", &graphql.Field{
		Type: graphql.NewNonNull(graphql.String),
		Resolve: func(p graphql.ResolveParams) (any, error) {
			return source(p).Name(), nil
		},
	})
	obj.AddFieldConfig("hierarchy", &graphql.Field{
		Type: types.hierarchy,
		Resolve: func(p graphql.ResolveParams) (any, error) {
			return source(p).Hierarchy(), nil
		},
	})
	obj.AddFieldConfig("rootSource", &graphql.Field{
		Type: types.concept,
		Resolve: func(p graphql.ResolveParams) (any, error) {
			return source(p).RootSource(), nil
		},
	})
	obj.AddFieldConfig("rootTarget", &graphql.Field{
		Type: types.concept,
		Resolve: func(p graphql.ResolveParams) (any, error) {
			return source(p).RootTarget(), nil
		},
	})
	obj.AddFieldConfig("semantics", &graphql.Field{
		Type:        graphql.NewList(graphql.String),
		Description: "Enabled semantics",
		Resolve: func(p graphql.ResolveParams) (any, error) {
			var out []string
			for _, s := range allSemantics {
				if source(p).Enables(s) {
					out = append(out, s.String())
				}
			}
			return out, nil
		},
	})
	obj.AddFieldConfig("cardinality", &graphql.Field{
		Type: graphql.NewNonNull(graphql.String),
		Resolve: func(p graphql.ResolveParams) (any, error) {
			return source(p).Cardinality().String(), nil
		},
	})
	obj.AddFieldConfig("rootConstraint", &graphql.Field{
		Type: types.constraint,
		Resolve: func(p graphql.ResolveParams) (any, error) {
			return source(p).RootConstraint(), nil
		},
	})
	obj.AddFieldConfig("constraints", &graphql.Field{
		Type:        graphql.NewList(types.constraint),
		Description: "Attached constraints of this type ordered by source",
		Args: graphql.FieldConfigArgument{
			"semantics": &graphql.ArgumentConfig{Type: graphql.String},
		},
		Resolve: func(p graphql.ResolveParams) (any, error) {
			t := source(p)
			var out []*goblin.Constraint
			for _, s := range allSemantics {
				out = append(out, t.Hierarchy().Constraints(t, s)...)
			}
			return filterConstraints(out, p.Args)
		},
	})
}

func addConstraintFields(types *schemaTypes) {
	source := func(p graphql.ResolveParams) *goblin.Constraint {
		k, _ := p.Source.(*goblin.Constraint)
		return k
	}
	obj := types.constraint
	obj.AddFieldConfig("type", &graphql.Field{
		Type: types.constraintType,
		Resolve: func(p graphql.ResolveParams) (any, error) {
			return source(p).Type(), nil
		},
	})
	obj.AddFieldConfig("semantics", &graphql.Field{
		Type: graphql.NewNonNull(graphql.String),
		Resolve: func(p graphql.ResolveParams) (any, error) {
			return source(p).Semantics().String(), nil
		},
	})
	obj.AddFieldConfig("root", &graphql.Field{
		Type: graphql.NewNonNull(graphql.Boolean),
		Resolve: func(p graphql.ResolveParams) (any, error) {
			return source(p).Root(), nil
		},
	})
	obj.AddFieldConfig("source", &graphql.Field{
		Type: types.concept,
		Resolve: func(p graphql.ResolveParams) (any, error) {
			return source(p).Source(), nil
		},
	})
	obj.AddFieldConfig("targets", &graphql.Field{
		Type: graphql.NewList(types.concept),
		Resolve: func(p graphql.ResolveParams) (any, error) {
			return source(p).Targets(), nil
		},
	})
	obj.AddFieldConfig("description", &graphql.Field{
		Type: graphql.NewNonNull(graphql.String),
		Resolve: func(p graphql.ResolveParams) (any, error) {
			return source(p).String(), nil
		},
	})
	obj.AddFieldConfig("conflicts", &graphql.Field{
		Type:        graphql.NewList(types.constraint),
		Description: "Attached constraints this one would conflict with if added now",
		Resolve: func(p graphql.ResolveParams) (any, error) {
			k := source(p)
			return k.Hierarchy().Model().FindConflicts(k), nil
		},
	})
}

var allSemantics = []goblin.Semantics{goblin.ValidValues, goblin.ImpliedValue}

// filterConstraints keeps the constraints matching the optional type and
// semantics arguments.
func filterConstraints(ks []*goblin.Constraint, args map[string]any) ([]*goblin.Constraint, error) {
	typeName, _ := args["type"].(string)
	semantics, _ := args["semantics"].(string)
	if semantics != "" && !knownSemantics(semantics) {
		return nil, fmt.Errorf("unknown semantics %q", semantics)
	}

	out := make([]*goblin.Constraint, 0, len(ks))
	for _, k := range ks {
		if typeName != "" && k.Type().Name() != typeName {
			continue
		}
		if semantics != "" && k.Semantics().String() != semantics {
			continue
		}
		out = append(out, k)
	}
	return out, nil
}

func knownSemantics(name string) bool {
	for _, s := range allSemantics {
		if s.String() == name {
			return true
		}
	}
	return false
}

// finder resolves names given as query arguments.
type finder struct {
	model    *goblin.Model
	resolver Resolver
}

func (f *finder) hierarchy(name string) (*goblin.Hierarchy, error) {
	for _, h := range f.model.Hierarchies() {
		if h.Name() == name || h.Root().ID().URI == name {
			return h, nil
		}
	}
	return nil, fmt.Errorf("hierarchy %q: %w", name, goblin.ErrHierarchyNotFound)
}

func (f *finder) concept(name string) (*goblin.Concept, error) {
	if f.resolver != nil {
		if id, ok := f.resolver.Resolve(name); ok {
			if c, err := f.model.Concept(id); err == nil {
				return c, nil
			}
		}
	}
	for _, h := range f.model.Hierarchies() {
		for _, c := range h.AllConcepts() {
			if c.String() == name || c.ID().URI == name {
				return c, nil
			}
		}
	}
	return nil, fmt.Errorf("concept %q: %w", name, goblin.ErrConceptNotFound)
}
