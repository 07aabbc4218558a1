package graphql

import (
	"context"
	"fmt"

	"github.com/dd0wney/goblin/pkg/goblin"
	"github.com/dd0wney/goblin/pkg/logging"
	"github.com/graphql-go/graphql"
)

// Executor runs queries against one model.
type Executor struct {
	model    *goblin.Model
	schema   graphql.Schema
	maxDepth int
	resolver Resolver
	logger   logging.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithMaxDepth overrides DefaultMaxDepth.
func WithMaxDepth(n int) Option {
	return func(e *Executor) { e.maxDepth = n }
}

// WithResolver looks concept names up through r, typically the allocator
// that issued the model's ids.
func WithResolver(r Resolver) Option {
	return func(e *Executor) { e.resolver = r }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logging.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewExecutor builds the schema for m.
func NewExecutor(m *goblin.Model, opts ...Option) (*Executor, error) {
	e := &Executor{
		model:    m,
		maxDepth: DefaultMaxDepth,
		logger:   logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.maxDepth <= 0 {
		return nil, fmt.Errorf("max depth must be greater than 0, got %d", e.maxDepth)
	}
	e.logger = e.logger.With(logging.Component("graphql"))

	schema, err := GenerateSchema(m, e.resolver)
	if err != nil {
		return nil, err
	}
	e.schema = schema
	return e, nil
}

// Schema returns the generated schema.
func (e *Executor) Schema() graphql.Schema { return e.schema }

// Execute runs query with the model locked against concurrent edits.
func (e *Executor) Execute(ctx context.Context, query string, variables map[string]any) *graphql.Result {
	timer := logging.StartTimer(e.logger, "graphql query")

	var result *graphql.Result
	_ = e.model.View(func() error {
		result = ExecuteWithDepthLimit(ctx, e.schema, query, e.maxDepth, variables)
		return nil
	})

	if result.HasErrors() {
		e.logger.Warn("graphql query failed",
			logging.Count(len(result.Errors)),
			logging.String("first_error", result.Errors[0].Message),
		)
	}
	timer.End(logging.Bool("ok", !result.HasErrors()))
	return result
}

// ExecuteQuery executes a GraphQL query against a schema
func ExecuteQuery(query string, schema graphql.Schema) *graphql.Result {
	return ExecuteQueryWithVariables(query, schema, nil)
}

// ExecuteQueryWithVariables executes a GraphQL query with variables
func ExecuteQueryWithVariables(query string, schema graphql.Schema, variables map[string]any) *graphql.Result {
	params := graphql.Params{
		Schema:         schema,
		RequestString:  query,
		VariableValues: variables,
	}
	return graphql.Do(params)
}
