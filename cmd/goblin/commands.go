package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dd0wney/goblin/pkg/graphql"
	"github.com/spf13/cobra"
)

var errViolations = errors.New("integrity check failed")

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print every hierarchy with its constraints",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(configPath, logLevel, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.close()
		fmt.Fprint(cmd.OutOrStdout(), renderModel(a.model))
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the integrity checker over the seeded model",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(configPath, logLevel, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.close()
		return runCheck(a, cmd.OutOrStdout())
	},
}

var (
	queryVars []string
	maxDepth  int
)

var queryCmd = &cobra.Command{
	Use:   "query <graphql>",
	Short: "Run a GraphQL query against the seeded model and print the JSON result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(configPath, logLevel, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.close()
		vars, err := parseVars(queryVars)
		if err != nil {
			return err
		}
		return runQuery(cmd.Context(), a, args[0], vars, cmd.OutOrStdout())
	},
}

func init() {
	queryCmd.Flags().StringArrayVar(&queryVars, "var", nil, "Query variable as name=value (repeatable)")
	queryCmd.Flags().IntVar(&maxDepth, "max-depth", graphql.DefaultMaxDepth, "Maximum query nesting depth")
}

func runCheck(a *app, out io.Writer) error {
	var rendered string
	var valid bool
	err := a.model.View(func() error {
		result, err := a.checker.Validate(a.model)
		if err != nil {
			return err
		}
		rendered, valid = renderResult(result), result.Valid
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, rendered)
	if !valid {
		return errViolations
	}
	return nil
}

func runQuery(ctx context.Context, a *app, query string, vars map[string]any, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	executor, err := graphql.NewExecutor(a.model,
		graphql.WithResolver(a.alloc),
		graphql.WithLogger(a.logger),
		graphql.WithMaxDepth(maxDepth),
	)
	if err != nil {
		return err
	}

	result := executor.Execute(ctx, query, vars)
	response := graphql.GraphQLResponse{Data: result.Data}
	for _, e := range result.Errors {
		response.Errors = append(response.Errors, graphql.GraphQLError{Message: e.Message})
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(response); err != nil {
		return err
	}
	if len(response.Errors) > 0 {
		return fmt.Errorf("query returned %d error(s)", len(response.Errors))
	}
	return nil
}

// parseVars turns name=value pairs into query variables. Values that parse
// as JSON keep their JSON type; anything else is a string.
func parseVars(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	vars := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid variable %q, want name=value", pair)
		}
		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err == nil {
			vars[name] = decoded
		} else {
			vars[name] = value
		}
	}
	return vars, nil
}

// exitCode maps errors to process exit codes.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errViolations):
		return 2
	default:
		return 1
	}
}
