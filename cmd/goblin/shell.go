package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dd0wney/goblin/pkg/audit"
	"github.com/dd0wney/goblin/pkg/goblin"
	"github.com/dd0wney/goblin/pkg/graphql"
	"github.com/dd0wney/goblin/pkg/health"
	"github.com/dd0wney/goblin/pkg/logging"
	"github.com/dd0wney/goblin/pkg/pubsub"
	"github.com/spf13/cobra"
)

var metricsAddr string

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Edit the seeded model interactively",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(configPath, logLevel, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.close()
		addr := metricsAddr
		if addr == "" {
			addr = a.cfg.MetricsAddr
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sh, err := newShell(ctx, a, cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer sh.close()

		if addr != "" {
			srv, err := newServer(a, addr, sh.ps)
			if err != nil {
				return err
			}
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					a.logger.Error("http server failed", logging.Error(err))
				}
			}()
			defer func() {
				shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
				defer done()
				srv.Shutdown(shutdownCtx)
			}()
			fmt.Fprintf(cmd.OutOrStdout(), "📊 Serving /metrics, /graphql and /health on %s\n", addr)
		}

		sh.run()
		return nil
	},
}

func init() {
	shellCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve /metrics, /graphql and /health on this address (e.g. :9090)")
}

// newServer exposes the model's metrics, a read-only GraphQL endpoint and
// health probes. Readiness fails while the integrity checker finds errors.
func newServer(a *app, addr string, ps *pubsub.PubSub) (*http.Server, error) {
	executor, err := graphql.NewExecutor(a.model,
		graphql.WithResolver(a.alloc),
		graphql.WithLogger(a.logger),
	)
	if err != nil {
		return nil, err
	}

	checks := health.NewChecker()
	checks.Register("process", health.SimpleCheck("process"), health.Liveness)
	checks.Register("model", health.ModelCheck(a.model), health.Overall)
	checks.Register("integrity", health.IntegrityCheck(a.model, a.checker), health.Overall, health.Readiness)
	if ps != nil {
		checks.Register("notifications", health.NotificationCheck(ps), health.Overall)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	mux.Handle("/graphql", graphql.NewGraphQLHandler(executor))
	checks.Mount(mux, "/health")
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}, nil
}

// Shell reads edit commands line by line. Conflicting edits are confirmed on
// the same input.
type Shell struct {
	app     *app
	scanner *bufio.Scanner
	out     io.Writer
	ps      *pubsub.PubSub
	changes *pubsub.Subscription
}

func newShell(ctx context.Context, a *app, in io.Reader, out io.Writer) (*Shell, error) {
	s := &Shell{
		app:     a,
		scanner: bufio.NewScanner(in),
		out:     out,
		ps:      pubsub.NewPubSubWithBuffer(1024),
	}
	pubsub.Attach(a.model, s.ps, a.logger)
	changes, err := s.ps.Subscribe(ctx, pubsub.AllTopic)
	if err != nil {
		return nil, err
	}
	s.changes = changes

	a.model.SetConfirmer(goblin.ConfirmerFuncs{
		Addition: func(conflicts []*goblin.Constraint) bool {
			return s.confirm("Adding this constraint removes", conflicts)
		},
		Move: func(conflicts []*goblin.Constraint) bool {
			return s.confirm("Moving this concept removes", conflicts)
		},
	})
	return s, nil
}

func (s *Shell) close() {
	s.app.model.SetConfirmer(goblin.DeclineAll)
	s.ps.Shutdown()
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *Shell) run() {
	s.printf("Type 'help' for available commands, 'exit' to quit\n\n")
	for {
		s.printf("goblin> ")
		if !s.scanner.Scan() {
			s.printf("\n")
			return
		}

		input := strings.TrimSpace(s.scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			s.printf("👋 Goodbye!\n")
			return
		}

		s.executeCommand(input)
		s.printChanges()
	}
}

// confirm lists the conflicting constraints and asks whether to remove them.
// End of input declines.
func (s *Shell) confirm(prompt string, conflicts []*goblin.Constraint) bool {
	s.printf("%s\n%s\n", warnStyle.Render(fmt.Sprintf("⚠️  %s %d conflicting constraint(s):", prompt, len(conflicts))), describeConstraints(conflicts))
	for {
		s.printf("Proceed? [y/N] ")
		if !s.scanner.Scan() {
			s.printf("\n")
			return false
		}
		switch strings.ToLower(strings.TrimSpace(s.scanner.Text())) {
		case "y", "yes":
			return true
		case "", "n", "no":
			return false
		}
	}
}

// printChanges reports the notifications the last command produced.
func (s *Shell) printChanges() {
	for {
		select {
		case n, ok := <-s.changes.Channel():
			if !ok {
				return
			}
			subject := n.Concept
			if n.Constraint != "" {
				subject = n.Constraint
			}
			s.printf("%s\n", helpStyle.Render(fmt.Sprintf("  • %s %s (%s)", n.Kind, subject, n.Hierarchy)))
		default:
			return
		}
	}
}

func (s *Shell) executeCommand(input string) {
	parts := strings.Fields(input)
	command := strings.ToLower(parts[0])
	args := parts[1:]

	var err error
	switch command {
	case "help":
		s.showHelp()
	case "tree":
		s.printf("%s", renderModel(s.app.model))
	case "check":
		err = runCheck(s.app, s.out)
	case "status":
		s.showStatus()
	case "add":
		err = s.requireArgs(args, 2, "add <parent> <name>", s.add)
	case "add-content":
		err = s.requireArgs(args, 2, "add-content <parent> <name>", s.addContent)
	case "move":
		err = s.requireArgs(args, 2, "move <name> <new-parent>", s.move)
	case "rename":
		err = s.requireArgs(args, 2, "rename <name> <new-name>", s.rename)
	case "remove":
		err = s.requireArgs(args, 1, "remove <name>", s.remove)
	case "remove-tree":
		err = s.requireArgs(args, 1, "remove-tree <name>", s.removeTree)
	case "restrict":
		err = s.requireArgs(args, 3, "restrict <type> <source> <target>...", s.restrict)
	case "imply":
		err = s.requireArgs(args, 3, "imply <type> <source> <target>", s.imply)
	case "unconstrain":
		err = s.requireArgs(args, 2, "unconstrain <type> <source> [valid-values|implied-value]", s.unconstrain)
	case "undo":
		err = s.undo()
	case "redo":
		err = s.redo()
	case "history":
		err = s.history(args)
	case "export":
		err = s.requireArgs(args, 1, "export <json|jsonl|csv>", s.export)
	default:
		s.printf("%s\n", errorStyle.Render(fmt.Sprintf("❌ Unknown command: %s (type 'help' for available commands)", command)))
		return
	}
	if err != nil {
		s.printf("%s\n", errorStyle.Render("❌ "+err.Error()))
	}
}

var errUsage = errors.New("usage")

func (s *Shell) requireArgs(args []string, n int, usage string, fn func([]string) error) error {
	if len(args) < n {
		return fmt.Errorf("%w: %s", errUsage, usage)
	}
	return fn(args)
}

func (s *Shell) showHelp() {
	help := `Available commands:

  Concepts:
    add <parent> <name>                 Add a concept under parent
    add-content <parent> <name>         Add a content concept (fixed id)
    move <name> <new-parent>            Move a concept and its subtree
    rename <name> <new-name>            Give a concept a new id
    remove <name>                       Remove a leaf concept
    remove-tree <name>                  Remove a concept and its subtree

  Constraints:
    restrict <type> <source> <t>...     Restrict source to the targets
    imply <type> <source> <target>      Assert source's value
    unconstrain <type> <source> [sem]   Drop source's constraints of the type

  History:
    undo, redo                          Step through the edit history
    status                              Show history depths and model size
    history [n]                         Show the last n journaled edits
    export <json|jsonl|csv>             Print the edit journal

  Inspection:
    tree                                Print every hierarchy
    check                               Run the integrity checker
    help                                Show this help
    exit, quit                          Leave the shell`
	s.printf("%s\n", helpStyle.Render(help))
}

func (s *Shell) showStatus() {
	m := s.app.model
	s.printf("undo: %d  redo: %d\n", m.UndoDepth(), m.RedoDepth())
	for _, h := range m.Hierarchies() {
		s.printf("  %s: %d concepts, %d constraints\n", h.Name(), h.ConceptCount(), h.ConstraintCount())
	}
}

func (s *Shell) history(args []string) error {
	n := 10
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 1 {
			return fmt.Errorf("%w: history [n], n a positive number", errUsage)
		}
		n = v
	}
	recent := s.app.journal.Recent(n)
	if len(recent) == 0 {
		s.printf("No edits yet\n")
		return nil
	}
	for i := len(recent) - 1; i >= 0; i-- {
		s.printf("  %s\n", recent[i])
	}
	return nil
}

func (s *Shell) export(args []string) error {
	format, err := audit.ParseFormat(args[0])
	if err != nil {
		return err
	}
	return audit.Export(s.out, s.app.journal.Events(nil), format)
}

func (s *Shell) add(args []string) error {
	return s.addChild(args, false)
}

func (s *Shell) addContent(args []string) error {
	return s.addChild(args, true)
}

func (s *Shell) addChild(args []string, content bool) error {
	parent, err := s.app.concept(args[0])
	if err != nil {
		return err
	}
	id, err := s.app.alloc.Dynamic(args[1], strings.Join(args[2:], " "))
	if err != nil {
		return err
	}
	var child *goblin.Concept
	if content {
		child, err = parent.AddContentChild(id)
	} else {
		child, err = parent.AddChild(id)
	}
	if err != nil {
		return err
	}
	s.printf("%s\n", successStyle.Render(fmt.Sprintf("✅ Added %s under %s", child, parent)))
	return nil
}

func (s *Shell) move(args []string) error {
	c, err := s.app.concept(args[0])
	if err != nil {
		return err
	}
	parent, err := s.app.concept(args[1])
	if err != nil {
		return err
	}
	ok, err := c.Move(parent)
	if err != nil {
		return err
	}
	s.report(ok, fmt.Sprintf("Moved %s under %s", c, parent))
	return nil
}

func (s *Shell) rename(args []string) error {
	c, err := s.app.concept(args[0])
	if err != nil {
		return err
	}
	id, err := s.app.alloc.Dynamic(args[1], strings.Join(args[2:], " "))
	if err != nil {
		return err
	}
	ok, err := c.ResetID(id)
	if err != nil {
		return err
	}
	s.report(ok, fmt.Sprintf("Renamed %s to %s", c, id))
	return nil
}

func (s *Shell) remove(args []string) error {
	c, err := s.app.concept(args[0])
	if err != nil {
		return err
	}
	if err := c.Remove(); err != nil {
		return err
	}
	s.printf("%s\n", successStyle.Render(fmt.Sprintf("✅ Removed %s", c)))
	return nil
}

func (s *Shell) removeTree(args []string) error {
	c, err := s.app.concept(args[0])
	if err != nil {
		return err
	}
	n := len(c.Descendants()) + 1
	if err := c.RemoveSubtree(); err != nil {
		return err
	}
	s.printf("%s\n", successStyle.Render(fmt.Sprintf("✅ Removed %s and %d concept(s) in total", c, n)))
	return nil
}

// constraintArgs resolves "<type> <source> <target>..." arguments.
func (s *Shell) constraintArgs(args []string) (*goblin.ConstraintType, *goblin.Concept, []*goblin.Concept, error) {
	source, err := s.app.concept(args[1])
	if err != nil {
		return nil, nil, nil, err
	}
	t, err := s.app.constraintType(args[0], source)
	if err != nil {
		return nil, nil, nil, err
	}
	var targets []*goblin.Concept
	for _, name := range args[2:] {
		target, err := s.app.concept(name)
		if err != nil {
			return nil, nil, nil, err
		}
		targets = append(targets, target)
	}
	return t, source, targets, nil
}

func (s *Shell) restrict(args []string) error {
	t, source, targets, err := s.constraintArgs(args)
	if err != nil {
		return err
	}
	ok, err := source.AddValidValuesConstraint(t, targets...)
	if err != nil {
		return err
	}
	s.report(ok, fmt.Sprintf("Restricted %s of %s", t, source))
	return nil
}

func (s *Shell) imply(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("%w: imply <type> <source> <target>", errUsage)
	}
	t, source, targets, err := s.constraintArgs(args)
	if err != nil {
		return err
	}
	ok, err := source.AddImpliedValueConstraint(t, targets[0])
	if err != nil {
		return err
	}
	s.report(ok, fmt.Sprintf("Set %s of %s to %s", t, source, targets[0]))
	return nil
}

func (s *Shell) unconstrain(args []string) error {
	t, source, _, err := s.constraintArgs(args[:2])
	if err != nil {
		return err
	}
	semantics := []goblin.Semantics{goblin.ValidValues, goblin.ImpliedValue}
	if len(args) > 2 {
		switch args[2] {
		case goblin.ValidValues.String():
			semantics = semantics[:1]
		case goblin.ImpliedValue.String():
			semantics = semantics[1:]
		default:
			return fmt.Errorf("unknown semantics %q", args[2])
		}
	}

	removed := false
	for _, sem := range semantics {
		ok, err := source.RemoveConstraintsOfType(t, sem)
		if err != nil {
			return err
		}
		removed = removed || ok
	}
	if !removed {
		s.printf("%s has no %s constraints\n", source, t)
		return nil
	}
	s.printf("%s\n", successStyle.Render(fmt.Sprintf("✅ Removed %s constraints from %s", t, source)))
	return nil
}

func (s *Shell) undo() error {
	loc, err := s.app.model.Undo()
	if err != nil {
		return err
	}
	s.printf("↩️  %s\n", describeLocation(loc))
	return nil
}

func (s *Shell) redo() error {
	loc, err := s.app.model.Redo()
	if err != nil {
		return err
	}
	s.printf("↪️  %s\n", describeLocation(loc))
	return nil
}

// report prints the outcome of an edit that a declined confirmation or an
// existing equivalent constraint can turn into a no-op.
func (s *Shell) report(ok bool, msg string) {
	if ok {
		s.printf("%s\n", successStyle.Render("✅ "+msg))
		return
	}
	s.printf("%s\n", warnStyle.Render("Nothing changed"))
}

func describeLocation(loc goblin.EditLocation) string {
	verb := "removed"
	if loc.Added {
		verb = "added"
	}
	if loc.Hierarchy == nil {
		return verb
	}
	subject := fmt.Sprintf("concept %s", loc.Concept)
	if loc.Kind == goblin.ConstraintEdit && loc.Constraint != nil {
		subject = fmt.Sprintf("constraint %s", describeConstraint(loc.Constraint))
	}
	return fmt.Sprintf("%s %s in %s", subject, verb, loc.Hierarchy.Name())
}
