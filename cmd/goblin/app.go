package main

import (
	"fmt"
	"io"

	"github.com/dd0wney/goblin/pkg/audit"
	"github.com/dd0wney/goblin/pkg/config"
	"github.com/dd0wney/goblin/pkg/goblin"
	"github.com/dd0wney/goblin/pkg/identity"
	"github.com/dd0wney/goblin/pkg/integrity"
	"github.com/dd0wney/goblin/pkg/logging"
	"github.com/dd0wney/goblin/pkg/metrics"
	"github.com/dd0wney/goblin/pkg/validation"
)

// app is a seeded model with the collaborators every command needs.
type app struct {
	cfg     *config.Config
	logger  logging.Logger
	metrics *metrics.Registry
	alloc   *identity.NamespaceAllocator
	model   *goblin.Model
	checker *integrity.Checker
	journal *audit.Journal
	file    *audit.FileJournal // nil unless audit_file is set
}

// loadApp reads the config at path, or starts from defaults when path is
// empty, and applies its seed to a new model. Logs go to logOut.
func loadApp(path, level string, logOut io.Writer) (*app, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg.ApplyEnv()
		if err := validation.ValidateConfig(cfg); err != nil {
			return nil, err
		}
	}
	if level != "" {
		cfg.LogLevel = level
	}

	a := &app{
		cfg:     cfg,
		logger:  logging.NewJSONLogger(logOut, cfg.Level()),
		metrics: metrics.NewRegistry(),
		alloc:   identity.NewNamespaceAllocator(cfg.Namespace),
		checker: integrity.NewDefaultChecker(),
		journal: audit.NewJournal(cfg.AuditBuffer),
	}

	opts := []goblin.Option{
		goblin.WithLogger(a.logger),
		goblin.WithMetrics(a.metrics),
	}
	if cfg.VerifyIntegrity {
		opts = append(opts, goblin.WithVerifier(a.checker))
	}
	a.model = goblin.NewModel(opts...)

	if err := cfg.Apply(a.model, a.alloc); err != nil {
		return nil, fmt.Errorf("failed to apply seed: %w", err)
	}

	// The seed is the baseline, so journaling starts after it.
	sinks := []audit.Sink{a.journal}
	if cfg.AuditFile != "" {
		file, err := audit.OpenFile(cfg.AuditFile)
		if err != nil {
			return nil, err
		}
		a.file = file
		sinks = append(sinks, file)
	}
	audit.Record(a.model, a.logger, sinks...)

	a.logger.Info("model loaded",
		logging.String("namespace", cfg.Namespace),
		logging.Count(len(a.model.Hierarchies())),
	)
	return a, nil
}

// close releases the audit file.
func (a *app) close() error {
	if a.file == nil {
		return nil
	}
	return a.file.Close()
}

// concept finds an attached concept by the name it was created under.
func (a *app) concept(name string) (*goblin.Concept, error) {
	id, _ := a.alloc.Resolve(name)
	return a.model.Concept(id)
}

// constraintType finds a type registered on the hierarchy of source.
func (a *app) constraintType(name string, source *goblin.Concept) (*goblin.ConstraintType, error) {
	return source.Hierarchy().ConstraintType(name)
}
