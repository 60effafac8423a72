// Package maintenance runs Docshelf's background jobs: the retention sweep
// that hard-deletes soft-deleted rows past the retention window, and the
// per-tenant classifier refresh that snapshots matching rules into each
// tenant's artifact directory.
//
// Core invariant: the retention sweep is the only job that touches the
// unscoped store accessor. The classifier refresh iterates tenants and runs
// each iteration on a context bound to that tenant, so a bug in the job
// cannot mix two tenants' rules into one artifact.
package maintenance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/docshelfhq/docshelf/internal/config"
	"github.com/docshelfhq/docshelf/internal/observability"
	"github.com/docshelfhq/docshelf/internal/storage"
	"github.com/docshelfhq/docshelf/internal/tenant"
	"github.com/docshelfhq/docshelf/internal/workspace"
)

// ClassifierArtifactName is the file each tenant's matching-rule snapshot is
// written to, inside that tenant's workspace directory.
const ClassifierArtifactName = "classifier.json"

const pollInterval = time.Minute

// ClassifierRule is one matching rule in the classifier snapshot.
type ClassifierRule struct {
	Kind              string `json:"kind"` // "tag", "correspondent" or "document_type"
	ID                string `json:"id"`
	Name              string `json:"name"`
	Match             string `json:"match,omitempty"`
	MatchingAlgorithm string `json:"matching_algorithm,omitempty"`
}

// ClassifierArtifact is the JSON document written per tenant.
type ClassifierArtifact struct {
	GeneratedAt   time.Time        `json:"generated_at"`
	DocumentCount int64            `json:"document_count"`
	Rules         []ClassifierRule `json:"rules"`
}

// Runner schedules and executes the maintenance jobs.
type Runner struct {
	store   storage.Store
	ws      *workspace.Workspace
	metrics *observability.MetricsCollector
	logger  *slog.Logger
	cfg     *config.MaintenanceConfig

	parser         cron.Parser
	nextPurge      time.Time
	nextClassifier time.Time
}

// New creates a Runner. metrics may be nil.
func New(store storage.Store, ws *workspace.Workspace, metrics *observability.MetricsCollector, logger *slog.Logger, cfg *config.MaintenanceConfig) *Runner {
	return &Runner{
		store:   store,
		ws:      ws,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
		parser:  cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
	}
}

// Start begins the maintenance loop. Returns a cancel function.
func (r *Runner) Start(ctx context.Context) (func(), error) {
	purgeSched, err := r.parser.Parse(r.cfg.PurgeCron())
	if err != nil {
		return nil, fmt.Errorf("invalid purge schedule %q: %w", r.cfg.PurgeCron(), err)
	}
	classifierSched, err := r.parser.Parse(r.cfg.ClassifierCron())
	if err != nil {
		return nil, fmt.Errorf("invalid classifier schedule %q: %w", r.cfg.ClassifierCron(), err)
	}

	now := time.Now()
	r.nextPurge = purgeSched.Next(now)
	r.nextClassifier = classifierSched.Next(now)

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		r.logger.InfoContext(ctx, "maintenance runner started",
			slog.String("purge_schedule", r.cfg.PurgeCron()),
			slog.String("classifier_schedule", r.cfg.ClassifierCron()),
			slog.Int("retention_days", r.cfg.Retention()),
		)

		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				r.logger.Info("maintenance runner stopped")
				return
			case <-ticker.C:
				now := time.Now()
				if now.After(r.nextPurge) {
					r.nextPurge = purgeSched.Next(now)
					r.runPurge(ctx)
				}
				if now.After(r.nextClassifier) {
					r.nextClassifier = classifierSched.Next(now)
					r.runClassifierRefresh(ctx)
				}
			}
		}
	}()

	return cancel, nil
}

// runPurge hard-deletes soft-deleted rows older than the retention window.
func (r *Runner) runPurge(ctx context.Context) {
	cutoff := time.Now().AddDate(0, 0, -r.cfg.Retention())

	removed, err := r.store.Admin().PurgeDeleted(ctx, cutoff)
	if err != nil {
		r.logger.ErrorContext(ctx, "retention sweep failed", slog.String("error", err.Error()))
		r.recordRun("purge", "error")
		return
	}

	r.logger.InfoContext(ctx, "retention sweep completed",
		slog.Int64("removed", removed),
		slog.String("cutoff", cutoff.Format(time.RFC3339)),
	)
	r.recordRun("purge", "success")
}

// runClassifierRefresh rebuilds the matching-rule snapshot for every active
// tenant. Each tenant's snapshot is built on a context bound to that tenant,
// so the scoped store only ever hands back that tenant's rules.
func (r *Runner) runClassifierRefresh(ctx context.Context) {
	tenants, err := r.store.Tenants().List(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "classifier refresh: listing tenants failed", slog.String("error", err.Error()))
		r.recordRun("classifier", "error")
		return
	}

	var failed int
	for i := range tenants {
		tn := tenants[i]
		if !tn.Active {
			continue
		}
		if err := tenant.RunAs(ctx, tn.ID, r.refreshTenantClassifier); err != nil {
			failed++
			r.logger.WarnContext(ctx, "classifier refresh failed for tenant",
				slog.String("tenant", tn.Slug),
				slog.String("error", err.Error()),
			)
		}
	}

	if failed > 0 {
		r.recordRun("classifier", "error")
		return
	}
	r.logger.InfoContext(ctx, "classifier refresh completed", slog.Int("tenants", len(tenants)))
	r.recordRun("classifier", "success")
}

// refreshTenantClassifier builds and writes one tenant's snapshot. ctx must
// be bound to the tenant; all reads below go through scoped accessors.
func (r *Runner) refreshTenantClassifier(ctx context.Context) error {
	artifact := ClassifierArtifact{GeneratedAt: time.Now().UTC()}

	count, err := r.store.Documents().Count(ctx)
	if err != nil {
		return fmt.Errorf("counting documents: %w", err)
	}
	artifact.DocumentCount = count

	tags, err := r.store.Tags().List(ctx)
	if err != nil {
		return fmt.Errorf("listing tags: %w", err)
	}
	for i := range tags {
		artifact.Rules = append(artifact.Rules, ClassifierRule{
			Kind: "tag",
			ID:   tags[i].ID.String(),
			Name: tags[i].Name,
		})
	}

	correspondents, err := r.store.Correspondents().List(ctx)
	if err != nil {
		return fmt.Errorf("listing correspondents: %w", err)
	}
	for i := range correspondents {
		artifact.Rules = append(artifact.Rules, ClassifierRule{
			Kind:              "correspondent",
			ID:                correspondents[i].ID.String(),
			Name:              correspondents[i].Name,
			Match:             correspondents[i].Match,
			MatchingAlgorithm: correspondents[i].MatchingAlgorithm,
		})
	}

	types, err := r.store.DocumentTypes().List(ctx)
	if err != nil {
		return fmt.Errorf("listing document types: %w", err)
	}
	for i := range types {
		artifact.Rules = append(artifact.Rules, ClassifierRule{
			Kind:              "document_type",
			ID:                types[i].ID.String(),
			Name:              types[i].Name,
			Match:             types[i].Match,
			MatchingAlgorithm: types[i].MatchingAlgorithm,
		})
	}

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding classifier artifact: %w", err)
	}

	// The path resolves inside the tenant's directory because ctx is bound.
	path := r.ws.ArtifactPath(ctx, ClassifierArtifactName)
	if err := os.WriteFile(path, data, 0640); err != nil {
		return fmt.Errorf("writing classifier artifact: %w", err)
	}
	return nil
}

func (r *Runner) recordRun(job, status string) {
	if r.metrics != nil {
		r.metrics.MaintenanceRunsTotal.WithLabelValues(job, status).Inc()
	}
}
