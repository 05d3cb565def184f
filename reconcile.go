package curriculum

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// ReconcileReport summarises one reconciliation sweep.
type ReconcileReport struct {
	OrphansCleaned []string `json:"orphansCleaned"`
	Finalized      []string `json:"finalized"`
	Discarded      []string `json:"discarded"`
}

// Reconcile repairs what failed publishes left behind. Recorded orphans are
// deleted. Versions stuck in publishing for longer than olderThan are marked
// published when their export row exists, since the export is written last,
// and deleted otherwise. Every action is idempotent, so a sweep that dies
// halfway can simply be run again.
func (p *Publisher) Reconcile(ctx context.Context, olderThan time.Duration) (ReconcileReport, error) {
	var rep ReconcileReport
	var errs error

	orphans, err := p.store.ListOrphans(ctx)
	if err != nil {
		p.log.Error(err, "could not list orphaned versions")
		return rep, fmt.Errorf("curriculum: list orphans: %w", err)
	}
	for _, o := range orphans {
		if err := p.discard(ctx, o.VersionID); err != nil {
			p.log.Error(err, "could not clean orphaned version", "versionId", o.VersionID)
			errs = multierr.Append(errs, err)
			continue
		}
		if err := p.store.ClearOrphan(ctx, o.VersionID); err != nil {
			p.log.Error(err, "could not clear orphan record", "versionId", o.VersionID)
			errs = multierr.Append(errs, fmt.Errorf("curriculum: clear orphan %s: %w", o.VersionID, err))
			continue
		}
		p.log.Info("cleaned orphaned version", "versionId", o.VersionID, "reason", o.Reason)
		rep.OrphansCleaned = append(rep.OrphansCleaned, o.VersionID)
	}

	stuck, err := p.store.ListStuckVersions(ctx, p.now().Add(-olderThan))
	if err != nil {
		p.log.Error(err, "could not list stuck versions")
		return rep, multierr.Append(errs, fmt.Errorf("curriculum: list stuck versions: %w", err))
	}
	for _, v := range stuck {
		complete, err := p.store.HasExport(ctx, v.ID)
		if err != nil {
			p.log.Error(err, "could not check export of stuck version", "versionId", v.ID)
			errs = multierr.Append(errs, fmt.Errorf("curriculum: check export %s: %w", v.ID, err))
			continue
		}
		if complete {
			if err := p.store.MarkPublished(ctx, v.ID, p.now().UTC()); err != nil {
				p.log.Error(err, "could not finalize stuck version", "versionId", v.ID)
				errs = multierr.Append(errs, fmt.Errorf("curriculum: finalize %s: %w", v.ID, err))
				continue
			}
			p.log.Info("finalized stuck version", "versionId", v.ID, "graphId", v.SourceGraphID, "versionNumber", v.VersionNumber)
			rep.Finalized = append(rep.Finalized, v.ID)
			continue
		}
		if err := p.discard(ctx, v.ID); err != nil {
			p.log.Error(err, "could not discard incomplete version", "versionId", v.ID)
			errs = multierr.Append(errs, err)
			continue
		}
		p.log.Info("discarded incomplete version", "versionId", v.ID, "graphId", v.SourceGraphID, "versionNumber", v.VersionNumber)
		rep.Discarded = append(rep.Discarded, v.ID)
	}

	return rep, errs
}

// discard runs the full compensation ladder for a version.
func (p *Publisher) discard(ctx context.Context, versionID string) error {
	for _, c := range []compensation{
		{"delete_export", p.store.DeleteExport},
		{"delete_edges", p.store.DeleteEdges},
		{"delete_nodes", p.store.DeleteNodes},
		{"delete_version", p.store.DeleteVersion},
	} {
		if err := c.run(ctx, versionID); err != nil {
			return fmt.Errorf("curriculum: discard %s: %s: %w", versionID, c.name, err)
		}
	}
	return nil
}
