package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"roadnet/internal/config"
	"roadnet/internal/geometry/geoskernel"
	"roadnet/internal/logger"
	"roadnet/internal/meshblock"
	"roadnet/internal/metrics"
	"roadnet/internal/pipeline"
	"roadnet/internal/runstate"
	"roadnet/internal/source"
	"roadnet/internal/store"
	"roadnet/internal/utils"
	"roadnet/internal/validate"
)

var (
	dryRun     bool
	arcsPath   string
	facesPath  string
	reportPath string
	lockTTL    time.Duration
	summaryTTL time.Duration
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run topology rules; rebuild faces and side links when the network is clean",
	Long: `Loads the segment network (PostGIS by default, GeoJSON with --arcs), evaluates
rules 101..403, writes v<code> flag columns and the cluster tolerance export, and when
every rule passes reconciles meshblock identities and segment left/right links.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	f := validateCmd.Flags()
	f.BoolVar(&dryRun, "dry-run", false, "compute everything, write nothing")
	f.StringVar(&arcsPath, "arcs", "", "GeoJSON segments; switches to offline mode")
	f.StringVar(&facesPath, "faces", "", "GeoJSON meshblocks of the previous run (offline mode)")
	f.StringVar(&reportPath, "report", "", "write a JSON report (offline mode)")
	f.DurationVar(&lockTTL, "lock-ttl", 2*time.Hour, "dataset lock expiry")
	f.DurationVar(&summaryTTL, "summary-ttl", 30*24*time.Hour, "expiry of the published summary")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	var out *pipeline.Outcome
	if arcsPath != "" {
		out, err = validateOffline(cfg)
	} else {
		out, err = validateDatabase(ctx, cfg)
	}
	metrics.Observe(cfg.Dataset(), out, time.Since(start), err)
	if url := os.Getenv("PUSHGATEWAY_URL"); url != "" {
		if perr := metrics.Push(url, cfg.Dataset()); perr != nil {
			logger.L().Warn("metrics_push_error", "err", perr)
		}
	}
	if err != nil {
		var pe *meshblock.ParityError
		if errors.As(err, &pe) {
			logger.L().Error("parity_not_converged", "arc", pe.ArcID, "iterations", pe.Iterations)
		}
		return err
	}
	logger.L().Info("validate_done", "dataset", cfg.Dataset(), "clean", out.Clean(), "elapsed", time.Since(start))
	return nil
}

func newPipeline(k *geoskernel.Kernel, cfg *config.Config) *pipeline.Pipeline {
	return pipeline.New(k, pipeline.Options{
		MinVertexDist:       cfg.Topology.MinVertexDist,
		ParityMaxIterations: cfg.Topology.ParityMaxIterations,
	})
}

func validateOffline(cfg *config.Config) (*pipeline.Outcome, error) {
	k := geoskernel.New()
	arcs, err := source.LoadArcs(arcsPath, cfg)
	if err != nil {
		return nil, err
	}
	prev, err := source.LoadFaces(facesPath, cfg, k)
	if err != nil {
		return nil, err
	}
	out, err := newPipeline(k, cfg).Run(arcs, prev)
	if err != nil {
		return nil, err
	}
	if reportPath != "" && !dryRun {
		if err := source.WriteReport(reportPath, source.BuildReport(k, cfg.Dataset(), out)); err != nil {
			return out, err
		}
		logger.L().Info("report_written", "path", reportPath)
	}
	return out, nil
}

func validateDatabase(ctx context.Context, cfg *config.Config) (*pipeline.Outcome, error) {
	l := logger.L()
	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		return nil, err
	}
	k := geoskernel.New()
	st := store.AttachDB(db, cfg, k)
	defer st.Close()
	if err := st.Ping(ctx); err != nil {
		l.Error("db_ping_error", "err", err)
		return nil, err
	}
	l.Info("db_ping_ok")

	rc := utils.OpenRedisFromEnv()
	if rc == nil {
		l.Info("redis_disabled")
	} else {
		defer rc.Close()
		if err := rc.Ping(ctx).Err(); err != nil {
			l.Error("redis_ping_error", "err", err)
			return nil, err
		}
		l.Info("redis_ping_ok")
	}
	lease, err := runstate.Lock(ctx, rc, cfg.Dataset(), lockTTL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lease.Release(context.Background()); err != nil {
			l.Warn("run_lock_release_error", "err", err)
		}
	}()

	arcs, err := st.LoadArcs(ctx)
	if err != nil {
		return nil, err
	}
	prev, err := st.LoadFaces(ctx)
	if err != nil {
		return nil, err
	}
	out, err := newPipeline(k, cfg).Run(arcs, prev)
	if err != nil {
		return nil, err
	}
	if dryRun {
		l.Info("dry_run", "writes", "skipped")
		return out, nil
	}
	if err := persist(ctx, st, out); err != nil {
		return out, err
	}
	if err := runstate.PublishSummary(ctx, rc, cfg.Dataset(), out.Validation, summaryTTL); err != nil {
		l.Warn("summary_publish_error", "err", err)
	}
	return out, nil
}

// persist：标记与导出每次都写；面变更只在校验通过后写；三者同一事务提交
func persist(ctx context.Context, st *store.Store, out *pipeline.Outcome) error {
	done := logger.Stage("persist")
	defer done()
	var cs *meshblock.Changeset
	if out.Reconciliation != nil {
		cs = &out.Reconciliation.Changeset
	}
	return st.Persist(ctx, out.Validation, out.Validation.Exports[validate.ExportClusterTolerance], cs)
}

