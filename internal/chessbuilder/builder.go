package chessbuilder

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/adapter/chesspresenter"
	corechess "github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/chess"
	"github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/config"
	"github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/httpapi"
	"github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/lmsnotify"
	"github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/msgcat"
	svcchess "github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/service/chess"
)

type Deps struct {
	Service   *svcchess.Service
	Engine    *corechess.Engine
	Store     svcchess.SessionStore
	Repo      svcchess.Repository
	Presenter *chesspresenter.Presenter
	Server    *httpapi.Server

	closers []io.Closer
}

// Close releases the Redis and Postgres handles opened by New.
func (d *Deps) Close() error {
	var first error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	d.closers = nil
	return first
}

// New wires the tutor from cfg. REDIS_URL and DATABASE_URL are optional;
// without them sessions and archives stay in process memory.
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.HardReplyCap > 0 {
		if err := applyHardReplyCap(cfg.HardReplyCap); err != nil {
			return nil, err
		}
	}
	deps := &Deps{Engine: corechess.NewEngine()}

	if strings.TrimSpace(cfg.RedisURL) != "" {
		store, err := svcchess.NewRedisStoreFromURL(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("init redis session store: %w", err)
		}
		deps.Store = store
		deps.closers = append(deps.closers, store)
	} else {
		logger.Warn("REDIS_URL not set; tutor sessions are kept in memory")
		deps.Store = svcchess.NewMemoryStore()
	}

	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		db, err := openPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			_ = deps.Close()
			return nil, err
		}
		deps.closers = append(deps.closers, db)
		deps.Repo = svcchess.NewRepository(db)
	} else {
		logger.Warn("DATABASE_URL not set; finished games are kept in memory")
		deps.Repo = svcchess.NewMemoryRepository()
	}

	var notifier svcchess.ResultNotifier
	if cfg.LMSBaseURL != "" {
		notifier = lmsnotify.NewClient(cfg.LMSBaseURL,
			lmsnotify.WithToken(cfg.LMSAPIToken),
			lmsnotify.WithRetry(cfg.LMSRetryMax),
			lmsnotify.WithLogger(logger.Named("lms")),
		)
	}

	service, err := svcchess.NewService(deps.Engine, deps.Store, deps.Repo, svcchess.NewPNGBoardRenderer(), notifier, svcchess.Config{
		DefaultDifficulty: cfg.DefaultDifficulty,
		SessionTTL:        cfg.SessionTTL(),
		HistoryLimit:      cfg.HistoryLimit,
		ThinkDelay:        cfg.ThinkDelay,
		AllowedCourses:    append([]string(nil), cfg.AllowedCourses...),
	}, logger.Named("tutor"))
	if err != nil {
		_ = deps.Close()
		return nil, err
	}
	deps.Service = service

	catalog, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		_ = deps.Close()
		return nil, fmt.Errorf("load messages: %w", err)
	}
	deps.Presenter = chesspresenter.NewPresenter(chesspresenter.NewFormatter(catalog, cfg.TimeZone))

	deps.Server, err = httpapi.NewServer(service, deps.Presenter, logger.Named("http"), httpapi.Options{
		OriginPatterns: cfg.OriginPatterns,
	})
	if err != nil {
		_ = deps.Close()
		return nil, err
	}
	return deps, nil
}

func applyHardReplyCap(n int) error {
	p, err := corechess.GetPreset(corechess.Hard)
	if err != nil {
		return err
	}
	p.ReplyCap = n
	if err := corechess.SetPreset(p); err != nil {
		return fmt.Errorf("hard reply cap: %w", err)
	}
	return nil
}

func openPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(pingCtx, svcchess.Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply tutor schema: %w", err)
	}
	return db, nil
}
