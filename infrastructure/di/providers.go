package di

import (
	"weaveclient/application/ports"
	"weaveclient/application/services"
	"weaveclient/application/store"
	"weaveclient/infrastructure/config"
	"weaveclient/infrastructure/persistence/badgerstore"
	"weaveclient/infrastructure/remote"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Container holds all application dependencies
type Container struct {
	Config    *config.Config
	Logger    *zap.Logger
	Service   ports.WeaveService
	Snapshots ports.SnapshotStore
	Store     *store.CacheStore
	Editor    *services.WeaveEditor
}

// Close releases resources owned by the container
func (c *Container) Close() error {
	if c.Snapshots != nil {
		return c.Snapshots.Close()
	}
	return nil
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}

// ProvideWeaveService creates the remote service client
func ProvideWeaveService(cfg *config.Config, logger *zap.Logger) ports.WeaveService {
	return remote.NewHTTPWeaveService(cfg.ServiceBaseURL, cfg.ServiceTimeout, logger)
}

// ProvideSnapshotStore opens the offline snapshot cache, or returns nil
// when snapshots are disabled
func ProvideSnapshotStore(cfg *config.Config, logger *zap.Logger) (ports.SnapshotStore, error) {
	if !cfg.SnapshotsEnable {
		return nil, nil
	}
	return badgerstore.Open(cfg.SnapshotPath, logger)
}

// ProvideCacheStore creates the weave cache store
func ProvideCacheStore(
	service ports.WeaveService,
	snapshots ports.SnapshotStore,
	cfg *config.Config,
	logger *zap.Logger,
) *store.CacheStore {
	opts := []store.Option{}
	if snapshots != nil {
		opts = append(opts, store.WithSnapshotStore(snapshots))
	}
	if !cfg.ClusteringEnabled {
		opts = append(opts, store.WithClusteringDisabled())
	}
	return store.NewCacheStore(service, logger, opts...)
}

// ProvideWeaveEditor creates the mutation façade
func ProvideWeaveEditor(cacheStore *store.CacheStore, logger *zap.Logger) *services.WeaveEditor {
	return services.NewWeaveEditor(cacheStore, logger)
}
