package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/Fayzenx/Vinox/internal/config"
	"github.com/Fayzenx/Vinox/internal/persistence/backup"
	"github.com/Fayzenx/Vinox/internal/persistence/chunkdb"
	"github.com/Fayzenx/Vinox/internal/persistence/mutlog"
	"github.com/Fayzenx/Vinox/internal/persistence/objstore"
	"github.com/Fayzenx/Vinox/internal/transport/ws"
	"github.com/Fayzenx/Vinox/internal/world"
	"github.com/Fayzenx/Vinox/internal/world/block"
	"github.com/Fayzenx/Vinox/internal/world/chunk"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to config.yaml (empty for defaults)")
		addr        = flag.String("addr", "", "http listen address (overrides config)")
		dbPath      = flag.String("db", "", "chunk database path (overrides config)")
		seed        = flag.Int64("seed", 0, "world seed (overrides config when non-zero)")
		flushEvery  = flag.Duration("flush_every", 30*time.Second, "how often to persist dirty chunks")
		restoreFrom = flag.String("restore", "", "restore the chunk database from a backup file and exit")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *addr != "" {
		cfg.Listen = *addr
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}

	table, err := block.LoadTable(cfg.BlocksPath, cfg.BlockSchemaPath)
	if err != nil {
		logger.Fatalf("load block table: %v", err)
	}
	logger.Printf("block table: %d blocks, digest %.12s", len(table.Defs), table.Digest)

	db, err := chunkdb.Open(cfg.DBPath)
	if err != nil {
		logger.Fatalf("open chunk db: %v", err)
	}
	defer db.Close()

	if *restoreFrom != "" {
		if err := restore(db, *restoreFrom, cfg); err != nil {
			logger.Fatalf("restore: %v", err)
		}
		logger.Printf("restored %s into %s", *restoreFrom, cfg.DBPath)
		return
	}

	if err := verifyMeta(db, cfg); err != nil {
		logger.Fatalf("chunk db: %v", err)
	}

	gen := world.DefaultWorldGen(cfg.Seed)
	gen.BoundaryR = cfg.BoundaryR
	store := world.NewChunkStore(gen, cfg.ChunkEdge, cfg.TrimEveryWrites)

	srv := ws.NewServer(store, table, ws.Params{
		ViewHorizontal: cfg.ViewRadius.Horizontal,
		ViewVertical:   cfg.ViewRadius.Vertical,
		Seed:           cfg.Seed,
	}, logger)

	if cfg.MutationLogDir != "" {
		audit := mutlog.New(cfg.MutationLogDir)
		defer audit.Close()
		srv.RecordMutations(audit)
		logger.Printf("mutation log: %s", cfg.MutationLogDir)
	}

	var mirror *objstore.Client
	if cfg.Mirror.Enabled() {
		mirror, err = objstore.New(cfg.Mirror.Endpoint, cfg.Mirror.Bucket,
			os.Getenv("OBJSTORE_ACCESS_KEY_ID"), os.Getenv("OBJSTORE_SECRET_ACCESS_KEY"))
		if err != nil {
			logger.Fatalf("mirror: %v", err)
		}
		logger.Printf("mirroring backups to %s/%s", cfg.Mirror.Endpoint, cfg.Mirror.Bucket)
	}

	if n, err := preload(db, srv, cfg, logger); err != nil {
		logger.Fatalf("preload chunks: %v", err)
	} else if n > 0 {
		logger.Printf("restored %d chunks from %s", n, cfg.DBPath)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/ws", srv.Handler())

	httpSrv := &http.Server{Addr: cfg.Listen, Handler: mux}
	go func() {
		logger.Printf("listening on %s", cfg.Listen)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	flushTicker := time.NewTicker(*flushEvery)
	defer flushTicker.Stop()

	var backupCh <-chan time.Time
	if cfg.Backup.Dir != "" {
		backupTicker := time.NewTicker(time.Duration(cfg.Backup.EveryMinutes) * time.Minute)
		defer backupTicker.Stop()
		backupCh = backupTicker.C
	}

	for {
		select {
		case <-flushTicker.C:
			if n, err := flushDirty(db, srv); err != nil {
				logger.Printf("flush: %v", err)
			} else if n > 0 {
				logger.Printf("flushed %d dirty chunks", n)
			}
		case <-backupCh:
			if _, err := flushDirty(db, srv); err != nil {
				logger.Printf("pre-backup flush: %v", err)
				continue
			}
			if err := runBackup(ctx, db, cfg, table.Digest, mirror, logger); err != nil {
				logger.Printf("backup: %v", err)
			}
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = httpSrv.Shutdown(shutdownCtx)
			if n, err := flushDirty(db, srv); err != nil {
				logger.Printf("final flush: %v", err)
			} else {
				logger.Printf("final flush: %d chunks", n)
			}
			return
		}
	}
}

// verifyMeta refuses to serve a database created with different world
// parameters, and stamps a fresh one.
func verifyMeta(db *chunkdb.Store, cfg config.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	checks := map[string]string{
		"seed":       strconv.FormatInt(cfg.Seed, 10),
		"chunk_edge": strconv.Itoa(cfg.ChunkEdge),
	}
	for key, want := range checks {
		got, err := db.GetMeta(ctx, key)
		if errors.Is(err, chunkdb.ErrNotFound) {
			if err := db.PutMeta(ctx, key, want); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
		if got != want {
			return fmt.Errorf("stored %s is %s, config says %s", key, got, want)
		}
	}
	return nil
}

// restore replaces the chunk database contents with a backup file.
func restore(db *chunkdb.Store, path string, cfg config.Config) error {
	b, err := backup.Read(path)
	if err != nil {
		return err
	}
	if b.Header.ChunkEdge != 0 && b.Header.ChunkEdge != cfg.ChunkEdge {
		return fmt.Errorf("backup chunk_edge %d, config says %d", b.Header.ChunkEdge, cfg.ChunkEdge)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	return backup.Restore(ctx, db, b)
}

func runBackup(ctx context.Context, db *chunkdb.Store, cfg config.Config, digest string, mirror *objstore.Client, logger *log.Logger) error {
	b, err := backup.Capture(ctx, db, backup.Header{
		Seed:        cfg.Seed,
		ChunkEdge:   cfg.ChunkEdge,
		BlockDigest: digest,
	})
	if err != nil {
		return err
	}
	name := fmt.Sprintf("world-%s.bak", time.Now().UTC().Format("20060102-150405"))
	path := filepath.Join(cfg.Backup.Dir, name)
	if err := backup.Write(path, b); err != nil {
		return err
	}
	logger.Printf("backup: wrote %s (%d chunks)", path, len(b.Chunks))

	if mirror != nil {
		key := name
		if cfg.Mirror.Prefix != "" {
			key = cfg.Mirror.Prefix + "/" + name
		}
		if err := mirror.Upload(ctx, key, path); err != nil {
			return fmt.Errorf("mirror %s: %w", key, err)
		}
		logger.Printf("backup: mirrored %s", key)
	}
	return nil
}

// preload restores every persisted chunk into the store. Corrupt rows are
// dropped and regenerate on demand.
func preload(db *chunkdb.Store, srv *ws.Server, cfg config.Config, logger *log.Logger) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	keys, err := db.Keys(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, key := range keys {
		raw, err := db.Get(ctx, key)
		if err != nil {
			logger.Printf("drop corrupt chunk (%d,%d,%d): %v", key.X, key.Y, key.Z, err)
			_ = db.Delete(ctx, key)
			continue
		}
		ch, err := chunk.FromRaw(raw, cfg.ChunkEdge, cfg.TrimEveryWrites)
		if err != nil {
			logger.Printf("drop stale chunk (%d,%d,%d): %v", key.X, key.Y, key.Z, err)
			_ = db.Delete(ctx, key)
			continue
		}
		srv.Sync(func(store *world.ChunkStore) {
			store.Put(key, ch)
		})
		n++
	}
	return n, nil
}

// flushDirty persists every loaded chunk that changed since the last flush.
func flushDirty(db *chunkdb.Store, srv *ws.Server) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var firstErr error
	n := 0
	srv.Sync(func(store *world.ChunkStore) {
		for _, key := range store.LoadedKeys() {
			ch := store.Chunk(key)
			if ch == nil || !ch.IsDirty() {
				continue
			}
			if err := db.Put(ctx, key, ch.ToRaw()); err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			ch.SetDirty(false)
			n++
		}
	})
	return n, firstErr
}
