package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gitconddb/gitconddb"
	"github.com/gitconddb/gitconddb/internal/audit"
	"github.com/gitconddb/gitconddb/internal/cache"
	"github.com/gitconddb/gitconddb/internal/config"
	"github.com/gitconddb/gitconddb/internal/logging"
	"github.com/gitconddb/gitconddb/internal/metrics"
	"github.com/gitconddb/gitconddb/internal/output"
	"github.com/spf13/cobra"
)

func loadConfig(storeURI string) (*config.Config, error) {
	var cfg *config.Config
	if configFile != "" {
		var err error
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}
	config.LoadFromEnv(cfg)

	if storeURI != "" {
		cfg.Store.URI = storeURI
	}
	if logLevel != "" {
		cfg.Observability.Logging.Level = logLevel
	}
	return cfg, nil
}

func connect(storeURI string) (*gitconddb.CondDB, *config.Config, error) {
	cfg, err := loadConfig(storeURI)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Store.URI == "" {
		return nil, nil, fmt.Errorf("no back-end configured: pass -r/--store or set GITCONDDB_STORE_URI")
	}

	level := logging.ParseLevel(cfg.Observability.Logging.Level)
	console := logging.NewConsoleLogger(os.Stderr, level)

	ctx := context.Background()
	opts := []gitconddb.Option{
		gitconddb.WithLogger(console),
		gitconddb.WithIOVReduction(cfg.Store.IOVReduction),
		gitconddb.WithObservability(ctx, cfg.Observability),
	}

	if cfg.Redis.Enabled {
		rc := cache.NewRedisCache(cache.RedisCacheConfig{Addr: cfg.Redis.Addr, KeyPrefix: cfg.Redis.KeyPrefix})
		opts = append(opts, gitconddb.WithCommitTimeCache(rc, cfg.Redis.KeyPrefix, cfg.Redis.TTL))
	}
	if cfg.Postgres.Enabled {
		if log, aerr := audit.Connect(ctx, cfg.Postgres.DSN); aerr == nil {
			opts = append(opts, gitconddb.WithAudit(log))
		} else {
			console.Warning(fmt.Sprintf("audit: %v (continuing without audit trail)", aerr))
		}
	}

	db, err := gitconddb.Connect(cfg.Store.URI, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	return db, cfg, nil
}

func printer() *output.Printer {
	return output.NewPrinter(output.ParseFormat(format))
}

func getCmd() *cobra.Command {
	var uriFlag, tagFlag, pathFlag string
	var timeFlag uint64
	var sinceFlag, untilFlag uint64
	var boundedFlag, noReduceFlag bool

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Resolve a conditions path at a point in time",
		RunE: func(cmd *cobra.Command, args []string) error {
			if pathFlag == "" {
				return fmt.Errorf("get: -p <path> is required")
			}

			db, _, err := connect(uriFlag)
			if err != nil {
				return err
			}
			defer db.Disconnect()
			if noReduceFlag {
				db.SetIOVReduction(false)
			}

			bounds := gitconddb.Full()
			if boundedFlag {
				bounds = gitconddb.IOV{Since: gitconddb.TimePoint(sinceFlag), Until: gitconddb.TimePoint(untilFlag)}
			}

			payload, result, err := db.Get(context.Background(), tagFlag, pathFlag, gitconddb.TimePoint(timeFlag), bounds)
			if err != nil {
				return err
			}

			return printer().PrintGetResult(output.GetResult{
				Tag:     tagFlag,
				Path:    pathFlag,
				Time:    timeFlag,
				Payload: payload,
				Since:   uint64(result.Since),
				Until:   uint64(result.Until),
				Valid:   result.Valid(),
			})
		},
	}

	cmd.Flags().StringVarP(&uriFlag, "store", "r", "", "back-end URI (git:<path>, file:<path>, json:<doc>, s3://<bucket>/<prefix>)")
	cmd.Flags().StringVarP(&tagFlag, "tag", "v", "", "back-end tag (branch/ref); empty means the back-end's default")
	cmd.Flags().StringVarP(&pathFlag, "path", "p", "", "conditions path to resolve")
	cmd.Flags().Uint64VarP(&timeFlag, "time", "t", 0, "time point to resolve at")
	cmd.Flags().Uint64Var(&sinceFlag, "bounds-since", 0, "lower bound of the search interval (requires --bounded)")
	cmd.Flags().Uint64Var(&untilFlag, "bounds-until", 0, "upper bound of the search interval (requires --bounded)")
	cmd.Flags().BoolVar(&boundedFlag, "bounded", false, "narrow the search to [--bounds-since, --bounds-until) instead of the full axis")
	cmd.Flags().BoolVar(&noReduceFlag, "no-reduce", false, "disable manifest-entry reduction for this call")
	return cmd
}

func boundariesCmd() *cobra.Command {
	var uriFlag, tagFlag, pathFlag string

	cmd := &cobra.Command{
		Use:   "boundaries",
		Short: "List the time points at which a path's resolved structure changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if pathFlag == "" {
				return fmt.Errorf("boundaries: -p <path> is required")
			}

			db, _, err := connect(uriFlag)
			if err != nil {
				return err
			}
			defer db.Disconnect()

			points, err := db.IOVBoundaries(context.Background(), tagFlag, pathFlag, gitconddb.Full())
			if err != nil {
				return err
			}

			boundaries := make([]uint64, len(points))
			for i, p := range points {
				boundaries[i] = uint64(p)
			}
			return printer().PrintBoundariesResult(output.BoundariesResult{
				Tag:        tagFlag,
				Path:       pathFlag,
				Boundaries: boundaries,
			})
		},
	}

	cmd.Flags().StringVarP(&uriFlag, "store", "r", "", "back-end URI (git:<path>, file:<path>, json:<doc>, s3://<bucket>/<prefix>)")
	cmd.Flags().StringVarP(&tagFlag, "tag", "v", "", "back-end tag (branch/ref); empty means the back-end's default")
	cmd.Flags().StringVarP(&pathFlag, "path", "p", "", "conditions path to inspect")
	return cmd
}

func commitTimeCmd() *cobra.Command {
	var uriFlag string

	cmd := &cobra.Command{
		Use:   "commit-time <ref>",
		Short: "Print the wall-clock time point of a back-end ref",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := connect(uriFlag)
			if err != nil {
				return err
			}
			defer db.Disconnect()

			t, err := db.CommitTime(context.Background(), args[0])
			if err != nil {
				return err
			}
			return printer().PrintCommitTimeResult(output.CommitTimeResult{
				Ref:        args[0],
				CommitTime: uint64(t),
			})
		},
	}
	cmd.Flags().StringVarP(&uriFlag, "store", "r", "", "back-end URI (git:<path>, file:<path>, json:<doc>, s3://<bucket>/<prefix>)")
	return cmd
}

// dirDocument mirrors the {"dirs":[...],"files":[...],"root":"..."} shape
// resolve.DefaultDirConverter renders, the same shape
// src/utilities/read_gitconddb.cpp parses out of its own get() call before
// cloning a source's files to the local cache.
type dirDocument struct {
	Files []string `json:"files"`
}

func dumpCmd() *cobra.Command {
	var uriFlag, tagFlag, sourceFlag, conditionFlag string
	var timeFlag uint64

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Resolve a source and mirror its files into the local cache directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sourceFlag == "" {
				return fmt.Errorf("dump: -s <source> is required")
			}

			db, cfg, err := connect(uriFlag)
			if err != nil {
				return err
			}
			defer db.Disconnect()

			ctx := context.Background()
			p := printer()
			t := gitconddb.TimePoint(timeFlag)

			if conditionFlag != "" {
				path := sourceFlag + "/" + conditionFlag
				payload, result, err := db.Get(ctx, tagFlag, path, t, gitconddb.Full())
				if err != nil {
					return err
				}
				return p.PrintGetResult(output.GetResult{
					Tag:     tagFlag,
					Path:    path,
					Time:    timeFlag,
					Payload: payload,
					Since:   uint64(result.Since),
					Until:   uint64(result.Until),
					Valid:   result.Valid(),
				})
			}

			return dumpSource(ctx, db, p, cfg, tagFlag, sourceFlag, t)
		},
	}

	cmd.Flags().StringVarP(&uriFlag, "store", "r", "", "back-end URI (git:<path>, file:<path>, json:<doc>, s3://<bucket>/<prefix>)")
	cmd.Flags().StringVarP(&tagFlag, "tag", "v", "HEAD", "back-end tag (branch/ref)")
	cmd.Flags().StringVarP(&sourceFlag, "source", "s", "", "conditions source directory to clone into the cache")
	cmd.Flags().StringVarP(&conditionFlag, "condition", "c", "", "single condition under source to resolve and print, instead of cloning")
	cmd.Flags().Uint64VarP(&timeFlag, "time", "t", 0, "time point to resolve at")
	return cmd
}

// dumpSource mirrors src/utilities/read_gitconddb.cpp's clone path: resolve
// source itself to its directory document, then get and write every file
// it lists (one level, no recursion into sub-directories) under
// <cache-directory>/<tag>/<source>/<file>.
func dumpSource(ctx context.Context, db *gitconddb.CondDB, p *output.Printer, cfg *config.Config, tag, source string, t gitconddb.TimePoint) error {
	payload, _, err := db.Get(ctx, tag, source, t, gitconddb.Full())
	if err != nil {
		return fmt.Errorf("dump: resolve source %s: %w", source, err)
	}

	var doc dirDocument
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return fmt.Errorf("dump: %s did not resolve to a directory document: %w", source, err)
	}
	if len(doc.Files) == 0 {
		p.Warning("dump: %s has no files at time %d", source, t)
		return nil
	}

	cacheRoot := cfg.Store.CacheDirectory
	if cacheRoot == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("dump: resolve cache directory: %w", err)
		}
		cacheRoot = filepath.Join(home, ".cache", "gitconddb")
	}
	destDir := filepath.Join(cacheRoot, tag, source)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("dump: create %s: %w", destDir, err)
	}

	for _, file := range doc.Files {
		content, _, err := db.Get(ctx, tag, source+"/"+file, t, gitconddb.Full())
		if err != nil {
			p.Error("%s/%s: %v", source, file, err)
			continue
		}
		dest := filepath.Join(destDir, file)
		if err := os.WriteFile(dest, []byte(content), 0o644); err != nil {
			return fmt.Errorf("dump: write %s: %w", dest, err)
		}
		p.Success("wrote %s", dest)
	}
	return nil
}

func metricsServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "metrics-serve",
		Short: "Serve the Prometheus registry over HTTP for a long-running embedding",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig("")
			if err != nil {
				return err
			}
			if !cfg.Observability.Metrics.Enabled {
				return fmt.Errorf("metrics-serve: observability.metrics.enabled is false")
			}
			metrics.InitPrometheus(cfg.Observability.Metrics.Namespace)

			mux := http.NewServeMux()
			mux.Handle("GET /metrics/prometheus", metrics.PrometheusHandler())
			fmt.Fprintf(os.Stderr, "serving metrics on %s/metrics/prometheus\n", addr)
			return http.ListenAndServe(addr, mux)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":9090", "listen address")
	return cmd
}
