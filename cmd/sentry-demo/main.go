/*
 * © 2026 Snyk Limited All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Command sentry-demo serves a small user directory whose requests are traced to Sentry.
package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/snyk/sentry-instrumentation/application/config"
	"github.com/snyk/sentry-instrumentation/application/provider"
	"github.com/snyk/sentry-instrumentation/infrastructure/cache"
	"github.com/snyk/sentry-instrumentation/infrastructure/database"
	"github.com/snyk/sentry-instrumentation/infrastructure/view"
	"github.com/snyk/sentry-instrumentation/internal/metrics"
)

type options struct {
	configFile string
	envFiles   []string
	addr       string
	dbPath     string
	templates  string
	cacheTTL   time.Duration
	logLevel   string
}

func main() {
	opts, output, err := parseFlags(os.Args)
	if err != nil {
		fmt.Println(err, output)
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err = run(ctx, opts); err != nil {
		log.Error().Err(err).Msg("sentry-demo stopped")
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, string, error) {
	flags := pflag.NewFlagSet(args[0], pflag.ContinueOnError)
	var buf bytes.Buffer
	flags.SetOutput(&buf)

	var opts options
	flags.StringVarP(&opts.configFile, "config", "c", "", "path of a yaml, ini or json config file")
	flags.StringSliceVar(&opts.envFiles, "env-file", nil, "dotenv files providing SENTRY_* variables")
	flags.StringVar(&opts.addr, "addr", ":8080", "address to listen on")
	flags.StringVar(&opts.dbPath, "db", "sentry-demo.db", "sqlite database file")
	flags.StringVar(&opts.templates, "templates", "templates", "directory holding the handlebars views")
	flags.DurationVar(&opts.cacheTTL, "cache-ttl", 5*time.Minute, "how long rendered users are cached")
	flags.StringVarP(&opts.logLevel, "log-level", "l", "info", "sets the log-level to <trace|debug|info|warn|error|fatal>")

	if err := flags.Parse(args[1:]); err != nil {
		fmt.Fprintf(&buf, "Usage of %s:\n%s", args[0], flags.FlagUsages())
		return opts, buf.String(), err
	}
	configureLogging(opts.logLevel)
	return opts, buf.String(), nil
}

func configureLogging(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
	if config.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

func loadConfig(opts options) (*config.Config, error) {
	c := config.Default()
	if opts.configFile != "" {
		var err error
		if c, err = config.Load(opts.configFile); err != nil {
			return nil, err
		}
	}
	if err := c.LoadEnv(opts.envFiles...); err != nil {
		return nil, err
	}
	return c, nil
}

func run(ctx context.Context, opts options) error {
	c, err := loadConfig(opts)
	if err != nil {
		return err
	}

	db, err := database.Open("sqlite3", opts.dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	if err = seed(ctx, db.Unwrap()); err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector()
	if err = collector.Register(registry); err != nil {
		return errors.Wrap(err, "cannot register metrics")
	}

	app := &app{
		cache:    cache.NewMemoryCache(config.DefaultCacheService, cache.WithTTL(opts.cacheTTL)),
		db:       db,
		renderer: view.NewRenderer(opts.templates),
	}
	p, err := provider.New(c,
		provider.WithService(config.DefaultCacheService, app.cache),
		provider.WithService(provider.ServiceDB, app.db),
		provider.WithService(provider.ServiceView, app.renderer),
		provider.WithObserver(collector),
	)
	if err != nil {
		return err
	}
	defer p.Flush(2 * time.Second)

	mux := http.NewServeMux()
	mux.Handle("GET /users/{id}", p.Middleware(http.HandlerFunc(app.showUser)))
	mux.Handle("POST /users", p.Middleware(http.HandlerFunc(app.createUser)))
	mux.Handle("GET /metrics", metrics.Handler(registry))

	server := &http.Server{Addr: opts.addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info().Str("method", "run").Str("addr", opts.addr).Strs("instrumented", p.Instrumented()).Msg("listening")
	if err = server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server failed")
	}
	return nil
}

func seed(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS users (id INTEGER PRIMARY KEY, name TEXT NOT NULL, email TEXT NOT NULL)")
	return errors.Wrap(err, "cannot create schema")
}

type app struct {
	cache    *cache.MemoryCache
	db       *database.DB
	renderer *view.Renderer
}

type user struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// lookupUser reads a user through the cache. A miss is answered by the database and cached.
func (a *app) lookupUser(ctx context.Context, id string) (user, string, error) {
	key := "user:" + id
	var u user
	if cached, hit := a.cache.Get(ctx, key); hit && json.Unmarshal(cached, &u) == nil {
		return u, "cache", nil
	}
	err := a.db.QueryRowContext(ctx, "SELECT id, name, email FROM users WHERE id = ?", id).Scan(&u.ID, &u.Name, &u.Email)
	if err != nil {
		return u, "", err
	}
	if encoded, err := json.Marshal(u); err == nil {
		a.cache.Set(ctx, key, encoded)
	}
	return u, "database", nil
}

func (a *app) showUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	u, source, err := a.lookupUser(ctx, r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	page, err := a.renderer.Render(ctx, "user", map[string]any{"name": u.Name, "email": u.Email, "source": source})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(page))
}

func (a *app) createUser(w http.ResponseWriter, r *http.Request) {
	var u user
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil || strings.TrimSpace(u.Name) == "" {
		http.Error(w, "expected a json user with a name", http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	result, err := tx.ExecContext(ctx, "INSERT INTO users (name, email) VALUES (?, ?)", u.Name, u.Email)
	if err != nil {
		_ = tx.Rollback()
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err = tx.Commit(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	u.ID, _ = result.LastInsertId()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(u)
}
