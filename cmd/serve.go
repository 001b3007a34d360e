package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/reconcile-cli/internal/convert"
	"github.com/sells-group/reconcile-cli/internal/extract"
	"github.com/sells-group/reconcile-cli/internal/match"
	"github.com/sells-group/reconcile-cli/internal/monitoring"
	"github.com/sells-group/reconcile-cli/internal/normalize"
	"github.com/sells-group/reconcile-cli/internal/reconcile"
)

var (
	servePort   int
	serveNoRows bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve normalize, match, extract and convert over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		n, err := initNormalizer()
		if err != nil {
			return err
		}
		var rows *reconcile.Rows
		if !serveNoRows {
			if rows, err = loadRows(ctx, n); err != nil {
				return err
			}
		}

		if cfg.Monitoring.Enabled {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			if st != nil {
				defer st.Close() //nolint:errcheck
				checker := monitoring.NewChecker(monitoring.NewCollector(st), monitoring.NewAlerter(cfg.Monitoring), cfg.Monitoring)
				go checker.Run(ctx)
			}
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           buildRouter(n, match.New(n, cfg.Match), rows, cfg.Server.CORSOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", cfg.Server.Port), zap.Bool("rows_loaded", rows != nil))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveNoRows, "no-rows", false, "skip loading the export; /v1/match then needs candidates in the request")
	rootCmd.AddCommand(serveCmd)
}

type nameRequest struct {
	Name string `json:"name"`
}

type normalizeResponse struct {
	Tokens      []string `json:"tokens"`
	Fingerprint string   `json:"fingerprint"`
}

type matchRequest struct {
	Name string `json:"name"`
	// Candidates replaces the loaded export when set.
	Candidates []string `json:"candidates,omitempty"`
}

type matchResponse struct {
	Match *string    `json:"match"`
	Score float64    `json:"score"`
	Tier  match.Tier `json:"tier"`
	Row   []string   `json:"row,omitempty"`
}

type textRequest struct {
	Text string `json:"text"`
}

type phoneRequest struct {
	Phone string `json:"phone"`
}

type employeesRequest struct {
	Actual string `json:"actual"`
	Range  string `json:"range"`
}

type valueResponse struct {
	Value string `json:"value"`
	OK    bool   `json:"ok"`
}

// buildRouter wires the HTTP API. rows may be nil.
func buildRouter(n *normalize.Normalizer, m *match.Matcher, rows *reconcile.Rows, origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/normalize", func(w http.ResponseWriter, req *http.Request) {
			var body nameRequest
			if !decodeBody(w, req, &body) {
				return
			}
			name := n.Normalize(body.Name)
			writeJSONResponse(w, http.StatusOK, normalizeResponse{Tokens: name.Tokens, Fingerprint: name.Fingerprint})
		})

		r.Post("/match", func(w http.ResponseWriter, req *http.Request) {
			var body matchRequest
			if !decodeBody(w, req, &body) {
				return
			}
			var resp matchResponse
			switch {
			case len(body.Candidates) > 0:
				res := m.Match(body.Name, match.NewCandidates(n, body.Candidates, nil))
				resp = toMatchResponse(res)
			case rows != nil:
				res := rows.Match(body.Name)
				resp = toMatchResponse(res)
				resp.Row, _ = rows.Row(res)
			default:
				writeError(w, http.StatusBadRequest, "candidates are required when no export is loaded")
				return
			}
			writeJSONResponse(w, http.StatusOK, resp)
		})

		r.Post("/extract", func(w http.ResponseWriter, req *http.Request) {
			var body textRequest
			if !decodeBody(w, req, &body) {
				return
			}
			writeJSONResponse(w, http.StatusOK, extract.Extract(body.Text))
		})

		r.Route("/convert", func(r chi.Router) {
			r.Post("/phone", func(w http.ResponseWriter, req *http.Request) {
				var body phoneRequest
				if !decodeBody(w, req, &body) {
					return
				}
				v, ok := convert.USPhone(body.Phone)
				writeJSONResponse(w, http.StatusOK, valueResponse{Value: v, OK: ok})
			})
			r.Post("/employees", func(w http.ResponseWriter, req *http.Request) {
				var body employeesRequest
				if !decodeBody(w, req, &body) {
					return
				}
				b, ok := convert.EmployeeBucketFor(body.Actual, body.Range)
				writeJSONResponse(w, http.StatusOK, valueResponse{Value: b.String(), OK: ok})
			})
		})
	})

	return r
}

func toMatchResponse(res match.Result) matchResponse {
	resp := matchResponse{Tier: res.Tier}
	if res.Matched() {
		name := res.Candidate.DisplayName
		resp.Match = &name
		resp.Score = res.Rounded()
	}
	return resp
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSONResponse(w, status, map[string]string{"error": msg})
}

func writeJSONResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("serve: encode response", zap.Error(err))
	}
}
