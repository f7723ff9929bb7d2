package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/trackdqm/internal/db"
	"github.com/banshee-data/trackdqm/internal/dqm"
	"github.com/banshee-data/trackdqm/internal/httputil"
)

// newServeMux mounts the metrics, report and debug routes.
func newServeMux(reg *prometheus.Registry, store *db.DB, runs []RunElements) (*http.ServeMux, error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/report", func(w http.ResponseWriter, r *http.Request) {
		serveReport(w, r, runs)
	})
	mux.HandleFunc("/api/runs", func(w http.ResponseWriter, r *http.Request) {
		if !httputil.RequireGET(w, r) {
			return
		}
		runs, err := store.ListRuns()
		if err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		httputil.WriteJSON(w, http.StatusOK, runs)
	})
	mux.HandleFunc("/api/slices", store.ServeSlices)
	if err := store.AttachAdminRoutes(mux); err != nil {
		return nil, err
	}
	return mux, nil
}

// serveReport renders the run named by ?run=, or the last replayed run.
func serveReport(w http.ResponseWriter, r *http.Request, runs []RunElements) {
	if !httputil.RequireGET(w, r) {
		return
	}
	if len(runs) == 0 {
		httputil.WriteError(w, http.StatusNotFound, "no runs replayed")
		return
	}
	run := runs[len(runs)-1]
	if v := r.URL.Query().Get("run"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "invalid 'run' parameter")
			return
		}
		found := false
		for _, re := range runs {
			if re.Run == uint32(n) {
				run, found = re, true
			}
		}
		if !found {
			httputil.WriteError(w, http.StatusNotFound, fmt.Sprintf("run %d not replayed", n))
			return
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dqm.RenderHTML(w, reportTitle(run.Run), run.Store.Elements()); err != nil {
		log.Printf("failed to render report: %v", err)
	}
}

// serve blocks until SIGINT or SIGTERM, or until the listener fails.
func serve(listen string, reg *prometheus.Registry, store *db.DB, runs []RunElements) error {
	mux, err := newServeMux(reg, store, runs)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:    listen,
		Handler: mux,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("serving on %s", listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			return server.Close()
		}
		return nil
	})
	return g.Wait()
}
