package dashboard

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/felixge/httpsnoop"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/energy-insights/internal/client"
	"github.com/jonathan/energy-insights/internal/config"
	"github.com/jonathan/energy-insights/internal/query"
	"github.com/jonathan/energy-insights/internal/server/middleware"
	"github.com/jonathan/energy-insights/internal/types"
)

//go:embed templates/*.html
var templateFS embed.FS

// DefaultClusterConcurrency bounds parallel cluster fetches on the overview.
const DefaultClusterConcurrency = 4

// Options configures a Dashboard.
type Options struct {
	Port     int
	Source   Source
	PlotsDir string

	// User and PasswordHash enable basic auth when both are set.
	User         string
	PasswordHash string
	Passwords    *config.PasswordConfig

	ClusterConcurrency int
}

// Dashboard serves the HTML tabs.
type Dashboard struct {
	src         Source
	sourceName  string
	plotsDir    string
	concurrency int
	pages       map[string]*template.Template

	user      string
	hash      string
	passwords *config.PasswordConfig

	handler    http.Handler
	httpServer *http.Server
}

// New parses the templates and wires the routes.
func New(opts Options) (*Dashboard, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("dashboard source is required")
	}
	if (opts.User == "") != (opts.PasswordHash == "") {
		return nil, fmt.Errorf("dashboard user and password hash must be set together")
	}

	d := &Dashboard{
		src:         opts.Source,
		sourceName:  describe(opts.Source),
		plotsDir:    opts.PlotsDir,
		concurrency: opts.ClusterConcurrency,
		user:        opts.User,
		hash:        opts.PasswordHash,
		passwords:   opts.Passwords,
	}
	if d.concurrency <= 0 {
		d.concurrency = DefaultClusterConcurrency
	}
	if d.user != "" && d.passwords == nil {
		pc, err := config.NewPasswordConfig()
		if err != nil {
			return nil, err
		}
		d.passwords = pc
	}

	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	d.pages = pages

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", d.handleOverview)
	mux.HandleFunc("GET /exploration", d.handleExploration)
	mux.HandleFunc("GET /explorer", d.handleExplorer)
	mux.HandleFunc("GET /explorer/{id}/shap.svg", d.handleShapChart(FormatSVG))
	mux.HandleFunc("GET /explorer/{id}/shap.png", d.handleShapChart(FormatPNG))
	mux.HandleFunc("GET /plots/{name}", d.handlePlot)
	mux.HandleFunc("GET /health", d.handleHealth)

	var routes http.Handler = mux
	if d.user != "" {
		routes = d.withBasicAuth(mux)
	}
	d.handler = middleware.RequestID(d.withLogging(routes))

	d.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.Port),
		Handler:      d.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return d, nil
}

func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template)
	for _, name := range []string{"overview", "exploration", "explorer", "unavailable"} {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

// Handler returns the fully wrapped handler.
func (d *Dashboard) Handler() http.Handler {
	return d.handler
}

// Start serves until ctx is cancelled or the process is interrupted.
func (d *Dashboard) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Dashboard listening on %s (source: %s)", d.httpServer.Addr, d.sourceName)
		if err := d.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("dashboard error: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("dashboard shutdown failed: %w", err)
	}
	log.Println("Dashboard stopped")
	return nil
}

func (d *Dashboard) handleOverview(w http.ResponseWriter, r *http.Request) {
	summary, err := d.src.GetSummary(r.Context())
	if err != nil {
		d.fail(w, r, err)
		return
	}
	stats, err := d.fetchClusters(r.Context(), summary)
	if err != nil {
		d.fail(w, r, err)
		return
	}

	q := r.URL.Query()
	view := BuildOverview(summary, stats, q.Get("sort"), q.Get("order"))
	d.render(w, http.StatusOK, "overview", "Overview", TabOverview, view)
}

// fetchClusters loads stats for every cluster in the summary. A cluster that fails to load
// is left out; only a lost connection aborts the page.
func (d *Dashboard) fetchClusters(ctx context.Context, summary *types.Summary) (map[int]*types.ClusterStats, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	var mu sync.Mutex
	out := make(map[int]*types.ClusterStats, len(summary.Clusters))
	for id := range summary.Clusters {
		g.Go(func() error {
			s, err := d.src.GetCluster(gctx, id)
			if err != nil {
				if errors.Is(err, client.ErrUnavailable) {
					return err
				}
				log.Printf("[dashboard] cluster %d not available: %v", id, err)
				return nil
			}
			mu.Lock()
			out[id] = s
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Dashboard) handleExploration(w http.ResponseWriter, r *http.Request) {
	d.render(w, http.StatusOK, "exploration", "Data Exploration", TabExploration, BuildExploration(d.plotsDir))
}

func (d *Dashboard) handleExplorer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	summary, err := d.src.GetSummary(ctx)
	if err != nil {
		d.fail(w, r, err)
		return
	}

	selected := r.URL.Query().Get("building")
	if selected == "" && len(summary.TopPriority) > 0 {
		selected = summary.TopPriority[0].BuildingID
	}

	status := http.StatusOK
	var view ExplorerView
	switch b, err := d.loadBuilding(ctx, selected); {
	case selected == "":
		view.Message = "No buildings available."
	case errors.Is(err, query.ErrNotFound):
		status = http.StatusNotFound
		view.Message = fmt.Sprintf("Building %s not found.", selected)
	case err != nil:
		d.fail(w, r, err)
		return
	default:
		cluster, err := d.src.GetCluster(ctx, b.Cluster)
		if err != nil {
			if errors.Is(err, client.ErrUnavailable) {
				d.fail(w, r, err)
				return
			}
			log.Printf("[dashboard] cluster %d not available for %s: %v", b.Cluster, b.BuildingID, err)
			cluster = nil
		}
		view = BuildExplorer(b, cluster)
	}

	view.Selected = selected
	view.Options = BuildingOptions(summary.TopPriority, selected)
	if view.Building != nil && !hasOption(view.Options, selected) {
		view.Options = append([]BuildingOption{{
			ID:       selected,
			Label:    fmt.Sprintf("%s (%s)", selected, view.Building.BuildingType),
			Selected: true,
		}}, view.Options...)
	}
	d.render(w, status, "explorer", "Building Explorer", TabExplorer, view)
}

func (d *Dashboard) loadBuilding(ctx context.Context, id string) (*types.BuildingDetail, error) {
	if id == "" {
		return nil, nil
	}
	return d.src.GetBuilding(ctx, id)
}

func hasOption(opts []BuildingOption, id string) bool {
	for _, o := range opts {
		if o.ID == id {
			return true
		}
	}
	return false
}

func (d *Dashboard) handleShapChart(format ChartFormat) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := d.src.GetBuilding(r.Context(), r.PathValue("id"))
		if err != nil {
			if errors.Is(err, query.ErrNotFound) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			d.fail(w, r, err)
			return
		}

		var buf bytes.Buffer
		if err := RenderShapChart(&buf, query.SortContributions(b.ShapValues), format); err != nil {
			if errors.Is(err, ErrNoContributions) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			log.Printf("[dashboard] render chart for %s: %v", b.BuildingID, err)
			http.Error(w, "chart rendering failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Cache-Control", "no-cache")
		if _, err := w.Write(buf.Bytes()); err != nil {
			log.Printf("[dashboard] write chart: %v", err)
		}
	}
}

// handlePlot serves only the known EDA images, so arbitrary files in the plots
// directory are never exposed.
func (d *Dashboard) handlePlot(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if !IsKnownPlot(name) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(d.plotsDir, name))
}

func (d *Dashboard) handleHealth(w http.ResponseWriter, r *http.Request) {
	h, err := d.src.Health(r.Context())
	if err != nil {
		d.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"source": d.sourceName,
			"error":  err.Error(),
		})
		return
	}
	d.jsonResponse(w, http.StatusOK, map[string]any{
		"status":    h.Status,
		"source":    d.sourceName,
		"buildings": h.Buildings,
	})
}

// unavailableView backs the static error page. Detail carries the API's answer when it
// responded with an error status.
type unavailableView struct {
	Source string
	Detail string
}

// fail renders the unavailable page for any failed API call and a plain 500 for
// everything else.
func (d *Dashboard) fail(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *client.Error
	isAPIErr := errors.As(err, &apiErr)
	if isAPIErr || errors.Is(err, client.ErrUnavailable) {
		log.Printf("[dashboard] %s %s: %v", r.Method, r.URL.Path, err)
		view := unavailableView{Source: d.sourceName}
		if isAPIErr && apiErr.StatusCode != 0 {
			view.Detail = apiErr.Message
		}
		d.render(w, http.StatusServiceUnavailable, "unavailable", "Unavailable", "", view)
		return
	}
	log.Printf("[error] %s %s (req %s): %v", r.Method, r.URL.Path, middleware.GetRequestID(r.Context()), err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func (d *Dashboard) render(w http.ResponseWriter, status int, name, title string, tab Tab, body any) {
	var buf bytes.Buffer
	err := d.pages[name].ExecuteTemplate(&buf, "layout", page{Title: title, Tab: tab, Source: d.sourceName, Body: body})
	if err != nil {
		log.Printf("[dashboard] render %s: %v", name, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Printf("[dashboard] write %s: %v", name, err)
	}
}

func (d *Dashboard) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// withBasicAuth guards every page except /health.
func (d *Dashboard) withBasicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		user, pw, ok := r.BasicAuth()
		if !ok || !d.passwords.CheckCredentials(user, pw, d.user, d.hash) {
			w.Header().Set("WWW-Authenticate", `Basic realm="energy-insights", charset="UTF-8"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (d *Dashboard) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		log.Printf("[dashboard] %s %s %d %dB in %v (req %s)",
			r.Method, r.URL.Path, m.Code, m.Written, m.Duration, middleware.GetRequestID(r.Context()))
	})
}
