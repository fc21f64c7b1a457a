package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/lgmodeler/lgmodeler/pkg/git"
	"github.com/lgmodeler/lgmodeler/pkg/project"
	"github.com/lgmodeler/lgmodeler/pkg/status"
	"github.com/lgmodeler/lgmodeler/pkg/uistate"
)

//go:embed templates static
var content embed.FS

// pageTitle is the document title and header of the modeler page.
const pageTitle = "LangGraph Visual Modeler"

// ServerConfig holds configuration for the web server.
type ServerConfig struct {
	Port        int            // port to listen on
	ProjectPath string         // project file path shown in the inspector, empty for untitled
	Revisions   RevisionSource // optional, git state of the project file
}

// RevisionSource reports the version control state of a file.
type RevisionSource interface {
	FileRevision(path string) (git.Revision, error)
}

// Server serves the modeler page, the ui action api and per-tab SSE streams.
type Server struct {
	cfg     ServerConfig
	tabs    *Tabs
	project *project.Holder
	tmpl    *template.Template
	srv     *http.Server
}

// NewServer creates a new web server. project reloads are pushed to every tab.
func NewServer(cfg ServerConfig, tabs *Tabs, holder *project.Holder) (*Server, error) {
	tmpl, err := template.New("base.html").Funcs(templateFuncs()).ParseFS(content, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{cfg: cfg, tabs: tabs, project: holder, tmpl: tmpl}
	holder.OnChange(func(p *project.Project) {
		tabs.Broadcast(NewProjectEvent(p.Name))
	})
	return s, nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"badge": func(s status.StepStatus, size string) template.HTML {
			return status.Render(s, status.Size(size))
		},
		"ago": func(t time.Time) string {
			if t.IsZero() {
				return "not started"
			}
			return humanize.Time(t)
		},
		"statuses": status.All,
		"modalOpen": func(st uistate.State, m string) bool {
			return st.ActiveModal == uistate.Modal(m)
		},
	}
}

// Handler returns the http handler with all routes registered.
func (s *Server) Handler() (http.Handler, error) {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /events", s.handleEvents)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /api/ui/{action}", s.handleAction)
	mux.HandleFunc("GET /api/project", s.handleProject)

	staticFS, err := fs.Sub(content, "static")
	if err != nil {
		return nil, fmt.Errorf("static filesystem: %w", err)
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	return mux, nil
}

// Start begins listening for HTTP requests.
// blocks until the server is stopped or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}

	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// start shutdown listener
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.tabs.Close() // ends open SSE streams so Shutdown doesn't wait on them
		_ = s.srv.Shutdown(shutdownCtx)
	}()

	err = s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("http server: %w", err)
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.tabs.Close()
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}

// Tabs returns the server's tab registry.
func (s *Server) Tabs() *Tabs {
	return s.tabs
}

// templateData holds data for the modeler page template.
type templateData struct {
	Title       string
	TabID       string
	State       uistate.State
	Project     *project.Project
	ProjectPath string
	LoadedAt    time.Time
	Revision    *git.Revision // nil when the project file is not in a git repository
	Editing     project.Field // field preloaded into the editor, zero when adding
}

// handleIndex serves the modeler page. a known ?tab= keeps that tab's ui state
// (used by the page to re-render after a project reload); otherwise a new tab is opened.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	tab := s.tabs.Get(r.URL.Query().Get("tab"))
	if tab == nil {
		tab = s.tabs.Open()
	}

	st := tab.Store.State()
	p := s.project.Get()
	data := templateData{
		Title:       pageTitle,
		TabID:       tab.ID,
		State:       st,
		Project:     p,
		ProjectPath: s.cfg.ProjectPath,
		LoadedAt:    s.project.LoadedAt(),
	}
	if f, ok := p.Field(st.EditingFieldKey); ok && st.ModalOpen() {
		data.Editing = f
	}
	if s.cfg.Revisions != nil && s.cfg.ProjectPath != "" {
		rev, err := s.cfg.Revisions.FileRevision(s.cfg.ProjectPath)
		if err != nil {
			log.Printf("[DEBUG] project revision: %v", err)
		} else {
			data.Revision = &rev
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("[WARN] render page: %v", err)
		http.Error(w, "template execution error", http.StatusInternalServerError)
		return
	}
}

// handleState serves the tab's ui state snapshot.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	tab, ok := s.tabFromRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, tab.Store.State())
}

// handleAction applies a ui action to the tab's store and responds with the new snapshot.
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	tab, ok := s.tabFromRequest(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	if err := applyAction(tab.Store, r.PathValue("action"), r.Form); err != nil {
		var ae *actionError
		if errors.As(err, &ae) {
			http.Error(w, ae.Error(), ae.code)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, tab.Store.State())
}

// handleProject serves the loaded project as JSON.
func (s *Server) handleProject(w http.ResponseWriter, _ *http.Request) {
	data, err := s.project.Get().JSON()
	if err != nil {
		log.Printf("[WARN] failed to encode project: %v", err)
		http.Error(w, "unable to encode project", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

// handleEvents serves the tab's SSE stream.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	tab, ok := s.tabFromRequest(w, r)
	if !ok {
		return
	}
	w.Header().Set("X-Accel-Buffering", "no") // disable nginx buffering
	tab.ServeStream(w, r)
}

// tabFromRequest resolves the ?tab= parameter, writing 404 for unknown tabs.
func (s *Server) tabFromRequest(w http.ResponseWriter, r *http.Request) (*Tab, bool) {
	id := r.URL.Query().Get("tab")
	if id == "" {
		http.Error(w, "tab parameter required", http.StatusBadRequest)
		return nil, false
	}
	tab := s.tabs.Get(id)
	if tab == nil {
		http.Error(w, "unknown tab", http.StatusNotFound)
		return nil, false
	}
	return tab, true
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("[WARN] encode json: %v", err)
		http.Error(w, "unable to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}
