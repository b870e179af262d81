package server

import (
	"context"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"reembolsos/internal/pipeline"
	"reembolsos/internal/workspace"
	"reembolsos/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/go-playground/form/v4"
	"github.com/gorilla/securecookie"
	"github.com/sirupsen/logrus"
)

//go:embed templates static
var uiFS embed.FS
var decoder = form.NewDecoder()

// Processor runs a decoded submission through the report pipeline.
type Processor interface {
	Run(ctx context.Context, sub *types.Submission) (*pipeline.Outcome, error)
}

type Service struct {
	logger     *logrus.Logger
	config     *types.Config
	processor  Processor
	workspaces *workspace.Store
	templates  *template.Template
	tokens     *securecookie.SecureCookie

	server *http.Server
}

func New(
	config *types.Config,
	logger *logrus.Logger,
	processor Processor,
	workspaces *workspace.Store,
) (*Service, error) {
	mux := flow.New()

	tokens, err := newTokenCodec(config)
	if err != nil {
		return nil, err
	}

	s := &Service{
		logger:     logger,
		config:     config,
		processor:  processor,
		workspaces: workspaces,
		tokens:     tokens,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.ServerPort),
			Handler:           mux,
			ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}

	templates, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	s.templates = templates

	s.buildRouter(mux)

	return s, nil
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Service) Handler() http.Handler {
	return s.server.Handler
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.Use(s.StripTrailingSlash)
	r.Use(s.LoggingMiddleware)

	r.HandleFunc("/", s.handleGetReimbursement, http.MethodGet)
	r.HandleFunc("/reembolsos", s.handlePostReimbursement, http.MethodPost)
	r.HandleFunc("/downloads/:token", s.handleDownload, http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth, http.MethodGet)

	staticRoot, err := fs.Sub(uiFS, "static")
	if err != nil {
		s.logger.WithError(err).Fatal("failed to mount static assets")
	}
	r.Handle("/static/...", http.StripPrefix("/static/", http.FileServer(http.FS(staticRoot))), http.MethodGet)
}

// newTokenCodec signs (and encrypts) download tokens. Keys missing from the
// environment are generated, so links only survive as long as the process.
func newTokenCodec(config *types.Config) (*securecookie.SecureCookie, error) {
	hashKey, err := decodeKey(config.CookieHashKey, 64)
	if err != nil {
		return nil, fmt.Errorf("decode COOKIE_HASH_KEY: %w", err)
	}
	blockKey, err := decodeKey(config.CookieBlockKey, 32)
	if err != nil {
		return nil, fmt.Errorf("decode COOKIE_BLOCK_KEY: %w", err)
	}

	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(int(config.ArtifactTTL().Seconds()))
	return codec, nil
}

func decodeKey(encoded string, randomSize int) ([]byte, error) {
	if encoded == "" {
		return securecookie.GenerateRandomKey(randomSize), nil
	}
	return base64.StdEncoding.DecodeString(encoded)
}

func loadTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"inc": func(i int) int {
			return i + 1
		},
		"noticeClass": func(level types.NoticeLevel) string {
			return "notice notice-" + string(level)
		},
	}

	t := template.New("").Funcs(funcMap)
	err := fs.WalkDir(uiFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}

		data, err := fs.ReadFile(uiFS, path)
		if err != nil {
			return fmt.Errorf("read template %s: %w", path, err)
		}

		if _, err := t.Parse(string(data)); err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return t, nil
}
