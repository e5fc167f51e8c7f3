package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/bytes"
	"github.com/labstack/gommon/log"
	"go.uber.org/zap"

	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/validation"
)

// FormSummary is one entry of the form listing.
type FormSummary struct {
	ID       string `json:"id"`
	Endpoint string `json:"endpoint,omitempty"`
	Method   string `json:"method,omitempty"`
	Summary  string `json:"summary,omitempty"`
	Fields   int    `json:"fields"`
}

// Server exposes the forms of a catalog over HTTP:
//
//	GET  /api/forms/               list forms
//	GET  /api/forms/:id/           form schema
//	POST /api/forms/:id/validate/  validate a JSON object
type Server struct {
	echo     *echo.Echo
	catalog  *schema.Catalog
	rules    map[string]*validation.RuleSet
	logger   *zap.Logger
	shutdown time.Duration
}

// ServerOption configures a Server.
type ServerOption func(*serverOptions)

type serverOptions struct {
	logger      *zap.Logger
	ruleOptions []validation.Option
	logLevel    string
	shutdown    time.Duration
	bodyLimit   string
}

// WithServerLogger sets the request logger. Defaults to a no-op logger.
func WithServerLogger(logger *zap.Logger) ServerOption {
	return func(o *serverOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRuleOptions forwards options to validation.Compile for every form.
func WithRuleOptions(opts ...validation.Option) ServerOption {
	return func(o *serverOptions) {
		o.ruleOptions = append(o.ruleOptions, opts...)
	}
}

// WithEchoLogLevel sets the level of echo's own logger:
// debug|info|warn|error|off.
func WithEchoLogLevel(level string) ServerOption {
	return func(o *serverOptions) {
		o.logLevel = level
	}
}

// WithShutdownTimeout bounds graceful shutdown in Start. Defaults to 15s.
func WithShutdownTimeout(d time.Duration) ServerOption {
	return func(o *serverOptions) {
		if d > 0 {
			o.shutdown = d
		}
	}
}

// WithBodyLimit caps request bodies, e.g. "512K" or "2M". Larger requests
// get 413. Defaults to 1M.
func WithBodyLimit(limit string) ServerOption {
	return func(o *serverOptions) {
		if limit = strings.TrimSpace(limit); limit != "" {
			o.bodyLimit = limit
		}
	}
}

// NewServer compiles the rules of every catalog form and registers the
// routes. Rule compilation errors are returned here rather than per request.
func NewServer(catalog *schema.Catalog, opts ...ServerOption) (*Server, error) {
	if catalog == nil {
		return nil, errors.New("remote: catalog is required")
	}
	cfg := serverOptions{logger: zap.NewNop(), logLevel: "warn", shutdown: 15 * time.Second, bodyLimit: "1M"}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if _, err := bytes.Parse(cfg.bodyLimit); err != nil {
		return nil, fmt.Errorf("remote: invalid body limit %q: %w", cfg.bodyLimit, err)
	}

	s := &Server{
		catalog:  catalog,
		rules:    make(map[string]*validation.RuleSet, catalog.Len()),
		logger:   cfg.logger,
		shutdown: cfg.shutdown,
	}
	for _, form := range catalog.Forms() {
		rules, err := validation.Compile(form, cfg.ruleOptions...)
		if err != nil {
			return nil, err
		}
		s.rules[form.ID] = rules
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	setLevel(e, cfg.logLevel)
	e.Pre(middleware.AddTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(cfg.bodyLimit))
	e.Use(s.logRequests)

	api := e.Group("/api/forms")
	api.GET("/", s.listForms)
	api.GET("/:id/", s.getForm)
	api.POST("/:id/validate/", s.validate)

	s.echo = e
	return s, nil
}

// Handler returns the HTTP handler, for use with httptest or a custom
// http.Server.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	errs := make(chan error, 1)
	go func() {
		s.logger.Info("validation server listening", zap.String("addr", addr), zap.Int("forms", s.catalog.Len()))
		errs <- s.echo.Start(addr)
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
		defer cancel()
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errs
		return nil
	}
}

func (s *Server) listForms(c echo.Context) error {
	forms := s.catalog.Forms()
	out := make([]FormSummary, 0, len(forms))
	for _, form := range forms {
		out = append(out, FormSummary{
			ID:       form.ID,
			Endpoint: form.Endpoint,
			Method:   form.Method,
			Summary:  form.Summary,
			Fields:   len(form.Fields),
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getForm(c echo.Context) error {
	form, err := s.catalog.Form(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error()).SetInternal(err)
	}
	return c.JSON(http.StatusOK, form)
}

func (s *Server) validate(c echo.Context) error {
	id := c.Param("id")
	rules, ok := s.rules[id]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown form "+id)
	}
	contentType := strings.ToLower(c.Request().Header.Get(echo.HeaderContentType))
	if !strings.HasPrefix(contentType, echo.MIMEApplicationJSON) {
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, "content type should be application/json")
	}

	values := map[string]any{}
	if err := json.NewDecoder(c.Request().Body).Decode(&values); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "can not understand the requested json").SetInternal(err)
	}

	failures := rules.Validate(model.NewRecord(values))
	if len(failures) == 0 {
		return c.JSON(http.StatusOK, Response{Valid: true})
	}
	return c.JSON(http.StatusUnprocessableEntity, Response{Valid: false, Errors: ToPayload(failures)})
}

func (s *Server) logRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		started := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		s.logger.Info("request",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().URL.Path),
			zap.Int("status", c.Response().Status),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err),
		)
		return nil
	}
}

func setLevel(e *echo.Echo, level string) {
	switch strings.ToLower(level) {
	case "debug":
		e.Logger.SetLevel(log.DEBUG)
	case "info":
		e.Logger.SetLevel(log.INFO)
	case "error":
		e.Logger.SetLevel(log.ERROR)
	case "off":
		e.Logger.SetLevel(log.OFF)
	default:
		e.Logger.SetLevel(log.WARN)
	}
}
