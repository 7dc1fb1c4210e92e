package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/hlog"

	"snipbin/cfg"
	"snipbin/metrics"
	"snipbin/svc/db"
	"snipbin/svc/lim"
	"snipbin/svc/svc"
	"snipbin/svc/util"
)

type Server struct {
	router     *chi.Mux
	account    *svc.Account
	snippet    *svc.Snippet
	lim        *lim.Limiter
	cfg        *cfg.Cfg
	db         *db.SQLite
	httpServer *http.Server
}

func NewServer(c *cfg.Cfg, account *svc.Account, snippet *svc.Snippet, l *lim.Limiter, sqlDB *db.SQLite) *Server {
	r := chi.NewRouter()
	mw := NewMw(l, account, c)
	s := &Server{
		router:  r,
		account: account,
		snippet: snippet,
		lim:     l,
		cfg:     c,
		db:      sqlDB,
		httpServer: &http.Server{
			Addr:           ":" + c.Port,
			Handler:        r,
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: 256 * 1024,
		},
	}
	r.Group(func(r chi.Router) {
		r.Use(mw.Recoverer)
		r.Get("/health", s.Health)
		r.Get("/ready", s.Ready)
	})
	r.Group(func(r chi.Router) {
		r.Use(mw.Recoverer)
		r.Handle("/metrics", mw.BasicAuthMetrics(promhttp.Handler()))
	})
	r.Mount("/debug", middleware.Profiler())

	r.Group(func(r chi.Router) {
		r.Use(mw.Recoverer)
		r.Use(mw.RequestID)
		r.Use(hlog.NewHandler(util.GetLogger()))
		r.Use(hlog.AccessHandler(func(req *http.Request, status, size int, dur time.Duration) {
			// Route pattern, not raw path, to keep label cardinality bounded.
			endpoint := req.URL.Path
			if rctx := chi.RouteContext(req.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					endpoint = pattern
				}
			}
			metrics.RequestDuration.
				WithLabelValues(req.Method, endpoint, strconv.Itoa(status)).
				Observe(dur.Seconds())
			hlog.FromRequest(req).Info().
				Str("method", req.Method).
				Str("url", req.URL.String()).
				Int("status", status).
				Int("size", size).
				Dur("duration", dur).
				Str("request_id", util.GetRequestID(req.Context())).
				Msg("http request")
		}))
		if len(c.TrustedProxies) > 0 {
			r.Use(middleware.RealIP)
		}
		r.Use(mw.ContextTimeout)
		r.Use(mw.SecurityHeaders)
		r.Use(mw.CORS)
		r.Use(mw.JSONContentType)
		r.Use(mw.AnomalyDetection)
		hdl := &Hdl{account: account, snippet: snippet, cfg: c}

		r.With(mw.RateLimitAuth).Post("/user/register", hdl.Register)
		r.With(mw.RateLimitAuth).Post("/user/login", hdl.Login)
		r.With(mw.RateLimitAuth).Post("/auth/token", hdl.TokenForm)
		r.With(mw.RateLimitAPI).Get("/user/{user_id}", hdl.GetUser)

		// Share-link reads stay open: the UUID itself is the capability.
		r.With(mw.RateLimitAPI).Get("/snippets/get_snippet/{uuid}", hdl.GetSnippet)
		r.With(mw.RateLimitAPI).Get("/snippets/share/{uuid}", hdl.ShareSnippet)

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAuth)
			r.With(mw.RateLimitAPI).Get("/auth/current_user", hdl.CurrentUser)
			r.With(mw.RateLimitAPI).Post("/snippets/create_snippet", hdl.CreateSnippet)
			r.With(mw.RateLimitAPI).Get("/snippets/all_snippets", hdl.AllSnippets)
			r.With(mw.RateLimitAPI).Put("/snippets/update_snippet/{uuid}", hdl.UpdateSnippet)
			r.With(mw.RateLimitAPI).Delete("/snippets/delete_snippet/{uuid}", hdl.DeleteSnippet)
		})
	})
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) Start() error {
	util.Info().Str("port", s.cfg.Port).Msg("starting server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		util.Error().Err(err).Str("port", s.cfg.Port).Msg("server failed to start")
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
