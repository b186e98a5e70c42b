package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/DeanThompson/ginpprof"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/tripleh1701-dev/ppp-fe-sub014/apperrors"
	"github.com/tripleh1701-dev/ppp-fe-sub014/catalog"
	"github.com/tripleh1701-dev/ppp-fe-sub014/config"
	"github.com/tripleh1701-dev/ppp-fe-sub014/database"
	"github.com/tripleh1701-dev/ppp-fe-sub014/logger"
	"github.com/tripleh1701-dev/ppp-fe-sub014/prefs"
	"github.com/tripleh1701-dev/ppp-fe-sub014/scheduler"
	"golang.org/x/oauth2"
)

const shutdownTimeout = 5 * time.Second

// Deps are the collaborators of a Server. Catalogs, Prefs, Scheduler and
// HTTPClient are optional.
type Deps struct {
	Config     *config.MainConfig
	DB         *database.DB
	Catalogs   catalog.Source
	Prefs      *prefs.Store
	Scheduler  *scheduler.Scheduler
	HTTPClient *http.Client
}

// Server holds the state shared by all handlers.
type Server struct {
	cfg        *config.MainConfig
	db         *database.DB
	catalogs   catalog.Source
	prefs      *prefs.Store
	sessions   *SessionStore
	states     *StateStore
	oauth      *oauth2.Config
	httpClient *http.Client
	accountURL string
	scheduler  *scheduler.Scheduler
}

// New builds a Server from d.
func New(d Deps) *Server {
	s := &Server{
		cfg:        d.Config,
		db:         d.DB,
		catalogs:   d.Catalogs,
		prefs:      d.Prefs,
		sessions:   NewSessionStore(d.Config.Server.SessionTTL),
		states:     NewStateStore(d.Config.OAuth.StateTTL),
		oauth:      newOAuthConfig(d.Config.OAuth),
		httpClient: d.HTTPClient,
		accountURL: githubAccountURL,
		scheduler:  d.Scheduler,
	}
	if d.Config.OAuth.AccountURL != "" {
		s.accountURL = d.Config.OAuth.AccountURL
	}
	return s
}

// Sessions exposes the session store for the cleanup job.
func (s *Server) Sessions() *SessionStore { return s.sessions }

// States exposes the OAuth state store for the purge job.
func (s *Server) States() *StateStore { return s.states }

// Router builds the gin engine with every route mounted.
func (s *Server) Router() *gin.Engine {
	if !s.cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(logger.GinLogger(), gin.Recovery())

	if len(s.cfg.Server.CORSOrigins) > 0 {
		corsconfig := cors.DefaultConfig()
		corsconfig.AllowOrigins = s.cfg.Server.CORSOrigins
		corsconfig.AllowCredentials = true
		corsconfig.AddAllowHeaders(csrfHeader, "HX-Request", "HX-Target", "HX-Current-URL")
		router.Use(cors.New(corsconfig))
	}

	router.GET("/", s.handleRootRedirect)
	router.GET("/login", s.loginPage)
	router.POST("/login", s.handleLogin)
	router.POST("/logout", s.requireAuth, s.requireCSRF, s.handleLogout)

	routerapi := router.Group("/api", s.requireAuth, s.requireCSRF)
	routerapi.GET("/oauth-token", s.listOAuthTokens)
	routerapi.DELETE("/oauth-token/:id", s.deleteOAuthToken)
	if s.scheduler != nil {
		routerapi.GET("/jobs", s.listJobs)
		routerapi.POST("/jobs/:name/run", s.runJob)
	}
	routerapi.GET("/:resource", s.listResource)
	routerapi.GET("/:resource/:id", s.getResource)
	routerapi.POST("/:resource", s.createResource)
	routerapi.PUT("/:resource", s.updateResource)
	routerapi.DELETE("/:resource/:id", s.deleteResource)

	routeroauth := router.Group("/oauth/github", s.requireAuth)
	routeroauth.GET("/start", s.handleOAuthStart)
	routeroauth.GET("/callback", s.handleOAuthCallback)

	s.registerConsole(router.Group("/console", s.requireAuth, s.requireCSRF))

	if s.cfg.Server.Debug {
		ginpprof.Wrap(router)
	}
	return router
}

func (s *Server) listJobs(c *gin.Context) {
	c.JSON(http.StatusOK, s.scheduler.Jobs())
}

func (s *Server) runJob(c *gin.Context) {
	if err := s.scheduler.RunNow(c.Param(StrName)); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{StrName: c.Param(StrName)})
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Server.Listen,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.LogDynamicany(logger.StrInfo, "starting webserver", "listen", s.cfg.Server.Listen)
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return apperrors.Wrap(apperrors.ErrClassNetwork, "listen", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return apperrors.Wrap(apperrors.ErrClassNetwork, "shutdown", err)
	}
	return nil
}
