// Demo service assembled on microbase: an in-memory widget store exposed
// under /v1, with bearer-token protected writes, lifecycle hooks and a
// phased middleware pair.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	microbase "github.com/microbase/go-microbase"
	"github.com/microbase/go-microbase/pkg/auth"
	"github.com/microbase/go-microbase/pkg/httputil"
	"github.com/microbase/go-microbase/pkg/middleware"
)

var configFile = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	// Assemble the application
	a, err := microbase.New(
		microbase.WithPrefix("/v1"),
		microbase.WithConfigFile(*configFile),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	logger := a.Logger()
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting demo server", zap.String("version", microbase.Version))

	// Shared state goes through the container
	store := newWidgetStore()
	a.AddToContext("widgets", store)

	registerHooks(a, logger)
	registerMiddlewares(a, logger)
	registerRoutes(a, logger)

	if err := a.Run(context.Background()); err != nil {
		logger.Fatal("Server terminated", zap.Error(err))
	}
}

func registerHooks(a *microbase.Application, logger *zap.Logger) {
	must := func(err error) {
		if err != nil {
			logger.Fatal("Failed to register hook", zap.Error(err))
		}
	}
	must(a.AddServerHook(microbase.HookBeforeStart, func(ctx context.Context, s *microbase.Server) error {
		logger.Info("Warming up", zap.Strings("routes", s.Routes()))
		return nil
	}))
	must(a.AddServerHook(microbase.HookAfterStart, func(ctx context.Context, s *microbase.Server) error {
		logger.Info("Demo server ready", zap.String("address", s.Addr()))
		if token, err := s.Auth().IssueToken("demo", auth.SignatureUser, time.Hour); err == nil {
			logger.Info("Generated demo token (set MICROBASE_AUTH_USER_SECRET to control the signing key)",
				zap.String("token", token))
		}
		return nil
	}))
	must(a.AddServerHook(microbase.HookBeforeStop, func(ctx context.Context, s *microbase.Server) error {
		logger.Info("Draining connections")
		return nil
	}))
	must(a.AddServerHook(microbase.HookAfterStop, func(ctx context.Context, s *microbase.Server) error {
		logger.Info("Demo server stopped")
		return nil
	}))
}

func registerMiddlewares(a *microbase.Application, logger *zap.Logger) {
	must := func(err error) {
		if err != nil {
			logger.Fatal("Failed to register middleware", zap.Error(err))
		}
	}
	must(a.AddMiddleware(microbase.PhaseRequest, func(c *gin.Context) {
		c.Set("demo/start", time.Now())
	}))
	must(a.AddMiddleware(microbase.PhaseResponse, func(c *gin.Context) {
		start, ok := c.Get("demo/start")
		if !ok {
			return
		}
		if elapsed := time.Since(start.(time.Time)); elapsed > 500*time.Millisecond {
			logger.Warn("Slow request",
				zap.String("path", c.Request.URL.Path),
				zap.Duration("elapsed", elapsed),
			)
		}
	}))
}

func registerRoutes(a *microbase.Application, logger *zap.Logger) {
	gate := middleware.AuthFromContainer(auth.SignatureUser, logger)
	routes := []microbase.Route{
		{URI: "/widgets", Handler: listWidgets, StrictSlashes: true},
		{URI: "/widgets", Handler: protected(gate, createWidget), Methods: []string{http.MethodPost}, StrictSlashes: true},
		{URI: "/widgets/:id", Handler: getWidget},
		{URI: "/tokens", Handler: issueToken, Methods: []string{http.MethodPost}},
	}
	if err := a.AddRoutes(routes); err != nil {
		logger.Fatal("Failed to register routes", zap.Error(err))
	}
}

// protected runs the bearer gate before the handler
func protected(gate, handler gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		gate(c)
		if c.IsAborted() {
			return
		}
		handler(c)
	}
}

func listWidgets(c *gin.Context) {
	store := storeFrom(c)
	if store == nil {
		httputil.Error(c, http.StatusInternalServerError, "widget store unavailable")
		return
	}
	httputil.Data(c, gin.H{"widgets": store.list()})
}

func createWidget(c *gin.Context) {
	store := storeFrom(c)
	if store == nil {
		httputil.Error(c, http.StatusInternalServerError, "widget store unavailable")
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.Error(c, http.StatusBadRequest, "name is required")
		return
	}

	identity, _ := auth.IdentityFrom(c)
	w := store.add(req.Name, identity.UserID)
	httputil.JSON(c, http.StatusCreated, w)
}

func getWidget(c *gin.Context) {
	store := storeFrom(c)
	if store == nil {
		httputil.Error(c, http.StatusInternalServerError, "widget store unavailable")
		return
	}

	w, ok := store.get(c.Param("id"))
	if !ok {
		httputil.Error(c, http.StatusNotFound, "widget not found")
		return
	}
	httputil.Data(c, w)
}

// issueToken mints a short-lived demo token for the requested user id. A
// real deployment would authenticate against an identity provider instead.
func issueToken(c *gin.Context) {
	cn := middleware.ContainerFrom(c)
	if cn == nil {
		httputil.Error(c, http.StatusInternalServerError, "container unavailable")
		return
	}
	obj, ok := cn.Get(auth.ManagerName)
	if !ok {
		httputil.Error(c, http.StatusInternalServerError, "auth manager unavailable")
		return
	}
	manager, ok := obj.(*auth.Manager)
	if !ok {
		httputil.Error(c, http.StatusInternalServerError, "auth manager unavailable")
		return
	}

	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.Error(c, http.StatusBadRequest, "user_id is required")
		return
	}

	token, err := manager.IssueToken(req.UserID, auth.SignatureUser, time.Hour)
	if err != nil {
		httputil.Error(c, http.StatusServiceUnavailable, "user tokens not configured")
		return
	}
	httputil.Data(c, gin.H{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int(time.Hour.Seconds()),
	})
}

func storeFrom(c *gin.Context) *widgetStore {
	cn := middleware.ContainerFrom(c)
	if cn == nil {
		return nil
	}
	obj, ok := cn.Get("widgets")
	if !ok {
		return nil
	}
	store, _ := obj.(*widgetStore)
	return store
}

type widget struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Owner   string    `json:"owner,omitempty"`
	Created time.Time `json:"created"`
}

type widgetStore struct {
	mu      sync.RWMutex
	widgets map[string]widget
}

func newWidgetStore() *widgetStore {
	return &widgetStore{widgets: make(map[string]widget)}
}

func (s *widgetStore) list() []widget {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]widget, 0, len(s.widgets))
	for _, w := range s.widgets {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Created.Before(out[j].Created) })
	return out
}

func (s *widgetStore) add(name, owner string) widget {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := widget{
		ID:      uuid.NewString(),
		Name:    name,
		Owner:   owner,
		Created: time.Now().UTC(),
	}
	s.widgets[w.ID] = w
	return w
}

func (s *widgetStore) get(id string) (widget, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.widgets[id]
	return w, ok
}
