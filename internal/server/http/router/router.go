package router

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/polkiloo/storefront/internal/server/http/dto"
	"github.com/polkiloo/storefront/internal/server/http/handlers"
	"github.com/polkiloo/storefront/internal/server/http/middleware"
)

// knownMethods are answered with 405 on paths that do not support them.
var knownMethods = []string{
	http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
	http.MethodPatch, http.MethodDelete, http.MethodConnect, http.MethodTrace,
}

type route struct {
	method  string
	handler gin.HandlerFunc
}

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.StorefrontFacade, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.CORS())
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Message: "route not found"})
	})

	orderHandler := handlers.NewOrderHandler(facade)
	healthHandler := handlers.NewHealthHandler(facade)

	register(engine, engine.Group(""), "/health",
		route{http.MethodGet, healthHandler.Status},
	)

	orders := engine.Group("/orders")
	orders.Use(middleware.OptionalIdentity(facade))
	register(engine, orders, "",
		route{http.MethodGet, orderHandler.List},
		route{http.MethodPost, orderHandler.Create},
	)
	register(engine, orders, "/:id",
		route{http.MethodGet, orderHandler.Get},
		route{http.MethodPatch, orderHandler.UpdateStatus},
	)
	register(engine, orders, "/:id/status",
		route{http.MethodPatch, orderHandler.UpdateStatus},
	)

	return engine
}

// register mounts routes on group and answers HEAD for GET routes.
// The 405 table goes on the engine so it runs without the group middleware.
func register(engine *gin.Engine, group *gin.RouterGroup, path string, routes ...route) {
	methods := make([]string, 0, len(routes)+1)
	for _, r := range routes {
		group.Handle(r.method, path, r.handler)
		methods = append(methods, r.method)
		if r.method == http.MethodGet {
			group.Handle(http.MethodHead, path, r.handler)
			methods = append(methods, http.MethodHead)
		}
	}
	methodNotAllowed(engine, strings.TrimSuffix(group.BasePath(), "/")+path, methods...)
}

// methodNotAllowed answers every other known method on path with 405 and an Allow header.
func methodNotAllowed(r gin.IRoutes, path string, supported ...string) {
	allow := strings.Join(append(append([]string{}, supported...), http.MethodOptions), ", ")
	handler := func(c *gin.Context) {
		c.Header("Allow", allow)
		c.AbortWithStatusJSON(http.StatusMethodNotAllowed, dto.ErrorResponse{Message: "method not allowed"})
	}
	for _, method := range knownMethods {
		if !slices.Contains(supported, method) {
			r.Handle(method, path, handler)
		}
	}
}
