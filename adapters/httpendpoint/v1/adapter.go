package httpendpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/negbuzz/negbuzz/adapters"
	"github.com/negbuzz/negbuzz/domain"
)

// Adapter serves the REST mirror of the websocket operations.
type Adapter struct {
	analyzer   adapters.Adapter
	port       int
	router     *gin.Engine
	httpServer *http.Server
}

func NewHTTPEndpointAdapter(analyzer adapters.Adapter, port int) *Adapter {
	a := &Adapter{
		analyzer: analyzer,
		port:     port,
	}
	a.router = a.newRouter()
	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
		Handler:      a.router,
	}
	return a
}

func (a *Adapter) newRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	router.GET("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	v1 := router.Group("/api/v1")
	v1.POST("/filter/negative-content", a.filterSingle)
	v1.POST("/filter/negative-content/batch", a.filterBatch)
	v1.GET("/cache/stats", a.cacheStats)
	v1.DELETE("/cache", a.clearCache)
	return router
}

// Handler exposes the router, mainly for tests.
func (a *Adapter) Handler() http.Handler {
	return a.router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.L().Ctx(c.Request.Context()).Debug("httpendpoint request",
			helpers.String("method", c.Request.Method),
			helpers.String("path", c.Request.URL.Path),
			helpers.Int("status", c.Writer.Status()),
			helpers.String("duration", time.Since(start).String()))
	}
}

// decodeStrict reads a JSON body, rejecting unknown fields and trailing data.
func decodeStrict(c *gin.Context, v any) error {
	if c.Request.Body == nil {
		return errors.New("request body is empty")
	}
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	if decoder.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}

func badRequest(c *gin.Context, err error) {
	logger.L().Ctx(c.Request.Context()).Warning("httpendpoint bad request", helpers.Error(err),
		helpers.String("path", c.Request.URL.Path))
	c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
}

func (a *Adapter) filterSingle(c *gin.Context) {
	var item domain.ContentItem
	if err := decodeStrict(c, &item); err != nil {
		badRequest(c, err)
		return
	}
	result, err := a.analyzer.AnalyzeNegative(c.Request.Context(), item)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("Error processing item: %s", err.Error())})
		return
	}
	c.JSON(http.StatusOK, result.FilterResult)
}

func (a *Adapter) filterBatch(c *gin.Context) {
	var req domain.BatchFilterRequest
	if err := decodeStrict(c, &req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Data == nil {
		badRequest(c, errors.New("field data is required"))
		return
	}
	result, err := a.analyzer.BatchAnalyzeNegative(c.Request.Context(), req.Data)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("Error processing batch: %s", err.Error())})
		return
	}
	c.JSON(http.StatusOK, result.Results)
}

func (a *Adapter) cacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, a.analyzer.CacheStats(c.Request.Context()))
}

func (a *Adapter) clearCache(c *gin.Context) {
	if err := a.analyzer.ClearCache(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, domain.CacheCleared{Message: domain.CacheClearedMessage})
}

func (a *Adapter) Start(ctx context.Context) error {
	a.httpServer.BaseContext = func(_ net.Listener) context.Context {
		return ctx
	}
	go func() {
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Ctx(ctx).Fatal("httpendpoint server error", helpers.Error(err))
		}
		logger.L().Ctx(ctx).Info("httpendpoint server stopped")
	}()
	logger.L().Ctx(ctx).Info("httpendpoint server started", helpers.Int("port", a.port))
	return nil
}

func (a *Adapter) Stop(ctx context.Context) error {
	return a.httpServer.Shutdown(ctx)
}
