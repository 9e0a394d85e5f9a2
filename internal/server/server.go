// Package server 提供基于已保存JSON文件的只读目录API和课表刷新接口
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"

	"github.com/RecoveryAshes/ssaudir/internal/core"
	"github.com/RecoveryAshes/ssaudir/internal/models"
	"github.com/RecoveryAshes/ssaudir/internal/utils"
)

// ScheduleRefresher 课表刷新,由*core.ScheduleCrawler实现
type ScheduleRefresher interface {
	Run(ctx context.Context, target models.ScheduleTarget) (*core.ScheduleResult, error)
}

// Config 服务配置
type Config struct {
	Port           int
	DataDir        string
	PublicDir      string
	AllowedHost    string
	RefreshTimeout time.Duration
}

// Server 目录API服务
type Server struct {
	config    Config
	refresher ScheduleRefresher
	router    chi.Router
}

// New 创建服务并注册路由
func New(config Config, refresher ScheduleRefresher) *Server {
	if config.RefreshTimeout <= 0 {
		config.RefreshTimeout = 2 * time.Minute
	}
	s := &Server{
		config:    config,
		refresher: refresher,
	}
	s.router = s.routes()
	return s
}

// Handler 返回HTTP处理器
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/groups", s.handleGroups)
		r.Get("/staff", s.handleStaff)
		r.Get("/search", s.handleSearch)
		r.Get("/schedule", s.handleSchedule)
		r.Post("/refresh-schedule", s.handleRefreshSchedule)
	})

	if info, err := os.Stat(s.config.PublicDir); err == nil && info.IsDir() {
		r.Handle("/*", http.FileServer(http.Dir(s.config.PublicDir)))
	} else {
		utils.Warnf("静态文件目录不存在: %s", s.config.PublicDir)
	}

	return r
}

// ListenAndServe 启动服务,ctx取消时优雅关闭
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		utils.Infof("服务已启动: http://localhost:%d", s.config.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		// 监听失败时gctx同样会被取消
		<-gctx.Done()
		utils.Info("正在关闭服务...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// requestLogger 使用全局zerolog记录请求
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		utils.Logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP请求")
	})
}

// writeJSON 写入JSON响应,不转义非ASCII字符
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		utils.Warnf("写入响应失败: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
