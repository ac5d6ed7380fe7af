package httpapi

import (
	"database/sql"
	"net/http"

	"github.com/rs/zerolog"

	"upsignal/internal/application/analysis"
	"upsignal/internal/infra/memory"
	"upsignal/internal/infrastructure/config"
	"upsignal/internal/infrastructure/persistence/postgres"
)

// Server 封裝 HTTP 路由與依賴。
type Server struct {
	mux       *http.ServeMux
	analyzeUC *analysis.AnalyzeUseCase
	cfg       config.Config
	log       zerolog.Logger
}

// NewServer 建立 API 伺服器；db 為 nil 時改用記憶體存儲。
func NewServer(cfg config.Config, db *sql.DB, log zerolog.Logger) *Server {
	var repo analysis.FactorRepository
	if db != nil {
		repo = postgres.NewRepo(db)
	} else {
		repo = memory.NewStore()
	}

	s := &Server{
		mux:       http.NewServeMux(),
		analyzeUC: analysis.NewAnalyzeUseCase(repo),
		cfg:       cfg,
		log:       log,
	}
	s.registerRoutes()
	return s
}

// Handler 回傳路由處理器，供 HTTP server 掛載。
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/api/health", s.wrapGet(s.handleHealth))
	s.mux.Handle("/api/analysis/run", s.wrapPost(s.handleAnalysisRun))
	s.mux.Handle("/api/analysis/regenerate", s.wrapPost(s.handleAnalysisRegenerate))
	s.mux.Handle("/api/analysis/summary", s.wrapGet(s.handleAnalysisSummary))
	s.mux.Handle("/api/predict", s.wrapPost(s.handlePredict))
}

func (s *Server) wrapGet(h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
			return
		}
		h(w, r)
	})
}

func (s *Server) wrapPost(h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
			return
		}
		h(w, r)
	})
}
