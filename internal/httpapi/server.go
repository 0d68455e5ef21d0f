package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/foxseedlab/fanreel/internal/objectstore"
	"github.com/foxseedlab/fanreel/internal/pipeline"
	"github.com/foxseedlab/fanreel/internal/pose"
	"github.com/foxseedlab/fanreel/internal/progress"
	"github.com/foxseedlab/fanreel/internal/session"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

type SessionStore interface {
	Create(ctx context.Context, in session.CreateInput) (*session.Record, error)
	Get(ctx context.Context, sessionID string) (*session.Record, error)
}

type Pipeline interface {
	UploadAsset(ctx context.Context, in pipeline.UploadInput) (*pipeline.UploadResult, error)
	GeneratePose(ctx context.Context, in pipeline.PoseInput) (*pipeline.PoseResult, error)
	GenerateVideo(ctx context.Context, in pipeline.VideoInput) (string, error)
	RandomPose(initial bool) pose.Pose
}

type ProgressStreamer interface {
	Stream(ctx context.Context, sessionID string, emit progress.EmitFunc) error
}

type Server struct {
	sessions SessionStore
	pipeline Pipeline
	progress ProgressStreamer
	objects  objectstore.Store
}

func NewServer(sessions SessionStore, p Pipeline, ps ProgressStreamer, objects objectstore.Store) *Server {
	return &Server{sessions: sessions, pipeline: p, progress: ps, objects: objects}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/storage/session", s.createSession).Methods(http.MethodPost)
	api.HandleFunc("/storage/session/{sessionId}", s.getSession).Methods(http.MethodGet)
	api.HandleFunc("/storage/upload", s.uploadAsset).Methods(http.MethodPost)
	api.HandleFunc("/generate-composite-image", s.generateCompositeImage).Methods(http.MethodPost)
	api.HandleFunc("/generate-video", s.generateVideo).Methods(http.MethodPost)
	api.HandleFunc("/progress/{sessionId}", s.streamProgress).Methods(http.MethodGet)
	api.HandleFunc("/poses/random", s.randomPose).Methods(http.MethodGet)

	r.HandleFunc("/blobs/{path:.+}", s.serveBlob).Methods(http.MethodGet, http.MethodHead)
	return r
}

// Handler wraps the router with request logging, panic recovery and CORS.
func (s *Server) Handler(allowedOrigins []string) http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins(allowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", requestIDHeader}),
		handlers.ExposedHeaders([]string{requestIDHeader}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(slogRecoveryLogger{}),
		handlers.PrintRecoveryStack(false),
	)
	return requestLogger(cors(recovery(s.Router())))
}

type slogRecoveryLogger struct{}

func (slogRecoveryLogger) Println(v ...any) {
	slog.Error("recovered from panic in http handler", "error", fmt.Sprint(v...))
}
