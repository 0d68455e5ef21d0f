package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/foxseedlab/fanreel/internal/objectstore"
	"github.com/foxseedlab/fanreel/internal/pipeline"
	"github.com/foxseedlab/fanreel/internal/progress"
	"github.com/foxseedlab/fanreel/internal/session"
	"github.com/gorilla/mux"
)

// maxUploadBytes bounds JSON bodies carrying base64 data URLs.
const maxUploadBytes = 25 << 20

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createSessionRequest struct {
	TeamID    string   `json:"teamId"`
	PlayerIDs []string `json:"playerIds"`
	UserID    string   `json:"userId"`
	SessionID string   `json:"sessionId"`
}

type createSessionResponse struct {
	SessionID string    `json:"sessionId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err.Error())
		return
	}
	if req.TeamID == "" || req.PlayerIDs == nil {
		writeError(w, http.StatusBadRequest, "Missing required fields: teamId, playerIds", "")
		return
	}
	rec, err := s.sessions.Create(r.Context(), session.CreateInput{
		TeamID:    req.TeamID,
		PlayerIDs: req.PlayerIDs,
		UserID:    req.UserID,
		SessionID: req.SessionID,
	})
	if err != nil {
		slog.Error("failed to create session", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create session", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, createSessionResponse{SessionID: rec.SessionID, CreatedAt: rec.CreatedAt})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	rec, err := s.sessions.Get(r.Context(), sessionID)
	if err != nil {
		slog.Error("failed to read session", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get session", err.Error())
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "Session not found", "")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type uploadRequest struct {
	SessionID string   `json:"sessionId"`
	AssetType string   `json:"assetType"`
	DataURL   string   `json:"dataUrl"`
	TeamID    string   `json:"teamId"`
	PlayerIDs []string `json:"playerIds"`
}

type uploadResponse struct {
	URL          string `json:"url"`
	AssetType    string `json:"assetType"`
	SessionID    string `json:"sessionId"`
	IsNewSession bool   `json:"isNewSession"`
}

func (s *Server) uploadAsset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	var req uploadRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err.Error())
		return
	}
	if req.AssetType == "" || req.DataURL == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields: assetType, dataUrl", "")
		return
	}
	res, err := s.pipeline.UploadAsset(r.Context(), pipeline.UploadInput{
		SessionID: req.SessionID,
		AssetType: req.AssetType,
		DataURL:   req.DataURL,
		TeamID:    req.TeamID,
		PlayerIDs: req.PlayerIDs,
	})
	if err != nil {
		writeFailure(w, err, "Failed to upload asset")
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{
		URL:          res.URL,
		AssetType:    string(res.AssetType),
		SessionID:    res.SessionID,
		IsNewSession: res.IsNewSession,
	})
}

type compositeImageRequest struct {
	SessionID     string   `json:"sessionId"`
	SelfieURL     string   `json:"selfieUrl"`
	TeamName      string   `json:"teamName"`
	PlayerNames   []string `json:"playerNames"`
	PoseID        string   `json:"poseId"`
	IsInitialPose bool     `json:"isInitialPose"`
}

type compositeImageResponse struct {
	Success   bool   `json:"success"`
	ImageURL  string `json:"imageUrl"`
	AssetType string `json:"assetType"`
	PoseID    string `json:"poseId"`
}

func (s *Server) generateCompositeImage(w http.ResponseWriter, r *http.Request) {
	var req compositeImageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err.Error())
		return
	}
	res, err := s.pipeline.GeneratePose(r.Context(), pipeline.PoseInput{
		SessionID:     req.SessionID,
		SelfieURL:     req.SelfieURL,
		TeamName:      req.TeamName,
		PlayerNames:   req.PlayerNames,
		PoseID:        req.PoseID,
		IsInitialPose: req.IsInitialPose,
	})
	if err != nil {
		writeFailure(w, err, "Failed to generate composite image")
		return
	}
	writeJSON(w, http.StatusOK, compositeImageResponse{
		Success:   true,
		ImageURL:  res.ImageURL,
		AssetType: string(res.AssetType),
		PoseID:    res.PoseID,
	})
}

type videoRequest struct {
	SessionID     string `json:"sessionId"`
	Pose1URL      string `json:"pose1Url"`
	InitialPoseID string `json:"initialPoseId"`
	IconicPoseID  string `json:"iconicPoseId"`
	TeamName      string `json:"teamName"`
}

type videoResponse struct {
	Success  bool   `json:"success"`
	VideoURL string `json:"videoUrl"`
}

func (s *Server) generateVideo(w http.ResponseWriter, r *http.Request) {
	var req videoRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err.Error())
		return
	}
	url, err := s.pipeline.GenerateVideo(r.Context(), pipeline.VideoInput{
		SessionID:     req.SessionID,
		Pose1URL:      req.Pose1URL,
		InitialPoseID: req.InitialPoseID,
		IconicPoseID:  req.IconicPoseID,
		TeamName:      req.TeamName,
	})
	if err != nil {
		writeFailure(w, err, "Failed to generate video")
		return
	}
	writeJSON(w, http.StatusOK, videoResponse{Success: true, VideoURL: url})
}

type randomPoseResponse struct {
	PoseID      string `json:"poseId"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// randomPose serves a catalog pose for ?initial=true (pose1) or an iconic pose
// otherwise.
func (s *Server) randomPose(w http.ResponseWriter, r *http.Request) {
	initial := false
	if raw := r.URL.Query().Get("initial"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "initial must be a boolean", err.Error())
			return
		}
		initial = v
	}
	p := s.pipeline.RandomPose(initial)
	writeJSON(w, http.StatusOK, randomPoseResponse{PoseID: p.ID, Name: p.Name, Description: p.Description})
}

func (s *Server) streamProgress(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	sse, err := progress.NewSSEWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported", err.Error())
		return
	}
	slog.Debug("progress stream opened", "session_id", sessionID)
	if err := s.progress.Stream(r.Context(), sessionID, sse.Emit); err != nil {
		slog.Debug("progress stream ended with error", "session_id", sessionID, "error", err)
		return
	}
	slog.Debug("progress stream closed", "session_id", sessionID)
}

func (s *Server) serveBlob(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimLeft(mux.Vars(r)["path"], "/")
	body, obj, err := s.objects.Get(r.Context(), path)
	if errors.Is(err, objectstore.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("failed to read blob", "path", path, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to read blob", err.Error())
		return
	}
	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(body); err != nil {
		slog.Debug("failed to write blob body", "path", path, "error", err)
	}
}
