package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/foxseedlab/fanreel/internal/generation"
	"github.com/foxseedlab/fanreel/internal/notifier"
	"github.com/foxseedlab/fanreel/internal/pose"
	"github.com/foxseedlab/fanreel/internal/retry"
	"github.com/foxseedlab/fanreel/internal/session"
)

const (
	progressSelfieStarted = 5
	progressSelfieDone    = 10
	progressPose1Started  = 20
	progressPose1Done     = 35
	progressPose2Started  = 50
	progressPose2Done     = 65
	progressVideoStarted  = 70
	progressVideoRunning  = 85
	progressComplete      = 100

	imageOutputContentType = "image/png"
	videoOutputContentType = "video/mp4"
	videoDuration          = "5"
	videoNegativePrompt    = "blurry, distorted, low quality, static, frozen"

	notifyTimeout = 15 * time.Second
)

var compositeImageSize = generation.ImageSize{Width: 1024, Height: 576}

// SessionStore is the subset of session.Store the pipeline needs.
type SessionStore interface {
	Create(ctx context.Context, in session.CreateInput) (*session.Record, error)
	Get(ctx context.Context, sessionID string) (*session.Record, error)
	Update(ctx context.Context, sessionID string, u session.Update) error
	UploadAsset(ctx context.Context, sessionID string, kind session.AssetKind, body []byte, contentType string) (string, error)
}

type UploadInput struct {
	SessionID string
	AssetType string
	DataURL   string
	TeamID    string
	PlayerIDs []string
}

type UploadResult struct {
	URL          string
	AssetType    session.AssetKind
	SessionID    string
	IsNewSession bool
}

type PoseInput struct {
	SessionID     string
	SelfieURL     string
	TeamName      string
	PlayerNames   []string
	PoseID        string
	IsInitialPose bool
}

type PoseResult struct {
	ImageURL  string
	AssetType session.AssetKind
	PoseID    string
}

type VideoInput struct {
	SessionID     string
	Pose1URL      string
	InitialPoseID string
	IconicPoseID  string
	TeamName      string
}

// Orchestrator runs one pipeline stage per call. Stages for a session are
// driven in order by the caller; the orchestrator keeps no state between
// calls besides what it writes to the session store.
type Orchestrator struct {
	sessions   SessionStore
	gateway    generation.Gateway
	notifier   notifier.Sender
	imageRetry retry.Policy
	videoRetry retry.Policy

	randMu sync.Mutex
	rand   *rand.Rand
}

func NewOrchestrator(sessions SessionStore, gateway generation.Gateway, sender notifier.Sender, imageRetry, videoRetry retry.Policy) *Orchestrator {
	return &Orchestrator{
		sessions:   sessions,
		gateway:    gateway,
		notifier:   sender,
		imageRetry: imageRetry,
		videoRetry: videoRetry,
		rand:       rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	}
}

// UploadAsset stores a client-supplied asset. A selfie derives the session id
// from its content and starts the pipeline; other kinds attach to an existing
// session.
func (o *Orchestrator) UploadAsset(ctx context.Context, in UploadInput) (*UploadResult, error) {
	kind, ok := session.ParseAssetKind(in.AssetType)
	if !ok {
		return nil, invalidInput("assetType must be selfie, pose1, pose2, or video")
	}
	body, contentType, err := parseDataURL(in.DataURL)
	if err != nil {
		return nil, err
	}

	if kind == session.AssetSelfie {
		return o.uploadSelfie(ctx, in, body, contentType)
	}

	if in.SessionID == "" {
		return nil, invalidInput("sessionId required for non-selfie uploads")
	}
	rec, err := o.sessions.Get(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, in.SessionID)
	}
	url, err := o.sessions.UploadAsset(ctx, in.SessionID, kind, body, contentType)
	if err != nil {
		return nil, err
	}
	if err := o.sessions.Update(ctx, in.SessionID, session.Update{Assets: session.Assets{kind: url}}); err != nil {
		return nil, err
	}
	return &UploadResult{URL: url, AssetType: kind, SessionID: in.SessionID}, nil
}

func (o *Orchestrator) uploadSelfie(ctx context.Context, in UploadInput, body []byte, contentType string) (*UploadResult, error) {
	sessionID := in.SessionID
	if sessionID == "" {
		sessionID = session.ContentID(body)
	}
	teamID := in.TeamID
	if teamID == "" {
		teamID = "unknown"
	}
	playerIDs := in.PlayerIDs
	if playerIDs == nil {
		playerIDs = []string{}
	}
	log := slog.With("session_id", sessionID, "stage", session.AssetSelfie)

	url, err := func() (string, error) {
		if _, err := o.sessions.Create(ctx, session.CreateInput{TeamID: teamID, PlayerIDs: playerIDs, SessionID: sessionID}); err != nil {
			return "", err
		}
		if err := o.sessions.Update(ctx, sessionID, session.Update{
			Status:    session.Ptr(session.StatusUploadingSelfie),
			Progress:  session.Ptr(progressSelfieStarted),
			TeamID:    &teamID,
			PlayerIDs: playerIDs,
		}); err != nil {
			return "", err
		}
		url, err := o.sessions.UploadAsset(ctx, sessionID, session.AssetSelfie, body, contentType)
		if err != nil {
			return "", err
		}
		if err := o.sessions.Update(ctx, sessionID, session.Update{
			Status:   session.Ptr(session.StatusUploadingSelfie),
			Progress: session.Ptr(progressSelfieDone),
			Assets:   session.Assets{session.AssetSelfie: url},
		}); err != nil {
			return "", err
		}
		return url, nil
	}()
	if err != nil {
		return nil, o.fail(ctx, sessionID, session.AssetSelfie, "", err)
	}

	log.Info("selfie uploaded", "url", url, "bytes", len(body))
	return &UploadResult{URL: url, AssetType: session.AssetSelfie, SessionID: sessionID, IsNewSession: true}, nil
}

// GeneratePose composites the fan into pose1 (initial) or pose2 (iconic). Once
// validated, the stage runs to completion even if ctx is cancelled.
func (o *Orchestrator) GeneratePose(ctx context.Context, in PoseInput) (*PoseResult, error) {
	if in.SessionID == "" || in.SelfieURL == "" || in.TeamName == "" || in.PoseID == "" {
		return nil, invalidInput("Missing required fields: sessionId, selfieUrl, teamName, poseId")
	}
	p, ok := pose.ByID(in.PoseID)
	if !ok {
		return nil, invalidInput("Invalid pose ID: %s", in.PoseID)
	}
	ctx = context.WithoutCancel(ctx)

	kind, status := session.AssetPose2, session.StatusGeneratingPose2
	started, done := progressPose2Started, progressPose2Done
	lastSuccessful := session.AssetPose1
	if in.IsInitialPose {
		kind, status = session.AssetPose1, session.StatusGeneratingPose1
		started, done = progressPose1Started, progressPose1Done
		lastSuccessful = session.AssetSelfie
	}
	log := slog.With("session_id", in.SessionID, "stage", kind, "pose_id", p.ID)

	prompt := pose.BuildPrompt(p, in.TeamName, in.PlayerNames, in.IsInitialPose)
	log.Debug("generating composite image", "prompt", prompt)

	url, err := func() (string, error) {
		if err := o.sessions.Update(ctx, in.SessionID, session.Update{
			Status:   &status,
			Progress: &started,
		}); err != nil {
			return "", err
		}
		input := generation.Input{
			Prompt:              prompt,
			ImageURL:            in.SelfieURL,
			ImageSize:           &compositeImageSize,
			NumInferenceSteps:   28,
			GuidanceScale:       3.5,
			NumImages:           1,
			EnableSafetyChecker: true,
		}
		resultURL, err := retry.Do(ctx, o.imageRetry, func(ctx context.Context) (string, error) {
			return o.gateway.Submit(ctx, generation.JobCompositeImage, input, func(u generation.QueueUpdate) {
				log.Debug("composite image progress", "queue_status", u.Status, "queue_position", u.QueuePosition)
			})
		})
		if err != nil {
			return "", err
		}
		return o.persistResult(ctx, in.SessionID, kind, resultURL, imageOutputContentType, session.Update{
			Progress: &done,
		})
	}()
	if err != nil {
		return nil, o.fail(ctx, in.SessionID, kind, lastSuccessful, err)
	}

	log.Info("composite image generated", "url", url)
	return &PoseResult{ImageURL: url, AssetType: kind, PoseID: p.ID}, nil
}

// GenerateVideo animates pose1 into a short clip and completes the session.
// Like GeneratePose it is not bound to the caller's cancellation.
func (o *Orchestrator) GenerateVideo(ctx context.Context, in VideoInput) (string, error) {
	if in.SessionID == "" || in.Pose1URL == "" || in.TeamName == "" {
		return "", invalidInput("Missing required fields: sessionId, pose1Url, teamName")
	}
	prompt, err := videoPrompt(in)
	if err != nil {
		return "", err
	}
	ctx = context.WithoutCancel(ctx)
	log := slog.With("session_id", in.SessionID, "stage", session.AssetVideo)
	log.Debug("generating video", "prompt", prompt)

	url, err := func() (string, error) {
		if err := o.sessions.Update(ctx, in.SessionID, session.Update{
			Status:   session.Ptr(session.StatusGeneratingVideo),
			Progress: session.Ptr(progressVideoStarted),
		}); err != nil {
			return "", err
		}
		input := generation.Input{
			Prompt:         prompt,
			ImageURL:       in.Pose1URL,
			Duration:       videoDuration,
			NegativePrompt: videoNegativePrompt,
		}
		var reportRunning sync.Once
		resultURL, err := retry.Do(ctx, o.videoRetry, func(ctx context.Context) (string, error) {
			return o.gateway.Submit(ctx, generation.JobReferenceVideo, input, func(u generation.QueueUpdate) {
				log.Debug("video progress", "queue_status", u.Status, "queue_position", u.QueuePosition)
				if u.Status != generation.QueueStatusInProgress {
					return
				}
				reportRunning.Do(func() {
					if err := o.sessions.Update(ctx, in.SessionID, session.Update{Progress: session.Ptr(progressVideoRunning)}); err != nil {
						log.Warn("failed to record video progress", "error", err)
					}
				})
			})
		})
		if err != nil {
			return "", err
		}
		return o.persistResult(ctx, in.SessionID, session.AssetVideo, resultURL, videoOutputContentType, session.Update{
			Status:   session.Ptr(session.StatusComplete),
			Progress: session.Ptr(progressComplete),
		})
	}()
	if err != nil {
		return "", o.fail(ctx, in.SessionID, session.AssetVideo, session.AssetPose2, err)
	}

	log.Info("video generated", "url", url)
	o.notify(ctx, in.SessionID)
	return url, nil
}

// persistResult copies a generated asset into the object store and merges its
// URL together with u into the session.
func (o *Orchestrator) persistResult(ctx context.Context, sessionID string, kind session.AssetKind, resultURL, contentType string, u session.Update) (string, error) {
	body, _, err := o.gateway.Download(ctx, resultURL)
	if err != nil {
		return "", fmt.Errorf("download generated %s: %w", kind, err)
	}
	url, err := o.sessions.UploadAsset(ctx, sessionID, kind, body, contentType)
	if err != nil {
		return "", err
	}
	u.Assets = session.Assets{kind: url}
	if err := o.sessions.Update(ctx, sessionID, u); err != nil {
		return "", err
	}
	return url, nil
}

// fail records the failure on the session and returns it as a StageError. A
// failure to record is logged and does not replace err.
func (o *Orchestrator) fail(ctx context.Context, sessionID string, stage, lastSuccessful session.AssetKind, err error) error {
	slog.Error("pipeline stage failed", "session_id", sessionID, "stage", stage, "error", err)

	u := session.Update{
		Status: session.Ptr(session.StatusError),
		Error:  session.Ptr(err.Error()),
	}
	if lastSuccessful != "" {
		u.LastSuccessfulStep = session.Ptr(string(lastSuccessful))
	}
	recordCtx := context.WithoutCancel(ctx)
	if updateErr := o.sessions.Update(recordCtx, sessionID, u); updateErr != nil {
		slog.Error("failed to record stage failure on session", "session_id", sessionID, "stage", stage, "error", updateErr)
	} else {
		o.notify(recordCtx, sessionID)
	}
	return &StageError{Stage: stage, Err: err}
}

// notify sends the session outcome on a best-effort basis.
func (o *Orchestrator) notify(ctx context.Context, sessionID string) {
	if o.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	rec, err := o.sessions.Get(ctx, sessionID)
	if err != nil || rec == nil {
		slog.Warn("skipping session outcome notification; session unreadable", "session_id", sessionID, "error", err)
		return
	}
	if err := o.notifier.SendSessionOutcome(ctx, notifier.BuildSessionOutcomePayload(*rec)); err != nil {
		slog.Error("failed to send session outcome notification", "session_id", sessionID, "status", rec.Status, "error", err)
	}
}

// RandomPose picks a catalog pose for clients that let the service choose.
func (o *Orchestrator) RandomPose(initial bool) pose.Pose {
	o.randMu.Lock()
	defer o.randMu.Unlock()
	if initial {
		return pose.RandomInitial(o.rand)
	}
	return pose.RandomIconic(o.rand)
}

func videoPrompt(in VideoInput) (string, error) {
	if in.InitialPoseID == "" || in.IconicPoseID == "" {
		return pose.DefaultVideoPrompt(in.TeamName), nil
	}
	initial, ok := pose.ByID(in.InitialPoseID)
	if !ok {
		return "", invalidInput("Invalid pose ID: %s", in.InitialPoseID)
	}
	iconic, ok := pose.ByID(in.IconicPoseID)
	if !ok {
		return "", invalidInput("Invalid pose ID: %s", in.IconicPoseID)
	}
	return pose.BuildVideoPrompt(initial, iconic, in.TeamName), nil
}
