package session

import "time"

type Status string

const (
	StatusPending         Status = "pending"
	StatusUploadingSelfie Status = "uploading_selfie"
	StatusGeneratingPose1 Status = "generating_pose1"
	StatusGeneratingPose2 Status = "generating_pose2"
	StatusGeneratingVideo Status = "generating_video"
	StatusComplete        Status = "complete"
	StatusError           Status = "error"
)

// Terminal reports whether no further pipeline stage is expected to run.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusError
}

type AssetKind string

const (
	AssetSelfie AssetKind = "selfie"
	AssetPose1  AssetKind = "pose1"
	AssetPose2  AssetKind = "pose2"
	AssetVideo  AssetKind = "video"
)

func ParseAssetKind(s string) (AssetKind, bool) {
	switch k := AssetKind(s); k {
	case AssetSelfie, AssetPose1, AssetPose2, AssetVideo:
		return k, true
	default:
		return "", false
	}
}

type Assets map[AssetKind]string

type Record struct {
	SessionID          string    `json:"sessionId"`
	UserID             string    `json:"userId,omitempty"`
	TeamID             string    `json:"teamId"`
	PlayerIDs          []string  `json:"playerIds"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
	Status             Status    `json:"status"`
	Progress           int       `json:"progress"`
	Assets             Assets    `json:"assets"`
	Error              string    `json:"error,omitempty"`
	LastSuccessfulStep string    `json:"lastSuccessfulStep,omitempty"`
}

// Update is a partial change to a Record. Nil fields are left untouched and
// Assets is merged key by key into the stored map.
type Update struct {
	TeamID             *string
	PlayerIDs          []string
	UserID             *string
	Status             *Status
	Progress           *int
	Assets             Assets
	Error              *string
	LastSuccessfulStep *string
}

func newRecord(sessionID, teamID string, playerIDs []string, now time.Time) *Record {
	if playerIDs == nil {
		playerIDs = []string{}
	}
	return &Record{
		SessionID: sessionID,
		TeamID:    teamID,
		PlayerIDs: playerIDs,
		CreatedAt: now,
		UpdatedAt: now,
		Status:    StatusPending,
		Progress:  0,
		Assets:    Assets{},
	}
}

// merge applies u over r and returns the result. sessionId and createdAt are
// never changed. Progress is taken as given, even when it goes backwards.
func merge(r Record, u Update, now time.Time) Record {
	out := r
	if u.TeamID != nil {
		out.TeamID = *u.TeamID
	}
	if u.PlayerIDs != nil {
		out.PlayerIDs = append([]string(nil), u.PlayerIDs...)
	}
	if u.UserID != nil {
		out.UserID = *u.UserID
	}
	if u.Status != nil {
		out.Status = *u.Status
	}
	if u.Progress != nil {
		out.Progress = *u.Progress
	}
	if u.Error != nil {
		out.Error = *u.Error
	}
	if u.LastSuccessfulStep != nil {
		out.LastSuccessfulStep = *u.LastSuccessfulStep
	}

	assets := make(Assets, len(r.Assets)+len(u.Assets))
	for k, v := range r.Assets {
		assets[k] = v
	}
	for k, v := range u.Assets {
		assets[k] = v
	}
	out.Assets = assets

	// error details only describe an errored session; a resumed stage clears them
	if out.Status != StatusError {
		out.Error = ""
		out.LastSuccessfulStep = ""
	}
	out.UpdatedAt = now
	return out
}

func Ptr[T any](v T) *T {
	return &v
}
