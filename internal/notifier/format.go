package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/foxseedlab/fanreel/internal/session"
)

const (
	eventSessionComplete = "session.complete"
	eventSessionError    = "session.error"
)

func BuildSessionOutcomePayload(rec session.Record) SessionOutcomePayload {
	event := eventSessionComplete
	if rec.Status == session.StatusError {
		event = eventSessionError
	}
	duration := rec.UpdatedAt.Sub(rec.CreatedAt)
	if duration < 0 {
		duration = 0
	}
	playerIDs := rec.PlayerIDs
	if playerIDs == nil {
		playerIDs = []string{}
	}
	return SessionOutcomePayload{
		Event:     event,
		SessionID: rec.SessionID,
		TeamID:    rec.TeamID,
		PlayerIDs: playerIDs,
		Status:    string(rec.Status),
		Progress:  rec.Progress,
		Assets: AssetLinks{
			Selfie: rec.Assets[session.AssetSelfie],
			Pose1:  rec.Assets[session.AssetPose1],
			Pose2:  rec.Assets[session.AssetPose2],
			Video:  rec.Assets[session.AssetVideo],
		},
		Error:              rec.Error,
		LastSuccessfulStep: rec.LastSuccessfulStep,
		CreatedAt:          rec.CreatedAt.UTC().Format(time.RFC3339),
		FinishedAt:         rec.UpdatedAt.UTC().Format(time.RFC3339),
		DurationSeconds:    int64(duration / time.Second),
	}
}

// BuildChatMessage renders a payload as a short chat message.
func BuildChatMessage(p SessionOutcomePayload) string {
	var lines []string
	if p.Event == eventSessionError {
		lines = append(lines, fmt.Sprintf(":warning: **Session `%s` failed** after `%s`", p.SessionID, orDash(p.LastSuccessfulStep)))
		lines = append(lines, "> "+p.Error)
	} else {
		lines = append(lines, fmt.Sprintf(":movie_camera: **Session `%s` complete** (%s, %ds)", p.SessionID, p.TeamID, p.DurationSeconds))
	}
	for _, a := range []struct{ name, url string }{
		{"selfie", p.Assets.Selfie},
		{"pose1", p.Assets.Pose1},
		{"pose2", p.Assets.Pose2},
		{"video", p.Assets.Video},
	} {
		if a.url != "" {
			lines = append(lines, fmt.Sprintf("- %s: %s", a.name, a.url))
		}
	}
	return strings.Join(lines, "\n")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
