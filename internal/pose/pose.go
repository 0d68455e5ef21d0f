package pose

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

type Pose struct {
	ID          string
	Name        string
	Description string
	Prompt      string
}

var InitialPoses = []Pose{
	{
		ID:          "greeting",
		Name:        "Friendly Greeting",
		Description: "A warm, friendly greeting moment",
		Prompt:      "in a warm greeting pose, shaking hands with genuine smiles, friendly and welcoming atmosphere",
	},
	{
		ID:          "casual-standing",
		Name:        "Casual Standing",
		Description: "Standing together in a friendly, relaxed pose",
		Prompt:      "standing side by side in a casual, friendly pose with slight smiles, natural body language",
	},
	{
		ID:          "casual-handshake",
		Name:        "Casual Handshake",
		Description: "A friendly handshake greeting",
		Prompt:      "shaking hands in a casual, friendly greeting, both smiling warmly",
	},
	{
		ID:          "side-by-side",
		Name:        "Side by Side",
		Description: "Standing next to each other looking forward",
		Prompt:      "standing shoulder to shoulder, both looking forward with confident expressions",
	},
}

var IconicPoses = []Pose{
	{
		ID:          "celebration",
		Name:        "Victory Celebration",
		Description: "Exciting celebration moment together",
		Prompt:      "celebrating together with excitement and energy, arms raised, big smiles, triumphant victory celebration pose",
	},
	{
		ID:          "power-handshake",
		Name:        "Power Handshake",
		Description: "90-degree hand clasp showing unity and strength",
		Prompt:      "gripping hands together at 90-degree angle in a powerful handshake, intense eye contact, showing unity and determination",
	},
	{
		ID:          "fist-bump",
		Name:        "Fist Bump",
		Description: "Dynamic fist bump celebration",
		Prompt:      "doing an energetic fist bump with big smiles, celebrating together, dynamic pose",
	},
	{
		ID:          "high-five",
		Name:        "High Five",
		Description: "Enthusiastic high five in celebration",
		Prompt:      "giving each other a high five with excitement and joy, arms extended upward",
	},
	{
		ID:          "victory-pose",
		Name:        "Victory Pose",
		Description: "Arms raised in victory celebration",
		Prompt:      "both raising their arms in victory, celebrating together with triumphant expressions",
	},
	{
		ID:          "team-huddle",
		Name:        "Team Huddle",
		Description: "Close huddle showing team unity",
		Prompt:      "in a tight huddle with arms around each other, showing team unity and brotherhood",
	},
	{
		ID:          "chest-bump",
		Name:        "Chest Bump",
		Description: "Athletic celebration chest bump",
		Prompt:      "doing a celebratory chest bump with intensity and energy, athletic celebration pose",
	},
}

// ByID looks a pose up in both catalogs.
func ByID(id string) (Pose, bool) {
	for _, list := range [][]Pose{InitialPoses, IconicPoses} {
		for _, p := range list {
			if p.ID == id {
				return p, true
			}
		}
	}
	return Pose{}, false
}

func RandomInitial(r *rand.Rand) Pose {
	return pick(r, InitialPoses)
}

func RandomIconic(r *rand.Rand) Pose {
	return pick(r, IconicPoses)
}

func pick(r *rand.Rand, list []Pose) Pose {
	if r == nil {
		return list[rand.IntN(len(list))]
	}
	return list[r.IntN(len(list))]
}

const (
	initialSetting = "in a bright, professional NFL facility setting"
	iconicSetting  = "on an NFL stadium field with dramatic lighting"
)

// BuildPrompt is deterministic in its inputs.
func BuildPrompt(p Pose, teamName string, playerNames []string, isInitial bool) string {
	setting := iconicSetting
	if isInitial {
		setting = initialSetting
	}
	return fmt.Sprintf(
		"Professional sports photograph of a fan together with %s of the %s, %s. %s. High quality, photorealistic, cinematic lighting, sharp focus. NFL team colors visible. Action sports photography style.",
		strings.Join(playerNames, " and "), teamName, p.Prompt, setting,
	)
}

func BuildVideoPrompt(initial, iconic Pose, teamName string) string {
	return fmt.Sprintf(
		"Smooth cinematic transition from %s to %s. Professional sports video with dramatic %s stadium lighting. Dynamic camera movement. High quality video production. 5 seconds.",
		initial.Description, iconic.Description, teamName,
	)
}

// DefaultVideoPrompt is used when the poses of a session are not known.
func DefaultVideoPrompt(teamName string) string {
	return fmt.Sprintf(
		"Professional cinematic sports video showing smooth transition from casual pose to dynamic celebration. NFL stadium setting with dramatic lighting. High-quality production. %s team atmosphere. Dynamic camera movement. 5 seconds.",
		teamName,
	)
}
