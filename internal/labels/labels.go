// Package labels holds the fixed action and gender catalogs the appearance
// classifier chooses from.
package labels

import "fmt"

// Action is one phrase of the ordered action catalog. The numeric value is the
// catalog index and decides ties: the lowest index wins.
type Action int

// Action catalog, in prompt order.
const (
	TwoPeopleFighting Action = iota
	Walking
	Standing
	Running
	Jumping
	Dancing
	Laughing
	Eating
	Drinking
	Reading
	Writing
	Swimming
	Cycling
	Driving
	PlayingSport
	Crying
	Falling
	Shouting
	GrabbingSomething
	Slapping
	Punching
	TwoPeopleWrestling
	Sleeping
	LookingAround
	Waving
	RunningTowardsSomeone
	Kicking
	Hitting
	Sneaking
	Hiding
	Climbing
	PunchingWall
	Screaming
	HelpingSomeone
	DefendingThemselves
	BeingAggressive
	BeingAttacked
	Fleeing
	PullingSomething
	PushingSomething
	Hugging
	ShakingHands
	ThrowingObject
	CatchingObject
	LiftingWeights
	Exercising
	PlayingWithPet
	PlayingVideoGames
	Singing
	Posing

	numActions
)

var actionPhrases = [numActions]string{
	TwoPeopleFighting:     "two people fighting",
	Walking:               "a person walking",
	Standing:              "a person standing",
	Running:               "a person running",
	Jumping:               "a person jumping",
	Dancing:               "a person dancing",
	Laughing:              "a person laughing",
	Eating:                "a person eating",
	Drinking:              "a person drinking",
	Reading:               "a person reading",
	Writing:               "a person writing",
	Swimming:              "a person swimming",
	Cycling:               "a person cycling",
	Driving:               "a person driving",
	PlayingSport:          "a person playing a sport",
	Crying:                "a person crying",
	Falling:               "a person falling",
	Shouting:              "a person shouting",
	GrabbingSomething:     "a person grabbing something",
	Slapping:              "a person slapping",
	Punching:              "a person punching",
	TwoPeopleWrestling:    "two people wrestling",
	Sleeping:              "a person sleeping",
	LookingAround:         "a person looking around",
	Waving:                "a person waving",
	RunningTowardsSomeone: "a person running towards someone",
	Kicking:               "a person kicking",
	Hitting:               "a person hitting",
	Sneaking:              "a person sneaking",
	Hiding:                "a person hiding",
	Climbing:              "a person climbing",
	PunchingWall:          "a person punching a wall",
	Screaming:             "a person screaming",
	HelpingSomeone:        "a person helping someone",
	DefendingThemselves:   "a person defending themselves",
	BeingAggressive:       "a person being aggressive",
	BeingAttacked:         "a person being attacked",
	Fleeing:               "a person fleeing",
	PullingSomething:      "a person pulling something",
	PushingSomething:      "a person pushing something",
	Hugging:               "a person hugging",
	ShakingHands:          "a person shaking hands",
	ThrowingObject:        "a person throwing an object",
	CatchingObject:        "a person catching an object",
	LiftingWeights:        "a person lifting weights",
	Exercising:            "a person exercising",
	PlayingWithPet:        "a person playing with a pet",
	PlayingVideoGames:     "a person playing video games",
	Singing:               "a person singing",
	Posing:                "a person posing",
}

// String returns the catalog phrase for the action.
func (a Action) String() string {
	if a < 0 || a >= numActions {
		return fmt.Sprintf("Action(%d)", int(a))
	}
	return actionPhrases[a]
}

// Valid reports whether a is a member of the catalog.
func (a Action) Valid() bool {
	return a >= 0 && a < numActions
}

// Violent reports whether the action belongs to the violent-action lexicon
// (fight, hit, slap, punch, kick, grab, aggressive, attacked, defend).
// "a person punching a wall" counts because it contains "a person punching".
func (a Action) Violent() bool {
	switch a {
	case TwoPeopleFighting, Hitting, Slapping, Punching, PunchingWall, Kicking,
		GrabbingSomething, BeingAggressive, BeingAttacked, DefendingThemselves:
		return true
	default:
		return false
	}
}

// Actions returns the catalog in prompt order.
func Actions() []Action {
	out := make([]Action, numActions)
	for i := range out {
		out[i] = Action(i)
	}
	return out
}

// ActionPhrases returns the catalog phrases in prompt order.
func ActionPhrases() []string {
	out := make([]string, numActions)
	copy(out, actionPhrases[:])
	return out
}

// ParseAction maps a catalog phrase back to its Action.
func ParseAction(phrase string) (Action, error) {
	for i, p := range actionPhrases {
		if p == phrase {
			return Action(i), nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", phrase)
}

// Gender is the two-label gender catalog.
type Gender int

const (
	Male Gender = iota
	Female

	numGenders
)

var genderPhrases = [numGenders]string{
	Male:   "a person who is male",
	Female: "a person who is female",
}

// String returns the short name used in overlays and logs.
func (g Gender) String() string {
	switch g {
	case Male:
		return "male"
	case Female:
		return "female"
	default:
		return fmt.Sprintf("Gender(%d)", int(g))
	}
}

// Prompt returns the catalog phrase scored against the crop.
func (g Gender) Prompt() string {
	if g < 0 || g >= numGenders {
		return ""
	}
	return genderPhrases[g]
}

// Genders returns the gender catalog in prompt order.
func Genders() []Gender {
	return []Gender{Male, Female}
}

// GenderPrompts returns the gender phrases in prompt order.
func GenderPrompts() []string {
	out := make([]string, numGenders)
	copy(out, genderPhrases[:])
	return out
}
