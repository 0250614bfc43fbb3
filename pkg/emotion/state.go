package emotion

const moodHistoryLimit = 10

// State tracks the companion's mood across a conversation. The mood
// mirrors the user's emotion in a dampened way: anger is met with calm,
// fear with reassurance.
type State struct {
	mood    string
	history []string
}

// NewState returns a State starting in a neutral mood.
func NewState() *State {
	return &State{mood: Neutral}
}

var moodMirror = map[string]string{
	Joy:        "cheerful",
	Excitement: "energetic",
	Love:       "warm",
	Sadness:    "empathetic",
	Anger:      "calm",
	Fear:       "reassuring",
	Neutral:    Neutral,
}

// Update shifts the companion's mood in response to the user's emotion.
func (s *State) Update(userEmotion string) {
	mood, ok := moodMirror[userEmotion]
	if !ok {
		mood = Neutral
	}
	s.mood = mood

	s.history = append(s.history, mood)
	if len(s.history) > moodHistoryLimit {
		s.history = s.history[len(s.history)-moodHistoryLimit:]
	}
}

// Mood returns the current mood label.
func (s *State) Mood() string {
	return s.mood
}

var toneInstructions = map[string]string{
	"cheerful":   "Respond with warmth and positivity.",
	"energetic":  "Match their energy with enthusiasm!",
	"warm":       "Be extra caring and affectionate.",
	"empathetic": "Be gentle, understanding, and supportive.",
	"calm":       "Stay calm and de-escalate. Be patient and understanding.",
	"reassuring": "Be reassuring and help them feel safe.",
	Neutral:      "Maintain your natural personality.",
}

// ToneInstruction renders the current mood as a prompt fragment.
func (s *State) ToneInstruction() string {
	if instr, ok := toneInstructions[s.mood]; ok {
		return instr
	}
	return "Be yourself."
}
