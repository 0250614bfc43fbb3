// Package emotion classifies the emotional tone of user messages and
// tracks the companion's responding mood.
//
// Detection is lexicon based: a message is matched against per-emotion
// keyword buckets, and a normalized sentiment score breaks ties when no
// bucket matches. The package is pure computation with no I/O.
package emotion

import (
	"fmt"
	"math"
	"strings"
)

// Emotion labels produced by the detector.
const (
	Joy        = "joy"
	Sadness    = "sadness"
	Anger      = "anger"
	Fear       = "fear"
	Surprise   = "surprise"
	Disgust    = "disgust"
	Love       = "love"
	Excitement = "excitement"
	Positive   = "positive"
	Negative   = "negative"
	Neutral    = "neutral"
)

// Intensity levels derived from the sentiment magnitude.
const (
	IntensityMild     = "mild"
	IntensityModerate = "moderate"
	IntensityStrong   = "strong"
)

// Result holds the outcome of analyzing a single message.
type Result struct {
	Emotion    string
	Sentiment  string // positive, negative or neutral
	Intensity  string
	Confidence float64 // absolute compound score in [0, 1]
}

var emotionKeywords = map[string][]string{
	Joy: {
		"happy", "excited", "great", "wonderful", "awesome", "love", "perfect",
		"amazing", "fantastic", "excellent", "yay", "😊", "😄", "🎉",
	},
	Sadness: {
		"sad", "unhappy", "depressed", "down", "upset", "disappointed",
		"miserable", "hurt", "cry", "crying", "😢", "😞", "💔",
	},
	Anger: {
		"angry", "mad", "furious", "annoyed", "frustrated", "irritated",
		"pissed", "rage", "hate", "😠", "😡", "🤬",
	},
	Fear: {
		"scared", "afraid", "worried", "anxious", "nervous", "terrified",
		"frightened", "panic", "stress", "stressed", "😰", "😨",
	},
	Surprise: {
		"surprising", "shocked", "amazed", "unexpected", "wow", "omg",
		"incredible", "unbelievable", "😲", "😮",
	},
	Disgust: {
		"disgusting", "gross", "awful", "terrible", "horrible", "nasty",
		"revolting", "🤢", "🤮",
	},
	Love: {
		"love", "adore", "cherish", "affection", "care", "appreciate",
		"grateful", "thankful", "blessed", "❤️", "💕", "🥰",
	},
	Excitement: {
		"excited", "thrilled", "eager", "pumped", "hyped", "enthusiastic",
		"can't wait", "🔥", "⚡", "🎊",
	},
}

// Valence lexicon used when no emotion bucket matches. Scores follow the
// usual convention: positive words up, negative words down.
var valence = map[string]float64{
	"good": 1.9, "great": 3.1, "happy": 2.7, "love": 3.2, "like": 1.5,
	"wonderful": 2.7, "awesome": 3.1, "amazing": 2.8, "fantastic": 2.6,
	"excellent": 2.7, "perfect": 2.7, "best": 3.2, "nice": 1.8,
	"thanks": 1.9, "thank": 1.5, "fun": 2.3, "glad": 2.0, "enjoy": 2.2,
	"excited": 2.3, "beautiful": 2.9, "yay": 2.4, "cool": 1.3,
	"bad": -2.5, "sad": -2.1, "hate": -2.7, "terrible": -2.1,
	"awful": -2.0, "horrible": -2.5, "worst": -3.1, "angry": -2.3,
	"upset": -1.6, "hurt": -2.4, "cry": -2.0, "scared": -2.2,
	"afraid": -2.2, "worried": -1.8, "depressed": -2.3, "annoyed": -1.8,
	"disappointed": -2.1, "miserable": -2.7, "lonely": -2.2, "stress": -1.9,
	"wrong": -1.6, "lost": -1.3, "fail": -2.0, "failed": -2.0,
}

// Detector analyzes user messages for emotional content.
type Detector struct{}

// NewDetector returns a ready-to-use Detector.
func NewDetector() *Detector {
	return &Detector{}
}

// Analyze classifies the emotion, sentiment and intensity of text.
// An empty or unrecognized message yields a neutral result.
func (d *Detector) Analyze(text string) Result {
	compound := compoundScore(text)

	sentiment := Neutral
	switch {
	case compound > 0.05:
		sentiment = Positive
	case compound < -0.05:
		sentiment = Negative
	}

	return Result{
		Emotion:    classify(text, compound),
		Sentiment:  sentiment,
		Intensity:  intensity(compound),
		Confidence: math.Abs(compound),
	}
}

// ShouldShowEmpathy reports whether the companion should lead with
// empathy and support.
func (d *Detector) ShouldShowEmpathy(r Result) bool {
	switch r.Emotion {
	case Sadness, Anger, Fear, Disgust, Negative:
		return r.Intensity == IntensityModerate || r.Intensity == IntensityStrong
	}
	return false
}

// ShouldCelebrate reports whether the companion should share the user's
// enthusiasm.
func (d *Detector) ShouldCelebrate(r Result) bool {
	switch r.Emotion {
	case Joy, Excitement, Love, Surprise:
		return r.Intensity == IntensityModerate || r.Intensity == IntensityStrong
	}
	return false
}

// PromptContext renders the analysis as an instruction fragment for the
// system prompt.
func (d *Detector) PromptContext(r Result) string {
	if d.ShouldShowEmpathy(r) {
		return fmt.Sprintf("The user seems to be feeling %s (%s intensity). Show empathy and support.", r.Emotion, r.Intensity)
	}
	if d.ShouldCelebrate(r) {
		return fmt.Sprintf("The user is feeling %s (%s intensity). Share their excitement!", r.Emotion, r.Intensity)
	}
	return fmt.Sprintf("The user's emotional state: %s (%s).", r.Emotion, r.Intensity)
}

func classify(text string, compound float64) string {
	lower := strings.ToLower(text)

	best := ""
	bestMatches := 0
	for emo, keywords := range emotionKeywords {
		matches := 0
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				matches++
			}
		}
		// Ties resolve alphabetically so results stay deterministic
		// across map iteration order.
		if matches > bestMatches || (matches == bestMatches && matches > 0 && emo < best) {
			best = emo
			bestMatches = matches
		}
	}
	if bestMatches > 0 {
		return best
	}

	switch {
	case compound > 0.5:
		return Joy
	case compound < -0.5:
		return Sadness
	case compound > 0.05:
		return Positive
	case compound < -0.05:
		return Negative
	default:
		return Neutral
	}
}

func intensity(compound float64) string {
	abs := math.Abs(compound)
	switch {
	case abs > 0.7:
		return IntensityStrong
	case abs > 0.3:
		return IntensityModerate
	default:
		return IntensityMild
	}
}

// compoundScore sums lexicon valences over the message tokens and
// squashes the total into [-1, 1].
func compoundScore(text string) float64 {
	var sum float64
	negate := false
	for _, tok := range tokenize(text) {
		if tok == "not" || tok == "no" || tok == "never" || strings.HasSuffix(tok, "n't") {
			negate = true
			continue
		}
		if v, ok := valence[tok]; ok {
			if negate {
				v = -v * 0.74
			}
			sum += v
		}
		negate = false
	}

	// Exclamation marks amplify whatever direction the message leans.
	if bangs := strings.Count(text, "!"); bangs > 0 && sum != 0 {
		boost := math.Min(float64(bangs), 4) * 0.292
		if sum > 0 {
			sum += boost
		} else {
			sum -= boost
		}
	}

	if sum == 0 {
		return 0
	}
	return sum / math.Sqrt(sum*sum+15)
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r != '\''
	})
}
