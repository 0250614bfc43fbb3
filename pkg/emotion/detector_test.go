package emotion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyze_KeywordEmotions(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name    string
		text    string
		emotion string
	}{
		{"joy", "I got the job, this is wonderful!", Joy},
		{"sadness", "I've been feeling really depressed lately", Sadness},
		{"anger", "I'm so furious about this, it makes me mad", Anger},
		{"fear", "I'm anxious and worried about tomorrow", Fear},
		{"surprise", "wow that was completely unexpected", Surprise},
		{"disgust", "that food was gross and nasty", Disgust},
		{"love", "I'm so grateful and thankful for you", Love},
		{"excitement", "I'm thrilled, can't wait for the trip", Excitement},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := d.Analyze(tt.text)
			assert.Equal(t, tt.emotion, r.Emotion)
		})
	}
}

func TestAnalyze_NeutralMessage(t *testing.T) {
	d := NewDetector()

	r := d.Analyze("the meeting is at three on tuesday")
	assert.Equal(t, Neutral, r.Emotion)
	assert.Equal(t, Neutral, r.Sentiment)
	assert.Equal(t, IntensityMild, r.Intensity)
	assert.Zero(t, r.Confidence)
}

func TestAnalyze_EmptyMessage(t *testing.T) {
	d := NewDetector()

	r := d.Analyze("")
	assert.Equal(t, Neutral, r.Emotion)
	assert.Equal(t, Neutral, r.Sentiment)
}

func TestAnalyze_SentimentDirection(t *testing.T) {
	d := NewDetector()

	pos := d.Analyze("what a beautiful day, I really enjoy this")
	assert.Equal(t, Positive, pos.Sentiment)

	neg := d.Analyze("everything went wrong and I failed")
	assert.Equal(t, Negative, neg.Sentiment)
}

func TestAnalyze_NegationFlipsValence(t *testing.T) {
	d := NewDetector()

	r := d.Analyze("that was not good at all")
	assert.Equal(t, Negative, r.Sentiment)
}

func TestAnalyze_ExclamationBoostsIntensity(t *testing.T) {
	d := NewDetector()

	plain := d.Analyze("this is good")
	loud := d.Analyze("this is good!!!")
	assert.Greater(t, loud.Confidence, plain.Confidence)
}

func TestShouldShowEmpathy(t *testing.T) {
	d := NewDetector()

	r := d.Analyze("I'm so sad, I just want to cry, everything hurt")
	assert.True(t, d.ShouldShowEmpathy(r))
	assert.False(t, d.ShouldCelebrate(r))

	mild := Result{Emotion: Sadness, Intensity: IntensityMild}
	assert.False(t, d.ShouldShowEmpathy(mild))
}

func TestShouldCelebrate(t *testing.T) {
	d := NewDetector()

	r := d.Analyze("this is amazing, awesome, I love it!!")
	assert.True(t, d.ShouldCelebrate(r))
	assert.False(t, d.ShouldShowEmpathy(r))
}

func TestPromptContext(t *testing.T) {
	d := NewDetector()

	empathy := Result{Emotion: Sadness, Intensity: IntensityStrong}
	assert.Contains(t, d.PromptContext(empathy), "Show empathy")

	celebrate := Result{Emotion: Joy, Intensity: IntensityStrong}
	assert.Contains(t, d.PromptContext(celebrate), "Share their excitement")

	neutral := Result{Emotion: Neutral, Intensity: IntensityMild}
	assert.Contains(t, d.PromptContext(neutral), "emotional state")
}

func TestState_MoodMirroring(t *testing.T) {
	s := NewState()
	assert.Equal(t, Neutral, s.Mood())

	tests := []struct {
		emotion string
		mood    string
	}{
		{Joy, "cheerful"},
		{Excitement, "energetic"},
		{Love, "warm"},
		{Sadness, "empathetic"},
		{Anger, "calm"},
		{Fear, "reassuring"},
		{Surprise, Neutral}, // unmapped emotions fall back to neutral
	}

	for _, tt := range tests {
		s.Update(tt.emotion)
		assert.Equal(t, tt.mood, s.Mood(), tt.emotion)
	}
}

func TestState_ToneInstruction(t *testing.T) {
	s := NewState()
	assert.Equal(t, "Maintain your natural personality.", s.ToneInstruction())

	s.Update(Anger)
	assert.Contains(t, s.ToneInstruction(), "de-escalate")
}

func TestState_HistoryBounded(t *testing.T) {
	s := NewState()
	for i := 0; i < 25; i++ {
		s.Update(Joy)
	}
	assert.LessOrEqual(t, len(s.history), moodHistoryLimit)
}
