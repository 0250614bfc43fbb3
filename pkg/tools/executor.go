package tools

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// Intent patterns, checked in order. Weather, crypto and definition
// capture a value from the message; the rest are parameterless.
var (
	weatherPattern    = regexp.MustCompile(`(weather|temperature|forecast|hot|cold|sunny|rainy|climate)\s+(in|at|for)?\s+([a-zA-Z\s]+)`)
	jokePattern       = regexp.MustCompile(`(tell|give|say)\s+(me\s+)?(a\s+)?(joke|funny)`)
	quotePattern      = regexp.MustCompile(`(quote|inspiration|motivate|wisdom)`)
	factPattern       = regexp.MustCompile(`(fact|trivia|did you know|interesting)`)
	advicePattern     = regexp.MustCompile(`(advice|tip|suggestion|recommend)`)
	activityPattern   = regexp.MustCompile(`(bored|activity|something to do|what should i do)`)
	cryptoPattern     = regexp.MustCompile(`(bitcoin|ethereum|crypto|btc|eth)\s+(price)?`)
	definitionPattern = regexp.MustCompile(`(define|definition|meaning|what (is|does))\s+(.+)`)
)

// Executor detects tool intents in chat messages and runs the matching
// API lookup. A message with no intent, or a lookup that fails, is left
// for the language model to answer.
type Executor struct {
	client *Client
	logger zerolog.Logger
}

// NewExecutor creates a tool executor over the given API client.
func NewExecutor(client *Client, logger zerolog.Logger) *Executor {
	return &Executor{
		client: client,
		logger: logger.With().Str("component", "tools").Logger(),
	}
}

// ProcessMessage runs the tool matching the message's intent and returns
// the formatted result. ok is false when no intent matched or the lookup
// failed; either way the message should proceed to the model unchanged.
func (e *Executor) ProcessMessage(ctx context.Context, message string) (string, bool) {
	intent, value := detectIntent(message)
	if intent == "" {
		return "", false
	}

	result, err := e.execute(ctx, intent, value)
	if err != nil {
		e.logger.Warn().Err(err).Str("intent", intent).Msg("Tool lookup failed")
		return "", false
	}

	return result, true
}

// detectIntent classifies the message. The returned value is the
// captured argument (location, coin, word) where the intent takes one.
func detectIntent(message string) (intent, value string) {
	lower := strings.ToLower(message)

	if m := weatherPattern.FindStringSubmatch(lower); m != nil {
		location := strings.TrimSpace(m[3])
		if location == "" {
			location = "auto"
		}
		return "weather", location
	}
	if jokePattern.MatchString(lower) {
		return "joke", ""
	}
	if quotePattern.MatchString(lower) {
		return "quote", ""
	}
	if factPattern.MatchString(lower) {
		return "fact", ""
	}
	if advicePattern.MatchString(lower) {
		return "advice", ""
	}
	if activityPattern.MatchString(lower) {
		return "activity", ""
	}
	if cryptoPattern.MatchString(lower) {
		coin := "bitcoin"
		if strings.Contains(lower, "ethereum") || strings.Contains(lower, "eth") {
			coin = "ethereum"
		}
		return "crypto", coin
	}
	if m := definitionPattern.FindStringSubmatch(lower); m != nil {
		if word := strings.TrimSpace(m[3]); word != "" {
			return "definition", word
		}
	}

	return "", ""
}

func (e *Executor) execute(ctx context.Context, intent, value string) (string, error) {
	switch intent {
	case "weather":
		w, err := e.client.Weather(ctx, value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(`Weather for %s:
- Temperature: %s°C (%s°F)
- Conditions: %s
- Feels like: %s°C
- Humidity: %s%%
- Wind: %s km/h`, w.Location, w.TempC, w.TempF, w.Description, w.FeelsLikeC, w.Humidity, w.WindSpeedKmh), nil

	case "joke":
		j, err := e.client.Joke(ctx)
		if err != nil {
			return "", err
		}
		if j.Joke != "" {
			return fmt.Sprintf("😄 %s", j.Joke), nil
		}
		return fmt.Sprintf("😄 %s\n\n%s", j.Setup, j.Delivery), nil

	case "quote":
		q, err := e.client.Quote(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%q\n- %s", q.Text, q.Author), nil

	case "fact":
		fact, err := e.client.Fact(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("💡 %s", fact), nil

	case "advice":
		advice, err := e.client.Advice(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("💭 %s", advice), nil

	case "activity":
		a, err := e.client.Activity(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("🎯 %s (%s)", a.Activity, a.Type), nil

	case "crypto":
		p, err := e.client.CryptoPrice(ctx, value)
		if err != nil {
			return "", err
		}
		trend := "📉"
		if p.Change24h > 0 {
			trend = "📈"
		}
		return fmt.Sprintf(`💰 %s Price:
- USD: $%.2f
- INR: ₹%.2f
- 24h Change: %s %.2f%%`, capitalize(p.Coin), p.PriceUSD, p.PriceINR, trend, p.Change24h), nil

	case "definition":
		d, err := e.client.Definition(ctx, value)
		if err != nil {
			return "", err
		}
		example := ""
		if d.Example != "" {
			example = fmt.Sprintf("\nExample: %s", d.Example)
		}
		return fmt.Sprintf("📖 %s (%s):\n%s%s", d.Word, d.PartOfSpeech, d.Definition, example), nil

	default:
		return "", fmt.Errorf("unknown intent: %s", intent)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
