// Package tools answers factual chat requests (weather, jokes, quotes,
// crypto prices, word definitions) from free public APIs before the
// language model runs. Tool execution is best-effort: any failure means
// the message is handled as ordinary conversation.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Default endpoints. All of them are keyless.
const (
	defaultWeatherURL    = "https://wttr.in"
	defaultJokesURL      = "https://v2.jokeapi.dev/joke"
	defaultQuotesURL     = "https://zenquotes.io/api"
	defaultFactsURL      = "https://uselessfacts.jsph.pl/api/v2/facts"
	defaultAdviceURL     = "https://api.adviceslip.com/advice"
	defaultActivitiesURL = "https://www.boredapi.com/api/activity"
	defaultCryptoURL     = "https://api.coingecko.com/api/v3"
	defaultDictionaryURL = "https://api.dictionaryapi.dev/api/v2/entries/en"
)

// ClientConfig overrides individual API endpoints. Empty fields keep
// the public defaults.
type ClientConfig struct {
	WeatherURL    string
	JokesURL      string
	QuotesURL     string
	FactsURL      string
	AdviceURL     string
	ActivitiesURL string
	CryptoURL     string
	DictionaryURL string
	Timeout       time.Duration
}

// Client calls the external APIs behind the chat tools.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
}

// NewClient creates a tools API client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.WeatherURL == "" {
		cfg.WeatherURL = defaultWeatherURL
	}
	if cfg.JokesURL == "" {
		cfg.JokesURL = defaultJokesURL
	}
	if cfg.QuotesURL == "" {
		cfg.QuotesURL = defaultQuotesURL
	}
	if cfg.FactsURL == "" {
		cfg.FactsURL = defaultFactsURL
	}
	if cfg.AdviceURL == "" {
		cfg.AdviceURL = defaultAdviceURL
	}
	if cfg.ActivitiesURL == "" {
		cfg.ActivitiesURL = defaultActivitiesURL
	}
	if cfg.CryptoURL == "" {
		cfg.CryptoURL = defaultCryptoURL
	}
	if cfg.DictionaryURL == "" {
		cfg.DictionaryURL = defaultDictionaryURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Weather describes current conditions at a location.
type Weather struct {
	Location     string
	TempC        string
	TempF        string
	Description  string
	FeelsLikeC   string
	Humidity     string
	WindSpeedKmh string
}

// Weather returns current conditions; location "auto" resolves by IP.
func (c *Client) Weather(ctx context.Context, location string) (Weather, error) {
	var raw struct {
		CurrentCondition []struct {
			TempC       string `json:"temp_C"`
			TempF       string `json:"temp_F"`
			FeelsLikeC  string `json:"FeelsLikeC"`
			Humidity    string `json:"humidity"`
			Windspeed   string `json:"windspeedKmph"`
			WeatherDesc []struct {
				Value string `json:"value"`
			} `json:"weatherDesc"`
		} `json:"current_condition"`
		NearestArea []struct {
			AreaName []struct {
				Value string `json:"value"`
			} `json:"areaName"`
		} `json:"nearest_area"`
	}

	endpoint := fmt.Sprintf("%s/%s?format=j1", c.cfg.WeatherURL, url.PathEscape(location))
	if err := c.getJSON(ctx, endpoint, &raw); err != nil {
		return Weather{}, err
	}
	if len(raw.CurrentCondition) == 0 || len(raw.CurrentCondition[0].WeatherDesc) == 0 {
		return Weather{}, fmt.Errorf("weather response missing current conditions")
	}

	cur := raw.CurrentCondition[0]
	w := Weather{
		Location:     location,
		TempC:        cur.TempC,
		TempF:        cur.TempF,
		Description:  cur.WeatherDesc[0].Value,
		FeelsLikeC:   cur.FeelsLikeC,
		Humidity:     cur.Humidity,
		WindSpeedKmh: cur.Windspeed,
	}
	if len(raw.NearestArea) > 0 && len(raw.NearestArea[0].AreaName) > 0 {
		w.Location = raw.NearestArea[0].AreaName[0].Value
	}

	return w, nil
}

// Joke is either a one-liner (Joke set) or a setup/delivery pair.
type Joke struct {
	Joke     string
	Setup    string
	Delivery string
}

// Joke fetches a random safe-mode joke.
func (c *Client) Joke(ctx context.Context) (Joke, error) {
	var raw struct {
		Type     string `json:"type"`
		Joke     string `json:"joke"`
		Setup    string `json:"setup"`
		Delivery string `json:"delivery"`
	}

	if err := c.getJSON(ctx, c.cfg.JokesURL+"/Any?safe-mode", &raw); err != nil {
		return Joke{}, err
	}

	if raw.Type == "single" {
		return Joke{Joke: raw.Joke}, nil
	}
	return Joke{Setup: raw.Setup, Delivery: raw.Delivery}, nil
}

// Quote is an inspirational quote with attribution.
type Quote struct {
	Text   string
	Author string
}

// Quote fetches a random inspirational quote.
func (c *Client) Quote(ctx context.Context) (Quote, error) {
	var raw []struct {
		Q string `json:"q"`
		A string `json:"a"`
	}

	if err := c.getJSON(ctx, c.cfg.QuotesURL+"/random", &raw); err != nil {
		return Quote{}, err
	}
	if len(raw) == 0 {
		return Quote{}, fmt.Errorf("empty quote response")
	}

	return Quote{Text: raw[0].Q, Author: raw[0].A}, nil
}

// Fact fetches a random fun fact.
func (c *Client) Fact(ctx context.Context) (string, error) {
	var raw struct {
		Text string `json:"text"`
	}

	if err := c.getJSON(ctx, c.cfg.FactsURL+"/random", &raw); err != nil {
		return "", err
	}
	return raw.Text, nil
}

// Advice fetches a random piece of advice.
func (c *Client) Advice(ctx context.Context) (string, error) {
	var raw struct {
		Slip struct {
			Advice string `json:"advice"`
		} `json:"slip"`
	}

	if err := c.getJSON(ctx, c.cfg.AdviceURL, &raw); err != nil {
		return "", err
	}
	return raw.Slip.Advice, nil
}

// Activity is a suggestion for something to do.
type Activity struct {
	Activity string
	Type     string
}

// Activity fetches a random activity suggestion.
func (c *Client) Activity(ctx context.Context) (Activity, error) {
	var raw struct {
		Activity string `json:"activity"`
		Type     string `json:"type"`
	}

	if err := c.getJSON(ctx, c.cfg.ActivitiesURL, &raw); err != nil {
		return Activity{}, err
	}
	return Activity{Activity: raw.Activity, Type: raw.Type}, nil
}

// CryptoPrice is a coin's spot price and 24h movement.
type CryptoPrice struct {
	Coin      string
	PriceUSD  float64
	PriceINR  float64
	Change24h float64
}

// CryptoPrice fetches the current price of a coin by CoinGecko id.
func (c *Client) CryptoPrice(ctx context.Context, coin string) (CryptoPrice, error) {
	endpoint := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd,inr&include_24hr_change=true",
		c.cfg.CryptoURL, url.QueryEscape(coin))

	var raw map[string]struct {
		USD       float64 `json:"usd"`
		INR       float64 `json:"inr"`
		Change24h float64 `json:"usd_24h_change"`
	}

	if err := c.getJSON(ctx, endpoint, &raw); err != nil {
		return CryptoPrice{}, err
	}

	entry, ok := raw[coin]
	if !ok {
		return CryptoPrice{}, fmt.Errorf("unknown coin: %s", coin)
	}

	return CryptoPrice{
		Coin:      coin,
		PriceUSD:  entry.USD,
		PriceINR:  entry.INR,
		Change24h: entry.Change24h,
	}, nil
}

// Definition is a dictionary entry for one word.
type Definition struct {
	Word         string
	PartOfSpeech string
	Definition   string
	Example      string
}

// Definition looks up an English word.
func (c *Client) Definition(ctx context.Context, word string) (Definition, error) {
	var raw []struct {
		Word     string `json:"word"`
		Meanings []struct {
			PartOfSpeech string `json:"partOfSpeech"`
			Definitions  []struct {
				Definition string `json:"definition"`
				Example    string `json:"example"`
			} `json:"definitions"`
		} `json:"meanings"`
	}

	if err := c.getJSON(ctx, c.cfg.DictionaryURL+"/"+url.PathEscape(word), &raw); err != nil {
		return Definition{}, err
	}
	if len(raw) == 0 || len(raw[0].Meanings) == 0 || len(raw[0].Meanings[0].Definitions) == 0 {
		return Definition{}, fmt.Errorf("no definition found for %q", word)
	}

	meaning := raw[0].Meanings[0]
	return Definition{
		Word:         raw[0].Word,
		PartOfSpeech: meaning.PartOfSpeech,
		Definition:   meaning.Definitions[0].Definition,
		Example:      meaning.Definitions[0].Example,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
