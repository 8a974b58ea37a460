package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"drip-rating-server/config"
	"drip-rating-server/models"
	"drip-rating-server/types"
	"drip-rating-server/utils"
)

// stylistPrompt instructs the model to return a single JSON object with the
// evaluative fields of a rating.
const stylistPrompt = `You are a creative fashion stylist and critic who gives short, honest, and improvement-focused feedback.
Your goal is to help the person improve their outfit, not to flatter or insult.

Speak like a calm and confident stylist who understands trends but explains them simply.
Use clear, basic English only. Avoid slang, hype words, or complex terms.
Focus on what works, what doesn't, and what could make the outfit stronger.

CRUCIAL RULES:
1. Judge each outfit within its own style category (e.g., Streetwear, Y2K, Minimalist, Formal).
   A perfect outfit in any category can score 10/10. Do not favor any one style.

2. Use the full 1.0-10.0 scale with decimals (e.g., 6.4, 7.8) for realistic accuracy:
   - 9.0-10.0: excellent, cohesive, confident styling
   - 8.0-8.9: very good, stylish, small tweaks possible
   - 7.0-7.9: good, clear effort, needs more shape or detail
   - 6.0-6.9: decent, works but lacks creativity or balance
   - below 6.0: weak coordination or unclear theme

3. "look_comment" must be simple, direct English (under 25 words).
   - One positive, one improvement.
   - AVOID complex/praise words: "cohesive," "elevated," "nice," "flattering."
   - USE clear words: "fit is clean," "looks messy," "shape is good."

4. Use one clear style label only (no combined or slashed categories).

5. Give 2-3 specific suggestions.
   - Sug 1: Fix the main weakness (e.g., "Tuck in the shirt").
   - Sug 2: Creative upgrade. MUST be (A) a new layer, (B) a new texture/material, OR (C) a style mix (e.g., "add a formal blazer").
   - Sug 3: A final detail (e.g., "add a silver chain").
   - No vague tips ("add color," "improve fit").

6. SPECIFICITY: Suggestions MUST be specific. Give a color, material, OR pattern.
   - BAD: "Add a jacket."
   - GOOD: "Add a dark green bomber jacket."
   - BAD: "Try different pants."
   - GOOD: "Try black corduroy pants."

7. Keep all sentences short and clear. Avoid praise words like "amazing," "great," or "awesome." Focus on helpful feedback.

Your response MUST be a single valid JSON object in this exact structure:

{
  "outfit_vibe": "<Single style category>",
  "look_score": <number 0.0-10.0>,
  "look_comment": "<One short sentence with what works and what can improve.>",
  "color_score": <number 0.0-10.0>,
  "color_comment": "<One short sentence about how colors work or can improve.>",
  "suggestions": [
    "<Improvement idea 1>",
    "<Improvement idea 2>",
    "<Optional idea 3>"
  ],
  "observations": "<Brief note on styling impact of physique, posture, or hairstyle.>"
}
`

// AIService calls the Gemini scoring endpoint with retry, timeout and error
// classification. One logical RateOutfit call retries transient failures up
// to the configured bound with doubling backoff; authorization, payload and
// response-format failures are terminal and surface immediately.
type AIService struct {
	apiKey         string
	model          string
	baseURL        string
	client         *http.Client
	policy         utils.RetryPolicy
	overallTimeout time.Duration
	maxPayload     int
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// NewAIService builds the client from the loaded configuration.
func NewAIService() *AIService {
	cfg := config.AppConfig.Gemini
	if cfg.APIKey == "" {
		log.Printf("⚠️ GEMINI_API_KEY not set, outfit scoring will be unavailable")
	}

	return &AIService{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: "https://generativelanguage.googleapis.com",
		client: &http.Client{
			Timeout: cfg.AttemptTimeout,
		},
		policy: utils.RetryPolicy{
			MaxAttempts: cfg.MaxAttempts,
			BaseDelay:   cfg.BaseDelay,
			Retryable:   types.IsRetryable,
		},
		overallTimeout: cfg.OverallTimeout,
		maxPayload:     cfg.MaxPayloadSize,
	}
}

// RateOutfit sends the normalized image to the scoring model and returns the
// evaluative fields. callerToken is the bearer credential of the active
// session; an empty token fails fast without any network call.
func (ai *AIService) RateOutfit(ctx context.Context, callerToken string, img *utils.NormalizedImage) (*models.RatingResult, error) {
	if callerToken == "" {
		return nil, types.NewError(types.KindUnauthorized, "missing bearer credential", nil)
	}
	if ai.apiKey == "" {
		return nil, types.NewError(types.KindUnauthorized, "scoring API key not configured", nil)
	}
	if ai.maxPayload > 0 && img.EncodedSize() > ai.maxPayload {
		return nil, types.NewError(types.KindValidation,
			fmt.Sprintf("image payload %d exceeds %d byte limit", img.EncodedSize(), ai.maxPayload), nil)
	}

	request := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{
				{Text: stylistPrompt},
				{InlineData: &inlineData{MimeType: img.MimeType, Data: img.Base64}},
			}},
		},
		GenerationConfig: generationConfig{ResponseMimeType: "application/json"},
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, types.NewError(types.KindValidation, "could not encode scoring request", err)
	}

	// Hard wall-clock bound over all attempts
	ctx, cancel := context.WithTimeout(ctx, ai.overallTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", ai.baseURL, ai.model, ai.apiKey)

	var rawText string
	err = ai.policy.Do(ctx, func() error {
		text, attemptErr := ai.callOnce(ctx, url, jsonData)
		if attemptErr != nil {
			return attemptErr
		}
		rawText = text
		return nil
	})
	if err != nil {
		return nil, err
	}

	rating, err := parseRatingText(rawText)
	if err != nil {
		log.Printf("❌ Unparseable scoring response: %.200s", rawText)
		return nil, err
	}
	return rating, nil
}

// callOnce performs a single attempt and classifies the outcome.
func (ai *AIService) callOnce(ctx context.Context, url string, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", types.NewError(types.KindValidation, "could not build scoring request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ai.client.Do(req)
	if err != nil {
		// Connection failures and attempt timeouts stay retryable while
		// attempts remain
		return "", types.NewError(types.KindTransient, "scoring endpoint unreachable", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", types.NewError(types.KindTransient, "could not read scoring response", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to envelope parsing below
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", types.NewError(types.KindUnauthorized, "scoring credential rejected", fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode == http.StatusRequestEntityTooLarge:
		return "", types.NewError(types.KindValidation, "image payload too large", fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode >= 500:
		return "", types.NewError(types.KindTransient, "scoring endpoint error", fmt.Errorf("status %d: %.200s", resp.StatusCode, respBody))
	default:
		return "", types.NewError(types.KindValidation, "scoring request rejected", fmt.Errorf("status %d: %.200s", resp.StatusCode, respBody))
	}

	var envelope geminiResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return "", types.NewError(types.KindResponseFormat, "scoring response is not JSON", err)
	}
	if len(envelope.Candidates) == 0 || len(envelope.Candidates[0].Content.Parts) == 0 {
		return "", types.NewError(types.KindResponseFormat, "scoring response has no candidates", nil)
	}
	return envelope.Candidates[0].Content.Parts[0].Text, nil
}

// parseRatingText extracts the rating object from the model's text. Models
// occasionally wrap the JSON in prose or code fences, so the first balanced
// object substring is located before giving up.
func parseRatingText(text string) (*models.RatingResult, error) {
	object, ok := extractJSONObject(text)
	if !ok {
		return nil, types.NewError(types.KindResponseFormat, "no JSON object in scoring response", nil)
	}

	var rating models.RatingResult
	if err := json.Unmarshal([]byte(object), &rating); err != nil {
		return nil, types.NewError(types.KindResponseFormat, "malformed rating object", err)
	}
	if strings.TrimSpace(rating.OutfitVibe) == "" {
		return nil, types.NewError(types.KindResponseFormat, "rating object missing outfit_vibe", nil)
	}
	// The schema enforces 0-10 scores; an out-of-range value would pass the
	// optimistic insert and then fail every durable write, so reject it here
	if !scoreInRange(rating.LookScore) || !scoreInRange(rating.ColorScore) {
		return nil, types.NewError(types.KindResponseFormat,
			fmt.Sprintf("rating scores out of range: look=%v color=%v", rating.LookScore, rating.ColorScore), nil)
	}
	if rating.Suggestions == nil {
		rating.Suggestions = []string{}
	}
	return &rating, nil
}

func scoreInRange(v float64) bool {
	return v >= 0 && v <= 10
}

// extractJSONObject returns the first balanced {...} substring of s,
// ignoring braces inside JSON strings.
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
