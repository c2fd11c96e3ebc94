package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"hamkae-backend/internal/common"
)

// Judge verdict results.
const (
	VerdictApproved = "approved"
	VerdictRejected = "rejected"
)

// Verdict is the judge's answer for one before/after photo pair.
type Verdict struct {
	Result     string  `json:"result"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
	Raw        string  `json:"-"` // Full model output, persisted for auditing
}

// Approved reports whether the judge accepted the cleanup.
func (v *Verdict) Approved() bool {
	return v.Result == VerdictApproved
}

// JudgeClient calls an OpenAI-compatible chat completions endpoint with
// the before and after images and asks for a structured verdict.
//
// Failure handling is asymmetric on purpose: a response we cannot parse
// is a rejection (fail closed, the model answered and we will not guess
// in the user's favor), while transport trouble is ErrJudgeUnavailable
// so the caller can retry later without burning the photo.
type JudgeClient struct {
	apiURL string
	apiKey string
	model  string
	client *http.Client
	images ImageStore
}

// NewJudgeClient creates a judge client.
func NewJudgeClient(apiURL, apiKey, model string, timeout time.Duration, images ImageStore) *JudgeClient {
	return &JudgeClient{
		apiURL: apiURL,
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: timeout},
		images: images,
	}
}

const judgeSystemPrompt = `You are a strict photo verification judge for a litter cleanup program.
You are given two photos of the same location: the first BEFORE a reported cleanup, the second AFTER.
Decide whether the litter visible in the first photo has genuinely been cleaned up in the second.
Respond with a JSON object only, no other text:
{"result": "approved" or "rejected", "confidence": number between 0 and 1, "reason": "one short sentence"}`

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Judge sends the photo pair to the model and returns its verdict.
func (c *JudgeClient) Judge(ctx context.Context, beforeRef, afterRef, locationHint string) (*Verdict, error) {
	beforePart, err := c.imagePart(beforeRef)
	if err != nil {
		return nil, err
	}
	afterPart, err := c.imagePart(afterRef)
	if err != nil {
		return nil, err
	}

	userText := "Verify this cleanup. First image is BEFORE, second is AFTER."
	if locationHint != "" {
		userText += " Location: " + locationHint
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: []contentPart{{Type: "text", Text: judgeSystemPrompt}}},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: userText},
				beforePart,
				afterPart,
			}},
		},
		Temperature:    0.3,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal judge request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build judge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("judge request failed: %w: %v", common.ErrJudgeUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("judge returned status %d: %w", resp.StatusCode, common.ErrJudgeUnavailable)
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, fmt.Errorf("failed to decode judge envelope: %w: %v", common.ErrJudgeUnavailable, err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("judge returned no choices: %w", common.ErrJudgeUnavailable)
	}

	return parseVerdict(chat.Choices[0].Message.Content), nil
}

// imagePart loads an image and wraps it as a base64 data URL content part.
func (c *JudgeClient) imagePart(ref string) (contentPart, error) {
	data, err := c.images.Fetch(ref)
	if err != nil {
		return contentPart{}, fmt.Errorf("failed to load image %s: %w", ref, err)
	}

	mime := "image/jpeg"
	if strings.HasSuffix(ref, ".png") {
		mime = "image/png"
	}

	url := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
	return contentPart{Type: "image_url", ImageURL: &imageURL{URL: url}}, nil
}

// parseVerdict turns the model's text into a Verdict. Anything we
// cannot understand becomes a rejection with the raw output preserved.
func parseVerdict(content string) *Verdict {
	raw := strings.TrimSpace(content)

	// Some models wrap JSON in a markdown fence despite instructions.
	cleaned := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(
		strings.TrimSpace(strings.TrimPrefix(raw, "```json")), "```"), "```"))

	var v Verdict
	if err := json.Unmarshal([]byte(cleaned), &v); err != nil {
		return &Verdict{
			Result:     VerdictRejected,
			Confidence: 0,
			Reason:     "judge response was not valid JSON",
			Raw:        raw,
		}
	}

	v.Result = strings.ToLower(strings.TrimSpace(v.Result))
	if v.Result != VerdictApproved && v.Result != VerdictRejected {
		return &Verdict{
			Result:     VerdictRejected,
			Confidence: 0,
			Reason:     fmt.Sprintf("judge returned unknown result %q", v.Result),
			Raw:        raw,
		}
	}

	if v.Confidence < 0 {
		v.Confidence = 0
	}
	if v.Confidence > 1 {
		v.Confidence = 1
	}

	v.Raw = raw
	return &v
}
