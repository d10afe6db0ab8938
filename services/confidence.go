package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"google.golang.org/genai"
)

// NeutralConfidence is the fallback score when the judge cannot produce a
// usable verdict. 50 reads as a draw.
const NeutralConfidence = 50

const judgeSystemPrompt = `You are a strictly neutral and objective judge.
Read the conversation between the user and the assistant (AI), and determine
which side is more persuasive.

Return a single integer between 0 and 100:
  - 0 means the AI's argument is overwhelmingly more convincing.
  - 25 means the AI's argument is rather more convincing.
  - 50 means it's a perfect draw.
  - 75 means the user's argument is rather more convincing.
  - 100 means the user's argument is overwhelmingly more convincing.

The goal is to have a discussion of at least 5 messages (where you choose the winner if score is 100 or 0).
Provide ONLY the integer as the result, without additional commentary. Aim to provide values in between of 0-100.`

const judgeClosingPrompt = `Based on the above conversation, please provide a single integer
(in range from 0 to 100) to reflect who was more convincing.
Do not include any explanation—only the integer.`

// JudgeModel produces a raw persuasion verdict for a transcript.
type JudgeModel interface {
	Evaluate(ctx context.Context, transcript []Turn) (int, error)
}

// ConfidenceScorer is advisory telemetry, not game logic: every failure
// degrades to NeutralConfidence and nothing ever propagates to the caller.
type ConfidenceScorer struct {
	judge JudgeModel
}

func NewConfidenceScorer(judge JudgeModel) *ConfidenceScorer {
	return &ConfidenceScorer{judge: judge}
}

// Score never fails; any judge error or out-of-range verdict yields the
// neutral default.
func (s *ConfidenceScorer) Score(ctx context.Context, transcript []Turn) int {
	level, err := s.judge.Evaluate(ctx, transcript)
	if err != nil {
		log.Printf("Confidence evaluation failed, defaulting to %d: %v", NeutralConfidence, err)
		return NeutralConfidence
	}
	if level < 0 || level > 100 {
		log.Printf("Confidence %d out of range, defaulting to %d", level, NeutralConfidence)
		return NeutralConfidence
	}
	return level
}

// GeminiJudge implements JudgeModel with a JSON-schema constrained response.
type GeminiJudge struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func NewGeminiJudge(client *genai.Client, model string, timeout time.Duration) *GeminiJudge {
	if model == "" {
		model = defaultJudgeModel
	}
	return &GeminiJudge{client: client, model: model, timeout: timeout}
}

func (g *GeminiJudge) Evaluate(ctx context.Context, transcript []Turn) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	contents := make([]*genai.Content, 0, len(transcript)+1)
	for _, t := range transcript {
		contents = append(contents, genai.NewContentFromText(t.Text, t.Role))
	}
	contents = append(contents, genai.NewContentFromText(judgeClosingPrompt, genai.RoleUser))

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(judgeSystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0),
		ResponseMIMEType:  "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"level": {Type: genai.TypeInteger},
			},
			Required: []string{"level"},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return 0, err
	}
	return parseConfidenceLevel(cleanModelOutput(resp.Text()))
}

// parseConfidenceLevel decodes the judge's {"level": n} payload and
// validates the range.
func parseConfidenceLevel(raw string) (int, error) {
	var verdict struct {
		Level int `json:"level"`
	}
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		return 0, fmt.Errorf("malformed judge verdict %q: %w", raw, err)
	}
	if verdict.Level < 0 || verdict.Level > 100 {
		return 0, fmt.Errorf("judge verdict %d out of range", verdict.Level)
	}
	return verdict.Level, nil
}
