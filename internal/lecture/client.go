package lecture

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/studyloop/lecture-gateway/internal/config"
	"github.com/studyloop/lecture-gateway/internal/observability"
	"google.golang.org/genai"
)

// Client generates structured bilingual lectures via the Gemini API using a
// JSON response schema, so the model's output parses directly into Lecture.
type Client struct {
	client        *genai.Client
	model         string
	primaryLang   string
	secondaryLang string
	logger        zerolog.Logger
}

// NewClient creates a lecture generator backed by the Gen AI SDK.
func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Client{
		client:        client,
		model:         cfg.LectureModel,
		primaryLang:   cfg.PrimaryLanguage,
		secondaryLang: cfg.SecondaryLanguage,
		logger:        observability.WithComponent("lecture"),
	}, nil
}

// Generate structures the given text or document into a bilingual lecture.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*Lecture, error) {
	start := time.Now()

	parts := []*genai.Part{{Text: buildPrompt(c.primaryLang, c.secondaryLang)}}
	switch {
	case req.Document != nil:
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: req.MimeType, Data: req.Document},
		})
	case req.Text != "":
		parts = append(parts, &genai.Part{Text: req.Text})
	default:
		return nil, fmt.Errorf("generate request carries neither text nor document")
	}

	contents := []*genai.Content{{Role: "user", Parts: parts}}
	genCfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   lectureSchema(),
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, genCfg)
	if err != nil {
		observability.RecordLectureRequest(false, start)
		observability.RecordError("remote_call", "lecture")
		return nil, fmt.Errorf("lecture generation failed: %w", err)
	}

	raw := firstText(resp)
	if raw == "" {
		observability.RecordLectureRequest(false, start)
		return nil, fmt.Errorf("lecture generation returned no content")
	}

	lec, err := parseLecture([]byte(raw))
	if err != nil {
		observability.RecordLectureRequest(false, start)
		observability.RecordError("malformed_response", "lecture")
		return nil, err
	}

	lec.ID = uuid.New().String()
	lec.CreatedAt = time.Now().UTC()

	observability.RecordLectureRequest(true, start)
	c.logger.Info().
		Str("lecture_id", lec.ID).
		Int("sections", len(lec.Sections)).
		Dur("latency", time.Since(start)).
		Msg("Lecture generated")

	return lec, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.Text != "" {
				return part.Text
			}
		}
	}
	return ""
}

// parseLecture unmarshals and validates a model response body.
func parseLecture(raw []byte) (*Lecture, error) {
	var lec Lecture
	if err := json.Unmarshal(raw, &lec); err != nil {
		return nil, fmt.Errorf("failed to parse lecture response: %w", err)
	}
	if err := lec.Validate(); err != nil {
		return nil, fmt.Errorf("lecture response is incomplete: %w", err)
	}
	return &lec, nil
}

func buildPrompt(primary, secondary string) string {
	return fmt.Sprintf(`You are a university lecturer. Structure the provided material into a lecture.

Produce a title, a short overview suitable for reading aloud, and ordered sections. Each section has subsections that teach the material and exam questions that test it.

Every text field must be present in two languages: "primary" is %s and "secondary" is %s. Keep the overview under 120 words per language.`, primary, secondary)
}

// lectureSchema describes the Lecture JSON shape so the model's response
// needs no repair before unmarshalling.
func lectureSchema() *genai.Schema {
	bilingual := func(desc string) *genai.Schema {
		return &genai.Schema{
			Type:        genai.TypeObject,
			Description: desc,
			Properties: map[string]*genai.Schema{
				"primary":   {Type: genai.TypeString},
				"secondary": {Type: genai.TypeString},
			},
			Required: []string{"primary", "secondary"},
		}
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":    bilingual("Lecture title"),
			"overview": bilingual("Spoken-friendly lecture overview"),
			"sections": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"heading": bilingual("Section heading"),
						"subsections": {
							Type: genai.TypeArray,
							Items: &genai.Schema{
								Type: genai.TypeObject,
								Properties: map[string]*genai.Schema{
									"heading": bilingual("Subsection heading"),
									"body":    bilingual("Subsection body"),
								},
								Required: []string{"heading", "body"},
							},
						},
						"examQuestions": {
							Type: genai.TypeArray,
							Items: &genai.Schema{
								Type: genai.TypeObject,
								Properties: map[string]*genai.Schema{
									"question": bilingual("Exam question"),
									"answer":   bilingual("Model answer"),
								},
								Required: []string{"question", "answer"},
							},
						},
					},
					Required: []string{"heading", "subsections", "examQuestions"},
				},
			},
		},
		Required: []string{"title", "overview", "sections"},
	}
}
