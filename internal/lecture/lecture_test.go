package lecture

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func validLectureJSON() string {
	return `{
		"title": {"primary": "Photosynthesis", "secondary": "光合成"},
		"overview": {"primary": "An overview.", "secondary": "概要。"},
		"sections": [
			{
				"heading": {"primary": "Light reactions", "secondary": "明反応"},
				"subsections": [
					{
						"heading": {"primary": "Chlorophyll", "secondary": "クロロフィル"},
						"body": {"primary": "Absorbs light.", "secondary": "光を吸収する。"}
					}
				],
				"examQuestions": [
					{
						"question": {"primary": "What absorbs light?", "secondary": "何が光を吸収しますか？"},
						"answer": {"primary": "Chlorophyll.", "secondary": "クロロフィル。"}
					}
				]
			}
		]
	}`
}

func TestParseLecture(t *testing.T) {
	lec, err := parseLecture([]byte(validLectureJSON()))
	if err != nil {
		t.Fatalf("parseLecture failed: %v", err)
	}

	if lec.Title.Primary != "Photosynthesis" {
		t.Errorf("Expected title 'Photosynthesis', got %q", lec.Title.Primary)
	}
	if lec.Title.Secondary != "光合成" {
		t.Errorf("Expected secondary title '光合成', got %q", lec.Title.Secondary)
	}
	if len(lec.Sections) != 1 {
		t.Fatalf("Expected 1 section, got %d", len(lec.Sections))
	}
	if len(lec.Sections[0].Subsections) != 1 {
		t.Errorf("Expected 1 subsection, got %d", len(lec.Sections[0].Subsections))
	}
	if len(lec.Sections[0].ExamQuestions) != 1 {
		t.Errorf("Expected 1 exam question, got %d", len(lec.Sections[0].ExamQuestions))
	}
}

func TestParseLecture_MalformedJSON(t *testing.T) {
	_, err := parseLecture([]byte("{not json"))
	if err == nil {
		t.Error("Expected error for malformed JSON")
	}
}

func TestParseLecture_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"no title", `{"overview": {"primary": "x"}, "sections": [{}]}`},
		{"no overview", `{"title": {"primary": "x"}, "sections": [{}]}`},
		{"no sections", `{"title": {"primary": "x"}, "overview": {"primary": "y"}, "sections": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseLecture([]byte(tt.json)); err == nil {
				t.Errorf("Expected validation error for %s", tt.name)
			}
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt("English", "Japanese")

	if !strings.Contains(prompt, "English") {
		t.Error("Prompt should name the primary language")
	}
	if !strings.Contains(prompt, "Japanese") {
		t.Error("Prompt should name the secondary language")
	}
	if !strings.Contains(prompt, "overview") {
		t.Error("Prompt should ask for an overview")
	}
}

func TestLectureSchema(t *testing.T) {
	schema := lectureSchema()

	for _, field := range []string{"title", "overview", "sections"} {
		if _, ok := schema.Properties[field]; !ok {
			t.Errorf("Schema missing %q property", field)
		}
	}
	if len(schema.Required) != 3 {
		t.Errorf("Expected 3 required top-level fields, got %d", len(schema.Required))
	}

	sections := schema.Properties["sections"]
	if sections.Items == nil {
		t.Fatal("Sections schema has no items")
	}
	for _, field := range []string{"heading", "subsections", "examQuestions"} {
		if _, ok := sections.Items.Properties[field]; !ok {
			t.Errorf("Section schema missing %q property", field)
		}
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	lec, err := parseLecture([]byte(validLectureJSON()))
	if err != nil {
		t.Fatalf("parseLecture failed: %v", err)
	}
	lec.ID = "test-id"

	if err := store.Put(ctx, lec); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get(ctx, "test-id")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Title.Primary != lec.Title.Primary {
		t.Errorf("Expected title %q, got %q", lec.Title.Primary, got.Title.Primary)
	}

	_, err = store.Get(ctx, "missing-id")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing id, got %v", err)
	}
}

func TestLectureKey(t *testing.T) {
	if got := lectureKey("abc"); got != "lecture:abc" {
		t.Errorf("Expected 'lecture:abc', got %q", got)
	}
}
