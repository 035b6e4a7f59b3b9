package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"document-gpt/internal/models"
)

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Result is a best-effort location/quantity extraction. Status is 1 on
// success and -1 when nothing could be extracted.
type Result struct {
	Status   int    `json:"status"`
	Location string `json:"location"`
	Quantity string `json:"quantity"`
}

var failed = Result{Status: -1, Location: "-1", Quantity: "-1"}

// Extract asks the model for a location and quantity mentioned in the
// question. Any failure, including malformed model output, yields the
// failed result; this never errors.
func Extract(ctx context.Context, gen Generator, question string) Result {
	prompt := fmt.Sprintf(models.ExtractPromptTemplate, question)
	out, err := gen.Generate(ctx, prompt)
	if err != nil {
		return failed
	}

	payload := jsonPayload(out)
	if payload == "" {
		return failed
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return failed
	}

	location, ok1 := fields["location"]
	quantity, ok2 := fields["quantity"]
	if !ok1 || !ok2 {
		return failed
	}
	return Result{
		Status:   1,
		Location: fmt.Sprint(location),
		Quantity: fmt.Sprint(quantity),
	}
}

// jsonPayload pulls the first JSON object out of a reply that may be
// wrapped in prose or code fences.
func jsonPayload(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
