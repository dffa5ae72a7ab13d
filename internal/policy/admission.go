package policy

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/open-policy-agent/opa/rego"
)

type DecisionStatus string

const (
	Allow   DecisionStatus = "ALLOW"
	Blocked DecisionStatus = "BLOCKED"
)

type Decision struct {
	Status  DecisionStatus `json:"status"`
	Reasons []string       `json:"reasons,omitempty"`
}

func (d Decision) Allowed() bool { return d.Status == Allow }

// Input is what an install policy sees as `input`.
type Input struct {
	Shop     string
	Scopes   []string
	Embedded bool
}

func (in Input) toMap() map[string]any {
	scopes := make([]any, 0, len(in.Scopes))
	for _, s := range in.Scopes {
		scopes = append(scopes, s)
	}
	return map[string]any{"shop": in.Shop, "scopes": scopes, "embedded": in.Embedded}
}

// Admission evaluates the rego entrypoint `data.install.decide` before an install starts.
// A nil Admission admits everything.
type Admission struct {
	query rego.PreparedEvalQuery
}

// NewAdmission compiles module once. An empty module yields a nil Admission.
func NewAdmission(ctx context.Context, module string) (*Admission, error) {
	if strings.TrimSpace(module) == "" {
		return nil, nil
	}
	q, err := rego.New(
		rego.Query("data.install.decide"),
		rego.Module("install.rego", module),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile install policy: %w", err)
	}
	return &Admission{query: q}, nil
}

// LoadAdmission reads the policy from path; no path means no policy.
func LoadAdmission(ctx context.Context, path string) (*Admission, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read install policy: %w", err)
	}
	return NewAdmission(ctx, string(b))
}

// Evaluate never admits on failure: evaluation errors and undefined results are BLOCKED
// with reason policy_error, and the error is returned for logging.
func (a *Admission) Evaluate(ctx context.Context, in Input) (Decision, error) {
	if a == nil {
		return Decision{Status: Allow}, nil
	}
	rs, err := a.query.Eval(ctx, rego.EvalInput(in.toMap()))
	if err != nil {
		return Decision{Status: Blocked, Reasons: []string{"policy_error"}}, err
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return Decision{Status: Blocked, Reasons: []string{"policy_error"}}, fmt.Errorf("install policy returned no decision")
	}
	out := rs[0].Expressions[0].Value
	dec := Decision{Status: Blocked}
	switch v := out.(type) {
	case map[string]any:
		if s, ok := v["status"].(string); ok && DecisionStatus(s) == Allow {
			dec.Status = Allow
		}
		if rr, ok := v["reasons"].([]any); ok {
			for _, r := range rr {
				if s, ok := r.(string); ok {
					dec.Reasons = append(dec.Reasons, s)
				}
			}
		}
	case bool:
		if v {
			dec.Status = Allow
		}
	}
	return dec, nil
}
