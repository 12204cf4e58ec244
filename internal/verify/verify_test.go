package verify

import (
	"context"
	"errors"
	"regexp"
	"testing"
)

func TestVerifyNoJudgeFormatPasses(t *testing.T) {
	v := New(nil)
	res := v.Verify(context.Background(), Context{TaskDescription: "summarize the log", FinalAnswer: "the log shows a summarize of recent events"})
	if res.Outcome != Success || !res.FormatCheck.Passed || res.Confidence != 0.7 {
		t.Errorf("got %+v, want success/formatOK/confidence 0.7", res)
	}
}

func TestVerifyNoJudgeFormatFails(t *testing.T) {
	v := New(nil)
	rule := &FormatRule{Name: "json-block", Pattern: regexp.MustCompile("^\\{")}
	res := v.Verify(context.Background(), Context{FinalAnswer: "not json", RequiredFormat: rule})
	if res.Outcome != Failure || res.FormatCheck.Passed {
		t.Errorf("got %+v, want failure/formatOK=false", res)
	}
}

func TestVerifyEmptyAnswerFailsFormat(t *testing.T) {
	v := New(nil)
	res := v.Verify(context.Background(), Context{FinalAnswer: "  "})
	if res.Outcome != Failure {
		t.Errorf("got outcome %v, want failure for empty answer", res.Outcome)
	}
}

func TestVerifyAllToolsErroredDegradesToPartial(t *testing.T) {
	v := New(nil)
	res := v.Verify(context.Background(), Context{
		TaskDescription: "run the build",
		FinalAnswer:     "the build tool reported an error",
		ToolResults: []ToolResultRecord{
			{ToolName: "build", IsError: true, Output: "boom"},
		},
	})
	if res.Outcome != Partial {
		t.Errorf("got outcome %v, want partial when every tool call errored", res.Outcome)
	}
	if !res.FormatCheck.Passed {
		t.Error("warnings should not fail the format check")
	}
}

func TestVerifyJudgeFormatFailsShortCircuits(t *testing.T) {
	called := false
	judge := func(ctx context.Context, vctx Context) (JudgeResponse, error) {
		called = true
		return JudgeResponse{Score: 100, Passed: true}, nil
	}
	v := New(judge)
	rule := &FormatRule{Name: "json-block", Pattern: regexp.MustCompile("^\\{")}
	res := v.Verify(context.Background(), Context{FinalAnswer: "not json", RequiredFormat: rule})
	if res.Outcome != Failure || called {
		t.Errorf("expected format failure to short-circuit the judge, got outcome=%v called=%v", res.Outcome, called)
	}
}

func TestVerifyJudgeScoreClassification(t *testing.T) {
	cases := []struct {
		score float64
		want  Outcome
	}{
		{95, Success}, {71, Success}, {50, Partial}, {31, Partial}, {30, Failure}, {0, Failure},
	}
	for _, tc := range cases {
		judge := func(ctx context.Context, vctx Context) (JudgeResponse, error) {
			return JudgeResponse{Score: tc.score, Reasoning: "rationale"}, nil
		}
		v := New(judge)
		res := v.Verify(context.Background(), Context{TaskDescription: "task x", FinalAnswer: "x covers task x"})
		if res.Outcome != tc.want {
			t.Errorf("score %v: outcome = %v, want %v", tc.score, res.Outcome, tc.want)
		}
		wantConfidence := tc.score / 100
		if res.Confidence != wantConfidence {
			t.Errorf("score %v: confidence = %v, want %v", tc.score, res.Confidence, wantConfidence)
		}
	}
}

func TestVerifyJudgeErrorYieldsFailure(t *testing.T) {
	judge := func(ctx context.Context, vctx Context) (JudgeResponse, error) {
		return JudgeResponse{}, errors.New("judge unavailable")
	}
	v := New(judge)
	res := v.Verify(context.Background(), Context{TaskDescription: "task x", FinalAnswer: "x covers task x"})
	if res.Outcome != Failure || res.Confidence != 0.2 {
		t.Errorf("got %+v, want failure/confidence 0.2 on judge error", res)
	}
	if res.SemanticCheck == nil {
		t.Error("expected a synthetic failing SemanticCheck on judge error")
	}
}

func TestParseJudgeResponseJSON(t *testing.T) {
	jr, err := parseJudgeResponse(`{"score": 85, "passed": true, "reasoning": "looks mostly correct", "issues": ["minor typo"]}`)
	if err != nil {
		t.Fatalf("parseJudgeResponse: %v", err)
	}
	if jr.Score != 85 || !jr.Passed || jr.Reasoning != "looks mostly correct" || len(jr.Issues) != 1 {
		t.Errorf("got %+v", jr)
	}
}

func TestParseJudgeResponseMarkdownFence(t *testing.T) {
	jr, err := parseJudgeResponse("Here is my verdict:\n```json\n{\"score\": 60, \"passed\": false, \"reasoning\": \"partial\"}\n```")
	if err != nil {
		t.Fatalf("parseJudgeResponse: %v", err)
	}
	if jr.Score != 60 || jr.Passed {
		t.Errorf("got %+v", jr)
	}
}

func TestParseJudgeResponseClampsOutOfRangeScore(t *testing.T) {
	jr, err := parseJudgeResponse(`{"score": 150, "reasoning": "overshoot"}`)
	if err != nil {
		t.Fatalf("parseJudgeResponse: %v", err)
	}
	if jr.Score != 100 {
		t.Errorf("score = %v, want clamped to 100", jr.Score)
	}
}

func TestParseJudgeResponseRegexFallback(t *testing.T) {
	jr, err := parseJudgeResponse("I'd rate this a 72/100, decent effort overall.")
	if err != nil {
		t.Fatalf("parseJudgeResponse: %v", err)
	}
	if jr.Score != 72 {
		t.Errorf("score = %v, want 72 via regex fallback", jr.Score)
	}
}

func TestParseJudgeResponseUnparseable(t *testing.T) {
	_, err := parseJudgeResponse("the model refused to answer with a score")
	if err == nil {
		t.Error("expected an error when no score can be extracted")
	}
}

func TestVerifyStateConsistencyRuleIsInfoNotError(t *testing.T) {
	v := New(nil)
	res := v.Verify(context.Background(), Context{
		TaskDescription: "update the config",
		FinalAnswer:     "the config was updated successfully",
		StateSnapshots: []StateSnapshotRecord{
			{ToolName: "set_config", Pre: "a", Post: "a"},
		},
	})
	if !res.FormatCheck.Passed {
		t.Error("an unchanged state snapshot is informational, not an error")
	}
	found := false
	for _, iss := range res.FormatCheck.Issues {
		if iss.Severity == SeverityInfo {
			found = true
		}
	}
	if !found {
		t.Error("expected an info-level issue for the unchanged snapshot")
	}
}
