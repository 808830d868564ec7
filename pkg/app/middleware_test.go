package app

import "testing"

func TestMiddlewarePhaseIsValid(t *testing.T) {
	for _, phase := range ValidMiddlewarePhases {
		if !phase.IsValid() {
			t.Errorf("phase %q should be valid", phase)
		}
	}

	invalid := []MiddlewarePhase{"", "both", "Request", "pre"}
	for _, phase := range invalid {
		if phase.IsValid() {
			t.Errorf("phase %q should be invalid", phase)
		}
	}
}

func TestParseMiddlewarePhase(t *testing.T) {
	phase, err := ParseMiddlewarePhase("response")
	if err != nil {
		t.Fatalf("ParseMiddlewarePhase() error = %v", err)
	}
	if phase != PhaseResponse {
		t.Errorf("ParseMiddlewarePhase() = %q, want %q", phase, PhaseResponse)
	}

	if _, err := ParseMiddlewarePhase("around"); err == nil {
		t.Error("ParseMiddlewarePhase() with unknown phase succeeded, want error")
	}
}

func TestBuildPipeline_EmptyIsNil(t *testing.T) {
	if fn := buildPipeline(nil); fn != nil {
		t.Error("buildPipeline(nil) should return nil so the engine skips it")
	}
}
