package stages_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/cairnhq/cairn/internal/stages"
)

func TestPipelineOrder(t *testing.T) {
	want := []stages.Stage{
		stages.StageIngestText,
		stages.StageDate,
		stages.StageActionDescriber,
		stages.StageControlCandidates,
		stages.StageFinalizeClassification,
	}

	got := stages.Order()
	if len(got) != len(want) {
		t.Fatalf("order length: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("order[%d]: got %q, want %q", i, got[i], want[i])
		}
	}

	if stages.First() != stages.StageIngestText {
		t.Errorf("first: got %q", stages.First())
	}
	if stages.Last() != stages.StageFinalizeClassification {
		t.Errorf("last: got %q", stages.Last())
	}
}

func TestNext(t *testing.T) {
	tests := []struct {
		name     string
		stage    stages.Stage
		wantNext stages.Stage
		wantOK   bool
	}{
		{"first advances to date", stages.StageIngestText, stages.StageDate, true},
		{"middle advances in order", stages.StageControlCandidates, stages.StageFinalizeClassification, true},
		{"terminal has no successor", stages.StageFinalizeClassification, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, ok := stages.Next(tt.stage)
			if ok != tt.wantOK || next != tt.wantNext {
				t.Errorf("next(%q): got (%q, %v), want (%q, %v)",
					tt.stage, next, ok, tt.wantNext, tt.wantOK)
			}
		})
	}
}

func TestParse(t *testing.T) {
	s, err := stages.Parse("date")
	if err != nil || s != stages.StageDate {
		t.Errorf("parse: got (%q, %v)", s, err)
	}

	if _, err := stages.Parse("bogus"); !errors.Is(err, stages.ErrUnknownStage) {
		t.Errorf("parse bogus: got %v, want ErrUnknownStage", err)
	}
}

func TestStageUnmarshalJSON(t *testing.T) {
	var s stages.Stage
	if err := json.Unmarshal([]byte(`"ingest_text"`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s != stages.StageIngestText {
		t.Errorf("stage: got %q", s)
	}

	if err := json.Unmarshal([]byte(`"nope"`), &s); !errors.Is(err, stages.ErrUnknownStage) {
		t.Errorf("unmarshal invalid: got %v, want ErrUnknownStage", err)
	}
}

func TestContractFor(t *testing.T) {
	for _, stage := range stages.Order() {
		c, err := stages.ContractFor(stage)
		if err != nil {
			t.Fatalf("contract for %s: %v", stage, err)
		}
		if c.Stage != stage {
			t.Errorf("contract stage: got %q, want %q", c.Stage, stage)
		}
		if len(c.Decided) == 0 || len(c.Required) == 0 {
			t.Errorf("contract for %s has empty decided or required set", stage)
		}
	}

	if _, err := stages.ContractFor("bogus"); !errors.Is(err, stages.ErrUnknownStage) {
		t.Errorf("contract bogus: got %v, want ErrUnknownStage", err)
	}
}
