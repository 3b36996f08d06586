package db

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/wendylandcan/liqingai/models"
)

func TestPatchToUpdateWritesOnlyPresentFields(t *testing.T) {
	text := "rebuttal"
	update := patchToUpdate(&models.CasePatch{PlaintiffRebuttal: &text})

	set := update["$set"].(bson.M)
	if set["plaintiff_rebuttal"] != text {
		t.Errorf("patched field missing from $set: %v", set)
	}
	if _, ok := set["defendant_rebuttal"]; ok {
		t.Errorf("unpatched field leaked into $set")
	}
	if _, ok := set["stage"]; ok {
		t.Errorf("unpatched stage leaked into $set")
	}
	if _, ok := set["updated_at"]; !ok {
		t.Errorf("updated_at not bumped")
	}
	if _, ok := update["$unset"]; ok {
		t.Errorf("unexpected $unset: %v", update)
	}
}

func TestPatchToUpdateClearsVerdict(t *testing.T) {
	stage := models.StageDebate
	update := patchToUpdate(&models.CasePatch{Stage: &stage, ClearVerdict: true})

	unset, ok := update["$unset"].(bson.M)
	if !ok {
		t.Fatalf("ClearVerdict did not produce $unset: %v", update)
	}
	if _, ok := unset["verdict"]; !ok {
		t.Errorf("verdict not in $unset: %v", unset)
	}
	set := update["$set"].(bson.M)
	if set["stage"] != stage {
		t.Errorf("stage not written alongside the clear")
	}
}
