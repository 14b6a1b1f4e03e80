package chat

import (
	"strings"
	"testing"

	"ai-derm-assistant/internal/core/answer"
	"ai-derm-assistant/internal/core/pipeline"
	"ai-derm-assistant/internal/core/vocab"
)

func TestAcceptImage_OnlyWhileUndiagnosed(t *testing.T) {
	if !acceptImage(pipeline.StateNoImage, true) {
		t.Error("undiagnosed chat must accept its first image")
	}
	if acceptImage(pipeline.StateClassified, true) {
		t.Error("a classified chat must ignore later images")
	}
	if acceptImage(pipeline.StateClassificationFailed, true) {
		t.Error("a failed chat must ignore later images")
	}
	if acceptImage(pipeline.StateNoImage, false) {
		t.Error("a turn without an image has nothing to accept")
	}
}

func TestCommitDiagnosis(t *testing.T) {
	// A rejected image never commits, whatever the outcome says.
	out := pipeline.Outcome{State: pipeline.StateClassified, DiagnosedLabel: "Eczema"}
	if commitDiagnosis(false, out) {
		t.Error("rejected image must not touch the stored diagnosis")
	}

	if !commitDiagnosis(true, pipeline.Outcome{State: pipeline.StateClassified, DiagnosedLabel: "Acne"}) {
		t.Error("successful classification must commit")
	}
	if !commitDiagnosis(true, pipeline.Outcome{
		State:          pipeline.StateClassificationFailed,
		DiagnosedLabel: vocab.SentinelClassificationError,
	}) {
		t.Error("failed classification must freeze the sentinel")
	}

	// Cancelled classification: outcome stays no_image, nothing is stored.
	if commitDiagnosis(true, pipeline.Outcome{State: pipeline.StateNoImage}) {
		t.Error("cancelled classification must leave the chat retryable")
	}
}

func TestImageAcknowledgement(t *testing.T) {
	got := imageAcknowledgement(pipeline.Outcome{
		State:          pipeline.StateClassified,
		DiagnosedLabel: "Acne",
	})
	if !strings.Contains(got, "Acne") {
		t.Errorf("diagnosis announcement missing label: %q", got)
	}

	got = imageAcknowledgement(pipeline.Outcome{
		State:          pipeline.StateClassified,
		DiagnosedLabel: vocab.LabelNormal,
	})
	if got != answer.MsgNormalImage {
		t.Errorf("normal image: got %q", got)
	}

	got = imageAcknowledgement(pipeline.Outcome{State: pipeline.StateClassificationFailed})
	if got != answer.MsgClassificationFailed {
		t.Errorf("failed classification: got %q", got)
	}

	got = imageAcknowledgement(pipeline.Outcome{State: pipeline.StateNoImage})
	if got != answer.MsgNoImage {
		t.Errorf("cancelled classification: got %q", got)
	}
}
