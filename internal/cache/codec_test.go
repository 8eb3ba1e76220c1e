package cache

import (
	"errors"
	"testing"

	"github.com/hireloop-ai/hireloop/internal/models"
)

func TestCodecRoundTrip(t *testing.T) {
	in := models.InterviewSession{IID: 7, UID: 3, Status: models.SessionStatusStarted}
	payload, err := Encode(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var out models.InterviewSession
	if err := Decode(payload, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.IID != 7 || out.UID != 3 || out.Status != models.SessionStatusStarted {
		t.Errorf("round trip mismatch: %+v", out)
	}
}

func TestDecodeRejectsUntaggedPayload(t *testing.T) {
	var out models.InterviewSession
	err := Decode(`{"iid":7}`, &out)
	if !errors.Is(err, models.ErrCorruptPayload) {
		t.Errorf("expected ErrCorruptPayload, got %v", err)
	}
}

func TestDecodeRejectsWrongVersion(t *testing.T) {
	var out models.InterviewSession
	err := Decode(`HLC0|{"iid":7}`, &out)
	if !errors.Is(err, models.ErrCorruptPayload) {
		t.Errorf("expected ErrCorruptPayload, got %v", err)
	}
}

func TestDecodeRejectsMalformedBody(t *testing.T) {
	var out models.InterviewSession
	err := Decode(`HLC1|{"iid":`, &out)
	if !errors.Is(err, models.ErrCorruptPayload) {
		t.Errorf("expected ErrCorruptPayload, got %v", err)
	}
}
