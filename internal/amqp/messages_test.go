package amqp

import (
	"testing"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	env := NewSyncEnvelope(42)
	body, err := env.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	got, err := EnvelopeFromJSON(body)
	if err != nil {
		t.Fatalf("EnvelopeFromJSON: %v", err)
	}
	if got.Kind != KindSync || got.Sync == nil || got.Sync.ID != 42 {
		t.Fatalf("unexpected envelope: %+v", got)
	}

	env = NewDeleteEnvelope(7, "user-1")
	body, err = env.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	got, err = EnvelopeFromJSON(body)
	if err != nil {
		t.Fatalf("EnvelopeFromJSON: %v", err)
	}
	if got.Kind != KindDelete || got.Delete == nil || got.Delete.UserID != "user-1" {
		t.Fatalf("unexpected envelope: %+v", got)
	}
}

func TestEnvelopeFromJSONRejectsMalformed(t *testing.T) {
	cases := []string{
		`{`,
		`{"kind":"unknown"}`,
		`{"kind":"sync"}`,
		`{"kind":"delete"}`,
	}
	for _, body := range cases {
		if _, err := EnvelopeFromJSON([]byte(body)); err == nil {
			t.Fatalf("expected error for %q", body)
		}
	}
}
