package amqp

import (
	"testing"

	"kakeibo/internal/core"
)

func TestMutationMessageRoundTrip(t *testing.T) {
	genre := "食費"
	msg := NewRecordUpdateMessage(core.RecordUpdate{RowNumber: 7, Genre: &genre})

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	got, err := MutationMessageFromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if got.Kind != KindRecordUpdate {
		t.Errorf("kind = %q", got.Kind)
	}
	if got.Update == nil || got.Update.RowNumber != 7 || got.Update.Genre == nil || *got.Update.Genre != "食費" {
		t.Errorf("update = %+v", got.Update)
	}
}

func TestMutationMessageCategoryReplace(t *testing.T) {
	msg := NewCategoryReplaceMessage([]string{"食費", "交通費"})
	data, _ := msg.ToJSON()

	got, err := MutationMessageFromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if got.Kind != KindCategoryReplace || len(got.Labels) != 2 {
		t.Errorf("message = %+v", got)
	}

	// Empty label list is a valid replacement.
	empty, _ := NewCategoryReplaceMessage(nil).ToJSON()
	if _, err := MutationMessageFromJSON(empty); err != nil {
		t.Errorf("empty replace should parse: %v", err)
	}
}

func TestMutationMessageRejectsBadShape(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"unknown kind", `{"kind":"bogus"}`},
		{"update without payload", `{"kind":"record_update"}`},
		{"not json", `{{`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := MutationMessageFromJSON([]byte(tc.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
