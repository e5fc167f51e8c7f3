package editstate

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/model"
)

type draft struct {
	Name string
}

func TestMessageStore_AddMergesAndPreservesOrder(t *testing.T) {
	rec := &draft{}
	name := model.FieldIdentifier{Model: rec, Field: "name"}
	email := model.FieldIdentifier{Model: rec, Field: "email"}

	store := NewMessageStore()
	store.Add(email, "Email is required")
	store.Add(name, "Name is required", " ", "Name is required")
	store.Add(email, "Email must be a valid email address")
	store.AddModel("Passwords do not match")

	want := []Message{
		{Field: email, Text: "Email is required"},
		{Field: email, Text: "Email must be a valid email address"},
		{Field: name, Text: "Name is required"},
		{Text: "Passwords do not match"},
	}
	if diff := cmp.Diff(want, store.All()); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
	if store.Len() != 4 || store.Empty() {
		t.Fatalf("unexpected len %d", store.Len())
	}
}

func TestMessageStore_ClearTree(t *testing.T) {
	rec := &draft{}
	store := NewMessageStore()
	store.Add(model.FieldIdentifier{Model: rec, Field: "address"}, "Address is incomplete")
	store.Add(model.FieldIdentifier{Model: rec, Field: "address.city"}, "City is required")
	store.Add(model.FieldIdentifier{Model: rec, Field: "addressee"}, "Addressee is required")

	store.ClearTree(model.FieldIdentifier{Model: rec, Field: "address"})

	var fields []string
	for _, id := range store.Fields() {
		fields = append(fields, id.Field)
	}
	if diff := cmp.Diff([]string{"addressee"}, fields); diff != "" {
		t.Fatalf("remaining fields mismatch (-want +got):\n%s", diff)
	}
}

func TestMessageStore_CloneIsIndependent(t *testing.T) {
	rec := &draft{}
	field := model.FieldIdentifier{Model: rec, Field: "name"}

	original := NewMessageStore()
	original.Add(field, "Name is required")
	clone := original.Clone()
	clone.Clear(field)
	clone.AddModel("form broken")

	if got := original.Messages(field); len(got) != 1 {
		t.Fatalf("original mutated through clone: %v", got)
	}
	if len(original.ModelMessages()) != 0 {
		t.Fatalf("original model messages mutated: %v", original.ModelMessages())
	}
}

func TestMessageStore_NilIsEmpty(t *testing.T) {
	var store *MessageStore
	if !store.Empty() || store.Len() != 0 || store.All() != nil {
		t.Fatalf("nil store should be empty")
	}
}
