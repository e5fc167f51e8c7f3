package formstate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	pkgopenapi "github.com/goliatone/go-formstate/pkg/openapi"
)

type account struct {
	Name  string `form:"name,required"`
	Email string `form:"email,required,format=email"`
}

func TestBindValidatesStruct(t *testing.T) {
	acct := &account{Email: "not-an-email"}
	ec, err := Bind(acct)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if ec.Validate() {
		t.Fatalf("expected invalid account")
	}
	if got := ec.MessagesFor(ec.Field("name")); len(got) != 1 || got[0] != "Name is required" {
		t.Fatalf("unexpected name messages %v", got)
	}

	acct.Name = "Alice"
	acct.Email = "alice@example.com"
	ec.NotifyFieldChanged(ec.Field("name"))
	if !ec.Validate() {
		t.Fatalf("expected valid account, got %v", ec.Messages())
	}

	html, err := SummaryHTML(ec)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !strings.Contains(string(html), "formstate-summary--valid") {
		t.Fatalf("expected valid summary, got %s", html)
	}
}

func TestLoadFormAndBindValues(t *testing.T) {
	doc := `
openapi: 3.0.3
info: {title: Notes, version: "1"}
paths:
  /notes:
    post:
      operationId: createNote
      requestBody:
        content:
          application/json:
            schema:
              type: object
              required: [title]
              properties:
                title: {type: string, default: Untitled}
                body: {type: string, maxLength: 5}
      responses:
        "201": {description: created}
`
	path := filepath.Join(t.TempDir(), "notes.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	form, err := LoadForm(context.Background(), pkgopenapi.SourceFromFile(path), "createNote")
	if err != nil {
		t.Fatalf("load form: %v", err)
	}
	ec, record, err := BindValues(form, map[string]any{"body": "too long"})
	if err != nil {
		t.Fatalf("bind values: %v", err)
	}
	if got, _ := record.GetValue("title"); got != "Untitled" {
		t.Fatalf("expected default title, got %v", got)
	}
	if ec.Validate() {
		t.Fatalf("expected body to fail maxLength")
	}
	if len(ec.MessagesFor(ec.Field("body"))) != 1 {
		t.Fatalf("expected one body message, got %v", ec.Messages())
	}
}
