package schema

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/model"
)

func TestLoadFS_EmbeddedForms(t *testing.T) {
	catalog, err := LoadFS(context.Background(), EmbeddedFS(), WithDecorators(model.LabelDecorator(nil)))
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}
	if diff := cmp.Diff([]string{"contact", "signup"}, catalog.IDs()); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}

	signup, err := catalog.Form("signup")
	if err != nil {
		t.Fatalf("Form: %v", err)
	}
	city, ok := signup.Lookup("address.city")
	if !ok || !city.Required {
		t.Fatalf("expected required address.city, got %+v", city)
	}
	if city.Label != "City" {
		t.Fatalf("label decorator not applied: %q", city.Label)
	}
	if catalog.Source("contact") != "contact.json" {
		t.Fatalf("unexpected source %q", catalog.Source("contact"))
	}
}

func TestLoadFS_OpenAPIDocument(t *testing.T) {
	fsys := fstest.MapFS{
		"api/openapi.yaml": {Data: []byte(`
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
                title: {type: string, maxLength: 10}
      responses:
        "201": {description: created}
`)},
		"README.md": {Data: []byte("ignored")},
	}
	catalog, err := LoadFS(context.Background(), fsys)
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}
	form, err := catalog.Form("createNote")
	if err != nil {
		t.Fatalf("Form: %v", err)
	}
	if form.Endpoint != "/notes" || len(form.Fields) != 1 || !form.Fields[0].Required {
		t.Fatalf("unexpected form %+v", form)
	}
}

func TestLoadFS_Errors(t *testing.T) {
	cases := map[string]struct {
		files fstest.MapFS
		want  string
	}{
		"empty file": {
			files: fstest.MapFS{"a.yaml": {Data: []byte("  ")}},
			want:  "is empty",
		},
		"duplicate id": {
			files: fstest.MapFS{
				"a.yaml": {Data: []byte("id: x\nfields: [{name: a, type: string}]")},
				"b.yaml": {Data: []byte("id: x\nfields: [{name: b, type: string}]")},
			},
			want: "duplicate form",
		},
		"invalid rule": {
			files: fstest.MapFS{"a.yaml": {Data: []byte("id: x\nfields: [{name: a, type: string, validations: [{kind: pattern, params: {pattern: '('}}]}]")}},
			want:  "rule pattern",
		},
		"no form": {
			files: fstest.MapFS{"a.json": {Data: []byte(`{"forms": []}`)}},
			want:  "does not define any form",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFS(context.Background(), tc.files)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestCatalog_UnknownForm(t *testing.T) {
	catalog, err := NewCatalog(model.FormModel{ID: "x", Fields: []model.Field{{Name: "a", Type: model.FieldTypeString}}})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	if _, err := catalog.Form("y"); !errors.Is(err, ErrUnknownForm) {
		t.Fatalf("expected ErrUnknownForm, got %v", err)
	}
	if catalog.Len() != 1 {
		t.Fatalf("expected one form, got %d", catalog.Len())
	}
}
