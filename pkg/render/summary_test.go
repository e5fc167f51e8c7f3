package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	theme "github.com/goliatone/go-theme"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/editstate"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/validation"
)

type profile struct {
	Name  string `form:"name,required,label=Full name"`
	Email string `form:"email,required,format=email"`
}

type stubThemeSelector struct {
	selection *theme.Selection
	err       error
	calls     int
}

func (s *stubThemeSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	s.calls++
	return s.selection, s.err
}

func invalidProfileContext(t *testing.T) *editstate.EditContext {
	t.Helper()
	ec, err := editstate.NewForStruct(&profile{Email: "ada@example.com"}, editstate.WithValidator(
		validation.Compose(
			validation.MustCompile(mustForm(t)),
			validation.ValidatorFunc(func(any) []validation.Failure {
				return []validation.Failure{{Message: `Try <strong>again</strong><script>alert(1)</script>`}}
			}),
		),
	))
	if err != nil {
		t.Fatalf("NewForStruct: %v", err)
	}
	t.Cleanup(ec.Close)
	ec.Validate()
	return ec
}

func mustForm(t *testing.T) model.FormModel {
	t.Helper()
	form, err := model.FromStruct(&profile{})
	if err != nil {
		t.Fatalf("FromStruct: %v", err)
	}
	return form
}

func TestRenderer_SummaryListsMessages(t *testing.T) {
	selector := &stubThemeSelector{selection: &theme.Selection{
		Theme:    "acme",
		Variant:  "dark",
		Manifest: &theme.Manifest{Name: "acme", Version: "1.0.0", Tokens: map[string]string{"error.color": "#b00020"}},
	}}
	renderer, err := New(WithThemeSelector(selector, "acme", "dark"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	out, err := renderer.Summary(invalidProfileContext(t))
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	html := string(out)

	for _, want := range []string{
		`<dt data-field="name">Full name</dt>`,
		`<dd>Full name is required</dd>`,
		`<li>Try <strong>again</strong></li>`,
		`--formstate-error-color: #b00020;`,
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("summary missing %q:\n%s", want, html)
		}
	}
	if strings.Contains(html, "<script") {
		t.Fatalf("summary kept script markup:\n%s", html)
	}
	if selector.calls != 1 {
		t.Fatalf("expected one theme selection, got %d", selector.calls)
	}
}

func TestRenderer_ValidSummary(t *testing.T) {
	renderer, err := New(WithValidText("Looks good"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var buf bytes.Buffer
	if err := renderer.Render(&buf, SummaryData{FormID: "profile"}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(buf.String(), "Looks good") || !strings.Contains(buf.String(), "formstate-summary--valid") {
		t.Fatalf("unexpected valid summary:\n%s", buf.String())
	}
}

func TestRenderer_CustomTemplateFS(t *testing.T) {
	files := fstest.MapFS{"plain.txt": {Data: []byte(`{% for field in fields %}{{ field.Path }}={{ field.Messages|join:"," }};{% endfor %}`)}}
	renderer, err := New(WithTemplateFS(files, "plain.txt"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := renderer.SummaryFromStore(mustForm(t), invalidProfileContext(t).Store())
	if err != nil {
		t.Fatalf("SummaryFromStore: %v", err)
	}
	if diff := cmp.Diff("name=Full name is required;", string(out)); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderer_ThemeError(t *testing.T) {
	renderer, err := New(WithThemeSelector(&stubThemeSelector{err: errors.New("no such theme")}, "missing", ""))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := renderer.Render(&bytes.Buffer{}, SummaryData{}); err == nil {
		t.Fatalf("expected theme selection error")
	}
}

func TestSanitizeMessage(t *testing.T) {
	cases := map[string]string{
		"plain":                                  "plain",
		`<a href="javascript:alert(1)">x</a>`:    "x",
		`<em>careful</em> <img src=x onerror=1>`: "<em>careful</em>",
		"   ":                                    "",
	}
	for input, want := range cases {
		if got := SanitizeMessage(input); got != want {
			t.Fatalf("SanitizeMessage(%q) = %q, want %q", input, got, want)
		}
	}
}
