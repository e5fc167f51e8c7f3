// Package testsupport loads JSON fixtures shared by package tests.
package testsupport

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/goliatone/go-formstate/pkg/model"
)

// MustLoadFormModel loads a JSON fixture into a FormModel.
func MustLoadFormModel(t *testing.T, path string) model.FormModel {
	t.Helper()

	form, err := LoadFormModel(path)
	if err != nil {
		t.Fatalf("load form model: %v", err)
	}
	return form
}

// LoadFormModel reads a JSON fixture into a FormModel and checks it with
// model.ValidateForm, returning an error for callers managing setup outside
// of *testing.T.
func LoadFormModel(path string) (model.FormModel, error) {
	if path == "" {
		return model.FormModel{}, errors.New("testsupport: form model path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return model.FormModel{}, fmt.Errorf("testsupport: read form model: %w", err)
	}
	var out model.FormModel
	if err := json.Unmarshal(data, &out); err != nil {
		return model.FormModel{}, fmt.Errorf("testsupport: unmarshal form model: %w", err)
	}
	if err := model.ValidateForm(out); err != nil {
		return model.FormModel{}, fmt.Errorf("testsupport: %w", err)
	}
	return out, nil
}

// MustLoadValues loads a JSON object fixture, typically the values of a
// record.
func MustLoadValues(t *testing.T, path string) map[string]any {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read values: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal values: %v", err)
	}
	return out
}
