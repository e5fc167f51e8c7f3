package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formstate/pkg/editstate"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/render"
)

var errInvalidFiles = errors.New("one or more files are invalid")

type fileResult struct {
	path  string
	valid bool
	store *editstate.MessageStore
}

func newValidateCommand(a *app) *cobra.Command {
	var (
		formID      string
		format      string
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "validate --form ID FILE...",
		Short: "Validate JSON or YAML value files against a form",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if concurrency < 1 {
				return fmt.Errorf("--concurrency must be at least 1, got %d", concurrency)
			}
			catalog, err := a.catalog(cmd.Context())
			if err != nil {
				return err
			}
			form, err := catalog.Form(formID)
			if err != nil {
				return err
			}

			results := make([]fileResult, len(args))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(concurrency)
			for i, path := range args {
				g.Go(func() error {
					if err := ctx.Err(); err != nil {
						return err
					}
					result, err := a.validateFile(form, path)
					if err != nil {
						return err
					}
					results[i] = result
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			if err := writeResults(cmd, form, format, results); err != nil {
				return err
			}
			for _, result := range results {
				if !result.valid {
					return errInvalidFiles
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&formID, "form", "f", "", "form id from the catalog")
	cmd.Flags().StringVar(&format, "format", "text", "output format: text, json or html")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "files validated in parallel")
	_ = cmd.MarkFlagRequired("form")
	return cmd
}

// validateFile runs one file through its own edit context; contexts are
// single-owner, so each goroutine gets a fresh one.
func (a *app) validateFile(form model.FormModel, path string) (fileResult, error) {
	values, err := readValues(path)
	if err != nil {
		return fileResult{}, err
	}
	ec, err := editstate.New(model.NewRecord(values), form,
		editstate.WithLogger(a.logger.With(zap.String("file", path))),
		editstate.WithRuleOptions(a.ruleOptions()...),
		editstate.WithMaxDispatch(a.cfg.Validation.MaxDispatch),
	)
	if err != nil {
		return fileResult{}, err
	}
	defer ec.Close()

	valid := ec.Validate()
	a.logger.Debug("file validated", zap.String("file", path), zap.Bool("valid", valid))
	return fileResult{path: path, valid: valid, store: ec.Store()}, nil
}

func readValues(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	values := map[string]any{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &values)
	default:
		err = json.Unmarshal(data, &values)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return values, nil
}

func writeResults(cmd *cobra.Command, form model.FormModel, format string, results []fileResult) error {
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		type entry struct {
			File   string              `json:"file"`
			Valid  bool                `json:"valid"`
			Errors map[string][]string `json:"errors,omitempty"`
		}
		entries := make([]entry, 0, len(results))
		for _, result := range results {
			e := entry{File: result.path, Valid: result.valid}
			for _, msg := range result.store.All() {
				key := msg.Field.Field
				if msg.ModelLevel() {
					key = "form"
				}
				if e.Errors == nil {
					e.Errors = make(map[string][]string)
				}
				e.Errors[key] = append(e.Errors[key], msg.Text)
			}
			entries = append(entries, e)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)

	case "html":
		renderer, err := render.New()
		if err != nil {
			return err
		}
		for _, result := range results {
			fmt.Fprintf(out, "<!-- %s -->\n", result.path)
			html, err := renderer.SummaryFromStore(form, result.store)
			if err != nil {
				return err
			}
			if _, err := out.Write(html); err != nil {
				return err
			}
		}
		return nil

	case "text", "":
		for _, result := range results {
			if result.valid {
				fmt.Fprintf(out, "%s: valid\n", result.path)
				continue
			}
			fmt.Fprintf(out, "%s: invalid\n", result.path)
			for _, msg := range result.store.All() {
				if msg.ModelLevel() {
					fmt.Fprintf(out, "  - %s\n", msg.Text)
					continue
				}
				fmt.Fprintf(out, "  %s: %s\n", msg.Field.Field, msg.Text)
			}
		}
		return nil
	}
	return fmt.Errorf("unknown format %q", format)
}
