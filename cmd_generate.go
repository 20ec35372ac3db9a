package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"document_editing_agent/document"
	"document_editing_agent/generator"
)

type generateFlags struct {
	prompt       string
	markdown     string
	semantic     bool
	history      string
	selectedText string
	selectedTag  string
	output       string
}

func newGenerateCmd(a *app) *cobra.Command {
	var f generateFlags
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one edit plan and print it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if f.output != "json" && f.output != "yaml" {
				return errors.Errorf("unsupported output %q; use json or yaml", f.output)
			}
			req, err := f.request()
			if err != nil {
				return err
			}
			svc, err := buildService(cmd.Context(), a.cfg, a.logger, nil)
			if err != nil {
				return err
			}
			res, err := svc.GenerateEditPlan(cmd.Context(), req)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), res, f.output)
		},
	}
	cmd.Flags().StringVarP(&f.prompt, "prompt", "p", "", "editing instruction")
	cmd.Flags().StringVar(&f.markdown, "markdown", "", "markdown file describing the current document")
	cmd.Flags().BoolVar(&f.semantic, "semantic", false, "send the markdown file as a block graph instead of headings and summary")
	cmd.Flags().StringVar(&f.history, "history", "", "JSON file with prior conversation messages")
	cmd.Flags().StringVar(&f.selectedText, "selected-text", "", "text currently selected in the document")
	cmd.Flags().StringVar(&f.selectedTag, "selected-tag", "", "content control tag of the selection")
	cmd.Flags().StringVarP(&f.output, "output", "o", "json", "output format: json or yaml")
	_ = cmd.MarkFlagRequired("prompt")
	return cmd
}

func (f *generateFlags) request() (generator.Request, error) {
	req := generator.Request{Prompt: f.prompt}
	if f.markdown != "" {
		src, err := os.ReadFile(f.markdown)
		if err != nil {
			return req, errors.Wrap(err, "read markdown")
		}
		doc := document.Analyze(src)
		if f.semantic {
			req.SemanticDocument = doc.SemanticDocument()
		} else {
			req.DocumentContext = doc.Context(f.prompt)
		}
	}
	if f.history != "" {
		data, err := os.ReadFile(f.history)
		if err != nil {
			return req, errors.Wrap(err, "read history")
		}
		if err := json.Unmarshal(data, &req.ConversationHistory); err != nil {
			return req, errors.Wrap(err, "decode history")
		}
	}
	if f.selectedText != "" || f.selectedTag != "" {
		req.SelectedRange = &generator.SelectedRange{Text: f.selectedText, Tag: f.selectedTag}
	}
	return req, nil
}

// render writes res as indented JSON, or as YAML with the JSON field names
// and order.
func render(w io.Writer, res *generator.GenerationResult, format string) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode result")
	}
	if format == "json" {
		_, err = w.Write(append(data, '\n'))
		return err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return errors.Wrap(err, "convert result to yaml")
	}
	plainStyle(&node)
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return errors.Wrap(err, "encode yaml")
	}
	return enc.Close()
}

// plainStyle drops the flow and quoting styles inherited from the JSON text.
func plainStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		plainStyle(c)
	}
}
