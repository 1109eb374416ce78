package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ankek/terraform-provider-archstudio/internal/diagram"
	"github.com/ankek/terraform-provider-archstudio/internal/model"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		mf     modelFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Report element counts and graph statistics for a model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			arch, err := a.loadModel(cmd.Context(), mf)
			if err != nil {
				return err
			}
			report := a.svc.Inspect(arch)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			return writeAnalysis(cmd.OutOrStdout(), report)
		},
	}

	mf.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

func newValidateCmd(a *app) *cobra.Command {
	var mf modelFlags

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a model; exits non-zero when it has errors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			arch, err := a.loadModel(cmd.Context(), mf)
			if err != nil {
				return err
			}
			res := a.svc.Inspect(arch).Validation
			w := cmd.OutOrStdout()
			writeIssues(w, res.Errors)
			writeIssues(w, res.Warnings)
			if !res.IsValid {
				return fmt.Errorf("model has %d error(s)", len(res.Errors))
			}
			fmt.Fprintf(w, "model is valid (%d warning(s))\n", len(res.Warnings))
			return nil
		},
	}

	mf.register(cmd)
	return cmd
}

func newRenderersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "renderers",
		Short: "List the registered renderers and their formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tFORMATS\tDESCRIPTION")
			for _, info := range a.svc.Renderers() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", info.Name, strings.Join(info.Formats, ","), info.Description)
			}
			return tw.Flush()
		},
	}
}

func writeAnalysis(w io.Writer, r diagram.Inspection) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Architecture\t%s (%s)\n", r.Model.Name, r.Model.UID)
	fmt.Fprintf(tw, "Elements\t%d\n", r.Summary.TotalElements)
	fmt.Fprintf(tw, "  business\t%d\n", r.Summary.Business.Total())
	fmt.Fprintf(tw, "  application\t%d\n", r.Summary.Application.Total())
	fmt.Fprintf(tw, "  technology\t%d\n", r.Summary.Technology.Total())
	fmt.Fprintf(tw, "Relationships\t%d\n", r.Summary.Relationships)
	fmt.Fprintf(tw, "Density\t%.3f\n", r.Graph.Density)
	fmt.Fprintf(tw, "Complexity\t%s\n", r.Graph.Complexity)
	if len(r.Graph.Centrality.MostConnected) > 0 {
		fmt.Fprintf(tw, "Most connected\t%s (degree %d)\n", strings.Join(r.Graph.Centrality.MostConnected, ", "), r.Graph.Centrality.MaxDegree)
	}
	fmt.Fprintf(tw, "Valid\t%t\n", r.Validation.IsValid)
	return tw.Flush()
}

func writeIssues(w io.Writer, issues []model.ValidationIssue) {
	for _, i := range issues {
		if i.ElementID != "" {
			fmt.Fprintf(w, "%s %s: %s (%s)\n", strings.ToUpper(i.Severity), i.Code, i.Message, i.ElementID)
			continue
		}
		fmt.Fprintf(w, "%s %s: %s\n", strings.ToUpper(i.Severity), i.Code, i.Message)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.New("failed to encode report: " + err.Error())
	}
	return nil
}
