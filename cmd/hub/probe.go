package main

import (
	"fmt"

	"github.com/prompthub/prompthub/internal"
	"github.com/spf13/cobra"
)

func NewProbeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe [url]",
		Short: "Classify a remote without touching it",
		Long:  `List the remote's references read-only and report one of: empty, nonEmpty, notFound, unauthorized, unreachable. Defaults to the configured remote.`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  makeProbeRunner(a),
	}

	return cmd
}

func makeProbeRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		url := a.cfg.Git.RemoteURL
		if len(args) == 1 {
			url = args[0]
		}
		if url == "" {
			return fmt.Errorf("no remote configured and no url given")
		}

		probe, probeErr := a.syncer().Probe(cmd.Context(), url)
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", probe)
		if probeErr != nil && probe != internal.ProbeEmpty && probe != internal.ProbeNonEmpty {
			fmt.Fprintf(cmd.ErrOrStderr(), "detail: %v\n", probeErr)
		}
		summary := internal.InspectRepository(a.cfg.ResolveStoragePath())
		fmt.Fprintf(cmd.OutOrStdout(), "recommended action: %s\n",
			internal.Recommend(probe, summary))
		return nil
	}
}
