package main

import (
	"fmt"

	"github.com/prompthub/prompthub/internal"
	"github.com/spf13/cobra"
)

func NewRemoteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote [url]",
		Short: "Show or change the configured sync remote",
		Long: `Without arguments, show the configured remote and the repository's origin.
With a URL, probe the remote, classify it, store the URL in config, and print
the recommended next action. Pass --apply to execute that action; importing
over local content additionally requires --force.`,
		Args: cobra.MaximumNArgs(1),
		RunE: makeRemoteRunner(a),
	}

	cmd.Flags().Bool("apply", false, "Execute the recommended action")
	cmd.Flags().Bool("force", false, "Allow overwriting local content from the remote")
	return cmd
}

func makeRemoteRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		syncer := a.syncer()

		if len(args) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "configured: %s\n",
				internal.MaskCredentials(a.cfg.Git.RemoteURL))
			fmt.Fprintf(cmd.OutOrStdout(), "origin:     %s\n",
				internal.MaskCredentials(syncer.OriginURL(cmd.Context())))
			return nil
		}

		url := args[0]
		probe, probeErr := syncer.Probe(cmd.Context(), url)
		summary := internal.InspectRepository(a.cfg.ResolveStoragePath())
		action := internal.Recommend(probe, summary)

		a.cfg.Git.RemoteURL = url
		a.cfg.Git.SyncEnabled = true
		if err := a.saveConfig(); err != nil {
			return fmt.Errorf("save config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "remote %s: %s\n", internal.MaskCredentials(url), probe)
		if probeErr != nil && probe != internal.ProbeEmpty && probe != internal.ProbeNonEmpty {
			fmt.Fprintf(cmd.OutOrStdout(), "probe detail: %v\n", probeErr)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "recommended action: %s\n", action)

		apply, _ := cmd.Flags().GetBool("apply")
		if !apply {
			return nil
		}
		force, _ := cmd.Flags().GetBool("force")
		return applyRemoteAction(cmd, a, syncer, action, url, force)
	}
}

func applyRemoteAction(cmd *cobra.Command, a *app, syncer *internal.Syncer, action internal.Action, url string, force bool) error {
	switch action {
	case internal.ActionSaveOnly:
		fmt.Fprintln(cmd.OutOrStdout(), "Remote saved; nothing else to do")
		return nil
	case internal.ActionUpdateOriginOnly:
		if err := syncer.EnsureRepository(cmd.Context()); err != nil {
			return err
		}
		if err := syncer.SetOriginURL(cmd.Context(), url); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Origin updated")
		return nil
	case internal.ActionInitAndPush:
		if err := syncer.InitAndPush(cmd.Context(), url, a.cfg.Git.CommitMessageTemplate); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Published local records to the remote")
		return nil
	case internal.ActionImportOverwrite:
		if !force {
			return fmt.Errorf("importing would overwrite local content; rerun with --force to proceed")
		}
		backup, err := syncer.ImportFromRemote(cmd.Context(), url)
		if backup != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Local files moved to %s\n", backup)
		}
		if err != nil {
			return err
		}
		if _, err := a.openStore(); err != nil {
			return fmt.Errorf("reload store after import: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Imported records from the remote")
		return nil
	}
	return fmt.Errorf("unknown action %q", action)
}
