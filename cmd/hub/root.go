package main

import (
	"github.com/spf13/cobra"
)

func NewRootCmd(version string, a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "hub",
		Short:         "Personal snippet manager with document mirroring and git sync",
		Long:          `Manage reusable text records backed by a JSON store, mirror them as markdown documents, and sync the storage directory with a git remote.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output in JSON format")

	if a != nil {
		addSubcommands(rootCmd, a)
	}

	return rootCmd
}

func addSubcommands(root *cobra.Command, a *app) {
	root.AddCommand(
		NewInitCmd(a),
		NewNewCmd(a),
		NewAddCmd(a),
		NewGetCmd(a),
		NewListCmd(a),
		NewDelCmd(a),
		NewSearchCmd(a),
		NewReconcileCmd(a),
		NewWatchCmd(a),
		NewSyncCmd(a),
		NewPullCmd(a),
		NewPushCmd(a),
		NewRemoteCmd(a),
		NewProbeCmd(a),
		NewDriftCmd(a),
		NewDoctorCmd(a),
	)
}
