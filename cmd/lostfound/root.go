package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/lostfound/internal/config"
	"github.com/kailas-cloud/lostfound/internal/domain/vector"
	"github.com/kailas-cloud/lostfound/internal/version"
)

var envName string

var rootCmd = &cobra.Command{
	Use:   "lostfound",
	Short: "Lost-and-found API with semantic item matching",
	Long: `lostfound serves the lost-and-found HTTP API.

Running it without a subcommand starts the server, same as "lostfound serve".
The config file is config/<env>.yaml, env comes from --env or $ENV.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context(), envName)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context(), envName)
	},
}

var embedCmd = &cobra.Command{
	Use:   "embed <text>...",
	Short: "Print the embedding of text as a JSON array",
	Long: `embed runs the configured embedding provider once, without the cache,
and prints the vector in the same JSON form the database stores.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(envName)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		emb, _, err := newProvider(cmd.Context(), cfg.Embedding)
		if err != nil {
			return err
		}
		res, err := emb.Embed(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return fmt.Errorf("embed: %w", err)
		}
		out, err := vector.Encode(res.Embedding)
		if err != nil {
			return fmt.Errorf("encode vector: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
		return err
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envName, "env", config.GetEnv(), "config environment: local, dev, prod")
	rootCmd.AddCommand(serveCmd, embedCmd, versionCmd)
}
