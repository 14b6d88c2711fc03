package cmd

import (
	"blocks/game"
	"blocks/meta"
	"blocks/server"

	"github.com/spf13/cobra"
)

func serveCommand() *cobra.Command {
	var (
		kindName   string
		addr       string
		checkpoint string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve moves for an external game over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if kindName == "" {
				kindName = cfg.Agent.Kind
			}
			a, _, err := restoredAgent(cmd, cfg, kindName, checkpoint)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := interruptible()
			defer stop()
			return server.New(a, game.NewEnvironment(cfg.EnvOptions(0)...)).Serve(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&kindName, "agent", "", "Agent kind: value, tree, policy or heuristic")
	cmd.Flags().StringVar(&addr, "addr", meta.SERVE_ADDR, "Listen address")
	cmd.Flags().StringVar(&checkpoint, "checkpoint", "", "Checkpoint key, defaults to <store key>-<agent>")
	return cmd
}
