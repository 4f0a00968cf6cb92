package cli

import (
	"distancemeter/internal/app"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&portFlag, "port", "p", 0, "listen port (default from PORT)")
	rootCmd.AddCommand(serveCmd)
}

var portFlag int

func runServe(cmd *cobra.Command, args []string) error {
	if portFlag > 0 {
		cfg.Port = portFlag
	}

	application, err := app.NewApp(cfg, log)
	if err != nil {
		return err
	}
	defer application.Close()

	return application.Run(cmd.Context())
}
