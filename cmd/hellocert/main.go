package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	cl := &client{
		BaseURL: envOr("HELLOCERT_URL", "http://localhost:8080"),
	}
	timeout := 60 * time.Second

	root := &cobra.Command{
		Use:           "hellocert",
		Short:         "CLI para emitir, descargar, verificar e inspeccionar certificados",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cl.init(timeout)
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&cl.BaseURL, "url", cl.BaseURL, "URL base del servicio (env HELLOCERT_URL)")
	root.PersistentFlags().DurationVar(&timeout, "timeout", timeout, "timeout por request")

	root.AddCommand(
		newIssueCmd(cl),
		newFetchCmd(cl),
		newVerifyCmd(cl),
		newKeysCmd(),
		newInspectCmd(),
	)
	return root
}
