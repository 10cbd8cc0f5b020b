package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/caoforge/capack/pkg/must"
	"github.com/caoforge/capack/pkg/version"
)

func rootMain(command *cobra.Command, arguments []string) {
	if rootConfiguration.version {
		fmt.Println(version.Version)
		return
	}

	must.CommandHelp(command, nil)
}

var rootCommand = &cobra.Command{
	Use:   "capack",
	Short: "capack classifies and packages Creation Engine mod assets.",
	Run:   rootMain,
}

var rootConfiguration struct {
	help    bool
	version bool
}

func init() {
	flags := rootCommand.Flags()
	flags.BoolVarP(&rootConfiguration.help, "help", "h", false, "Show help information")
	flags.BoolVarP(&rootConfiguration.version, "version", "V", false, "Show version information")

	cobra.EnableCommandSorting = false

	rootCommand.AddCommand(
		packCommand,
		batchCommand,
	)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		os.Exit(1)
	}
}
