package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/secretforge/secretforge/internal/config"
)

// NewCompletionCommand creates the completion command for generating shell completions.
func NewCompletionCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion <shell>",
		Short: "Generate a shell completion script",
		Long: `Generate a completion script for the named shell and print it to stdout.

Load it directly for the current session:

  source <(secretforge completion bash)
  secretforge completion fish | source

or install it where your shell picks it up on startup, for example:

  secretforge completion bash > /etc/bash_completion.d/secretforge
  secretforge completion zsh  > "${fpath[1]}/_secretforge"
  secretforge completion fish > ~/.config/fish/completions/secretforge.fish

PowerShell users can pipe the output through Invoke-Expression or save it
and dot-source it from their profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}

	return cmd
}
