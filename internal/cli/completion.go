package cli

import (
	"github.com/spf13/cobra"

	"github.com/cursor2d/cursor2d/pkg/target"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for cursor2d.

To load completions:

Bash:
  $ source <(cursor2d completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ cursor2d completion bash > /etc/bash_completion.d/cursor2d
  # macOS:
  $ cursor2d completion bash > $(brew --prefix)/etc/bash_completion.d/cursor2d

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ cursor2d completion zsh > "${fpath[1]}/_cursor2d"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ cursor2d completion fish | source

  # To load completions for each session, execute once:
  $ cursor2d completion fish > ~/.config/fish/completions/cursor2d.fish

PowerShell:
  PS> cursor2d completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> cursor2d completion powershell > cursor2d.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
			return nil
		},
	}

	return cmd
}

// completeTargets completes the --target flag.
func completeTargets(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return target.Names(), cobra.ShellCompDirectiveNoFileComp
}

// completeScripts completes script arguments by extension.
func completeScripts(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{"py", "js"}, cobra.ShellCompDirectiveFilterFileExt
}
