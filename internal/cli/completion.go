package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/makegraph/pkg/errors"
)

func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for makegraph.

To load completions:

Bash:
  $ source <(makegraph completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ makegraph completion bash > /etc/bash_completion.d/makegraph
  # macOS:
  $ makegraph completion bash > $(brew --prefix)/etc/bash_completion.d/makegraph

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ makegraph completion zsh > "${fpath[1]}/_makegraph"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ makegraph completion fish | source

  # To load completions for each session, execute once:
  $ makegraph completion fish > ~/.config/fish/completions/makegraph.fish

PowerShell:
  PS> makegraph completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> makegraph completion powershell > makegraph.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  usageArgs(cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs)),
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
			return errors.Usage("unsupported shell %q", args[0])
		},
	}

	return cmd
}
