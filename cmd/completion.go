package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for kit.

To load completions:

Bash:
  $ source <(kit completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ kit completion bash > /etc/bash_completion.d/kit
  # macOS:
  $ kit completion bash > $(brew --prefix)/etc/bash_completion.d/kit

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ kit completion zsh > "${fpath[1]}/_kit"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ kit completion fish | source

  # To load completions for each session, execute once:
  $ kit completion fish > ~/.config/fish/completions/kit.fish

PowerShell:
  PS> kit completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	// Completion scripts do not touch storage.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
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

func init() {
	rootCmd.AddCommand(completionCmd)
}
