package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion script for anymouse.

To load completions:

Bash:
  $ source <(anymouse completion bash)
  # To load permanently:
  $ anymouse completion bash > /etc/bash_completion.d/anymouse

Zsh:
  $ anymouse completion zsh > "${fpath[1]}/_anymouse"
  $ compinit

Fish:
  $ anymouse completion fish | source
  # To load permanently:
  $ anymouse completion fish > ~/.config/fish/completions/anymouse.fish

PowerShell:
  PS> anymouse completion powershell | Out-String | Invoke-Expression
  # To load permanently, add to your PowerShell profile
`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(out(cmd))
		case "zsh":
			return rootCmd.GenZshCompletion(out(cmd))
		case "fish":
			return rootCmd.GenFishCompletion(out(cmd), true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(out(cmd))
		default:
			return fmt.Errorf("unsupported shell: %s", args[0])
		}
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
