package branchwire

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

type CLIConfig struct {
	ConfigPath    string
	Target        string
	DryRun        bool
	Nvim          bool
	Undo          bool
	Redo          bool
	Copy          bool
	NoPatchSource bool
	NoAddSDK      bool
	Verbose       bool
	NoAnimation   bool
	Completion    string
}

var cfg = &CLIConfig{}

var rootCmd = &cobra.Command{
	Use:   "branchwire",
	Short: "Integrate the Branch SDK into an iOS project's sources.",
	Long: `Patch the app delegate, bridging header, messages view controller and
Podfile or Cartfile of an iOS project so that it uses the Branch SDK.

The project is described by branchwire.yaml in the current directory.
Running again on an integrated project changes nothing.

Example: branchwire --dry-run`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Completion != "" {
			return handleCompletion(cmd)
		}

		if cfg.Undo && cfg.Redo {
			return fmt.Errorf("--undo and --redo are mutually exclusive")
		}
		if cfg.DryRun && (cfg.Undo || cfg.Redo) {
			return fmt.Errorf("--dry-run cannot be combined with --undo or --redo")
		}

		app, err := NewApp(&Options{
			ConfigPath:    cfg.ConfigPath,
			Target:        cfg.Target,
			DryRun:        cfg.DryRun,
			Nvim:          cfg.Nvim,
			Undo:          cfg.Undo,
			Redo:          cfg.Redo,
			NoPatchSource: cfg.NoPatchSource,
			NoAddSDK:      cfg.NoAddSDK,
			Copy:          cfg.Copy,
			Logger:        newLogger(cfg.Verbose),
		})
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}

		ui := NewTUI(app, cfg.NoAnimation)
		return ui.Run()
	},
}

var patchesCmd = &cobra.Command{
	Use:   "patches",
	Short: "List the patches in the built-in catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := DefaultCatalog()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, name := range catalog.Names() {
			def, _ := catalog.Get(name)
			fmt.Fprintf(out, "%-60s %s\n", name, def.Mode)
		}
		return nil
	},
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func handleCompletion(cmd *cobra.Command) error {
	switch cfg.Completion {
	case "bash":
		return cmd.Root().GenBashCompletion(os.Stdout)
	case "zsh":
		return cmd.Root().GenZshCompletion(os.Stdout)
	case "fish":
		return cmd.Root().GenFishCompletion(os.Stdout, true)
	case "powershell":
		return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
	default:
		return fmt.Errorf("unsupported shell for completion: %s", cfg.Completion)
	}
}

func init() {
	rootCmd.Flags().StringVar(&cfg.Completion, "completion", "", "Generate completion script")
	rootCmd.Flags().StringVarP(&cfg.ConfigPath, "config", "c", "", "Project description (- reads stdin or the clipboard)")
	rootCmd.Flags().StringVarP(&cfg.Target, "target", "t", "", "Override the target name")
	rootCmd.Flags().BoolVarP(&cfg.DryRun, "dry-run", "n", false, "Print diffs instead of writing")
	rootCmd.Flags().BoolVar(&cfg.Nvim, "nvim", false, "Write through Neovim buffers")
	rootCmd.Flags().BoolVarP(&cfg.Undo, "undo", "u", false, "Undo last run")
	rootCmd.Flags().BoolVarP(&cfg.Redo, "redo", "r", false, "Redo last run")
	rootCmd.Flags().BoolVar(&cfg.Copy, "copy", false, "Copy modified paths to the clipboard")
	rootCmd.Flags().BoolVar(&cfg.NoPatchSource, "no-patch-source", false, "Leave source files alone")
	rootCmd.Flags().BoolVar(&cfg.NoAddSDK, "no-add-sdk", false, "Leave the Podfile or Cartfile alone")
	rootCmd.Flags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "Log variant selection")
	rootCmd.Flags().BoolVar(&cfg.NoAnimation, "no-animation", false, "Disable spinner")

	rootCmd.AddCommand(patchesCmd)
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
}

func Execute() error {
	return rootCmd.Execute()
}
