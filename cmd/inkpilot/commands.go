package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/bastiangx/inkpilot/internal/cli"
	"github.com/bastiangx/inkpilot/internal/logger"
	"github.com/bastiangx/inkpilot/internal/utils"
	"github.com/bastiangx/inkpilot/pkg/classify"
	"github.com/bastiangx/inkpilot/pkg/config"
	"github.com/bastiangx/inkpilot/pkg/dictionary"
	"github.com/bastiangx/inkpilot/pkg/editor"
	"github.com/bastiangx/inkpilot/pkg/predict"
	"github.com/bastiangx/inkpilot/pkg/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve an editor over MessagePack on stdin/stdout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		l := logger.New(AppName)
		cfg, path := loadConfig(l)
		settings := config.NewSettings(cfg)
		provider := newProvider(l, cfg, settings)

		srv := server.NewServer(os.Stdin, os.Stdout, provider, settings)
		defer srv.Close()

		if path != "" {
			watcher, err := config.NewWatcher(path, func(c *config.Config) {
				srv.Controller().HandleSettingChanged(config.NewSettings(c))
			})
			if err != nil {
				l.Warnf("Config changes will need a restart: %v", err)
			} else {
				defer watcher.Close()
			}
		}

		l.Debug("Server ready", "pid", os.Getpid(), "config", config.GetActiveConfigPath(path))
		return srv.Start()
	},
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Drive the engine from the terminal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		l := logger.New(AppName)
		cfg, _ := loadConfig(l)
		settings := config.NewSettings(cfg)
		for _, fe := range settings.Errors {
			l.Warn("Invalid setting", "field", fe.Field, "err", fe.Msg)
		}

		p := cli.NewPlayground(cmd.InOrStdin(), cmd.OutOrStdout(), newProvider(l, cfg, settings), settings)
		defer p.Close()
		return p.Start()
	},
}

var classifyCursor int

var classifyCmd = &cobra.Command{
	Use:   "classify [text]",
	Short: "Print the context at the cursor (stdin when no text is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var text string
		if len(args) == 1 {
			text = args[0]
		} else {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			text = string(data)
		}

		cursor := classifyCursor
		if cursor < 0 {
			cursor = len([]rune(text))
		}
		snap := editor.SnapshotAt(text, cursor)
		fmt.Fprintln(cmd.OutOrStdout(), classify.Classify(snap.Prefix, snap.Suffix))
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file, replacing any existing one",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			if err := config.SaveConfig(config.DefaultConfig(), configPath); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), utils.DisplayPath(configPath))
			return nil
		}
		path, err := config.RebuildConfigFile()
		if err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the active config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path := loadConfig(logger.New(AppName))
		if errs := cfg.Validate(); errs != nil {
			for _, fe := range errs {
				fmt.Fprintln(cmd.OutOrStdout(), fe.Error())
			}
			return fmt.Errorf("%s: %d invalid setting(s)", config.GetActiveConfigPath(path), len(errs))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", config.GetActiveConfigPath(path))
		return nil
	},
}

var (
	dictOut   string
	dictChunk int
)

var dictCmd = &cobra.Command{
	Use:   "dict",
	Short: "Manage offline dictionary chunks",
}

var dictBuildCmd = &cobra.Command{
	Use:   "build <wordlist>",
	Short: `Build dict_XXXX.bin chunks from a "word [count]" list`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer file.Close()

		entries, err := dictionary.ReadWordList(file)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		files, err := dictionary.BuildChunks(dictOut, entries, dictChunk)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d words in %d chunks under %s\n", len(entries), len(files), dictOut)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show current version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		l := log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
			ReportCaller:    false,
			ReportTimestamp: false,
			Prefix:          "",
		})

		styles := log.DefaultStyles()
		styles.Values["version"] = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
			Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
		styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
		l.SetStyles(styles)

		l.Print("")
		l.Print("[ inkpilot ] Ghost text completions for your editor")
		l.Print("", "version", Version)
		l.Print("")
		l.Print("use -h or --help to see available commands")
		l.Print("Github Repo", "gh", gh)
	},
}

func init() {
	classifyCmd.Flags().IntVar(&classifyCursor, "cursor", -1, "Cursor as a rune offset (default: end of text)")

	dictBuildCmd.Flags().StringVarP(&dictOut, "out", "o", "data", "Directory for the chunk files")
	dictBuildCmd.Flags().IntVar(&dictChunk, "chunk", 10000, "Words per chunk")

	configCmd.AddCommand(configInitCmd, configCheckCmd)
	dictCmd.AddCommand(dictBuildCmd)
}

// loadConfig never fails: broken or missing files fall back to defaults.
func loadConfig(l *log.Logger) (*config.Config, string) {
	cfg, path, err := config.LoadConfigWithPriority(configPath)
	if err != nil {
		l.Warnf("Using default config: %v", err)
		return config.DefaultConfig(), ""
	}
	return cfg, path
}

// newProvider wraps the offline dictionary, or an empty backend when no chunks
// can be found.
func newProvider(l *log.Logger, cfg *config.Config, settings config.Settings) *predict.Service {
	var client predict.Client = predict.ClientFunc(func(context.Context, predict.Request) (string, error) {
		return "", nil
	})

	dir := utils.ResolveNearExecutable(cfg.Dictionary.Dir)
	dict, err := dictionary.Load(dir, cfg.Dictionary.MaxWords)
	if err != nil {
		l.Warnf("Running with an empty dictionary: %v", err)
	} else {
		l.Debugf("Using data dir at: %s", dir)
		client = dictionary.NewClient(dict, cfg.Dictionary.MinPrefix, cfg.Dictionary.MinFrequency)
	}
	return predict.NewService(client, settings)
}
