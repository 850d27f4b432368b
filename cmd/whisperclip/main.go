package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/whisperclip/whisperclip/internal/bus"
	"github.com/whisperclip/whisperclip/internal/config"
	"github.com/whisperclip/whisperclip/internal/daemon"
	"github.com/whisperclip/whisperclip/internal/logging"
	"github.com/whisperclip/whisperclip/internal/tui"
)

// The tray and the global hotkey need the main OS thread on macOS.
func init() {
	runtime.LockOSThread()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "whisperclip",
	Short: "Dictate into the clipboard with a local Whisper model",
}

func init() {
	rootCmd.AddCommand(
		serveCmd(),
		busCmd("toggle", "Toggle recording on/off", bus.CmdToggle),
		busCmd("status", "Get current recording status", bus.CmdStatus),
		busCmd("version", "Get protocol version", bus.CmdVersion),
		busCmd("stop", "Stop the daemon", bus.CmdQuit),
		configureCmd(),
		modelCmd(),
		devicesCmd(),
		doctorCmd(),
	)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	mgr, err := config.NewManager()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg := mgr.GetConfig()

	closer, err := logging.Setup(cfg.ToLoggingConfig())
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer closer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.StartWatching(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "warning: config changes will not be reported: %v\n", err)
	}
	defer mgr.Stop()

	d, err := daemon.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}
	return d.Run()
}

// busCmd sends a single control command to the running daemon and prints
// its reply.
func busCmd(use, short string, cmd byte) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(c *cobra.Command, args []string) error {
			resp, err := bus.SendCommand(cmd)
			if err != nil {
				return fmt.Errorf("failed to %s: %w", use, err)
			}
			fmt.Print(resp)
			return nil
		},
	}
}

func configureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Interactive configuration setup",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure()
		},
	}
}

func runConfigure() error {
	path, err := config.GetConfigPath()
	if err != nil {
		return err
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	result, err := tui.Run(cfg)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if result.Cancelled {
		fmt.Println("Configuration cancelled.")
		return nil
	}

	if err := config.Save(path, result.Config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println(tui.StyleSuccess.Render("Configuration saved to " + path))
	if _, err := bus.SendCommand(bus.CmdVersion); err == nil {
		fmt.Println("Restart the daemon to apply: whisperclip stop && whisperclip serve")
	} else {
		fmt.Println("Start the daemon: whisperclip serve")
	}
	return nil
}
