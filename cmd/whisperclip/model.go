package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/whisperclip/whisperclip/internal/models/whisper"
)

func modelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Manage local whisper models",
	}

	cmd.AddCommand(modelListCmd())
	cmd.AddCommand(modelDownloadCmd())
	cmd.AddCommand(modelRemoveCmd())

	return cmd
}

func modelListCmd() *cobra.Command {
	var multilingual, english bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List whisper models; [x] marks downloaded ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			models := whisper.ListModels()
			switch {
			case multilingual && english:
				return fmt.Errorf("--multilingual and --english are exclusive")
			case multilingual:
				models = whisper.ListMultilingualModels()
			case english:
				models = whisper.ListEnglishOnlyModels()
			}
			for _, m := range models {
				fmt.Println(formatModelLine(m, whisper.IsInstalled(m.ID)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&multilingual, "multilingual", false, "only multilingual models")
	cmd.Flags().BoolVar(&english, "english", false, "only English-only models")

	return cmd
}

func formatModelLine(m whisper.ModelInfo, installed bool) string {
	prefix := "[ ]"
	if installed {
		prefix = "[x]"
	}
	var parts []string
	if m.Multilingual {
		parts = append(parts, "multilingual")
	} else {
		parts = append(parts, "english")
	}
	parts = append(parts, m.Size())
	return fmt.Sprintf("  %s %s - %s [%s]", prefix, m.ID, m.Name, strings.Join(parts, ", "))
}

func modelDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download <model-id>",
		Short: "Download a whisper model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModelDownload(cmd.Context(), args[0])
		},
	}
}

func runModelDownload(ctx context.Context, id string) error {
	info := whisper.GetModel(id)
	if info == nil {
		return fmt.Errorf("unknown model: %s", id)
	}

	if whisper.IsInstalled(id) {
		fmt.Printf("model '%s' is already installed at %s\n", id, whisper.GetModelPath(id))
		return nil
	}

	fmt.Printf("downloading %s (%s)...\n", id, info.Size())

	var lastPercent int
	err := whisper.Download(ctx, id, func(downloaded, total int64) {
		if total > 0 {
			percent := int(downloaded * 100 / total)
			if percent >= lastPercent+10 {
				fmt.Printf("%d%% ", percent)
				lastPercent = percent
			}
		}
	})
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	fmt.Printf("\ndownload complete: %s\n", whisper.GetModelPath(id))
	return nil
}

func modelRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <model-id>",
		Short: "Remove a downloaded whisper model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if whisper.GetModel(id) == nil {
				return fmt.Errorf("unknown model: %s", id)
			}
			if !whisper.IsInstalled(id) {
				return fmt.Errorf("model '%s' is not installed", id)
			}
			if err := whisper.Remove(id); err != nil {
				return fmt.Errorf("failed to remove model: %w", err)
			}
			fmt.Printf("model '%s' removed successfully\n", id)
			return nil
		},
	}
}
