package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"intellisense-overlay/internal/logger"
	"intellisense-overlay/internal/win32"
)

var hideCmd = &cobra.Command{
	Use:   "hide <hwnd>",
	Short: "Hide a window by handle",
	Long: `Hide the window with the given handle (decimal or 0x-prefixed hex).

Reports whether the window was visible before the call. Hiding an already
hidden window is not an error.`,
	Args: cobra.ExactArgs(1),
	RunE: runHide,
}

func init() {
	rootCmd.AddCommand(hideCmd)
}

func runHide(cmd *cobra.Command, args []string) error {
	hwnd, err := parseHWND(args[0])
	if err != nil {
		return err
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	log := logger.FromContext(cmd.Context())
	svc := win32.New(win32.WithLogger(log))
	result := svc.HideWindow(hwnd)
	if result.Err != nil {
		log.Debug("HideWindow failed", zap.Stringer("hwnd", hwnd), zap.Error(result.Err))
		return fmt.Errorf("failed to hide %s: %w", hwnd, result.Err)
	}

	if result.Hidden {
		fmt.Fprintf(cmd.OutOrStdout(), "%s hidden\n", hwnd)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%s was already hidden\n", hwnd)
	}
	return nil
}
