package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"intellisense-overlay/internal/config"
	"intellisense-overlay/internal/logger"
	"intellisense-overlay/internal/overlay"
	"intellisense-overlay/internal/watcher"
	"intellisense-overlay/internal/win32"
)

var watchOpts struct {
	popup        string
	popupTitle   string
	clickThrough bool
	attach       bool
	noReload     bool
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print focus events as JSON lines until interrupted",
	Long: `Poll keyboard focus and print one JSON object per line whenever a host
edit control gains focus, changes text or loses focus.

Each line carries the event type, the control snapshot and the popup
placement computed from it. With --popup or --popup-title the popup is
moved to that placement as the caret moves. The config file is watched and poll settings
are reloaded when it changes.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchOpts.popup, "popup", "",
		"Handle of a popup window to hide when focus leaves the editor (e.g. 0x000A0B2C)")
	watchCmd.Flags().StringVar(&watchOpts.popupTitle, "popup-title", "",
		"Find the popup window by its caption instead of --popup")
	watchCmd.Flags().BoolVar(&watchOpts.clickThrough, "click-through", false,
		"Let mouse input pass through the popup while watching")
	watchCmd.Flags().BoolVar(&watchOpts.attach, "attach", false,
		"Reparent the popup into the host's main window while watching")
	watchCmd.Flags().BoolVar(&watchOpts.noReload, "no-reload", false,
		"Do not reload the config file when it changes")
}

// watchLine is one line of watch output
type watchLine struct {
	Event     watcher.Event      `json:"event"`
	Placement *overlay.Placement `json:"placement"`
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log := logger.FromContext(ctx)

	app, err := NewApp(configSvc, log)
	if err != nil {
		return err
	}
	defer app.Shutdown()

	popup, err := resolvePopup(app)
	if err != nil {
		return err
	}
	var follower *popupFollower
	if popup.IsValid() {
		app.watcher.SetPopup(popup)
		follower = newPopupFollower(app.win, popup, watchOpts.attach, log)
		defer follower.Detach()

		if watchOpts.clickThrough {
			if err := app.win.SetClickThrough(popup, true); err != nil {
				log.Warn("Click-through not applied", zap.Error(err))
			} else {
				// Leave the popup clickable once we stop
				defer func() {
					if err := app.win.SetClickThrough(popup, false); err != nil {
						log.Warn("Failed to restore popup hit-testing", zap.Error(err))
					}
				}()
			}
		}
	}

	if !watchOpts.noReload {
		go func() {
			err := configSvc.Watch(ctx, func(cfg *config.Config) {
				log.Info("Config reloaded", zap.String("path", configSvc.Path()))
				app.OnConfigChange(cfg)
			}, func(err error) {
				log.Warn("Config reload failed", zap.Error(err))
			})
			if err != nil {
				log.Warn("Config watch disabled", zap.Error(err))
			}
		}()
	}

	if err := app.watcher.Start(ctx); err != nil {
		return err
	}

	return printEvents(ctx, app, json.NewEncoder(cmd.OutOrStdout()), follower)
}

// printEvents writes one line per event and moves the popup, if any
func printEvents(ctx context.Context, app *App, enc *json.Encoder, follower *popupFollower) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-app.watcher.Events():
			placement := app.overlay.GetPlacement()
			follower.Follow(ev, placement)
			if err := enc.Encode(watchLine{Event: ev, Placement: placement}); err != nil {
				return fmt.Errorf("failed to write event: %w", err)
			}
		}
	}
}

// resolvePopup returns the popup named by --popup or --popup-title, or 0
func resolvePopup(app *App) (win32.HWND, error) {
	switch {
	case watchOpts.popup != "":
		return parseHWND(watchOpts.popup)
	case watchOpts.popupTitle != "":
		popup := app.win.FindWindowByTitle(watchOpts.popupTitle)
		if !popup.IsValid() {
			return 0, fmt.Errorf("no window titled %q", watchOpts.popupTitle)
		}
		return popup, nil
	}
	return 0, nil
}

// parseHWND accepts decimal or 0x-prefixed hexadecimal handles
func parseHWND(s string) (win32.HWND, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid window handle %q: %w", s, err)
	}
	if v == 0 {
		return 0, fmt.Errorf("invalid window handle %q: must be non-zero", s)
	}
	return win32.HWND(v), nil
}
