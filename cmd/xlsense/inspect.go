package main

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"intellisense-overlay/internal/logger"
	"intellisense-overlay/internal/overlay"
	"intellisense-overlay/internal/win32"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the focused edit control and popup placement once",
	Long: `Run a single focus poll and print the result as JSON.

"target" is null when focus is outside the host or not in an edit control.
"focus_error" is set when the focus query itself failed.`,
	Args: cobra.NoArgs,
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

// InspectResult is the JSON document printed by inspect
type InspectResult struct {
	HostPID     win32.ProcessID    `json:"host_pid"`
	AddInModule string             `json:"addin_module,omitempty"`
	Target      *overlay.Target    `json:"target"`
	Placement   *overlay.Placement `json:"placement"`
	FocusError  string             `json:"focus_error,omitempty"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	log := logger.FromContext(cmd.Context())
	app, err := NewApp(configSvc, log)
	if err != nil {
		return err
	}

	result := InspectResult{HostPID: app.win.GetHostProcessID()}

	if module, err := app.win.GetAddInModuleHandle(); err != nil {
		log.Debug("Add-in module not resolved", zap.Error(err))
	} else {
		result.AddInModule = fmt.Sprintf("0x%X", uintptr(module))
	}

	target, err := app.watcher.Poll()
	if err != nil {
		result.FocusError = err.Error()
	}
	result.Target = target
	result.Placement = app.overlay.GetPlacement()

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
