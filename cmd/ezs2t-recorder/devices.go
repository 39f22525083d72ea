package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var devicesJSON bool

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List recording devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, cleanup, err := newManager()
		if err != nil {
			return err
		}
		defer cleanup()

		devices, err := manager.EnumerateRecordingDevices()
		if err != nil && len(devices) == 0 {
			return err
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: device list is incomplete: %v\n", err)
		}

		if devicesJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(devices)
		}

		for _, d := range devices {
			marker := " "
			if d.Label == cfg.DeviceName {
				marker = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, d.Label)
		}
		return nil
	},
}

func init() {
	devicesCmd.Flags().BoolVar(&devicesJSON, "json", false, "print devices as JSON")
}
