package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sadopc/punchclock/internal/store"
)

var (
	setWorkingHours     int
	setTimezone         string
	setAutoDetectBreaks bool
	setNotifications    bool
	setEmailNotify      bool
	setAllowSharing     bool
	setShareDays        int
	setTheme            string
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change user settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update the settings named by flags",
	Example: `  punchclock settings set --timezone Europe/Berlin --working-hours 7
  punchclock settings set --allow-sharing --share-days 30`,
	Args: cobra.NoArgs,
	RunE: runSettingsSet,
}

func init() {
	f := settingsSetCmd.Flags()
	f.IntVar(&setWorkingHours, "working-hours", 8, "daily working hours target (1-24)")
	f.StringVar(&setTimezone, "timezone", "", "IANA timezone, e.g. Europe/Berlin")
	f.BoolVar(&setAutoDetectBreaks, "auto-detect-breaks", false, "detect breaks automatically")
	f.BoolVar(&setNotifications, "notifications", true, "enable notifications")
	f.BoolVar(&setEmailNotify, "email-notifications", false, "enable email notifications")
	f.BoolVar(&setAllowSharing, "allow-sharing", true, "allow report share links")
	f.IntVar(&setShareDays, "share-days", 7, "default share link lifetime in days (0 = never expires)")
	f.StringVar(&setTheme, "theme", "", "light, dark or system")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	us, err := app.tracker.GetSettings(cmd.Context(), userFlag)
	if err != nil {
		return err
	}
	printSettings(cmd.OutOrStdout(), us)
	return nil
}

// runSettingsSet only patches flags the user actually passed.
func runSettingsSet(cmd *cobra.Command, _ []string) error {
	var patch store.SettingsPatch
	f := cmd.Flags()
	if f.Changed("working-hours") {
		patch.WorkingHours = &setWorkingHours
	}
	if f.Changed("timezone") {
		patch.Timezone = &setTimezone
	}
	if f.Changed("auto-detect-breaks") {
		patch.AutoDetectBreaks = &setAutoDetectBreaks
	}
	if f.Changed("notifications") {
		patch.EnableNotifications = &setNotifications
	}
	if f.Changed("email-notifications") {
		patch.EnableEmailNotifications = &setEmailNotify
	}
	if f.Changed("allow-sharing") {
		patch.AllowSharing = &setAllowSharing
	}
	if f.Changed("share-days") {
		patch.ShareDurationDays = &setShareDays
	}
	if f.Changed("theme") {
		theme := store.Theme(setTheme)
		patch.Theme = &theme
	}
	if patch.Empty() {
		return fmt.Errorf("nothing to change; pass at least one flag (see --help)")
	}

	us, err := app.tracker.UpdateSettings(cmd.Context(), userFlag, patch)
	if err != nil {
		return err
	}
	printSettings(cmd.OutOrStdout(), us)
	return nil
}

func printSettings(w io.Writer, us *store.UserSettings) {
	fmt.Fprintf(w, "Working hours:        %d\n", us.WorkingHours)
	fmt.Fprintf(w, "Timezone:             %s\n", us.Timezone)
	fmt.Fprintf(w, "Auto-detect breaks:   %t\n", us.AutoDetectBreaks)
	fmt.Fprintf(w, "Notifications:        %t\n", us.EnableNotifications)
	fmt.Fprintf(w, "Email notifications:  %t\n", us.EnableEmailNotifications)
	fmt.Fprintf(w, "Allow sharing:        %t\n", us.AllowSharing)
	fmt.Fprintf(w, "Share duration days:  %d\n", us.ShareDurationDays)
	fmt.Fprintf(w, "Theme:                %s\n", us.Theme)
}
