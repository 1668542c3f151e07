package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/trooptools/shiftwise/internal/config"
	"github.com/trooptools/shiftwise/pkg/clients/mailclient"
	"github.com/trooptools/shiftwise/pkg/core/model"
	"github.com/trooptools/shiftwise/pkg/core/services"
	"github.com/trooptools/shiftwise/pkg/db"
	"github.com/trooptools/shiftwise/pkg/postgres"
	"github.com/trooptools/shiftwise/pkg/utils"
	"github.com/trooptools/shiftwise/pkg/utils/logging"
)

// App holds the application dependencies
type App struct {
	cfg        *config.Config
	database   *postgres.DB
	mailClient *mailclient.Client
	logger     *zap.Logger
	ctx        context.Context
}

var (
	configPath string
	app        *App
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "shiftwise",
		Short: "ShiftWise CLI - Manage troop fundraising shifts",
		Long:  `A CLI tool for managing fundraising season schedules, volunteer signups, and attendance.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil {
				if app.database != nil {
					app.database.Close()
				}
				if app.logger != nil {
					app.logger.Sync()
				}
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to shiftwise.yaml (defaults to current or home directory)")

	rootCmd.AddCommand(generateScheduleCmd())
	rootCmd.AddCommand(publishScheduleCmd())
	rootCmd.AddCommand(createShiftCmd())
	rootCmd.AddCommand(weekCmd())
	rootCmd.AddCommand(listShiftsCmd())
	rootCmd.AddCommand(shiftAttendanceCmd())
	rootCmd.AddCommand(markNoShowCmd())
	rootCmd.AddCommand(linkScoutCmd())
	rootCmd.AddCommand(regenLinkCodeCmd())
	rootCmd.AddCommand(listUsersCmd())
	rootCmd.AddCommand(interactiveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, and the database connection
func initApp() error {
	var err error
	app = &App{
		ctx: context.Background(),
	}

	app.logger, err = logging.InitLogger("cli")
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.logger.Info("Loading configuration")
	if configPath != "" {
		app.cfg, err = config.LoadFromPath(configPath)
	} else {
		app.cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.logger.Debug("Configuration loaded successfully")

	app.logger.Info("Connecting to database")
	app.database, err = postgres.NewDB(app.ctx, app.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := app.database.RunMigrations(app.ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	app.logger.Debug("Database ready")

	return nil
}

// messenger lazily initializes the Gmail broadcast client. Commands that
// never send mail skip the OAuth flow entirely.
func (a *App) messenger() (db.MessagingService, error) {
	if a.mailClient != nil {
		return a.mailClient, nil
	}

	a.logger.Info("Initializing gmail client")
	oauthCfg, err := config.LoadOAuthClient()
	if err != nil {
		return nil, fmt.Errorf("failed to load OAuth client config: %w", err)
	}

	oauthConfig, err := utils.GetOAuthConfig(oauthCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build oauth config: %w", err)
	}

	token, err := utils.GetTokenWithFlow(a.ctx, oauthConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain oauth token: %w", err)
	}

	a.mailClient, err = mailclient.NewClient(a.ctx, oauthCfg, token, a.database, a.database, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail client: %w", err)
	}

	return a.mailClient, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

func parseTimeOfDay(s string) (time.Time, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	return t, nil
}

func generateScheduleCmd() *cobra.Command {
	var (
		seasonID   string
		seasonName string
		startDate  string
		endDate    string
		location   string
		templates  []string
		excluded   []string
		specials   []string
	)

	cmd := &cobra.Command{
		Use:   "generateSchedule",
		Short: "Generate draft shifts for a season from templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseDate(startDate)
			if err != nil {
				return err
			}
			end, err := parseDate(endDate)
			if err != nil {
				return err
			}

			var excludedDates []time.Time
			for _, raw := range excluded {
				d, err := parseDate(raw)
				if err != nil {
					return err
				}
				excludedDates = append(excludedDates, d)
			}

			specialEvents, err := parseSpecialEvents(specials)
			if err != nil {
				return err
			}

			if err := applyTemplateOverrides(templates); err != nil {
				return err
			}

			app.logger.Info("generateSchedule command",
				zap.String("season_id", seasonID),
				zap.Strings("templates", templates))

			result, err := services.GenerateSchedule(app.ctx, app.database, app.logger, services.GenerateScheduleRequest{
				SeasonID:        seasonID,
				SeasonName:      seasonName,
				StartDate:       start,
				EndDate:         end,
				DefaultLocation: location,
				TemplateIDs:     templates,
				ExcludedDates:   excludedDates,
				SpecialEvents:   specialEvents,
			})
			if err != nil {
				return fmt.Errorf("failed to generate schedule: %w", err)
			}

			color.Green("\nSchedule generated")
			fmt.Printf("  Shifts created:    %d\n", result.ShiftsCreated)
			fmt.Printf("  Dates with shifts: %d\n", result.DatesWithShifts)
			fmt.Printf("  Special events:    %d\n", result.SpecialEventCount)
			fmt.Printf("  Volunteer slots:   %d\n", result.TotalVolunteerSlots)
			return nil
		},
	}

	cmd.Flags().StringVar(&seasonID, "season", "", "Season ID (required)")
	cmd.Flags().StringVar(&seasonName, "name", "", "Season name, used when the season does not exist yet")
	cmd.Flags().StringVar(&startDate, "start", "", "Season start date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&endDate, "end", "", "Season end date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&location, "location", "", "Default location for templates without one")
	cmd.Flags().StringSliceVar(&templates, "template", nil, "Template ID, repeatable (required)")
	cmd.Flags().StringSliceVar(&excluded, "exclude", nil, "Date to skip, YYYY-MM-DD, repeatable")
	cmd.Flags().StringSliceVar(&specials, "special", nil, "Special event as date=templateID=label, repeatable")
	cmd.MarkFlagRequired("season")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")
	cmd.MarkFlagRequired("template")

	return cmd
}

// parseSpecialEvents parses date=templateID=label flags
func parseSpecialEvents(raw []string) ([]model.SpecialEventConfig, error) {
	var events []model.SpecialEventConfig
	for _, entry := range raw {
		parts := strings.SplitN(entry, "=", 3)
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid special event %q, expected date=templateID=label", entry)
		}
		date, err := parseDate(parts[0])
		if err != nil {
			return nil, err
		}
		event := model.SpecialEventConfig{Date: date, TemplateID: parts[1]}
		if len(parts) == 3 {
			event.Label = parts[2]
		}
		events = append(events, event)
	}
	return events, nil
}

// applyTemplateOverrides pins configured recurrence rules onto the requested
// templates before generation
func applyTemplateOverrides(templateIDs []string) error {
	for _, override := range app.cfg.TemplateOverrides {
		for _, id := range templateIDs {
			if override.TemplateID != id {
				continue
			}
			template, err := app.database.GetTemplate(app.ctx, id)
			if err != nil {
				return fmt.Errorf("failed to fetch template for override: %w", err)
			}
			if template.Recurrence == override.RRule {
				continue
			}
			template.Recurrence = override.RRule
			if err := app.database.UpdateTemplate(app.ctx, template); err != nil {
				return fmt.Errorf("failed to apply recurrence override: %w", err)
			}
			app.logger.Info("Applied recurrence override",
				zap.String("template_id", id),
				zap.String("rrule", override.RRule))
		}
	}
	return nil
}

func publishScheduleCmd() *cobra.Command {
	var (
		seasonID string
		notify   bool
		title    string
		body     string
	)

	cmd := &cobra.Command{
		Use:   "publishSchedule",
		Short: "Publish a season's draft shifts and notify volunteers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.logger.Info("publishSchedule command", zap.String("season_id", seasonID))

			var msgr db.MessagingService
			if notify {
				var err error
				msgr, err = app.messenger()
				if err != nil {
					return err
				}
			}

			result, err := services.PublishSchedule(app.ctx, app.database, msgr, app.logger, services.PublishScheduleRequest{
				SeasonID:         seasonID,
				SendNotification: notify,
				Title:            title,
				Body:             body,
			})
			if err != nil {
				return fmt.Errorf("failed to publish schedule: %w", err)
			}

			color.Green("\nSchedule published")
			fmt.Printf("  Shifts published:  %d\n", result.ShiftsPublished)
			fmt.Printf("  Notification sent: %t\n", result.NotificationSent)
			return nil
		},
	}

	cmd.Flags().StringVar(&seasonID, "season", "", "Season ID (required)")
	cmd.Flags().BoolVar(&notify, "notify", false, "Broadcast a notification to volunteers")
	cmd.Flags().StringVar(&title, "title", "", "Custom notification title")
	cmd.Flags().StringVar(&body, "body", "", "Custom notification body")
	cmd.MarkFlagRequired("season")

	return cmd
}

func createShiftCmd() *cobra.Command {
	var (
		date      string
		startTime string
		endTime   string
		scouts    int
		parents   int
		location  string
		label     string
		notes     string
		publish   bool
		notify    bool
	)

	cmd := &cobra.Command{
		Use:   "createShift",
		Short: "Create a single shift outside of bulk generation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDate(date)
			if err != nil {
				return err
			}
			start, err := parseTimeOfDay(startTime)
			if err != nil {
				return err
			}
			end, err := parseTimeOfDay(endTime)
			if err != nil {
				return err
			}

			startAt := time.Date(day.Year(), day.Month(), day.Day(), start.Hour(), start.Minute(), 0, 0, time.UTC)
			endAt := time.Date(day.Year(), day.Month(), day.Day(), end.Hour(), end.Minute(), 0, 0, time.UTC)

			var msgr db.MessagingService
			if publish && notify {
				msgr, err = app.messenger()
				if err != nil {
					return err
				}
			}

			result, err := services.CreateShift(app.ctx, app.database, msgr, app.logger, services.CreateShiftRequest{
				Date:               day,
				StartTime:          startAt,
				EndTime:            endAt,
				RequiredScouts:     scouts,
				RequiredParents:    parents,
				Location:           location,
				Label:              label,
				Notes:              notes,
				PublishImmediately: publish,
				NotifyOnPublish:    notify,
			})
			if err != nil {
				return fmt.Errorf("failed to create shift: %w", err)
			}

			color.Green("\nShift created: %s", result.Shift.ID)
			fmt.Printf("  %s %s to %s at %s (%s)\n",
				result.Shift.Date.Format("2006-01-02"),
				result.Shift.StartTime.Format("15:04"),
				result.Shift.EndTime.Format("15:04"),
				result.Shift.Location,
				result.Shift.Status)
			if publish && notify && !result.NotificationSent {
				color.Yellow("  Notification could not be sent")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Shift date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&startTime, "from", "", "Start time, HH:MM (required)")
	cmd.Flags().StringVar(&endTime, "to", "", "End time, HH:MM (required)")
	cmd.Flags().IntVar(&scouts, "scouts", 0, "Required scout slots")
	cmd.Flags().IntVar(&parents, "parents", 0, "Required parent slots")
	cmd.Flags().StringVar(&location, "location", "", "Shift location (required)")
	cmd.Flags().StringVar(&label, "label", "", "Display label")
	cmd.Flags().StringVar(&notes, "notes", "", "Notes shown to volunteers")
	cmd.Flags().BoolVar(&publish, "publish", false, "Publish immediately instead of creating a draft")
	cmd.Flags().BoolVar(&notify, "notify", false, "Broadcast a notification when publishing")
	cmd.MarkFlagRequired("date")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")
	cmd.MarkFlagRequired("location")

	return cmd
}

func weekCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "week [date]",
		Short: "Show the week schedule around a date (defaults to today)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reference := time.Now().UTC()
			if len(args) == 1 {
				parsed, err := parseDate(args[0])
				if err != nil {
					return err
				}
				reference = parsed
			}

			week, err := services.GetWeekSchedule(app.ctx, app.database, app.logger, reference)
			if err != nil {
				return fmt.Errorf("failed to fetch week schedule: %w", err)
			}

			color.Cyan("\nWeek of %s\n", week.WeekStart.Format("2006-01-02"))
			for _, day := range week.Days {
				fmt.Printf("%s (%s)\n", day.Date.Format("2006-01-02"), day.Date.Weekday())
				if len(day.Shifts) == 0 {
					fmt.Println("  no shifts")
					continue
				}
				for _, shift := range day.Shifts {
					name := shift.Label
					if name == "" {
						name = shift.Location
					}
					fmt.Printf("  %s-%s  %-24s scouts %d/%d  parents %d/%d  [%s]\n",
						shift.StartTime.Format("15:04"),
						shift.EndTime.Format("15:04"),
						name,
						shift.CurrentScouts, shift.RequiredScouts,
						shift.CurrentParents, shift.RequiredParents,
						shift.Status)
				}
			}
			return nil
		},
	}
}

func listShiftsCmd() *cobra.Command {
	var seasonID string

	cmd := &cobra.Command{
		Use:   "listShifts",
		Short: "List all shifts in a season",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			shifts, err := app.database.GetShiftsBySeason(app.ctx, seasonID)
			if err != nil {
				return fmt.Errorf("failed to list shifts: %w", err)
			}

			fmt.Printf("\nFound %d shifts in season %s:\n\n", len(shifts), seasonID)
			for _, shift := range shifts {
				name := shift.Label
				if name == "" {
					name = shift.Location
				}
				fmt.Printf("- %s  %s %s-%s  %-24s scouts %d/%d  parents %d/%d  [%s]\n",
					shift.ID,
					shift.Date.Format("2006-01-02"),
					shift.StartTime.Format("15:04"),
					shift.EndTime.Format("15:04"),
					name,
					shift.CurrentScouts, shift.RequiredScouts,
					shift.CurrentParents, shift.RequiredParents,
					shift.Status)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&seasonID, "season", "", "Season ID (required)")
	cmd.MarkFlagRequired("season")

	return cmd
}

func shiftAttendanceCmd() *cobra.Command {
	var requestedBy string

	cmd := &cobra.Command{
		Use:   "shiftAttendance <shiftID>",
		Short: "Show the attendance rollup for a shift",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := services.GetShiftAttendance(app.ctx, app.database, app.logger, args[0], requestedBy)
			if err != nil {
				return fmt.Errorf("failed to fetch shift attendance: %w", err)
			}

			color.Cyan("\nAttendance for shift %s on %s\n", details.Shift.ID, details.Shift.Date.Format("2006-01-02"))
			for _, entry := range details.Entries {
				walkIn := ""
				if entry.IsWalkIn {
					walkIn = " (walk-in)"
				}
				fmt.Printf("  %-24s %-12s%s\n", entry.UserName, entry.Status, walkIn)
			}
			fmt.Printf("\n  Checked in:  %d\n", details.CheckedInCount)
			fmt.Printf("  Checked out: %d\n", details.CheckedOutCount)
			fmt.Printf("  No-shows:    %d\n", details.NoShowCount)
			fmt.Printf("  Total hours: %.2f\n", details.TotalHoursWorked)
			return nil
		},
	}

	cmd.Flags().StringVar(&requestedBy, "by", "", "User ID of the requesting leader (required)")
	cmd.MarkFlagRequired("by")

	return cmd
}

func markNoShowCmd() *cobra.Command {
	var (
		requestedBy string
		notes       string
	)

	cmd := &cobra.Command{
		Use:   "markNoShow <assignmentID>",
		Short: "Mark an assignment holder as a no-show",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := services.MarkNoShow(app.ctx, app.database, app.logger, services.MarkNoShowRequest{
				AssignmentID: args[0],
				RequestedBy:  requestedBy,
				Notes:        notes,
			})
			if err != nil {
				return fmt.Errorf("failed to mark no-show: %w", err)
			}

			color.Green("Marked no-show, attendance record %s", result.AttendanceRecordID)
			return nil
		},
	}

	cmd.Flags().StringVar(&requestedBy, "by", "", "User ID of the requesting leader (required)")
	cmd.Flags().StringVar(&notes, "notes", "", "Additional notes for the audit trail")
	cmd.MarkFlagRequired("by")

	return cmd
}

func linkScoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "linkScout <scoutID> <householdID>",
		Short: "Attach a scout account to a household",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.database.LinkScoutToHousehold(app.ctx, args[0], args[1]); err != nil {
				return fmt.Errorf("failed to link scout: %w", err)
			}
			color.Green("Linked scout %s to household %s", args[0], args[1])
			return nil
		},
	}
}

func regenLinkCodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "regenLinkCode <householdID>",
		Short: "Replace a household's link code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := app.database.RegenerateHouseholdLinkCode(app.ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to regenerate link code: %w", err)
			}
			color.Green("New link code: %s", code)
			return nil
		},
	}
}

func listUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listUsers",
		Short: "List all registered volunteers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := app.database.GetUsers(app.ctx)
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}

			fmt.Printf("\nFound %d users:\n\n", len(users))
			for _, u := range users {
				status := "active"
				if !u.Active {
					status = "inactive"
				}
				household := ""
				if u.HouseholdID != "" {
					household = fmt.Sprintf(" [Household: %s]", u.HouseholdID)
				}
				fmt.Printf("- %s (%s) - %s - %s - %s%s\n",
					u.FullName(), u.ID, u.Role, status, u.Email, household)
			}
			return nil
		},
	}
}

func interactiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Start an interactive session (connect once, run multiple commands)",
		Long: `Start an interactive session where you can run multiple commands against one
database connection. The session keeps running until you type 'exit' or 'quit'.

Type 'help' to see available commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("\nStarting interactive session...")
			fmt.Println("Type 'help' for available commands, 'exit' or 'quit' to leave")

			rootCmd := cmd.Parent()
			commands := make(map[string]*cobra.Command)
			for _, subCmd := range rootCmd.Commands() {
				if subCmd.Name() != "interactive" && subCmd.Name() != "completion" && subCmd.Name() != "help" {
					commands[subCmd.Name()] = subCmd
				}
			}

			scanner := bufio.NewScanner(os.Stdin)

			for {
				fmt.Print("> ")

				if !scanner.Scan() {
					break
				}

				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}

				parts := strings.Fields(line)
				cmdName := parts[0]
				cmdArgs := parts[1:]

				if cmdName == "exit" || cmdName == "quit" {
					fmt.Println("Goodbye!")
					return nil
				}

				if cmdName == "help" {
					printInteractiveHelp(commands)
					continue
				}

				targetCmd, exists := commands[cmdName]
				if !exists {
					fmt.Printf("Unknown command: %s (type 'help' for available commands)\n\n", cmdName)
					continue
				}

				// Reset command flags between runs
				targetCmd.Flags().VisitAll(func(flag *pflag.Flag) {
					flag.Changed = false
					flag.Value.Set(flag.DefValue)
				})

				// Run the command directly, bypassing PersistentPreRunE so the
				// app is not re-initialized
				if err := targetCmd.ParseFlags(cmdArgs); err != nil {
					fmt.Printf("Error parsing flags: %v\n\n", err)
					continue
				}

				cmdArgs = targetCmd.Flags().Args()

				if err := targetCmd.Args(targetCmd, cmdArgs); err != nil {
					fmt.Printf("Error: %v\n\n", err)
					continue
				}

				if err := targetCmd.RunE(targetCmd, cmdArgs); err != nil {
					color.Red("Error: %v\n", err)
				}
			}

			if err := scanner.Err(); err != nil {
				return fmt.Errorf("error reading input: %w", err)
			}

			return nil
		},
	}
}

func printInteractiveHelp(commands map[string]*cobra.Command) {
	fmt.Println("\nAvailable commands:")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}

	for _, name := range names {
		cmd := commands[name]
		fmt.Printf("  %-30s %s\n", cmd.Use, cmd.Short)
	}

	fmt.Println("\n  help                           Show this help message")
	fmt.Println("  exit, quit                     Exit the interactive session")
}
