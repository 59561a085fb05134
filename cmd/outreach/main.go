package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mindlinks/outreach/internal/app"
	"github.com/mindlinks/outreach/internal/config"
	"github.com/mindlinks/outreach/internal/scheduler"
	"github.com/mindlinks/outreach/internal/template"
)

var (
	cfgFile string
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "outreach",
	Short: "Outreach - email campaign bot",
	Long: `Outreach sends templated campaign emails, tracks click-through
responses, and follows up with timed reminders until a contact
responds or the reminder cap is reached.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Optional .env next to the binary, same keys the config
		// layer reads from the environment
		_ = godotenv.Load()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the response endpoint and reminder scheduler",
	Long: `Start the response endpoint and the reminder scheduler without
kicking off a campaign. Reminder jobs persisted by earlier runs are
recovered and fired on time.`,
	RunE: runServe,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Campaign commands",
}

var runNowCmd = &cobra.Command{
	Use:   "now [interval-minutes]",
	Short: "Run the campaign immediately",
	Long: `Send the initial campaign email to every pending contact, then keep
serving so reminders fire and responses are tracked. The optional
argument overrides the reminder interval in minutes.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNow,
}

var runScheduleCmd = &cobra.Command{
	Use:   "schedule <day> <hour> [minute] [interval-minutes]",
	Short: "Run the campaign weekly at a fixed day and time",
	Long: `Serve continuously and fire a campaign pass every week at the given
weekday and time, e.g. "outreach run schedule monday 9 30".`,
	Args: cobra.RangeArgs(2, 4),
	RunE: runSchedule,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	RunE:  runConfigValidate,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("outreach version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")

	runCmd.AddCommand(runNowCmd, runScheduleCmd)
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(serveCmd, runCmd, configCmd, versionCmd, contactsCmd, statsCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func runApp(opts app.RunOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	return application.Run(context.Background(), opts)
}

func runServe(cmd *cobra.Command, args []string) error {
	return runApp(app.RunOptions{})
}

func runNow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(args) == 1 {
		minutes, err := strconv.Atoi(args[0])
		if err != nil || minutes <= 0 {
			return fmt.Errorf("invalid interval %q: want a positive number of minutes", args[0])
		}
		cfg.Campaign.IntervalMinutes = minutes
	}

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	return application.Run(context.Background(), app.RunOptions{RunNow: true})
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	day, err := scheduler.ParseWeekday(args[0])
	if err != nil {
		return err
	}
	hour, err := strconv.Atoi(args[1])
	if err != nil || hour < 0 || hour > 23 {
		return fmt.Errorf("invalid hour %q: want 0-23", args[1])
	}

	minute := 0
	if len(args) >= 3 {
		minute, err = strconv.Atoi(args[2])
		if err != nil || minute < 0 || minute > 59 {
			return fmt.Errorf("invalid minute %q: want 0-59", args[2])
		}
	}
	if len(args) == 4 {
		minutes, err := strconv.Atoi(args[3])
		if err != nil || minutes <= 0 {
			return fmt.Errorf("invalid interval %q: want a positive number of minutes", args[3])
		}
		cfg.Campaign.IntervalMinutes = minutes
	}

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	return application.Run(context.Background(), app.RunOptions{
		Weekly: &app.WeeklySchedule{Day: day, Hour: hour, Minute: minute},
	})
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}

	if err := template.NewEngine(cfg.Campaign.TemplatePath).Validate(); err != nil {
		return fmt.Errorf("email template is invalid: %w", err)
	}

	fmt.Printf("Configuration is valid\n")
	fmt.Printf("  SMTP: %s:%d\n", cfg.SMTP.Host, cfg.SMTP.Port)
	fmt.Printf("  Sender: %s <%s>\n", cfg.SMTP.SenderName, cfg.SMTP.SenderEmail)
	fmt.Printf("  HTTP: %s\n", cfg.HTTP.ListenAddr)
	fmt.Printf("  Storage: %s\n", cfg.Storage.Path)
	fmt.Printf("  Reminders: max %d every %s\n", cfg.Campaign.MaxReminders, cfg.Campaign.Interval())

	return nil
}
