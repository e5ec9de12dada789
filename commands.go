package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"initiativehub/auth"
	"initiativehub/cache"
	"initiativehub/db"
	"initiativehub/fieldrules"
	"initiativehub/importer"
	"initiativehub/models"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		_, closeDB, err := openDatabase(cfg, log)
		if err != nil {
			return err
		}
		defer closeDB()

		log.Info("schema migrated", zap.String("driver", cfg.Database.Driver))
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert default statuses, priorities, navigation and field settings",
	Long: `Inserts the default configuration rows that are missing. When
auth.admin_email and auth.admin_password are set and no admin exists yet,
the admin account is created too. Safe to run repeatedly.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		conn, closeDB, err := openDatabase(cfg, log)
		if err != nil {
			return err
		}
		defer closeDB()

		admin, err := bootstrapAdmin(cfg, auth.NewService(cfg.Auth))
		if err != nil {
			return err
		}
		if err := db.Seed(conn, admin); err != nil {
			return err
		}
		log.Info("database seeded", zap.Bool("admin_configured", admin != nil))
		return nil
	},
}

var (
	importFile          string
	importCreateMissing bool
	importDryRun        bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import initiatives from a spreadsheet paste",
	Long: `Reads tab, comma, semicolon or pipe separated rows and creates one
initiative per row. Use --file - to read from stdin.

Example:
  initiativehub import --file rows.tsv --create-missing`,
	RunE: runImportCmd,
}

func runImportCmd(cmd *cobra.Command, _ []string) error {
	if importFile == "" {
		return errors.New("--file is required")
	}

	var (
		data []byte
		err  error
	)
	if importFile == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(importFile)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", importFile, err)
	}

	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	conn, closeDB, err := openDatabase(cfg, log)
	if err != nil {
		return err
	}
	defer closeDB()

	var existing []models.ConfigItem
	if err := conn.Order("category asc, sort_order asc, id asc").Find(&existing).Error; err != nil {
		return fmt.Errorf("load config items: %w", err)
	}

	var fields []models.FieldConfiguration
	if err := conn.Where("entity = ?", models.EntityInitiative).Find(&fields).Error; err != nil {
		return fmt.Errorf("load field configuration: %w", err)
	}
	rules, err := fieldrules.Compile(models.EntityInitiative, fields)
	if err != nil {
		return err
	}

	res, err := importer.Parse(string(data), existing, importer.Options{
		CreateMissing: importCreateMissing,
		MaxRows:       cfg.Import.MaxRows,
		Rules:         rules,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Parsed %d rows (delimiter %q, header %v)\n", len(res.Rows), res.Delimiter, res.HeaderDetected)
	for _, w := range res.Warnings {
		fmt.Fprintf(out, "  line %d: %s\n", w.Line, w.Message)
	}
	for category, values := range res.Missing {
		fmt.Fprintf(out, "  unknown %s: %s\n", category, strings.Join(values, ", "))
	}

	if len(res.Rows) == 0 {
		return errors.New("no rows can be imported")
	}
	if importDryRun {
		fmt.Fprintf(out, "Dry run: %d initiatives and %d config items not saved\n", len(res.Rows), len(res.NewConfigItems))
		return nil
	}

	committed, err := importer.Commit(cmd.Context(), conn, res, nil)
	if err != nil {
		return err
	}
	if len(committed.ConfigItems) > 0 && cfg.Cache.Engine == "redis" {
		// a running server reads config items through the shared cache
		store, err := cache.New(cfg.Cache)
		if err == nil {
			err = store.DeletePrefix(cmd.Context(), "config:items:")
			store.Close()
		}
		if err != nil {
			log.Warn("config cache invalidation failed", zap.Error(err))
		}
	}

	fmt.Fprintf(out, "Imported %d initiatives, created %d config items\n",
		len(committed.Initiatives), len(committed.ConfigItems))
	return nil
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var (
	userEmail    string
	userName     string
	userRole     string
	userPassword string
	userTeam     string
)

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user account",
	Long: `Creates a user with the given role (admin, editor or viewer).

Example:
  initiativehub user create --email ceo@example.com --role viewer --password '...'`,
	RunE: runUserCreate,
}

func runUserCreate(cmd *cobra.Command, _ []string) error {
	email := strings.ToLower(strings.TrimSpace(userEmail))
	if email == "" {
		return errors.New("--email is required")
	}
	switch userRole {
	case models.RoleAdmin, models.RoleEditor, models.RoleViewer:
	default:
		return fmt.Errorf("unknown role %q", userRole)
	}

	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	hash, err := auth.NewService(cfg.Auth).HashPassword(userPassword)
	if err != nil {
		return err
	}

	conn, closeDB, err := openDatabase(cfg, log)
	if err != nil {
		return err
	}
	defer closeDB()

	user := models.User{
		Email:        email,
		Name:         userName,
		Role:         userRole,
		Team:         userTeam,
		PasswordHash: hash,
	}
	if err := conn.WithContext(cmd.Context()).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("a user with email %s already exists", email)
		}
		return fmt.Errorf("create user: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s user %s (id %d)\n", user.Role, user.Email, user.ID)
	return nil
}

func init() {
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "File with the rows to import (- for stdin)")
	importCmd.Flags().BoolVar(&importCreateMissing, "create-missing", false, "Create unknown statuses, priorities and teams")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Parse and report without saving")

	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "Login email (required)")
	userCreateCmd.Flags().StringVar(&userName, "name", "", "Display name")
	userCreateCmd.Flags().StringVar(&userRole, "role", models.RoleViewer, "Role: admin, editor or viewer")
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "Password, at least 8 characters")
	userCreateCmd.Flags().StringVar(&userTeam, "team", "", "Team the user belongs to")
	userCmd.AddCommand(userCreateCmd)
}
