package migration

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"git.hoosierptk.dev/forums/forums/src/db"
	"git.hoosierptk.dev/forums/forums/src/migration/migrations"
	"git.hoosierptk.dev/forums/forums/src/migration/types"
	"git.hoosierptk.dev/forums/forums/src/website"
	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"
)

var listMigrations bool

func init() {
	migrateCommand := &cobra.Command{
		Use:   "migrate [target migration id]",
		Short: "Run database migrations",
		Run: func(cmd *cobra.Command, args []string) {
			if listMigrations {
				ListMigrations()
				return
			}

			targetVersion := time.Time{}
			if len(args) > 0 {
				var err error
				targetVersion, err = time.Parse(time.RFC3339, args[0])
				if err != nil {
					fmt.Printf("ERROR: bad version string: %v\n", err)
					os.Exit(1)
				}
			}
			if err := Migrate(types.MigrationVersion(targetVersion)); err != nil {
				fmt.Printf("ERROR: %v\n", err)
				os.Exit(1)
			}
		},
	}
	migrateCommand.Flags().BoolVar(&listMigrations, "list", false, "List available migrations")

	rollbackCommand := &cobra.Command{
		Use:   "rollback",
		Short: "Roll back the most recently applied migration",
		Run: func(cmd *cobra.Command, args []string) {
			if err := Rollback(); err != nil {
				fmt.Printf("ERROR: %v\n", err)
				os.Exit(1)
			}
		},
	}

	makeMigrationCommand := &cobra.Command{
		Use:   "makemigration <name> <description>...",
		Short: "Create a new database migration file",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) < 2 {
				fmt.Printf("You must provide a name and a description.\n\n")
				cmd.Usage()
				os.Exit(1)
			}

			name := args[0]
			description := strings.Join(args[1:], " ")

			MakeMigration(name, description)
		},
	}

	seedCommand := &cobra.Command{
		Use:   "seed",
		Short: "Migrate to the latest version and fill the database with sample data",
		Run: func(cmd *cobra.Command, args []string) {
			SampleSeed()
		},
	}

	website.WebsiteCommand.AddCommand(migrateCommand)
	website.WebsiteCommand.AddCommand(rollbackCommand)
	website.WebsiteCommand.AddCommand(makeMigrationCommand)
	website.WebsiteCommand.AddCommand(seedCommand)
}

func getSortedMigrationVersions() []types.MigrationVersion {
	var allVersions []types.MigrationVersion
	for migrationTime := range migrations.All {
		allVersions = append(allVersions, migrationTime)
	}
	sort.Slice(allVersions, func(i, j int) bool {
		return allVersions[i].Before(allVersions[j])
	})

	return allVersions
}

func LatestVersion() types.MigrationVersion {
	allVersions := getSortedMigrationVersions()
	return allVersions[len(allVersions)-1]
}

func getCurrentVersion(ctx context.Context, conn *pgx.Conn) (types.MigrationVersion, error) {
	var currentVersion time.Time
	row := conn.QueryRow(ctx, "SELECT version FROM forums_migration")
	err := row.Scan(&currentVersion)
	if err != nil {
		return types.MigrationVersion{}, err
	}
	currentVersion = currentVersion.UTC()

	return types.MigrationVersion(currentVersion), nil
}

func tryGetCurrentVersion(ctx context.Context) types.MigrationVersion {
	defer func() {
		recover()
	}()

	conn := db.NewConn()
	defer conn.Close(ctx)

	currentVersion, _ := getCurrentVersion(ctx, conn)

	return currentVersion
}

func ListMigrations() {
	ctx := context.Background()

	currentVersion := tryGetCurrentVersion(ctx)
	for _, version := range getSortedMigrationVersions() {
		migration := migrations.All[version]
		indicator := "  "
		if version.Equal(currentVersion) {
			indicator = "✔ "
		}
		fmt.Printf("%s%v (%s: %s)\n", indicator, version, migration.Name(), migration.Description())
	}
}

func ensureMigrationTable(ctx context.Context, conn *pgx.Conn) error {
	_, err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS forums_migration (
			version		TIMESTAMP WITH TIME ZONE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migration table: %w", err)
	}

	var numRows int
	err = conn.QueryRow(ctx, "SELECT COUNT(*) FROM forums_migration").Scan(&numRows)
	if err != nil {
		return err
	}
	if numRows < 1 {
		_, err := conn.Exec(ctx, "INSERT INTO forums_migration (version) VALUES ($1)", time.Time{})
		if err != nil {
			return fmt.Errorf("failed to insert initial migration row: %w", err)
		}
	}
	return nil
}

// planSteps works out which migrations to run to get from current to
// target. Up is true when rolling forward. Each step is the index into
// allVersions of the migration to apply (or undo).
func planSteps(allVersions []types.MigrationVersion, current, target types.MigrationVersion) (steps []int, up bool, err error) {
	currentIndex := -1
	targetIndex := -1
	for i, version := range allVersions {
		if current.Equal(version) {
			currentIndex = i
		}
		if target.Equal(version) {
			targetIndex = i
		}
	}

	if target.IsZero() {
		targetIndex = -1
	} else if targetIndex < 0 {
		return nil, false, fmt.Errorf("could not find migration with version %v", target)
	}
	if currentIndex < 0 && !current.IsZero() {
		return nil, false, fmt.Errorf("database is at unknown version %v", current)
	}

	if currentIndex < targetIndex {
		for i := currentIndex + 1; i <= targetIndex; i++ {
			steps = append(steps, i)
		}
		return steps, true, nil
	}
	for i := currentIndex; i > targetIndex; i-- {
		steps = append(steps, i)
	}
	return steps, false, nil
}

// Migrate moves the database to targetVersion. A zero target means the latest
// migration.
func Migrate(targetVersion types.MigrationVersion) error {
	ctx := context.Background()

	conn := db.NewConn()
	defer conn.Close(ctx)

	if err := ensureMigrationTable(ctx, conn); err != nil {
		return err
	}

	currentVersion, err := getCurrentVersion(ctx, conn)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}
	if currentVersion.IsZero() {
		fmt.Println("This is the first time you have run database migrations.")
	} else {
		fmt.Printf("Current version: %s\n", currentVersion.String())
	}

	allVersions := getSortedMigrationVersions()
	if targetVersion.IsZero() {
		targetVersion = allVersions[len(allVersions)-1]
	}

	return runSteps(ctx, conn, allVersions, currentVersion, targetVersion)
}

// Rollback undoes the most recently applied migration.
func Rollback() error {
	ctx := context.Background()

	conn := db.NewConn()
	defer conn.Close(ctx)

	if err := ensureMigrationTable(ctx, conn); err != nil {
		return err
	}
	currentVersion, err := getCurrentVersion(ctx, conn)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}
	if currentVersion.IsZero() {
		return errors.New("no migrations have been applied")
	}

	allVersions := getSortedMigrationVersions()
	target := types.MigrationVersion{}
	for i, v := range allVersions {
		if v.Equal(currentVersion) && i > 0 {
			target = allVersions[i-1]
		}
	}
	return runSteps(ctx, conn, allVersions, currentVersion, target)
}

func runSteps(ctx context.Context, conn *pgx.Conn, allVersions []types.MigrationVersion, current, target types.MigrationVersion) error {
	steps, up, err := planSteps(allVersions, current, target)
	if err != nil {
		return err
	}
	if len(steps) == 0 {
		fmt.Println("Already migrated; nothing to do.")
		return nil
	}

	for _, i := range steps {
		version := allVersions[i]
		migration := migrations.All[version]

		newVersion := version
		if !up {
			newVersion = types.MigrationVersion{}
			if i > 0 {
				newVersion = allVersions[i-1]
			}
		}

		err := func() error {
			tx, err := conn.Begin(ctx)
			if err != nil {
				return fmt.Errorf("failed to start transaction: %w", err)
			}
			defer tx.Rollback(ctx)

			if up {
				fmt.Printf("Applying migration %v (%v)\n", version, migration.Name())
				err = migration.Up(ctx, tx)
			} else {
				fmt.Printf("Rolling back migration %v (%v)\n", version, migration.Name())
				err = migration.Down(ctx, tx)
			}
			if err != nil {
				return fmt.Errorf("migration %v failed: %w", version, err)
			}

			_, err = tx.Exec(ctx, "UPDATE forums_migration SET version = $1", time.Time(newVersion))
			if err != nil {
				return fmt.Errorf("failed to update version in migrations table: %w", err)
			}

			return tx.Commit(ctx)
		}()
		if err != nil {
			return err
		}
	}

	return nil
}

//go:embed migrationTemplate.txt
var migrationTemplate string

func MakeMigration(name, description string) {
	result := migrationTemplate
	result = strings.ReplaceAll(result, "%NAME%", name)
	result = strings.ReplaceAll(result, "%DESCRIPTION%", fmt.Sprintf("%#v", description))

	now := time.Now().UTC()
	nowConstructor := fmt.Sprintf("time.Date(%d, %d, %d, %d, %d, %d, 0, time.UTC)", now.Year(), now.Month(), now.Day(), now.Hour(), now.Minute(), now.Second())
	result = strings.ReplaceAll(result, "%DATE%", nowConstructor)

	safeVersion := strings.ReplaceAll(types.MigrationVersion(now).String(), ":", "")
	filename := fmt.Sprintf("%v_%v.go", safeVersion, name)
	path := filepath.Join("src", "migration", "migrations", filename)

	err := os.WriteFile(path, []byte(result), 0644)
	if err != nil {
		panic(fmt.Errorf("failed to write migration file: %w", err))
	}

	fmt.Println("Successfully created migration file:")
	fmt.Println(path)
}
