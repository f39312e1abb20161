package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/lawdir/directory-api/internal/domain"
	"github.com/lawdir/directory-api/internal/seed"
	"github.com/lawdir/directory-api/internal/service"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load reference states and practice areas",
	Long: `Create the US states (plus DC) and the starter practice areas.
Existing rows are left untouched, so seed can be run repeatedly.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

var importDryRun bool

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import firms and offices from a CSV file",
	Long: `Import firms and offices from a CSV file with the same rules as the
admin upload. With --dry-run every row is validated and applied inside a
transaction that is rolled back.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage admin dashboard users",
}

var (
	adminEmail    string
	adminName     string
	adminRole     string
	adminPassword string
)

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an admin dashboard user",
	Long: `Create an admin dashboard user. The password is read from --password or,
when that is empty, from the LAWDIR_ADMIN_PASSWORD environment variable.`,
	Args: cobra.NoArgs,
	RunE: runAdminCreate,
}

var nominationsCmd = &cobra.Command{
	Use:   "nominations",
	Short: "Inspect the nomination queue",
}

var pendingLimit int

var nominationsPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List pending nominations, oldest first",
	Args:  cobra.NoArgs,
	RunE:  runNominationsPending,
}

func init() {
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate and report without saving")

	adminCreateCmd.Flags().StringVar(&adminEmail, "email", "", "Email address used to sign in")
	adminCreateCmd.Flags().StringVar(&adminName, "name", "", "Display name")
	adminCreateCmd.Flags().StringVar(&adminRole, "role", string(domain.AdminRoleEditor), "Role: admin or editor")
	adminCreateCmd.Flags().StringVar(&adminPassword, "password", "", "Initial password (min 10 characters)")
	_ = adminCreateCmd.MarkFlagRequired("email")
	_ = adminCreateCmd.MarkFlagRequired("name")
	adminCmd.AddCommand(adminCreateCmd)

	nominationsPendingCmd.Flags().IntVar(&pendingLimit, "limit", 50, "Maximum nominations to list")
	nominationsCmd.AddCommand(nominationsPendingCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	ref, err := seed.Load()
	if err != nil {
		return err
	}

	statesCreated, areasCreated := 0, 0
	for _, s := range ref.States {
		_, err := current.locations.CreateState(ctx, &domain.CreateStateRequest{Name: s.Name, Code: s.Code})
		switch {
		case err == nil:
			statesCreated++
		case errors.Is(err, service.ErrConflict):
		default:
			return fmt.Errorf("state %s: %w", s.Code, err)
		}
	}
	for i, pa := range ref.PracticeAreas {
		_, err := current.practiceAreas.Create(ctx, &domain.CreatePracticeAreaRequest{
			Name:       pa.Name,
			IsFeatured: pa.Featured,
			SortOrder:  i,
		})
		switch {
		case err == nil:
			areasCreated++
		case errors.Is(err, service.ErrConflict):
		default:
			return fmt.Errorf("practice area %s: %w", pa.Name, err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "States: %d created, %d already present\n", statesCreated, len(ref.States)-statesCreated)
	fmt.Fprintf(cmd.OutOrStdout(), "Practice areas: %d created, %d already present\n", areasCreated, len(ref.PracticeAreas)-areasCreated)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	run, err := current.imports.Import(ctx, f, service.ImportOptions{
		Filename: filepath.Base(args[0]),
		DryRun:   importDryRun,
	})
	if err != nil {
		return err
	}

	printImportRun(cmd.OutOrStdout(), run)
	return nil
}

func printImportRun(out io.Writer, run *domain.ImportRunDTO) {
	mode := "committed"
	if run.DryRun {
		mode = "dry run, nothing saved"
	}
	fmt.Fprintf(out, "%s (%s)\n", run.Filename, mode)
	fmt.Fprintf(out, "  rows:    %d\n", run.TotalRows)
	fmt.Fprintf(out, "  created: %d\n", run.CreatedCount)
	fmt.Fprintf(out, "  updated: %d\n", run.UpdatedCount)
	fmt.Fprintf(out, "  failed:  %d\n", run.FailedCount)
	for _, e := range run.Errors {
		fmt.Fprintf(out, "  line %d: %s\n", e.Line, e.Message)
	}
}

func runAdminCreate(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	password := adminPassword
	if password == "" {
		password = os.Getenv("LAWDIR_ADMIN_PASSWORD")
	}
	req := &domain.CreateAdminUserRequest{
		Email:       adminEmail,
		DisplayName: adminName,
		Password:    password,
		Role:        domain.AdminRole(strings.ToLower(adminRole)),
	}
	if len(req.Password) < 10 {
		return fmt.Errorf("password must be at least 10 characters")
	}

	user, err := current.auth.CreateUser(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s (%s)\n", user.Role, user.Email, user.ID)
	return nil
}

func runNominationsPending(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	pending, total, err := current.nominations.Pending(ctx, pendingLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if total == 0 {
		fmt.Fprintln(out, "No pending nominations")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFIRM\tLOCATION\tNOMINATED BY\tSUBMITTED")
	for _, n := range pending {
		fmt.Fprintf(tw, "%s\t%s\t%s, %s\t%s\t%s\n", n.ID, n.FirmName, n.City, n.State, n.NominatorEmail, n.CreatedAt)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if int64(len(pending)) < total {
		fmt.Fprintf(out, "%d of %d pending shown\n", len(pending), total)
	}
	return nil
}
