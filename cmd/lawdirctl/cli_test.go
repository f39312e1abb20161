package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/lawdir/directory-api/internal/domain"
	"github.com/lawdir/directory-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupApp(t *testing.T) *testutil.Services {
	t.Helper()
	s := testutil.NewServices(t)
	current = &app{
		locations:     s.Locations,
		practiceAreas: s.PracticeAreas,
		imports:       s.Imports,
		auth:          s.Auth,
		nominations:   s.Nominations,
		logger:        zap.NewNop(),
	}
	t.Cleanup(func() { current = nil })
	return s
}

// execute runs the root command with fresh flag values and returns its output
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	importDryRun = false
	adminPassword, adminRole = "", string(domain.AdminRoleEditor)
	pendingLimit = 50

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSeedIsIdempotent(t *testing.T) {
	s := setupApp(t)

	out, err := execute(t, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "States: 51 created, 0 already present")

	var states int64
	require.NoError(t, s.DB.Model(&domain.State{}).Count(&states).Error)
	assert.Equal(t, int64(51), states)

	var featured int64
	require.NoError(t, s.DB.Model(&domain.PracticeArea{}).Where("is_featured = ?", true).Count(&featured).Error)
	assert.Positive(t, featured)

	out, err = execute(t, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "States: 0 created, 51 already present")
}

func TestImportCommand(t *testing.T) {
	s := setupApp(t)
	path := filepath.Join(t.TempDir(), "firms.csv")
	require.NoError(t, os.WriteFile(path, []byte("firm_name,city,state\nPine Law,Boise,Idaho\nNo City LLP,,TX\n"), 0o600))

	out, err := execute(t, "import", path, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "firms.csv (dry run, nothing saved)")
	assert.Contains(t, out, "line 3:")

	var firms int64
	require.NoError(t, s.DB.Model(&domain.Firm{}).Count(&firms).Error)
	assert.Zero(t, firms)

	out, err = execute(t, "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "created: 1")
	assert.Contains(t, out, "failed:  1")

	require.NoError(t, s.DB.Model(&domain.Firm{}).Count(&firms).Error)
	assert.Equal(t, int64(1), firms)
}

func TestImportCommand_MissingFile(t *testing.T) {
	setupApp(t)

	_, err := execute(t, "import", filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestAdminCreate(t *testing.T) {
	s := setupApp(t)

	out, err := execute(t, "admin", "create", "--email", "Owner@Lawdir.test", "--name", "Site Owner", "--role", "admin", "--password", "correct-horse-battery")
	require.NoError(t, err)
	assert.Contains(t, out, "Created admin owner@lawdir.test")

	var user domain.AdminUser
	require.NoError(t, s.DB.Where("email = ?", "owner@lawdir.test").First(&user).Error)
	assert.Equal(t, domain.AdminRoleAdmin, user.Role)
	assert.NotEqual(t, "correct-horse-battery", user.PasswordHash)

	t.Run("short password", func(t *testing.T) {
		_, err := execute(t, "admin", "create", "--email", "x@lawdir.test", "--name", "X", "--password", "short")
		assert.ErrorContains(t, err, "at least 10 characters")
	})

	t.Run("password from environment", func(t *testing.T) {
		t.Setenv("LAWDIR_ADMIN_PASSWORD", "from-the-environment")
		_, err := execute(t, "admin", "create", "--email", "editor@lawdir.test", "--name", "Ed")
		require.NoError(t, err)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := execute(t, "admin", "create", "--email", "owner@lawdir.test", "--name", "Again", "--password", "correct-horse-battery")
		assert.ErrorContains(t, err, "already exists")
	})
}

func TestNominationsPending(t *testing.T) {
	s := setupApp(t)

	out, err := execute(t, "nominations", "pending")
	require.NoError(t, err)
	assert.Contains(t, out, "No pending nominations")

	testutil.CreateNomination(t, s.DB, "Hill Country Counsel", "Austin", "TX")
	testutil.CreateNomination(t, s.DB, "Gulf Coast Law", "Houston", "TX")

	out, err = execute(t, "nominations", "pending", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "FIRM")
	assert.Contains(t, out, "1 of 2 pending shown")
}
