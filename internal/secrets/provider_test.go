package secrets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGetter struct {
	values map[string]string
	calls  int
}

func (f *fakeGetter) GetSecret(_ context.Context, name string) (string, error) {
	f.calls++
	v, ok := f.values[name]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func TestResolveSource(t *testing.T) {
	assert.Equal(t, SourceEnvironment, ResolveSource(SourceAuto, "development"))
	assert.Equal(t, SourceEnvironment, ResolveSource(SourceAuto, ""))
	assert.Equal(t, SourceVault, ResolveSource(SourceAuto, "production"))
	assert.Equal(t, SourceVault, ResolveSource(SourceVault, "development"))
	assert.Equal(t, SourceEnvironment, ResolveSource(SourceEnvironment, "production"))
}

func TestProvider_EnvironmentSource(t *testing.T) {
	t.Setenv("LAWDIR_TEST_SECRET", "from-env")

	p, err := NewProvider(&ProviderConfig{Source: SourceEnvironment}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.IsVaultEnabled())

	v, err := p.GetSecret(context.Background(), "LAWDIR_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)

	_, err = p.GetSecret(context.Background(), "LAWDIR_TEST_MISSING")
	assert.Error(t, err)
}

func TestProvider_VaultRequiresName(t *testing.T) {
	_, err := NewProvider(&ProviderConfig{Source: SourceVault}, zap.NewNop())
	assert.Error(t, err)
}

func TestProvider_GetSecretOrEnvPrefersEnv(t *testing.T) {
	getter := &fakeGetter{values: map[string]string{"db-password": "vault-value"}}
	p := NewProviderWithGetter(getter, zap.NewNop())

	v, err := p.GetSecretOrEnv(context.Background(), "db-password", "LAWDIR_TEST_DB_PASSWORD")
	require.NoError(t, err)
	assert.Equal(t, "vault-value", v)

	t.Setenv("LAWDIR_TEST_DB_PASSWORD", "override")
	v, err = p.GetSecretOrEnv(context.Background(), "db-password", "LAWDIR_TEST_DB_PASSWORD")
	require.NoError(t, err)
	assert.Equal(t, "override", v)
	assert.Equal(t, 1, getter.calls)
}

func TestTTLCache_Expiry(t *testing.T) {
	c := newTTLCache(time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.put("key", "value", now)

	v, ok := c.get("key", now.Add(30*time.Second))
	assert.True(t, ok)
	assert.Equal(t, "value", v)

	_, ok = c.get("key", now.Add(time.Minute))
	assert.False(t, ok)

	_, ok = c.get("other", now)
	assert.False(t, ok)
}
