package policy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const denylist = `package install

default decide = {"status": "ALLOW"}

decide = {"status": "BLOCKED", "reasons": ["denylisted"]} {
	input.shop == "blocked.myshopify.com"
}
`

func TestAdmission_AllowsAndBlocks(t *testing.T) {
	ctx := context.Background()
	a, err := NewAdmission(ctx, denylist)
	require.NoError(t, err)
	require.NotNil(t, a)

	dec, err := a.Evaluate(ctx, Input{Shop: "foo.myshopify.com"})
	require.NoError(t, err)
	assert.True(t, dec.Allowed())

	dec, err = a.Evaluate(ctx, Input{Shop: "blocked.myshopify.com"})
	require.NoError(t, err)
	assert.Equal(t, Blocked, dec.Status)
	assert.Equal(t, []string{"denylisted"}, dec.Reasons)
}

func TestAdmission_BooleanDecision(t *testing.T) {
	ctx := context.Background()
	a, err := NewAdmission(ctx, `package install

default decide = false

decide {
	count(input.scopes) <= 2
}
`)
	require.NoError(t, err)

	dec, err := a.Evaluate(ctx, Input{Shop: "foo.myshopify.com", Scopes: []string{"read_products"}})
	require.NoError(t, err)
	assert.True(t, dec.Allowed())

	dec, err = a.Evaluate(ctx, Input{Shop: "foo.myshopify.com", Scopes: []string{"a", "b", "c"}})
	require.NoError(t, err)
	assert.False(t, dec.Allowed())
}

func TestAdmission_UndefinedFailsClosed(t *testing.T) {
	ctx := context.Background()
	a, err := NewAdmission(ctx, `package install

decide = {"status": "ALLOW"} {
	input.shop == "only.myshopify.com"
}
`)
	require.NoError(t, err)

	dec, err := a.Evaluate(ctx, Input{Shop: "foo.myshopify.com"})
	assert.Error(t, err)
	assert.Equal(t, Blocked, dec.Status)
	assert.Equal(t, []string{"policy_error"}, dec.Reasons)
}

func TestAdmission_NilAdmitsEverything(t *testing.T) {
	var a *Admission
	dec, err := a.Evaluate(context.Background(), Input{Shop: "foo.myshopify.com"})
	require.NoError(t, err)
	assert.True(t, dec.Allowed())

	a, err = NewAdmission(context.Background(), "  ")
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestAdmission_CompileError(t *testing.T) {
	_, err := NewAdmission(context.Background(), "package install\n\ndecide = {")
	assert.Error(t, err)
}

func TestLoadAdmission(t *testing.T) {
	ctx := context.Background()
	a, err := LoadAdmission(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, a)

	path := filepath.Join(t.TempDir(), "install.rego")
	require.NoError(t, os.WriteFile(path, []byte(denylist), 0o600))
	a, err = LoadAdmission(ctx, path)
	require.NoError(t, err)
	require.NotNil(t, a)

	_, err = LoadAdmission(ctx, filepath.Join(t.TempDir(), "missing.rego"))
	assert.Error(t, err)
}
