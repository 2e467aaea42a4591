package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradpass/ceremony-tickets/internal/pkg/jwthelper"
)

const testSigningKey = "ticketctl-test-signing-key"

func runCtl(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("API_PRINCIPAL_SIGNING_KEY", testSigningKey)

	var out bytes.Buffer
	ctl = ticketctl{out: &out}
	t.Cleanup(func() { ctl = ticketctl{} })

	config := filepath.Join(t.TempDir(), "missing.yml")
	argv := append([]string{"ticketctl", "--config", config}, args...)
	err := newApp().Run(argv)

	return out.String(), err
}

func TestTokenCommand(t *testing.T) {
	out, err := runCtl(t, "token", "--user", "42", "--role", jwthelper.RoleSecurity)
	require.NoError(t, err)

	p, err := jwthelper.ParseToken([]byte(testSigningKey), strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, uint(42), p.ID)
	assert.Equal(t, jwthelper.RoleSecurity, p.Role)
}

func TestTokenCommand_UnknownRole(t *testing.T) {
	out, err := runCtl(t, "token", "--user", "1", "--role", "janitor")
	require.ErrorIs(t, err, jwthelper.ErrUnknownRole)
	assert.Empty(t, out)
}

func TestTokenCommand_RequiresUser(t *testing.T) {
	_, err := runCtl(t, "token")
	require.Error(t, err)
}

func TestValidateCommand_RequiresPayload(t *testing.T) {
	_, err := runCtl(t, "validate")
	require.EqualError(t, err, "missing <payload> argument")
}
