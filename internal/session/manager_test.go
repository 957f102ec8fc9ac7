package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/storefront-client-go/internal/credential"
	"github.com/andreasstove999/ecommerce-system/storefront-client-go/internal/state"
)

func TestManager_InitialStateDerivedFromStore(t *testing.T) {
	kv := state.NewMemory()
	creds := credential.NewStore(kv)

	empty := NewManager(creds)
	defer empty.Close()
	assert.False(t, empty.IsAuthenticated())

	require.NoError(t, creds.Set("Bearer abc"))
	primed := NewManager(creds)
	defer primed.Close()
	assert.True(t, primed.IsAuthenticated())
}

func TestManager_LoginDoesNotWriteCredential(t *testing.T) {
	kv := state.NewMemory()
	creds := credential.NewStore(kv)
	m := NewManager(creds)
	defer m.Close()

	m.Login()

	assert.True(t, m.IsAuthenticated())
	assert.Empty(t, creds.Get(), "login must not write a credential; the gateway does that")
}

func TestManager_LogoutClearsStore(t *testing.T) {
	creds := credential.NewStore(state.NewMemory())
	require.NoError(t, creds.Set("Bearer abc"))
	m := NewManager(creds)
	defer m.Close()
	require.True(t, m.IsAuthenticated())

	m.Logout()

	assert.False(t, m.IsAuthenticated())
	assert.Empty(t, creds.Get())
}

// A rotated credential written by the gateway flips the manager in the same
// context without an explicit Login call.
func TestManager_ReactsToCredentialWrite(t *testing.T) {
	creds := credential.NewStore(state.NewMemory())
	m := NewManager(creds)
	defer m.Close()
	require.False(t, m.IsAuthenticated())

	require.NoError(t, creds.Set("Bearer rotated"))

	assert.True(t, m.IsAuthenticated())
}

// Two managers on one shared store model two execution contexts: logout in
// one is observed by the other.
func TestManager_CrossContextLogout(t *testing.T) {
	kv := state.NewMemory()
	creds := credential.NewStore(kv)
	require.NoError(t, creds.Set("Bearer abc"))

	ctxA := NewManager(creds)
	defer ctxA.Close()
	ctxB := NewManager(creds)
	defer ctxB.Close()
	require.True(t, ctxB.IsAuthenticated())

	ctxA.Logout()

	assert.False(t, ctxB.IsAuthenticated())
}

func TestManager_SubscribeFiresOnTransitionsOnly(t *testing.T) {
	creds := credential.NewStore(state.NewMemory())
	m := NewManager(creds)
	defer m.Close()

	var got []bool
	unsubscribe := m.Subscribe(func(authenticated bool) { got = append(got, authenticated) })

	m.Login()
	m.Login() // already authenticated, no notification
	m.Logout()
	m.Logout() // already unauthenticated, no notification

	assert.Equal(t, []bool{true, false}, got)

	unsubscribe()
	m.Login()
	assert.Len(t, got, 2)
}
