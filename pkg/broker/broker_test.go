package broker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported(Zerodha))
	assert.True(t, IsSupported(AngelOne))
	assert.True(t, IsSupported(Dhan))
	assert.True(t, IsSupported(Delta))
	assert.False(t, IsSupported("robinhood"))
	assert.False(t, IsSupported(""))
}

func TestNewClient(t *testing.T) {
	creds := Credentials{APIKey: "k", APISecret: "s", AccessToken: "t", ClientID: "c"}
	for _, kind := range []string{Zerodha, AngelOne, Dhan, Delta} {
		client, err := NewClient(kind, creds)
		require.NoError(t, err, kind)
		assert.Equal(t, kind, client.Broker())
	}

	_, err := NewClient("robinhood", creds)
	assert.Error(t, err)
}
