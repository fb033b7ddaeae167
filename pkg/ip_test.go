package pkg

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPIsLocal(t *testing.T) {
	assert.True(t, IPIsLocal("127.0.0.1:8080"))
	assert.True(t, IPIsLocal("172.17.0.1:51234"))
	assert.False(t, IPIsLocal("89.12.13.14:443"))
}

func TestReadUserIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Real-Ip", "89.12.13.14")

	ip, err := ReadUserIP(r)
	require.NoError(t, err)
	assert.Equal(t, "89.12.13.14", ip)

	r = httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "127.0.0.1:51234"
	ip, err = ReadUserIP(r)
	require.NoError(t, err)
	assert.Equal(t, "localhost", ip)
}
