package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/statelessauth/internal/common"
	"github.com/dmitrijs2005/statelessauth/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func testConfig(t *testing.T) *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.EndpointAddrHTTP = freeAddr(t)
	c.EndpointAddrGRPC = freeAddr(t)
	c.BcryptCost = bcrypt.MinCost
	c.LogLevel = "debug"
	return c
}

func TestNewApp_GeneratesSecretWhenEmpty(t *testing.T) {
	var logs bytes.Buffer
	app, err := NewApp(testConfig(t), &logs)
	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Contains(t, logs.String(), "no secret key configured")
}

func TestNewApp_Errors(t *testing.T) {
	c := testConfig(t)
	c.SecretKey = base64.StdEncoding.EncodeToString([]byte("short"))
	_, err := NewApp(c, io.Discard)
	assert.Error(t, err)

	c = testConfig(t)
	c.DatabaseDSN = "mysql://nope"
	_, err = NewApp(c, io.Discard)
	assert.Error(t, err)
}

func TestApp_RunServesAndStops(t *testing.T) {
	c := testConfig(t)
	c.SecretKey = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	c.DatabaseDSN = fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))

	app, err := NewApp(c, io.Discard)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	base := "http://" + c.EndpointAddrHTTP
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	resp, err := http.Post(base+"/api/login", "application/json", strings.NewReader(`{"username":"admin","password":"admin"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(common.AuthTokenHeaderName))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}
