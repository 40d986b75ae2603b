package cmd

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerCmd(t *testing.T) {
	assert.Equal(t, "server", ServerCmd.Use)
	assert.Equal(t, "Start the OrderKuota Proxy Server", ServerCmd.Short)
	assert.NotNil(t, ServerCmd.RunE)
}

func TestServerCmdFlags(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		expectedPort string
		expectedCfg  string
		expectedVerb bool
	}{
		{
			name:         "custom port",
			args:         []string{"-p", "9090"},
			expectedPort: "9090",
		},
		{
			name:         "custom config",
			args:         []string{"-c", "custom.yaml"},
			expectedPort: "8080",
			expectedCfg:  "custom.yaml",
		},
		{
			name:         "all flags",
			args:         []string{"-p", "3000", "-c", "test.json", "-v"},
			expectedPort: "3000",
			expectedCfg:  "test.json",
			expectedVerb: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := ServerCmd.Flags()
			require.NoError(t, flags.Set("port", "8080"))
			require.NoError(t, flags.Set("config", ""))
			require.NoError(t, flags.Set("verbose", "false"))

			require.NoError(t, ServerCmd.ParseFlags(tt.args))

			portFlag, err := flags.GetString("port")
			require.NoError(t, err)
			assert.Equal(t, tt.expectedPort, portFlag)

			cfgFlag, err := flags.GetString("config")
			require.NoError(t, err)
			assert.Equal(t, tt.expectedCfg, cfgFlag)

			verboseFlag, err := flags.GetBool("verbose")
			require.NoError(t, err)
			assert.Equal(t, tt.expectedVerb, verboseFlag)
		})
	}
}

func TestNewServer_FromConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"9191\"\nlog:\n  level: warn\n"), 0644))

	server, zlog, err := newServer(viper.New(), path)
	require.NoError(t, err)
	require.NotNil(t, zlog)

	assert.Equal(t, "9191", server.GetConfig().Port)
	assert.Equal(t, "warn", server.GetConfig().Log.Level)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.GetEcho().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewServer_FlagOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"port": "9191"}`), 0644))

	v := viper.New()
	v.Set("port", "7171")

	server, _, err := newServer(v, path)
	require.NoError(t, err)
	assert.Equal(t, "7171", server.GetConfig().Port)
}

func TestNewServer_Errors(t *testing.T) {
	_, _, err := newServer(viper.New(), filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"log": {"format": "xml"}}`), 0644))
	_, _, err = newServer(viper.New(), path)
	assert.Error(t, err)
}
