package client

import (
	"fmt"
	"os"
)

// EndpointEnv names the variable holding the proxy base URL
const EndpointEnv = "ORDERKUOTA_PROXY_ENDPOINT"

// EndpointFromEnv returns the proxy base URL from the environment
func EndpointFromEnv() (string, error) {
	endpoint := os.Getenv(EndpointEnv)
	if endpoint == "" {
		return "", fmt.Errorf("%s environment variable is not set", EndpointEnv)
	}
	return endpoint, nil
}

// ResolveEndpoint prefers an explicit endpoint and falls back to the environment
func ResolveEndpoint(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	return EndpointFromEnv()
}
