package config

import (
	"os"
)

// Default values point at the EBSI pilot environment.
const (
	DefaultTimestampJSONRPC     = "https://api-pilot.ebsi.eu/timestamp/v4/jsonrpc"
	DefaultTimestampAPI         = "https://api-pilot.ebsi.eu/timestamp/v4"
	DefaultLedgerJSONRPC        = "https://api-pilot.ebsi.eu/ledger/v4/blockchains/besu"
	DefaultTrackAndTraceJSONRPC = "https://api-pilot.ebsi.eu/track-and-trace/v1/jsonrpc"
	DefaultTrackAndTraceAPI     = "https://api-pilot.ebsi.eu/track-and-trace/v1"
	DefaultAuthorisationAPI     = "https://api-pilot.ebsi.eu/authorisation/v4"
)

// Environment variable names
const (
	EnvTimestampJSONRPC     = "EBSI_TIMESTAMP_JSONRPC_URL"
	EnvTimestampAPI         = "EBSI_TIMESTAMP_API_URL"
	EnvLedgerJSONRPC        = "EBSI_LEDGER_JSONRPC_URL"
	EnvTrackAndTraceJSONRPC = "EBSI_TNT_JSONRPC_URL"
	EnvTrackAndTraceAPI     = "EBSI_TNT_API_URL"
	EnvAuthorisationAPI     = "EBSI_AUTHORISATION_API_URL"
)

func fromEnv(env, fallback string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	return fallback
}

// TimestampJSONRPC returns the Timestamp API JSON-RPC endpoint.
func TimestampJSONRPC() string {
	return fromEnv(EnvTimestampJSONRPC, DefaultTimestampJSONRPC)
}

// TimestampAPI returns the Timestamp API REST base URL.
func TimestampAPI() string {
	return fromEnv(EnvTimestampAPI, DefaultTimestampAPI)
}

// LedgerJSONRPC returns the ledger node JSON-RPC endpoint used for
// eth_getTransactionReceipt lookups.
func LedgerJSONRPC() string {
	return fromEnv(EnvLedgerJSONRPC, DefaultLedgerJSONRPC)
}

// TrackAndTraceJSONRPC returns the Track and Trace JSON-RPC endpoint.
func TrackAndTraceJSONRPC() string {
	return fromEnv(EnvTrackAndTraceJSONRPC, DefaultTrackAndTraceJSONRPC)
}

// TrackAndTraceAPI returns the Track and Trace REST base URL.
func TrackAndTraceAPI() string {
	return fromEnv(EnvTrackAndTraceAPI, DefaultTrackAndTraceAPI)
}

// AuthorisationAPI returns the Authorisation API base URL.
func AuthorisationAPI() string {
	return fromEnv(EnvAuthorisationAPI, DefaultAuthorisationAPI)
}
