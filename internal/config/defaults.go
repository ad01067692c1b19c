package config

// minSigningKeyLen is the shortest HS256 key accepted.
const minSigningKeyLen = 32

func defaults() map[string]any {
	return map[string]any{
		"http.addr":             ":8080",
		"http.read_timeout":     "5s",
		"http.write_timeout":    "10s",
		"http.idle_timeout":     "120s",
		"http.shutdown_timeout": "10s",

		"grpc.addr":           ":9090",
		"grpc.probe_interval": "10s",
		"grpc.reflection":     false,

		"storage.driver":  DriverPostgres,
		"storage.dsn":     "",
		"storage.migrate": true,

		"auth.signing_key": "",
		"auth.issuer":      "crudkeeper",
		"auth.access_ttl":  "15m",
		"auth.refresh_ttl": "720h",

		"limiter.window":    "15m",
		"limiter.max_fails": 5,
		"limiter.block_for": "15m",

		"log.level":       "info",
		"log.development": false,
	}
}
