package global

import (
	"os"
	"strconv"
	"time"
)

// GatewayConfig is the process configuration for the realtime gateway.
// Everything is env-driven with local-dev defaults; redis and nats are
// optional and the gateway runs fully in-memory without them.
type GatewayConfig struct {
	Addr      string // HTTP listen address
	GatewayID string // node name embedded in connection ids and presence keys
	NodeID    int64  // id-generator node number

	JWTSecret []byte

	RedisAddr     string // empty disables the presence mirror
	RedisPassword string
	RedisDB       int

	NATSServers string // empty disables the push bridge

	PingInterval time.Duration // server-side ws ping cadence
	WriteWait    time.Duration // per-frame write deadline
	SendBuffer   int           // per-connection outbound queue
}

func LoadGateway() GatewayConfig {
	return GatewayConfig{
		Addr:          envStr("NAXTAP_ADDR", ":8090"),
		GatewayID:     envStr("NAXTAP_GATEWAY_ID", "gw-1"),
		NodeID:        int64(envInt("NAXTAP_NODE_ID", 1)),
		JWTSecret:     []byte(envStr("NAXTAP_JWT_SECRET", "dev-only-secret-change-me")),
		RedisAddr:     envStr("NAXTAP_REDIS_ADDR", ""),
		RedisPassword: envStr("NAXTAP_REDIS_PASSWORD", ""),
		RedisDB:       envInt("NAXTAP_REDIS_DB", 0),
		NATSServers:   envStr("NAXTAP_NATS_SERVERS", ""),
		PingInterval:  envDur("NAXTAP_PING_INTERVAL", 25*time.Second),
		WriteWait:     envDur("NAXTAP_WRITE_WAIT", 10*time.Second),
		SendBuffer:    envInt("NAXTAP_SEND_BUFFER", 256),
	}
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDur(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
