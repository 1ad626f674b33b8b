package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
database:
  host: "localhost"
  port: 5432
  username: "u"
  password: "p"
  name: "db"
kafka:
  host: "localhost"
  port: 9092
  status_changed_topic_name: "shipment.status_changed"
  carrier_events_topic_name: "carrier.events"
redis:
  host: "localhost"
  port: 6379
shipdesk:
  http_addr: ":8080"
  kafka_consumer_group: "shipdesk-api"
  jwt_secret: "secret"
  access_token_ttl_seconds: 900
  refresh_token_ttl_seconds: 604800
  tracking_cache_ttl_seconds: 600
  login_rate_limit_per_minute: 10
`), 0o600))

	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	require.Equal(t, "u", cfg.Database.Username)
	require.Equal(t, "shipment.status_changed", cfg.Kafka.StatusChangedTopicName)
	require.Equal(t, "carrier.events", cfg.Kafka.CarrierEventsTopicName)
	require.Equal(t, 6379, cfg.Redis.Port)
	require.Equal(t, ":8080", cfg.ShipDesk.HTTPAddr)
	require.Equal(t, 900, cfg.ShipDesk.AccessTokenTTLSeconds)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
