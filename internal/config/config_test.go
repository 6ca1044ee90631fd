package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// bridgeOptions mirrors the flat options struct main feeds to LoadConfig.
type bridgeOptions struct {
	Config string `help:"Path to configuration file"`

	Port             string   `toml:"server.port" env:"SERVER_PORT"`
	ListenerEndpoint string   `toml:"listener.endpoint" env:"LISTENER_ENDPOINT"`
	ListenerHeadBone string   `toml:"listener.head_bone" env:"LISTENER_HEAD_BONE"`
	NATSEmbedded     bool     `toml:"nats.embedded" env:"NATS_EMBEDDED"`
	NATSPort         int      `toml:"nats.port" env:"NATS_PORT"`
	LoggingLevel     string   `toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingBridge    string   `toml:"logging.bridge" env:"LOGGING_BRIDGE"`
	CORSOrigins      []string `toml:"server.cors_origins" env:"CORS_ORIGINS"`
}

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigFromTOML(t *testing.T) {
	opts := &bridgeOptions{Config: writeConfigFile(t, `
[server]
port = ":9000"
cors_origins = ["http://a.local", "http://b.local"]

[listener]
endpoint = "239.255.0.1:54321"
head_bone = "head"

[nats]
embedded = false
port = 14222

[logging]
level = "debug"
bridge = "warn"
`)}

	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if opts.Port != ":9000" {
		t.Errorf("Port = %q, want :9000", opts.Port)
	}
	if opts.ListenerEndpoint != "239.255.0.1:54321" {
		t.Errorf("ListenerEndpoint = %q, want 239.255.0.1:54321", opts.ListenerEndpoint)
	}
	if opts.ListenerHeadBone != "head" {
		t.Errorf("ListenerHeadBone = %q, want head", opts.ListenerHeadBone)
	}
	if opts.NATSEmbedded {
		t.Error("NATSEmbedded should be false from the file")
	}
	if opts.NATSPort != 14222 {
		t.Errorf("NATSPort = %d, want 14222", opts.NATSPort)
	}
	if opts.LoggingLevel != "debug" || opts.LoggingBridge != "warn" {
		t.Errorf("Logging levels = %q/%q, want debug/warn", opts.LoggingLevel, opts.LoggingBridge)
	}
	if want := []string{"http://a.local", "http://b.local"}; !reflect.DeepEqual(opts.CORSOrigins, want) {
		t.Errorf("CORSOrigins = %v, want %v", opts.CORSOrigins, want)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("POSELINK_LISTENER_ENDPOINT", "10.0.0.5:6000")
	t.Setenv("POSELINK_NATS_PORT", "24222")
	t.Setenv("POSELINK_CORS_ORIGINS", " http://a.local , http://b.local ")

	opts := &bridgeOptions{}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if opts.ListenerEndpoint != "10.0.0.5:6000" {
		t.Errorf("ListenerEndpoint = %q, want 10.0.0.5:6000", opts.ListenerEndpoint)
	}
	if opts.NATSPort != 24222 {
		t.Errorf("NATSPort = %d, want 24222", opts.NATSPort)
	}
	// Comma-separated env values are split and trimmed.
	if want := []string{"http://a.local", "http://b.local"}; !reflect.DeepEqual(opts.CORSOrigins, want) {
		t.Errorf("CORSOrigins = %v, want %v", opts.CORSOrigins, want)
	}
}

func TestLoadConfigEnvBeatsTOML(t *testing.T) {
	path := writeConfigFile(t, `
[listener]
endpoint = "0.0.0.0:54321"

[nats]
port = 14222
`)
	t.Setenv("POSELINK_LISTENER_ENDPOINT", "239.255.0.1:6000")

	opts := &bridgeOptions{Config: path}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if opts.ListenerEndpoint != "239.255.0.1:6000" {
		t.Errorf("ListenerEndpoint = %q, env must override the file", opts.ListenerEndpoint)
	}
	if opts.NATSPort != 14222 {
		t.Errorf("NATSPort = %d, file value must survive without an env override", opts.NATSPort)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	opts := &bridgeOptions{Config: filepath.Join(t.TempDir(), "absent.toml")}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("A missing file must fall through to defaults, got: %v", err)
	}
}

func TestLoadConfigRejectsBrokenTOML(t *testing.T) {
	opts := &bridgeOptions{Config: writeConfigFile(t, "[listener\nendpoint =")}
	if err := LoadConfig(opts, nil); err == nil {
		t.Fatal("LoadConfig must report unparseable TOML")
	}
}

func TestFieldNameToFlag(t *testing.T) {
	cases := map[string]string{
		"Port":             "port",
		"ListenerEndpoint": "listener-endpoint",
		"NATSEmbedded":     "n-a-t-s-embedded",
	}
	for in, want := range cases {
		if got := fieldNameToFlag(in); got != want {
			t.Errorf("fieldNameToFlag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGetNestedValue(t *testing.T) {
	data := map[string]any{
		"listener": map[string]any{
			"endpoint": "0.0.0.0:54321",
			"socket":   map[string]any{"reuse": true},
		},
		"version": int64(1),
	}

	cases := []struct {
		path string
		want any
	}{
		{"version", int64(1)},
		{"listener.endpoint", "0.0.0.0:54321"},
		{"listener.socket.reuse", true},
		{"listener.missing", nil},
		{"nats.port", nil},
	}
	for _, tc := range cases {
		if got := getNestedValue(data, tc.path); got != tc.want {
			t.Errorf("getNestedValue(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestSetFieldValueFromString(t *testing.T) {
	var opts bridgeOptions
	v := reflect.ValueOf(&opts).Elem()

	setFieldValueFromString(v.FieldByName("Port"), ":8090")
	setFieldValueFromString(v.FieldByName("NATSEmbedded"), "true")
	setFieldValueFromString(v.FieldByName("NATSPort"), "4222")
	setFieldValueFromString(v.FieldByName("CORSOrigins"), "x,y")

	if opts.Port != ":8090" || !opts.NATSEmbedded || opts.NATSPort != 4222 {
		t.Errorf("Scalar fields not set: %+v", opts)
	}
	if want := []string{"x", "y"}; !reflect.DeepEqual(opts.CORSOrigins, want) {
		t.Errorf("CORSOrigins = %v, want %v", opts.CORSOrigins, want)
	}
}
