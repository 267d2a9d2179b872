package notify

import (
	"testing"
)

func TestSubjectTail(t *testing.T) {
	tests := []struct {
		subject string
		want    string
	}{
		{"naxtap.notify.message.user-42", "user-42"},
		{"naxtap.notify.livechat.lc-1", "lc-1"},
		{"naxtap.notify.call.", ""},
		{"nodots", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := subjectTail(tt.subject); got != tt.want {
			t.Errorf("subjectTail(%q) = %q, want %q", tt.subject, got, tt.want)
		}
	}
}

func TestBridgeRequiresServers(t *testing.T) {
	if _, err := NewBridge(Config{}, nil); err == nil {
		t.Fatal("empty server list must fail")
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{Servers: "nats://localhost:4222"}
	cfg.norm()
	if cfg.Name == "" || cfg.ReconnectWait <= 0 || cfg.Timeout <= 0 {
		t.Errorf("norm left zero values: %+v", cfg)
	}
}
