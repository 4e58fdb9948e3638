package httpclient

import "testing"

func TestSessionManagerAddAndGet(t *testing.T) {
	sm := NewSessionManager()
	sm.AddSession("test", "session=abc123; token=xyz")

	session := sm.GetSession("test")
	if session == nil {
		t.Fatal("session should not be nil")
	}
	if session.Name != "test" {
		t.Errorf("expected session name 'test', got %s", session.Name)
	}
	if len(session.Cookies) != 2 {
		t.Errorf("expected 2 cookies, got %d", len(session.Cookies))
	}

	if sm.GetSession("missing") != nil {
		t.Error("missing session should be nil")
	}
}

func TestProxyManagerRotation(t *testing.T) {
	pm := NewProxyManager([]string{
		"http://proxy1:8080",
		"http://proxy2:8080",
		"http://proxy3:8080",
	})

	if pm.Count() != 3 {
		t.Errorf("expected 3 proxies, got %d", pm.Count())
	}
	if !pm.IsEnabled() {
		t.Error("proxy manager should be enabled")
	}

	first := pm.GetNext()
	second := pm.GetNext()
	if first.String() == second.String() {
		t.Error("rotation should return a different proxy on each call")
	}
}

func TestProxyManagerDisabledWhenEmpty(t *testing.T) {
	pm := NewProxyManager(nil)
	if pm.IsEnabled() {
		t.Error("empty proxy list should leave the manager disabled")
	}
	if pm.GetNext() != nil {
		t.Error("GetNext should return nil with no proxies")
	}
}
