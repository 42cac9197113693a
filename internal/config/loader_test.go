// internal/config/loader_test.go

package config

import "testing"

func TestEnvKeyMapper(t *testing.T) {
	cases := []struct{ in, want string }{
		{"WAYPOST_HTTP__LISTEN_ADDR", "http.listen_addr"},
		{"WAYPOST_DATABASE__PASSWORD", "database.password"},
		{"WAYPOST_GEOCODER__API_KEY", "geocoder.api_key"},
		{"WAYPOST_STORAGE__ROOT", "storage.root"},
	}
	for _, tc := range cases {
		if got := envKeyMapper(tc.in); got != tc.want {
			t.Errorf("envKeyMapper(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
