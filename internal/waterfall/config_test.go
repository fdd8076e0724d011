package waterfall

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	yaml := `
email_waterfall:
  thresholds:
    domain_match: 75
    pattern: 65
  default_pattern: "{f}{last}"
  patterns:
    globex.com: "{first}"
  personal_domains: [gmail.com, example-mail.net]
`
	dir := t.TempDir()
	path := filepath.Join(dir, "waterfall.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 75, cfg.Thresholds.DomainMatch)
	assert.Equal(t, 65, cfg.Thresholds.Pattern)
	assert.Equal(t, DefaultPersonalThreshold, cfg.Thresholds.Personal) // inherited
	assert.Equal(t, "{f}{last}", cfg.DefaultPattern)
	assert.Equal(t, "{first}", cfg.PatternFor("GLOBEX.com"))
	assert.Empty(t, cfg.PatternFor("acme.com"))
	assert.True(t, cfg.IsPersonal("example-mail.net"))
	assert.False(t, cfg.IsPersonal("yahoo.com"), "explicit list replaces the defaults")
}

func TestParseConfig_ExplicitZeroThreshold(t *testing.T) {
	cfg, err := ParseConfig([]byte("email_waterfall:\n  thresholds:\n    pattern: 0\n"))
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Thresholds.Pattern, "explicit zero is kept")
	assert.Equal(t, DefaultDomainMatchThreshold, cfg.Thresholds.DomainMatch)
	assert.Equal(t, DefaultPersonalThreshold, cfg.Thresholds.Personal)

	empty, err := ParseConfig([]byte("email_waterfall: {}\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultThresholds(), empty.Thresholds)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 80, cfg.Thresholds.DomainMatch)
	assert.Equal(t, 70, cfg.Thresholds.Pattern)
	assert.Equal(t, 85, cfg.Thresholds.Personal)
	assert.Equal(t, "{first}.{last}", cfg.DefaultPattern)
	assert.True(t, cfg.IsPersonal("gmail.com"))
	assert.True(t, cfg.IsPersonal("Outlook.com"))
	assert.False(t, cfg.IsPersonal("acme.com"))
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/waterfall.yaml")
	assert.Error(t, err)

	cfg, err := LoadConfigOrDefault("/nonexistent/waterfall.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultDomainMatchThreshold, cfg.Thresholds.DomainMatch)
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "email_waterfall: [unclosed"},
		{"threshold out of range", "email_waterfall:\n  thresholds:\n    pattern: 140\n"},
		{"template without placeholder", "email_waterfall:\n  default_pattern: sales\n"},
		{"template with domain", "email_waterfall:\n  patterns:\n    acme.com: \"{first}@acme.com\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		tmpl    string
		first   string
		last    string
		want    string
		wantErr bool
	}{
		{"{first}.{last}", "Jane", "Doe", "jane.doe@acme.com", false},
		{"{f}{last}", "Jane", "Doe", "jdoe@acme.com", false},
		{"{first}{l}", "Jane", "Doe", "janed@acme.com", false},
		{"{first}", "Jane", "", "jane@acme.com", false},
		{"{first}.{last}", "José", "O'Brien-Smith", "jose.obriensmith@acme.com", false},
		{"{FIRST}.{LAST}", "Jane", "Doe", "jane.doe@acme.com", false},
		{"{first}.{last}", "Jane", "", "", true},
		{"admin", "Jane", "Doe", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.tmpl+"/"+tt.first+"/"+tt.last, func(t *testing.T) {
			got, err := Render(tt.tmpl, tt.first, tt.last, "acme.com")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Render("{first}", "Jane", "Doe", "")
	assert.Error(t, err)
}

func TestWatchReloadsConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "waterfall.yaml")
	require.NoError(t, os.WriteFile(path, []byte("email_waterfall:\n  thresholds:\n    domain_match: 80\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	r := NewResolver(cfg, nil, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, Watch(ctx, path, r))

	// An invalid write keeps the previous config.
	require.NoError(t, os.WriteFile(path, []byte("email_waterfall:\n  thresholds:\n    domain_match: 400\n"), 0644))
	require.NoError(t, os.WriteFile(path, []byte("email_waterfall:\n  thresholds:\n    domain_match: 90\n"), 0644))

	assert.Eventually(t, func() bool {
		return r.Config().Thresholds.DomainMatch == 90
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatchMissingDirectory(t *testing.T) {
	r := NewResolver(nil, nil, nil, nil, nil)
	err := Watch(context.Background(), "/nonexistent/dir/waterfall.yaml", r)
	assert.Error(t, err)
}
