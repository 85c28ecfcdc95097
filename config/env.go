package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/c360studio/searxng-mcp/searxng"
)

// ApplyEnv overlays environment variables onto c. Environment variables
// have the highest precedence. Timeouts are given in whole seconds.
func (c *Config) ApplyEnv() error {
	envString(&c.Searxng.BaseURL, "SEARXNG_BASE_URL")
	envList(&c.Searxng.DefaultCategories, "SEARXNG_DEFAULT_CATEGORIES")
	envList(&c.Searxng.DefaultEngines, "SEARXNG_DEFAULT_ENGINES")
	envString(&c.Searxng.Language, "SEARXNG_DEFAULT_LANGUAGE")
	envString(&c.Searxng.UserAgent, "SEARXNG_USER_AGENT")
	// Safe search is parsed leniently: anything that is not 0 or 2 means
	// moderate, so a stray value never blocks startup.
	if v, ok := os.LookupEnv("SEARXNG_SAFE_SEARCH"); ok && v != "" {
		c.Searxng.SafeSearch = int(searxng.ParseSafeSearch(v))
	}
	if err := envInt(&c.Searxng.NumResults, "SEARXNG_NUM_RESULTS"); err != nil {
		return err
	}
	if err := envSeconds(&c.Searxng.Timeout, "SEARXNG_TIMEOUT_SECS"); err != nil {
		return err
	}

	if err := envBool(&c.Browse.FollowRedirects, "BROWSE_FOLLOW_REDIRECTS"); err != nil {
		return err
	}
	if err := envInt(&c.Browse.MaxRedirects, "BROWSE_MAX_REDIRECTS"); err != nil {
		return err
	}
	if err := envInt64(&c.Browse.MaxBytes, "BROWSE_MAX_BYTES"); err != nil {
		return err
	}
	if err := envSeconds(&c.Browse.Timeout, "BROWSE_TIMEOUT_SECS"); err != nil {
		return err
	}
	envString(&c.Browse.UserAgent, "BROWSE_USER_AGENT")
	if v, ok := os.LookupEnv("BROWSE_ALLOWED_HOSTS"); ok {
		c.Browse.AllowedHosts = lowerList(strings.Split(v, ","))
	}
	if err := envBool(&c.Browse.AllowPrivate, "BROWSE_ALLOW_PRIVATE"); err != nil {
		return err
	}
	if err := envBool(&c.Browse.Readability, "BROWSE_READABILITY"); err != nil {
		return err
	}

	if v, ok := os.LookupEnv("SEARXNG_MCP_TOOLS"); ok {
		c.Tools = normalizeList(strings.Split(v, ","))
	}
	if err := envBool(&c.StreamableHTTP.Stateful, "STREAMABLE_HTTP_STATEFUL"); err != nil {
		return err
	}
	if err := envBool(&c.Metrics.Enabled, "METRICS_ENABLED"); err != nil {
		return err
	}
	envString(&c.Audit.URL, "AUDIT_NATS_URL")
	envString(&c.Audit.Subject, "AUDIT_NATS_SUBJECT")

	return nil
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envList(dst *[]string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = normalizeList(strings.Split(v, ","))
	}
}

func envInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s: invalid integer %q", key, v)
	}
	*dst = n
	return nil
}

func envInt64(dst *int64, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return fmt.Errorf("%s: invalid integer %q", key, v)
	}
	*dst = n
	return nil
}

func envBool(dst *bool, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s: invalid boolean %q", key, v)
	}
	*dst = b
	return nil
}

func envSeconds(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 32)
	if err != nil {
		return fmt.Errorf("%s: invalid seconds value %q", key, v)
	}
	*dst = time.Duration(n) * time.Second
	return nil
}
