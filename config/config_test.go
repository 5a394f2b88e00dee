package config

import (
	"os"
	"testing"

	"github.com/frankban/quicktest"
)

func writeTempConfig(c *quicktest.C, content string) string {
	tmpfile, err := os.CreateTemp("", "testconfig*.conf")
	c.Assert(err, quicktest.IsNil)
	c.Cleanup(func() { os.Remove(tmpfile.Name()) })
	_, err = tmpfile.WriteString(content)
	c.Assert(err, quicktest.IsNil)
	tmpfile.Close()
	return tmpfile.Name()
}

func TestLoadConfig_ParsesSettings(t *testing.T) {
	c := quicktest.New(t)
	name := writeTempConfig(c, `
# lookup settings
column: Beneficiary IFSC
base-url: http://localhost:9000/ifsc
workers: 8
`)

	settings, err := LoadConfig(name)
	c.Assert(err, quicktest.IsNil)
	c.Assert(settings, quicktest.DeepEquals, map[string]string{
		"column":   "Beneficiary IFSC",
		"base-url": "http://localhost:9000/ifsc",
		"workers":  "8",
	})
}

func TestLoadConfig_HandlesEmptyFile(t *testing.T) {
	c := quicktest.New(t)
	name := writeTempConfig(c, "")

	settings, err := LoadConfig(name)
	c.Assert(err, quicktest.IsNil)
	c.Assert(settings, quicktest.DeepEquals, map[string]string{})
}

func TestLoadConfig_RejectsMalformedLine(t *testing.T) {
	c := quicktest.New(t)
	name := writeTempConfig(c, "column Remitter IFSC\n")

	_, err := LoadConfig(name)
	c.Assert(err, quicktest.ErrorMatches, "invalid config line format.*")
}

func TestLoadConfig_MissingFile(t *testing.T) {
	c := quicktest.New(t)
	_, err := LoadConfig("/nonexistent/ifsc.conf")
	c.Assert(err, quicktest.ErrorMatches, "failed to read config file: .*")
}

func TestValidate(t *testing.T) {
	c := quicktest.New(t)

	cfg := Default()
	c.Assert(cfg.Validate(), quicktest.IsNil)

	cfg.HeaderMode = "all"
	c.Assert(cfg.Validate(), quicktest.ErrorMatches, `invalid header mode "all".*`)

	cfg = Default()
	cfg.WorkerCount = -1
	c.Assert(cfg.Validate(), quicktest.ErrorMatches, "worker count must not be negative: -1")

	cfg = Default()
	cfg.Column = ""
	c.Assert(cfg.Validate(), quicktest.ErrorMatches, "lookup column must not be empty")
}

func TestGetEnvOrDefault(t *testing.T) {
	c := quicktest.New(t)
	c.Setenv("IFSC_TEST_VALUE", "set")
	c.Assert(GetEnvOrDefault("IFSC_TEST_VALUE", "fallback"), quicktest.Equals, "set")
	c.Assert(GetEnvOrDefault("IFSC_TEST_UNSET", "fallback"), quicktest.Equals, "fallback")
}
