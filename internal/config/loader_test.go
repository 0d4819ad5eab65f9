package config_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/okian/wordstat-proxy/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.APIBaseURL, convey.ShouldEqual, config.DefaultAPIBaseURL)
				convey.So(cfg.UpstreamTimeoutMS, convey.ShouldEqual, 30000)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("WORDSTAT_ADDR", ":8080")
			_ = os.Setenv("WORDSTAT_API_BASE_URL", "http://127.0.0.1:7000/v1/")
			_ = os.Setenv("WORDSTAT_TOKEN_ENV", "WS_TOKEN")
			_ = os.Setenv("WORDSTAT_UPSTREAM_TIMEOUT_MS", "1500")
			_ = os.Setenv("WORDSTAT_LOG_FORMAT", "json")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.APIBaseURL, convey.ShouldEqual, "http://127.0.0.1:7000/v1")
				convey.So(cfg.TokenEnv, convey.ShouldEqual, "WS_TOKEN")
				convey.So(cfg.UpstreamTimeoutMS, convey.ShouldEqual, 1500)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
api_base_url: "https://stub.example.com/v1"
upstream_timeout_ms: 5000
max_body_bytes: 4096
default_num_phrases: 50
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("WORDSTAT_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.APIBaseURL, convey.ShouldEqual, "https://stub.example.com/v1")
				convey.So(cfg.UpstreamTimeoutMS, convey.ShouldEqual, 5000)
				convey.So(cfg.MaxBodyBytes, convey.ShouldEqual, 4096)
				convey.So(cfg.DefaultNumPhrases, convey.ShouldEqual, 50)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
upstream_timeout_ms: 5000
log_level: debug
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("WORDSTAT_CONFIG", tmpFile)
			_ = os.Setenv("WORDSTAT_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")            // env
				convey.So(cfg.UpstreamTimeoutMS, convey.ShouldEqual, 5000)  // file
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")        // file
				convey.So(cfg.TokenEnv, convey.ShouldEqual, "YANDEX_TOKEN") // default
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("WORDSTAT_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("WORDSTAT_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("WORDSTAT_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("WORDSTAT_UPSTREAM_TIMEOUT_MS", "soon")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a non-URL base", func() {
			_ = os.Setenv("WORDSTAT_API_BASE_URL", "api.wordstat")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should be rejected", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "api_base_url")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When metrics settings come from file and env", func() {
			yamlContent := `
metrics:
  namespace: "seo"
  subsystem: "edge"
  enabled: false
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("WORDSTAT_CONFIG", tmpFile)
			_ = os.Setenv("WORDSTAT_METRICS_REFRESH_MS", "2500")
			_ = os.Setenv("WORDSTAT_METRICS_PREFIX", "ws")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then both layers should land in the metrics section", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Metrics.Namespace, convey.ShouldEqual, "seo")
				convey.So(cfg.Metrics.Subsystem, convey.ShouldEqual, "edge")
				convey.So(cfg.Metrics.Enabled, convey.ShouldBeFalse)
				convey.So(cfg.Metrics.Prefix, convey.ShouldEqual, "ws")
				convey.So(cfg.Metrics.RefreshInterval(), convey.ShouldEqual, 2500*time.Millisecond)
			})
		})

		convey.Convey("When the metrics refresh period is zero", func() {
			_ = os.Setenv("WORDSTAT_METRICS_REFRESH_MS", "0")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should be rejected", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "metrics.refresh_ms")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with YAML file containing comments", func() {
			yamlContent := `
# upstream
api_base_url: "https://stub.example.com/v1/"  # trailing slash is trimmed
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("WORDSTAT_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should parse YAML with comments", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.APIBaseURL, convey.ShouldEqual, "https://stub.example.com/v1")
			})
		})
	})
}

func TestLoadDotEnv(t *testing.T) {
	convey.Convey("Given a .env file", t, func() {
		tmpFile := createTempConfigFile("WORDSTAT_ADDR=:7070\nWORDSTAT_TEST_TOKEN=from-file\n")
		defer func() { _ = os.Remove(tmpFile) }()
		defer clearConfigEnvVars()

		convey.Convey("When Load is pointed at it", func() {
			_ = os.Setenv("WORDSTAT_DOTENV", tmpFile)

			cfg, err := config.Load(context.Background())

			convey.Convey("Then its variables should feed the env layer", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(os.Getenv("WORDSTAT_TEST_TOKEN"), convey.ShouldEqual, "from-file")
			})
		})

		convey.Convey("When a variable is already set", func() {
			_ = os.Setenv("WORDSTAT_ADDR", ":6060")

			err := config.LoadDotEnv(tmpFile)

			convey.Convey("Then the process value should win", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(os.Getenv("WORDSTAT_ADDR"), convey.ShouldEqual, ":6060")
			})
		})

		convey.Convey("When the file does not exist", func() {
			err := config.LoadDotEnv("/non/existent/.env")

			convey.Convey("Then it should be ignored", func() {
				convey.So(err, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"WORDSTAT_CONFIG",
		"WORDSTAT_ADDR",
		"WORDSTAT_API_BASE_URL",
		"WORDSTAT_TOKEN_ENV",
		"WORDSTAT_UPSTREAM_TIMEOUT_MS",
		"WORDSTAT_LOG_FORMAT",
		"WORDSTAT_LOG_LEVEL",
		"WORDSTAT_DOTENV",
		"WORDSTAT_TEST_TOKEN",
		"WORDSTAT_METRICS_REFRESH_MS",
		"WORDSTAT_METRICS_PREFIX",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "wordstat-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
