// ABOUTME: Tests for configuration setup
// ABOUTME: Tests defaults, environment overrides and the config file
package config

import (
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"

	"github.com/spotlink/spotlink/internal/filesystem"
	"github.com/spotlink/spotlink/internal/key"
	"github.com/spotlink/spotlink/internal/where"
)

func setupTest(t *testing.T) {
	t.Helper()
	filesystem.SetMemMapFs()
	viper.Reset()
	t.Cleanup(func() {
		viper.Reset()
		filesystem.SetOsFs()
	})
}

func TestSetup(t *testing.T) {
	setupTest(t)

	Convey("Config Setup", t, func() {
		So(Setup(), ShouldBeNil)

		Convey("Should populate defaults", func() {
			for name := range Default {
				So(viper.Get(name), ShouldNotBeNil)
			}
			So(viper.GetInt(key.ServerAPIPort), ShouldEqual, 3030)
			So(viper.GetDuration(key.RequestsTTL), ShouldEqual, 30*time.Second)
		})

		Convey("EnvKeyReplacer should convert dots to underscores", func() {
			So(EnvKeyReplacer.Replace("reconnect.min_backoff"), ShouldEqual, "reconnect_min_backoff")
		})
	})
}

func TestEnvOverride(t *testing.T) {
	setupTest(t)
	t.Setenv("SPOTLINK_SERVER_URL", "ws://kitchen:3030/")
	t.Setenv("SPOTLINK_RECONNECT_MAX_BACKOFF", "5s")

	Convey("Environment overrides defaults", t, func() {
		So(Setup(), ShouldBeNil)
		So(viper.GetString(key.ServerURL), ShouldEqual, "ws://kitchen:3030/")
		So(viper.GetDuration(key.ReconnectMaxBackoff), ShouldEqual, 5*time.Second)
	})
}

func TestConfigFile(t *testing.T) {
	setupTest(t)

	Convey("Config file overrides defaults", t, func() {
		path := filepath.Join(where.Config(), "spotlink.toml")
		err := filesystem.API().WriteFile(path, []byte("[logs]\nlevel = \"debug\"\n\n[ui]\nenabled = false\n"), 0o644)
		So(err, ShouldBeNil)

		So(Setup(), ShouldBeNil)
		So(viper.GetString(key.LogsLevel), ShouldEqual, "debug")
		So(viper.GetBool(key.UIEnabled), ShouldBeFalse)
	})
}

func TestFieldEnv(t *testing.T) {
	Convey("Field.Env", t, func() {
		f := Default[key.DiscoveryTimeout]
		So(f.Env(), ShouldEqual, "SPOTLINK_DISCOVERY_TIMEOUT")
		So(f.typeName(), ShouldEqual, "duration")
	})
}
