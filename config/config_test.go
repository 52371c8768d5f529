package config_test

import (
	"fleetcare/config"
	"fleetcare/persistence"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"
)

func TestLoad(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should apply defaults and env overrides", func(t *testing.T) {
		t.Setenv(config.EnvConfigFile, "")
		t.Setenv("DB_DRIVER", "sqlite3")
		t.Setenv("DB_ARGS", "/tmp/fleetcare.db")
		t.Setenv("GIN_MODE", "release")
		t.Setenv("MAINTENANCE_CRON", "")

		c, err := config.Load()
		Expect(err).To(BeNil())
		Expect(c.Server.Addr).To(Equal(":80"))
		Expect(c.Database).To(Equal(persistence.DatabaseConfig{DriverType: "sqlite3", DriverArgs: "/tmp/fleetcare.db"}))
		Expect(c.Oss.Bucket).To(Equal("fleetcare"))
		Expect(c.Maintenance.Cron).To(Equal("0 0 2 * * *"))
	})

	t.Run("should read yaml file and let env win", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "fleetcare.yaml")
		Expect(os.WriteFile(file, []byte(`
server:
  addr: ":8080"
database:
  driver: mysql
  args: root:root@(127.0.0.1:3306)/fleetcare
log:
  level: debug
  format: json
elasticsearch:
  url: http://es:9200
maintenance:
  cron: "0 */5 * * * *"
`), 0644)).To(Succeed())
		t.Setenv(config.EnvConfigFile, file)
		t.Setenv("DB_DRIVER", "")
		t.Setenv("DB_ARGS", "")
		t.Setenv("GIN_MODE", "release")
		t.Setenv("SERVER_ADDR", ":9090")
		t.Setenv("MAINTENANCE_CRON", "")

		c, err := config.Load()
		Expect(err).To(BeNil())
		Expect(c.Server.Addr).To(Equal(":9090"))
		Expect(c.Database.DriverType).To(Equal("mysql"))
		Expect(c.Database.DriverArgs).To(Equal("root:root@(127.0.0.1:3306)/fleetcare"))
		Expect(c.Log.Level).To(Equal("debug"))
		Expect(c.Log.Format).To(Equal("json"))
		Expect(c.Elasticsearch.URL).To(Equal("http://es:9200"))
		Expect(c.Maintenance.Cron).To(Equal("0 */5 * * * *"))
	})

	t.Run("should fail on bad config", func(t *testing.T) {
		t.Setenv(config.EnvConfigFile, filepath.Join(t.TempDir(), "missing.yaml"))
		_, err := config.Load()
		Expect(err).ToNot(BeNil())

		t.Setenv(config.EnvConfigFile, "")
		t.Setenv("DB_DRIVER", "oracle")
		t.Setenv("DB_ARGS", "x")
		_, err = config.Load()
		Expect(err).To(MatchError("unsupported database driver 'oracle'"))
	})
}
