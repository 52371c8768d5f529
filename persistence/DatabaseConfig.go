package persistence

import (
	"database/sql"
	"errors"
	"os"
	"strings"

	"github.com/go-sql-driver/mysql"
)

const (
	DriverMysql    = "mysql"
	DriverPostgres = "postgres"
	DriverSqlite   = "sqlite3"
)

type DatabaseConfig struct {
	DriverType string `yaml:"driver"`
	DriverArgs string `yaml:"args"`
	LogMode    bool   `yaml:"logMode"`
}

// ParseDatabaseConfigFromEnv DB_DRIVER=mysql DB_ARGS=root:root@(127.0.0.1:3306)/fleetcare?charset=utf8mb4&parseTime=True&loc=Local
func ParseDatabaseConfigFromEnv() (*DatabaseConfig, error) {
	config := &DatabaseConfig{DriverType: DriverMysql}
	if driver := strings.TrimSpace(os.Getenv("DB_DRIVER")); driver != "" {
		config.DriverType = driver
	}
	config.DriverArgs = strings.TrimSpace(os.Getenv("DB_ARGS"))
	config.LogMode = os.Getenv("GIN_MODE") != "release"
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *DatabaseConfig) Validate() error {
	switch c.DriverType {
	case DriverMysql, DriverPostgres, DriverSqlite:
	default:
		return errors.New("unsupported database driver '" + c.DriverType + "'")
	}
	if c.DriverArgs == "" {
		return errors.New("database driver args is required")
	}
	return nil
}

// PrepareMysqlDatabase creates the database named in the dsn if it does not exist yet.
func PrepareMysqlDatabase(dsn string) error {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return err
	}
	databaseName := cfg.DBName
	if databaseName == "" {
		return errors.New("database name is missing in dsn")
	}
	cfg.DBName = ""

	db, err := sql.Open(DriverMysql, cfg.FormatDSN())
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.Exec("CREATE DATABASE IF NOT EXISTS `" + databaseName + "` DEFAULT CHARACTER SET utf8mb4")
	return err
}
