package testinfra

import (
	"fleetcare/persistence"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type TestDatabase struct {
	TestDatabaseName string
	DS               *persistence.DataSourceManager

	sqliteFile string
}

// StartTestDatabase starts a mysql database when TEST_MYSQL_SERVICE is set (e.g. root:root@(127.0.0.1:3306)),
// a temporary sqlite database otherwise.
func StartTestDatabase(baseName string) *TestDatabase {
	if os.Getenv("TEST_MYSQL_SERVICE") != "" {
		return StartMysqlTestDatabase(baseName)
	}
	return StartSqliteTestDatabase(baseName)
}

func StopTestDatabase(testDatabase *TestDatabase) {
	if testDatabase == nil || testDatabase.DS == nil {
		return
	}
	if testDatabase.sqliteFile != "" {
		testDatabase.DS.Stop()
		if err := os.Remove(testDatabase.sqliteFile); err != nil {
			log.Println("failed to remove test database file: " + testDatabase.sqliteFile)
		}
		return
	}
	StopMysqlTestDatabase(testDatabase)
}

func StartSqliteTestDatabase(baseName string) *TestDatabase {
	databaseName := baseName + "_test_" + strings.ReplaceAll(uuid.New().String(), "-", "")
	file := filepath.Join(os.TempDir(), databaseName+".db")

	dbConfig := &persistence.DatabaseConfig{
		DriverType: persistence.DriverSqlite, DriverArgs: file + "?_busy_timeout=5000&_foreign_keys=0",
	}
	ds := &persistence.DataSourceManager{DatabaseConfig: dbConfig}
	if err := ds.Start(); err != nil {
		log.Fatalf("database connection failed %v\n", err)
	}
	return &TestDatabase{TestDatabaseName: databaseName, DS: ds, sqliteFile: file}
}

func StartMysqlTestDatabase(baseName string) *TestDatabase {
	mysqlSvc := os.Getenv("TEST_MYSQL_SERVICE")
	if mysqlSvc == "" {
		mysqlSvc = "root:root@(127.0.0.1:3306)"
	}
	databaseName := baseName + "_test_" + strings.ReplaceAll(uuid.New().String(), "-", "")

	dbConfig := &persistence.DatabaseConfig{
		DriverType: persistence.DriverMysql,
		DriverArgs: mysqlSvc + "/" + databaseName + "?charset=utf8mb4&parseTime=True&loc=Local&timeout=5s",
	}

	// create database (no conflict)
	if err := persistence.PrepareMysqlDatabase(dbConfig.DriverArgs); err != nil {
		log.Fatalf("failed to prepare database %v\n", err)
	}

	ds := &persistence.DataSourceManager{DatabaseConfig: dbConfig}
	if err := ds.Start(); err != nil {
		defer ds.Stop()
		log.Fatalf("database connection failed %v\n", err)
	}

	return &TestDatabase{TestDatabaseName: databaseName, DS: ds}
}

func StopMysqlTestDatabase(testDatabase *TestDatabase) {
	if testDatabase == nil || testDatabase.DS == nil {
		return
	}
	if db := testDatabase.DS.GormDB(nil); db != nil {
		if err := db.Exec("DROP DATABASE " + testDatabase.TestDatabaseName).Error; err != nil {
			log.Println("failed to drop test database: " + testDatabase.TestDatabaseName)
		} else {
			log.Println("test database " + testDatabase.TestDatabaseName + " dropped")
		}
	}
	testDatabase.DS.Stop()
}

// StartTestDatabaseWith starts a test database, activates it and creates the given tables.
func StartTestDatabaseWith(baseName string, tables ...interface{}) *TestDatabase {
	testDatabase := StartTestDatabase(baseName)
	persistence.ActiveDataSourceManager = testDatabase.DS
	if err := testDatabase.DS.GormDB(nil).AutoMigrate(tables...).Error; err != nil {
		StopTestDatabase(testDatabase)
		log.Fatalf("failed to migrate test database %v\n", err)
	}
	return testDatabase
}
