package main

import (
	"context"
	"fleetcare/account"
	"fleetcare/bizerror"
	"fleetcare/client/es"
	"fleetcare/client/s3"
	"fleetcare/common"
	"fleetcare/config"
	"fleetcare/dashboard"
	"fleetcare/domain"
	"fleetcare/domain/client"
	"fleetcare/domain/employee"
	"fleetcare/domain/inventory"
	"fleetcare/domain/lifecycle"
	"fleetcare/domain/maintenance"
	"fleetcare/domain/provider"
	"fleetcare/domain/report"
	"fleetcare/domain/vehicle"
	"fleetcare/domain/workorder"
	"fleetcare/event"
	"fleetcare/indices"
	"fleetcare/indices/indexlog"
	"fleetcare/indices/search"
	"fleetcare/infra/tracing"
	"fleetcare/persistence"
	"fleetcare/servehttp"
	"fleetcare/session"
	"fleetcare/sessions"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.Info("service start")

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config failed: %v", err)
	}
	if err := common.ConfigureLogging(cfg.Log); err != nil {
		logrus.Fatalf("configure logging failed: %v", err)
	}
	if cfg.Jwt.Secret != "" {
		session.JwtSecret = []byte(cfg.Jwt.Secret)
	} else {
		logrus.Warn("JWT_SECRET is not set, access tokens are signed with the development secret")
	}

	tracerCloser, err := tracing.Bootstrap(common.ServiceName)
	if err != nil {
		logrus.Fatalf("tracer bootstrap failed: %v", err)
	}
	defer tracerCloser.Close()

	// create database (no conflict)
	if cfg.Database.DriverType == persistence.DriverMysql {
		if err := persistence.PrepareMysqlDatabase(cfg.Database.DriverArgs); err != nil {
			logrus.Fatalf("failed to prepare database: %v", err)
		}
	}
	ds := &persistence.DataSourceManager{DatabaseConfig: &cfg.Database}
	if err := ds.Start(); err != nil {
		logrus.Fatalf("database connection failed: %v", err)
	}
	defer ds.Stop()
	persistence.ActiveDataSourceManager = ds

	// database migration (race condition)
	tables := []interface{}{&account.User{}, &account.Role{}, &account.Permission{}, &account.UserRoleBinding{},
		&account.RolePermissionBinding{}, &event.EventRecord{}, &indexlog.IndexLogRecord{}}
	if err := ds.GormDB(nil).AutoMigrate(append(tables, domain.AllTables...)...).Error; err != nil {
		logrus.Fatalf("database migration failed: %v", err)
	}
	if err := account.DefaultSecurityConfiguration(); err != nil {
		logrus.Fatalf("security configuration failed: %v", err)
	}

	if err := s3.Bootstrap(cfg.Oss); err != nil {
		logrus.Fatalf("oss bootstrap failed: %v", err)
	}

	if cfg.Elasticsearch.URL != "" {
		if err := es.Bootstrap(cfg.Elasticsearch.URL); err != nil {
			logrus.Fatalf("elasticsearch bootstrap failed: %v", err)
		}
		event.EventHandlers = append(event.EventHandlers, indices.IndexReportEventHandle)
		indexCron, err := indices.StartCron()
		if err != nil {
			logrus.Fatalf("index cron failed: %v", err)
		}
		defer indexCron.Stop()
	} else {
		logrus.Info("ELASTICSEARCH_URL is not set, report search is disabled")
	}

	maintenanceCron, err := maintenance.StartCron(cfg.Maintenance.Cron)
	if err != nil {
		logrus.Fatalf("maintenance cron failed: %v", err)
	}
	defer maintenanceCron.Stop()

	engine := gin.Default()
	engine.Use(tracing.TracingIngress(), bizerror.ErrorHandling())
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, common.ServiceName)
	})

	sessions.RegisterSessionsHandler(engine)
	auth := session.SimpleAuthFilter()
	sessions.RegisterSessionHandler(engine, auth)
	account.RegisterUsersHandler(engine, auth)
	vehicle.RegisterVehiclesRestAPI(engine, auth)
	report.RegisterReportsRestAPI(engine, auth)
	lifecycle.RegisterLifecycleRestAPI(engine, auth)
	workorder.RegisterWorkOrdersRestAPI(engine, auth)
	employee.RegisterEmployeesRestAPI(engine, auth)
	client.RegisterClientsRestAPI(engine, auth)
	provider.RegisterProvidersRestAPI(engine, auth)
	inventory.RegisterInventoryRestAPI(engine, auth)
	maintenance.RegisterPlansRestAPI(engine, auth)
	dashboard.RegisterDashboardRestAPI(engine, auth)
	event.RegisterEventsRestAPI(engine, auth)
	if es.Enabled() {
		indices.RegisterIndicesRestAPI(engine, auth)
		search.RegisterSearchRestAPI(engine, auth)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := servehttp.StartHTTPServer(ctx, cfg.Server.Addr, engine); err != nil {
		logrus.Errorf("http server: %v", err)
	}
	logrus.Info("[QUIT] service exiting")
}
