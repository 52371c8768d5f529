package indices

import (
	"context"
	"fleetcare/authority"
	"fleetcare/bizerror"
	"fleetcare/client/es"
	"fleetcare/domain"
	"fleetcare/event"
	"fleetcare/indices/indexlog"
	"fleetcare/persistence"
	"fleetcare/session"
	"fmt"
	"sync"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

var (
	ReportIndexEventHandlerName = "reportIndexer"
	indexRobot                  = &session.Session{
		Identity: session.Identity{ID: 10, Name: "index-robot"},
		Perms:    authority.Permissions{authority.PermSystemAdmin},
		Context:  context.Background(),
	}

	lock    sync.Mutex
	running bool

	SyncBatchSize     = 500
	RecoveryBatchSize = 200

	IndicesFullSyncFunc         = IndicesFullSync
	ScheduleNewSyncRunFunc      = ScheduleNewSyncRun
	IndexlogRecoveryRoutineFunc = IndexlogRecoveryRoutine
	RecoverPendingIndexLogsFunc = RecoverPendingIndexLogs
	SyncReportFunc              = SyncReport
)

// ScheduleNewSyncRun starts a full reindex in background, false means one is already running.
func ScheduleNewSyncRun(s *session.Session) (bool, error) {
	if !s.Perms.IsSystemAdmin() {
		return false, bizerror.ErrForbidden
	}

	lock.Lock()
	if running {
		lock.Unlock()
		return false, nil
	}
	running = true
	lock.Unlock()

	waitRunning := sync.WaitGroup{}
	waitRunning.Add(1)
	go func() {
		waitRunning.Done()
		defer func() {
			lock.Lock()
			running = false
			lock.Unlock()
		}()
		if err := IndicesFullSyncFunc(); err != nil {
			logrus.Errorf("indices full sync: %v", err)
		}
	}()
	waitRunning.Wait()
	return true, nil
}

func IndicesFullSync() (err error) {
	defer func() {
		if ret := recover(); ret != nil {
			if e, ok := ret.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("error on indices full sync: %v", ret)
			}
		}
	}()

	db := persistence.ActiveDataSourceManager.GormDB(nil)
	for page := 1; ; page++ {
		docs, err := LoadReportDocumentsFunc(page, SyncBatchSize, db)
		if err != nil {
			return fmt.Errorf("load reports (page = %d, pageSize = %d): %w", page, SyncBatchSize, err)
		}
		if len(docs) == 0 {
			logrus.Infof("indices full sync: there are no more reports to index")
			return nil
		}
		if err := IndexReports(docs, indexRobot); err != nil {
			logrus.Warnf("indices full sync: error on index reports (page = %d, pageSize = %d): %v", page, SyncBatchSize, err)
		}
	}
}

// SyncReport makes the index agree with the database, a report id of zero drops the whole index.
func SyncReport(id types.ID) error {
	if id == 0 {
		return es.DropIndexFunc(ReportIndexName, indexRobot)
	}
	db := persistence.ActiveDataSourceManager.GormDB(nil)
	report := domain.Report{}
	if err := db.Where(&domain.Report{ID: id}).First(&report).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return es.DeleteDocumentByIdFunc(ReportIndexName, id, indexRobot)
		}
		return err
	}
	docs, err := BuildReportDocuments([]domain.Report{report}, db)
	if err != nil {
		return err
	}
	return IndexReports(docs, indexRobot)
}

// IndexReportEventHandle reindexes the report an event touches, the attempt is logged so that failures can be recovered.
func IndexReportEventHandle(e *event.EventRecord) *event.EventHandleResult {
	reportId, ok, err := affectedReport(e)
	if !ok {
		return nil
	}
	if err != nil {
		return &event.EventHandleResult{
			Message:           fmt.Sprintf("resolve report of %s %d, %v", e.SourceType, e.SourceId, err),
			HandlerIdentifier: ReportIndexEventHandlerName,
		}
	}

	deletion := e.EventCategory == event.EventCategoryDeleted && e.SourceType == event.SourceReport
	log, err := indexlog.CreateIndexLogFunc(event.SourceReport, reportId, deletion, e.Timestamp)
	if err != nil {
		return &event.EventHandleResult{
			Message:           fmt.Sprintf("create index log of report %d, %v", reportId, err),
			HandlerIdentifier: ReportIndexEventHandlerName,
		}
	}
	if err := SyncReportFunc(reportId); err != nil {
		if err := indexlog.FailIndexLogFunc(log.ID, err); err != nil {
			logrus.Warnf("mark index log %d failed: %v", log.ID, err)
		}
		return &event.EventHandleResult{
			Message:           fmt.Sprintf("index report %d, %v", reportId, err),
			HandlerIdentifier: ReportIndexEventHandlerName,
		}
	}
	if err := indexlog.FinishIndexLogFunc(log.ID); err != nil {
		logrus.Warnf("finish index log %d: %v", log.ID, err)
	}
	return &event.EventHandleResult{Success: true, HandlerIdentifier: ReportIndexEventHandlerName}
}

type reportRef struct {
	ReportID types.ID
}

func affectedReport(e *event.EventRecord) (types.ID, bool, error) {
	var model interface{}
	switch e.SourceType {
	case event.SourceReport:
		return e.SourceId, true, nil
	case event.SourceDiagnostic:
		model = &domain.Diagnostic{}
	case event.SourceWorkOrder:
		model = &domain.WorkOrder{}
	default:
		return 0, false, nil
	}
	refs := []reportRef{}
	if err := persistence.ActiveDataSourceManager.GormDB(nil).Model(model).Select("report_id").
		Where("id = ?", e.SourceId).Scan(&refs).Error; err != nil {
		return 0, true, err
	}
	if len(refs) == 0 {
		return 0, true, bizerror.ErrNotFound
	}
	return refs[0].ReportID, true, nil
}

// IndexlogRecoveryRoutine retries pending index logs in background.
func IndexlogRecoveryRoutine(s *session.Session) error {
	if !s.Perms.IsSystemAdmin() {
		return bizerror.ErrForbidden
	}
	go func() {
		if _, err := RecoverPendingIndexLogsFunc(); err != nil {
			logrus.Warnf("index log recovery: %v", err)
		}
	}()
	return nil
}

// RecoverPendingIndexLogs retries the pending index logs and returns how many of them are finished now.
func RecoverPendingIndexLogs() (int, error) {
	logs, err := indexlog.LoadPendingIndexLogFunc(RecoveryBatchSize)
	if err != nil {
		return 0, err
	}
	recovered := 0
	for _, l := range logs {
		if err := SyncReportFunc(l.SourceId); err != nil {
			logrus.Warnf("index log recovery: report %d: %v", l.SourceId, err)
			if err := indexlog.FailIndexLogFunc(l.ID, err); err != nil {
				return recovered, err
			}
			continue
		}
		if err := indexlog.FinishIndexLogFunc(l.ID); err != nil {
			return recovered, err
		}
		recovered++
	}
	if len(logs) > 0 {
		logrus.Infof("index log recovery: %d of %d pending logs recovered", recovered, len(logs))
	}
	return recovered, nil
}
