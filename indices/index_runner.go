package indices

import (
	cron "github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	FullSyncCron = "0 0 23 * * *"
	RecoveryCron = "0 */10 * * * *"
)

// StartCron schedules the nightly full reindex and the periodic index log recovery.
func StartCron() (*cron.Cron, error) {
	crontab := cron.New(cron.WithSeconds())
	if _, err := crontab.AddFunc(FullSyncCron, fullSync); err != nil {
		return nil, err
	}
	if _, err := crontab.AddFunc(RecoveryCron, recoverPending); err != nil {
		return nil, err
	}
	crontab.Start()
	return crontab, nil
}

func fullSync() {
	lock.Lock()
	if running {
		lock.Unlock()
		logrus.Info("indices full sync: skipped, another run is in progress")
		return
	}
	running = true
	lock.Unlock()
	defer func() {
		lock.Lock()
		running = false
		lock.Unlock()
	}()
	if err := IndicesFullSyncFunc(); err != nil {
		logrus.Errorf("indices full sync: %v", err)
	}
}

func recoverPending() {
	if _, err := RecoverPendingIndexLogsFunc(); err != nil {
		logrus.Warnf("index log recovery: %v", err)
	}
}
