package maintenance

import (
	"fleetcare/domain"
	"fleetcare/persistence"
	"time"

	"github.com/fundwit/go-commons/types"
	cron "github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// SweepOverdue marks scheduled plans overdue once their date has passed or their vehicle reached the due mileage.
func SweepOverdue(now time.Time) (int64, error) {
	db := persistence.ActiveDataSourceManager.GormDB(nil)
	plans := []domain.MaintenancePlan{}
	if err := db.Where("status = ?", domain.PlanScheduled).Find(&plans).Error; err != nil {
		return 0, err
	}

	var swept int64
	mileages := map[types.ID]int64{}
	for i := range plans {
		plan := &plans[i]
		mileage, ok := mileages[plan.VehicleID]
		if !ok {
			v := domain.Vehicle{}
			if err := db.Select("mileage").Where("id = ?", plan.VehicleID).First(&v).Error; err != nil {
				logrus.Warnf("maintenance sweep: vehicle %s of plan %s: %v", plan.VehicleID, plan.ID, err)
				continue
			}
			mileage = v.Mileage
			mileages[plan.VehicleID] = mileage
		}
		if statusAt(plan, mileage, now) != domain.PlanOverdue {
			continue
		}
		ret := db.Model(&domain.MaintenancePlan{}).Where("id = ? AND status = ?", plan.ID, domain.PlanScheduled).
			Update("status", domain.PlanOverdue)
		if ret.Error != nil {
			return swept, ret.Error
		}
		swept += ret.RowsAffected
	}
	return swept, nil
}

// StartCron runs the overdue sweep on spec, a cron expression with seconds.
func StartCron(spec string) (*cron.Cron, error) {
	crontab := cron.New(cron.WithSeconds())
	if _, err := crontab.AddFunc(spec, sweep); err != nil {
		return nil, err
	}
	crontab.Start()
	return crontab, nil
}

func sweep() {
	swept, err := SweepOverdue(time.Now())
	if err != nil {
		logrus.Errorf("maintenance sweep failed: %v", err)
		return
	}
	logrus.Infof("maintenance sweep: %d plans became overdue", swept)
}
