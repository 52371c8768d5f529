package maintenance

import (
	"errors"
	"fleetcare/authority"
	"fleetcare/bizerror"
	"fleetcare/domain"
	"fleetcare/testinfra"
	"testing"
	"time"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
)

var manager = testinfra.BuildSession(1, authority.PermLifecycleManage)

func setupPlans(t *testing.T) *testinfra.TestDatabase {
	testDatabase := testinfra.StartTestDatabaseWith("maintenance", &domain.Vehicle{}, &domain.MaintenancePlan{})
	now := time.Now()
	Expect(testDatabase.DS.GormDB(nil).Create(&domain.Vehicle{ID: 10, Plate: "P-10", Mileage: 50000,
		Status: domain.VehicleActive, CreateTime: now, UpdateTime: now}).Error).To(BeNil())
	return testDatabase
}

func TestSchedule(t *testing.T) {
	RegisterTestingT(t)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("should schedule by days from last service", func(t *testing.T) {
		last := now.AddDate(0, 0, -20)
		plan := domain.MaintenancePlan{IntervalDays: 30, LastServiceTime: &last, CreateTime: now.AddDate(-1, 0, 0)}
		schedule(&plan, 0, now)
		Expect(*plan.NextDueTime).To(Equal(now.AddDate(0, 0, 10)))
		Expect(plan.NextDueMileage).To(BeZero())
		Expect(plan.Status).To(Equal(domain.PlanScheduled))

		schedule(&plan, 0, now.AddDate(0, 0, 10))
		Expect(plan.Status).To(Equal(domain.PlanOverdue))
	})

	t.Run("should schedule by kilometers", func(t *testing.T) {
		plan := domain.MaintenancePlan{IntervalKm: 10000, LastServiceMileage: 42000, CreateTime: now}
		schedule(&plan, 51999, now)
		Expect(plan.NextDueTime).To(BeNil())
		Expect(plan.NextDueMileage).To(Equal(int64(52000)))
		Expect(plan.Status).To(Equal(domain.PlanScheduled))

		schedule(&plan, 52000, now)
		Expect(plan.Status).To(Equal(domain.PlanOverdue))
	})
}

func TestPlans(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should validate plan creation", func(t *testing.T) {
		_, err := CreatePlan(&PlanCreation{VehicleID: 10, Title: "oil"}, testinfra.BuildSession(2))
		Expect(err).To(Equal(bizerror.ErrForbidden))
		_, err = CreatePlan(&PlanCreation{VehicleID: 10, Title: "oil"}, manager)
		Expect(err).To(MatchError("plan needs an interval in days or kilometers"))
	})

	t.Run("should create, complete and delete plans", func(t *testing.T) {
		testDatabase := setupPlans(t)
		defer testinfra.StopTestDatabase(testDatabase)

		_, err := CreatePlan(&PlanCreation{VehicleID: 404, Title: "oil", IntervalDays: 90}, manager)
		Expect(errors.Is(err, bizerror.ErrNotFound)).To(BeTrue())

		oil, err := CreatePlan(&PlanCreation{VehicleID: 10, Title: "oil change", IntervalKm: 5000}, manager)
		Expect(err).To(BeNil())
		Expect(oil.LastServiceMileage).To(Equal(int64(50000)))
		Expect(oil.NextDueMileage).To(Equal(int64(55000)))
		Expect(oil.Status).To(Equal(domain.PlanScheduled))

		longAgo := time.Now().AddDate(0, -6, 0)
		inspection, err := CreatePlan(&PlanCreation{VehicleID: 10, Title: "inspection", IntervalDays: 90, LastServiceTime: &longAgo}, manager)
		Expect(err).To(BeNil())
		Expect(inspection.Status).To(Equal(domain.PlanOverdue))

		due, err := QueryPlans(&PlanQuery{DueOnly: true}, manager)
		Expect(err).To(BeNil())
		Expect(due).To(HaveLen(1))
		Expect(due[0].ID).To(Equal(inspection.ID))

		all, err := QueryPlans(&PlanQuery{VehicleID: 10}, manager)
		Expect(err).To(BeNil())
		Expect(all).To(HaveLen(2))

		completed, err := CompletePlan(inspection.ID, &PlanCompletion{Mileage: 51000}, manager)
		Expect(err).To(BeNil())
		Expect(completed.Status).To(Equal(domain.PlanScheduled))
		Expect(completed.LastServiceMileage).To(Equal(int64(51000)))
		Expect(completed.NextDueTime.After(time.Now().AddDate(0, 0, 89))).To(BeTrue())

		_, err = CompletePlan(oil.ID, &PlanCompletion{Mileage: 1}, manager)
		Expect(err).To(MatchError("service mileage can not be lower than the last service"))

		Expect(DeletePlan(oil.ID, manager)).To(BeNil())
		Expect(DeletePlan(oil.ID, manager)).To(MatchError("maintenance plan " + oil.ID.String() + " not found"))
	})
}

func TestSweepOverdue(t *testing.T) {
	RegisterTestingT(t)

	testDatabase := setupPlans(t)
	defer testinfra.StopTestDatabase(testDatabase)
	db := testDatabase.DS.GormDB(nil)
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.AddDate(0, 1, 0)

	plans := []domain.MaintenancePlan{
		{ID: 1, VehicleID: 10, Title: "dated", IntervalDays: 30, NextDueTime: &past, Status: domain.PlanScheduled, CreateTime: now},
		{ID: 2, VehicleID: 10, Title: "km", IntervalKm: 1000, NextDueMileage: 49000, Status: domain.PlanScheduled, CreateTime: now},
		{ID: 3, VehicleID: 10, Title: "fine", IntervalDays: 30, NextDueTime: &future, Status: domain.PlanScheduled, CreateTime: now},
		{ID: 4, VehicleID: 404, Title: "orphan", IntervalKm: 10, NextDueMileage: 1, Status: domain.PlanScheduled, CreateTime: now},
	}
	for i := range plans {
		Expect(db.Create(&plans[i]).Error).To(BeNil())
	}

	swept, err := SweepOverdue(now)
	Expect(err).To(BeNil())
	Expect(swept).To(Equal(int64(2)))

	statuses := map[types.ID]domain.PlanStatus{}
	stored := []domain.MaintenancePlan{}
	Expect(db.Find(&stored).Error).To(BeNil())
	for _, p := range stored {
		statuses[p.ID] = p.Status
	}
	Expect(statuses).To(Equal(map[types.ID]domain.PlanStatus{1: domain.PlanOverdue, 2: domain.PlanOverdue,
		3: domain.PlanScheduled, 4: domain.PlanScheduled}))

	swept, err = SweepOverdue(now)
	Expect(err).To(BeNil())
	Expect(swept).To(BeZero())
}

func TestStartCron(t *testing.T) {
	RegisterTestingT(t)

	_, err := StartCron("not a cron")
	Expect(err).ToNot(BeNil())

	crontab, err := StartCron("0 0 2 * * *")
	Expect(err).To(BeNil())
	Expect(crontab.Entries()).To(HaveLen(1))
	crontab.Stop()
}
