package vehicle_test

import (
	"errors"
	"fleetcare/bizerror"
	"fleetcare/domain"
	"fleetcare/domain/vehicle"
	"fleetcare/session"
	"fleetcare/testinfra"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
)

func TestVehiclesRestAPI(t *testing.T) {
	RegisterTestingT(t)

	router := gin.Default()
	router.Use(bizerror.ErrorHandling())
	vehicle.RegisterVehiclesRestAPI(router)
	defer func() {
		vehicle.CreateVehicleFunc = vehicle.CreateVehicle
		vehicle.QueryVehiclesFunc = vehicle.QueryVehicles
		vehicle.DetailVehicleFunc = vehicle.DetailVehicle
		vehicle.UpdateVehicleFunc = vehicle.UpdateVehicle
	}()

	t.Run("should validate creation", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, vehicle.PathVehicles, strings.NewReader(`{}`))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(MatchJSON(`{"code":"common.bad_param",
			"message":"Key: 'VehicleCreation.Plate' Error:Field validation for 'Plate' failed on the 'required' tag","data":null}`))
	})

	t.Run("should create vehicle", func(t *testing.T) {
		var creation *vehicle.VehicleCreation
		vehicle.CreateVehicleFunc = func(c *vehicle.VehicleCreation, s *session.Session) (*domain.Vehicle, error) {
			creation = c
			return &domain.Vehicle{ID: 5, Plate: c.Plate, Status: domain.VehicleActive}, nil
		}
		req := httptest.NewRequest(http.MethodPost, vehicle.PathVehicles, strings.NewReader(`{"plate":"ABC-1","mileage":10,"clientId":"3"}`))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusCreated))
		Expect(body).To(ContainSubstring(`"id":"5"`))
		Expect(body).To(ContainSubstring(`"status":"active"`))
		Expect(*creation).To(Equal(vehicle.VehicleCreation{Plate: "ABC-1", Mileage: 10, ClientID: 3}))
	})

	t.Run("should pass query parameters", func(t *testing.T) {
		var query *vehicle.VehicleQuery
		vehicle.QueryVehiclesFunc = func(q *vehicle.VehicleQuery, s *session.Session) ([]domain.Vehicle, error) {
			query = q
			return []domain.Vehicle{}, nil
		}
		req := httptest.NewRequest(http.MethodGet, vehicle.PathVehicles+"?status=in-service&clientId=3", nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`[]`))
		Expect(*query).To(Equal(vehicle.VehicleQuery{Status: domain.VehicleInService, ClientID: 3}))
	})

	t.Run("should map not found", func(t *testing.T) {
		vehicle.DetailVehicleFunc = func(id types.ID, s *session.Session) (*domain.Vehicle, error) {
			return nil, bizerror.NotFound("vehicle", id)
		}
		req := httptest.NewRequest(http.MethodGet, vehicle.PathVehicles+"/7", nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusNotFound))
		Expect(body).To(MatchJSON(`{"code":"common.record_not_found","message":"vehicle 7 not found","data":{"entity":"vehicle","id":"7"}}`))
	})

	t.Run("should update vehicle", func(t *testing.T) {
		var updating *vehicle.VehicleUpdating
		vehicle.UpdateVehicleFunc = func(id types.ID, u *vehicle.VehicleUpdating, s *session.Session) (*domain.Vehicle, error) {
			updating = u
			return &domain.Vehicle{ID: id}, nil
		}
		req := httptest.NewRequest(http.MethodPatch, vehicle.PathVehicles+"/7", strings.NewReader(`{"mileage":900}`))
		status, _, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(*updating.Mileage).To(Equal(int64(900)))
		Expect(updating.Inactive).To(BeNil())

		vehicle.UpdateVehicleFunc = func(id types.ID, u *vehicle.VehicleUpdating, s *session.Session) (*domain.Vehicle, error) {
			return nil, errors.New("some error")
		}
		req = httptest.NewRequest(http.MethodPatch, vehicle.PathVehicles+"/7", strings.NewReader(`{}`))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusInternalServerError))
		Expect(body).To(MatchJSON(`{"code":"common.internal_server_error","message":"some error","data":null}`))
	})
}
