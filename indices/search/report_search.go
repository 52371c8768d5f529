package search

import (
	"encoding/json"
	"fleetcare/bizerror"
	"fleetcare/client/es"
	"fleetcare/domain"
	"fleetcare/indices"
	"fleetcare/session"
	"net/http"
	"strings"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
)

var (
	PathSearchReports = "/v1/search/reports"

	SearchReportsFunc = SearchReports

	MaxResults = 200
)

type ReportSearchQuery struct {
	Q         string              `form:"q"`
	Status    domain.ReportStatus `form:"status"`
	VehicleID types.ID            `form:"vehicleId"`
}

var searchFields = []string{"description", "notes", "vehiclePlate", "assigneeName", "diagnoses", "workOrders.description"}

// SearchReports matches all words of q against the report text, the diagnoses and the work orders.
func SearchReports(q *ReportSearchQuery, s *session.Session) ([]indices.ReportDocument, error) {
	filters := make([]es.H, 0, 3)
	if q.Status != "" {
		if !q.Status.Valid() {
			return nil, bizerror.BadParam("invalid report status '" + string(q.Status) + "'")
		}
		filters = append(filters, es.H{"term": es.H{"status": q.Status}})
	}
	if q.VehicleID != 0 {
		filters = append(filters, es.H{"term": es.H{"vehicleId": q.VehicleID.String()}})
	}

	boolQuery := es.H{"filter": filters}
	if text := strings.TrimSpace(q.Q); text != "" {
		boolQuery["must"] = es.H{"multi_match": es.H{"query": text, "fields": searchFields, "operator": "and"}}
	}
	body := es.H{
		"size":  MaxResults,
		"query": es.H{"bool": boolQuery},
		"sort":  []es.H{{"_score": es.H{"order": "desc"}}, {"createTime": es.H{"order": "desc"}}},
	}

	r, err := es.SearchFunc(indices.ReportIndexName, body, s)
	if err != nil {
		return nil, err
	}
	docs := make([]indices.ReportDocument, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		doc := indices.ReportDocument{}
		if err := json.Unmarshal([]byte(hit.Source), &doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func RegisterSearchRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	r.GET(PathSearchReports, append(middleWares, handleSearchReports)...)
}

func handleSearchReports(c *gin.Context) {
	query := ReportSearchQuery{}
	if err := c.ShouldBindQuery(&query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	docs, err := SearchReportsFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, docs)
}
