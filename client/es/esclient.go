package es

import (
	"bytes"
	"encoding/json"
	"errors"
	"fleetcare/bizerror"
	"fleetcare/session"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/elastic/go-elasticsearch/v7/estransport"
	"github.com/fundwit/go-commons/types"
	"github.com/sirupsen/logrus"
)

var (
	SearchFunc             = Search
	IndexFunc              = Index
	GetDocumentFunc        = GetDocument
	DropIndexFunc          = DropIndex
	DeleteDocumentByIdFunc = DeleteDocumentById
)

// ActiveESClient stays nil unless an elasticsearch url is configured.
var ActiveESClient *elasticsearch.Client

func Enabled() bool {
	return ActiveESClient != nil
}

// Bootstrap connects to the cluster at url, request and response bodies are logged in gin debug mode.
func Bootstrap(url string) error {
	debug := os.Getenv("GIN_MODE") == "debug"
	conf := elasticsearch.Config{
		Logger:    &estransport.TextLogger{Output: os.Stdout, EnableRequestBody: debug, EnableResponseBody: debug},
		Transport: &TracingTransport{Transport: http.DefaultTransport},
	}
	// the client reads ELASTICSEARCH_URL by itself and rejects explicit addresses next to it
	if os.Getenv("ELASTICSEARCH_URL") == "" {
		conf.Addresses = []string{url}
	}
	client, err := elasticsearch.NewClient(conf)
	if err != nil {
		return err
	}
	ActiveESClient = client
	return nil
}

// perform runs req and returns the response status and body, transport failures are returned as is.
func perform(req esapi.Request, s *session.Session) (int, []byte, error) {
	res, err := req.Do(s.Context, ActiveESClient)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, nil, err
	}
	logrus.WithField("status", res.StatusCode).Debugln(string(body))
	return res.StatusCode, body, nil
}

func failed(status int) bool {
	return status > 299
}

func DropIndex(index string, s *session.Session) error {
	status, body, err := perform(esapi.IndicesDeleteRequest{Index: []string{index}}, s)
	if err != nil {
		return err
	}
	if failed(status) && status != http.StatusNotFound {
		return fmt.Errorf("drop index %s: status %d, %s", index, status, body)
	}
	return nil
}

func Index(index string, id types.ID, doc interface{}, s *session.Session) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{
		Index:      index,
		DocumentID: id.String(),
		Body:       bytes.NewReader(payload),
		Refresh:    "true",
	}
	status, body, err := perform(req, s)
	if err != nil {
		return err
	}
	if failed(status) {
		return fmt.Errorf("index %s/%s: status %d, %s", index, id, status, body)
	}
	return nil
}

func Search(index string, query interface{}, s *session.Session) (*ESSearchResult, error) {
	payload, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	req := esapi.SearchRequest{
		Index:          []string{index},
		Body:           bytes.NewReader(payload),
		TrackTotalHits: true,
	}
	status, body, err := perform(req, s)
	if err != nil {
		return nil, err
	}
	if failed(status) {
		return nil, errors.New(string(body))
	}

	r := ESSearchResult{}
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func GetDocument(index string, id types.ID, s *session.Session) (Source, error) {
	status, body, err := perform(esapi.GetRequest{Index: index, DocumentID: id.String()}, s)
	if err != nil {
		return "", err
	}
	if status == http.StatusNotFound {
		return "", bizerror.ErrNotFound
	}
	if failed(status) {
		return "", fmt.Errorf("get %s/%s: status %d, %s", index, id, status, body)
	}
	result := documentResult{}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", err
	}
	if !result.Found {
		return "", bizerror.ErrNotFound
	}
	return result.Source, nil
}

// DeleteDocumentById succeeds when the document is gone afterwards, whether or not it existed.
func DeleteDocumentById(index string, id types.ID, s *session.Session) error {
	status, body, err := perform(esapi.DeleteRequest{Index: index, DocumentID: id.String(), Refresh: "true"}, s)
	if err != nil {
		return err
	}
	result := documentResult{}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("delete %s/%s: status %d, %s", index, id, status, body)
	}
	if result.Result == "deleted" || result.Result == "not_found" {
		return nil
	}
	return fmt.Errorf("delete %s/%s: status %d, %s", index, id, status, body)
}
