package es

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/opentracing/opentracing-go/mocktracer"
)

type failingTransport struct{}

func (t *failingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

func TestTracingTransport(t *testing.T) {
	RegisterTestingT(t)

	tracer := mocktracer.New()
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		Expect(r.Header.Get("Mockpfx-Ids-Traceid")).ToNot(BeEmpty())
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer bad.Close()

	tracedRequest := func(target string) (*http.Request, *mocktracer.MockSpan) {
		parent := tracer.StartSpan("parent").(*mocktracer.MockSpan)
		req, err := http.NewRequest(http.MethodGet, target+"/reports/_doc/1", nil)
		Expect(err).To(BeNil())
		return req.WithContext(opentracing.ContextWithSpan(context.Background(), parent)), parent
	}

	t.Run("should pass through requests without span", func(t *testing.T) {
		tracer.Reset()
		client := &http.Client{Transport: &TracingTransport{Transport: http.DefaultTransport}}
		req, _ := http.NewRequest(http.MethodGet, bad.URL, nil)
		res, err := client.Do(req)
		Expect(err).To(BeNil())
		Expect(res.StatusCode).To(Equal(http.StatusNotFound))
		Expect(tracer.FinishedSpans()).To(BeEmpty())
	})

	t.Run("should record child span of successful request", func(t *testing.T) {
		tracer.Reset()
		client := &http.Client{Transport: &TracingTransport{Transport: http.DefaultTransport}}
		req, parent := tracedRequest(ok.URL)
		res, err := client.Do(req)
		Expect(err).To(BeNil())
		Expect(res.StatusCode).To(Equal(http.StatusOK))

		spans := tracer.FinishedSpans()
		Expect(spans).To(HaveLen(1))
		Expect(spans[0].OperationName).To(Equal("GET /reports/_doc/1"))
		Expect(spans[0].ParentID).To(Equal(parent.SpanContext.SpanID))
		Expect(spans[0].Tags()).To(Equal(map[string]interface{}{
			"span.kind":        ext.SpanKindEnum("client"),
			"http.url":         ok.URL + "/reports/_doc/1",
			"http.method":      "GET",
			"http.status_code": uint16(200),
			"error":            false,
		}))
	})

	t.Run("should flag error status", func(t *testing.T) {
		tracer.Reset()
		client := &http.Client{Transport: &TracingTransport{Transport: http.DefaultTransport}}
		req, _ := tracedRequest(bad.URL)
		res, err := client.Do(req)
		Expect(err).To(BeNil())
		Expect(res.StatusCode).To(Equal(http.StatusNotFound))

		spans := tracer.FinishedSpans()
		Expect(spans).To(HaveLen(1))
		Expect(spans[0].Tag("http.status_code")).To(Equal(uint16(404)))
		Expect(spans[0].Tag("error")).To(Equal(true))
	})

	t.Run("should record transport failure", func(t *testing.T) {
		tracer.Reset()
		client := &http.Client{Transport: &TracingTransport{Transport: &failingTransport{}}}
		req, _ := tracedRequest("http://127.0.0.1:12345")
		res, err := client.Do(req)
		Expect(res).To(BeNil())
		var urlErr *url.Error
		Expect(errors.As(err, &urlErr)).To(BeTrue())
		Expect(urlErr.Err.Error()).To(Equal("connection refused"))

		spans := tracer.FinishedSpans()
		Expect(spans).To(HaveLen(1))
		Expect(spans[0].Tags()).To(Equal(map[string]interface{}{
			"span.kind":    ext.SpanKindEnum("client"),
			"http.url":     "http://127.0.0.1:12345/reports/_doc/1",
			"http.method":  "GET",
			"error":        true,
			"error.detail": "connection refused",
		}))
	})
}
