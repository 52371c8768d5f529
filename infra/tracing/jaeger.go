package tracing

import (
	"io"
	"os"

	"github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"
	"github.com/uber/jaeger-client-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"
	"github.com/uber/jaeger-lib/metrics"
)

type noopCloser struct{}

func (noopCloser) Close() error { return nil }

// logrusLogger routes the reporter logs of jaeger into logrus.
type logrusLogger struct{}

func (logrusLogger) Error(msg string) {
	logrus.Error("jaeger: " + msg)
}

func (logrusLogger) Infof(msg string, args ...interface{}) {
	logrus.Infof("jaeger: "+msg, args...)
}

func (logrusLogger) Debugf(msg string, args ...interface{}) {
	logrus.Debugf("jaeger: "+msg, args...)
}

var _ jaeger.Logger = logrusLogger{}

// Enabled reports whether the JAEGER_* environment names an agent or a collector.
func Enabled() bool {
	return os.Getenv("JAEGER_AGENT_HOST") != "" || os.Getenv("JAEGER_ENDPOINT") != ""
}

// Bootstrap installs a jaeger tracer configured from JAEGER_* variables as the global tracer.
// Without jaeger configuration the noop tracer stays in place.
func Bootstrap(serviceName string) (io.Closer, error) {
	if !Enabled() {
		return noopCloser{}, nil
	}
	cfg, err := jaegercfg.FromEnv()
	if err != nil {
		return nil, err
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = serviceName
	}
	tracer, closer, err := cfg.NewTracer(jaegercfg.Logger(logrusLogger{}), jaegercfg.Metrics(metrics.NullFactory))
	if err != nil {
		return nil, err
	}
	opentracing.SetGlobalTracer(tracer)
	logrus.Infof("jaeger tracer of service %s installed", cfg.ServiceName)
	return closer, nil
}
