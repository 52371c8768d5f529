package common

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const ServiceName = "fleetcare"

func init() {
	logger := logrus.StandardLogger()
	logger.Out = os.Stdout
	logger.Formatter = &logrus.TextFormatter{}
	logger.AddHook(&DefaultFieldsHook{})
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text, json
	File   string `yaml:"file"`

	MaxSizeMB  int `yaml:"maxSizeMB"`
	MaxBackups int `yaml:"maxBackups"`
	MaxAgeDays int `yaml:"maxAgeDays"`
}

// ConfigureLogging applies c to the standard logger, a rotating file is added when c.File is set.
func ConfigureLogging(c LogConfig) error {
	logger := logrus.StandardLogger()
	if c.Level != "" {
		level, err := logrus.ParseLevel(c.Level)
		if err != nil {
			return err
		}
		logger.SetLevel(level)
	}
	if strings.EqualFold(c.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{})
	}

	var out io.Writer = os.Stdout
	if c.File != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   c.File,
			MaxSize:    orDefault(c.MaxSizeMB, 100),
			MaxBackups: orDefault(c.MaxBackups, 7),
			MaxAge:     orDefault(c.MaxAgeDays, 30),
			Compress:   true,
		})
	}
	logger.SetOutput(out)
	return nil
}

func orDefault(v, d int) int {
	if v <= 0 {
		return d
	}
	return v
}

type DefaultFieldsHook struct {
}

func (hook *DefaultFieldsHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (hook *DefaultFieldsHook) Fire(e *logrus.Entry) error {
	e.Data["serviceName"] = ServiceName
	e.Data["serviceInstance"] = ServiceInstance()
	return nil
}

func ServiceInstance() string {
	if v := os.Getenv("SERVICE_INSTANCE"); v != "" {
		return v
	}
	hostname, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return hostname
}
