// Package logcfg configures the global logrus logger.
package logcfg

import (
	"fmt"
	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
	"io"
	"os"
	"path"
	"runtime"
)

// RunLoggerConfig sets the log level, the caller-aware text format and the output.
// Logs go to stdout and, when fileName is not empty, to a rotated file.
func RunLoggerConfig(level, fileName string) {
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.WithError(err).Warnf("Unknown log level %q, using info", level)
		logLevel = logrus.InfoLevel
	}
	logrus.SetLevel(logLevel)
	logrus.SetReportCaller(true)

	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:    true,
		CallerPrettyfier: callerPrettyfier,
	})
	logrus.SetOutput(output(fileName))
}

func callerPrettyfier(f *runtime.Frame) (function string, file string) {
	_, filename := path.Split(f.File)
	return "", fmt.Sprintf("%s.%d.%s", filename, f.Line, path.Base(f.Function))
}

func output(fileName string) io.Writer {
	if fileName == "" {
		return os.Stdout
	}
	return io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   fileName,
		MaxSize:    50,
		MaxBackups: 3,
		MaxAge:     30,
	})
}
