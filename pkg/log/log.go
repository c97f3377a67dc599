/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package log

import (
	"encoding/hex"
	"errors"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	LoggerName = "go-netsdr"
	HelpLevels = "Must be one of: error, warning, info, debug."
)

var levelMapping = map[string]zapcore.Level{
	"error":   zapcore.ErrorLevel,
	"warning": zapcore.WarnLevel,
	"info":    zapcore.InfoLevel,
	"debug":   zapcore.DebugLevel,
}

var (
	mu     sync.RWMutex
	level  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	logger = newLogger(os.Stderr)
)

func newLogger(out io.Writer) *zap.SugaredLogger {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.CallerKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(out), level)
	return zap.New(core).Named(LoggerName).Sugar()
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func ParseLevel(strLevel string) (zapcore.Level, error) {
	l, ok := levelMapping[strLevel]
	if !ok {
		return zapcore.InfoLevel, errors.New("Wrong log level. " + HelpLevels)
	}
	return l, nil
}

func SetLevel(strLevel string) error {
	l, err := ParseLevel(strLevel)
	if err != nil {
		return err
	}
	level.SetLevel(l)
	return nil
}

func Init(out io.Writer, strLevel string) {
	mu.Lock()
	logger = newLogger(out)
	mu.Unlock()
	if err := SetLevel(strLevel); err != nil {
		panic(err)
	}
}

func DebugEnabled() bool {
	return level.Enabled(zapcore.DebugLevel)
}

func Error(format string, v ...interface{}) {
	current().Errorf(format, v...)
}

func Warning(format string, v ...interface{}) {
	current().Warnf(format, v...)
}

func Info(format string, v ...interface{}) {
	current().Infof(format, v...)
}

func Debug(format string, v ...interface{}) {
	current().Debugf(format, v...)
}

// Bytes dumps raw bytes at debug level
func Bytes(label string, data []byte) {
	if !DebugEnabled() {
		return
	}
	current().Debugw(label, "length", len(data), "hex", hex.EncodeToString(data))
}

type lineWriter struct{}

func (lineWriter) Write(p []byte) (int, error) {
	Info("%s", strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// Writer returns io.Writer logging every write as an info line
func Writer() io.Writer {
	return lineWriter{}
}
