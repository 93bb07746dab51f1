package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

var (
	AppLogger   *log.Logger
	ProxyLogger *log.Logger
	WarnLogger  *log.Logger
	ErrorLogger *log.Logger

	logLevel     = "INFO"
	appLogFile   *os.File
	proxyLogFile *os.File
	initialized  bool
)

var levelRank = map[string]int{"DEBUG": 0, "INFO": 1, "WARN": 2, "ERROR": 3}

// InitGlobalLoggers opens the app and proxy log files and sets the level threshold.
// Errors always go to stderr as well; a log file that cannot be opened is discarded.
func InitGlobalLoggers(appLogPath, proxyLogPath, level string) error {
	if appLogFile != nil {
		appLogFile.Close()
		appLogFile = nil
	}
	if proxyLogFile != nil {
		proxyLogFile.Close()
		proxyLogFile = nil
	}

	logLevel = strings.ToUpper(strings.TrimSpace(level))
	if _, ok := levelRank[logLevel]; !ok {
		logLevel = "INFO"
	}

	ErrorLogger = log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)

	var appWriter, proxyWriter io.Writer
	appLogFile, appWriter = openLogFile(appLogPath, "app")
	proxyLogFile, proxyWriter = openLogFile(proxyLogPath, "proxy")

	AppLogger = log.New(appWriter, "APP: ", log.Ldate|log.Ltime|log.Lshortfile)
	WarnLogger = log.New(appWriter, "WARN: ", log.Ldate|log.Ltime|log.Lshortfile)
	ProxyLogger = log.New(proxyWriter, "PROXY: ", log.Ldate|log.Ltime|log.Lshortfile)

	if !initialized {
		AppLogger.Printf("App logger initialized. Log level: %s. Output file: %s", logLevel, describe(appLogFile, appLogPath))
		ProxyLogger.Printf("Proxy logger initialized. Log level: %s. Output file: %s", logLevel, describe(proxyLogFile, proxyLogPath))
	}
	initialized = true
	return nil
}

func openLogFile(path, name string) (*os.File, io.Writer) {
	if path == "" {
		return nil, io.Discard
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		ErrorLogger.Printf("Failed to create %s log directory %s: %v. Logs will be discarded.", name, dir, err)
		return nil, io.Discard
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
	if err != nil {
		ErrorLogger.Printf("Failed to open %s log file %s: %v. Logs will be discarded.", name, path, err)
		return nil, io.Discard
	}
	return f, f
}

func describe(f *os.File, path string) string {
	if f == nil {
		return "(discarded)"
	}
	return path
}

func enabled(level string) bool {
	return levelRank[logLevel] <= levelRank[level]
}

// Level reports the active threshold.
func Level() string {
	return logLevel
}

func Info(format string, v ...interface{}) {
	if AppLogger != nil && enabled("INFO") {
		AppLogger.Printf(format, v...)
	}
}

func Debug(format string, v ...interface{}) {
	if AppLogger != nil && enabled("DEBUG") {
		AppLogger.Printf(format, v...)
	}
}

func Warn(format string, v ...interface{}) {
	if WarnLogger != nil && enabled("WARN") {
		WarnLogger.Printf(format, v...)
	}
}

func Error(format string, v ...interface{}) {
	message := fmt.Sprintf(format, v...)
	if ErrorLogger != nil {
		ErrorLogger.Print(message)
	}
	if AppLogger != nil && appLogFile != nil {
		AppLogger.Print(message)
	}
}

func Fatal(format string, v ...interface{}) {
	message := fmt.Sprintf(format, v...)
	if ErrorLogger != nil {
		ErrorLogger.Fatal(message)
	}
	log.Fatal(message)
}

func ProxyInfo(format string, v ...interface{}) {
	if ProxyLogger != nil && enabled("INFO") {
		ProxyLogger.Printf(format, v...)
	}
}

func ProxyDebug(format string, v ...interface{}) {
	if ProxyLogger != nil && enabled("DEBUG") {
		ProxyLogger.Printf(format, v...)
	}
}

func ProxyError(format string, v ...interface{}) {
	message := fmt.Sprintf(format, v...)
	if ErrorLogger != nil {
		ErrorLogger.Print(message)
	}
	if ProxyLogger != nil && proxyLogFile != nil {
		ProxyLogger.Print(message)
	}
}

func CloseLogFiles() {
	if appLogFile != nil {
		AppLogger.Println("Closing app log file.")
		appLogFile.Close()
		appLogFile = nil
	}
	if proxyLogFile != nil {
		ProxyLogger.Println("Closing proxy log file.")
		proxyLogFile.Close()
		proxyLogFile = nil
	}
	initialized = false
}
