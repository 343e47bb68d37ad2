package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

type LogLevel int

const (
	LevelInfo LogLevel = iota
	LevelWarning
	LevelError
)

type Logger struct {
	level LogLevel
}

var (
	logger  *Logger
	logFile *os.File
)

func Init() {
	logDir := filepath.Join(xdg.ConfigHome, "lodestone")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Printf("Failed to create log directory: %v", err)
		return
	}

	logPath := filepath.Join(logDir, "lodestone.log")
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.Printf("Failed to open log file: %v", err)
		return
	}

	logFile = file
	logger = &Logger{level: LevelInfo}
}

func GetLogger() *Logger {
	if logger == nil {
		logger = &Logger{level: LevelInfo}
	}
	return logger
}

func (l *Logger) Info(message string) {
	l.log(LevelInfo, "INFO", message)
}

func (l *Logger) Warning(message string) {
	l.log(LevelWarning, "WARNING", message)
}

func (l *Logger) Error(message string) {
	l.log(LevelError, "ERROR", message)
}

func (l *Logger) log(level LogLevel, levelStr, message string) {
	if level < l.level {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	logMessage := fmt.Sprintf("[%s] %s: %s", timestamp, levelStr, message)

	if logFile != nil {
		fmt.Fprintln(logFile, logMessage)
		logFile.Sync()
	}

	// Console output is reserved for warnings and errors; the ui package owns
	// normal progress messaging.
	if level >= LevelWarning {
		fmt.Println(logMessage)
	}
}

func (l *Logger) SetLevel(level LogLevel) {
	l.level = level
}

func Close() {
	if logFile != nil {
		logFile.Close()
	}
}
