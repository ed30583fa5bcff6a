// Package logger держит глобальный структурированный логгер приложения.
package logger

import (
	"github.com/sirupsen/logrus"
)

// Log доступен сразу после импорта; до вызова Init пишет текстом на уровне info.
var Log = logrus.New()

// Init настраивает уровень и формат логов: production пишет JSON для
// сборщика логов, development — текст с отметками времени.
func Init(level string, production bool) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	if production {
		Log.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}
