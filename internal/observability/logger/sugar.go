package logger

import "go.uber.org/zap"

// S retorna el SugaredLogger del singleton (printf-style, usado por los CLIs).
func S() *zap.SugaredLogger {
	return L().Sugar()
}
