package relay

import "log/slog"

// LogSink writes relayed output to a slog.Logger: stdout at info, stderr at
// warn, exit at info. A nil Logger means slog.Default().
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s LogSink) Stdout(text string) {
	s.logger().Info(StdoutPrefix + text)
}

func (s LogSink) Stderr(text string) {
	s.logger().Warn(StderrPrefix + text)
}

func (s LogSink) Exited(code int, signal string) {
	if signal != "" {
		s.logger().Info("Backend exited", "code", code, "signal", signal)
		return
	}
	s.logger().Info("Backend exited", "code", code)
}

// Tee fans every call out to each sink in order.
type Tee []Sink

func (t Tee) Stdout(text string) {
	for _, s := range t {
		s.Stdout(text)
	}
}

func (t Tee) Stderr(text string) {
	for _, s := range t {
		s.Stderr(text)
	}
}

func (t Tee) Exited(code int, signal string) {
	for _, s := range t {
		s.Exited(code, signal)
	}
}
