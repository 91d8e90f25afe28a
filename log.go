package preemptk

import "github.com/sirupsen/logrus"

// log is the package-wide structured logger. The teacher traces CPU
// exceptions with a single log.Printf call site (exception.go); this
// kernel's control-flow events — process create/exit, block/wake, signal
// delivery, keyboard echo and ring buffer overflow — get the same
// treatment through logrus fields instead of formatted strings.
var log = logrus.New()

// SetLogger lets the demo CLI or tests swap in a different logrus instance
// (e.g. one writing to a buffer, or with level set to Debug).
func SetLogger(l *logrus.Logger) {
	if l != nil {
		log = l
	}
}

func logEvent(event string, fields logrus.Fields) {
	if fields == nil {
		fields = logrus.Fields{}
	}
	fields["event"] = event
	log.WithFields(fields).Trace(event)
}
