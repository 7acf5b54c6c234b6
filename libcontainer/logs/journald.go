// Package logs forwards logrus entries to the systemd journal.
package logs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/coreos/go-systemd/v22/journal"
	"github.com/sirupsen/logrus"
)

var ErrJournalUnavailable = errors.New("systemd journal is not available")

type sendFunc func(message string, priority journal.Priority, vars map[string]string) error

// JournaldHook is a logrus hook that writes every entry to the journal as a
// structured record. Entry fields become journal fields.
type JournaldHook struct {
	identifier string
	send       sendFunc
}

// NewJournaldHook returns a hook tagging records with identifier as
// SYSLOG_IDENTIFIER.
func NewJournaldHook(identifier string) (*JournaldHook, error) {
	if !journal.Enabled() {
		return nil, ErrJournalUnavailable
	}
	return &JournaldHook{identifier: identifier, send: journal.Send}, nil
}

func (h *JournaldHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *JournaldHook) Fire(entry *logrus.Entry) error {
	vars := make(map[string]string, len(entry.Data)+4)
	for k, v := range entry.Data {
		name := fieldName(k)
		if name == "" {
			continue
		}
		if err, ok := v.(error); ok {
			vars[name] = err.Error()
			continue
		}
		vars[name] = fmt.Sprint(v)
	}
	if h.identifier != "" {
		vars["SYSLOG_IDENTIFIER"] = h.identifier
	}
	if entry.HasCaller() {
		vars["CODE_FILE"] = entry.Caller.File
		vars["CODE_LINE"] = strconv.Itoa(entry.Caller.Line)
		vars["CODE_FUNC"] = entry.Caller.Function
	}
	return h.send(entry.Message, priority(entry.Level), vars)
}

func priority(level logrus.Level) journal.Priority {
	switch level {
	case logrus.PanicLevel:
		return journal.PriEmerg
	case logrus.FatalLevel:
		return journal.PriCrit
	case logrus.ErrorLevel:
		return journal.PriErr
	case logrus.WarnLevel:
		return journal.PriWarning
	case logrus.InfoLevel:
		return journal.PriInfo
	}
	return journal.PriDebug
}

// fieldName maps a logrus field key to a journal field name: upper case
// letters, digits and underscores, not starting with an underscore.
func fieldName(key string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		}
		return '_'
	}, key)
	return strings.TrimLeft(name, "_")
}
