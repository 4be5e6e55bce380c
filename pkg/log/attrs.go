package log

import "log/slog"

func WorkflowID[T ~string](id T) slog.Attr {
	return slog.String("workflow_id", string(id))
}

func ReportID[T ~string](id T) slog.Attr {
	return slog.String("report_id", string(id))
}

func Status[T ~string](status T) slog.Attr {
	return slog.String("status", string(status))
}

func Decision[T ~string](decision T) slog.Attr {
	return slog.String("decision", string(decision))
}

// Token logs only a short prefix of a token so that full resume
// capabilities never land in log output
func Token[T ~string](token T) slog.Attr {
	s := string(token)
	if len(s) > 8 {
		s = s[:8] + "..."
	}
	return slog.String("token", s)
}

func Error(err error) slog.Attr {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return slog.String("error", msg)
}
