package sink

import "logfactory/pkg/logx"

// Defaults returns the constructor set used by logfactory binaries.
func Defaults() logx.Constructors {
	return logx.Constructors{
		Console: NewConsole,
		Tracker: NewSentry,
		Shipper: NewLogstash,
		File:    NewFile,
	}
}

func truncate(s string, maxN int) string {
	if maxN <= 0 || len(s) <= maxN {
		return s
	}
	if maxN < 10 {
		return s[:maxN]
	}
	return s[:maxN-3] + "..."
}
