package main

import (
	"fmt"
	"runtime/debug"

	"boq/cmd"
)

// Version is stamped by the release build:
//
//	go build -ldflags "-X main.Version=v1.2.3"
//
// Unstamped builds fall back to whatever the Go build info carries.
var Version = "dev"

func resolveVersion() string {
	if Version != "" && Version != "dev" {
		return Version
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return Version
	}
	if v := bi.Main.Version; v != "" && v != "(devel)" {
		return v
	}

	var revision string
	dirty := false
	for _, kv := range bi.Settings {
		switch kv.Key {
		case "vcs.revision":
			revision = kv.Value
		case "vcs.modified":
			dirty = kv.Value == "true"
		}
	}
	if revision == "" {
		return Version
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	if dirty {
		return fmt.Sprintf("devel+%s+dirty", revision)
	}
	return fmt.Sprintf("devel+%s", revision)
}

func main() {
	cmd.SetVersion(resolveVersion())
	cmd.Execute()
}
