// Package doctor runs startup health checks against a loaded configuration:
// that the caps catalog parses and names a reachable default model, that
// both SQLite databases answer a ping, and that every configured workspace
// root exists on disk. Grounded on cmd/nexus's own doctor command, trimmed
// from its config-migration/service-audit/channel-probe scope down to the
// checks this daemon's three dependencies (caps, storage, workspace roots)
// actually need.
package doctor

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/nexuslang/nexus-lsp/internal/caps"
	"github.com/nexuslang/nexus-lsp/internal/config"
	"github.com/nexuslang/nexus-lsp/internal/storage"
)

// Report collects every check's outcome. Failed reports whether any check
// did not pass.
type Report struct {
	Checks []Check
}

// Check is one named health check's result.
type Check struct {
	Name string
	OK   bool
	Err  string
}

// Failed reports whether any check in the report did not pass.
func (r Report) Failed() bool {
	for _, c := range r.Checks {
		if !c.OK {
			return true
		}
	}
	return false
}

// Run executes every check against cfg and an already-opened store, and
// returns a Report naming each outcome. capsData may be nil if caps failed
// to load before Run was called; that failure is itself recorded as a
// check rather than aborting the rest.
func Run(ctx context.Context, cfg *config.Config, capsData *caps.Caps, capsErr error, store *storage.Store) Report {
	var report Report

	if capsErr != nil {
		report.Checks = append(report.Checks, Check{Name: "caps", OK: false, Err: capsErr.Error()})
	} else if capsData != nil {
		if _, ok := capsData.Resolve(capsData.DefaultChatModel); !ok {
			report.Checks = append(report.Checks, Check{
				Name: "caps", OK: false,
				Err: fmt.Sprintf("default_chat_model %q not found in catalog", capsData.DefaultChatModel),
			})
		} else {
			report.Checks = append(report.Checks, Check{Name: "caps", OK: true})
		}
	}

	report.Checks = append(report.Checks, pingCheck(ctx, "database.memories", store.Memories))
	report.Checks = append(report.Checks, pingCheck(ctx, "database.experimental", store.Experimental))

	for _, root := range cfg.Tools.WorkspaceRoots {
		report.Checks = append(report.Checks, workspaceRootCheck(root))
	}

	return report
}

func pingCheck(ctx context.Context, name string, db interface {
	PingContext(context.Context) error
}) Check {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return Check{Name: name, OK: false, Err: err.Error()}
	}
	return Check{Name: name, OK: true}
}

func workspaceRootCheck(root string) Check {
	name := "workspace_root:" + root
	info, err := os.Stat(root)
	if err != nil {
		return Check{Name: name, OK: false, Err: err.Error()}
	}
	if !info.IsDir() {
		return Check{Name: name, OK: false, Err: "not a directory"}
	}
	return Check{Name: name, OK: true}
}
