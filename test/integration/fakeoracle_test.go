// Package integration drives the orchestrator end to end (spec §8
// scenarios) against a fake RMAN binary, with every sqlplus call
// skipped through Gateway.SkipOracleCmds, instead of a real Oracle
// install.
package integration

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// fakeRMANScript is a minimal RMAN stand-in: it locates the log= and
// cmdfile= arguments RMAN itself would receive, writes a clean
// completion line to the log (so ScanLog finds no RMAN-/ORA- matches),
// and exits 0. It never touches the database.
const fakeRMANScript = `#!/bin/sh
log=""
for arg in "$@"; do
  case "$arg" in
    log=*) log="${arg#log=}" ;;
  esac
done
if [ -n "$log" ]; then
  echo "Recovery Manager complete." > "$log"
fi
exit 0
`

// newFakeOracleHome builds a temp ORACLE_HOME whose bin/rman is the
// fake script above, suitable for exercising pkg/rman.Engine without a
// real Oracle install. sqlplus is never invoked by tests that set
// Gateway.SkipOracleCmds.
func newFakeOracleHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	bin := filepath.Join(home, "bin")
	if err := os.MkdirAll(bin, 0o755); err != nil {
		t.Fatal(err)
	}
	rmanPath := filepath.Join(bin, "rman")
	if err := os.WriteFile(rmanPath, []byte(fakeRMANScript), 0o755); err != nil {
		t.Fatal(err)
	}
	return home
}

// spawnFakePMON starts a long-lived process whose argv[0] matches the
// ora_pmon_<sid> pattern pkg/orchestrator.FindPMON scans for, without
// running any real Oracle binary. The caller must kill it.
func spawnFakePMON(t *testing.T, sid string) *exec.Cmd {
	t.Helper()
	cmd := &exec.Cmd{
		Path: "/bin/sleep",
		Args: []string{fmt.Sprintf("ora_pmon_%s", sid), "300"},
	}
	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to spawn fake PMON process: %v", err)
	}
	t.Cleanup(func() { _ = cmd.Process.Kill() })
	return cmd
}
