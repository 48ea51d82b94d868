package sqlgateway

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cuemby/restoreorc/pkg/metrics"
	"github.com/cuemby/restoreorc/pkg/procexec"
	"github.com/cuemby/restoreorc/pkg/report"
)

// ConnectionMode selects how a Connection authenticates to the target
// instance.
type ConnectionMode string

const (
	ModeNone     ConnectionMode = "none"
	ModePassword ConnectionMode = "password"
	ModeWallet   ConnectionMode = "wallet"
)

// Connection is a resolved sqlplus connect string plus enough context
// to export TNS_ADMIN for wallet connections.
type Connection struct {
	Mode      ConnectionMode
	raw       string // e.g. "user/pass@tns", "/@tns", "/"
	walletDir string
}

// PasswordConnection builds a password-mode connection of the form
// user/password@tns.
func PasswordConnection(user, password, tns string) *Connection {
	return &Connection{
		Mode: ModePassword,
		raw:  fmt.Sprintf("%s/%s@%s", user, password, tns),
	}
}

// WalletConnection builds a wallet-mode connection (/@tns); walletDir
// must contain cwallet.sso, the wallet's auto-login artifact.
func WalletConnection(tns, walletDir string) *Connection {
	return &Connection{
		Mode:      ModeWallet,
		raw:       fmt.Sprintf("/@%s", tns),
		walletDir: walletDir,
	}
}

// redact renders a connection string safe for logs: password-mode
// connections have their password replaced, wallet/SYSDBA strings
// carry no secret to begin with.
func (c *Connection) redact() string {
	if c == nil {
		return "/"
	}
	if c.Mode != ModePassword {
		return c.raw
	}
	at := strings.Index(c.raw, "@")
	slash := strings.Index(c.raw, "/")
	if slash < 0 || at < 0 || at < slash {
		return "***"
	}
	return c.raw[:slash+1] + "***" + c.raw[at:]
}

// Gateway is the typed sqlplus interface described in §4.3. The zero
// value with SkipOracleCmds set to false will attempt real sqlplus
// invocations; set SkipOracleCmds for unit testing.
type Gateway struct {
	OracleHome     string
	Default        *Connection
	SkipOracleCmds bool
}

// New creates a Gateway rooted at oracleHome.
func New(oracleHome string) *Gateway {
	return &Gateway{OracleHome: oracleHome}
}

func (g *Gateway) sqlplusPath() string {
	return filepath.Join(g.OracleHome, "bin", "sqlplus")
}

// GetConnectionType reports the Default connection's mode.
func (g *Gateway) GetConnectionType() string {
	if g.Default == nil {
		return string(ModeNone)
	}
	return string(g.Default.Mode)
}

func (g *Gateway) resolve(conn *Connection) *Connection {
	if conn != nil {
		return conn
	}
	return g.Default
}

func (g *Gateway) envFor(conn *Connection) []string {
	if conn != nil && conn.Mode == ModeWallet && conn.walletDir != "" {
		return []string{"TNS_ADMIN=" + conn.walletDir}
	}
	return nil
}

const sqlTerminalSettings = "SET HEADING OFF FEEDBACK OFF PAGESIZE 0 LINESIZE 32767 TRIMSPOOL ON TAB OFF VERIFY OFF\nWHENEVER SQLERROR EXIT SQL.SQLCODE\n"

// TestConnection sends "exit" to sqlplus -S and returns 0 on a clean
// exit, 124 on timeout, other on failure.
func (g *Gateway) TestConnection(timeoutS int, retryCount int) (int, error) {
	if g.SkipOracleCmds {
		return 0, nil
	}

	conn := g.resolve(nil)
	script := "exit\n"

	var lastCode int
	var lastErr error
	delay := time.Second
	for attempt := 0; attempt <= retryCount; attempt++ {
		code, err := g.runScriptInline(script, conn, time.Duration(timeoutS)*time.Second)
		lastCode, lastErr = code, err
		if code == 0 {
			return 0, nil
		}
		if attempt < retryCount {
			time.Sleep(delay)
		}
	}
	return lastCode, lastErr
}

// ExecuteFile runs sqlplus -S <conn> @<script>, optionally redirecting
// output to logPath and downgrading a non-zero exit to a warning when
// continueOnError is set.
func (g *Gateway) ExecuteFile(scriptPath, logPath string, timeoutS int, retryCount int, conn *Connection, continueOnError bool) (int, error) {
	if g.SkipOracleCmds {
		return 0, nil
	}
	conn = g.resolve(conn)

	desc := fmt.Sprintf("sql:execute_file %s", filepath.Base(scriptPath))
	args := []string{"-S", conn.raw, "@" + scriptPath}

	var code int
	var err error
	run := func() (int, error) {
		if logPath != "" {
			return procexec.ExecLoggedToFile(desc, logPath, g.sqlplusPath(), args...)
		}
		return procexec.ExecLogged(desc, g.sqlplusPath(), args...)
	}

	if timeoutS > 0 {
		timeout := time.Duration(timeoutS) * time.Second
		if logPath != "" {
			code, err = procexec.ExecLoggedToFileTimeout(desc, logPath, timeout, g.sqlplusPath(), args...)
		} else {
			report.TrackStep(desc)
			start := time.Now()
			_, code, err = procexec.CaptureTimeout(timeout, g.sqlplusPath(), args...)
			report.TrackStepDone(code, report.FormatDuration(time.Since(start)))
		}
	} else if retryCount > 0 {
		code, err = procexec.Retry(retryCount+1, time.Second, g.sqlplusPath(), args...)
	} else {
		code, err = run()
	}

	if code != 0 {
		metrics.SQLQueriesTotal.WithLabelValues(string(conn.Mode), "failed").Inc()
		if continueOnError {
			report.TrackItem(report.ItemWarn, desc, fmt.Sprintf("exit=%d, continuing (SQL_CONTINUE_ON_ERROR)", code))
			return code, nil
		}
		return code, err
	}
	metrics.SQLQueriesTotal.WithLabelValues(string(conn.Mode), "ok").Inc()
	return 0, nil
}

// ExecuteBatch runs ExecuteFile for each script in order, stopping on
// the first failure unless continueOnError is set.
func (g *Gateway) ExecuteBatch(scriptPaths []string, continueOnError bool) (int, error) {
	for _, sp := range scriptPaths {
		code, err := g.ExecuteFile(sp, "", 0, 0, nil, continueOnError)
		if code != 0 && !continueOnError {
			return code, err
		}
	}
	return 0, nil
}

// Query runs sql with report-formatting terminal settings and returns
// trimmed output.
func (g *Gateway) Query(sql string, conn *Connection) (string, error) {
	if g.SkipOracleCmds {
		return "", nil
	}
	conn = g.resolve(conn)
	out, code, err := g.captureScript(sqlTerminalSettings+sql+"\nexit\n", conn, 0)
	if err != nil {
		return "", err
	}
	if code != 0 {
		return "", fmt.Errorf("query against %s failed with exit code %d: %s", conn.redact(), code, out)
	}
	return strings.TrimSpace(out), nil
}

// QueryTimeout runs Query with a wall-clock limit and a tracked step.
func (g *Gateway) QueryTimeout(sql string, conn *Connection, timeoutS int, description string) (string, error) {
	report.TrackStep(description)
	start := time.Now()

	if g.SkipOracleCmds {
		report.TrackStepDone(0, report.FormatDuration(time.Since(start)))
		return "", nil
	}

	conn = g.resolve(conn)
	out, code, err := g.captureScript(sqlTerminalSettings+sql+"\nexit\n", conn, time.Duration(timeoutS)*time.Second)
	report.TrackStepDone(code, report.FormatDuration(time.Since(start)))
	if err != nil {
		return "", err
	}
	if code != 0 {
		return "", fmt.Errorf("query_timeout %q failed with exit code %d", description, code)
	}
	return strings.TrimSpace(out), nil
}

// Run executes a single ad-hoc statement, logging the detected
// operation (the statement's first token, upper-cased).
func (g *Gateway) Run(statement string, conn *Connection) (int, error) {
	if g.SkipOracleCmds {
		return 0, nil
	}
	conn = g.resolve(conn)

	op := firstToken(statement)
	desc := fmt.Sprintf("sql:run %s", op)
	report.TrackStep(desc)

	script := "SET FEEDBACK OFF\nWHENEVER SQLERROR EXIT SQL.SQLCODE\n" + statement + "\nexit\n"
	code, _, err := g.captureScript(script, conn, 0)
	report.TrackStepDone(code)
	return code, err
}

func firstToken(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " \t\n"); i >= 0 {
		s = s[:i]
	}
	return strings.ToUpper(s)
}

// SysdbaExec runs sql as SYSDBA against sid, marshaling the statement
// through a temp file to avoid shell-quoting issues. When capture is
// true the output is also returned.
func (g *Gateway) SysdbaExec(sql, sid string, timeoutS int, capture bool) (int, string, error) {
	if g.SkipOracleCmds {
		return 0, "", nil
	}

	script := "WHENEVER SQLERROR EXIT SQL.SQLCODE\n" + sql + "\nexit\n"
	f, err := os.CreateTemp("", "restoreorc_sysdba_*.sql")
	if err != nil {
		return 1, "", fmt.Errorf("failed to create sysdba temp script: %w", err)
	}
	defer os.Remove(f.Name())
	if _, err := f.WriteString(script); err != nil {
		f.Close()
		return 1, "", fmt.Errorf("failed to write sysdba temp script: %w", err)
	}
	f.Close()

	env := []string{"ORACLE_SID=" + sid}
	args := []string{"-S", "/", "as", "sysdba", "@" + f.Name()}

	out, code, err := procexec.CaptureEnv(env, g.sqlplusPath(), args...)
	if capture {
		return code, string(out), err
	}
	return code, "", err
}

// SysdbaQuery runs a SYSDBA query with the standard terminal settings
// stripped for plain output.
func (g *Gateway) SysdbaQuery(sql, sid string) (string, error) {
	if g.SkipOracleCmds {
		return "", nil
	}
	code, out, err := g.SysdbaExec(sqlTerminalSettings+sql, sid, 0, true)
	if err != nil {
		return "", err
	}
	if code != 0 {
		return "", fmt.Errorf("sysdba_query failed with exit code %d", code)
	}
	return strings.TrimSpace(out), nil
}

// Instance liveness codes returned by SysdbaPing.
const (
	PingUp          = 0
	PingNotStarted  = 10
	PingOtherFailed = 11
)

// SysdbaPing reports whether sid's instance is reachable: 0 when UP,
// 10 when not started (ORA-01034/ORA-27101), 11 on any other failure.
func (g *Gateway) SysdbaPing(sid string) int {
	if g.SkipOracleCmds {
		return PingUp
	}
	code, out, err := g.SysdbaExec("select 1 from dual;", sid, 10, true)
	if code == 0 && err == nil {
		return PingUp
	}
	if strings.Contains(out, "ORA-01034") || strings.Contains(out, "ORA-27101") {
		return PingNotStarted
	}
	return PingOtherFailed
}

// Spool writes query results to outputFile with spool controls.
func (g *Gateway) Spool(outputFile, sql string, sid string, pages, lines int) error {
	if g.SkipOracleCmds {
		return nil
	}
	if lines <= 0 {
		lines = 500
	}

	script := fmt.Sprintf(
		"SET PAGESIZE %d LINESIZE %d FEEDBACK OFF HEADING OFF TRIMSPOOL ON\nSPOOL %s\n%s\nSPOOL OFF\nexit\n",
		pages, lines, outputFile, sql,
	)

	if sid != "" {
		code, _, err := g.SysdbaExec(script, sid, 0, false)
		if err != nil {
			return err
		}
		if code != 0 {
			return fmt.Errorf("spool failed with exit code %d", code)
		}
		return nil
	}

	code, _, err := g.captureScript(script, g.resolve(nil), 0)
	if err != nil {
		return err
	}
	if code != 0 {
		return fmt.Errorf("spool failed with exit code %d", code)
	}
	return nil
}

func (g *Gateway) runScriptInline(script string, conn *Connection, timeout time.Duration) (int, error) {
	_, code, err := g.captureScript(script, conn, timeout)
	return code, err
}

func (g *Gateway) captureScript(script string, conn *Connection, timeout time.Duration) (string, int, error) {
	f, err := os.CreateTemp("", "restoreorc_sql_*.sql")
	if err != nil {
		return "", 1, fmt.Errorf("failed to create sql temp script: %w", err)
	}
	defer os.Remove(f.Name())
	if _, err := f.WriteString(script); err != nil {
		f.Close()
		return "", 1, fmt.Errorf("failed to write sql temp script: %w", err)
	}
	f.Close()

	args := []string{"-S", conn.raw, "@" + f.Name()}
	env := g.envFor(conn)

	var out []byte
	var code int
	if timeout > 0 {
		if env != nil {
			out, code, err = procexec.CaptureEnvTimeout(env, timeout, g.sqlplusPath(), args...)
		} else {
			out, code, err = procexec.CaptureTimeout(timeout, g.sqlplusPath(), args...)
		}
	} else if env != nil {
		out, code, err = procexec.CaptureEnv(env, g.sqlplusPath(), args...)
	} else {
		out, code, err = procexec.Capture(g.sqlplusPath(), args...)
	}
	return string(out), code, err
}
