package sqlgateway

import "testing"

func TestGetConnectionType(t *testing.T) {
	g := New("/u01/app/oracle/product/19.0.0/dbhome_1")
	if got := g.GetConnectionType(); got != "none" {
		t.Errorf("GetConnectionType() = %q, want none", got)
	}

	g.Default = PasswordConnection("sys", "secret", "ORCLCLONE")
	if got := g.GetConnectionType(); got != "password" {
		t.Errorf("GetConnectionType() = %q, want password", got)
	}

	g.Default = WalletConnection("ORCLCLONE", "/u01/wallet")
	if got := g.GetConnectionType(); got != "wallet" {
		t.Errorf("GetConnectionType() = %q, want wallet", got)
	}
}

func TestPasswordConnectionRedacted(t *testing.T) {
	conn := PasswordConnection("sys", "hunter2", "ORCLCLONE")
	redacted := conn.redact()
	if contains(redacted, "hunter2") {
		t.Errorf("redact() leaked password: %q", redacted)
	}
	if !contains(redacted, "sys/") || !contains(redacted, "@ORCLCLONE") {
		t.Errorf("redact() = %q, expected user and tns to survive", redacted)
	}
}

func TestWalletConnectionRaw(t *testing.T) {
	conn := WalletConnection("ORCLCLONE", "/u01/wallet")
	if conn.raw != "/@ORCLCLONE" {
		t.Errorf("raw = %q, want /@ORCLCLONE", conn.raw)
	}
	if conn.redact() != conn.raw {
		t.Errorf("wallet connection should not be redacted, got %q", conn.redact())
	}
}

func TestFirstToken(t *testing.T) {
	cases := map[string]string{
		"alter database open resetlogs;": "ALTER",
		"  shutdown immediate":           "SHUTDOWN",
		"startup mount":                  "STARTUP",
	}
	for in, want := range cases {
		if got := firstToken(in); got != want {
			t.Errorf("firstToken(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSkipOracleCmdsNoOps(t *testing.T) {
	g := New("/u01/app/oracle/product/19.0.0/dbhome_1")
	g.SkipOracleCmds = true

	if code, err := g.TestConnection(10, 0); code != 0 || err != nil {
		t.Errorf("TestConnection: code=%d err=%v", code, err)
	}
	if code, err := g.ExecuteFile("/tmp/does-not-exist.sql", "", 0, 0, nil, false); code != 0 || err != nil {
		t.Errorf("ExecuteFile: code=%d err=%v", code, err)
	}
	if out, err := g.Query("select 1 from dual;", nil); out != "" || err != nil {
		t.Errorf("Query: out=%q err=%v", out, err)
	}
	if code, _, err := g.SysdbaExec("select 1 from dual;", "ORCLCLONE", 0, false); code != 0 || err != nil {
		t.Errorf("SysdbaExec: code=%d err=%v", code, err)
	}
	if ping := g.SysdbaPing("ORCLCLONE"); ping != PingUp {
		t.Errorf("SysdbaPing = %d, want %d", ping, PingUp)
	}
	if err := g.Spool("/tmp/out.txt", "select 1 from dual;", "", 0, 0); err != nil {
		t.Errorf("Spool: err=%v", err)
	}
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && (func() bool {
		for i := 0; i+len(needle) <= len(haystack); i++ {
			if haystack[i:i+len(needle)] == needle {
				return true
			}
		}
		return false
	})()
}
