package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range fields {
		prev, had := os.LookupEnv(key)
		os.Unsetenv(key)
		if had {
			t.Cleanup(func() { os.Setenv(key, prev) })
		}
	}
}

func baseEnv(t *testing.T) {
	t.Helper()
	clearEnv(t)
	os.Setenv("ORACLE_HOME", "/u01/app/oracle/product/19.0.0/dbhome_1")
	os.Setenv("TARGET_SID", "ORCLDR")
	os.Setenv("TARGET_DB_UNIQUE_NAME", "orcldr")
	os.Setenv("BACKUP_ROOT", "/backups/prod")
	os.Setenv("DEST_BASE", "/u02/oradata")
	os.Setenv("DATA_DG", "/u02/oradata")
	os.Setenv("FRA_DG", "/u03/fra")
}

func TestLoadDefaultsAndEnv(t *testing.T) {
	baseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DestType != "FS" {
		t.Errorf("DestType = %q, want default FS", cfg.DestType)
	}
	if cfg.CatalogStaleSeconds != 3600 {
		t.Errorf("CatalogStaleSeconds = %d, want default 3600", cfg.CatalogStaleSeconds)
	}
	if cfg.TargetSID != "ORCLDR" {
		t.Errorf("TargetSID = %q, want ORCLDR", cfg.TargetSID)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	baseEnv(t)

	dir := t.TempDir()
	conf := filepath.Join(dir, "restore.conf")
	os.WriteFile(conf, []byte("log_level: debug\ncatalog_stale_seconds: \"7200\"\n"), 0o644)

	orig := etcRestoreConf
	etcRestoreConf = conf
	defer func() { etcRestoreConf = orig }()

	os.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want env override warn", cfg.LogLevel)
	}
	if cfg.CatalogStaleSeconds != 7200 {
		t.Errorf("CatalogStaleSeconds = %d, want file value 7200", cfg.CatalogStaleSeconds)
	}
}

func TestLoadRejectsBothUntilTimeAndSCN(t *testing.T) {
	baseEnv(t)
	os.Setenv("UNTIL_TIME", "2026-01-16 14:30:00")
	os.Setenv("UNTIL_SCN", "123456")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for mutually exclusive UNTIL_TIME/UNTIL_SCN")
	}
}

func TestLoadRejectsASMWithoutPlusPrefix(t *testing.T) {
	baseEnv(t)
	os.Setenv("DEST_TYPE", "ASM")
	os.Setenv("DATA_DG", "/u02/oradata")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for ASM DATA_DG not starting with '+'")
	}
}

func TestLoadAcceptsASMWithPlusPrefix(t *testing.T) {
	baseEnv(t)
	os.Setenv("DEST_TYPE", "ASM")
	os.Setenv("DATA_DG", "+DATA")
	os.Setenv("FRA_DG", "+FRA")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDG != "+DATA" {
		t.Errorf("DataDG = %q, want +DATA", cfg.DataDG)
	}
}

func TestLoadRejectsInvalidSID(t *testing.T) {
	baseEnv(t)
	os.Setenv("TARGET_SID", "bad sid!")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid TARGET_SID token")
	}
}
