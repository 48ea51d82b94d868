package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cuemby/restoreorc/pkg/validate"
	"gopkg.in/yaml.v3"
)

// Config is the flat, fully-resolved configuration record of spec §3.1.
// Load returns it resolved and validated; it is not frozen afterwards:
// cmd/restoreorc writes its command-line flags into it, and Phase A's
// memory sizing writes the computed SGATarget/PGATarget back into it.
type Config struct {
	OracleHome         string `yaml:"oracle_home"`
	TargetSID          string `yaml:"target_sid"`
	TargetDBUniqueName string `yaml:"target_db_unique_name"`
	BackupRoot         string `yaml:"backup_root"`
	DestType           string `yaml:"dest_type"`
	DestBase           string `yaml:"dest_base"`
	DataDG             string `yaml:"data_dg"`
	FraDG              string `yaml:"fra_dg"`
	SGATarget          string `yaml:"sga_target"`
	PGATarget          string `yaml:"pga_target"`
	DBID               string `yaml:"dbid"`
	DryRun             int    `yaml:"dry_run"`
	AutoYes            bool   `yaml:"auto_yes"`
	AllowCleanup       bool   `yaml:"allow_cleanup"`
	ResumeFrom         string `yaml:"resume_from"`
	ContinueMode       bool   `yaml:"continue_mode"`
	UntilTime          string `yaml:"until_time"`
	UntilSCN           string `yaml:"until_scn"`
	SanitizeDropHidden bool   `yaml:"sanitize_drop_hidden"`
	LogLevel           string `yaml:"log_level"`

	// CatalogStaleSeconds is the staleness threshold CheckDivergence
	// applies to the last crosscheck timestamp (spec §9 open question:
	// exposed as configuration rather than a hardcoded hour).
	CatalogStaleSeconds int `yaml:"catalog_stale_seconds"`

	// MetricsAddr, when non-empty, is the "host:port" cmd/restoreorc
	// serves Prometheus metrics on for the duration of the run.
	MetricsAddr string `yaml:"metrics_addr"`
}

// fields lists every configuration key in layering/validation order,
// alongside the env var that carries it (spec §6.1).
var fields = []string{
	"ORACLE_HOME", "TARGET_SID", "TARGET_DB_UNIQUE_NAME", "BACKUP_ROOT",
	"DEST_TYPE", "DEST_BASE", "DATA_DG", "FRA_DG", "SGA_TARGET", "PGA_TARGET",
	"DBID", "DRY_RUN", "AUTO_YES", "ALLOW_CLEANUP", "RESUME_FROM",
	"CONTINUE_MODE", "UNTIL_TIME", "UNTIL_SCN", "SANITIZE_DROP_HIDDEN",
	"LOG_LEVEL", "CATALOG_STALE_SECONDS", "METRICS_ADDR",
}

// etcRestoreConf is a var (not a const) so tests can point it at a
// temp fixture instead of the real /etc/restore.conf.
var etcRestoreConf = "/etc/restore.conf"

func defaults() map[string]string {
	return map[string]string{
		"DEST_TYPE":             "FS",
		"DRY_RUN":               "0",
		"AUTO_YES":              "0",
		"ALLOW_CLEANUP":         "0",
		"CONTINUE_MODE":         "0",
		"SANITIZE_DROP_HIDDEN":  "0",
		"LOG_LEVEL":             "info",
		"CATALOG_STALE_SECONDS": "3600",
	}
}

// Load resolves a Config by layering built-in defaults, /etc/restore.conf,
// <ORACLE_HOME>/../etc/restore.conf, and the process environment, in
// that order (environment wins), then validates the result.
func Load() (*Config, error) {
	raw := defaults()

	if err := mergeYAMLFile(raw, etcRestoreConf); err != nil {
		return nil, err
	}
	home := raw["ORACLE_HOME"]
	if v, ok := os.LookupEnv("ORACLE_HOME"); ok {
		home = v
	}
	if home != "" {
		plugin := filepath.Join(home, "..", "etc", "restore.conf")
		if err := mergeYAMLFile(raw, plugin); err != nil {
			return nil, err
		}
	}
	mergeEnv(raw)

	if err := validateRaw(raw); err != nil {
		return nil, err
	}
	return toConfig(raw)
}

func mergeYAMLFile(raw map[string]string, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var layer map[string]string
	if err := yaml.Unmarshal(data, &layer); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	for k, v := range layer {
		raw[strings.ToUpper(k)] = v
	}
	return nil
}

func mergeEnv(raw map[string]string) {
	for _, key := range fields {
		if v, ok := os.LookupEnv(key); ok {
			raw[key] = v
		}
	}
}

func validateRaw(raw map[string]string) error {
	checks := []struct {
		field string
		fn    func(field, value string) error
	}{
		{"ORACLE_HOME", validate.AbsPath},
		{"TARGET_SID", validate.SIDToken},
		{"TARGET_DB_UNIQUE_NAME", validate.SIDToken},
		{"BACKUP_ROOT", validate.AbsPath},
		{"DEST_BASE", validate.AbsPath},
		{"DATA_DG", validate.AbsPath},
		{"FRA_DG", validate.AbsPath},
		{"SGA_TARGET", validate.MemoryValue},
		{"PGA_TARGET", validate.MemoryValue},
		{"DBID", validate.DBID},
		{"AUTO_YES", validate.Bool01},
		{"ALLOW_CLEANUP", validate.Bool01},
		{"CONTINUE_MODE", validate.Bool01},
		{"SANITIZE_DROP_HIDDEN", validate.Bool01},
		{"CATALOG_STALE_SECONDS", validate.UnsignedInt},
	}
	for _, c := range checks {
		if v := raw[c.field]; v != "" {
			if err := c.fn(c.field, v); err != nil {
				return fmt.Errorf("config: %w", err)
			}
		}
	}

	if err := validate.Enum("DEST_TYPE", raw["DEST_TYPE"], "FS", "ASM"); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if dr := raw["DRY_RUN"]; dr != "" {
		if err := validate.Enum("DRY_RUN", dr, "0", "1", "2"); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	if rf := raw["RESUME_FROM"]; rf != "" {
		if err := validate.Enum("RESUME_FROM", rf, "catalog", "restore", "recover"); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}

	if raw["UNTIL_TIME"] != "" && raw["UNTIL_SCN"] != "" {
		return fmt.Errorf("config: UNTIL_TIME and UNTIL_SCN are mutually exclusive")
	}
	if scn := raw["UNTIL_SCN"]; scn != "" {
		if err := validate.UnsignedInt("UNTIL_SCN", scn); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}

	if raw["DEST_TYPE"] == "ASM" {
		for _, field := range []string{"DATA_DG", "FRA_DG"} {
			if v := raw[field]; v != "" && !strings.HasPrefix(v, "+") {
				return fmt.Errorf("config: %s must start with '+' when DEST_TYPE=ASM, got %q", field, v)
			}
		}
	}

	return nil
}

func toConfig(raw map[string]string) (*Config, error) {
	dryRun, _ := strconv.Atoi(raw["DRY_RUN"])
	staleSecs, _ := strconv.Atoi(raw["CATALOG_STALE_SECONDS"])

	return &Config{
		OracleHome:          raw["ORACLE_HOME"],
		TargetSID:           raw["TARGET_SID"],
		TargetDBUniqueName:  raw["TARGET_DB_UNIQUE_NAME"],
		BackupRoot:          raw["BACKUP_ROOT"],
		DestType:            raw["DEST_TYPE"],
		DestBase:            raw["DEST_BASE"],
		DataDG:              raw["DATA_DG"],
		FraDG:               raw["FRA_DG"],
		SGATarget:           raw["SGA_TARGET"],
		PGATarget:           raw["PGA_TARGET"],
		DBID:                raw["DBID"],
		DryRun:              dryRun,
		AutoYes:             raw["AUTO_YES"] == "1",
		AllowCleanup:        raw["ALLOW_CLEANUP"] == "1",
		ResumeFrom:          raw["RESUME_FROM"],
		ContinueMode:        raw["CONTINUE_MODE"] == "1",
		UntilTime:           raw["UNTIL_TIME"],
		UntilSCN:            raw["UNTIL_SCN"],
		SanitizeDropHidden:  raw["SANITIZE_DROP_HIDDEN"] == "1",
		LogLevel:            raw["LOG_LEVEL"],
		CatalogStaleSeconds: staleSecs,
		MetricsAddr:         raw["METRICS_ADDR"],
	}, nil
}
