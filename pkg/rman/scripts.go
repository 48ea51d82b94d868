package rman

import (
	"fmt"
	"strings"
)

func channelBlock(channels int, body string) string {
	var b strings.Builder
	b.WriteString("run {\n")
	for i := 1; i <= channels; i++ {
		fmt.Fprintf(&b, "  allocate channel c%d device type disk;\n", i)
	}
	b.WriteString(body)
	for i := channels; i >= 1; i-- {
		fmt.Fprintf(&b, "  release channel c%d;\n", i)
	}
	b.WriteString("}\n")
	return b.String()
}

// GenerateBootstrap builds 01_bootstrap.rcv: sets DBID and restores
// the SPFILE and controlfile from autobackup (spec §4.4 "Script
// generation" #1).
func GenerateBootstrap(dbid, controlDir string, channels int) string {
	body := fmt.Sprintf(
		"  set dbid %s;\n  restore spfile from autobackup;\n  restore controlfile to '%s/control01.ctl' from autobackup;\n",
		dbid, controlDir,
	)
	return channelBlock(channels, body)
}

// GenerateCrosscheck builds 02a_crosscheck.rcv (#2).
func GenerateCrosscheck(channels int) string {
	body := "  crosscheck backup;\n  crosscheck copy;\n  delete noprompt expired backup;\n  delete noprompt expired copy;\n"
	return channelBlock(channels, body)
}

// GenerateCatalog builds 02b_catalog.rcv: the catalog run block plus
// the listing commands issued outside of it (#3).
func GenerateCatalog(backupRoot string, channels int) string {
	body := fmt.Sprintf("  catalog start with '%s/' noprompt;\n", backupRoot)
	script := channelBlock(channels, body)
	script += "list backup summary;\nlist archivelog all;\nlist incarnation;\n"
	return script
}

// newNameBlock emits "set newname for datafile|tempfile <id> to
// '<dest>';" for every non-REDO entry of the transformation map, in
// map order.
func newNameBlock(m *Map) string {
	var b strings.Builder
	for _, e := range m.Entries {
		switch e.Kind {
		case Datafile:
			fmt.Fprintf(&b, "  set newname for datafile %d to '%s';\n", e.ID, e.Dest)
		case Tempfile:
			fmt.Fprintf(&b, "  set newname for tempfile %d to '%s';\n", e.ID, e.Dest)
		}
	}
	return b.String()
}

// GeneratePreview builds 03_preview.rcv (#4).
func GeneratePreview(m *Map, channels int) string {
	body := newNameBlock(m) + "  restore database preview summary;\n"
	return channelBlock(channels, body)
}

// GenerateValidate builds 04_validate.rcv (#5).
func GenerateValidate(m *Map, channels int) string {
	body := newNameBlock(m) + "  restore database validate;\n"
	return channelBlock(channels, body)
}

// untilClause renders the optional "set until time ..."/"set until
// scn ..." clause shared by restore and recover.
func untilClause(spec PITRSpec) string {
	switch {
	case spec.UntilTime != "":
		return fmt.Sprintf("  set until time \"to_date('%s','YYYY-MM-DD HH24:MI:SS')\";\n", spec.UntilTime)
	case spec.UntilSCN != "":
		return fmt.Sprintf("  set until scn %s;\n", spec.UntilSCN)
	default:
		return ""
	}
}

// GenerateRestore builds 05_restore.rcv (#6).
func GenerateRestore(m *Map, spec PITRSpec, channels int) string {
	body := untilClause(spec) + newNameBlock(m) + "  restore database;\n  switch datafile all;\n"
	return channelBlock(channels, body)
}

// GenerateRecover builds 06_recover.rcv (#7).
func GenerateRecover(spec PITRSpec, channels int) string {
	var clause string
	switch {
	case spec.UntilTime != "":
		clause = fmt.Sprintf(" until time \"to_date('%s','YYYY-MM-DD HH24:MI:SS')\"", spec.UntilTime)
	case spec.UntilSCN != "":
		clause = fmt.Sprintf(" until scn %s", spec.UntilSCN)
	}
	body := fmt.Sprintf("  recover database%s;\n", clause)
	return channelBlock(channels, body)
}

// GeneratePostRestoreSQL builds 07_post_restore.sql: a comment header,
// rename statements for every REDO and TEMPFILE entry, then the final
// resetlogs open.
func GeneratePostRestoreSQL(m *Map) string {
	var b strings.Builder
	b.WriteString("-- generated by the RMAN engine: renames restored redo/tempfiles, then opens resetlogs\n")
	for _, e := range m.Entries {
		if e.Kind == RedoLog {
			fmt.Fprintf(&b, "alter database rename file '%s' to '%s';\n", e.Source, e.Dest)
		}
	}
	for _, e := range m.Entries {
		if e.Kind == Tempfile {
			fmt.Fprintf(&b, "alter database rename file '%s' to '%s';\n", e.Source, e.Dest)
		}
	}
	b.WriteString("alter database open resetlogs;\n")
	return b.String()
}
