package rman

import "testing"

func TestCleanName(t *testing.T) {
	cases := []struct {
		source, ext, want string
	}{
		{"/u01/app/oradata/o1_mf_FOO_abc123_.dbf", "dbf", "FOO.dbf"},
		{"+DATA/ORCL/DATAFILE/USERS.123.456", "dbf", "USERS.dbf"},
		{"/u01/app/oradata/users!$.dbf", "dbf", "users.dbf"},
	}
	for _, c := range cases {
		if got := CleanName(c.source, c.ext); got != c.want {
			t.Errorf("CleanName(%q, %q) = %q, want %q", c.source, c.ext, got, c.want)
		}
	}
}
