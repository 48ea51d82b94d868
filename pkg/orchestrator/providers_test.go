package orchestrator

import "testing"

func TestNullCredentialProviderFromEnv(t *testing.T) {
	t.Setenv("SRCDB_USER", "sys")
	t.Setenv("SRCDB_PASSWORD", "secret")
	t.Setenv("SRCDB_TNS", "srcdb_tns")

	cred, err := (NullCredentialProvider{}).Get("SRCDB")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cred.User != "sys" || cred.Password != "secret" || cred.TNS != "srcdb_tns" {
		t.Errorf("unexpected credential: %+v", cred)
	}
}

func TestNullCredentialProviderFallsBackToOSAuth(t *testing.T) {
	t.Setenv("SRCDB_USER", "")
	t.Setenv("SRCDB_PASSWORD", "")
	t.Setenv("SRCDB_TNS", "srcdb_tns")

	cred, err := (NullCredentialProvider{}).Get("SRCDB")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cred.User != "" || cred.Password != "" || cred.TNS != "srcdb_tns" {
		t.Errorf("expected empty user/password for OS-auth, got %+v", cred)
	}
}

func TestNullCredentialProviderRequiresPasswordWhenUserSet(t *testing.T) {
	t.Setenv("SRCDB_USER", "sys")
	t.Setenv("SRCDB_PASSWORD", "")
	t.Setenv("SRCDB_TNS", "")

	if _, err := (NullCredentialProvider{}).Get("SRCDB"); err == nil {
		t.Fatal("expected an error when USER is set without PASSWORD")
	}
}
