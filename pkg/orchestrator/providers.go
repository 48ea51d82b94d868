package orchestrator

import (
	"fmt"
	"os"
)

// Credential is what a CredentialProvider resolves for a given
// environment identifier (spec §6.4).
type Credential struct {
	User     string
	Password string
	TNS      string
}

// CredentialProvider resolves database credentials through a
// fallback chain (wallet -> keyring -> env vars -> config file ->
// interactive prompt). No concrete wallet/keyring implementation
// ships with this module (spec §1 "out of scope: external
// collaborators"); NullCredentialProvider covers the password/OS-auth
// modes pkg/sqlgateway already implements directly.
type CredentialProvider interface {
	Get(envID string) (Credential, error)
}

// WalletProvider sets an OS-auth-style connection string from an
// Oracle wallet directory (spec §6.4). No concrete implementation
// ships with this module.
type WalletProvider interface {
	SetConnectionViaWallet(tns, walletDir string) (string, error)
}

// ObjectStoreProvider produces a dumpfile= URL template (including a
// %L parallel-file marker) for Data Pump jobs that read/write through
// a remote object store (spec §6.4). No concrete implementation ships
// with this module.
type ObjectStoreProvider interface {
	DumpfileURL(namespace, bucket, pathPrefix string, cred Credential) (string, error)
}

// NullCredentialProvider resolves credentials from environment
// variables named <envID>_USER/<envID>_PASSWORD/<envID>_TNS, falling
// back to a connect-string-free empty Credential (OS-auth) when none
// are set. It never reads a wallet or keyring.
type NullCredentialProvider struct{}

func (NullCredentialProvider) Get(envID string) (Credential, error) {
	user := os.Getenv(envID + "_USER")
	pass := os.Getenv(envID + "_PASSWORD")
	tns := os.Getenv(envID + "_TNS")
	if user == "" && pass == "" {
		return Credential{TNS: tns}, nil
	}
	if pass == "" {
		return Credential{}, fmt.Errorf("%s_PASSWORD is not set", envID)
	}
	return Credential{User: user, Password: pass, TNS: tns}, nil
}
