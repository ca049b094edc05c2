package tlsutil

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeSelfSigned(t *testing.T, dir string) (certFile, keyFile string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "localhost"},
		DNSNames:              []string{"localhost"},
		NotBefore:             time.Now().Add(-time.Minute),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create cert: %v", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}

	certFile = filepath.Join(dir, "server.pem")
	keyFile = filepath.Join(dir, "server-key.pem")
	if err := os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600); err != nil {
		t.Fatal(err)
	}
	return certFile, keyFile
}

func TestServerTLSConfig(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeSelfSigned(t, dir)

	t.Run("loads a key pair", func(t *testing.T) {
		creds, err := ServerTLSConfig(certFile, keyFile, "")
		if err != nil {
			t.Fatalf("ServerTLSConfig() error = %v", err)
		}
		if creds.Info().SecurityProtocol != "tls" {
			t.Errorf("SecurityProtocol = %q", creds.Info().SecurityProtocol)
		}
	})

	t.Run("accepts the certificate as client CA", func(t *testing.T) {
		if _, err := ServerTLSConfig(certFile, keyFile, certFile); err != nil {
			t.Fatalf("ServerTLSConfig() with client CA error = %v", err)
		}
	})

	t.Run("fails on missing files", func(t *testing.T) {
		if _, err := ServerTLSConfig(filepath.Join(dir, "nope.pem"), keyFile, ""); err == nil {
			t.Fatal("expected error for missing certificate")
		}
	})

	t.Run("fails on unparsable client CA", func(t *testing.T) {
		bogus := filepath.Join(dir, "bogus.pem")
		if err := os.WriteFile(bogus, []byte("not a certificate"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := ServerTLSConfig(certFile, keyFile, bogus); err == nil {
			t.Fatal("expected error for bogus client CA")
		}
	})
}
