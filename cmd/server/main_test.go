package main

import (
	"testing"

	"github.com/palmkaka/saas-inventory-pos-sub000/internal/config"
)

func TestValidateSecurityConfigRejectsWeakSecretWithDatabase(t *testing.T) {
	err := validateSecurityConfig(config.Config{DatabaseURL: "postgres://x", AuthSecret: "short"})
	if err == nil {
		t.Fatalf("expected weak security config to be rejected")
	}
}

func TestValidateSecurityConfigAcceptsStrongSecret(t *testing.T) {
	err := validateSecurityConfig(config.Config{DatabaseURL: "postgres://x", AuthSecret: "0123456789abcdef0123456789abcdef"})
	if err != nil {
		t.Fatalf("expected strong config to pass, got %v", err)
	}
}

func TestValidateSecurityConfigToleratesMemoryMode(t *testing.T) {
	err := validateSecurityConfig(config.Config{AuthSecret: ""})
	if err != nil {
		t.Fatalf("expected in-memory mode to be tolerated, got %v", err)
	}
}
