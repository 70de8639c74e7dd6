package config

import "testing"

func TestRegistrationFeeDefaults(t *testing.T) {
	t.Setenv("REGISTRATION_FEE", "")

	cfg := FromEnv()
	if cfg.RegistrationFee != 1 {
		t.Fatalf("expected default fee 1, got %d", cfg.RegistrationFee)
	}
	if cfg.RegistrationFeeSet {
		t.Fatalf("expected fee to be reported as unset")
	}
}

func TestRegistrationFeeFromEnv(t *testing.T) {
	t.Setenv("REGISTRATION_FEE", "7")

	cfg := FromEnv()
	if cfg.RegistrationFee != 7 {
		t.Fatalf("expected fee 7, got %d", cfg.RegistrationFee)
	}
	if !cfg.RegistrationFeeSet {
		t.Fatalf("expected fee to be reported as set")
	}
}

func TestRegistrationFeeIgnoresGarbage(t *testing.T) {
	t.Setenv("REGISTRATION_FEE", "not-a-number")

	cfg := FromEnv()
	if cfg.RegistrationFee != 1 {
		t.Fatalf("expected default fee 1, got %d", cfg.RegistrationFee)
	}
	if cfg.RegistrationFeeSet {
		t.Fatalf("expected fee to be reported as unset")
	}
}
