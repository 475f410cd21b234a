package main

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/authutil"
)

func TestMonthFlags(t *testing.T) {
	tests := []struct {
		month   int
		want    int
		wantErr bool
	}{
		{1, 0, false},
		{12, 11, false},
		{0, 0, true},
		{13, 0, true},
	}
	for _, tt := range tests {
		f := monthFlags{year: 2030, month: tt.month}
		got, err := f.month0()
		if (err != nil) != tt.wantErr {
			t.Errorf("month %d: err = %v, wantErr %v", tt.month, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("month %d: got %d, want %d", tt.month, got, tt.want)
		}
	}
}

func TestSessionKeyCommand(t *testing.T) {
	cmd := sessionKeyCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	if err := cmd.RunE(cmd, nil); err != nil {
		t.Fatalf("session-key failed: %v", err)
	}
	key := strings.TrimSpace(out.String())
	raw, err := base64.RawURLEncoding.DecodeString(key)
	if err != nil {
		t.Fatalf("key is not base64: %v", err)
	}
	if len(raw) != 32 || len(key) < 32 {
		t.Errorf("got %d raw bytes, %d chars", len(raw), len(key))
	}
}

func TestHashPasscodeCommand(t *testing.T) {
	cmd := hashPasscodeCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("quartel-07\n"))
	if err := cmd.RunE(cmd, nil); err != nil {
		t.Fatalf("hash-passcode failed: %v", err)
	}
	ok, err := authutil.CheckPasscode(strings.TrimSpace(out.String()), "quartel-07")
	if err != nil || !ok {
		t.Errorf("hash does not verify: ok=%v err=%v", ok, err)
	}

	cmd = hashPasscodeCommand()
	cmd.SetIn(strings.NewReader(""))
	if err := cmd.RunE(cmd, nil); err == nil {
		t.Error("expected an error for empty stdin")
	}
}
