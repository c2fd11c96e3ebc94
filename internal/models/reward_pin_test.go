package models

import (
	"testing"
	"time"
)

func TestMaskedPinNumber(t *testing.T) {
	pin := RewardPin{PinNumber: "4821-0937-5526-1184"}
	if got := pin.MaskedPinNumber(); got != "****-****-****-1184" {
		t.Errorf("masked pin = %q", got)
	}

	// A malformed code never leaks any digits.
	short := RewardPin{PinNumber: "1234"}
	if got := short.MaskedPinNumber(); got != "****-****-****-****" {
		t.Errorf("short pin mask = %q", got)
	}
}

func TestPinExpiryBoundaryIsInclusive(t *testing.T) {
	expiry := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	pin := RewardPin{ExpiresAt: expiry.Unix()}

	if pin.IsExpiredAt(expiry.Add(-time.Second)) {
		t.Error("pin must be valid one second before expiry")
	}
	if !pin.IsExpiredAt(expiry) {
		t.Error("pin must be expired at the exact expiry instant")
	}
	if !pin.IsExpiredAt(expiry.Add(time.Second)) {
		t.Error("pin must be expired after expiry")
	}
}

func TestPinAvailability(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	fresh := RewardPin{ExpiresAt: now.Add(time.Hour).Unix()}
	if !fresh.IsAvailableAt(now) {
		t.Error("unused unexpired pin must be available")
	}

	used := RewardPin{ExpiresAt: now.Add(time.Hour).Unix(), IsUsed: true}
	if used.IsAvailableAt(now) {
		t.Error("used pin must not be available")
	}

	expired := RewardPin{ExpiresAt: now.Add(-time.Hour).Unix()}
	if expired.IsAvailableAt(now) {
		t.Error("expired pin must not be available")
	}
}

func TestIssuedPinResponseShowsFullCode(t *testing.T) {
	pin := RewardPin{
		ID:        "pin-1",
		RewardID:  "reward-1",
		PinNumber: "4821-0937-5526-1184",
		IssuedAt:  time.Now().Unix(),
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}

	issued := pin.ToIssuedPinResponse()
	if issued.PinNumber != pin.PinNumber {
		t.Error("issuance response must carry the full code")
	}

	masked := pin.ToRewardPinResponse()
	if masked.PinNumber != "****-****-****-1184" {
		t.Errorf("non-issuance response must be masked, got %q", masked.PinNumber)
	}
}
