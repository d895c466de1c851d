package user

import (
	"testing"
	"time"
)

func TestMakeVerifyToken(t *testing.T) {
	tg := newTokenGenerator("secret", 3*24*time.Hour)

	now := time.Now()
	active := true
	usr := User{
		ID:        "9a5c6d3e-6f0e-4c1b-9a47-0d2f7c2b1e11",
		Name:      "T",
		Username:  "t",
		Email:     "t@test.test",
		IsActive:  &active,
		CreatedAt: now,
		UpdatedAt: now,
		LastLogin: now,
	}
	_ = usr.SetPassword("pwd")

	validToken, err := tg.makeToken(usr)
	if err != nil {
		t.Fatalf("makeToken() error = %v", err)
	}

	// generate an expired token
	dayLate := tg.timeout + (24 * time.Hour)
	tg.nowFunc = func() time.Time { return time.Now().Add(-dayLate) }
	expiredToken, _ := tg.makeToken(usr)
	tg.nowFunc = time.Now // reset

	// a new password invalidates older tokens
	changed := usr
	_ = changed.SetPassword("other-pwd")

	tests := []struct {
		name    string
		usr     User
		token   string
		wantErr error
	}{
		{name: "no token", usr: usr, wantErr: errInvalidToken},
		{name: "invalid parts len", usr: usr, token: "lmaooolol", wantErr: errInvalidToken},
		{name: "invalid base32", usr: usr, token: "hahaha-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid timestamp", usr: usr, token: "NRXWY-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid token", usr: usr, token: "HE4TS-sigsig-sig", wantErr: errInvalidToken},
		{name: "expired token", usr: usr, token: expiredToken, wantErr: errTokenExpired},
		{name: "password changed", usr: changed, token: validToken, wantErr: errInvalidToken},
		{name: "valid token", usr: usr, token: validToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tg.verifyToken(tt.usr, tt.token); err != tt.wantErr {
				t.Errorf("verifyToken() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncodeDecodeUID(t *testing.T) {
	usr := User{ID: "9a5c6d3e-6f0e-4c1b-9a47-0d2f7c2b1e11"}
	id, err := DecodeUID(EncodeUID(usr))
	if err != nil {
		t.Fatalf("DecodeUID() error = %v", err)
	}
	if id != usr.ID {
		t.Errorf("DecodeUID() = %q, want %q", id, usr.ID)
	}
	if _, err = DecodeUID("not base64!"); err == nil {
		t.Error("DecodeUID() expected an error")
	}
}
