package validation

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"QuickBill305/internal/feeimport"
)

func TestExtractSessionID(t *testing.T) {
	t.Run("header", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/fees/notifications", nil)
		r.Header.Set(SessionHeader, " abc ")
		if id, err := ExtractSessionID(r, 1<<20); err != nil || id != "abc" {
			t.Fatalf("got %q, %v", id, err)
		}
	})

	t.Run("url-encoded form", func(t *testing.T) {
		form := url.Values{"session_id": {"form-id"}, "action": {"import"}}
		r := httptest.NewRequest(http.MethodPost, "/fees/import", strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if id, err := ExtractSessionID(r, 1<<20); err != nil || id != "form-id" {
			t.Fatalf("got %q, %v", id, err)
		}
		if r.FormValue("action") != "import" {
			t.Fatal("form values lost after extraction")
		}
	})

	t.Run("multipart keeps the file", func(t *testing.T) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		_ = mw.WriteField("session_id", "mp-id")
		fw, _ := mw.CreateFormFile("file", "fees.csv")
		_, _ = fw.Write([]byte("business_type\n"))
		_ = mw.Close()

		r := httptest.NewRequest(http.MethodPost, "/fees/import", &body)
		r.Header.Set("Content-Type", mw.FormDataContentType())
		if id, err := ExtractSessionID(r, 1<<20); err != nil || id != "mp-id" {
			t.Fatalf("got %q, %v", id, err)
		}
		if _, hdr, err := r.FormFile("file"); err != nil || hdr.Filename != "fees.csv" {
			t.Fatalf("file lost after extraction: %v", err)
		}
	})

	t.Run("missing", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/fees/notifications", nil)
		if _, err := ExtractSessionID(r, 1<<20); !errors.Is(err, ErrNoSessionID) {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestActorFromResult(t *testing.T) {
	actor, err := ActorFromResult(&ValidationResult{UserID: "u1", Active: true, Permissions: []string{feeimport.PermissionImport}})
	if err != nil || actor.UserID != "u1" || !actor.Can(feeimport.PermissionImport) {
		t.Fatalf("actor = %+v, %v", actor, err)
	}
	if _, err := ActorFromResult(&ValidationResult{UserID: "u2"}); !errors.Is(err, ErrUserInactive) {
		t.Fatalf("inactive user err = %v", err)
	}
	if _, err := ActorFromResult(nil); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("nil result err = %v", err)
	}
}
