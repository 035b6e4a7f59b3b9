package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendMessage(t *testing.T) {
	var gotPath, gotTo, gotFrom, gotBody string
	var gotUser, gotPass string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		_ = r.ParseForm()
		gotTo = r.FormValue("To")
		gotFrom = r.FormValue("From")
		gotBody = r.FormValue("Body")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(Config{
		AccountSID: "AC123",
		AuthToken:  "secret",
		From:       "whatsapp:+10000000000",
		BaseURL:    srv.URL,
	})

	err := c.SendMessage(context.Background(), "whatsapp:+19999999999", "hello there")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if gotPath != "/2010-04-01/Accounts/AC123/Messages.json" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotUser != "AC123" || gotPass != "secret" {
		t.Fatal("expected basic auth with account credentials")
	}
	if gotTo != "whatsapp:+19999999999" || gotFrom != "whatsapp:+10000000000" || gotBody != "hello there" {
		t.Fatalf("unexpected form values: to=%q from=%q body=%q", gotTo, gotFrom, gotBody)
	}
}

func TestSendMessageFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(Config{AccountSID: "AC123", AuthToken: "bad", From: "x", BaseURL: srv.URL})
	if err := c.SendMessage(context.Background(), "y", "z"); err == nil {
		t.Fatal("expected error on non-2xx status")
	}
}
