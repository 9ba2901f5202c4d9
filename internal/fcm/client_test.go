package fcm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type staticTokens struct {
	token string
	err   error
}

func (s staticTokens) AccessToken(context.Context) (string, error) { return s.token, s.err }

func TestClientSend(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/projects/brew-app/messages:send" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer ya29.token" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_, _ = w.Write([]byte(`{"name":"projects/brew-app/messages/0:123"}`))
	}))
	defer srv.Close()

	c, err := NewClient(ClientConfig{
		ProjectID:  "brew-app",
		BaseURL:    srv.URL + "/",
		Tokens:     staticTokens{token: "ya29.token"},
		HTTPClient: srv.Client(),
	})
	if err != nil {
		t.Fatalf("NewClient() failed: %v", err)
	}
	msg := &Message{
		Token:        "device-1",
		Notification: &Notification{Title: "Cadastro Cerveja", Body: "hello"},
		Android:      &AndroidConfig{Priority: AndroidPriorityHigh, Notification: &AndroidNotification{ChannelID: "cervejas_high"}},
		Data:         map[string]string{"acao": "abrir_pesquisa_filtrada"},
	}
	res, err := c.Send(context.Background(), msg)
	if err != nil {
		t.Fatalf("Send() failed: %v", err)
	}
	if res != `{"name":"projects/brew-app/messages/0:123"}` {
		t.Errorf("Send() = %s", res)
	}
	if got.Message == nil || got.Message.Token != "device-1" || got.Message.Android.Notification.ChannelID != "cervejas_high" {
		t.Errorf("gateway received %+v", got.Message)
	}
}

func TestClientSendErrors(t *testing.T) {
	tests := []struct {
		name             string
		status           int
		body             string
		wantCode         string
		wantUnregistered bool
	}{
		{
			name:   "unregistered token",
			status: http.StatusNotFound,
			body: `{"error":{"code":404,"message":"Requested entity was not found.","status":"NOT_FOUND",
				"details":[{"@type":"type.googleapis.com/google.firebase.fcm.v1.FcmError","errorCode":"UNREGISTERED"}]}}`,
			wantCode:         "UNREGISTERED",
			wantUnregistered: true,
		},
		{
			name:   "invalid argument",
			status: http.StatusBadRequest,
			body: `{"error":{"code":400,"status":"INVALID_ARGUMENT",
				"details":[{"@type":"type.googleapis.com/google.firebase.fcm.v1.FcmError","errorCode":"INVALID_ARGUMENT"}]}}`,
			wantCode: "INVALID_ARGUMENT",
		},
		{
			name:   "non json body",
			status: http.StatusBadGateway,
			body:   "upstream down",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := NewClient(ClientConfig{ProjectID: "p", BaseURL: srv.URL, Tokens: staticTokens{token: "t"}, HTTPClient: srv.Client()})
			if err != nil {
				t.Fatalf("NewClient() failed: %v", err)
			}
			_, err = c.Send(context.Background(), &Message{Token: "x"})
			var sendErr *SendError
			if !errors.As(err, &sendErr) {
				t.Fatalf("want *SendError, got %v", err)
			}
			if sendErr.StatusCode != tt.status || sendErr.Body != tt.body || sendErr.ErrorCode != tt.wantCode {
				t.Errorf("SendError = %+v", sendErr)
			}
			if IsUnregistered(err) != tt.wantUnregistered {
				t.Errorf("IsUnregistered() = %v", !tt.wantUnregistered)
			}
		})
	}
}

func TestClientSendTokenFailure(t *testing.T) {
	c, err := NewClient(ClientConfig{ProjectID: "p", Tokens: staticTokens{err: &ExchangeError{StatusCode: 400, Body: "bad"}}})
	if err != nil {
		t.Fatalf("NewClient() failed: %v", err)
	}
	_, err = c.Send(context.Background(), &Message{Token: "x"})
	var exErr *ExchangeError
	if !errors.As(err, &exErr) {
		t.Fatalf("want *ExchangeError, got %v", err)
	}
}

func TestNewClientRequiresProject(t *testing.T) {
	_, err := NewClient(ClientConfig{Tokens: staticTokens{}})
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Key != "FIREBASE_PROJECT_ID" {
		t.Fatalf("want ConfigError for project, got %v", err)
	}
}
