package discord

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-request-bot/internal/domain"
	"github.com/tbourn/go-request-bot/internal/services"
)

// stubSubmissions records the last input and returns scripted results.
type stubSubmissions struct {
	lastIn services.SubmitInput
	req    domain.Request
	err    error
}

func (s *stubSubmissions) Submit(ctx context.Context, in services.SubmitInput) (domain.Request, error) {
	s.lastIn = in
	return s.req, s.err
}

type rig struct {
	router *gin.Engine
	stub   *stubSubmissions
	priv   ed25519.PrivateKey
}

func newRig(t *testing.T) *rig {
	t.Helper()
	gin.SetMode(gin.TestMode)

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	stub := &stubSubmissions{}
	h, err := NewInteractionsHandler(hex.EncodeToString(pub), stub, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewInteractionsHandler: %v", err)
	}

	router := gin.New()
	router.POST("/interactions", h.Handle)
	return &rig{router: router, stub: stub, priv: priv}
}

// post signs and delivers an interaction body.
func (r *rig) post(t *testing.T, body string, sign bool) *httptest.ResponseRecorder {
	t.Helper()
	const ts = "1700000000"
	req := httptest.NewRequest(http.MethodPost, "/interactions", strings.NewReader(body))
	req.Header.Set(signatureTimestampHdr, ts)
	if sign {
		sig := ed25519.Sign(r.priv, append([]byte(ts), []byte(body)...))
		req.Header.Set(signatureHeader, hex.EncodeToString(sig))
	} else {
		req.Header.Set(signatureHeader, strings.Repeat("00", ed25519.SignatureSize))
	}
	w := httptest.NewRecorder()
	r.router.ServeHTTP(w, req)
	return w
}

func TestInteractions_RejectsBadSignature(t *testing.T) {
	r := newRig(t)
	w := r.post(t, `{"type":1}`, false)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestInteractions_Ping(t *testing.T) {
	r := newRig(t)
	w := r.post(t, `{"type":1}`, true)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp map[string]int
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["type"] != callbackPong {
		t.Fatalf("resp = %v, want pong", resp)
	}
}

func TestInteractions_RequestCommand(t *testing.T) {
	r := newRig(t)
	r.stub.req = domain.Request{Artist: "Carti", Name: "Song X"}

	body := `{
		"type":2,
		"data":{"name":"request","options":[
			{"name":"artist","value":"Carti"},
			{"name":"name","value":"Song X"},
			{"name":"link","value":"http://x"}
		]},
		"member":{"user":{"id":"u1","username":"alice","discriminator":"0"}}
	}`
	w := r.post(t, body, true)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	in := r.stub.lastIn
	if in.Artist != "Carti" || in.Title != "Song X" || in.Link != "http://x" {
		t.Fatalf("input = %+v", in)
	}
	if in.Submitter.ID != "u1" || in.Submitter.Name != "alice" {
		t.Fatalf("submitter = %+v", in.Submitter)
	}

	var resp struct {
		Type int `json:"type"`
		Data struct {
			Content string `json:"content"`
			Flags   int    `json:"flags"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Type != callbackMessage || resp.Data.Flags != messageFlagEphemeral {
		t.Fatalf("reply must be an ephemeral message: %+v", resp)
	}
	if !strings.Contains(resp.Data.Content, "Request added: Song X (Carti)") {
		t.Fatalf("ack = %q", resp.Data.Content)
	}
}

func TestInteractions_LegacyDiscriminator(t *testing.T) {
	r := newRig(t)
	body := `{
		"type":2,
		"data":{"name":"request","options":[]},
		"user":{"id":"u2","username":"bob","discriminator":"1234"}
	}`
	r.post(t, body, true)
	if r.stub.lastIn.Submitter.Name != "bob#1234" {
		t.Fatalf("submitter name = %q, want legacy form", r.stub.lastIn.Submitter.Name)
	}
}

func TestInteractions_RejectionMessages(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{services.ErrEmptyField, "required"},
		{services.ErrRateLimited, "too fast"},
	}
	for _, tc := range cases {
		r := newRig(t)
		r.stub.err = tc.err
		body := `{"type":2,"data":{"name":"request","options":[]},"user":{"id":"u","username":"x"}}`
		w := r.post(t, body, true)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), tc.want) {
			t.Fatalf("reply %q does not mention %q", w.Body.String(), tc.want)
		}
	}
}

func TestNewInteractionsHandler_BadKey(t *testing.T) {
	if _, err := NewInteractionsHandler("not-hex", &stubSubmissions{}, zerolog.Nop()); err == nil {
		t.Fatal("non-hex key must fail")
	}
	if _, err := NewInteractionsHandler("abcd", &stubSubmissions{}, zerolog.Nop()); err == nil {
		t.Fatal("short key must fail")
	}
}
