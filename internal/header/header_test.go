package header

import (
	"net/http"
	"testing"
)

func TestIsHopByHop(t *testing.T) {
	hop := []string{"Connection", "keep-alive", "PROXY-AUTHENTICATE", "Proxy-Authorization", "te", "Trailers", "transfer-encoding", "Upgrade"}
	for _, name := range hop {
		if !IsHopByHop(name) {
			t.Errorf("IsHopByHop(%q) = false, want true", name)
		}
	}
	endToEnd := []string{"Host", "Content-Type", "X-Forwarded-For", "Via", "Authorization"}
	for _, name := range endToEnd {
		if IsHopByHop(name) {
			t.Errorf("IsHopByHop(%q) = true, want false", name)
		}
	}
}

func TestEnumeratePreservesDuplicatesAndPerNameOrder(t *testing.T) {
	h := make(http.Header)
	h.Add("Set-Cookie", "a=1")
	h.Add("Set-Cookie", "b=2")
	h.Add("X-Custom", "one")

	pairs := Enumerate(h)

	var cookies []string
	for _, p := range pairs {
		if p.Name == "Set-Cookie" {
			cookies = append(cookies, p.Value)
		}
	}
	if len(cookies) != 2 || cookies[0] != "a=1" || cookies[1] != "b=2" {
		t.Fatalf("Set-Cookie order not preserved: %v", cookies)
	}
	if len(pairs) != 3 {
		t.Fatalf("expected 3 pairs, got %d", len(pairs))
	}
}

func TestRewriteRequestStripsHopByHop(t *testing.T) {
	h := make(http.Header)
	h.Set("Connection", "keep-alive")
	h.Set("Proxy-Authorization", "Basic xyz")
	h.Set("Content-Type", "text/plain")

	out := RewriteRequest(h, "10.0.0.1", "1.1 proxy (proxy/1.3.0)")

	if out.Get("Connection") != "" || out.Get("Proxy-Authorization") != "" {
		t.Fatalf("hop-by-hop headers leaked through: %v", out)
	}
	if out.Get("Content-Type") != "text/plain" {
		t.Fatalf("end-to-end header dropped: %v", out)
	}
}

func TestRewriteRequestCreatesXFFAndViaWhenAbsent(t *testing.T) {
	out := RewriteRequest(make(http.Header), "192.0.2.5", "1.1 proxy (proxy/1.3.0)")

	if out.Get("X-Forwarded-For") != "192.0.2.5" {
		t.Fatalf("X-Forwarded-For = %q", out.Get("X-Forwarded-For"))
	}
	if out.Get("Via") != "1.1 proxy (proxy/1.3.0)" {
		t.Fatalf("Via = %q", out.Get("Via"))
	}
}

func TestRewriteRequestAppendsToExistingXFFAndVia(t *testing.T) {
	h := make(http.Header)
	h.Set("X-Forwarded-For", "203.0.113.4")
	h.Set("Via", "1.1 upstream-proxy")

	out := RewriteRequest(h, "192.0.2.5", "1.1 proxy (proxy/1.3.0)")

	if out.Get("X-Forwarded-For") != "203.0.113.4, 192.0.2.5" {
		t.Fatalf("X-Forwarded-For = %q", out.Get("X-Forwarded-For"))
	}
	if out.Get("Via") != "1.1 upstream-proxy, 1.1 proxy (proxy/1.3.0)" {
		t.Fatalf("Via = %q", out.Get("Via"))
	}
}

func TestRewriteResponseStripsHopByHopOnlyAndNeverInjectsXFFOrVia(t *testing.T) {
	h := make(http.Header)
	h.Set("Transfer-Encoding", "chunked")
	h.Set("Content-Length", "12")

	out := RewriteResponse(h)

	if out.Get("Transfer-Encoding") != "" {
		t.Fatalf("hop-by-hop response header leaked: %v", out)
	}
	if out.Get("Content-Length") != "12" {
		t.Fatalf("end-to-end response header dropped: %v", out)
	}
	if out.Get("X-Forwarded-For") != "" || out.Get("Via") != "" {
		t.Fatalf("response rewrite must never inject XFF/Via: %v", out)
	}
}

func TestViaTokenFormat(t *testing.T) {
	got := ViaToken("proxy-host")
	want := "1.1 proxy-host (proxy/" + Version + ")"
	if got != want {
		t.Fatalf("ViaToken() = %q, want %q", got, want)
	}
}
