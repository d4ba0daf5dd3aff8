package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                              "/",
		"/metrics":                      "/metrics",
		"/v1/threads/abc":               "/v1/threads/:id",
		"/v1/threads/abc/comments":      "/v1/threads/:id/comments",
		"/v1/projects/p1/threads":       "/v1/projects/:id/threads",
		"/v1/organizations/o1/members":  "/v1/organizations/:id/members",
		"/v1/translate":                 "/v1/translate",
		"/v1/threads/abc?sort=priority": "/v1/threads/:id",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
