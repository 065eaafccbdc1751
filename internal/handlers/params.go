package handlers

import "net/http"

// getParam returns a path or query parameter value regardless of whether
// the router stores it with a leading colon or not.
func getParam(r *http.Request, name string) string {
	if r == nil {
		return ""
	}
	if val := r.URL.Query().Get(":" + name); val != "" {
		return val
	}
	return r.URL.Query().Get(name)
}

// userIDFromContext reads the authenticated user id set by the JWT middleware.
func userIDFromContext(r *http.Request) (string, bool) {
	id, ok := r.Context().Value("user_id").(string)
	return id, ok && id != ""
}
