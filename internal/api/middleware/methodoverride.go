package middleware

import "net/http"

// overrideField is the hidden form field carrying the effective method,
// a workaround for HTML forms only supporting GET and POST.
const overrideField = "_method"

// MethodOverride rewrites the request method of POST requests from the
// "_method" form field, so HTML forms can issue DELETE and PUT requests.
func MethodOverride() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				if err := r.ParseForm(); err == nil {
					switch r.PostForm.Get(overrideField) {
					case http.MethodDelete:
						r.Method = http.MethodDelete
					case http.MethodPut:
						r.Method = http.MethodPut
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
