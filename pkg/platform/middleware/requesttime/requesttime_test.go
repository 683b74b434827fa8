package requesttime

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"library/pkg/requestcontext"
)

func TestClockedStoresRequestTime(t *testing.T) {
	fixed := time.Date(2024, 5, 20, 23, 59, 0, 0, time.UTC)
	var seen time.Time
	h := Clocked(func() time.Time { return fixed })(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = requestcontext.Now(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, fixed.Equal(seen))
}
