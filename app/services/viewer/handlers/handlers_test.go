package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/treeledger/blockchain/app/services/viewer/handlers"
	"go.uber.org/zap"
)

const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Index(t *testing.T) {
	app, err := handlers.UIMux("test", "http://node1:8080", make(chan os.Signal, 1), zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the mux: %v", failed, err)
	}
	t.Logf("\t%s\tShould be able to construct the mux.", success)

	w := httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("\t%s\tShould receive a 200: got %d", failed, w.Code)
	}
	t.Logf("\t%s\tShould receive a 200.", success)

	if !strings.Contains(w.Body.String(), "node1:8080") {
		t.Fatalf("\t%s\tShould point the page at the node.", failed)
	}
	t.Logf("\t%s\tShould point the page at the node.", success)
}
