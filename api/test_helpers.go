package api

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"
)

type apiTests []apiTest

type apiTest struct {
	name             string
	path             string
	method           string
	body             []byte
	setWalletMethods func(w *mockWallet)
	statusCode       int
	expectedResponse func() ([]byte, error)
}

func runAPITests(t *testing.T, tests apiTests) {
	mock := &mockWallet{}
	gateway := &Gateway{
		wallet: mock,
		config: &GatewayConfig{},
	}

	ts := httptest.NewServer(gateway.newV1Router())
	defer ts.Close()

	for _, test := range tests {
		test.setWalletMethods(mock)
		req, err := http.NewRequest(test.method, fmt.Sprintf("%s%s", ts.URL, test.path), bytes.NewReader(test.body))
		if err != nil {
			t.Fatal(err)
		}
		res, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}

		if res.StatusCode != test.statusCode {
			t.Errorf("%s: incorrect status code. Expected %d, got %d", test.name, test.statusCode, res.StatusCode)
			continue
		}

		response, err := ioutil.ReadAll(res.Body)
		if err != nil {
			t.Fatal(err)
		}
		res.Body.Close()

		expected, err := test.expectedResponse()
		if err != nil {
			t.Fatal(err)
		}
		if expected != nil && !bytes.Equal(bytes.TrimSpace(response), bytes.TrimSpace(expected)) {
			t.Errorf("%s: incorrect response. Expected %s, got %s", test.name, string(expected), string(response))
		}
	}
}
