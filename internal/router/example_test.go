package router

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/patric-chuzhbe/instabackend/internal/ipchecker"
	"github.com/patric-chuzhbe/instabackend/internal/registry"
	"github.com/patric-chuzhbe/instabackend/internal/service"
	"github.com/patric-chuzhbe/instabackend/internal/usersremover"
)

func newExampleServer() *httptest.Server {
	theRegistry := registry.New()
	checker, err := ipchecker.New("")
	if err != nil {
		panic(err)
	}
	remover := usersremover.New(theRegistry, 1, 1)

	return httptest.NewServer(New(service.New(theRegistry, remover), "instagram_backend", checker))
}

func printResponse(resp *http.Response) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		panic(err)
	}

	fmt.Println("Status Code:", resp.StatusCode)
	fmt.Println("Body:", string(body))
}

func ExampleRouter_GetHealth() {
	server := newExampleServer()
	defer server.Close()

	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		panic(err)
	}
	printResponse(resp)

	// Output:
	// Status Code: 200
	// Body: {"status":"healthy","service":"instagram_backend"}
}

func ExampleRouter_PostUsers() {
	server := newExampleServer()
	defer server.Close()

	resp, err := http.Post(
		server.URL+"/users",
		"application/json",
		bytes.NewBufferString(`{"username":"alice","email":"a@x.com","bio":null}`),
	)
	if err != nil {
		panic(err)
	}
	printResponse(resp)

	// Output:
	// Status Code: 201
	// Body: {"id":1,"username":"alice","email":"a@x.com","bio":null}
}

func ExampleRouter_GetUser() {
	server := newExampleServer()
	defer server.Close()

	resp, err := http.Post(server.URL+"/users", "application/json", bytes.NewBufferString(`{"username":"alice"}`))
	if err != nil {
		panic(err)
	}
	resp.Body.Close()

	for _, path := range []string{"/users/1", "/users/99", "/users/abc"} {
		resp, err := http.Get(server.URL + path)
		if err != nil {
			panic(err)
		}
		printResponse(resp)
	}

	// Output:
	// Status Code: 200
	// Body: {"id":1,"username":"alice","email":"","bio":null}
	// Status Code: 404
	// Body: {"error":"user with id 99 not found"}
	// Status Code: 400
	// Body: {"error":"invalid user id \"abc\": must be an unsigned integer"}
}
